package main

import (
	"brandforge/cmd/handlers"
	"brandforge/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
