package logger

import "testing"

func TestGetReturnsStableLogger(t *testing.T) {
	first := Get()
	second := Get()
	if first != second {
		t.Fatal("Get should return the same logger across calls")
	}
	// Event builders hang off the logger pointer; a chained call must work.
	first.Debug().Str("check", "chained").Msg("")
}

func TestHelpersAcceptFieldPairs(t *testing.T) {
	Debug("debug message", "key", "value")
	Info("info message", "key", "value")
	Warn("warn message", "key", "value")
	Error("error message", nil, "key", "value")
}
