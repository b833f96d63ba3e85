package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      App      `mapstructure:"app"`
	AI       AI       `mapstructure:"ai"`
	Airtable Airtable `mapstructure:"airtable"`
	Media    Media    `mapstructure:"media"`
	Sync     Sync     `mapstructure:"sync"`
}

// App holds general application configuration
type App struct {
	Debug    bool   `mapstructure:"debug"`
	DataDir  string `mapstructure:"data_dir"`
	Project  string `mapstructure:"project"`  // Default project snapshot file
	LogLevel string `mapstructure:"log_level"`
}

// AI holds generation provider configuration
type AI struct {
	Gemini        Gemini   `mapstructure:"gemini"`
	OpenAI        OpenAI   `mapstructure:"openai"`
	Preferred     string   `mapstructure:"preferred"`      // Preferred provider/model ref, e.g. "gemini/gemini-flash-lite-latest"
	FallbackOrder []string `mapstructure:"fallback_order"` // Ordered fallback provider/model refs
}

// Gemini holds Google Gemini configuration
type Gemini struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	ImageModel     string `mapstructure:"image_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// OpenAI holds OpenAI configuration
type OpenAI struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	ImageModel string `mapstructure:"image_model"`
	BaseURL    string `mapstructure:"base_url"`
}

// Airtable holds remote relational store configuration
type Airtable struct {
	APIKey  string `mapstructure:"api_key"`
	BaseID  string `mapstructure:"base_id"`
	BaseURL string `mapstructure:"base_url"` // Override for tests
}

// Media holds object/media store configuration
type Media struct {
	Endpoint string `mapstructure:"endpoint"` // Upload endpoint accepting {key: dataURI} maps
	APIKey   string `mapstructure:"api_key"`
}

// Sync holds remote sync behavior configuration
type Sync struct {
	IdleDelaySeconds int `mapstructure:"idle_delay_seconds"` // Delay before the status indicator returns to idle after an error
}

var globalConfig *Config

// Load reads configuration from .env, the config file and environment
// variables, in that order of increasing precedence.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".brandforge")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			cfg = &Config{}
		}
		globalConfig = cfg
	}
	return globalConfig
}

// Reset clears the cached global configuration. Intended for tests.
func Reset() {
	globalConfig = nil
}

func setDefaults() {
	viper.SetDefault("app.data_dir", ".brandforge")
	viper.SetDefault("app.project", "project.json")
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("ai.gemini.model", "gemini-flash-lite-latest")
	viper.SetDefault("ai.gemini.image_model", "imagen-3.0-generate-002")
	viper.SetDefault("ai.gemini.embedding_model", "gemini-embedding-001")
	viper.SetDefault("ai.openai.model", "gpt-4o-mini")
	viper.SetDefault("ai.openai.image_model", "gpt-image-1")
	viper.SetDefault("ai.preferred", "gemini/gemini-flash-lite-latest")
	viper.SetDefault("ai.fallback_order", []string{
		"gemini/gemini-flash-lite-latest",
		"openai/gpt-4o-mini",
	})

	viper.SetDefault("airtable.base_url", "https://api.airtable.com/v0")
	viper.SetDefault("sync.idle_delay_seconds", 3)
}

func bindEnvironmentVariables() {
	envBindings := map[string]string{
		"ai.gemini.api_key": "GEMINI_API_KEY",
		"ai.openai.api_key": "OPENAI_API_KEY",
		"airtable.api_key":  "AIRTABLE_API_KEY",
		"airtable.base_id":  "AIRTABLE_BASE_ID",
		"media.endpoint":    "MEDIA_STORE_ENDPOINT",
		"media.api_key":     "MEDIA_STORE_API_KEY",
	}
	for key, env := range envBindings {
		_ = viper.BindEnv(key, env)
	}
}
