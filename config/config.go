package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	OCR    OCRConfig
	Upload UploadConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OCRConfig holds OCR.space API configuration
type OCRConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Engine  string `mapstructure:"engine"`
}

// UploadConfig holds upload filtering configuration
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/labelcheck/")

	// Environment variable settings
	v.SetEnvPrefix("LABELCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "80")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// OCR.space defaults
	v.SetDefault("ocr.base_url", "https://api.ocr.space/parse/image")
	v.SetDefault("ocr.engine", "1")

	// Upload defaults
	v.SetDefault("upload.max_bytes", int64(1<<20)) // 1 MiB
}

// validate validates the configuration
func validate(config *Config) error {
	if config.OCR.APIKey == "" {
		return fmt.Errorf("OCR API key is required (set LABELCHECK_OCR_API_KEY)")
	}

	if config.OCR.BaseURL == "" {
		return fmt.Errorf("OCR base URL must not be empty")
	}

	if config.OCR.Engine == "" {
		return fmt.Errorf("OCR engine must not be empty")
	}

	if config.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max_bytes must be positive, got: %d", config.Upload.MaxBytes)
	}

	return nil
}
