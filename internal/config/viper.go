// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/voice-ledger/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Supported completion providers.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	AI struct {
		Provider          string  `mapstructure:"provider" yaml:"provider"`
		Model             string  `mapstructure:"model" yaml:"model"`
		Temperature       float64 `mapstructure:"temperature" yaml:"temperature"`
		TimeoutSeconds    int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
		MaxRetries        int     `mapstructure:"max_retries" yaml:"max_retries"`
		BackoffBaseMillis int     `mapstructure:"backoff_base_ms" yaml:"backoff_base_ms"`
		BaseURL           string  `mapstructure:"base_url" yaml:"base_url"`
		GeminiAPIKey      string  `mapstructure:"gemini_api_key" yaml:"-"`
		GroqAPIKey        string  `mapstructure:"groq_api_key" yaml:"-"`
	} `mapstructure:"ai" yaml:"ai"`

	Gate struct {
		MinConfidence        float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
		SuggestionConfidence float64 `mapstructure:"suggestion_confidence" yaml:"suggestion_confidence"`
	} `mapstructure:"gate" yaml:"gate"`

	Server struct {
		Addr          string `mapstructure:"addr" yaml:"addr"`
		AllowedOrigin string `mapstructure:"allowed_origin" yaml:"allowed_origin"`
	} `mapstructure:"server" yaml:"server"`

	Forex struct {
		Base       string `mapstructure:"base" yaml:"base"`
		TTLMinutes int    `mapstructure:"ttl_minutes" yaml:"ttl_minutes"`
		Endpoint   string `mapstructure:"endpoint" yaml:"endpoint"`
		APIKey     string `mapstructure:"api_key" yaml:"-"`
	} `mapstructure:"forex" yaml:"forex"`

	Catalog struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"catalog" yaml:"catalog"`
}

// APIKey returns the key of the configured provider.
func (c *Config) APIKey() string {
	if c.AI.Provider == ProviderGroq {
		return c.AI.GroqAPIKey
	}
	return c.AI.GeminiAPIKey
}

// Timeout is the per-call provider deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// BackoffBase is the first retry delay.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.AI.BackoffBaseMillis) * time.Millisecond
}

// ForexTTL is how long fetched rates stay fresh.
func (c *Config) ForexTTL() time.Duration {
	return time.Duration(c.Forex.TTLMinutes) * time.Minute
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration from defaults, an optional config file and the
// environment. An explicit file path wins over the search locations.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.voice-ledger")
		v.AddConfigPath(".voice-ledger")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("VOICE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configFile != "" {
				return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
			}
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Secrets come from their conventional, unprefixed variables
	secrets := map[string]string{
		"ai.gemini_api_key": "GEMINI_API_KEY",
		"ai.groq_api_key":   "GROQ_API_KEY",
		"forex.api_key":     "EXCHANGE_API_KEY",
	}
	for key, env := range secrets {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ai.provider", ProviderGroq)
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.temperature", 0.0)
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.requests_per_minute", 30)
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.backoff_base_ms", 500)
	v.SetDefault("ai.base_url", "")

	v.SetDefault("gate.min_confidence", 0.7)
	v.SetDefault("gate.suggestion_confidence", 0.9)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origin", "*")

	v.SetDefault("forex.base", "USD")
	v.SetDefault("forex.ttl_minutes", 60)
	v.SetDefault("forex.endpoint", "https://v6.exchangerate-api.com/v6")

	v.SetDefault("catalog.file", "")
}

// DefaultModel returns the model used when ai.model is empty.
func DefaultModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.0-flash"
	}
	return "llama-3.3-70b-versatile"
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.AI.Provider != ProviderGemini && config.AI.Provider != ProviderGroq {
		return fmt.Errorf("ai.provider must be '%s' or '%s', got: %s", ProviderGemini, ProviderGroq, config.AI.Provider)
	}
	if config.AI.Model == "" {
		config.AI.Model = DefaultModel(config.AI.Provider)
	}

	if config.AI.Temperature < 0.0 || config.AI.Temperature > 2.0 {
		return fmt.Errorf("ai.temperature must be between 0.0 and 2.0, got: %f", config.AI.Temperature)
	}

	if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
		return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
	}

	if config.AI.RequestsPerMinute < 1 || config.AI.RequestsPerMinute > 1000 {
		return fmt.Errorf("ai.requests_per_minute must be between 1 and 1000, got: %d", config.AI.RequestsPerMinute)
	}

	if config.AI.MaxRetries < 0 || config.AI.MaxRetries > 10 {
		return fmt.Errorf("ai.max_retries must be between 0 and 10, got: %d", config.AI.MaxRetries)
	}

	if config.AI.BackoffBaseMillis < 0 {
		return fmt.Errorf("ai.backoff_base_ms must not be negative, got: %d", config.AI.BackoffBaseMillis)
	}

	for name, value := range map[string]float64{
		"gate.min_confidence":        config.Gate.MinConfidence,
		"gate.suggestion_confidence": config.Gate.SuggestionConfidence,
	} {
		if value < 0.0 || value > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got: %f", name, value)
		}
	}

	if len(config.Forex.Base) != 3 {
		return fmt.Errorf("forex.base must be a three-letter currency code, got: %s", config.Forex.Base)
	}
	config.Forex.Base = strings.ToUpper(config.Forex.Base)

	if config.Forex.TTLMinutes < 1 {
		return fmt.Errorf("forex.ttl_minutes must be positive, got: %d", config.Forex.TTLMinutes)
	}

	return nil
}

// ConfigureLoggingFromConfig builds the process logger from the log section.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	return logging.NewLogrus(config.Log.Level, config.Log.Format, nil)
}
