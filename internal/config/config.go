package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults for optional settings.
const (
	DefaultPort         = 3001
	DefaultCapacity     = 100
	DefaultNetwork      = "mainnet"
	DefaultChainhookURL = "https://api.hiro.so/v1/chainhooks"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	APIKey       string
	Contract     string
	BaseURL      string
	ChainhookURL string
	Network      string
	Port         int
	Capacity     int
	ArchivePath  string
	LogLevel     string
}

// Load merges a local .env file, config file, environment variables,
// and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	// Best effort: a missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STACKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", DefaultPort)
	v.SetDefault("capacity", DefaultCapacity)
	v.SetDefault("network", DefaultNetwork)
	v.SetDefault("chainhook-url", DefaultChainhookURL)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		APIKey:       v.GetString("api-key"),
		Contract:     v.GetString("contract"),
		BaseURL:      v.GetString("base-url"),
		ChainhookURL: v.GetString("chainhook-url"),
		Network:      v.GetString("network"),
		Port:         v.GetInt("port"),
		Capacity:     v.GetInt("capacity"),
		ArchivePath:  v.GetString("archive-path"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the fields required before the service can start.
// A failure here is fatal: the listener must not bind without them.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if c.Contract == "" {
		return fmt.Errorf("contract identifier is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be greater than zero, got %d", c.Capacity)
	}
	return nil
}

// WebhookURL returns the delivery URL registered with the provider.
func (c Config) WebhookURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/webhook"
}
