package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the CLI configuration, loaded from tracediff.yaml and the
// TRACEDIFF_* environment, with flags taking precedence in the commands
// that use it.
type Config struct {
	Left      EndpointConfig `mapstructure:"left"`
	Right     EndpointConfig `mapstructure:"right"`
	DB        string         `mapstructure:"db"`
	Scenarios string         `mapstructure:"scenarios"`
}

// EndpointConfig names one client's RPC endpoint.
type EndpointConfig struct {
	URL   string `mapstructure:"url"`
	Label string `mapstructure:"label"`
}

// loadConfig reads configuration from tracediff.yaml in the working
// directory (if present) merged with TRACEDIFF_* environment variables.
// A missing config file is not an error; missing values stay empty and the
// caller applies flag and default fallbacks.
func loadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("tracediff")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("TRACEDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("left.label", "left")
	v.SetDefault("right.label", "right")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
