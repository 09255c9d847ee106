package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds plugin configuration.
type Config struct {
	// Subtitle grammar: "SRT" or "WEBVTT". Anything other than the
	// exact value "WEBVTT" yields SRT output.
	Format string `mapstructure:"format"`

	// Embed muxes the generated subtitle into the video artifact as a
	// soft subtitle track (requires ffmpeg).
	Embed bool `mapstructure:"embed"`

	Verbose bool `mapstructure:"verbose"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format: "SRT",
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("stepcue")
	v.SetConfigType("yaml")

	// config paths, lowest precedence first
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "stepcue"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".stepcue")
	}
	v.AddConfigPath(".")

	// environment variables
	v.SetEnvPrefix("STEPCUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("format", "STEPCUE_FORMAT")
	v.BindEnv("embed", "STEPCUE_EMBED")
	v.BindEnv("verbose", "STEPCUE_VERBOSE")

	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("embed", cfg.Embed)
	v.SetDefault("verbose", cfg.Verbose)

	// missing config file is fine; defaults and env apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
