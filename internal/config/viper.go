package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment variables read through viper, e.g.
// SAPLING_UNIT_REV or SAPLING_UNIT_MAX_INTERRUPTS.
const EnvPrefix = "SAPLING_UNIT"

// NewViper returns a viper instance configured for SAPLING_UNIT_* environment
// variables and an optional config file.
//
// Search order when configFile is empty:
//   - $HOME/.sapling-unit/config.(yaml|yml|json|toml|...)
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("vcs", "hg")
	v.SetDefault("max-interrupts", DefaultMaxInterrupts)

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		return v, nil
	}

	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return v, nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(home, ".sapling-unit"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, err
	}
	return v, nil
}
