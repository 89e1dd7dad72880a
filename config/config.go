// Package config loads simulator configuration from defaults, an
// optional yaml file, and QUACKLE_-prefixed environment variables.
package config

import (
	"errors"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	StrategyParamsPath string `mapstructure:"strategy-params-path"`
	WinPCTFile         string `mapstructure:"winpct-file"`
	SimLogFile         string `mapstructure:"sim-log-file"`
	Threads            int    `mapstructure:"threads"`
	DefaultPlies       int    `mapstructure:"default-plies"`
	DefaultIterations  int    `mapstructure:"default-iterations"`
}

func DefaultConfig() Config {
	return Config{
		StrategyParamsPath: "./data/strategy",
		WinPCTFile:         "winpct.csv",
		Threads:            max(1, runtime.NumCPU()),
		DefaultPlies:       2,
		DefaultIterations:  1000,
	}
}

// Load reads configuration. cfgFile may be empty, in which case only
// defaults and the environment apply.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("strategy-params-path", defaults.StrategyParamsPath)
	v.SetDefault("winpct-file", defaults.WinPCTFile)
	v.SetDefault("sim-log-file", defaults.SimLogFile)
	v.SetDefault("threads", defaults.Threads)
	v.SetDefault("default-plies", defaults.DefaultPlies)
	v.SetDefault("default-iterations", defaults.DefaultIterations)

	v.SetEnvPrefix("quackle")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
