package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Ports           string `mapstructure:"ports"`
	OutputPath      string `mapstructure:"output_path"`
	Broker          string `mapstructure:"broker"`
	Topic           string `mapstructure:"topic"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
	Host            string `mapstructure:"host"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
	TCPPath         string `mapstructure:"tcp_path"`
	TCP6Path        string `mapstructure:"tcp6_path"`
}

func Default() *Config {
	return &Config{
		IntervalSeconds: 10,
		LogLevel:        "info",
		LogFormat:       "text",
		TCPPath:         "/proc/net/tcp",
		TCP6Path:        "/proc/net/tcp6",
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("conntracker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("/etc/conntracker")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CONNTRACKER")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
