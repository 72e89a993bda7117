package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// demoConfig mirrors the handful of knobs a bowlerdemo invocation cares
// about. Values are resolved in the usual viper precedence order: flags,
// then BOWLERDEMO_* environment variables, then a --config file, then
// these defaults.
type demoConfig struct {
	Network        string `mapstructure:"network" yaml:"network"`
	Address        string `mapstructure:"address" yaml:"address"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
	HeartbeatMS    uint32 `mapstructure:"heartbeat_ms" yaml:"heartbeat_ms"`
	TimeoutMS      uint32 `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	Introspect     bool   `mapstructure:"introspect" yaml:"introspect"`
	IntrospectRPCs bool   `mapstructure:"introspect_rpcs" yaml:"introspect_rpcs"`
}

func defaultConfig() demoConfig {
	return demoConfig{
		Network:     "tcp",
		Address:     "127.0.0.1:9001",
		LogLevel:    "info",
		HeartbeatMS: 3000,
		TimeoutMS:   2000,
		Introspect:  true,
	}
}

// loadConfig merges configFile (if non-empty), BOWLERDEMO_* environment
// variables, and whatever flags v already has bound, on top of
// defaultConfig.
func loadConfig(v *viper.Viper, configFile string) (demoConfig, error) {
	cfg := defaultConfig()

	v.SetEnvPrefix("BOWLERDEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// writeDefaultConfig marshals defaultConfig to YAML and writes it to
// path, refusing to overwrite an existing file unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	data, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
