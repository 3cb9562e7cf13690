// Package config assembles the engine's configuration: viper-backed
// settings, an immutable snapshot of the resource store and hook
// pipeline, and atomic reload when configuration changes on disk.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Defaults for engine settings
const (
	DefaultHookTimeout  = 5 * time.Second
	DefaultSecondaryCap = 5
)

// Config holds the engine settings resolved from viper
type Config struct {
	// ResourceDirs are directories of markdown resource definitions
	ResourceDirs []string
	// RegistryPath is an optional YAML registry enumerating resources and rules
	RegistryPath string
	// HookSettingsPath is the YAML file declaring hook bindings by phase
	HookSettingsPath string
	// HookTimeout bounds each hook execution
	HookTimeout time.Duration
	// SecondaryCap bounds route plan fan-out
	SecondaryCap int
	// Aliases extends the router's static keyword alias table
	Aliases map[string]string

	LogLevel  string
	LogFormat string
}

// InitViper wires environment variables and the optional config file.
// Settings resolve from HOOKWIRE_* env vars, then hookwire.yaml in the
// working directory or ~/.hookwire.
func InitViper() {
	viper.SetEnvPrefix("HOOKWIRE")
	viper.AutomaticEnv()

	viper.SetConfigName("hookwire")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.hookwire")

	viper.SetDefault("resource_dirs", []string{"./.hookwire/resources"})
	viper.SetDefault("registry_path", "")
	viper.SetDefault("hook_settings_path", "./.hookwire/hooks.yaml")
	viper.SetDefault("hook_timeout", DefaultHookTimeout)
	viper.SetDefault("secondary_cap", DefaultSecondaryCap)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")

	// Missing config file is fine; env vars and defaults still apply.
	_ = viper.ReadInConfig()
}

// FromViper resolves the current settings
func FromViper() *Config {
	return &Config{
		ResourceDirs:     viper.GetStringSlice("resource_dirs"),
		RegistryPath:     viper.GetString("registry_path"),
		HookSettingsPath: viper.GetString("hook_settings_path"),
		HookTimeout:      viper.GetDuration("hook_timeout"),
		SecondaryCap:     viper.GetInt("secondary_cap"),
		Aliases:          viper.GetStringMapString("aliases"),
		LogLevel:         viper.GetString("log_level"),
		LogFormat:        viper.GetString("log_format"),
	}
}
