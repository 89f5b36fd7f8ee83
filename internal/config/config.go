// Package config provides centralized configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/zerotrust/onboard/internal/validate"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for onboard.
type Config struct {
	ServerURL      string        `mapstructure:"server_url" yaml:"server_url"`
	LoginDelay     time.Duration `mapstructure:"login_delay" yaml:"login_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile        string        `mapstructure:"log_file" yaml:"log_file"`
	App            AppConfig     `mapstructure:"app" yaml:"app"`
}

// AppConfig describes the gateway being set up. Logo and prefix seed the
// settings step.
type AppConfig struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Logo   string `mapstructure:"logo" yaml:"logo"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	Accent string `mapstructure:"accent" yaml:"accent"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		ServerURL:      "http://127.0.0.1:8080",
		LoginDelay:     5 * time.Second,
		RequestTimeout: 30 * time.Second,
		LogLevel:       "info",
		LogFile:        "",
		App: AppConfig{
			Name:   "Zerotrust",
			Logo:   "/_zero/static/logo.png",
			Prefix: "_zero",
			Accent: "indigo",
		},
	}
}

// envKeys maps config keys to their environment variables.
var envKeys = map[string]string{
	"server_url":      "ONBOARD_SERVER_URL",
	"login_delay":     "ONBOARD_LOGIN_DELAY",
	"request_timeout": "ONBOARD_REQUEST_TIMEOUT",
	"log_level":       "ONBOARD_LOG_LEVEL",
	"log_file":        "ONBOARD_LOG_FILE",
	"app.name":        "ONBOARD_APP_NAME",
	"app.logo":        "ONBOARD_APP_LOGO",
	"app.prefix":      "ONBOARD_APP_PREFIX",
	"app.accent":      "ONBOARD_APP_ACCENT",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("onboard")

	d := Defaults()
	v.SetDefault("server_url", d.ServerURL)
	v.SetDefault("login_delay", d.LoginDelay)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.logo", d.App.Logo)
	v.SetDefault("app.prefix", d.App.Prefix)
	v.SetDefault("app.accent", d.App.Accent)

	// Setup ENV binding with ONBOARD_ prefix
	v.SetEnvPrefix("ONBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values the wizard depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server_url %q: scheme must be http or https", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server_url %q: missing host", c.ServerURL)
	}
	if c.LoginDelay < 0 {
		return errors.New("login_delay must not be negative")
	}
	if c.RequestTimeout < 0 {
		return errors.New("request_timeout must not be negative")
	}
	if c.App.Prefix != "" && !validate.Safe(c.App.Prefix, 1) {
		return fmt.Errorf("invalid app.prefix %q", c.App.Prefix)
	}
	if c.App.Accent != "" && !validate.Color(c.App.Accent) {
		return fmt.Errorf("invalid app.accent %q", c.App.Accent)
	}
	return nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/onboard/onboard.yml or $XDG_CONFIG_HOME/onboard/onboard.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "onboard", "onboard.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "onboard", "onboard.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./onboard.yml in the current working directory.
func ProjectPath() string {
	return "onboard.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
