package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points the global and project config locations at empty temp dirs.
func isolate(t *testing.T) (xdg, project string) {
	t.Helper()
	xdg = t.TempDir()
	project = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(project)
	for _, env := range envKeys {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	return xdg, project
}

func TestGlobalPath(t *testing.T) {
	tests := []struct {
		name      string
		xdgConfig string
	}{
		{name: "with XDG_CONFIG_HOME set", xdgConfig: "/custom/config"},
		{name: "without XDG_CONFIG_HOME", xdgConfig: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConfig)

			got := GlobalPath()
			if tt.xdgConfig != "" {
				if got != "/custom/config/onboard/onboard.yml" {
					t.Errorf("GlobalPath() = %v, want /custom/config/onboard/onboard.yml", got)
				}
				return
			}
			if !filepath.IsAbs(got) {
				t.Errorf("GlobalPath() should return absolute path, got %v", got)
			}
			if !strings.HasSuffix(got, filepath.Join(".config", "onboard", "onboard.yml")) {
				t.Errorf("GlobalPath() should end with .config/onboard/onboard.yml, got %v", got)
			}
		})
	}
}

func TestProjectPath(t *testing.T) {
	if got := ProjectPath(); got != "onboard.yml" {
		t.Errorf("ProjectPath() = %v, want onboard.yml", got)
	}
}

func TestExists(t *testing.T) {
	xdg, _ := isolate(t)
	require.False(t, Exists())

	require.NoError(t, WriteProject(Defaults()))
	require.True(t, Exists())

	require.NoError(t, os.Remove(ProjectPath()))
	require.False(t, Exists())

	require.NoError(t, WriteGlobal(Defaults()))
	require.FileExists(t, filepath.Join(xdg, "onboard", "onboard.yml"))
	require.True(t, Exists())
}

func TestWriteGlobal(t *testing.T) {
	xdg, _ := isolate(t)

	cfg := Defaults()
	cfg.ServerURL = "https://gateway.example.com"
	cfg.LoginDelay = 2 * time.Second
	require.NoError(t, WriteGlobal(cfg))

	data, err := os.ReadFile(filepath.Join(xdg, "onboard", "onboard.yml"))
	require.NoError(t, err)

	for _, want := range []string{
		"server_url: https://gateway.example.com",
		"login_delay: 2s",
		"request_timeout: 30s",
		"log_level: info",
		"prefix: _zero",
		"accent: indigo",
	} {
		require.Contains(t, string(data), want)
	}
}

func TestLoad_NoConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)

	global := Defaults()
	global.ServerURL = "http://global:8080"
	global.LogLevel = "debug"
	global.App.Name = "Global"
	require.NoError(t, WriteGlobal(global))

	project := Defaults()
	project.ServerURL = "http://project:8080"
	project.LogLevel = "debug"
	project.App.Name = "Global"
	project.LoginDelay = time.Second
	require.NoError(t, WriteProject(project))

	t.Setenv("ONBOARD_APP_ACCENT", "teal")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://project:8080", cfg.ServerURL, "project overrides global")
	require.Equal(t, time.Second, cfg.LoginDelay)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "Global", cfg.App.Name)
	require.Equal(t, "teal", cfg.App.Accent, "env overrides files")
}

func TestLoad_EnvDuration(t *testing.T) {
	isolate(t)
	t.Setenv("ONBOARD_LOGIN_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.LoginDelay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "https server", mutate: func(c *Config) { c.ServerURL = "https://gw.example.com" }},
		{name: "zero delay", mutate: func(c *Config) { c.LoginDelay = 0 }},
		{name: "ftp server", mutate: func(c *Config) { c.ServerURL = "ftp://gw" }, wantErr: "scheme"},
		{name: "no host", mutate: func(c *Config) { c.ServerURL = "http://" }, wantErr: "host"},
		{name: "negative delay", mutate: func(c *Config) { c.LoginDelay = -time.Second }, wantErr: "login_delay"},
		{name: "negative timeout", mutate: func(c *Config) { c.RequestTimeout = -1 }, wantErr: "request_timeout"},
		{name: "unsafe prefix", mutate: func(c *Config) { c.App.Prefix = "a b" }, wantErr: "app.prefix"},
		{name: "unknown accent", mutate: func(c *Config) { c.App.Accent = "beige" }, wantErr: "app.accent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
