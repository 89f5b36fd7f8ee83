package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/zerotrust/onboard/internal/config"
	"github.com/zerotrust/onboard/internal/logger"
	"github.com/zerotrust/onboard/internal/tui/theme"
)

const (
	logoText1 = "▀█ █▀▀ █▀█ █▀█ ▀█▀ █▀█ █ █ █▀ ▀█▀"
	logoText2 = "█▄ ██▄ █▀▄ █▄█  █  █▀▄ █▄█ ▄█  █ "
)

// Version set via ldflags during build
var version = "dev"

func main() {
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "First-run setup wizard for a Zerotrust gateway",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

onboard provisions a fresh Zerotrust gateway: it creates the administrator
account, sets the gateway prefix and accent color, optionally registers a
first downstream service, then submits everything in one setup call and
signs in.`

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the layered config and applies its logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.Default.SetLevel(level)
	} else {
		logger.Warn("Ignoring log level %q: %v", cfg.LogLevel, err)
	}
	if cfg.LogFile != "" {
		logger.Default.SetFile(cfg.LogFile)
	}
	return cfg, nil
}
