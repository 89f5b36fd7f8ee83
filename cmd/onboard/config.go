package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zerotrust/onboard/internal/config"
)

var configFlags struct {
	project bool
	force   bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the onboard configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an onboard configuration file",
	Long: `Create an onboard configuration file with the built-in defaults.

By default, creates a global config at ~/.config/onboard/onboard.yml.
Use --project to create a project-local config in the current directory.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	configInitCmd.Flags().BoolVarP(&configFlags.force, "force", "f", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if configFlags.project {
		targetPath = config.ProjectPath()
	}

	if !configFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	var err error
	if configFlags.project {
		err = config.WriteProject(config.Defaults())
	} else {
		err = config.WriteGlobal(config.Defaults())
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config written to: %s\n\n", targetPath)
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'onboard setup' to get started.")
	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
