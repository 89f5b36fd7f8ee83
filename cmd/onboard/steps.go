package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zerotrust/onboard/internal/steps"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the onboarding steps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printSteps(cmd, steps.Default())
	},
}

func printSteps(cmd *cobra.Command, reg *steps.Registry) error {
	out := cmd.OutOrStdout()
	for i, step := range reg.Steps() {
		key := string(step.ValidityKey)
		if key == "" {
			key = "-"
		}
		if _, err := fmt.Fprintf(out, "%d. %-10s %-16s %-9s %s\n", i+1, step.Slug, step.Name, key, reg.Path(i)); err != nil {
			return err
		}
	}
	return nil
}
