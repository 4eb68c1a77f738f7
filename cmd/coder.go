package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/bugfix/internal/assign"
	"github.com/joescharf/bugfix/internal/output"
)

var coderCmd = &cobra.Command{
	Use:   "coder",
	Short: "Manage the coder roster",
	Long:  "List and register the coders bugs can be assigned to.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return coderListRun()
	},
}

var coderListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List coders",
	RunE: func(cmd *cobra.Command, args []string) error {
		return coderListRun()
	},
}

var coderAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a coder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return coderAddRun(args[0])
	},
}

func init() {
	coderCmd.AddCommand(coderListCmd)
	coderCmd.AddCommand(coderAddCmd)
	rootCmd.AddCommand(coderCmd)
}

func coderListRun() error {
	ctx := context.Background()

	coders, err := getTracker().ListCoders(ctx)
	if err != nil {
		return err
	}

	if len(coders) == 0 {
		ui.Info("No coders registered.")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Selection"})
	for _, coder := range coders {
		sel := assign.User(coder.ID, coder.Name)
		_ = table.Append([]string{
			strconv.FormatInt(coder.ID, 10),
			coder.Name,
			sel.String(),
		})
	}
	_ = table.Render()
	return nil
}

func coderAddRun(name string) error {
	ctx := context.Background()

	if dryRun {
		ui.DryRunMsg("Would register coder: %s", name)
		return nil
	}

	coder, err := getTracker().AddCoder(ctx, name)
	if err != nil {
		return err
	}

	ui.Success("Registered coder %s: %s", output.Cyan(strconv.FormatInt(coder.ID, 10)), coder.Name)
	return nil
}
