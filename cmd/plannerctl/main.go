package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stepwise/planner/cmd/plannerctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "plannerctl",
		Short: "Admin tool for the assignment planner data directory",
		Long:  "CLI tool for inspecting and maintaining stored assignment collections",
	}

	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewShowCmd())
	rootCmd.AddCommand(commands.NewReassignCmd())
	rootCmd.AddCommand(commands.NewDedupeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
