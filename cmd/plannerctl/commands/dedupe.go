package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stepwise/planner/internal/store"
)

// NewDedupeCmd creates the dedupe command
func NewDedupeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe <user>",
		Short: "Collapse duplicate assignment titles in a collection",
		Long:  "Remove assignments whose analysis title duplicates an earlier one, keeping the first occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}

			ctx := context.Background()
			assignments, err := st.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load collection: %w", err)
			}

			deduped := store.DeduplicateByTitle(assignments)
			removed := len(assignments) - len(deduped)
			if removed == 0 {
				fmt.Println("No duplicates found")
				return nil
			}

			if err := st.Put(ctx, args[0], deduped); err != nil {
				return fmt.Errorf("failed to save collection: %w", err)
			}

			fmt.Printf("Removed %d duplicate assignment(s)\n", removed)
			return nil
		},
	}

	return cmd
}
