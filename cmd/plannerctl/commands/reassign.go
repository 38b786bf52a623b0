package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stepwise/planner/internal/schedule"
)

// NewReassignCmd creates the reassign command
func NewReassignCmd() *cobra.Command {
	var capacity int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reassign <user>",
		Short: "Roll a user's stale incomplete steps forward",
		Long:  "Run the step reassignment engine over one user's collection and persist the result",
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

			swept, changed := schedule.RollForward(assignments, time.Now(), capacity)
			if !changed {
				fmt.Println("Nothing to reassign")
				return nil
			}

			if dryRun {
				fmt.Println("Collection would change (dry run, not persisted)")
				return nil
			}

			if err := st.Put(ctx, args[0], swept); err != nil {
				return fmt.Errorf("failed to save collection: %w", err)
			}

			fmt.Println("Collection updated")
			return nil
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", schedule.DefaultDailyCapacity, "Maximum steps reassigned to one day")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without persisting")

	return cmd
}
