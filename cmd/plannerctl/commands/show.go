package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stepwise/planner/internal/models"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <user> [assignment-id]",
		Short: "Show a user's collection or one assignment",
		Args:  cobra.RangeArgs(1, 2),
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

			var value any = assignments
			if len(args) == 2 {
				var found *models.Assignment
				for i := range assignments {
					if assignments[i].ID == args[1] {
						found = &assignments[i]
						break
					}
				}
				if found == nil {
					return fmt.Errorf("assignment %s not found", args[1])
				}
				value = found
			}

			switch output {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(value)
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				defer enc.Close()
				return enc.Encode(value)
			default:
				return fmt.Errorf("unknown output format: %s", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format (json|yaml)")

	return cmd
}
