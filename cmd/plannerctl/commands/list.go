package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored assignment collections",
		Long:  "List every user with a stored collection and their assignment counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}

			ctx := context.Background()
			users, err := st.ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(users) == 0 {
				fmt.Println("No collections stored")
				return nil
			}

			for _, user := range users {
				assignments, err := st.Get(ctx, user)
				if err != nil {
					return fmt.Errorf("failed to load collection for %s: %w", user, err)
				}
				fmt.Printf("%s\t%d assignments\n", user, len(assignments))
			}

			return nil
		},
	}

	return cmd
}
