package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkup-app/backend/internal/stories"
)

func storiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stories",
		Short: "Manage ephemeral stories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge-expired",
		Short: "Delete expired stories not saved to any highlight",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Image deletion is skipped here: the server's cleanup loop
			// owns S3 credentials, this command only clears rows
			deleted, err := stories.CleanupExpired(context.Background(), nil)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d expired stories\n", deleted)
			return nil
		},
	})

	return cmd
}
