package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/models"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <username>",
		Short: "Print a user's account details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var user models.User
			err := database.DB.Where("LOWER(username) = LOWER(?)", args[0]).First(&user).Error
			if err != nil {
				return fmt.Errorf("user %q: %w", args[0], err)
			}

			fmt.Printf("ID:           %s\n", user.ID)
			fmt.Printf("Username:     %s\n", user.Username)
			fmt.Printf("Email:        %s\n", user.Email)
			fmt.Printf("Display name: %s\n", user.DisplayName)
			fmt.Printf("Private:      %t\n", user.IsPrivate)
			fmt.Printf("Admin:        %t\n", user.IsAdmin)
			fmt.Printf("Followers:    %d\n", user.FollowerCount)
			fmt.Printf("Following:    %d\n", user.FollowingCount)
			fmt.Printf("Posts:        %d\n", user.PostCount)
			fmt.Printf("Created:      %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
			if user.LastActiveAt != nil {
				fmt.Printf("Last active:  %s\n", user.LastActiveAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "promote-admin <username>",
		Short: "Grant admin privileges to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := database.DB.Model(&models.User{}).
				Where("LOWER(username) = LOWER(?)", args[0]).
				Update("is_admin", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("user %q not found", args[0])
			}
			fmt.Printf("%s is now an admin\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "demote-admin <username>",
		Short: "Revoke admin privileges from a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := database.DB.Model(&models.User{}).
				Where("LOWER(username) = LOWER(?)", args[0]).
				Update("is_admin", false)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("user %q not found", args[0])
			}
			fmt.Printf("%s is no longer an admin\n", args[0])
			return nil
		},
	})

	return cmd
}
