package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "linkup-admin",
		Short: "LinkUp backend administration",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			if err := logger.Initialize("warn", os.DevNull); err != nil {
				return err
			}
			return database.Initialize()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			database.Close()
		},
	}

	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(storiesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
