package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.migrate(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Migrations up to date.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
