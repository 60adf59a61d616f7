package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Clark-Hu/moviewatch/internal/catalogsync"
)

var syncCmd = &cobra.Command{
	Use:       "sync [movies|genres|all]",
	Short:     "Pull popular movies and genres from the catalog",
	Long:      `Run a catalog synchronization once and print the resulting reports as JSON.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"movies", "genres", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		svc, err := a.syncService()
		if err != nil {
			return err
		}

		reports, runErr := runSync(ctx, svc, args[0])
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(ctx context.Context, svc *catalogsync.Service, what string) ([]catalogsync.SyncReport, error) {
	switch what {
	case "movies":
		r, err := svc.SyncMovies(ctx)
		return []catalogsync.SyncReport{r}, err
	case "genres":
		r, err := svc.SyncGenres(ctx)
		return []catalogsync.SyncReport{r}, err
	default:
		return svc.SyncAll(ctx)
	}
}
