// Package commands implements the adm subcommands.
package commands

import (
	"context"
	"fmt"

	"lesewerk/internal/config"
	"lesewerk/internal/observability"
	"lesewerk/internal/store"

	"github.com/spf13/cobra"
)

// StoreCommands returns the store maintenance commands
func StoreCommands(st *store.Store, logger *observability.Logger) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Store maintenance commands",
		Long: `Store maintenance commands for lesewerk.

Available commands:
  stats - Show collection sizes
  clear - Clear one collection`,
	}

	storeCmd.AddCommand(statsCmd(st, logger))
	storeCmd.AddCommand(clearCmd(st, logger))

	return storeCmd
}

func statsCmd(st *store.Store, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collection sizes",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			lists, err := st.FavoriteLists(ctx)
			if err != nil {
				logger.Error(ctx, "Failed to load favorite lists", err)
				return err
			}
			texts, err := st.SavedTexts(ctx)
			if err != nil {
				logger.Error(ctx, "Failed to load saved texts", err)
				return err
			}

			words := 0
			for _, l := range lists {
				words += len(l.Words)
			}
			fmt.Printf("Favorite lists: %d (%d words)\n", len(lists), words)
			fmt.Printf("Saved texts:    %d\n", len(texts))
			return nil
		},
	}
}

func clearCmd(st *store.Store, logger *observability.Logger) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear [favorites|texts]",
		Short: "Clear one collection",
		Long:  `Clear the favorites or the saved texts collection. Requires --yes to actually delete.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := context.Background()

			var key string
			switch args[0] {
			case "favorites":
				key = config.StoreKeyFavoriteLists
			case "texts":
				key = config.StoreKeySavedTexts
			default:
				return fmt.Errorf("unknown collection %q, expected favorites or texts", args[0])
			}

			if !yes {
				fmt.Printf("Would clear %s. Re-run with --yes to delete.\n", args[0])
				return nil
			}

			if err := st.Clear(ctx, key); err != nil {
				logger.Error(ctx, "Failed to clear collection", err)
				return err
			}
			fmt.Printf("Cleared %s.\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "actually delete the collection")
	return cmd
}
