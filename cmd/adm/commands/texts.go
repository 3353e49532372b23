package commands

import (
	"context"
	"fmt"
	"os"

	"lesewerk/internal/observability"
	"lesewerk/internal/store"

	"github.com/spf13/cobra"
)

// TextCommands returns the saved text commands
func TextCommands(st *store.Store, logger *observability.Logger) *cobra.Command {
	textCmd := &cobra.Command{
		Use:   "texts",
		Short: "Saved text commands",
		Long: `Saved text commands for lesewerk.

Available commands:
  list   - List saved texts
  export - Export saved texts as plain text`,
	}

	textCmd.AddCommand(listTextsCmd(st, logger))
	textCmd.AddCommand(exportTextsCmd(st, logger))

	return textCmd
}

func listTextsCmd(st *store.Store, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved texts",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			texts, err := st.SavedTexts(ctx)
			if err != nil {
				logger.Error(ctx, "Failed to load saved texts", err)
				return err
			}

			if len(texts) == 0 {
				fmt.Println("No saved texts.")
				return nil
			}
			for i, t := range texts {
				fmt.Printf("%3d  %-8s %s\n", i, t.Level, t.Title)
			}
			return nil
		},
	}
}

func exportTextsCmd(st *store.Store, logger *observability.Logger) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved texts as plain text",
		Long:  `Export all saved texts as one plain-text document, to stdout or to a file.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			content, err := st.ExportTexts(ctx)
			if err != nil {
				logger.Error(ctx, "Failed to export texts", err)
				return err
			}

			if output == "" {
				fmt.Print(content)
				return nil
			}
			if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Printf("Exported to %s.\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
