package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	ingestSource string
	ingestReset  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest source documents into the knowledge base",
	Long: `Loads every supported file (.txt, .md, .pdf) from the source
directory, splits the text into chunks, embeds new chunks and stores
them. Re-running on unchanged sources is a no-op.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "", "source directory (default from config)")
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "clear the index before ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	ctx := context.Background()

	if ingestReset {
		if err := ingestor.Reset(ctx); err != nil {
			return fmt.Errorf("resetting index: %w", err)
		}
		cmd.Println("Index cleared.")
	}

	source := ingestSource
	if source == "" {
		source = cfg.SourceDir
	}

	report, err := ingestor.Ingest(ctx, source)
	if err != nil {
		return err
	}

	cmd.Printf("Ingested %d documents (%d pages), %d new chunks.\n",
		report.DocumentsProcessed, report.PagesLoaded, report.ChunksCreated)

	if len(report.Failures) > 0 {
		cmd.Printf("%d files failed:\n", len(report.Failures))
		for _, f := range report.Failures {
			cmd.Printf("  - %s\n", f)
		}
	}

	return nil
}
