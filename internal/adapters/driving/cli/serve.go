package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragdesk/ragdesk/internal/adapters/driving/httpapi"
	"github.com/ragdesk/ragdesk/internal/logger"
	"github.com/ragdesk/ragdesk/internal/watcher"
)

var serveWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	Long: `Starts the HTTP server exposing /ingest, /chat, /history, /health
and /config. With --watch, the source directory is monitored and
re-ingested automatically when files change.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "re-ingest when the source directory changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := httpapi.NewServer(ingestor, agent, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Addr())
	}()
	cmd.Printf("Listening on http://%s\n", cfg.Addr())

	if serveWatch {
		debounce := time.Duration(cfg.Ingest.WatchDebounceMs) * time.Millisecond
		w := watcher.New(ingestor, cfg.SourceDir, debounce, []string{".txt", ".md", ".pdf"})
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Watcher stopped: %v", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	cmd.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
