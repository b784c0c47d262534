package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kirillkom/file-analyzer/internal/bootstrap"
	"github.com/kirillkom/file-analyzer/internal/config"
	"github.com/kirillkom/file-analyzer/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "analyze",
		Short:        "Convert and summarize files from the command line",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand(), newTypesCommand(), newWatchCommand())
	return root
}

// loadApp builds the same object graph the API uses. Logs go to stderr so
// command output stays machine readable.
func loadApp(ctx context.Context) (*bootstrap.App, error) {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "analyze", logging.EffectiveLevel(cfg.LogLevel, cfg.Debug)))

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, nil
}
