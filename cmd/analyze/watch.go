package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print analysis.completed events published by the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()
			if app.Events == nil {
				return errors.New("NATS_URL is not set")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return app.Events.Subscribe(ctx, func(_ context.Context, event domain.AnalysisEvent) error {
				return enc.Encode(event)
			})
		},
	}
}
