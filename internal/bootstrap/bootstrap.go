package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/file-analyzer/internal/config"
	"github.com/kirillkom/file-analyzer/internal/core/ports"
	"github.com/kirillkom/file-analyzer/internal/core/usecase"
	"github.com/kirillkom/file-analyzer/internal/infrastructure/converter"
	"github.com/kirillkom/file-analyzer/internal/infrastructure/llm/openai"
	"github.com/kirillkom/file-analyzer/internal/infrastructure/queue/nats"
	"github.com/kirillkom/file-analyzer/internal/infrastructure/resilience"
	"github.com/kirillkom/file-analyzer/internal/infrastructure/session/memory"
	"github.com/kirillkom/file-analyzer/internal/infrastructure/storage/tempfs"
	"github.com/kirillkom/file-analyzer/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Analyzer ports.FileAnalyzer
	Sessions ports.SessionStore
	Metrics  *metrics.HTTPServerMetrics
	// Events is nil when NATS_URL is not set.
	Events *nats.Publisher

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")

	staging, err := tempfs.New(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("init staging area: %w", err)
	}

	llmExecutor := resilience.NewExecutor(resilience.LanguageModelConfig(
		cfg.OpenAIRetryMaxAttempts,
		time.Duration(cfg.OpenAIRetryInitialBackoffMS)*time.Millisecond,
		time.Duration(cfg.OpenAIRetryMaxBackoffMS)*time.Millisecond,
		cfg.OpenAIBreakerEnabled,
	))
	llmClient := openai.New(
		openai.Config{
			APIKey:             cfg.OpenAIAPIKey,
			BaseURL:            cfg.OpenAIBaseURL,
			Model:              cfg.OpenAIModel,
			VisionModel:        cfg.OpenAIConversionModel,
			TranscriptionModel: cfg.OpenAITranscriptionModel,
			HTTPTimeout:        cfg.ExternalCallTimeout(),
		},
		openai.WithResilience(llmExecutor),
		openai.WithUsageObserver(func(operation, model string, promptTokens, completionTokens int) {
			httpMetrics.RecordTokenUsage("api", operation, model, promptTokens, completionTokens)
		}),
	)
	describer := openai.NewImageDescriber(llmClient)
	documents := converter.New(
		converter.WithTranscriber(openai.NewTranscriber(llmClient)),
		converter.WithImageDescriber(describer),
	)

	var (
		publisher ports.EventPublisher
		events    *nats.Publisher
	)
	if strings.TrimSpace(cfg.NATSURL) != "" {
		events, err = nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.EventPublishConfig()),
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		publisher = events
	}

	analyzer := usecase.NewAnalyzeFileUseCase(
		usecase.NewFileValidator(cfg.MaxFileSizeBytes()),
		staging,
		usecase.NewDispatcher(describer, documents),
		openai.NewSummarizer(llmClient),
		usecase.AnalyzeOptions{
			ExternalCallTimeout: cfg.ExternalCallTimeout(),
			Publisher:           publisher,
			OnReleaseError: func(string, error) {
				httpMetrics.RecordCleanupFailure("api")
			},
		},
	)

	slog.Debug("bootstrap_complete",
		"model", cfg.OpenAIModel,
		"conversion_model", cfg.OpenAIConversionModel,
		"max_file_size_mb", cfg.MaxFileSizeMB,
		"events_enabled", events != nil,
	)

	return &App{
		Config:   cfg,
		Analyzer: analyzer,
		Sessions: memory.New(cfg.SessionTTL()),
		Metrics:  httpMetrics,
		Events:   events,

		closeFn: func() {
			if events != nil {
				events.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
