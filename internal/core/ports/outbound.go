package ports

import (
	"context"
	"io"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

// StagedFile is an upload materialized on disk for tools that need a path.
type StagedFile interface {
	Path() string
	Size() int64
	// Release removes the file. Only the first call does any work.
	Release() error
}

// StagingArea writes uploads to transient storage.
type StagingArea interface {
	Stage(ctx context.Context, body io.Reader, ext string) (StagedFile, error)
}

// DocumentConverter turns a staged document into text.
type DocumentConverter interface {
	Convert(ctx context.Context, path string) (domain.ConversionResult, error)
}

// ImageDescriber produces a textual description of a staged image.
type ImageDescriber interface {
	Describe(ctx context.Context, path string) (string, error)
}

// TextSummarizer condenses extracted text.
type TextSummarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// EventPublisher announces finished analyses.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, event domain.AnalysisEvent) error
}
