package ports

import (
	"context"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

// FileAnalyzer is the inbound contract for the upload-to-summary workflow.
type FileAnalyzer interface {
	Analyze(ctx context.Context, session *domain.Session, artifact domain.UploadedArtifact) (*domain.AnalysisResult, error)
}

// SessionStore keeps per-session state for the lifetime of a user session.
type SessionStore interface {
	Create(ctx context.Context) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
