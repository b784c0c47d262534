package domain

import (
	"io"
	"time"
)

const (
	NoDescriptionFallback = "No description available."
	ImageAnalysisSummary  = "Image Analysis"
	NoContentWarning      = "No text content could be extracted from this file."
)

type AnalysisOutcome string

const (
	OutcomeDescribed  AnalysisOutcome = "described"
	OutcomeSummarized AnalysisOutcome = "summarized"
	OutcomeNoContent  AnalysisOutcome = "no_content"
)

// UploadedArtifact is one user-submitted file. Body is consumed once.
type UploadedArtifact struct {
	Name string
	Size int64
	Body io.Reader
}

type ValidationResult struct {
	Valid   bool   `json:"is_valid"`
	Message string `json:"error_message"`
}

type ConversionResult struct {
	TextContent string `json:"text_content"`
}

// Conversion is what the dispatcher hands back to the orchestrator.
type Conversion struct {
	Category  FileCategory
	Text      string
	ImageData []byte
}

type AnalysisResult struct {
	Filename      string          `json:"filename"`
	FileType      string          `json:"file_type"`
	Category      FileCategory    `json:"category"`
	Outcome       AnalysisOutcome `json:"outcome"`
	Summary       string          `json:"summary,omitempty"`
	Content       string          `json:"content,omitempty"`
	ImageData     []byte          `json:"image_data,omitempty"`
	ImageMIMEType string          `json:"image_mime_type,omitempty"`
	Warning       string          `json:"warning,omitempty"`
	RecordedAt    *time.Time      `json:"recorded_at,omitempty"`
}

// AnalysisEvent is published after a result lands in a session history.
type AnalysisEvent struct {
	SessionID    string          `json:"session_id"`
	Filename     string          `json:"filename"`
	FileType     string          `json:"file_type"`
	Category     FileCategory    `json:"category"`
	Outcome      AnalysisOutcome `json:"outcome"`
	ContentChars int             `json:"content_chars"`
	SummaryChars int             `json:"summary_chars"`
	CompletedAt  time.Time       `json:"completed_at"`
}
