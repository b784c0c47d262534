package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
	"github.com/kirillkom/file-analyzer/internal/core/ports"
)

type AnalyzeOptions struct {
	// ExternalCallTimeout bounds each conversion, description and summary call.
	ExternalCallTimeout time.Duration
	Publisher           ports.EventPublisher
	OnReleaseError      func(path string, err error)
	Now                 func() time.Time
}

type AnalyzeFileUseCase struct {
	validator  *FileValidator
	staging    ports.StagingArea
	dispatcher *Dispatcher
	summarizer ports.TextSummarizer

	callTimeout    time.Duration
	publisher      ports.EventPublisher
	onReleaseError func(path string, err error)
	now            func() time.Time
}

func NewAnalyzeFileUseCase(
	validator *FileValidator,
	staging ports.StagingArea,
	dispatcher *Dispatcher,
	summarizer ports.TextSummarizer,
	opts AnalyzeOptions,
) *AnalyzeFileUseCase {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AnalyzeFileUseCase{
		validator:      validator,
		staging:        staging,
		dispatcher:     dispatcher,
		summarizer:     summarizer,
		callTimeout:    opts.ExternalCallTimeout,
		publisher:      opts.Publisher,
		onReleaseError: opts.OnReleaseError,
		now:            now,
	}
}

func (uc *AnalyzeFileUseCase) Analyze(
	ctx context.Context,
	session *domain.Session,
	artifact domain.UploadedArtifact,
) (*domain.AnalysisResult, error) {
	if session == nil {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "analyze upload", errors.New("session is required"))
	}

	validation := uc.validator.Validate(artifact.Name, artifact.Size)
	if !validation.Valid {
		return nil, domain.WrapError(domain.ErrValidation, "validate upload", errors.New(validation.Message))
	}
	if artifact.Body == nil {
		return nil, domain.WrapError(domain.ErrValidation, "validate upload", errors.New("upload body is required"))
	}

	ext := FileExtension(artifact.Name)
	fileType, _ := domain.LookupFileType(ext)

	staged, err := uc.stage(ctx, artifact, ext)
	if err != nil {
		return nil, err
	}
	defer uc.release(staged)

	conversion, err := uc.dispatch(ctx, staged.Path(), fileType)
	if err != nil {
		return nil, err
	}

	result := &domain.AnalysisResult{
		Filename: artifact.Name,
		FileType: ext,
		Category: conversion.Category,
	}

	if conversion.Category == domain.CategoryImage {
		result.Outcome = domain.OutcomeDescribed
		result.Summary = domain.ImageAnalysisSummary
		result.Content = conversion.Text
		result.ImageData = conversion.ImageData
		result.ImageMIMEType = fileType.MIMEType
	} else {
		if conversion.Text == "" {
			result.Outcome = domain.OutcomeNoContent
			result.Warning = domain.NoContentWarning
			return result, nil
		}

		summary, err := uc.summarize(ctx, conversion.Text)
		if err != nil {
			return nil, err
		}
		result.Outcome = domain.OutcomeSummarized
		result.Summary = summary
		result.Content = conversion.Text
	}

	recordedAt := uc.now().UTC()
	session.Record(result.Filename, result.Summary, result.Content, recordedAt)
	result.RecordedAt = &recordedAt

	uc.publish(ctx, session, result, recordedAt)
	return result, nil
}

func (uc *AnalyzeFileUseCase) stage(ctx context.Context, artifact domain.UploadedArtifact, ext string) (ports.StagedFile, error) {
	maxBytes := uc.validator.MaxBytes()
	staged, err := uc.staging.Stage(ctx, io.LimitReader(artifact.Body, maxBytes+1), ext)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	// The declared size comes from the client; the written size is authoritative.
	if staged.Size() > maxBytes {
		uc.release(staged)
		validation := uc.validator.Validate(artifact.Name, staged.Size())
		return nil, domain.WrapError(domain.ErrValidation, "stage upload", errors.New(validation.Message))
	}
	return staged, nil
}

func (uc *AnalyzeFileUseCase) dispatch(ctx context.Context, path string, fileType domain.FileType) (domain.Conversion, error) {
	callCtx, cancel := uc.callContext(ctx)
	defer cancel()
	return uc.dispatcher.Dispatch(callCtx, path, fileType)
}

func (uc *AnalyzeFileUseCase) summarize(ctx context.Context, text string) (string, error) {
	callCtx, cancel := uc.callContext(ctx)
	defer cancel()

	summary, err := uc.summarizer.Summarize(callCtx, text)
	if err != nil {
		if domain.IsKind(err, domain.ErrSummarization) {
			return "", err
		}
		return "", domain.WrapError(domain.ErrSummarization, "summarize text", err)
	}
	return summary, nil
}

func (uc *AnalyzeFileUseCase) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, uc.callTimeout)
}

func (uc *AnalyzeFileUseCase) release(staged ports.StagedFile) {
	if err := staged.Release(); err != nil {
		slog.Warn("staging_cleanup_failed", "path", staged.Path(), "error", err)
		if uc.onReleaseError != nil {
			uc.onReleaseError(staged.Path(), err)
		}
	}
}

func (uc *AnalyzeFileUseCase) publish(ctx context.Context, session *domain.Session, result *domain.AnalysisResult, at time.Time) {
	if uc.publisher == nil {
		return
	}
	event := domain.AnalysisEvent{
		SessionID:    session.ID,
		Filename:     result.Filename,
		FileType:     result.FileType,
		Category:     result.Category,
		Outcome:      result.Outcome,
		ContentChars: len([]rune(result.Content)),
		SummaryChars: len([]rune(result.Summary)),
		CompletedAt:  at,
	}
	if err := uc.publisher.PublishAnalysisCompleted(ctx, event); err != nil {
		slog.Warn("analysis_event_publish_failed", "session_id", session.ID, "filename", result.Filename, "error", err)
	}
}
