package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
	"github.com/kirillkom/file-analyzer/internal/core/ports"
	"github.com/kirillkom/file-analyzer/internal/infrastructure/converter"
)

type stagedFileFake struct {
	path       string
	size       int64
	releases   int
	releaseErr error
}

func (f *stagedFileFake) Path() string { return f.path }
func (f *stagedFileFake) Size() int64  { return f.size }

func (f *stagedFileFake) Release() error {
	f.releases++
	if f.releases > 1 {
		return nil
	}
	if err := os.Remove(f.path); err != nil {
		return err
	}
	return f.releaseErr
}

type stagingFake struct {
	dir        string
	staged     []*stagedFileFake
	err        error
	releaseErr error
}

func (f *stagingFake) Stage(_ context.Context, body io.Reader, ext string) (ports.StagedFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(f.dir, "upload-"+string(rune('a'+len(f.staged)))+"."+ext)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return nil, err
	}
	staged := &stagedFileFake{path: path, size: int64(len(raw)), releaseErr: f.releaseErr}
	f.staged = append(f.staged, staged)
	return staged, nil
}

type summarizerFake struct {
	summary string
	err     error
	calls   int
	inputs  []string
}

func (f *summarizerFake) Summarize(_ context.Context, text string) (string, error) {
	f.calls++
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

type publisherFake struct {
	events []domain.AnalysisEvent
	err    error
}

func (f *publisherFake) PublishAnalysisCompleted(_ context.Context, event domain.AnalysisEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type analyzeFixture struct {
	staging    *stagingFake
	describer  *describerFake
	converter  *converterFake
	summarizer *summarizerFake
	publisher  *publisherFake
	session    *domain.Session
	uc         *AnalyzeFileUseCase
}

func newAnalyzeFixture(t *testing.T) *analyzeFixture {
	t.Helper()
	f := &analyzeFixture{
		staging:    &stagingFake{dir: t.TempDir()},
		describer:  &describerFake{description: "a cat on a sofa"},
		converter:  &converterFake{text: "Quarterly revenue grew 12%."},
		summarizer: &summarizerFake{summary: "- revenue up 12%"},
		publisher:  &publisherFake{},
		session:    domain.NewSession("session-1", time.Now()),
	}
	f.uc = NewAnalyzeFileUseCase(
		NewFileValidator(tenMiB),
		f.staging,
		NewDispatcher(f.describer, f.converter),
		f.summarizer,
		AnalyzeOptions{
			ExternalCallTimeout: time.Second,
			Publisher:           f.publisher,
			Now:                 func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
		},
	)
	return f
}

func artifact(name string, data []byte) domain.UploadedArtifact {
	return domain.UploadedArtifact{Name: name, Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func assertStagedFilesRemoved(t *testing.T, staging *stagingFake) {
	t.Helper()
	for _, staged := range staging.staged {
		if _, err := os.Stat(staged.path); !os.IsNotExist(err) {
			t.Fatalf("staged file %s still exists (err=%v)", staged.path, err)
		}
		if staged.releases != 1 {
			t.Fatalf("expected exactly one release for %s, got %d", staged.path, staged.releases)
		}
	}
}

func TestAnalyzeDocumentSummarizesAndRecords(t *testing.T) {
	f := newAnalyzeFixture(t)
	body := bytes.Repeat([]byte("a"), 500*1024)

	result, err := f.uc.Analyze(context.Background(), f.session, artifact("report.pdf", body))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Outcome != domain.OutcomeSummarized {
		t.Fatalf("expected summarized outcome, got %s", result.Outcome)
	}
	if result.Summary != "- revenue up 12%" || result.Content != "Quarterly revenue grew 12%." {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.summarizer.calls != 1 || f.summarizer.inputs[0] != "Quarterly revenue grew 12%." {
		t.Fatalf("expected one summarize call with extracted text, got %+v", f.summarizer.inputs)
	}

	history := f.session.History()
	if len(history) != 1 || history[0].Filename != "report.pdf" || history[0].Summary == "" || history[0].Content == "" {
		t.Fatalf("unexpected history %+v", history)
	}
	if len(f.staging.staged) != 1 || f.staging.staged[0].size != int64(len(body)) {
		t.Fatalf("expected one staged file with full body")
	}
	if !strings.HasSuffix(f.staging.staged[0].path, ".pdf") {
		t.Fatalf("expected staged suffix .pdf, got %s", f.staging.staged[0].path)
	}
	assertStagedFilesRemoved(t, f.staging)

	if len(f.publisher.events) != 1 || f.publisher.events[0].SessionID != "session-1" {
		t.Fatalf("expected one completion event, got %+v", f.publisher.events)
	}
}

func TestAnalyzeImageDescribesAndKeepsBytes(t *testing.T) {
	f := newAnalyzeFixture(t)
	f.describer.description = ""
	raw := bytes.Repeat([]byte{0xFF, 0xD8}, 25*1024)

	result, err := f.uc.Analyze(context.Background(), f.session, artifact("image.png", raw))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Outcome != domain.OutcomeDescribed || result.Content != domain.NoDescriptionFallback {
		t.Fatalf("unexpected result %+v", result)
	}
	if !bytes.Equal(result.ImageData, raw) {
		t.Fatalf("image bytes not preserved")
	}
	if result.ImageMIMEType != "image/png" {
		t.Fatalf("unexpected mime %s", result.ImageMIMEType)
	}
	if f.summarizer.calls != 0 || f.converter.calls != 0 {
		t.Fatalf("image branch must not convert or summarize")
	}
	history := f.session.History()
	if len(history) != 1 || history[0].Summary != domain.ImageAnalysisSummary {
		t.Fatalf("unexpected history %+v", history)
	}
	assertStagedFilesRemoved(t, f.staging)
}

func TestAnalyzeRejectsUnsupportedTypeWithoutSideEffects(t *testing.T) {
	f := newAnalyzeFixture(t)

	_, err := f.uc.Analyze(context.Background(), f.session, artifact("data.xyz", []byte("x")))
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Unsupported file type: xyz") {
		t.Fatalf("unexpected message %v", err)
	}
	if len(f.staging.staged) != 0 {
		t.Fatalf("no file must be staged")
	}
	if f.converter.calls+f.describer.calls+f.summarizer.calls != 0 {
		t.Fatalf("no external calls expected")
	}
	if f.session.Len() != 0 {
		t.Fatalf("history must stay empty")
	}
}

func TestAnalyzeRejectsBodyLargerThanLimit(t *testing.T) {
	f := newAnalyzeFixture(t)
	f.uc.validator = NewFileValidator(10)

	upload := domain.UploadedArtifact{Name: "a.csv", Size: 5, Body: bytes.NewReader(bytes.Repeat([]byte("x"), 64))}
	_, err := f.uc.Analyze(context.Background(), f.session, upload)
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.converter.calls != 0 {
		t.Fatalf("oversized body must not be converted")
	}
	assertStagedFilesRemoved(t, f.staging)
}

func TestAnalyzeEmptyTextIsNoContent(t *testing.T) {
	f := newAnalyzeFixture(t)
	f.converter.text = "  \n\t "

	result, err := f.uc.Analyze(context.Background(), f.session, artifact("blank.docx", []byte("x")))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Outcome != domain.OutcomeNoContent || result.Warning != domain.NoContentWarning {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.summarizer.calls != 0 {
		t.Fatalf("summarizer must not run on empty text")
	}
	if f.session.Len() != 0 {
		t.Fatalf("no-content outcome must not be recorded")
	}
	if len(f.publisher.events) != 0 {
		t.Fatalf("no-content outcome must not publish")
	}
	assertStagedFilesRemoved(t, f.staging)
}

func TestAnalyzeSlideFreePresentationIsNoContent(t *testing.T) {
	var deck bytes.Buffer
	w := zip.NewWriter(&deck)
	for _, name := range []string{"[Content_Types].xml", "ppt/presentation.xml"} {
		part, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := part.Write([]byte("<x/>")); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	f := newAnalyzeFixture(t)
	uc := NewAnalyzeFileUseCase(
		NewFileValidator(tenMiB),
		f.staging,
		NewDispatcher(f.describer, converter.New()),
		f.summarizer,
		AnalyzeOptions{ExternalCallTimeout: time.Second},
	)

	result, err := uc.Analyze(context.Background(), f.session, artifact("deck.pptx", deck.Bytes()))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Outcome != domain.OutcomeNoContent || result.Warning != domain.NoContentWarning {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.summarizer.calls != 0 {
		t.Fatalf("summarizer must not run on an empty deck")
	}
	assertStagedFilesRemoved(t, f.staging)
}

func TestAnalyzeConversionFailureCleansUp(t *testing.T) {
	f := newAnalyzeFixture(t)
	f.converter.err = errors.New("broken archive")

	_, err := f.uc.Analyze(context.Background(), f.session, artifact("bundle.zip", []byte("x")))
	if !domain.IsKind(err, domain.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
	if domain.IsKind(err, domain.ErrSummarization) {
		t.Fatalf("conversion failure must not look like summarization failure")
	}
	assertStagedFilesRemoved(t, f.staging)
}

func TestAnalyzeSummarizationFailureIsDistinct(t *testing.T) {
	f := newAnalyzeFixture(t)
	f.summarizer.err = errors.New("429 too many requests")

	_, err := f.uc.Analyze(context.Background(), f.session, artifact("notes.html", []byte("<p>x</p>")))
	if !domain.IsKind(err, domain.ErrSummarization) {
		t.Fatalf("expected summarization error, got %v", err)
	}
	if domain.IsKind(err, domain.ErrConversion) {
		t.Fatalf("summarization failure must not look like conversion failure")
	}
	if f.session.Len() != 0 {
		t.Fatalf("failed analysis must not be recorded")
	}
	assertStagedFilesRemoved(t, f.staging)
}

func TestAnalyzeImageFailureCleansUp(t *testing.T) {
	f := newAnalyzeFixture(t)
	f.describer.err = errors.New("vision unavailable")

	_, err := f.uc.Analyze(context.Background(), f.session, artifact("photo.jpeg", []byte("x")))
	if !domain.IsKind(err, domain.ErrImageProcessing) {
		t.Fatalf("expected image processing error, got %v", err)
	}
	assertStagedFilesRemoved(t, f.staging)
}

func TestAnalyzeReportsCleanupFailureWithoutFailing(t *testing.T) {
	f := newAnalyzeFixture(t)
	f.staging.releaseErr = errors.New("disk busy")
	var reported []string
	f.uc.onReleaseError = func(path string, _ error) { reported = append(reported, path) }

	if _, err := f.uc.Analyze(context.Background(), f.session, artifact("a.json", []byte(`{"a":1}`))); err != nil {
		t.Fatalf("cleanup failure must not fail the analysis: %v", err)
	}
	if len(reported) != 1 {
		t.Fatalf("expected cleanup failure to be reported once, got %v", reported)
	}
}

func TestAnalyzePublishFailureIsNotReturned(t *testing.T) {
	f := newAnalyzeFixture(t)
	f.publisher.err = errors.New("nats down")

	if _, err := f.uc.Analyze(context.Background(), f.session, artifact("a.csv", []byte("a,b\n1,2"))); err != nil {
		t.Fatalf("publish failure must not fail the analysis: %v", err)
	}
	if f.session.Len() != 1 {
		t.Fatalf("expected recorded history")
	}
}

func TestAnalyzeAppliesCallTimeout(t *testing.T) {
	f := newAnalyzeFixture(t)
	f.uc.callTimeout = 10 * time.Millisecond
	blocking := &blockingSummarizer{}
	f.uc.summarizer = blocking

	_, err := f.uc.Analyze(context.Background(), f.session, artifact("a.xml", []byte("<a>x</a>")))
	if !domain.IsKind(err, domain.ErrSummarization) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected summarization timeout, got %v", err)
	}
	assertStagedFilesRemoved(t, f.staging)
}

type blockingSummarizer struct{}

func (blockingSummarizer) Summarize(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAnalyzeRequiresSession(t *testing.T) {
	f := newAnalyzeFixture(t)
	if _, err := f.uc.Analyze(context.Background(), nil, artifact("a.pdf", []byte("x"))); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session error, got %v", err)
	}
}
