package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/file-analyzer/internal/config"
	"github.com/kirillkom/file-analyzer/internal/core/domain"
	"github.com/kirillkom/file-analyzer/internal/core/ports"
	"github.com/kirillkom/file-analyzer/internal/observability/metrics"
)

const (
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead  = 1 << 20
	multipartMemoryMax = 8 << 20
)

type Router struct {
	cfg         config.Config
	analyzer    ports.FileAnalyzer
	sessions    ports.SessionStore
	httpMetrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	analyzer ports.FileAnalyzer,
	sessions ports.SessionStore,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:         cfg,
		analyzer:    analyzer,
		sessions:    sessions,
		httpMetrics: httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/file-types", rt.fileTypes)
	mux.HandleFunc("/v1/analyses", rt.createAnalysis)
	mux.HandleFunc("/v1/history", rt.history)
	mux.HandleFunc("/v1/session", rt.endSession)
	if rt.httpMetrics != nil {
		mux.Handle("/metrics", rt.httpMetrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) fileTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_types":       domain.SupportedFileTypes(),
		"max_file_size_mb": rt.cfg.MaxFileSizeMB,
	})
}

func (rt *Router) createAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxFileSizeBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemoryMax); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("File size exceeds %dMB limit", rt.cfg.MaxFileSizeMB),
				Kind:  kindValidation,
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request must be multipart/form-data", Kind: kindValidation})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart field 'file' is required", Kind: kindValidation})
		return
	}
	defer file.Close()

	session, err := rt.resolveSession(w, r, true)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	result, err := rt.analyzer.Analyze(r.Context(), session, domain.UploadedArtifact{
		Name: fileHeader.Filename,
		Size: fileHeader.Size,
		Body: file,
	})
	if err != nil {
		_, kind := mapError(err)
		if rt.httpMetrics != nil {
			rt.httpMetrics.RecordAnalysisFailure("api", kind)
		}
		slog.Warn("analysis_failed",
			"request_id", requestIDFromContext(r.Context()),
			"session_id", session.ID,
			"filename", fileHeader.Filename,
			"kind", kind,
			"error", err,
		)
		writeError(w, err)
		return
	}

	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordAnalysis("api", string(result.Category), string(result.Outcome), fileHeader.Size, time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

type historyResponse struct {
	SessionID string               `json:"session_id,omitempty"`
	Items     []domain.HistoryItem `json:"items"`
}

func (rt *Router) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	session, err := rt.resolveSession(w, r, false)
	if err != nil {
		if domain.IsKind(err, domain.ErrSessionNotFound) {
			writeJSON(w, http.StatusOK, historyResponse{Items: []domain.HistoryItem{}})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: session.ID, Items: session.History()})
}

func (rt *Router) endSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeMethodNotAllowed(w)
		return
	}

	id := sessionIDFromRequest(r)
	if id == "" {
		writeError(w, domain.WrapError(domain.ErrSessionNotFound, "end session", errors.New("no session in request")))
		return
	}
	if err := rt.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
