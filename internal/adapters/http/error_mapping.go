package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

const (
	kindValidation      = "validation_error"
	kindConversion      = "conversion_error"
	kindImageProcessing = "image_processing_error"
	kindSummarization   = "summarization_error"
	kindTemporary       = "temporary_error"
	kindTimeout         = "timeout_error"
	kindNotFound        = "not_found"
	kindRateLimited     = "rate_limited"
	kindInternal        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// mapError resolves the origin of a failure before its retryability, so a
// throttled summary call still reports as a summarization error.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, kindTimeout
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest, kindValidation
	case domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, kindNotFound
	case domain.IsKind(err, domain.ErrImageProcessing):
		return http.StatusBadGateway, kindImageProcessing
	case domain.IsKind(err, domain.ErrSummarization):
		return http.StatusBadGateway, kindSummarization
	case domain.IsKind(err, domain.ErrConversion):
		return http.StatusBadGateway, kindConversion
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, kindTemporary
	default:
		return http.StatusInternalServerError, kindInternal
	}
}

// publicMessage strips operation prefixes. Validation errors surface their
// bare message; other kinds keep the kind as a lead-in.
func publicMessage(err error) string {
	msg := err.Error()
	for _, kind := range []error{
		domain.ErrValidation,
		domain.ErrImageProcessing,
		domain.ErrSummarization,
		domain.ErrConversion,
		domain.ErrSessionNotFound,
		domain.ErrTemporary,
	} {
		if !domain.IsKind(err, kind) {
			continue
		}
		marker := kind.Error() + ": "
		idx := strings.Index(msg, marker)
		if idx < 0 {
			break
		}
		detail := msg[idx+len(marker):]
		if kind == domain.ErrValidation {
			return detail
		}
		return capitalize(kind.Error()) + ": " + detail
	}
	return msg
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeError(w http.ResponseWriter, err error) {
	status, kind := mapError(err)
	writeJSON(w, status, errorResponse{Error: publicMessage(err), Kind: kind})
}
