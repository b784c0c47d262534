package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

const bytesPerMiB = 1024 * 1024

// FileValidator checks an upload's declared size and extension before any
// processing happens. It has no side effects.
type FileValidator struct {
	maxBytes int64
}

func NewFileValidator(maxBytes int64) *FileValidator {
	return &FileValidator{maxBytes: maxBytes}
}

func (v *FileValidator) MaxBytes() int64 {
	return v.maxBytes
}

func (v *FileValidator) Validate(name string, size int64) domain.ValidationResult {
	if size < 0 {
		return domain.ValidationResult{Valid: false, Message: "Invalid file size"}
	}
	if size > v.maxBytes {
		return domain.ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("File size exceeds %s limit", v.limitLabel()),
		}
	}

	ext := FileExtension(name)
	if _, ok := domain.LookupFileType(ext); !ok {
		return domain.ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("Unsupported file type: %s", ext),
		}
	}

	return domain.ValidationResult{Valid: true, Message: ""}
}

func (v *FileValidator) limitLabel() string {
	if v.maxBytes > 0 && v.maxBytes%bytesPerMiB == 0 {
		return fmt.Sprintf("%dMB", v.maxBytes/bytesPerMiB)
	}
	return fmt.Sprintf("%d bytes", v.maxBytes)
}

// FileExtension returns the lower-cased text after the last dot, or "" when
// the name has none.
func FileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
