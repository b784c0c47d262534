package tempfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/kirillkom/file-analyzer/internal/core/ports"
)

// Storage stages uploads as uniquely named files under basePath.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = os.TempDir()
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Stage(ctx context.Context, data io.Reader, ext string) (ports.StagedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(s.basePath, "upload-*"+suffix(ext))
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	written, copyErr := io.Copy(f, data)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(f.Name())
		if copyErr != nil {
			return nil, fmt.Errorf("write file: %w", copyErr)
		}
		return nil, fmt.Errorf("close file: %w", closeErr)
	}

	return &StagedFile{path: f.Name(), size: written}, nil
}

// StagedFile removes its backing file at most once.
type StagedFile struct {
	path string
	size int64

	once       sync.Once
	releaseErr error
}

func (f *StagedFile) Path() string { return f.path }

func (f *StagedFile) Size() int64 { return f.size }

func (f *StagedFile) Release() error {
	f.once.Do(func() {
		err := os.Remove(f.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			f.releaseErr = fmt.Errorf("remove staged file: %w", err)
		}
	})
	return f.releaseErr
}

func suffix(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return ""
	}
	ext = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, ext)
	return "." + ext
}
