// Package converter turns staged uploads into Markdown-flavoured text.
//
// Each supported format is handled by a formatConverter registered on the
// Converter; the first one that accepts the extension wins. Archives are
// converted entry by entry through the same registry.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Source is one convertible payload: a staged file or an archive entry.
type Source struct {
	Name      string
	Extension string
	Data      []byte

	depth int
}

type formatConverter interface {
	accepts(ext string) bool
	convert(ctx context.Context, src Source) (string, error)
}

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, data []byte) (string, error)
}

// ImageDescriber captions images found inside archives.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, name string, data []byte) (string, error)
}

type Option func(*Converter)

func WithTranscriber(transcriber Transcriber) Option {
	return func(c *Converter) { c.transcriber = transcriber }
}

func WithImageDescriber(describer ImageDescriber) Option {
	return func(c *Converter) { c.describer = describer }
}

type Converter struct {
	formats     []formatConverter
	transcriber Transcriber
	describer   ImageDescriber
}

func New(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}

	c.formats = []formatConverter{
		pdfConverter{},
		docxConverter{},
		pptxConverter{},
		xlsxConverter{},
		htmlConverter{},
		csvConverter{},
		jsonConverter{},
		xmlConverter{},
		zipConverter{registry: c},
	}
	if c.transcriber != nil {
		c.formats = append(c.formats, audioConverter{transcriber: c.transcriber})
	}
	if c.describer != nil {
		c.formats = append(c.formats, imageConverter{describer: c.describer})
	}
	return c
}

func (c *Converter) Convert(ctx context.Context, path string) (domain.ConversionResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.ConversionResult{}, fmt.Errorf("read staged file: %w", err)
	}

	text, err := c.ConvertSource(ctx, Source{
		Name:      filepath.Base(path),
		Extension: extensionOf(path),
		Data:      raw,
	})
	if err != nil {
		return domain.ConversionResult{}, err
	}
	return domain.ConversionResult{TextContent: text}, nil
}

// Supports reports whether some registered converter handles ext.
func (c *Converter) Supports(ext string) bool {
	return c.lookup(normalizeExtension(ext)) != nil
}

func (c *Converter) ConvertSource(ctx context.Context, src Source) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src.Extension = normalizeExtension(src.Extension)

	format := c.lookup(src.Extension)
	if format == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, src.Extension)
	}

	text, err := format.convert(ctx, src)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", src.Name, err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Converter) lookup(ext string) formatConverter {
	for _, format := range c.formats {
		if format.accepts(ext) {
			return format
		}
	}
	return nil
}

func extensionOf(name string) string {
	return normalizeExtension(filepath.Ext(name))
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

type extensions []string

func (e extensions) accepts(ext string) bool {
	for _, candidate := range e {
		if candidate == ext {
			return true
		}
	}
	return false
}
