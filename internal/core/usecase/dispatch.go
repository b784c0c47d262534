package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
	"github.com/kirillkom/file-analyzer/internal/core/ports"
)

// conversionRoute is one branch of the dispatcher. Each route carries only
// the capability it calls.
type conversionRoute interface {
	convert(ctx context.Context, path string) (domain.Conversion, error)
}

type imageRoute struct {
	describer ports.ImageDescriber
}

func (r imageRoute) convert(ctx context.Context, path string) (domain.Conversion, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Conversion{}, domain.WrapError(domain.ErrImageProcessing, "read staged image", err)
	}

	description, err := r.describer.Describe(ctx, path)
	if err != nil {
		return domain.Conversion{}, domain.WrapError(domain.ErrImageProcessing, "describe image", err)
	}
	if strings.TrimSpace(description) == "" {
		description = domain.NoDescriptionFallback
	}

	return domain.Conversion{
		Category:  domain.CategoryImage,
		Text:      description,
		ImageData: raw,
	}, nil
}

type documentRoute struct {
	category  domain.FileCategory
	converter ports.DocumentConverter
}

func (r documentRoute) convert(ctx context.Context, path string) (domain.Conversion, error) {
	result, err := r.converter.Convert(ctx, path)
	if err != nil {
		return domain.Conversion{}, domain.WrapError(domain.ErrConversion, "convert document", err)
	}
	return domain.Conversion{
		Category: r.category,
		Text:     strings.TrimSpace(result.TextContent),
	}, nil
}

// Dispatcher routes a staged upload to the image or generic branch.
type Dispatcher struct {
	image   conversionRoute
	generic ports.DocumentConverter
}

func NewDispatcher(describer ports.ImageDescriber, converter ports.DocumentConverter) *Dispatcher {
	return &Dispatcher{
		image:   imageRoute{describer: describer},
		generic: converter,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, path string, fileType domain.FileType) (domain.Conversion, error) {
	route, err := d.route(fileType)
	if err != nil {
		return domain.Conversion{}, err
	}
	return route.convert(ctx, path)
}

func (d *Dispatcher) route(fileType domain.FileType) (conversionRoute, error) {
	switch fileType.Category {
	case domain.CategoryImage:
		return d.image, nil
	case domain.CategoryDocument, domain.CategoryAudio, domain.CategoryArchive:
		return documentRoute{category: fileType.Category, converter: d.generic}, nil
	default:
		return nil, domain.WrapError(
			domain.ErrValidation,
			"dispatch",
			fmt.Errorf("no conversion route for category %q", fileType.Category),
		)
	}
}
