package converter

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	maxArchiveDepth   = 2
	maxArchiveEntries = 200
	maxEntryBytes     = 32 << 20
)

type zipConverter struct {
	registry *Converter
}

func (zipConverter) accepts(ext string) bool { return ext == "zip" }

// convert renders every convertible entry as its own "## File:" section.
// Entries without a converter are skipped; failing entries are reported inline.
func (c zipConverter) convert(ctx context.Context, src Source) (string, error) {
	if src.depth >= maxArchiveDepth {
		return "", fmt.Errorf("archive nested deeper than %d levels", maxArchiveDepth)
	}

	archive, err := zip.NewReader(bytes.NewReader(src.Data), int64(len(src.Data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var sections []string
	entries := 0
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		entryExt := normalizeExtension(path.Ext(f.Name))
		if !c.registry.Supports(entryExt) {
			continue
		}
		if entries == maxArchiveEntries {
			sections = append(sections, fmt.Sprintf("_Archive truncated after %d entries._", maxArchiveEntries))
			break
		}
		entries++

		text, err := c.convertEntry(ctx, f, entryExt, src.depth+1)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			sections = append(sections, fmt.Sprintf("## File: %s\n\n_Conversion failed: %v_", f.Name, err))
		case text != "":
			sections = append(sections, fmt.Sprintf("## File: %s\n\n%s", f.Name, text))
		}
	}

	if len(sections) == 0 {
		return "", nil
	}
	return fmt.Sprintf("Content from the zip file `%s`:\n\n%s", src.Name, strings.Join(sections, "\n\n")), nil
}

func (c zipConverter) convertEntry(ctx context.Context, f *zip.File, ext string, depth int) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return "", fmt.Errorf("read entry: %w", err)
	}
	if len(data) > maxEntryBytes {
		return "", errors.New("entry exceeds size limit")
	}

	return c.registry.ConvertSource(ctx, Source{
		Name:      path.Base(f.Name),
		Extension: ext,
		Data:      data,
		depth:     depth,
	})
}
