package converter

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const maxOfficePartBytes = 64 << 20

type docxConverter struct{}

func (docxConverter) accepts(ext string) bool { return ext == "docx" }

func (docxConverter) convert(_ context.Context, src Source) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(src.Data), int64(len(src.Data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	part := findZipFile(archive, "word/document.xml")
	if part == nil {
		return "", errors.New("docx has no word/document.xml")
	}
	paragraphs, err := readParagraphs(part)
	if err != nil {
		return "", fmt.Errorf("parse docx body: %w", err)
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

type pptxConverter struct{}

func (pptxConverter) accepts(ext string) bool { return ext == "pptx" }

func (pptxConverter) convert(ctx context.Context, src Source) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(src.Data), int64(len(src.Data)))
	if err != nil {
		return "", fmt.Errorf("open pptx: %w", err)
	}

	type slide struct {
		number int
		file   *zip.File
	}
	var slides []slide
	for _, f := range archive.File {
		if n, ok := slideNumber(f.Name); ok {
			slides = append(slides, slide{number: n, file: f})
		}
	}
	if len(slides) == 0 {
		return "", nil
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	sections := make([]string, 0, len(slides))
	for _, s := range slides {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		paragraphs, err := readParagraphs(s.file)
		if err != nil {
			return "", fmt.Errorf("parse slide %d: %w", s.number, err)
		}
		if len(paragraphs) == 0 {
			continue
		}
		sections = append(sections, fmt.Sprintf("<!-- Slide number: %d -->\n%s", s.number, strings.Join(paragraphs, "\n")))
	}
	return strings.Join(sections, "\n\n"), nil
}

// slideNumber parses ppt/slides/slideN.xml.
func slideNumber(name string) (int, bool) {
	const prefix, suffix = "ppt/slides/slide", ".xml"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func findZipFile(archive *zip.Reader, name string) *zip.File {
	for _, f := range archive.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readParagraphs(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return extractParagraphs(io.LimitReader(rc, maxOfficePartBytes))
}

// extractParagraphs walks WordprocessingML or DrawingML and returns the text
// of every non-empty <p>. Word heading styles become Markdown headings.
func extractParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
		tabStops   int
		heading    int
	)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tabs":
				tabStops++
			case "tab":
				if tabStops == 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				current.WriteByte('\n')
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						heading = headingLevel(attr.Value)
					}
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				tabStops--
			case "p":
				text := strings.TrimSpace(current.String())
				if text != "" {
					if heading > 0 {
						text = strings.Repeat("#", heading) + " " + text
					}
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
				heading = 0
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

func headingLevel(style string) int {
	if strings.EqualFold(style, "Title") {
		return 1
	}
	rest, ok := strings.CutPrefix(strings.ToLower(style), "heading")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0
	}
	if n > 6 {
		n = 6
	}
	return n
}
