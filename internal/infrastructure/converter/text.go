package converter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type csvConverter struct{}

func (csvConverter) accepts(ext string) bool { return ext == "csv" }

func (csvConverter) convert(_ context.Context, src Source) (string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(src.Data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	return markdownTable(rows), nil
}

// jsonConverter pretty-prints valid documents and passes anything else through.
type jsonConverter struct{}

func (jsonConverter) accepts(ext string) bool { return ext == "json" }

func (jsonConverter) convert(_ context.Context, src Source) (string, error) {
	if !json.Valid(src.Data) {
		return string(src.Data), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, src.Data, "", "  "); err != nil {
		return "", fmt.Errorf("indent json: %w", err)
	}
	return out.String(), nil
}

type xmlConverter struct{}

func (xmlConverter) accepts(ext string) bool { return ext == "xml" }

func (xmlConverter) convert(_ context.Context, src Source) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(src.Data))
	decoder.Strict = false

	var lines []string
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}
		if data, ok := token.(xml.CharData); ok {
			if text := strings.TrimSpace(string(data)); text != "" {
				lines = append(lines, text)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
