package converter

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxConverter struct{}

func (xlsxConverter) accepts(ext string) bool { return ext == "xlsx" }

func (xlsxConverter) convert(ctx context.Context, src Source) (string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(src.Data))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	var sections []string
	for _, sheet := range book.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := book.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		table := markdownTable(rows)
		if table == "" {
			continue
		}
		sections = append(sections, "## "+sheet+"\n"+table)
	}
	return strings.Join(sections, "\n\n"), nil
}
