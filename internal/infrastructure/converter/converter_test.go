package converter

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

type transcriberFake struct {
	text  string
	err   error
	names []string
}

func (f *transcriberFake) Transcribe(_ context.Context, name string, _ []byte) (string, error) {
	f.names = append(f.names, name)
	return f.text, f.err
}

type imageDescriberFake struct {
	description string
	calls       int
}

func (f *imageDescriberFake) DescribeImage(context.Context, string, []byte) (string, error) {
	f.calls++
	return f.description, nil
}

func zipBytes(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if len(order) == 0 {
		for name := range files {
			order = append(order, name)
		}
	}
	for _, name := range order {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := f.Write([]byte(files[name])); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func convertBytes(t *testing.T, c *Converter, name string, data []byte) string {
	t.Helper()
	text, err := c.ConvertSource(context.Background(), Source{Name: name, Extension: filepath.Ext(name), Data: data})
	if err != nil {
		t.Fatalf("ConvertSource(%s) error = %v", name, err)
	}
	return text
}

func TestConvertReadsStagedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload-123.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	result, err := New().Convert(context.Background(), path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := "| a | b |\n| --- | --- |\n| 1 | 2 |"
	if result.TextContent != want {
		t.Fatalf("unexpected text:\n%s", result.TextContent)
	}
}

func TestConvertRejectsUnknownExtension(t *testing.T) {
	_, err := New().ConvertSource(context.Background(), Source{Name: "x.bin", Extension: "bin", Data: []byte("x")})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestCSVPadsShortRowsAndEscapesPipes(t *testing.T) {
	text := convertBytes(t, New(), "data.csv", []byte("\xef\xbb\xbfname,note\nann,a|b\nbob\n"))
	want := "| name | note |\n| --- | --- |\n| ann | a\\|b |\n| bob |  |"
	if text != want {
		t.Fatalf("unexpected table:\n%s", text)
	}
}

func TestJSONPrettyPrintsValidInput(t *testing.T) {
	text := convertBytes(t, New(), "data.json", []byte(`{"a":[1,2]}`))
	want := "{\n  \"a\": [\n    1,\n    2\n  ]\n}"
	if text != want {
		t.Fatalf("unexpected json:\n%s", text)
	}

	raw := convertBytes(t, New(), "broken.json", []byte(`{"a":`))
	if raw != `{"a":` {
		t.Fatalf("expected raw passthrough, got %q", raw)
	}
}

func TestXMLCollectsCharacterData(t *testing.T) {
	text := convertBytes(t, New(), "feed.xml", []byte(`<?xml version="1.0"?><root><title> Hello </title><item>one</item><item/></root>`))
	if text != "Hello\none" {
		t.Fatalf("unexpected xml text %q", text)
	}
}

func TestHTMLSkipsScriptsAndMarksHeadings(t *testing.T) {
	page := `<html><head><title>T</title><style>.a{}</style></head><body>
<h1>Hello</h1><p>World <b>bold</b></p><script>alert(1)</script>
<ul><li>one</li><li>two</li></ul><noscript>enable js</noscript></body></html>`

	text := convertBytes(t, New(), "page.html", []byte(page))
	want := "# Hello\nWorld bold\n- one\n- two"
	if text != want {
		t.Fatalf("unexpected html text:\n%s", text)
	}
}

func TestDOCXExtractsParagraphsAndHeadings(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:pPr><w:pStyle w:val="Heading2"/><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Overview</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">First </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>cell</w:t></w:r></w:p>
</w:body></w:document>`

	data := zipBytes(t, map[string]string{"word/document.xml": body, "[Content_Types].xml": "<Types/>"})
	text := convertBytes(t, New(), "report.docx", data)
	want := "## Overview\n\nFirst paragraph\n\nSecond\tcell"
	if text != want {
		t.Fatalf("unexpected docx text:\n%q", text)
	}
}

func TestDOCXWithoutBodyFails(t *testing.T) {
	data := zipBytes(t, map[string]string{"other.xml": "<x/>"})
	if _, err := New().ConvertSource(context.Background(), Source{Name: "x.docx", Extension: "docx", Data: data}); err == nil {
		t.Fatalf("expected error for docx without body")
	}
}

func TestPPTXOrdersSlidesNumerically(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	}
	data := zipBytes(t, map[string]string{
		"ppt/slides/slide10.xml":           slide("Ten"),
		"ppt/slides/slide2.xml":            slide("Two"),
		"ppt/slides/_rels/slide2.xml.rels": "<Relationships/>",
		"ppt/slides/slide1.xml":            slide("One"),
		"ppt/presentation.xml":             "<p:presentation/>",
	})

	text := convertBytes(t, New(), "deck.pptx", data)
	want := "<!-- Slide number: 1 -->\nOne\n\n<!-- Slide number: 2 -->\nTwo\n\n<!-- Slide number: 10 -->\nTen"
	if text != want {
		t.Fatalf("unexpected pptx text:\n%s", text)
	}
}

func TestPPTXWithoutSlidesIsEmpty(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"[Content_Types].xml":  "<Types/>",
		"ppt/presentation.xml": "<p:presentation/>",
	})

	text, err := New().ConvertSource(context.Background(), Source{Name: "deck.pptx", Extension: "pptx", Data: data})
	if err != nil {
		t.Fatalf("ConvertSource() error = %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestXLSXRendersOneTablePerSheet(t *testing.T) {
	book := excelize.NewFile()
	if err := book.SetSheetRow("Sheet1", "A1", &[]any{"name", "qty"}); err != nil {
		t.Fatalf("SetSheetRow() error = %v", err)
	}
	if err := book.SetSheetRow("Sheet1", "A2", &[]any{"apple", 3}); err != nil {
		t.Fatalf("SetSheetRow() error = %v", err)
	}
	if _, err := book.NewSheet("Empty"); err != nil {
		t.Fatalf("NewSheet() error = %v", err)
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	text := convertBytes(t, New(), "stock.xlsx", buf.Bytes())
	want := "## Sheet1\n| name | qty |\n| --- | --- |\n| apple | 3 |"
	if text != want {
		t.Fatalf("unexpected xlsx text:\n%s", text)
	}
}

func TestPDFRejectsGarbage(t *testing.T) {
	_, err := New().ConvertSource(context.Background(), Source{Name: "x.pdf", Extension: "pdf", Data: []byte("not a pdf")})
	if err == nil {
		t.Fatalf("expected error for invalid pdf")
	}
}

func TestAudioUsesTranscriber(t *testing.T) {
	transcriber := &transcriberFake{text: "hello there"}
	text := convertBytes(t, New(WithTranscriber(transcriber)), "memo.wav", []byte("RIFF"))
	if text != "### Audio Transcript:\nhello there" {
		t.Fatalf("unexpected transcript text %q", text)
	}
	if len(transcriber.names) != 1 || transcriber.names[0] != "memo.wav" {
		t.Fatalf("unexpected transcriber calls %v", transcriber.names)
	}
}

func TestAudioWithoutTranscriberIsUnsupported(t *testing.T) {
	if New().Supports("mp3") {
		t.Fatalf("mp3 must not be supported without a transcriber")
	}
}

func TestZIPConvertsEntriesAndSkipsUnsupported(t *testing.T) {
	describer := &imageDescriberFake{description: "A chart."}
	data := zipBytes(t, map[string]string{
		"docs/":           "",
		"docs/table.csv":  "a\n1\n",
		"docs/notes.json": `{"k":1}`,
		"bin/tool.exe":    "MZ",
		"img/chart.png":   "png",
	}, "docs/", "docs/table.csv", "docs/notes.json", "bin/tool.exe", "img/chart.png")

	text := convertBytes(t, New(WithImageDescriber(describer)), "bundle.zip", data)
	want := "Content from the zip file `bundle.zip`:\n\n" +
		"## File: docs/table.csv\n\n| a |\n| --- |\n| 1 |\n\n" +
		"## File: docs/notes.json\n\n{\n  \"k\": 1\n}\n\n" +
		"## File: img/chart.png\n\n# Description:\nA chart."
	if text != want {
		t.Fatalf("unexpected zip text:\n%s", text)
	}
	if describer.calls != 1 {
		t.Fatalf("expected one image description, got %d", describer.calls)
	}
}

func TestZIPReportsEntryFailuresInline(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"good.csv":    "a\n1\n",
		"broken.docx": "not a zip archive",
	}, "broken.docx", "good.csv")

	text := convertBytes(t, New(), "mixed.zip", data)
	if !strings.Contains(text, "## File: broken.docx\n\n_Conversion failed:") {
		t.Fatalf("expected inline failure, got:\n%s", text)
	}
	if !strings.Contains(text, "## File: good.csv\n\n| a |") {
		t.Fatalf("expected good entry converted, got:\n%s", text)
	}
}

func TestZIPLimitsNesting(t *testing.T) {
	innermost := zipBytes(t, map[string]string{"deep.csv": "a\n1\n"})
	middle := zipBytes(t, map[string]string{"level2.zip": string(innermost)})
	outer := zipBytes(t, map[string]string{"level1.zip": string(middle)})

	text := convertBytes(t, New(), "outer.zip", outer)
	if strings.Contains(text, "deep.csv") {
		t.Fatalf("archive nested too deep must not be expanded:\n%s", text)
	}
	if !strings.Contains(text, "## File: level2.zip\n\n_Conversion failed:") {
		t.Fatalf("expected nesting failure inline, got:\n%s", text)
	}
}

func TestZIPWithNothingConvertibleIsEmpty(t *testing.T) {
	data := zipBytes(t, map[string]string{"a.exe": "MZ"})
	if text := convertBytes(t, New(), "tools.zip", data); text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}
