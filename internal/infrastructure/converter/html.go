package converter

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type htmlConverter struct{}

func (htmlConverter) accepts(ext string) bool { return ext == "html" || ext == "htm" }

func (htmlConverter) convert(_ context.Context, src Source) (string, error) {
	doc, err := html.Parse(bytes.NewReader(src.Data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	renderHTML(&b, doc)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func renderHTML(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Head, atom.Template:
			return
		}
	}

	level := headingAtomLevel(n.DataAtom)
	block := n.Type == html.ElementNode && isBlockAtom(n.DataAtom)
	if block || level > 0 {
		b.WriteByte('\n')
	}
	switch {
	case level > 0:
		b.WriteString(strings.Repeat("#", level) + " ")
	case n.DataAtom == atom.Li:
		b.WriteString("- ")
	case n.DataAtom == atom.Br:
		b.WriteByte('\n')
	case n.DataAtom == atom.Td, n.DataAtom == atom.Th:
		b.WriteByte(' ')
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		renderHTML(b, child)
	}

	if block || level > 0 {
		b.WriteByte('\n')
	}
}

func headingAtomLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func isBlockAtom(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer, atom.Main, atom.Nav,
		atom.Ul, atom.Ol, atom.Li, atom.Table, atom.Tr, atom.Blockquote, atom.Pre, atom.Hr:
		return true
	}
	return false
}
