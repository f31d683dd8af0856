package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/partidas/internal/budget"
)

// MarkdownParser handles Markdown budgets using goldmark with GFM tables.
// Headings are bold lines, paragraphs yield one line per source line, table
// rows yield one line each, and fenced code blocks are read as layout text.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*budget.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	doc := &budget.Document{Filename: filename, Pages: 1}
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Heading:
			for _, l := range inlineLines(node, src) {
				l.Bold = true
				doc.Lines = append(doc.Lines, l)
			}
			return
		case *ast.Paragraph, *ast.TextBlock:
			doc.Lines = append(doc.Lines, inlineLines(node, src)...)
			return
		case *extast.TableHeader:
			if l, ok := tableRowLine(node, src); ok {
				l.Bold = true
				doc.Lines = append(doc.Lines, l)
			}
			return
		case *extast.TableRow:
			if l, ok := tableRowLine(node, src); ok {
				doc.Lines = append(doc.Lines, l)
			}
			return
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			var buf strings.Builder
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
			ls, _ := layoutLines(buf.String())
			doc.Lines = append(doc.Lines, ls...)
			return
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(root)
	return doc, nil
}

func tableRowLine(row ast.Node, src []byte) (budget.Line, bool) {
	var cells []string
	bold := false
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		for _, l := range inlineLines(c, src) {
			cells = append(cells, l.Text)
			bold = bold || l.Bold
		}
	}
	if len(cells) == 0 {
		return budget.Line{}, false
	}
	return budget.Line{Text: strings.Join(cells, " "), Bold: bold}, true
}

// inlineLines renders the inline children of n as plain text, splitting at
// line breaks. A line is bold when all its text is strongly emphasized.
func inlineLines(n ast.Node, src []byte) []budget.Line {
	var out []budget.Line
	var all, strong strings.Builder
	flush := func() {
		t := collapse(all.String())
		if t != "" {
			out = append(out, budget.Line{Text: t, Bold: collapse(strong.String()) == t})
		}
		all.Reset()
		strong.Reset()
	}

	var walk func(c ast.Node, inStrong bool)
	walk = func(c ast.Node, inStrong bool) {
		switch node := c.(type) {
		case *ast.Text:
			v := string(node.Value(src))
			all.WriteString(v)
			if inStrong {
				strong.WriteString(v)
			}
			if node.SoftLineBreak() || node.HardLineBreak() {
				flush()
			}
			return
		case *ast.String:
			all.Write(node.Value)
			if inStrong {
				strong.Write(node.Value)
			}
			return
		case *ast.Emphasis:
			inStrong = inStrong || node.Level >= 2
		}
		for cc := c.FirstChild(); cc != nil; cc = cc.NextSibling() {
			walk(cc, inStrong)
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		walk(c, false)
	}
	flush()
	return out
}
