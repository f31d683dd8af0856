package parser

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dgallion1/partidas/internal/budget"
)

// TextParser handles plain text files, typically `pdftotext -layout` dumps.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*budget.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	lines, pages := layoutLines(string(data))
	return &budget.Document{
		Filename: filename,
		Pages:    pages,
		Lines:    lines,
	}, nil
}

// layoutLines splits layout-preserving text into lines. A form feed starts a
// new page and the count of leading blanks becomes the line's X.
func layoutLines(text string) ([]budget.Line, int) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	pages := strings.Split(text, "\f")
	// pdftotext ends its output with a form feed.
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}

	var out []budget.Line
	for pageIdx, page := range pages {
		for _, raw := range strings.Split(page, "\n") {
			body := strings.TrimLeftFunc(raw, unicode.IsSpace)
			t := strings.Join(strings.Fields(body), " ")
			if t == "" {
				continue
			}
			indent := len([]rune(raw)) - len([]rune(body))
			out = append(out, budget.Line{
				Text: t,
				Page: pageIdx,
				X:    float64(indent),
			})
		}
	}
	if strings.TrimSpace(text) == "" {
		return out, 0
	}
	return out, len(pages)
}
