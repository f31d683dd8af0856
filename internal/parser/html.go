package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/partidas/internal/budget"
)

// HTMLParser handles budgets saved as HTML, as spreadsheet and estimating
// tools export them. Headings and paragraphs become one line each; every
// table row becomes one line with its cells joined by spaces.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*budget.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &budget.Document{Filename: filename, Pages: 1, Title: findTitle(root)}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head", "nav":
				return
			case "tr":
				if l, ok := htmlRowLine(n); ok {
					doc.Lines = append(doc.Lines, l)
				}
				return
			case "p", "li", "caption", "pre":
				doc.Lines = append(doc.Lines, htmlBlockLines(n, false)...)
				return
			}
			if headingLevel(n.Data) > 0 {
				doc.Lines = append(doc.Lines, htmlBlockLines(n, true)...)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}
	return doc, nil
}

func htmlRowLine(tr *html.Node) (budget.Line, bool) {
	var cells []string
	allHeader, anyBold := true, false
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		t := collapse(textContent(c))
		if t == "" {
			continue
		}
		cells = append(cells, t)
		allHeader = allHeader && c.Data == "th"
		anyBold = anyBold || hasBold(c)
	}
	if len(cells) == 0 {
		return budget.Line{}, false
	}
	return budget.Line{Text: strings.Join(cells, " "), Bold: allHeader || anyBold}, true
}

// htmlBlockLines splits a block on <br> and newlines inside <pre>.
func htmlBlockLines(n *html.Node, bold bool) []budget.Line {
	bold = bold || hasBold(n)
	var out []budget.Line
	var buf strings.Builder
	flush := func() {
		if t := collapse(buf.String()); t != "" {
			out = append(out, budget.Line{Text: t, Bold: bold})
		}
		buf.Reset()
	}
	pre := n.Data == "pre"
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch {
		case c.Type == html.TextNode && pre:
			parts := strings.Split(c.Data, "\n")
			for i, part := range parts {
				if i > 0 {
					flush()
				}
				buf.WriteString(part)
			}
		case c.Type == html.TextNode:
			buf.WriteString(c.Data)
		case c.Type == html.ElementNode && c.Data == "br":
			flush()
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	flush()
	return out
}

// hasBold reports whether all of n's text sits inside <b> or <strong>.
func hasBold(n *html.Node) bool {
	text := collapse(textContent(n))
	if text == "" {
		return false
	}
	var bold strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && (c.Data == "b" || c.Data == "strong") {
			bold.WriteString(textContent(c))
			bold.WriteByte(' ')
			return
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return collapse(bold.String()) == text
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
