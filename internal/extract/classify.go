package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/partidas/internal/budget"
)

var (
	sectionCodeRe    = regexp.MustCompile(`^(\d{1,3}|[A-Z]|[IVXLC]{1,6})[.)]?$`)
	subsectionCodeRe = regexp.MustCompile(`^\d{1,3}(\.\d{1,3})+[.)]?$`)
	pageNumberRe     = regexp.MustCompile(`^(p[aá]g(ina)?\.?\s*)?\d+(\s*(de|/)\s*\d+)?$`)
)

// Header keywords that may precede a section code ("CAPÍTULO 2 ACABADOS").
var (
	sectionKeywords    = map[string]bool{"capitulo": true, "cap": true, "seccion": true}
	subsectionKeywords = map[string]bool{"subcapitulo": true, "subseccion": true}
)

const maxHeaderNameWords = 12

// shape is the pre-tokenized view of a line shared by every rule.
type shape struct {
	line     budget.Line
	text     string
	tokens   []string
	trailing int
}

func newShape(l budget.Line) shape {
	text := strings.Join(strings.Fields(l.Text), " ")
	toks := strings.Fields(text)
	return shape{line: l, text: text, tokens: toks, trailing: trailingNumbers(toks)}
}

// rule is one entry of the classification table.
type rule struct {
	kind  budget.LineKind
	match func(e *Extractor, s shape, st State) bool
}

// rules are evaluated top to bottom; the first match wins. Noise is the
// fallback when nothing matches.
var rules = []rule{
	{budget.Title, (*Extractor).isTitle},
	{budget.SectionHeader, (*Extractor).isSectionHeader},
	{budget.SubsectionHeader, (*Extractor).isSubsectionHeader},
	{budget.ColumnHeader, (*Extractor).isColumnHeader},
	{budget.DataRow, (*Extractor).isDataRow},
}

// Classify assigns exactly one kind to a line given the current parse state.
func (e *Extractor) Classify(l budget.Line, st State) budget.LineKind {
	return e.classifyShape(newShape(l), st)
}

func (e *Extractor) classifyShape(s shape, st State) budget.LineKind {
	if len(s.tokens) == 0 {
		return budget.Noise
	}
	for _, r := range rules {
		if r.match(e, s, st) {
			return r.kind
		}
	}
	return budget.Noise
}

// isTitle matches the first free-text line of page one, before any section
// or item, and any later repeat of the captured title (page banners).
func (e *Extractor) isTitle(s shape, st State) bool {
	if st.Title != "" {
		return s.text == st.Title
	}
	if s.line.Page != 0 || st.HasSection || st.HasSubsection || st.Rows > 0 {
		return false
	}
	if !hasLetters(s.text, 3) || isPageNumber(s.text) || findDate(s.text) != "" {
		return false
	}
	if _, _, ok := e.headerParts(s); ok {
		return false
	}
	return !e.isColumnHeader(s, st) && !e.isDataRow(s, st)
}

func (e *Extractor) isSectionHeader(s shape, st State) bool {
	level, _, _, ok := e.header(s, st)
	return ok && level == budget.SectionHeader
}

func (e *Extractor) isSubsectionHeader(s shape, st State) bool {
	level, _, _, ok := e.header(s, st)
	return ok && level == budget.SubsectionHeader
}

// header resolves a header line to its level, code and name. Dotted codes
// and subsection keywords are subsections; plain codes are sections unless
// the line sits indented to the right of the current section header.
func (e *Extractor) header(s shape, st State) (budget.LineKind, string, string, bool) {
	code, name, ok := e.headerParts(s)
	if !ok {
		return budget.Noise, "", "", false
	}
	// Two or more trailing amounts on a row with an item code make it a data row.
	if s.trailing >= 2 && e.isDataRow(s, st) {
		return budget.Noise, "", "", false
	}
	first := labelKey(s.tokens[0])
	switch {
	case subsectionKeywords[first], subsectionCodeRe.MatchString(code):
		return budget.SubsectionHeader, code, name, true
	case st.HasSection && s.line.X > st.Section.X+e.IndentTolerance:
		return budget.SubsectionHeader, code, name, true
	}
	return budget.SectionHeader, code, name, true
}

// headerParts splits "<code> <NAME> [amount]" or "<keyword> <code> <NAME>".
// The name must start upper-case and stay short.
func (e *Extractor) headerParts(s shape) (code, name string, ok bool) {
	toks := s.tokens
	if len(toks) < 2 {
		return "", "", false
	}
	first := labelKey(toks[0])
	keyword := false
	if (sectionKeywords[first] || subsectionKeywords[first]) && len(toks) >= 3 {
		toks = toks[1:]
		keyword = true
	}
	code = strings.TrimRight(toks[0], ".)")
	if !sectionCodeRe.MatchString(toks[0]) && !subsectionCodeRe.MatchString(toks[0]) {
		return "", "", false
	}
	// A bare letter is usually a word ("A BASE DE ...", "Y RETIRO ...") from a
	// wrapped description.
	if isBareLetter(toks[0]) && !keyword && !s.line.Bold {
		return "", "", false
	}

	end := len(toks)
	for end > 1 && IsNumeric(toks[end-1]) {
		end--
	}
	nameToks := toks[1:end]
	if len(nameToks) == 0 || len(nameToks) > maxHeaderNameWords {
		return "", "", false
	}
	name = strings.Join(nameToks, " ")
	if !hasLetters(name, 2) || !startsUpper(name) {
		return "", "", false
	}
	if !s.line.Bold && !isUpperText(name) && !isTitleCase(nameToks) {
		return "", "", false
	}
	return code, name, true
}

func isBareLetter(tok string) bool {
	r := []rune(tok)
	return len(r) == 1 && unicode.IsLetter(r[0])
}

// isColumnHeader matches rows of three or more tokens made only of known
// column labels.
func (e *Extractor) isColumnHeader(s shape, _ State) bool {
	if len(s.tokens) < 3 {
		return false
	}
	for _, tok := range s.tokens {
		if !e.words.isLabel(tok) {
			return false
		}
	}
	return true
}

// isDataRow matches a plausible clave followed by at least one trailing amount.
func (e *Extractor) isDataRow(s shape, _ State) bool {
	return len(s.tokens) >= 2 && s.trailing >= 1 && isClave(s.tokens[0])
}

func hasLetters(s string, min int) bool {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
			if n >= min {
				return true
			}
		}
	}
	return false
}

func startsUpper(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
	}
	return false
}

// isUpperText reports whether every letter in s is upper-case.
func isUpperText(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// isTitleCase reports whether every word of four or more letters is capitalized.
func isTitleCase(words []string) bool {
	for _, w := range words {
		if len([]rune(w)) >= 4 && !startsUpper(w) {
			return false
		}
	}
	return true
}

func isPageNumber(s string) bool {
	return pageNumberRe.MatchString(strings.ToLower(strings.TrimSpace(s)))
}
