package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/partidas/internal/budget"
)

// Fields is the best-effort split of one data row. Unset numerics are nil.
type Fields struct {
	Clave          string
	Descripcion    string
	Unidad         string
	Cantidad       *float64
	PrecioUnitario *float64
	Total          *float64
}

var claveRe = regexp.MustCompile(`^[\p{L}0-9][\p{L}0-9.\-_/]*$`)

const maxClaveLen = 20

// isClave reports whether tok looks like an item code: no spaces, short,
// alphanumeric with separators, and containing at least one digit.
func isClave(tok string) bool {
	if len(tok) > maxClaveLen || !claveRe.MatchString(tok) {
		return false
	}
	return strings.IndexFunc(tok, unicode.IsDigit) >= 0
}

// trailingNumbers counts numeric tokens at the end of toks, up to three,
// never counting the first token.
func trailingNumbers(toks []string) int {
	n := 0
	for i := len(toks) - 1; i > 0 && n < 3; i-- {
		if !IsNumeric(toks[i]) {
			break
		}
		n++
	}
	return n
}

// Tokenize splits a data row into fields. It never fails: segments that
// cannot be isolated stay unset.
//
// Up to three trailing numbers are peeled from the right. Three map to
// cantidad, precio_unitario, total; two to cantidad and total; one to total.
// The unit is looked for right after the clave first, then just before the
// numbers.
func (e *Extractor) Tokenize(text string) Fields {
	toks := strings.Fields(text)
	var f Fields
	if len(toks) == 0 {
		return f
	}

	n := trailingNumbers(toks)
	nums := make([]*float64, 0, n)
	for _, tok := range toks[len(toks)-n:] {
		v, _ := ParseNumber(tok)
		nums = append(nums, budget.Float(v))
	}
	switch len(nums) {
	case 3:
		f.Cantidad, f.PrecioUnitario, f.Total = nums[0], nums[1], nums[2]
	case 2:
		f.Cantidad, f.Total = nums[0], nums[1]
	case 1:
		f.Total = nums[0]
	}

	rest := toks[:len(toks)-n]
	if len(rest) > 0 && isClave(rest[0]) {
		f.Clave = rest[0]
		rest = rest[1:]
	}

	switch {
	case len(rest) > 0 && e.words.isUnit(rest[0]):
		f.Unidad = rest[0]
		rest = rest[1:]
	case len(rest) > 1 && e.words.isUnit(rest[len(rest)-1]):
		f.Unidad = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}

	f.Descripcion = strings.Join(rest, " ")
	return f
}
