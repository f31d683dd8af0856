package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Vocabulary holds the word lists the classifier and tokenizer match against.
type Vocabulary struct {
	Units        []string `toml:"units" yaml:"units"`
	ColumnLabels []string `toml:"column_labels" yaml:"column_labels"`
}

// DefaultVocabulary returns the built-in unit abbreviations and column labels
// seen in Spanish-language construction budgets.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Units: []string{
			"PZA", "PZAS", "PZ", "PIEZA", "PIEZAS", "U", "UD", "UDS", "UN", "UND", "UNID", "EA",
			"M", "ML", "M2", "M²", "M3", "M³", "KM", "CM", "MM",
			"KG", "TON", "T", "G", "LT", "LTS", "L",
			"LOTE", "LOT", "JGO", "JUEGO", "SAL", "SALIDA", "PTO", "PUNTO", "TRAMO", "VIAJE",
			"HR", "HRS", "H", "JOR", "JORNADA", "DIA", "MES",
			"SERV", "SERVICIO", "GLB", "GLOBAL", "PA", "P.A",
		},
		ColumnLabels: []string{
			"clave", "codigo", "cod", "concepto", "descripcion", "partida", "no", "num", "item",
			"unidad", "unid", "und", "ud", "u", "cantidad", "cant", "precio", "unitario", "p.u", "pu",
			"p/u", "importe", "total", "monto", "subtotal",
		},
	}
}

// Merge returns v extended with the entries of other.
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	out := Vocabulary{
		Units:        append([]string(nil), v.Units...),
		ColumnLabels: append([]string(nil), v.ColumnLabels...),
	}
	out.Units = append(out.Units, other.Units...)
	out.ColumnLabels = append(out.ColumnLabels, other.ColumnLabels...)
	return out
}

type wordSets struct {
	units  map[string]bool
	labels map[string]bool
}

func compileVocabulary(v Vocabulary) wordSets {
	ws := wordSets{
		units:  make(map[string]bool, len(v.Units)),
		labels: make(map[string]bool, len(v.ColumnLabels)),
	}
	for _, u := range v.Units {
		if k := unitKey(u); k != "" {
			ws.units[k] = true
		}
	}
	for _, l := range v.ColumnLabels {
		if k := labelKey(l); k != "" {
			ws.labels[k] = true
		}
	}
	return ws
}

func (ws wordSets) isUnit(tok string) bool {
	k := unitKey(tok)
	return k != "" && ws.units[k]
}

func (ws wordSets) isLabel(tok string) bool {
	k := labelKey(tok)
	return k != "" && ws.labels[k]
}

func unitKey(s string) string {
	return strings.ToUpper(strings.TrimRight(strings.TrimSpace(s), ".:"))
}

func labelKey(s string) string {
	return strings.ToLower(strings.TrimRight(fold(strings.TrimSpace(s)), ".:"))
}

// fold strips diacritics so "DESCRIPCIÓN" and "DESCRIPCION" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
