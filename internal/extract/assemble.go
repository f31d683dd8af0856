package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dgallion1/partidas/internal/budget"
)

// DefaultIndentTolerance is how far right of the current section header (in
// the extractor's X units) a plain-coded header must start to count as a
// subsection.
const DefaultIndentTolerance = 6.0

// Extractor turns classified lines into records. It holds only immutable
// configuration, so one Extractor can serve concurrent documents.
type Extractor struct {
	words           wordSets
	IndentTolerance float64
}

// New creates an Extractor for the given vocabulary.
func New(v Vocabulary) *Extractor {
	return &Extractor{
		words:           compileVocabulary(v),
		IndentTolerance: DefaultIndentTolerance,
	}
}

// State is the per-document parse state threaded through Step.
type State struct {
	Title    string
	Date     string
	Filename string

	Section       budget.Section
	Subsection    budget.Section
	HasSection    bool
	HasSubsection bool

	Rows int // records emitted so far
}

// Step applies one line to the state and returns the new state, the line's
// kind and the record it produced, if any. It does not mutate its input.
func (e *Extractor) Step(st State, l budget.Line) (State, budget.LineKind, *budget.Record) {
	s := newShape(l)
	kind := e.classifyShape(s, st)

	if kind != budget.DataRow && st.Date == "" {
		st.Date = findDate(s.text)
	}

	switch kind {
	case budget.Title:
		if st.Title == "" {
			st.Title = s.text
		}

	case budget.SectionHeader:
		_, code, name, _ := e.header(s, st)
		st.Section = budget.Section{Code: code, Name: name, X: l.X}
		st.HasSection = true
		st.Subsection = budget.Section{}
		st.HasSubsection = false

	case budget.SubsectionHeader:
		_, code, name, _ := e.header(s, st)
		st.Subsection = budget.Section{Code: code, Name: name, X: l.X}
		st.HasSubsection = true

	case budget.DataRow:
		f := e.Tokenize(s.text)
		rec := &budget.Record{
			Seccion:          st.Section.Code,
			SeccionNombre:    st.Section.Name,
			Subseccion:       st.Subsection.Code,
			SubseccionNombre: st.Subsection.Name,
			Clave:            f.Clave,
			Descripcion:      f.Descripcion,
			Unidad:           f.Unidad,
			Cantidad:         f.Cantidad,
			PrecioUnitario:   f.PrecioUnitario,
			Total:            f.Total,
			Titulo:           st.Title,
			Fecha:            st.Date,
			Archivo:          st.Filename,
		}
		st.Rows++
		return st, kind, rec
	}
	return st, kind, nil
}

// Parse runs one forward pass over the document's lines. A document with no
// data rows yields an empty, non-nil slice.
//
// titulo and fecha are stamped once the pass is done so they are identical
// on every record, even when the date line comes after the first items.
// Info-dictionary values fill in when the text had none.
func (e *Extractor) Parse(doc *budget.Document) []budget.Record {
	out := make([]budget.Record, 0)
	if doc == nil {
		return out
	}

	st := State{Filename: doc.Filename}
	for _, l := range doc.Lines {
		var rec *budget.Record
		st, _, rec = e.Step(st, l)
		if rec != nil {
			out = append(out, *rec)
		}
	}

	title, date := st.Title, st.Date
	if title == "" {
		title = doc.Title
	}
	if date == "" {
		date = doc.Date
	}
	for i := range out {
		out[i].Titulo = title
		out[i].Fecha = date
	}
	return out
}

// Fingerprint identifies the extractor's configuration. Two extractors with
// the same fingerprint produce the same records for the same lines.
func (e *Extractor) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "units=%s\n", strings.Join(slices.Sorted(maps.Keys(e.words.units)), ","))
	fmt.Fprintf(h, "labels=%s\n", strings.Join(slices.Sorted(maps.Keys(e.words.labels)), ","))
	fmt.Fprintf(h, "indent=%g\n", e.IndentTolerance)
	return hex.EncodeToString(h.Sum(nil))
}
