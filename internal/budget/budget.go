package budget

import (
	"encoding/json"
	"strconv"
)

// Document is one extracted input file.
type Document struct {
	Filename string // Original upload name, copied to every record as archivo
	Title    string // Info-dictionary title, used only when no title line is found
	Date     string // Info-dictionary creation date, same fallback rule
	Pages    int    // Page count reported by the extractor
	Lines    []Line // Top-to-bottom, left-to-right, page-ascending
}

// Line is one row of positioned text on a page.
type Line struct {
	Text     string  // Row text with single spaces between words
	Page     int     // 0-based page index
	X        float64 // Leftmost horizontal start of the row
	Y        float64 // Vertical position (PDF user space, grows upward; 0 for plain text)
	FontSize float64 // Largest font size on the row (0 if unknown)
	Bold     bool    // Any bold/heavy glyph on the row
}

// LineKind is the classification of a line.
type LineKind int

const (
	Noise LineKind = iota
	Title
	SectionHeader
	SubsectionHeader
	ColumnHeader
	DataRow
)

func (k LineKind) String() string {
	switch k {
	case Title:
		return "title"
	case SectionHeader:
		return "section"
	case SubsectionHeader:
		return "subsection"
	case ColumnHeader:
		return "column_header"
	case DataRow:
		return "data_row"
	default:
		return "noise"
	}
}

// Section is a top-level or nested grouping header.
type Section struct {
	Code string
	Name string
	X    float64 // Start offset of the header line, used to detect indented subsections
}

// Columns is the fixed export schema, in output order.
var Columns = []string{
	"seccion", "seccion_nombre", "subseccion", "subseccion_nombre", "clave",
	"descripcion", "unidad", "cantidad", "precio_unitario", "total", "titulo", "fecha", "archivo",
}

// Record is one budget line item (partida). Nil numeric fields are unset,
// which is not the same as zero.
type Record struct {
	Seccion          string
	SeccionNombre    string
	Subseccion       string
	SubseccionNombre string
	Clave            string
	Descripcion      string
	Unidad           string
	Cantidad         *float64
	PrecioUnitario   *float64
	Total            *float64
	Titulo           string
	Fecha            string
	Archivo          string
}

// Float returns a pointer to v, for building records.
func Float(v float64) *float64 { return &v }

// Values returns every column in Columns order. Unset numerics become "".
func (r Record) Values() []any {
	return []any{
		r.Seccion, r.SeccionNombre, r.Subseccion, r.SubseccionNombre, r.Clave,
		r.Descripcion, r.Unidad, numberOrEmpty(r.Cantidad), numberOrEmpty(r.PrecioUnitario),
		numberOrEmpty(r.Total), r.Titulo, r.Fecha, r.Archivo,
	}
}

// MarshalJSON writes all columns in schema order; unset numerics are "".
func (r Record) MarshalJSON() ([]byte, error) {
	vals := r.Values()
	buf := []byte{'{'}
	for i, c := range Columns {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, c)
		buf = append(buf, ':')
		v, err := json.Marshal(vals[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

func numberOrEmpty(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
