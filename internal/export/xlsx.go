// Package export serializes records to spreadsheet workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/partidas/internal/budget"
	"github.com/dgallion1/partidas/internal/extract"
)

const (
	// SheetName holds the flat record table.
	SheetName = "BD"
	// ChecksSheetName lists advisory arithmetic warnings when requested.
	ChecksSheetName = "Revision"

	// ContentType is the MIME type of the produced workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// DefaultFilename is the download name offered to browsers.
	DefaultFilename = "presupuesto_bd.xlsx"
)

// Options controls optional workbook content.
type Options struct {
	IncludeChecks bool
}

// XLSX returns a workbook with one header row of budget.Columns and one row
// per record, in order. Unset numeric fields are written as empty cells.
func XLSX(records []budget.Record, opts Options) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(budget.Columns))
	for i, c := range budget.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := r.Values()
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	widths := []struct {
		from, to string
		width    float64
	}{
		{"B", "B", 28}, // seccion_nombre
		{"D", "D", 28}, // subseccion_nombre
		{"F", "F", 48}, // descripcion
		{"H", "J", 14}, // amounts
		{"K", "K", 32}, // titulo
	}
	for _, cw := range widths {
		if err := f.SetColWidth(SheetName, cw.from, cw.to, cw.width); err != nil {
			return nil, fmt.Errorf("set column width %s: %w", cw.from, err)
		}
	}

	if opts.IncludeChecks {
		if err := writeChecks(f, records); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeChecks(f *excelize.File, records []budget.Record) error {
	if _, err := f.NewSheet(ChecksSheetName); err != nil {
		return fmt.Errorf("add checks sheet: %w", err)
	}
	header := []any{"fila", "archivo", "clave", "aviso"}
	if err := f.SetSheetRow(ChecksSheetName, "A1", &header); err != nil {
		return fmt.Errorf("write checks header: %w", err)
	}
	row := 2
	for i, r := range records {
		for _, w := range extract.Check(r) {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			// BD row number of the record.
			vals := []any{i + 2, r.Archivo, r.Clave, w}
			if err := f.SetSheetRow(ChecksSheetName, cell, &vals); err != nil {
				return fmt.Errorf("write check row: %w", err)
			}
			row++
		}
	}
	if err := f.SetColWidth(ChecksSheetName, "D", "D", 60); err != nil {
		return fmt.Errorf("set checks column width: %w", err)
	}
	return nil
}
