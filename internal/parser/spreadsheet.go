package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/partidas/internal/budget"
)

// XLSXParser handles .xlsx workbooks. Each sheet is a page and each row a
// line with its non-empty cells joined by spaces.
type XLSXParser struct{}

func (p *XLSXParser) Parse(r io.Reader, filename string) (*budget.Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	out := &budget.Document{Filename: filename}
	if props, err := f.GetDocProps(); err == nil && props != nil {
		out.Title = strings.TrimSpace(props.Title)
	}

	for page, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for i, row := range rows {
			text, first := joinCells(row)
			if text == "" {
				continue
			}
			out.Lines = append(out.Lines, budget.Line{
				Text: text,
				Page: page,
				X:    float64(first),
				Bold: xlsxRowBold(f, sheet, i+1, first+1),
			})
		}
		out.Pages++
	}
	return out, nil
}

// xlsxRowBold reports whether the first non-empty cell of a row uses a bold
// font. row and col are 1-based.
func xlsxRowBold(f *excelize.File, sheet string, row, col int) bool {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	style, err := f.GetStyle(idx)
	if err != nil || style == nil || style.Font == nil {
		return false
	}
	return style.Font.Bold
}

// XLSParser handles legacy BIFF .xls workbooks. Rows become lines the same
// way as for .xlsx; cell formatting is not available.
type XLSParser struct{}

func (p *XLSParser) Parse(r io.Reader, filename string) (*budget.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read xls: %w", err)
	}
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	out := &budget.Document{Filename: filename}
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		for _, row := range sheet.GetRows() {
			text, first := joinCells(xlsCellValues(row.GetCols()))
			if text == "" {
				continue
			}
			out.Lines = append(out.Lines, budget.Line{Text: text, Page: out.Pages, X: float64(first)})
		}
		out.Pages++
	}
	return out, nil
}

func xlsCellValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}

// joinCells joins the non-empty cells of a row and returns the index of the
// first one, which stands in for the row's indentation.
func joinCells(cells []string) (string, int) {
	first := -1
	parts := make([]string, 0, len(cells))
	for i, c := range cells {
		c = collapse(c)
		if c == "" {
			continue
		}
		if first < 0 {
			first = i
		}
		parts = append(parts, c)
	}
	if first < 0 {
		return "", 0
	}
	return strings.Join(parts, " "), first
}
