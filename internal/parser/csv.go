package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/partidas/internal/budget"
)

// CSVParser handles CSV exports of budget spreadsheets. Rows become lines
// the same way as spreadsheet rows. The delimiter is ';' when the first line
// has more semicolons than commas, which is what spreadsheets write in
// locales with a decimal comma.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*budget.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	out := &budget.Document{Filename: filename}
	for _, row := range rows {
		text, first := joinCells(row)
		if text == "" {
			continue
		}
		out.Lines = append(out.Lines, budget.Line{Text: text, X: float64(first)})
	}
	if len(out.Lines) > 0 {
		out.Pages = 1
	}
	return out, nil
}

func sniffDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return ','
	}
	first := sc.Text()
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}
