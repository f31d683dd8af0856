package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfInfo holds the info dictionary fields used as metadata fallbacks.
type pdfInfo struct {
	Title     string
	Date      string
	PageCount int
}

// readPDFInfo validates the file structure with pdfcpu and returns its
// info-dictionary metadata. Callers treat errors as non-fatal.
func readPDFInfo(data []byte) (info pdfInfo, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdfcpu panic: %v", rec)
		}
	}()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return info, fmt.Errorf("pdfcpu read: %w", err)
	}
	info.PageCount = ctx.PageCount
	info.Title = strings.TrimSpace(ctx.XRefTable.Title)
	info.Date = pdfDate(ctx.XRefTable.CreationDate)
	return info, nil
}

var pdfDateRe = regexp.MustCompile(`^(?:D:)?(\d{4})(\d{2})(\d{2})`)

// pdfDate turns a PDF date string ("D:20240315093000-06'00'") into
// "2024-03-15". Unrecognized values yield "".
func pdfDate(s string) string {
	m := pdfDateRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	if !validDate(m[1], m[2], m[3]) {
		return ""
	}
	return m[1] + "-" + m[2] + "-" + m[3]
}

func validDate(year, month, day string) bool {
	return month >= "01" && month <= "12" && day >= "01" && day <= "31" && year != "0000"
}
