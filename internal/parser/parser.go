package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/partidas/internal/budget"
)

// ErrUnreadablePDF is returned for corrupt, truncated, encrypted or
// image-only PDFs. It is fatal for that document only.
var ErrUnreadablePDF = errors.New("unreadable pdf")

// Parser converts raw document bytes into positioned lines.
type Parser interface {
	Parse(r io.Reader, filename string) (*budget.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".txt":      true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".xlsx":     true,
	".xls":      true,
	".csv":      true,
}

// Options tunes the parsers returned by ForFile.
type Options struct {
	FallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".xlsx":
		return &XLSXParser{}, nil
	case ".xls":
		return &XLSParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
