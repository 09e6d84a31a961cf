// Package source extracts heading lists from documents of several formats.
// Only Markdown can be patched; the other formats feed read-only outlines.
package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/tocgen/internal/heading"
)

// Source reads the headings of one document.
type Source interface {
	Headings(r io.Reader) ([]heading.Record, error)
}

// SupportedExtensions lists file extensions with a Source.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".pdf":      true,
}

// ForFile returns the source for a filename, chosen by extension.
// Markdown sources use opts; the other formats ignore it.
func ForFile(filename string, opts heading.Options) (Source, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownSource{Options: opts}, nil
	case ".html", ".htm":
		return &HTMLSource{}, nil
	case ".docx":
		return &DOCXSource{}, nil
	case ".pdf":
		return &PDFSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension has a Source.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsMarkdown reports whether filename can be patched in place.
func IsMarkdown(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown"
}
