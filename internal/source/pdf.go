package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/tocgen/internal/heading"
)

// PDFSource reads the document outline (bookmarks). Nesting depth in the
// outline becomes the heading level, capped at heading.MaxSupportedLevel.
type PDFSource struct{}

func (s *PDFSource) Headings(r io.Reader) ([]heading.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	return outlineRecords(reader.Outline()), nil
}

// outlineRecords flattens a bookmark tree in pre-order. The unnamed top
// entry is the outline root and is not itself a heading.
func outlineRecords(root pdflib.Outline) []heading.Record {
	type frame struct {
		o     pdflib.Outline
		level int
	}
	var records []heading.Record
	stack := make([]frame, 0, len(root.Child))
	for i := len(root.Child) - 1; i >= 0; i-- {
		stack = append(stack, frame{root.Child[i], 1})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if title := strings.TrimSpace(f.o.Title); title != "" {
			n := len(records)
			records = append(records, heading.Record{
				Level:   min(f.level, heading.MaxSupportedLevel),
				Text:    title,
				Line:    n,
				EndLine: n,
			})
		}
		for i := len(f.o.Child) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.o.Child[i], f.level + 1})
		}
	}
	return records
}
