package source

import (
	"fmt"
	"io"

	"github.com/dgallion1/tocgen/internal/heading"
)

// MarkdownSource scans Markdown with the heading scanner.
type MarkdownSource struct {
	Options heading.Options
}

func (s *MarkdownSource) Headings(r io.Reader) ([]heading.Record, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	if err := heading.Validate(src); err != nil {
		return nil, err
	}
	return heading.Collect(src, s.Options), nil
}
