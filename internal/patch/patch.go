// Package patch locates the generated TOC block in a document and replaces
// it, or inserts a new block when none exists. Bytes outside the block are
// never changed.
package patch

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/tocgen/internal/heading"
)

const (
	DefaultStart = "<!-- toc -->"
	DefaultEnd   = "<!-- tocstop -->"
)

// ErrMalformedTocBlock is matched by every MalformedError.
var ErrMalformedTocBlock = errors.New("malformed TOC block")

// MalformedError describes TOC markers that do not form exactly one block.
type MalformedError struct {
	Line   int // 0-based line of the offending marker
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed TOC block at line %d: %s", e.Line+1, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformedTocBlock }

// Placement is where a new block goes when the document has none.
type Placement string

const (
	// AfterHeading places the block after the first level-1 heading, or at
	// the top when there is none.
	AfterHeading Placement = "after-heading"
	// Top places the block at the start of the document, after front matter.
	Top Placement = "top"
	// Bottom appends the block to the end of the document.
	Bottom Placement = "bottom"
)

// ParsePlacement validates a placement name.
func ParsePlacement(s string) (Placement, error) {
	switch p := Placement(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return AfterHeading, nil
	case AfterHeading, Top, Bottom:
		return p, nil
	}
	return "", fmt.Errorf("unknown placement %q (want after-heading, top or bottom)", s)
}

// Config holds the marker strings and the insertion policy.
type Config struct {
	Start     string
	End       string
	Placement Placement
	// Heading must match the options used to scan the document, so that the
	// first level-1 heading is found the same way.
	Heading heading.Options
	// Newline is used for inserted lines. Empty means the document's own.
	Newline string
}

// DefaultConfig returns the default markers and after-heading placement.
func DefaultConfig() Config {
	return Config{
		Start:     DefaultStart,
		End:       DefaultEnd,
		Placement: AfterHeading,
		Heading:   heading.DefaultOptions(),
	}
}

// Block is the span of an existing TOC block.
type Block struct {
	StartLine, EndLine int // marker lines, 0-based
	// Start and End delimit the block in bytes, both marker lines included.
	Start, End int
	// ContentStart and ContentEnd delimit the lines between the markers.
	ContentStart, ContentEnd int
}

// Find returns the TOC block of src, or nil when there is none. Marker lines
// inside fenced code, front matter, or HTML comments are ignored. A start
// marker without an end marker, an end marker without a start, and more than
// one block are reported as *MalformedError.
func Find(src []byte, cfg Config) (*Block, error) {
	cfg = cfg.withDefaults()
	var (
		block *Block
		open  *Block
	)
	v := heading.NewVerbatim(src, cfg.Heading.FrontMatter)
	for i, ln := range heading.SplitLines(src) {
		text := ln.Text
		if i == 0 {
			text = heading.TrimBOM(text)
		}
		if open == nil && v.Step(text) {
			continue
		}
		switch strings.TrimSpace(text) {
		case cfg.Start:
			if open != nil {
				return nil, &MalformedError{Line: i, Reason: fmt.Sprintf("start marker inside the block opened at line %d", open.StartLine+1)}
			}
			if block != nil {
				return nil, &MalformedError{Line: i, Reason: fmt.Sprintf("second TOC block; the first starts at line %d", block.StartLine+1)}
			}
			open = &Block{StartLine: i, Start: ln.Start, ContentStart: ln.End}
		case cfg.End:
			if open == nil {
				return nil, &MalformedError{Line: i, Reason: "end marker without a start marker"}
			}
			open.EndLine, open.ContentEnd, open.End = i, ln.Start, ln.End
			block, open = open, nil
		}
	}
	if open != nil {
		return nil, &MalformedError{Line: open.StartLine, Reason: "start marker without an end marker"}
	}
	return block, nil
}

func (c Config) withDefaults() Config {
	if c.Start == "" {
		c.Start = DefaultStart
	}
	if c.End == "" {
		c.End = DefaultEnd
	}
	if c.Placement == "" {
		c.Placement = AfterHeading
	}
	c.Start = strings.TrimSpace(c.Start)
	c.End = strings.TrimSpace(c.End)
	return c
}

// Apply returns src with the TOC block set to fragment. fragment should end
// with a line terminator unless it is empty. An existing block keeps its
// marker lines byte-for-byte; only the lines between them are replaced.
func Apply(src, fragment []byte, cfg Config) ([]byte, error) {
	cfg = cfg.withDefaults()
	nl := cfg.Newline
	if nl == "" {
		nl = heading.Newline(src)
	}

	block, err := Find(src, cfg)
	if err != nil {
		return nil, err
	}
	if block != nil {
		out := make([]byte, 0, len(src)-(block.ContentEnd-block.ContentStart)+len(fragment))
		out = append(out, src[:block.ContentStart]...)
		out = append(out, fragment...)
		out = append(out, src[block.ContentEnd:]...)
		return out, nil
	}

	lines := heading.SplitLines(src)
	at := insertionLine(src, lines, cfg)
	return insert(src, lines, at, fragment, cfg, nl), nil
}

// insertionLine returns the index of the line the new block goes before;
// len(lines) appends at the end.
func insertionLine(src []byte, lines []heading.Line, cfg Config) int {
	switch cfg.Placement {
	case Bottom:
		if !endsInVerbatim(src, lines, cfg.Heading) {
			return len(lines)
		}
	case AfterHeading:
		opts := cfg.Heading
		opts.SkipStart, opts.SkipEnd = cfg.Start, cfg.End
		sc := heading.NewScanner(src, opts)
		for sc.Scan() {
			if rec := sc.Record(); rec.Level == 1 {
				return rec.EndLine + 1
			}
		}
	}
	return afterFrontMatter(src, lines, cfg.Heading)
}

// afterFrontMatter returns the first line after a closed front matter block,
// or 0 when there is none.
func afterFrontMatter(src []byte, lines []heading.Line, opts heading.Options) int {
	if !opts.FrontMatter || len(lines) == 0 {
		return 0
	}
	if first := strings.TrimRight(heading.TrimBOM(lines[0].Text), " \t"); first != "---" && first != "+++" {
		return 0
	}
	v := heading.NewVerbatim(src, true)
	if !v.Step(lines[0].Text) {
		return 0
	}
	for i := 1; i < len(lines); i++ {
		v.Step(lines[i].Text)
		if !v.Inside() {
			return i + 1
		}
	}
	return 0
}

func endsInVerbatim(src []byte, lines []heading.Line, opts heading.Options) bool {
	v := heading.NewVerbatim(src, opts.FrontMatter)
	for _, ln := range lines {
		v.Step(ln.Text)
	}
	return v.Inside()
}

// insert places a new block before line at, separated from neighbouring
// non-blank lines by a blank line.
func insert(src []byte, lines []heading.Line, at int, fragment []byte, cfg Config, nl string) []byte {
	pos := len(src)
	if at < len(lines) {
		pos = lines[at].Start
	}
	if at == 0 && heading.HasBOM(src) {
		pos = heading.BOMLen
	}

	var block bytes.Buffer
	if at > 0 {
		prev := lines[at-1]
		if prev.End == len(src) && !endsWithNewline(src) {
			block.WriteString(nl)
		}
		if strings.TrimSpace(prev.Text) != "" {
			block.WriteString(nl)
		}
	}
	block.WriteString(cfg.Start)
	block.WriteString(nl)
	block.Write(fragment)
	block.WriteString(cfg.End)
	block.WriteString(nl)
	if at < len(lines) && strings.TrimSpace(lines[at].Text) != "" {
		block.WriteString(nl)
	}

	out := make([]byte, 0, len(src)+block.Len())
	out = append(out, src[:pos]...)
	out = append(out, block.Bytes()...)
	out = append(out, src[pos:]...)
	return out
}

func endsWithNewline(src []byte) bool {
	return len(src) > 0 && src[len(src)-1] == '\n'
}
