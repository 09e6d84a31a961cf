// Package heading finds section headings in Markdown-style documents.
//
// The scanner makes a single forward pass over the lines of a document and
// yields one Record per heading. Lines inside fenced code, front matter,
// multi-line HTML comments, and an existing TOC block are never reported.
package heading

import (
	"regexp"
	"strings"
)

// MaxSupportedLevel is the deepest heading level any marker style can express.
const MaxSupportedLevel = 6

// Record is one heading found in a document.
type Record struct {
	Level   int    // 1 is top-level
	Text    string // heading text with the level marker stripped
	Line    int    // 0-based index of the (first) text line
	EndLine int    // last line of the heading; the underline for setext headings
	ID      string // explicit anchor from a trailing {#id}, if any
}

// Options controls which heading conventions are recognized.
type Options struct {
	// Marker is the ATX prefix character; a run of it sets the level.
	Marker byte
	// MaxLevel is the longest marker run still treated as a heading.
	MaxLevel int
	// Setext enables "===" / "---" underlined headings (levels 1 and 2).
	Setext bool
	// FrontMatter skips a leading "---" or "+++" metadata block.
	FrontMatter bool
	// SkipStart and SkipEnd bracket a region (the TOC block) that is not scanned.
	SkipStart string
	SkipEnd   string
}

// DefaultOptions returns Markdown conventions: "#" headings up to level 6,
// setext underlines, and front matter.
func DefaultOptions() Options {
	return Options{
		Marker:      '#',
		MaxLevel:    MaxSupportedLevel,
		Setext:      true,
		FrontMatter: true,
	}
}

var explicitID = regexp.MustCompile(`\s*\{#([^\s{}]+)\}$`)

// Scanner yields heading records lazily, in document order. It cannot be
// rewound; create a new Scanner to scan again.
type Scanner struct {
	opts     Options
	src      []byte
	pos      int
	line     int
	verbatim *Verbatim
	skipping bool
	para     paragraph
	rec      Record
}

// NewScanner returns a scanner over src. src must already be valid text
// (see Validate).
func NewScanner(src []byte, opts Options) *Scanner {
	if opts.Marker == 0 {
		opts.Marker = '#'
	}
	if opts.MaxLevel <= 0 || opts.MaxLevel > MaxSupportedLevel {
		opts.MaxLevel = MaxSupportedLevel
	}
	return &Scanner{
		opts:     opts,
		src:      src,
		verbatim: NewVerbatim(src, opts.FrontMatter),
	}
}

// Scan advances to the next heading. It returns false at end of input.
func (s *Scanner) Scan() bool {
	for s.pos < len(s.src) {
		ln := nextLine(s.src, s.pos)
		s.pos = ln.End
		idx := s.line
		s.line++
		if idx == 0 {
			ln.Text = strings.TrimPrefix(ln.Text, bom)
		}
		if rec, ok := s.classify(ln.Text, idx); ok {
			s.rec = rec
			return true
		}
	}
	return false
}

// Record returns the heading found by the last successful Scan.
func (s *Scanner) Record() Record {
	return s.rec
}

func (s *Scanner) classify(text string, idx int) (Record, bool) {
	// Lines of the skipped block do not feed the verbatim tracker, so the
	// block ends at the same line patch.Find sees.
	trimmed := strings.TrimSpace(text)
	if s.skipping {
		if trimmed == s.opts.SkipEnd {
			s.skipping = false
		}
		return Record{}, false
	}
	if s.verbatim.Step(text) {
		s.para.reset()
		return Record{}, false
	}
	if s.opts.SkipStart != "" && trimmed == s.opts.SkipStart {
		s.skipping = true
		s.para.reset()
		return Record{}, false
	}

	if level, body, ok := s.atx(text); ok {
		s.para.reset()
		return newRecord(level, body, idx, idx), true
	}

	if s.opts.Setext && !s.para.empty() {
		if level := setextLevel(text); level > 0 {
			rec := newRecord(level, s.para.text(), s.para.start, idx)
			s.para.reset()
			return rec, true
		}
	}

	if trimmed == "" || !paragraphLine(text) {
		s.para.reset()
		return Record{}, false
	}
	s.para.add(idx, trimmed)
	return Record{}, false
}

func newRecord(level int, body string, line, end int) Record {
	rec := Record{Level: level, Text: body, Line: line, EndLine: end}
	if m := explicitID.FindStringSubmatchIndex(body); m != nil {
		rec.ID = body[m[2]:m[3]]
		rec.Text = strings.TrimSpace(body[:m[0]])
	}
	return rec
}

// atx recognizes a marker-prefixed heading line.
func (s *Scanner) atx(text string) (int, string, bool) {
	ind, rest := indentation(text)
	if ind > 3 {
		return 0, "", false
	}
	n := runLength(rest, s.opts.Marker)
	if n == 0 || n > s.opts.MaxLevel {
		return 0, "", false
	}
	after := rest[n:]
	if after != "" && after[0] != ' ' && after[0] != '\t' {
		return 0, "", false
	}
	return n, stripClosing(strings.TrimSpace(after), s.opts.Marker), true
}

// stripClosing removes an optional closing marker run ("## Title ##").
func stripClosing(body string, marker byte) string {
	trimmed := strings.TrimRight(body, string(marker))
	if trimmed == body {
		return body
	}
	if trimmed == "" {
		return ""
	}
	if last := trimmed[len(trimmed)-1]; last == ' ' || last == '\t' {
		return strings.TrimSpace(trimmed)
	}
	return body
}

func setextLevel(text string) int {
	ind, rest := indentation(text)
	if ind > 3 {
		return 0
	}
	rest = strings.TrimRight(rest, " \t")
	if rest == "" {
		return 0
	}
	switch ch := rest[0]; {
	case ch == '=' && runLength(rest, '=') == len(rest):
		return 1
	case ch == '-' && runLength(rest, '-') == len(rest):
		return 2
	}
	return 0
}

// paragraphLine reports whether text can be part of a paragraph that a
// setext underline turns into a heading.
func paragraphLine(text string) bool {
	ind, rest := indentation(text)
	if ind > 3 || rest == "" {
		return false
	}
	switch rest[0] {
	case '>', '<':
		return false
	case '-', '*', '+':
		if len(rest) == 1 || rest[1] == ' ' || rest[1] == '\t' {
			return false
		}
	}
	if thematicBreak(rest) || orderedItem(rest) {
		return false
	}
	return true
}

func thematicBreak(s string) bool {
	s = strings.TrimRight(s, " \t")
	if s == "" {
		return false
	}
	ch := s[0]
	if ch != '-' && ch != '*' && ch != '_' {
		return false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ch:
			n++
		case ' ', '\t':
		default:
			return false
		}
	}
	return n >= 3
}

func orderedItem(s string) bool {
	digits := 0
	for digits < len(s) && digits < 10 && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits > 9 || digits >= len(s) {
		return false
	}
	if s[digits] != '.' && s[digits] != ')' {
		return false
	}
	rest := s[digits+1:]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// paragraph accumulates the lines a setext underline would turn into a heading.
type paragraph struct {
	start int
	lines []string
}

func (p *paragraph) add(idx int, line string) {
	if len(p.lines) == 0 {
		p.start = idx
	}
	p.lines = append(p.lines, line)
}

func (p *paragraph) empty() bool { return len(p.lines) == 0 }

func (p *paragraph) text() string { return strings.Join(p.lines, " ") }

func (p *paragraph) reset() { p.lines = p.lines[:0] }

// Collect scans src to the end and returns every heading.
func Collect(src []byte, opts Options) []Record {
	var records []Record
	sc := NewScanner(src, opts)
	for sc.Scan() {
		records = append(records, sc.Record())
	}
	return records
}
