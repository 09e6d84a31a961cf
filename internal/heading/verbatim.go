package heading

import "strings"

// Verbatim tracks whether lines fall inside a region whose content is not
// interpreted as markup: fenced code, front matter at the top of the
// document, and multi-line HTML comments. Feed it every line in order.
type Verbatim struct {
	frontMatter bool
	line        int

	fenceChar byte
	fenceLen  int // 0 when no fence is open

	frontClose string // closing delimiter while inside front matter
	inComment  bool
}

// NewVerbatim returns a tracker for the lines of src. frontMatter enables
// recognition of a leading "---" (YAML) or "+++" (TOML) block; an opener
// that no later line closes is ordinary text.
func NewVerbatim(src []byte, frontMatter bool) *Verbatim {
	return &Verbatim{frontMatter: frontMatter && closedFrontMatter(src)}
}

func closedFrontMatter(src []byte) bool {
	lines := SplitLines(src)
	if len(lines) == 0 {
		return false
	}
	open := strings.TrimRight(TrimBOM(lines[0].Text), " \t")
	if open != "---" && open != "+++" {
		return false
	}
	for _, ln := range lines[1:] {
		if closesFrontMatter(ln.Text, open) {
			return true
		}
	}
	return false
}

func closesFrontMatter(text, open string) bool {
	t := strings.TrimRight(text, " \t")
	return t == open || (open == "---" && t == "...")
}

// Inside reports whether a verbatim region is currently open.
func (v *Verbatim) Inside() bool {
	return v.fenceLen > 0 || v.frontClose != "" || v.inComment
}

// Step consumes the next line and reports whether it belongs to a verbatim
// region. Region delimiters themselves count as verbatim.
func (v *Verbatim) Step(text string) bool {
	first := v.line == 0
	v.line++
	if first {
		text = strings.TrimPrefix(text, bom)
		if v.frontMatter {
			if t := strings.TrimRight(text, " \t"); t == "---" || t == "+++" {
				v.frontClose = t
				return true
			}
		}
	}

	switch {
	case v.frontClose != "":
		if closesFrontMatter(text, v.frontClose) {
			v.frontClose = ""
		}
		return true
	case v.fenceLen > 0:
		if closesFence(text, v.fenceChar, v.fenceLen) {
			v.fenceLen = 0
		}
		return true
	case v.inComment:
		if strings.Contains(text, "-->") {
			v.inComment = false
		}
		return true
	}

	if ch, n, ok := opensFence(text); ok {
		v.fenceChar, v.fenceLen = ch, n
		return true
	}
	if ind, rest := indentation(text); ind <= 3 && strings.HasPrefix(rest, "<!--") {
		if !strings.Contains(rest[4:], "-->") {
			v.inComment = true
			return true
		}
	}
	return false
}

// indentation returns the visual indent of text (tabs count as four
// columns) and the remainder after the leading whitespace.
func indentation(text string) (int, string) {
	n := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ' ':
			n++
		case '\t':
			n += 4 - n%4
		default:
			return n, text[i:]
		}
	}
	return n, ""
}

func opensFence(text string) (byte, int, bool) {
	ind, rest := indentation(text)
	if ind > 3 || rest == "" {
		return 0, 0, false
	}
	ch := rest[0]
	if ch != '`' && ch != '~' {
		return 0, 0, false
	}
	n := runLength(rest, ch)
	if n < 3 {
		return 0, 0, false
	}
	// A backtick fence's info string may not contain backticks.
	if ch == '`' && strings.IndexByte(rest[n:], '`') >= 0 {
		return 0, 0, false
	}
	return ch, n, true
}

func closesFence(text string, ch byte, n int) bool {
	ind, rest := indentation(text)
	if ind > 3 {
		return false
	}
	run := runLength(rest, ch)
	if run < n {
		return false
	}
	return strings.TrimSpace(rest[run:]) == ""
}

func runLength(s string, ch byte) int {
	n := 0
	for n < len(s) && s[n] == ch {
		n++
	}
	return n
}
