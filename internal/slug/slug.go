// Package slug turns heading text into URL-fragment anchors that are unique
// within a document.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultPlaceholder is used when a heading's text normalizes to nothing.
const DefaultPlaceholder = "section"

// Set records the anchors already issued for one document.
type Set struct {
	taken map[string]bool
	next  map[string]int // next suffix to try, per base
}

// NewSet returns an empty anchor set.
func NewSet() *Set {
	return &Set{taken: make(map[string]bool), next: make(map[string]int)}
}

// Has reports whether anchor has been issued.
func (s *Set) Has(anchor string) bool { return s.taken[anchor] }

// Len returns the number of anchors issued.
func (s *Set) Len() int { return len(s.taken) }

// claim issues base, or base-N with the smallest N >= 1 not yet taken.
func (s *Set) claim(base string) string {
	if !s.taken[base] {
		s.taken[base] = true
		return base
	}
	n := s.next[base]
	if n == 0 {
		n = 1
	}
	for {
		candidate := base + "-" + strconv.Itoa(n)
		n++
		if !s.taken[candidate] {
			s.next[base] = n
			s.taken[candidate] = true
			return candidate
		}
	}
}

var foldReplacer = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"ø", "o",
	"œ", "oe",
	"đ", "d",
	"ł", "l",
	"þ", "th",
)

// Normalize lowercases text, strips diacritics, turns whitespace runs into
// single hyphens, and drops every other character outside [a-z0-9-].
// Leading and trailing hyphens are trimmed.
func Normalize(text string) string {
	text = strings.ToLower(text)
	// A transformer carries state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, text); err == nil {
		text = folded
	}
	text = foldReplacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte('-')
		}
		space = false
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "-")
}

// Make derives a unique anchor for text and records it in set. An empty
// normalization falls back to placeholder (DefaultPlaceholder when blank).
func Make(text string, set *Set, placeholder string) string {
	base := Normalize(text)
	if base == "" {
		base = placeholder
		if base == "" {
			base = DefaultPlaceholder
		}
	}
	return set.claim(base)
}

// Reserve records an author-supplied anchor as-is. If it collides with an
// anchor already issued, a numeric suffix is appended like Make does.
func Reserve(id string, set *Set) string {
	return set.claim(id)
}
