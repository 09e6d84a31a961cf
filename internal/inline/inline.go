// Package inline derives display text from the inline Markdown of a heading.
package inline

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var md = goldmark.New()

// PlainText returns raw heading text with inline markup removed: emphasis
// markers, link destinations, raw HTML, and backslash escapes are dropped and
// entities are resolved. Code span contents are kept literally.
func PlainText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	// Parse as a heading so the text is never read as a block construct
	// such as a list item or a thematic break.
	src := []byte("# " + raw)
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.CodeSpan:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				switch t := c.(type) {
				case *ast.Text:
					buf.Write(t.Segment.Value(src))
				case *ast.String:
					buf.Write(t.Value)
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			v := node.Segment.Value(src)
			v = util.UnescapePunctuations(v)
			v = util.ResolveNumericReferences(v)
			v = util.ResolveEntityNames(v)
			buf.Write(v)
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(src))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

var inlineLink = regexp.MustCompile(`!?\[([^\[\]]*)\]\([^()\s]*(?:\s+"[^"]*")?\)`)

// EscapeLinkText makes raw heading text safe to use as the text of a
// Markdown link. Inline links and images collapse to their label, since
// links cannot nest, and any remaining unescaped brackets outside code
// spans are backslash-escaped. Other markup is kept as written.
func EscapeLinkText(raw string) string {
	raw = collapseLinks(raw)

	var b strings.Builder
	b.Grow(len(raw) + 4)
	inCode := 0 // length of the open code span's backtick run
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '`':
			n := 1
			for i+n < len(raw) && raw[i+n] == '`' {
				n++
			}
			if inCode == 0 && closingRun(raw[i+n:], n) {
				inCode = n
			} else if inCode == n {
				inCode = 0
			}
			b.WriteString(raw[i : i+n])
			i += n - 1
		case inCode > 0:
			b.WriteByte(c)
		case c == '\\' && i+1 < len(raw):
			b.WriteByte(c)
			b.WriteByte(raw[i+1])
			i++
		case c == '[' || c == ']':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// collapseLinks replaces [label](dest) and ![alt](dest) with their text,
// innermost first, until nothing changes.
func collapseLinks(s string) string {
	for {
		next := inlineLink.ReplaceAllString(s, "$1")
		if next == s {
			return s
		}
		s = next
	}
}

// closingRun reports whether rest contains a backtick run of exactly n.
func closingRun(rest string, n int) bool {
	for i := 0; i < len(rest); {
		if rest[i] != '`' {
			i++
			continue
		}
		j := i
		for j < len(rest) && rest[j] == '`' {
			j++
		}
		if j-i == n {
			return true
		}
		i = j
	}
	return false
}
