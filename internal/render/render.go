// Package render serializes an outline into a TOC fragment.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/tocgen/internal/inline"
	"github.com/dgallion1/tocgen/internal/outline"
)

// Format selects the markup of the rendered fragment.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat accepts "markdown" (or "md") and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown TOC format %q (want markdown or html)", s)
}

// Options controls rendering.
type Options struct {
	Format Format
	// MaxDepth omits headings whose level exceeds it. 0 means unlimited.
	MaxDepth int
	// MinLevel omits headings above it; their children move up in their place.
	MinLevel int
	// Ordered renders a numbered list.
	Ordered bool
	// LinkPrefix is prepended to every anchor.
	LinkPrefix string
	// Bullet is the Markdown list marker for unordered lists.
	Bullet string
	// Indent is the number of spaces per nesting level. 0 aligns nested
	// items under the parent's text, which is what Markdown requires.
	Indent int
	// Newline terminates each rendered line. Empty means "\n".
	Newline string
}

// DefaultOptions returns an unordered Markdown list linking to "#anchor".
// Newline is left empty: toc.Generate fills in the document's own line
// ending, and rendering falls back to "\n".
func DefaultOptions() Options {
	return Options{
		Format:     FormatMarkdown,
		LinkPrefix: "#",
		Bullet:     "-",
	}
}

func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = FormatMarkdown
	}
	if o.Bullet == "" {
		o.Bullet = "-"
	}
	if o.Newline == "" {
		o.Newline = "\n"
	}
	return o
}

// item is one emitted list entry.
type item struct {
	node   *outline.Node
	depth  int // rendered nesting, 0 for the outermost list
	number int // 1-based position among its siblings
}

// flatten selects the nodes to emit in pre-order and assigns their rendered
// depth and sibling number.
func flatten(root *outline.Node, opts Options) []item {
	type frame struct {
		node  *outline.Node
		depth int
	}
	var (
		items    []item
		counters []int
		stack    []frame
	)
	push := func(children []*outline.Node, depth int) {
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], depth})
		}
	}
	push(root.Children, 0)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		level := f.node.Level()
		if opts.MaxDepth > 0 && level > opts.MaxDepth {
			continue
		}
		if level < opts.MinLevel {
			push(f.node.Children, f.depth)
			continue
		}

		if f.depth < len(counters) {
			counters = counters[:f.depth+1]
		} else {
			counters = append(counters, 0)
		}
		counters[f.depth]++
		items = append(items, item{node: f.node, depth: f.depth, number: counters[f.depth]})
		push(f.node.Children, f.depth+1)
	}
	return items
}

var hrefEscaper = strings.NewReplacer(
	" ", "%20",
	"(", "%28",
	")", "%29",
	"<", "%3C",
	">", "%3E",
)

func href(prefix, anchor string) string {
	return prefix + hrefEscaper.Replace(anchor)
}

// Render dispatches on opts.Format. An outline without headings renders to
// an empty fragment.
func Render(root *outline.Node, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	switch opts.Format {
	case FormatMarkdown:
		return Markdown(root, opts), nil
	case FormatHTML:
		return HTML(root, opts)
	}
	return nil, fmt.Errorf("unknown TOC format %q", opts.Format)
}

// Markdown renders the outline as a nested Markdown list, one item per line.
func Markdown(root *outline.Node, opts Options) []byte {
	opts = opts.withDefaults()
	items := flatten(root, opts)
	if len(items) == 0 {
		return nil
	}

	var buf bytes.Buffer
	// widths[d] is the marker width of the latest item at depth d; nested
	// items are indented by the sum of their ancestors' widths.
	var widths []int
	for _, it := range items {
		marker := opts.Bullet
		if opts.Ordered {
			marker = strconv.Itoa(it.number) + "."
		}
		widths = append(widths[:it.depth], len(marker)+1)

		indent := it.depth * opts.Indent
		if opts.Indent <= 0 {
			indent = 0
			for _, w := range widths[:it.depth] {
				indent += w
			}
		}

		buf.WriteString(strings.Repeat(" ", indent))
		buf.WriteString(marker)
		buf.WriteString(" [")
		buf.WriteString(linkText(it.node))
		buf.WriteString("](")
		buf.WriteString(href(opts.LinkPrefix, it.node.Anchor))
		buf.WriteString(")")
		buf.WriteString(opts.Newline)
	}
	return buf.Bytes()
}

func linkText(n *outline.Node) string {
	return inline.EscapeLinkText(n.Heading.Text)
}
