package render

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/tocgen/internal/inline"
	"github.com/dgallion1/tocgen/internal/outline"
)

// HTML renders the outline as nested <ul> (or <ol>) elements. Display text
// is the heading's plain text; html.Render escapes it.
func HTML(root *outline.Node, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	items := flatten(root, opts)
	if len(items) == 0 {
		return nil, nil
	}

	listAtom := atom.Ul
	if opts.Ordered {
		listAtom = atom.Ol
	}
	newList := func() *html.Node {
		list := element(listAtom)
		list.AppendChild(newline())
		return list
	}

	top := newList()
	// lists[d] is the open list at depth d; lastItem[d] its latest <li>.
	lists := []*html.Node{top}
	var lastItem []*html.Node

	for _, it := range items {
		if it.depth >= len(lists) {
			parent := lastItem[len(lastItem)-1]
			nested := newList()
			parent.AppendChild(newline())
			parent.AppendChild(nested)
			parent.AppendChild(newline())
			lists = append(lists, nested)
		}
		lists = lists[:it.depth+1]
		lastItem = lastItem[:min(len(lastItem), it.depth)]

		a := element(atom.A)
		a.Attr = []html.Attribute{{Key: "href", Val: href(opts.LinkPrefix, it.node.Anchor)}}
		a.AppendChild(&html.Node{Type: html.TextNode, Data: inline.PlainText(it.node.Heading.Text)})

		li := element(atom.Li)
		li.AppendChild(a)
		list := lists[it.depth]
		list.AppendChild(li)
		list.AppendChild(newline())
		lastItem = append(lastItem, li)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, top); err != nil {
		return nil, fmt.Errorf("render html toc: %w", err)
	}
	buf.WriteByte('\n')

	out := buf.Bytes()
	if opts.Newline != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(opts.Newline))
	}
	return out, nil
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}

func newline() *html.Node {
	return &html.Node{Type: html.TextNode, Data: "\n"}
}
