// Package outline assembles heading records into a section tree.
package outline

import "github.com/dgallion1/tocgen/internal/heading"

// Node is one section of the outline. The root is synthetic: it has level 0
// and no heading text; its children are the top-level headings.
type Node struct {
	Heading  heading.Record
	Anchor   string
	Children []*Node
}

// Level returns the heading level of the node, 0 for the root.
func (n *Node) Level() int { return n.Heading.Level }

// Entry is a heading paired with the anchor assigned to it.
type Entry struct {
	Heading heading.Record
	Anchor  string
}

// Build returns the root of the tree formed by entries, in document order.
// A heading nests under the closest preceding heading with a lower level,
// so skipped levels become direct children. Nothing is dropped.
func Build(entries []Entry) *Node {
	type stackEntry struct {
		node  *Node
		level int
	}

	root := &Node{}
	stack := []stackEntry{{node: root, level: 0}}

	for _, e := range entries {
		level := e.Heading.Level
		if level < 1 {
			level = 1
		}
		n := &Node{Heading: e.Heading, Anchor: e.Anchor}
		n.Heading.Level = level

		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, n)
		stack = append(stack, stackEntry{node: n, level: level})
	}
	return root
}

// Walk visits every node below n in pre-order, children in insertion order.
// depth is 1 for n's children. Returning false from fn skips the node's
// subtree. It uses an explicit stack, so arbitrarily deep trees are safe.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	type frame struct {
		node  *Node
		depth int
	}
	stack := make([]frame, 0, len(n.Children))
	for i := len(n.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{n.Children[i], 1})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.node, f.depth) {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

// Len returns the number of headings in the tree below n.
func (n *Node) Len() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Anchors returns every anchor in pre-order.
func (n *Node) Anchors() []string {
	var out []string
	n.Walk(func(node *Node, _ int) bool {
		out = append(out, node.Anchor)
		return true
	})
	return out
}
