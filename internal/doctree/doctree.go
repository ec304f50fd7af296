package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Text     string     // Plain text that precedes the first heading
	Body     string     // HTML content that precedes the first heading
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Level    int        // Heading level, 1-6 (0 for leaf text)
	ID       string     // Anchor assigned by the outline extractor
	Text     string     // Plain text content of this node
	Body     string     // Rendered HTML of this node's content blocks
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// Walk visits every node depth-first in document order. Returning false from
// fn skips the node's children.
func (t *DocTree) Walk(fn func(n *DocNode) bool) {
	for _, c := range t.Children {
		walk(c, fn)
	}
}

func walk(n *DocNode, fn func(*DocNode) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		walk(c, fn)
	}
}

// WordCount counts the words in all headings and text of the tree.
func (t *DocTree) WordCount() int {
	count := len(strings.Fields(t.Text))
	t.Walk(func(n *DocNode) bool {
		count += len(strings.Fields(n.Title))
		count += len(strings.Fields(n.Text))
		return true
	})
	return count
}
