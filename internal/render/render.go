// Package render turns a parsed document tree into the article HTML that the
// reader page displays. Headings carry the ids assigned by the outline
// extractor so fragment links and the section tracker can address them.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/dgallion1/docreader/internal/doctree"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	return p
}

// Render emits the tree as sanitized HTML. Call outline.FromTree first so the
// heading nodes carry their ids.
func Render(tree *doctree.DocTree) string {
	if tree == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(tree.Body)
	for _, c := range tree.Children {
		writeNode(&sb, c)
	}
	return Sanitize(sb.String())
}

// Sanitize strips scripts, event handlers and other unsafe markup from
// article HTML while keeping heading ids and code language classes.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}

func writeNode(sb *strings.Builder, n *doctree.DocNode) {
	if n.Title != "" && n.Level > 0 {
		level := n.Level
		if level > 6 {
			level = 6
		}
		if n.ID != "" {
			fmt.Fprintf(sb, "<h%d id=\"%s\">%s</h%d>\n", level, html.EscapeString(n.ID), html.EscapeString(n.Title), level)
		} else {
			fmt.Fprintf(sb, "<h%d>%s</h%d>\n", level, html.EscapeString(n.Title), level)
		}
	}
	sb.WriteString(n.Body)
	for _, c := range n.Children {
		writeNode(sb, c)
	}
}
