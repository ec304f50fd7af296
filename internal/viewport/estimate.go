package viewport

import (
	"strings"

	"github.com/dgallion1/docreader/internal/doctree"
)

// Rough typographic metrics of the reader page, in pixels.
const (
	DefaultViewportHeight = 900

	pageTop       = 240 // title block above the body
	headingHeight = 72
	lineHeight    = 28
	wordsPerLine  = 12
	blockGap      = 20
)

// Estimate lays out an outlined article tree without a browser. Every heading
// that carries an id gets an offset; offsets grow in document order.
func Estimate(tree *doctree.DocTree, viewportHeight float64) Layout {
	if viewportHeight <= 0 {
		viewportHeight = DefaultViewportHeight
	}
	layout := Layout{ViewportHeight: viewportHeight, Headings: []Heading{}}
	if tree == nil {
		return layout
	}

	y := float64(pageTop) + textHeight(tree.Text)
	tree.Walk(func(n *doctree.DocNode) bool {
		if n.Title != "" && n.Level > 0 {
			if n.ID != "" {
				layout.Headings = append(layout.Headings, Heading{ID: n.ID, Top: y})
			}
			y += headingHeight
		}
		y += textHeight(n.Text)
		return true
	})
	return layout
}

func textHeight(text string) float64 {
	var h float64
	for _, para := range strings.Split(text, "\n\n") {
		words := len(strings.Fields(para))
		if words == 0 {
			continue
		}
		lines := (words + wordsPerLine - 1) / wordsPerLine
		h += float64(lines*lineHeight + blockGap)
	}
	return h
}
