package outline

import "github.com/dgallion1/docreader/internal/doctree"

// FromTree computes the outline from the parsed document model and assigns
// the derived ids to the heading nodes, so the renderer emits them as anchors.
// Ids are not deduplicated; two headings with the same text share an id.
func FromTree(tree *doctree.DocTree) Outline {
	var b builder
	if tree == nil {
		return b.outline()
	}
	tree.Walk(func(n *doctree.DocNode) bool {
		if n.Level < SectionLevel || n.Level > maxAnchorLevel {
			return true
		}
		n.ID = DeriveID(n.Title)
		if n.Level == SectionLevel && n.ID != "" {
			b.add(n.ID, n.Title)
		}
		return true
	})
	return b.outline()
}
