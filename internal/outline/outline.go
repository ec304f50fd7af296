// Package outline extracts the navigable outline of an article: its ordered
// top-level sections, each anchored by an id derived from the heading text.
package outline

import (
	"strings"
	"unicode"
)

// SectionLevel is the heading level that forms the outline. Deeper headings
// still receive anchors but stay out of the outline to keep it scannable.
const SectionLevel = 2

// maxAnchorLevel is the deepest heading that gets an id applied.
const maxAnchorLevel = 3

// Section is one navigable unit of an article.
type Section struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// Outline is the ordered list of an article's top-level sections. It is built
// once per render pass and replaced wholesale when the content changes.
type Outline struct {
	Sections []Section `json:"sections"`
}

// Len returns the number of sections.
func (o Outline) Len() int { return len(o.Sections) }

// Empty reports whether the outline has no sections.
func (o Outline) Empty() bool { return len(o.Sections) == 0 }

// Index returns the position of the first section with id, or -1.
func (o Outline) Index(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range o.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Has reports whether id names a section of the outline.
func (o Outline) Has(id string) bool { return o.Index(id) >= 0 }

// IDs returns the section ids in document order.
func (o Outline) IDs() []string {
	ids := make([]string, len(o.Sections))
	for i, s := range o.Sections {
		ids[i] = s.ID
	}
	return ids
}

// builder appends sections with strictly increasing order.
type builder struct {
	sections []Section
}

func (b *builder) add(id, text string) {
	b.sections = append(b.sections, Section{ID: id, Text: text, Order: len(b.sections)})
}

func (b *builder) outline() Outline {
	if b.sections == nil {
		return Outline{Sections: []Section{}}
	}
	return Outline{Sections: b.sections}
}

// DeriveID turns heading text into an anchor id: lowercase, trim, replace
// whitespace runs with a hyphen, drop anything that is not an ASCII letter,
// digit or hyphen, collapse repeated hyphens and trim them from both ends.
// An empty result means the heading cannot be a navigation target.
func DeriveID(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(s))
	hyphen := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r) || r == '-':
			hyphen = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
