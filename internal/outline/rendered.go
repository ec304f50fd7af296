package outline

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractRendered scans an already rendered document for top-level headings,
// sets each derived id on its heading element and returns the outline. The
// document must be fully rendered; headings added later are not seen.
func ExtractRendered(doc *goquery.Document) Outline {
	var b builder
	doc.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
		level := headingLevel(goquery.NodeName(s))
		text := strings.TrimSpace(s.Text())
		id := DeriveID(text)
		if id == "" {
			s.RemoveAttr("id")
			return
		}
		s.SetAttr("id", id)
		if level == SectionLevel {
			b.add(id, text)
		}
	})
	return b.outline()
}

// ExtractHTML parses rendered HTML, extracts its outline and returns the
// body markup with heading ids applied.
func ExtractHTML(r io.Reader) (Outline, string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Outline{}, "", fmt.Errorf("parse rendered html: %w", err)
	}
	o := ExtractRendered(doc)
	body, err := doc.Find("body").Html()
	if err != nil {
		return Outline{}, "", fmt.Errorf("serialize annotated html: %w", err)
	}
	return o, body, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h2":
		return 2
	case "h3":
		return 3
	}
	return 0
}
