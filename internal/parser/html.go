package parser

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/dgallion1/docreader/internal/doctree"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Full pages carrying site chrome (nav,
// header, footer) are reduced to their main content with go-readability
// before the heading walk.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := TitleFromFilename(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	// Readability rewrites the page's <h1> as <h2>. The leading heading that
	// repeats the page title is dropped so it does not become a section.
	var titleHeading []string
	if hasChrome(doc) {
		rp := readability.NewParser()
		article, err := rp.Parse(bytes.NewReader(src), &url.URL{Scheme: "file", Path: "/" + filename})
		if err == nil && strings.TrimSpace(article.Content) != "" {
			if h1 := findHeading(doc, "h1"); h1 != "" {
				titleHeading = append(titleHeading, h1)
			}
			if article.Title != "" {
				title = strings.TrimSpace(article.Title)
				titleHeading = append(titleHeading, title)
			}
			doc, err = html.Parse(strings.NewReader(article.Content))
			if err != nil {
				return nil, fmt.Errorf("parse readable content: %w", err)
			}
		}
	}

	b := newTreeBuilder()
	seenHeading := false

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				b.block(t, paragraphHTML(t))
			}
			return
		case html.ElementNode:
			if level := headingLevel(n.Data); level > 0 {
				text := textContent(n)
				first := !seenHeading
				seenHeading = true
				if first && matchesAny(text, titleHeading) {
					return
				}
				b.heading(level, text)
				return // Don't recurse into heading children (already extracted text).
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "title", "head":
				return
			}

			// Blocks without nested headings are kept whole.
			if !containsHeading(n) {
				var buf bytes.Buffer
				if err := html.Render(&buf, n); err == nil {
					buf.WriteByte('\n')
					b.block(textContent(n), buf.String())
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	} else {
		walk(doc)
	}

	return b.finish(title), nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func containsHeading(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (headingLevel(c.Data) > 0 || containsHeading(c)) {
			return true
		}
	}
	return false
}

func hasChrome(n *html.Node) bool {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "nav", "header", "footer", "aside":
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasChrome(c) {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findHeading(n *html.Node, tag string) string {
	if n.Type == html.ElementNode && n.Data == tag {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findHeading(c, tag); t != "" {
			return t
		}
	}
	return ""
}

func matchesAny(text string, candidates []string) bool {
	norm := strings.Join(strings.Fields(text), " ")
	for _, c := range candidates {
		if strings.EqualFold(norm, strings.Join(strings.Fields(c), " ")) {
			return true
		}
	}
	return false
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
