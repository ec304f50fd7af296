package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docreader/internal/doctree"
	"golang.org/x/net/html"
)

// Parser converts raw article bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// SupportedExtensions lists file extensions this service can read articles from.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tune format-specific parser behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Format returns the normalized format name for a filename ("markdown", "html", ...).
func Format(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return "markdown"
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "text"
	case ".pdf":
		return "pdf"
	case ".docx":
		return "docx"
	}
	return "unknown"
}

// TitleFromFilename strips the directory and extension from a filename.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// treeBuilder nests sections by heading level while collecting the text and
// HTML of the blocks in between.
type treeBuilder struct {
	root  *doctree.DocNode
	stack []stackEntry

	text strings.Builder
	body strings.Builder
}

type stackEntry struct {
	node  *doctree.DocNode
	level int
}

func newTreeBuilder() *treeBuilder {
	root := &doctree.DocNode{}
	return &treeBuilder{
		root:  root,
		stack: []stackEntry{{node: root, level: 0}},
	}
}

// heading opens a new section, closing any open section at the same or deeper level.
func (b *treeBuilder) heading(level int, title string) *doctree.DocNode {
	b.flush()
	node := &doctree.DocNode{Title: strings.TrimSpace(title), Level: level}

	// Pop stack until we find a parent with lower level.
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, stackEntry{node: node, level: level})
	return node
}

// block appends a content block to the currently open section.
func (b *treeBuilder) block(text, markup string) {
	if t := strings.TrimSpace(text); t != "" {
		if b.text.Len() > 0 {
			b.text.WriteString("\n\n")
		}
		b.text.WriteString(t)
	}
	b.body.WriteString(markup)
}

func (b *treeBuilder) flush() {
	top := b.stack[len(b.stack)-1].node
	if t := b.text.String(); t != "" {
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	top.Body += b.body.String()
	b.text.Reset()
	b.body.Reset()
}

func (b *treeBuilder) finish(title string) *doctree.DocTree {
	b.flush()
	return &doctree.DocTree{
		Title:    title,
		Text:     b.root.Text,
		Body:     b.root.Body,
		Children: b.root.Children,
	}
}

// paragraphHTML wraps plain text in an escaped paragraph element.
func paragraphHTML(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
	return "<p>" + escaped + "</p>\n"
}
