package library

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docreader/internal/doctree"
	"github.com/dgallion1/docreader/internal/outline"
	"github.com/dgallion1/docreader/internal/parser"
	"github.com/dgallion1/docreader/internal/render"
)

// Article is one loaded article: metadata plus the parsed model, its outline
// and the rendered body. An Article is immutable once built; reloads produce a
// new value.
type Article struct {
	Meta
	Format   string           `json:"format"`
	Words    int              `json:"words"`
	Revision string           `json:"revision"`
	Outline  outline.Outline  `json:"outline"`
	HTML     string           `json:"-"`
	Tree     *doctree.DocTree `json:"-"`
	Path     string           `json:"-"`

	rank int
}

// BuildOptions controls how raw article content is turned into an Article.
type BuildOptions struct {
	WordsPerMinute int
	Parser         parser.Options
}

// Build parses, outlines and renders one article. name selects the parser by
// extension. Text formats may start with YAML front matter, which overlays
// meta.
func Build(name string, data []byte, meta Meta, opts BuildOptions) (*Article, error) {
	p, err := parser.ForFile(name, opts.Parser)
	if err != nil {
		return nil, err
	}

	body := data
	if hasFrontMatter(name) {
		fm, rest, ok, err := splitFrontMatter(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if ok {
			meta = fm.overlay(meta)
			body = rest
		}
	}

	tree, err := p.Parse(bytes.NewReader(body), name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	o := outline.FromTree(tree)
	a := &Article{
		Meta:     meta,
		Format:   parser.Format(name),
		Words:    tree.WordCount(),
		Revision: ContentHashHex(data),
		Outline:  o,
		HTML:     render.Render(tree),
		Tree:     tree,
	}
	if a.Title == "" {
		a.Title = documentTitle(tree)
	}
	if a.Slug == "" {
		a.Slug = SlugFromFilename(name)
	}
	if a.ReadTime == "" {
		a.ReadTime = EstimateReadTime(a.Words, opts.WordsPerMinute)
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return a, nil
}

// documentTitle prefers the first top-level heading over the file-derived title.
func documentTitle(tree *doctree.DocTree) string {
	for _, c := range tree.Children {
		if c.Level == 1 && c.Title != "" {
			return c.Title
		}
	}
	return tree.Title
}

func hasFrontMatter(name string) bool {
	switch parser.Format(name) {
	case "markdown", "html", "text":
		return true
	}
	return false
}

// SlugFromFilename derives a slug from a file name without its extension.
func SlugFromFilename(name string) string {
	base := filepath.Base(name)
	return outline.DeriveID(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
