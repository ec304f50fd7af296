package library

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Meta is the catalog metadata of one article.
type Meta struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt,omitempty"`
	Author      string   `json:"author,omitempty"`
	Date        string   `json:"date,omitempty"`
	UpdatedDate string   `json:"updated_date,omitempty"`
	ReadTime    string   `json:"read_time"`
	Tags        []string `json:"tags"`
	Image       string   `json:"image,omitempty"`
	Published   bool     `json:"published"`
	File        string   `json:"-"`
}

// entry is one catalog post or one front matter block. Unset fields leave the
// value they overlay untouched.
type entry struct {
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Excerpt     string   `yaml:"excerpt"`
	Author      string   `yaml:"author"`
	Date        string   `yaml:"date"`
	UpdatedDate string   `yaml:"updated_date"`
	ReadTime    string   `yaml:"read_time"`
	Tags        []string `yaml:"tags"`
	Image       string   `yaml:"image"`
	Published   *bool    `yaml:"published"`
	File        string   `yaml:"file"`
}

type catalogFile struct {
	Posts []entry `yaml:"posts"`
}

// overlay applies the fields set in e on top of m.
func (e entry) overlay(m Meta) Meta {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&m.Slug, e.Slug)
	set(&m.Title, e.Title)
	set(&m.Excerpt, e.Excerpt)
	set(&m.Author, e.Author)
	set(&m.Date, e.Date)
	set(&m.UpdatedDate, e.UpdatedDate)
	set(&m.ReadTime, e.ReadTime)
	set(&m.Image, e.Image)
	set(&m.File, e.File)
	if e.Tags != nil {
		m.Tags = append([]string(nil), e.Tags...)
	}
	if e.Published != nil {
		m.Published = *e.Published
	}
	return m
}

// meta turns a catalog entry into metadata. Entries without a published flag
// are published.
func (e entry) meta() Meta {
	return e.overlay(Meta{Published: true})
}

// readCatalog loads the catalog file. A missing file is an empty catalog.
func readCatalog(path string) ([]entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, e := range cf.Posts {
		if e.Slug == "" {
			return nil, fmt.Errorf("parse catalog %s: post %d has no slug", path, i)
		}
	}
	return cf.Posts, nil
}

var fmDelim = []byte("---")

// splitFrontMatter separates a leading YAML front matter block from the body.
// ok is false when data has no front matter.
func splitFrontMatter(data []byte) (fm entry, body []byte, ok bool, err error) {
	first, rest, found := bytes.Cut(data, []byte("\n"))
	if !found || !bytes.Equal(bytes.TrimRight(first, "\r \t"), fmDelim) {
		return entry{}, data, false, nil
	}

	var block, line []byte
	for {
		line, rest, found = bytes.Cut(rest, []byte("\n"))
		if bytes.Equal(bytes.TrimRight(line, "\r \t"), fmDelim) {
			if err := yaml.Unmarshal(block, &fm); err != nil {
				return entry{}, data, false, fmt.Errorf("parse front matter: %w", err)
			}
			return fm, rest, true, nil
		}
		block = append(block, line...)
		block = append(block, '\n')
		if !found {
			break
		}
	}
	// Unterminated block: treat the whole file as content.
	return entry{}, data, false, nil
}
