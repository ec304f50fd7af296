package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `posts:
  - slug: first-post
    title: First Post
    excerpt: The first one.
    author: Team
    date: "2025-11-12"
    read_time: 9 min read
    tags: [DevOps, CI/CD]
    file: first.md
  - slug: second-post
    title: Second Post
    tags: [Cloud, DevOps]
  - slug: draft-post
    title: Draft
    published: false
    file: draft.md
  - slug: missing-post
    title: Missing
`

const firstMD = `# First Post

Intro.

## Overview

Some overview text.

## Setup

Setup text.

## Usage

Usage text.
`

const secondMD = `---
title: Second Post (Revised)
updated_date: "2025-12-01"
---
## Only Section

Body.
`

const orphanMD = `---
title: Orphan With Front Matter
tags: [Notes]
---
## Notes

Loose notes.
`

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func newTestLibrary(t *testing.T) (*Library, string) {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"catalog.yaml":   testCatalog,
		"first.md":       firstMD,
		"second-post.md": secondMD,
		"draft.md":       "## Draft\n\nNot yet.\n",
		"orphan.md":      orphanMD,
		"plain.md":       "## Plain\n\nNo front matter, not in catalog.\n",
	})
	lib := New(Options{Dir: dir, Concurrency: 2, WordsPerMinute: 200})
	require.NoError(t, lib.Load(context.Background()))
	return lib, dir
}

func slugs(as []*Article) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Slug
	}
	return out
}

func TestLoad_CatalogOrderAndPublished(t *testing.T) {
	lib, _ := newTestLibrary(t)

	assert.Equal(t, []string{"first-post", "second-post", "orphan"}, slugs(lib.All()))
}

func TestLoad_ArticleContent(t *testing.T) {
	lib, _ := newTestLibrary(t)

	a, err := lib.BySlug("first-post")
	require.NoError(t, err)
	assert.Equal(t, "First Post", a.Title)
	assert.Equal(t, "9 min read", a.ReadTime)
	assert.Equal(t, "markdown", a.Format)
	assert.Equal(t, []string{"overview", "setup", "usage"}, a.Outline.IDs())
	assert.Contains(t, a.HTML, `<h2 id="setup">Setup</h2>`)
	assert.Len(t, a.Revision, 64)
}

func TestLoad_FrontMatterOverlaysCatalog(t *testing.T) {
	lib, _ := newTestLibrary(t)

	a, err := lib.BySlug("second-post")
	require.NoError(t, err)
	assert.Equal(t, "Second Post (Revised)", a.Title)
	assert.Equal(t, "2025-12-01", a.UpdatedDate)
	assert.Equal(t, []string{"Cloud", "DevOps"}, a.Tags)
	assert.Equal(t, "1 min read", a.ReadTime)
	assert.NotContains(t, a.HTML, "updated_date")
}

func TestBySlug_NotFound(t *testing.T) {
	lib, _ := newTestLibrary(t)

	for _, slug := range []string{"draft-post", "missing-post", "plain", "nope"} {
		_, err := lib.BySlug(slug)
		assert.True(t, errors.Is(err, ErrNotFound), slug)
	}
}

func TestQueries(t *testing.T) {
	lib, _ := newTestLibrary(t)

	assert.Equal(t, []string{"first-post", "second-post"}, slugs(lib.ByTag("DevOps")))
	assert.Empty(t, lib.ByTag("devops"))
	assert.Equal(t, []string{"CI/CD", "Cloud", "DevOps", "Notes"}, lib.Tags())
	assert.Equal(t, []string{"first-post", "second-post"}, slugs(lib.Featured(2)))
	assert.Equal(t, []string{"second-post"}, slugs(lib.Related("first-post", 2)))
	assert.Equal(t, []string{"first-post", "second-post"}, slugs(lib.Related("orphan", 2)))
}

func TestLoad_MissingDir(t *testing.T) {
	lib := New(Options{Dir: filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, lib.Load(context.Background()))
}

func TestLoad_BadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"catalog.yaml": "posts: [ {title: no slug} ]"})
	lib := New(Options{Dir: dir})
	assert.Error(t, lib.Load(context.Background()))
}

func TestLoad_OnLoadHook(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"catalog.yaml": testCatalog, "first.md": firstMD})

	var formats []string
	lib := New(Options{Dir: dir, OnLoad: func(a *Article) { formats = append(formats, a.Format) }})
	require.NoError(t, lib.Load(context.Background()))
	assert.Equal(t, []string{"markdown"}, formats)
}

func TestReload_ReplacesAndNotifies(t *testing.T) {
	lib, dir := newTestLibrary(t)
	before, err := lib.BySlug("first-post")
	require.NoError(t, err)

	var got []*Article
	unsubscribe := lib.Subscribe(func(a *Article) { got = append(got, a) })

	path := filepath.Join(dir, "first.md")
	writeFiles(t, dir, map[string]string{"first.md": strings.Replace(firstMD, "## Usage", "## Advanced Usage", 1)})
	a, err := lib.Reload(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Same(t, a, got[0])
	assert.NotEqual(t, before.Revision, a.Revision)
	assert.Equal(t, []string{"overview", "setup", "advanced-usage"}, a.Outline.IDs())
	assert.Equal(t, "9 min read", a.ReadTime, "catalog metadata survives reload")

	current, err := lib.BySlug("first-post")
	require.NoError(t, err)
	assert.Same(t, a, current)
	assert.Equal(t, []string{"overview", "setup", "usage"}, before.Outline.IDs(), "old article untouched")

	unsubscribe()
	_, err = lib.Reload(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReload_CatalogNotifiesChangedArticles(t *testing.T) {
	lib, dir := newTestLibrary(t)
	before, err := lib.BySlug("first-post")
	require.NoError(t, err)

	var got []string
	lib.Subscribe(func(a *Article) { got = append(got, a.Slug) })

	writeFiles(t, dir, map[string]string{"first.md": firstMD + "\n## Extra\n\nMore.\n"})
	a, err := lib.Reload(context.Background(), filepath.Join(dir, "catalog.yaml"))
	require.NoError(t, err)
	assert.Nil(t, a)

	assert.Equal(t, []string{"first-post"}, got, "only articles with a new revision are announced")
	after, err := lib.BySlug("first-post")
	require.NoError(t, err)
	assert.NotEqual(t, before.Revision, after.Revision)

	got = nil
	_, err = lib.Reload(context.Background(), filepath.Join(dir, "catalog.yaml"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReload_NewFileWithFrontMatter(t *testing.T) {
	lib, dir := newTestLibrary(t)

	writeFiles(t, dir, map[string]string{"fresh.md": "---\nslug: fresh\n---\n## Hello\n"})
	a, err := lib.Reload(context.Background(), filepath.Join(dir, "fresh.md"))
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, []string{"first-post", "second-post", "fresh", "orphan"}, slugs(lib.All()))
}

func TestRemove(t *testing.T) {
	lib, dir := newTestLibrary(t)

	assert.True(t, lib.Remove(filepath.Join(dir, "orphan.md")))
	assert.False(t, lib.Remove(filepath.Join(dir, "orphan.md")))
	assert.Equal(t, []string{"first-post", "second-post"}, slugs(lib.All()))
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		ok    bool
		title string
		body  string
	}{
		{"none", "## Hi\n", false, "", "## Hi\n"},
		{"basic", "---\ntitle: T\n---\nbody\n", true, "T", "body\n"},
		{"crlf", "---\r\ntitle: T\r\n---\r\nbody", true, "T", "body"},
		{"unterminated", "---\ntitle: T\nbody\n", false, "", "---\ntitle: T\nbody\n"},
		{"rule not at start", "text\n---\n", false, "", "text\n---\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, ok, err := splitFrontMatter([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.title, fm.Title)
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestEstimateReadTime(t *testing.T) {
	tests := []struct {
		words, wpm int
		want       string
	}{
		{0, 200, "1 min read"},
		{1, 200, "1 min read"},
		{200, 200, "1 min read"},
		{201, 200, "2 min read"},
		{1800, 200, "9 min read"},
		{450, 0, "3 min read"},
	}
	for _, tt := range tests {
		if got := EstimateReadTime(tt.words, tt.wpm); got != tt.want {
			t.Errorf("EstimateReadTime(%d, %d) = %q, want %q", tt.words, tt.wpm, got, tt.want)
		}
	}
}

func TestContentHashHex(t *testing.T) {
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := ContentHashHex([]byte("hello world")); got != want {
		t.Errorf("expected hash %q, got %q", want, got)
	}
}
