package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docreader/internal/config"
	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/metrics"
	"github.com/dgallion1/docreader/internal/session"
)

const testCatalog = `posts:
  - slug: guide
    title: The Guide
    author: Team
    tags: [DevOps, Pipelines]
    file: guide.md
  - slug: notes
    title: Notes
    tags: [DevOps]
    file: notes.md
`

const guideMD = `## Overview

Overview text.

## Setup

Setup text.

## Usage

Usage text.
`

func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"catalog.yaml": testCatalog,
		"guide.md":     guideMD,
		"notes.md":     "Just a note without sections.\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	lib := library.New(library.Options{Dir: dir, Logger: log, OnLoad: m.ArticleLoaded})
	require.NoError(t, lib.Load(context.Background()))
	store := session.NewStore(session.Options{Logger: log, Recorder: m})

	cfg := config.Config{
		ContentDir:     dir,
		APIKey:         apiKey,
		MaxUploadBytes: 1 << 20,
		HeaderOffset:   100,
		FeaturedLimit:  3,
		WordsPerMinute: 200,
		MetricsEnabled: true,
	}
	return NewServer(lib, store, m, log, cfg)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	rec := do(t, s, "GET", "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 2.0, body["articles"])
}

func TestListArticles(t *testing.T) {
	s := newTestServer(t, "")

	body := decode(t, do(t, s, "GET", "/api/articles", nil))
	articles := body["articles"].([]any)
	require.Len(t, articles, 2)
	first := articles[0].(map[string]any)
	assert.Equal(t, "guide", first["slug"])
	assert.Equal(t, "1 min read", first["read_time"])
	assert.NotContains(t, first, "html")

	body = decode(t, do(t, s, "GET", "/api/articles?tag=Pipelines", nil))
	assert.Len(t, body["articles"].([]any), 1)

	body = decode(t, do(t, s, "GET", "/api/articles?tag=Nothing", nil))
	assert.Empty(t, body["articles"].([]any))
}

func TestListTags(t *testing.T) {
	s := newTestServer(t, "")
	body := decode(t, do(t, s, "GET", "/api/articles/tags", nil))
	assert.Equal(t, []any{"DevOps", "Pipelines"}, body["tags"])
}

func TestGetArticle(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(t, s, "GET", "/api/articles/guide", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body["html"], `<h2 id="setup">Setup</h2>`)
	sections := body["outline"].(map[string]any)["sections"].([]any)
	assert.Len(t, sections, 3)
	related := body["related"].([]any)
	require.Len(t, related, 1)
	assert.Equal(t, "notes", related[0].(map[string]any)["slug"])

	rec = do(t, s, "GET", "/api/articles/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArticlePage(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(t, s, "GET", "/articles/guide", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "<title>The Guide</title>")
	assert.Contains(t, page, `<h2 id="usage">Usage</h2>`)
	assert.Contains(t, page, `data-section="usage"`)
	assert.Contains(t, page, "0 of 3 sections")
	assert.Contains(t, page, "Related Articles")

	rec = do(t, s, "GET", "/articles/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `class="toc"`, "no sections, no panel")
	assert.Contains(t, rec.Body.String(), "Just a note")

	assert.Equal(t, http.StatusNotFound, do(t, s, "GET", "/articles/missing", nil).Code)
}

func TestOutlineEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	rec := do(t, s, "POST", "/api/outline",
		`<html><body><h1>Title</h1><h2>Getting Started</h2><p>x</p><h3>Install It</h3><h2>!!!</h2><h2>FAQ</h2><script>x()</script></body></html>`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	sections := body["outline"].(map[string]any)["sections"].([]any)
	require.Len(t, sections, 2)
	assert.Equal(t, "getting-started", sections[0].(map[string]any)["id"])
	assert.Equal(t, "faq", sections[1].(map[string]any)["id"])
	html := body["html"].(string)
	assert.Contains(t, html, `<h3 id="install-it">`)
	assert.NotContains(t, html, "<script")
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t, "")

	layout := map[string]any{
		"viewport_height":  900,
		"scroll_container": true,
		"headings": []map[string]any{
			{"id": "overview", "top": 400},
			{"id": "setup", "top": 1400},
			{"id": "usage", "top": 2600},
		},
	}
	rec := do(t, s, "POST", "/api/sessions", map[string]any{"slug": "guide", "fragment": "#setup", "layout": layout})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	id := created["session_id"].(string)
	assert.Equal(t, "setup", created["active_section_id"])

	rec = do(t, s, "POST", "/api/sessions/"+id+"/scroll", map[string]any{"offset": 300})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "overview", decode(t, rec)["active_section_id"])

	rec = do(t, s, "POST", "/api/sessions/"+id+"/navigate", map[string]any{"section_id": "usage"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode(t, rec)
	assert.Equal(t, "usage", snap["active_section_id"])
	assert.Equal(t, "usage", snap["fragment"])
	progress := snap["panel"].(map[string]any)["progress"].(map[string]any)
	assert.Equal(t, 100.0, progress["percent"])

	rec = do(t, s, "POST", "/api/sessions/"+id+"/navigate", map[string]any{"section_id": "nope"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "usage", decode(t, rec)["session"].(map[string]any)["active_section_id"])

	rec = do(t, s, "GET", "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNoContent, do(t, s, "DELETE", "/api/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, "GET", "/api/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, "DELETE", "/api/sessions/"+id, nil).Code)

	metricsOut := do(t, s, "GET", "/metrics", nil).Body.String()
	assert.Contains(t, metricsOut, `docreader_navigations_total{result="ok"} 1`)
	assert.Contains(t, metricsOut, `docreader_navigations_total{result="not_found"} 1`)
	assert.Contains(t, metricsOut, `docreader_articles_loaded_total{format="markdown"} 2`)
}

func TestCreateSession_Errors(t *testing.T) {
	s := newTestServer(t, "")

	assert.Equal(t, http.StatusBadRequest, do(t, s, "POST", "/api/sessions", "{not json").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, "POST", "/api/sessions", map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, "POST", "/api/sessions", map[string]any{"slug": "missing"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, "POST", "/api/sessions/nope/scroll", map[string]any{"offset": 1}).Code)

	short := map[string]any{
		"viewport_height": 300,
		"headings":        []map[string]any{{"id": "overview", "top": 400}},
	}
	rec := do(t, s, "POST", "/api/sessions", map[string]any{"slug": "guide", "layout": short})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "trigger zone")
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("title", "Uploaded"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func importRequest(t *testing.T, s *Server, key, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, filename, content)
	req := httptest.NewRequest("POST", "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestImport(t *testing.T) {
	s := newTestServer(t, "secret")

	assert.Equal(t, http.StatusUnauthorized, importRequest(t, s, "", "a.md", guideMD).Code)
	assert.Equal(t, http.StatusUnauthorized, importRequest(t, s, "wrong", "a.md", guideMD).Code)
	assert.Equal(t, http.StatusBadRequest, importRequest(t, s, "secret", "a.exe", "x").Code)

	rec := importRequest(t, s, "secret", "../../my-upload.md", guideMD)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "my-upload.md", body["filename"])
	assert.Equal(t, "my-upload", body["slug"])
	assert.Equal(t, "Uploaded", body["title"])
	assert.Equal(t, "markdown", body["format"])
	assert.Contains(t, body["html"], `<h2 id="overview">`)

	// Previews are not added to the library.
	assert.Equal(t, http.StatusNotFound, do(t, s, "GET", "/api/articles/my-upload", nil).Code)
}

func TestImport_DisabledWithoutKey(t *testing.T) {
	s := newTestServer(t, "")
	assert.Equal(t, http.StatusNotFound, importRequest(t, s, "", "a.md", guideMD).Code)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"guide.md", "guide.md"},
		{"../../etc/passwd", "passwd"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
