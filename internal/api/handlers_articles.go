package api

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/panel"
	"github.com/dgallion1/docreader/internal/tracker"
)

// handleListArticles lists published articles, optionally filtered by tag.
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	var articles []*library.Article
	if tag := r.URL.Query().Get("tag"); tag != "" {
		articles = s.library.ByTag(tag)
	} else {
		articles = s.library.All()
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": s.library.Tags()})
}

// handleGetArticle returns one article with its body, outline and related
// articles.
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, ok := s.article(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"article": a,
		"html":    a.HTML,
		"outline": a.Outline,
		"related": s.library.Related(a.Slug, s.cfg.FeaturedLimit),
	})
}

func (s *Server) article(w http.ResponseWriter, r *http.Request) (*library.Article, bool) {
	a, err := s.library.BySlug(chi.URLParam(r, "slug"))
	if errors.Is(err, library.ErrNotFound) {
		jsonError(w, "article not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return a, true
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Article.Title}}</title>
<style>
:root { --header-offset: {{.HeaderOffset}}px; }
h2[id], h3[id] { scroll-margin-top: var(--header-offset); }
.reader { display: grid; grid-template-columns: minmax(0, 1fr) 18rem; gap: 3rem; }
.toc { position: sticky; top: var(--header-offset); align-self: start; }
.toc-entry { display: block; }
.toc-active { font-weight: 600; }
.toc-passed { opacity: 0.6; }
.toc-bar { height: 4px; background: #e5e7eb; }
.toc-bar-fill { height: 100%; background: #06b6d4; }
</style>
</head>
<body>
<header class="site-header"><a href="/">Articles</a></header>
<main class="reader" data-revision="{{.Article.Revision}}">
<article>
<h1>{{.Article.Title}}</h1>
<p class="byline">{{with .Article.Author}}{{.}} · {{end}}{{with .Article.Date}}{{.}} · {{end}}{{.Article.ReadTime}}</p>
{{if .Article.Tags}}<ul class="tags">{{range .Article.Tags}}<li><a href="/api/articles?tag={{.}}">{{.}}</a></li>{{end}}</ul>{{end}}
<div class="article-body">
{{.Body}}
</div>
</article>
{{.Panel}}
</main>
{{if .Related}}
<section class="related">
<h2>Related Articles</h2>
<ul>
{{- range .Related}}
<li><a href="/articles/{{.Slug}}">{{.Title}}</a>{{with .Excerpt}}<p>{{.}}</p>{{end}}</li>
{{- end}}
</ul>
</section>
{{end}}
</body>
</html>
`))

type pageData struct {
	Article      *library.Article
	Body         template.HTML
	Panel        template.HTML
	Related      []*library.Article
	HeaderOffset float64
}

// handleArticlePage serves the reader page: the article body next to its
// outline panel. A page without sections renders without the panel.
func (s *Server) handleArticlePage(w http.ResponseWriter, r *http.Request) {
	a, err := s.library.BySlug(chi.URLParam(r, "slug"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var toc bytes.Buffer
	if err := panel.RenderHTML(&toc, panel.Build(a.Outline, tracker.ReadingState{})); err != nil {
		// The article is still worth showing without its panel.
		s.log.Warn("outline panel render failed", "slug", a.Slug, "error", err)
		toc.Reset()
	}

	var buf bytes.Buffer
	err = pageTmpl.Execute(&buf, pageData{
		Article: a,
		// Article HTML is sanitized when the article is built.
		Body:         template.HTML(a.HTML),
		Panel:        template.HTML(toc.String()),
		Related:      s.library.Related(a.Slug, s.cfg.FeaturedLimit),
		HeaderOffset: s.cfg.HeaderOffset,
	})
	if err != nil {
		s.log.Error("page render failed", "slug", a.Slug, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
