// Package library loads the article catalog and its source files into
// outlined, rendered articles and answers the reader's queries over them.
package library

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docreader/internal/parser"
)

// ErrNotFound is returned when no published article has the requested slug.
var ErrNotFound = errors.New("article not found")

// DefaultCatalogFile is the catalog name inside the content directory.
const DefaultCatalogFile = "catalog.yaml"

// Options configures a Library.
type Options struct {
	Dir            string
	CatalogFile    string // defaults to Dir/catalog.yaml
	WordsPerMinute int
	Concurrency    int
	Parser         parser.Options
	Logger         *slog.Logger

	// OnLoad is called for every article built by Load or Reload.
	OnLoad func(*Article)
}

// Library holds the loaded articles in catalog order.
type Library struct {
	opts Options
	log  *slog.Logger

	mu        sync.RWMutex
	catalog   []entry
	articles  []*Article
	listeners map[int]func(*Article)
	nextID    int
}

// New creates an empty library. Call Load to read the content directory.
func New(opts Options) *Library {
	if opts.CatalogFile == "" {
		opts.CatalogFile = filepath.Join(opts.Dir, DefaultCatalogFile)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Library{
		opts:      opts,
		log:       opts.Logger,
		listeners: make(map[int]func(*Article)),
	}
}

// Dir returns the content directory.
func (l *Library) Dir() string { return l.opts.Dir }

// CatalogFile returns the catalog path.
func (l *Library) CatalogFile() string { return l.opts.CatalogFile }

type source struct {
	path string
	meta Meta
	rank int
}

// Load reads the catalog and every article it names, plus any source file that
// carries its own front matter. Articles that fail to load are logged and
// skipped. The loaded set replaces the previous one wholesale.
func (l *Library) Load(ctx context.Context) error {
	catalog, err := readCatalog(l.opts.CatalogFile)
	if err != nil {
		return err
	}
	files, err := l.sourceFiles()
	if err != nil {
		return err
	}

	sources := make([]source, 0, len(catalog)+len(files))
	claimed := make(map[string]bool)
	for i, e := range catalog {
		path := l.resolve(e, files)
		if path == "" {
			l.log.Warn("catalog entry has no source file", "slug", e.Slug)
			continue
		}
		claimed[path] = true
		sources = append(sources, source{path: path, meta: e.meta(), rank: i})
	}
	for _, path := range files {
		if !claimed[path] {
			sources = append(sources, source{path: path, meta: Meta{Published: true}, rank: math.MaxInt})
		}
	}

	results := make([]*Article, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := l.build(src)
			if err != nil {
				l.log.Warn("article load failed", "path", src.path, "error", err)
				return nil
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load articles: %w", err)
	}

	articles := make([]*Article, 0, len(results))
	for _, a := range results {
		if a != nil {
			articles = append(articles, a)
		}
	}
	sortArticles(articles)

	l.mu.Lock()
	l.catalog = catalog
	l.articles = articles
	l.mu.Unlock()

	l.log.Info("library loaded", "articles", len(articles), "catalog_entries", len(catalog))
	return nil
}

// build reads and builds one source. Files outside the catalog are only
// articles when they carry front matter.
func (l *Library) build(src source) (*Article, error) {
	data, err := os.ReadFile(src.path)
	if err != nil {
		return nil, err
	}
	if src.rank == math.MaxInt && !hasFrontMatter(src.path) {
		return nil, nil
	}
	if src.rank == math.MaxInt {
		if _, _, ok, err := splitFrontMatter(data); err != nil || !ok {
			return nil, err
		}
	}
	a, err := Build(src.path, data, src.meta, BuildOptions{
		WordsPerMinute: l.opts.WordsPerMinute,
		Parser:         l.opts.Parser,
	})
	if err != nil {
		return nil, err
	}
	a.Path = src.path
	a.rank = src.rank
	if l.opts.OnLoad != nil {
		l.opts.OnLoad(a)
	}
	return a, nil
}

// sourceFiles lists supported files directly inside the content directory.
func (l *Library) sourceFiles() ([]string, error) {
	dirEntries, err := os.ReadDir(l.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}
	catalog := filepath.Clean(l.opts.CatalogFile)
	var files []string
	for _, de := range dirEntries {
		if de.IsDir() || !parser.IsSupportedExtension(de.Name()) {
			continue
		}
		path := filepath.Join(l.opts.Dir, de.Name())
		if path == catalog {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// resolve finds the source file of a catalog entry: its file field, or the
// first supported file named after the slug.
func (l *Library) resolve(e entry, files []string) string {
	if e.File != "" {
		return filepath.Join(l.opts.Dir, e.File)
	}
	for _, f := range files {
		if SlugFromFilename(f) == e.Slug {
			return f
		}
	}
	return ""
}

func sortArticles(as []*Article) {
	slices.SortStableFunc(as, func(a, b *Article) int {
		if c := cmp.Compare(a.rank, b.rank); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
}

// Reload rebuilds the article stored at path and replaces the previous version
// wholesale. Subscribers receive the new article. A change to the catalog file
// reloads everything and notifies subscribers of every article whose revision
// changed.
func (l *Library) Reload(ctx context.Context, path string) (*Article, error) {
	path = filepath.Clean(path)
	if path == filepath.Clean(l.opts.CatalogFile) {
		return nil, l.reloadCatalog(ctx)
	}

	src := l.sourceFor(path)
	a, err := l.build(src)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w", path, err)
	}
	if a == nil {
		// The file lost its front matter; it is no longer an article.
		l.Remove(path)
		return nil, nil
	}

	l.mu.Lock()
	replaced := false
	for i, old := range l.articles {
		if old.Path == path {
			l.articles[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		l.articles = append(l.articles, a)
		sortArticles(l.articles)
	}
	listeners := l.listenersLocked()
	l.mu.Unlock()

	l.log.Info("article reloaded", "slug", a.Slug, "revision", a.Revision, "sections", a.Outline.Len())
	for _, fn := range listeners {
		fn(a)
	}
	return a, nil
}

func (l *Library) reloadCatalog(ctx context.Context) error {
	l.mu.RLock()
	before := make(map[string]string, len(l.articles))
	for _, a := range l.articles {
		before[a.Slug] = a.Revision
	}
	l.mu.RUnlock()

	if err := l.Load(ctx); err != nil {
		return err
	}

	l.mu.RLock()
	var changed []*Article
	for _, a := range l.articles {
		if rev, ok := before[a.Slug]; !ok || rev != a.Revision {
			changed = append(changed, a)
		}
	}
	listeners := l.listenersLocked()
	l.mu.RUnlock()

	for _, a := range changed {
		l.log.Info("article reloaded", "slug", a.Slug, "revision", a.Revision, "sections", a.Outline.Len())
		for _, fn := range listeners {
			fn(a)
		}
	}
	return nil
}

// listenersLocked copies the subscriber set. Callers hold l.mu.
func (l *Library) listenersLocked() []func(*Article) {
	listeners := make([]func(*Article), 0, len(l.listeners))
	for _, fn := range l.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

// sourceFor rebuilds the catalog view of path from the last loaded catalog.
func (l *Library) sourceFor(path string) source {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i, e := range l.catalog {
		if l.resolve(e, []string{path}) == path {
			return source{path: path, meta: e.meta(), rank: i}
		}
	}
	return source{path: path, meta: Meta{Published: true}, rank: math.MaxInt}
}

// Remove drops the article stored at path. It reports whether one was removed.
func (l *Library) Remove(path string) bool {
	path = filepath.Clean(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, a := range l.articles {
		if a.Path == path {
			l.articles = slices.Delete(l.articles, i, i+1)
			l.log.Info("article removed", "slug", a.Slug)
			return true
		}
	}
	return false
}

// Subscribe registers fn to receive every reloaded article. The returned func
// unregisters it.
func (l *Library) Subscribe(fn func(*Article)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

// All returns the published articles in catalog order.
func (l *Library) All() []*Article {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Article, 0, len(l.articles))
	for _, a := range l.articles {
		if a.Published {
			out = append(out, a)
		}
	}
	return out
}

// BySlug returns the published article with slug.
func (l *Library) BySlug(slug string) (*Article, error) {
	for _, a := range l.All() {
		if a.Slug == slug {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
}

// ByTag returns the published articles carrying tag.
func (l *Library) ByTag(tag string) []*Article {
	out := []*Article{}
	for _, a := range l.All() {
		if slices.Contains(a.Tags, tag) {
			out = append(out, a)
		}
	}
	return out
}

// Tags returns every tag of the published articles, sorted and unique.
func (l *Library) Tags() []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, a := range l.All() {
		for _, t := range a.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// Featured returns the first limit published articles.
func (l *Library) Featured(limit int) []*Article {
	all := l.All()
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

// Related returns the featured articles other than slug.
func (l *Library) Related(slug string, limit int) []*Article {
	out := []*Article{}
	for _, a := range l.Featured(limit) {
		if a.Slug != slug {
			out = append(out, a)
		}
	}
	return out
}
