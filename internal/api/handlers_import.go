package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/outline"
	"github.com/dgallion1/docreader/internal/parser"
)

type importPreview struct {
	Filename string          `json:"filename"`
	Slug     string          `json:"slug"`
	Title    string          `json:"title"`
	Format   string          `json:"format"`
	ReadTime string          `json:"read_time"`
	Words    int             `json:"words"`
	Revision string          `json:"revision"`
	Outline  outline.Outline `json:"outline"`
	HTML     string          `json:"html"`
}

// handleImport previews an uploaded article in any supported format. Nothing
// is written to the content directory.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	meta := library.Meta{
		Slug:      r.FormValue("slug"),
		Title:     r.FormValue("title"),
		Published: true,
	}
	a, err := library.Build(filename, data, meta, library.BuildOptions{
		WordsPerMinute: s.cfg.WordsPerMinute,
		Parser:         parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext},
	})
	if err != nil {
		s.log.Warn("import preview failed", "filename", filename, "error", err)
		jsonError(w, "could not read article: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if s.metrics != nil {
		s.metrics.ArticleLoaded(a)
	}

	s.log.Info("import previewed", "filename", filename, "format", a.Format, "sections", a.Outline.Len())
	writeJSON(w, http.StatusOK, importPreview{
		Filename: filename,
		Slug:     a.Slug,
		Title:    a.Title,
		Format:   a.Format,
		ReadTime: a.ReadTime,
		Words:    a.Words,
		Revision: a.Revision,
		Outline:  a.Outline,
		HTML:     a.HTML,
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
