// Package session keeps server-side reading sessions: one article, its
// viewport and a section tracker per reader, driven by scroll and navigation
// requests.
package session

import (
	"sync"
	"time"

	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/panel"
	"github.com/dgallion1/docreader/internal/tracker"
	"github.com/dgallion1/docreader/internal/viewport"
)

// Session tracks one reader of one article.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	article   *library.Article
	estimated bool
	height    float64
	page      *viewport.Page
	location  *tracker.MemoryLocation
	tracker   *tracker.Tracker
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID        string     `json:"session_id"`
	Slug      string     `json:"slug"`
	Revision  string     `json:"revision"`
	ActiveID  string     `json:"active_section_id"`
	Fragment  string     `json:"fragment"`
	Offset    float64    `json:"offset"`
	Tracking  bool       `json:"tracking"`
	Panel     panel.View `json:"panel"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	st := s.tracker.State()
	return Snapshot{
		ID:        s.ID,
		Slug:      s.article.Slug,
		Revision:  s.article.Revision,
		ActiveID:  st.ActiveID,
		Fragment:  s.location.ReadFragment(),
		Offset:    s.page.Offset(),
		Tracking:  s.tracker.Tracking(),
		Panel:     panel.Build(s.tracker.Outline(), st),
		UpdatedAt: s.UpdatedAt,
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// render signals that the session's article content is in place: the
// tracker attaches the outline, restores the fragment and the page reports
// the initial visibility of every heading.
func (s *Session) render() {
	s.tracker.ContentRendered(s.article.Outline)
	s.page.Scroll(s.page.Offset())
}

// replace swaps in a reloaded article. The fragment still names the section
// being read, so the reader stays in place when that section survives.
func (s *Session) replace(a *library.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Close()
	s.article = a
	if s.estimated {
		s.page.Relayout(viewport.Estimate(a.Tree, s.height))
	}
	s.render()
	s.touch()
}
