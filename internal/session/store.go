package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docreader/internal/library"
	"github.com/dgallion1/docreader/internal/outline"
	"github.com/dgallion1/docreader/internal/tracker"
	"github.com/dgallion1/docreader/internal/viewport"
)

var (
	// ErrNotFound is returned for unknown or expired session ids.
	ErrNotFound = errors.New("session not found")
	// ErrLimit is returned when the store is full.
	ErrLimit = errors.New("session limit reached")
	// ErrInvalidLayout is returned when a client layout leaves no room for
	// the trigger zone.
	ErrInvalidLayout = errors.New("invalid layout")
)

// Recorder receives session events for metrics. All methods must be safe
// for concurrent use.
type Recorder interface {
	Navigation(result string)
	ActiveSectionChanged()
	SessionsActive(n int)
}

type nopRecorder struct{}

func (nopRecorder) Navigation(string)     {}
func (nopRecorder) ActiveSectionChanged() {}
func (nopRecorder) SessionsActive(int)    {}

// Options configure a Store.
type Options struct {
	TTL             time.Duration
	MaxSessions     int
	CleanupInterval time.Duration
	Zone            tracker.TriggerZone
	HeaderOffset    float64
	ViewportHeight  float64
	Logger          *slog.Logger
	Recorder        Recorder
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	opts Options
	log  *slog.Logger
	rec  Recorder

	mu       sync.Mutex
	sessions map[string]*Session

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = viewport.DefaultViewportHeight
	}
	if opts.Zone == (tracker.TriggerZone{}) {
		opts.Zone = tracker.DefaultTriggerZone()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Store{
		opts:     opts,
		log:      opts.Logger,
		rec:      opts.Recorder,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session on article a. fragment is the URL fragment the
// reader arrived with. When layout has no headings, the layout is estimated
// from the article.
func (s *Store) Create(a *library.Article, fragment string, layout viewport.Layout) (Snapshot, error) {
	if h := firstPositive(layout.ViewportHeight, s.opts.ViewportHeight); s.opts.Zone.Empty(h) {
		return Snapshot{}, fmt.Errorf("%w: viewport height %v leaves an empty trigger zone (top offset %v)",
			ErrInvalidLayout, h, s.opts.Zone.TopOffset)
	}
	if s.opts.MaxSessions > 0 && s.Len() >= s.opts.MaxSessions {
		s.Cleanup()
		if s.Len() >= s.opts.MaxSessions {
			return Snapshot{}, fmt.Errorf("create session: %w (%d)", ErrLimit, s.opts.MaxSessions)
		}
	}

	estimated := len(layout.Headings) == 0
	if estimated {
		layout = viewport.Estimate(a.Tree, firstPositive(layout.ViewportHeight, s.opts.ViewportHeight))
	} else if layout.ViewportHeight <= 0 {
		layout.ViewportHeight = s.opts.ViewportHeight
	}

	id := uuid.NewString()
	page := viewport.New(layout)
	loc := tracker.NewMemoryLocation(fragment)
	now := time.Now()
	sess := &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		article:   a,
		estimated: estimated,
		height:    layout.ViewportHeight,
		page:      page,
		location:  loc,
	}
	sess.tracker = tracker.New(page, page, loc, tracker.Options{
		Zone:         s.opts.Zone,
		HeaderOffset: s.opts.HeaderOffset,
		Logger:       s.log.With("session_id", id, "slug", a.Slug),
		OnChange: func(outline.Outline, tracker.ReadingState) {
			s.rec.ActiveSectionChanged()
		},
	})

	sess.mu.Lock()
	sess.render()
	snap := sess.snapshotLocked()
	sess.mu.Unlock()

	s.mu.Lock()
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.rec.SessionsActive(n)

	s.log.Info("session created", "session_id", id, "slug", a.Slug, "sections", a.Outline.Len(), "active", snap.ActiveID)
	return snap, nil
}

func firstPositive(vs ...float64) float64 {
	for _, v := range vs {
		if v > 0 {
			return v
		}
	}
	return 0
}

func (s *Store) get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// Get returns the current state of a session.
func (s *Store) Get(id string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Scroll moves the session's viewport to offset.
func (s *Store) Scroll(id string, offset float64) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.page.Scroll(offset)
	sess.touch()
	return sess.snapshotLocked(), nil
}

// Navigate scrolls the session to a section. A missing target returns an
// error wrapping tracker.ErrSectionNotFound and leaves the state unchanged.
func (s *Store) Navigate(id, sectionID string) (Snapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()
	if err := sess.tracker.Navigate(sectionID); err != nil {
		s.rec.Navigation("not_found")
		return sess.snapshotLocked(), err
	}
	s.rec.Navigation("ok")
	return sess.snapshotLocked(), nil
}

// Delete ends a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return false
	}
	sess.mu.Lock()
	sess.tracker.Close()
	sess.mu.Unlock()
	s.rec.SessionsActive(n)
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions.
func (s *Store) Cleanup() {
	now := time.Now()
	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed()) > s.opts.TTL {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.mu.Lock()
		sess.tracker.Close()
		sess.mu.Unlock()
	}
	if len(expired) > 0 {
		s.log.Info("sessions expired", "count", len(expired), "remaining", n)
		s.rec.SessionsActive(n)
	}
}

// ArticleReloaded moves every session reading a's slug onto the new
// revision. Sessions already on that revision are left alone.
func (s *Store) ArticleReloaded(a *library.Article) {
	s.mu.Lock()
	var affected []*Session
	for _, sess := range s.sessions {
		sess.mu.Lock()
		if sess.article.Slug == a.Slug && sess.article.Revision != a.Revision {
			affected = append(affected, sess)
		}
		sess.mu.Unlock()
	}
	s.mu.Unlock()

	for _, sess := range affected {
		sess.replace(a)
	}
	if len(affected) > 0 {
		s.log.Info("sessions moved to new revision", "slug", a.Slug, "revision", a.Revision, "sessions", len(affected))
	}
}

// Start launches the expiry janitor.
func (s *Store) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop shuts down the janitor.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
