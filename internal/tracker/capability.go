package tracker

import (
	"errors"
	"strings"
	"sync"
)

// ErrUnsupported is returned by an Observer that cannot observe visibility
// in the current runtime. The tracker degrades to no tracking.
var ErrUnsupported = errors.New("visibility observation unsupported")

// ErrSectionNotFound is returned when a navigation target is not in the document.
var ErrSectionNotFound = errors.New("section not found")

// TriggerZone is the band of the viewport in which a heading counts as
// reached: from TopOffset below the top edge (the sticky header) down to the
// point where the lower BottomFraction of the viewport begins.
type TriggerZone struct {
	TopOffset      float64
	BottomFraction float64
}

// DefaultTriggerZone matches an 80px sticky header and ignores the lower 80%.
func DefaultTriggerZone() TriggerZone {
	return TriggerZone{TopOffset: 80, BottomFraction: 0.8}
}

// Contains reports whether a heading whose top edge sits at top (relative to
// the viewport) lies inside the zone of a viewport of the given height.
func (z TriggerZone) Contains(top, viewportHeight float64) bool {
	bottom := viewportHeight - viewportHeight*z.BottomFraction
	return top >= z.TopOffset && top <= bottom
}

// Empty reports whether no heading position can fall inside the zone of a
// viewport of the given height.
func (z TriggerZone) Empty(viewportHeight float64) bool {
	return z.TopOffset >= viewportHeight-viewportHeight*z.BottomFraction
}

// Intersection reports a heading entering or leaving the trigger zone.
type Intersection struct {
	ID           string
	Intersecting bool
}

// Observer is the visibility-observation capability of the runtime.
// Callbacks may arrive in batches; several headings can cross in one batch.
type Observer interface {
	Observe(zone TriggerZone, fn func([]Intersection)) (Subscription, error)
}

// Subscription is a live observation. Watch adds a heading and reports
// whether it exists; Release stops all callbacks.
type Subscription interface {
	Watch(id string) bool
	Release()
}

// Scroller scrolls a container to an absolute offset.
type Scroller interface {
	ScrollTo(top float64, smooth bool)
}

// Document resolves headings of the rendered article and the scroller that
// owns its scrolling.
type Document interface {
	// HeadingOffset returns the heading's offset within the scroll container.
	HeadingOffset(id string) (float64, bool)
	// ScrollContainer returns the dedicated scroll container, or nil.
	ScrollContainer() Scroller
	// Window returns the whole-window scroller.
	Window() Scroller
}

// LocationSync reads and replaces the URL fragment. WriteFragment must
// replace the current history entry, never push a new one.
type LocationSync interface {
	ReadFragment() string
	WriteFragment(id string)
}

// MemoryLocation is an in-process LocationSync.
type MemoryLocation struct {
	mu       sync.Mutex
	fragment string
	writes   int
}

// NewMemoryLocation starts with the given fragment ("#setup" or "setup").
func NewMemoryLocation(fragment string) *MemoryLocation {
	return &MemoryLocation{fragment: strings.TrimPrefix(fragment, "#")}
}

func (l *MemoryLocation) ReadFragment() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fragment
}

func (l *MemoryLocation) WriteFragment(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fragment = id
	l.writes++
}

// Writes returns how many times the fragment was replaced.
func (l *MemoryLocation) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}
