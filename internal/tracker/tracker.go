// Package tracker follows which section of an article is being read. It
// observes section headings as they cross the trigger line, navigates to
// sections on request and keeps the URL fragment in sync with the active
// section.
package tracker

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/dgallion1/docreader/internal/outline"
)

// DefaultHeaderOffset is the height of the fixed overlay header in pixels.
const DefaultHeaderOffset = 100

// Options configure a Tracker.
type Options struct {
	Zone         TriggerZone
	HeaderOffset float64
	Logger       *slog.Logger

	// OnChange is called after every change of the active section.
	OnChange func(outline.Outline, ReadingState)
}

// Tracker owns the outline and reading state of one rendered article.
type Tracker struct {
	observer Observer
	doc      Document
	location LocationSync
	zone     TriggerZone
	offset   float64
	log      *slog.Logger
	onChange func(outline.Outline, ReadingState)

	mu       sync.Mutex
	outline  outline.Outline
	state    ReadingState
	sub      Subscription
	gen      uint64
	tracking bool
}

// New creates a tracker. observer may be nil when the runtime has no
// visibility observation; navigation still works.
func New(observer Observer, doc Document, location LocationSync, opts Options) *Tracker {
	if opts.Zone == (TriggerZone{}) {
		opts.Zone = DefaultTriggerZone()
	}
	if opts.HeaderOffset <= 0 {
		opts.HeaderOffset = DefaultHeaderOffset
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Tracker{
		observer: observer,
		doc:      doc,
		location: location,
		zone:     opts.Zone,
		offset:   opts.HeaderOffset,
		log:      opts.Logger,
		onChange: opts.OnChange,
	}
}

// Attach replaces the outline, resets the reading state and subscribes one
// observation per section heading. The previous subscription is released
// first. An empty outline creates no subscription.
func (t *Tracker) Attach(o outline.Outline) {
	t.mu.Lock()
	t.releaseLocked()
	t.outline = o
	t.state = ReadingState{}
	gen := t.gen
	t.mu.Unlock()

	if o.Empty() || t.observer == nil {
		return
	}

	sub, err := t.observer.Observe(t.zone, func(batch []Intersection) {
		t.handle(gen, batch)
	})
	if err != nil {
		t.log.Warn("section tracking disabled", "error", err)
		return
	}

	watched := 0
	for _, s := range o.Sections {
		if sub.Watch(s.ID) {
			watched++
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		// Attached again or closed while subscribing.
		sub.Release()
		return
	}
	t.sub = sub
	t.tracking = true
	t.log.Debug("tracking sections", "sections", o.Len(), "watched", watched)
}

// ContentRendered is the signal that a new article body is in place. It
// attaches the outline and restores the section named by the URL fragment.
func (t *Tracker) ContentRendered(o outline.Outline) bool {
	t.Attach(o)
	return t.Restore()
}

// Restore navigates once to the section named by the current fragment, if
// the fragment matches a section of the outline.
func (t *Tracker) Restore() bool {
	if t.location == nil {
		return false
	}
	frag := t.location.ReadFragment()
	if i := strings.LastIndex(frag, "#"); i >= 0 {
		frag = frag[i+1:]
	}
	if frag == "" || strings.HasPrefix(frag, "/") {
		return false
	}

	t.mu.Lock()
	known := t.outline.Has(frag)
	t.mu.Unlock()
	if !known {
		return false
	}
	return t.Navigate(frag) == nil
}

// Navigate scrolls the heading with id just below the fixed header and marks
// it active immediately, ahead of any observation callback. A missing
// heading is logged and leaves the reading state untouched.
func (t *Tracker) Navigate(id string) error {
	top, ok := t.doc.HeadingOffset(id)
	if !ok {
		t.mu.Lock()
		available := t.outline.IDs()
		t.mu.Unlock()
		t.log.Warn("navigation target not found", "section_id", id, "available", available)
		return fmt.Errorf("navigate to %q: %w", id, ErrSectionNotFound)
	}

	scroller := t.doc.ScrollContainer()
	if scroller == nil {
		scroller = t.doc.Window()
	}
	scroller.ScrollTo(math.Max(0, top-t.offset), true)

	t.setActive(id)
	return nil
}

// handle applies one batch of intersections. When several headings
// intersect in the same batch, the one furthest down the outline wins.
func (t *Tracker) handle(gen uint64, batch []Intersection) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	best := -1
	for _, in := range batch {
		if !in.Intersecting {
			continue
		}
		if idx := t.outline.Index(in.ID); idx > best {
			best = idx
		}
	}
	var id string
	if best >= 0 {
		id = t.outline.Sections[best].ID
	}
	t.mu.Unlock()

	if id != "" {
		t.setActive(id)
	}
}

func (t *Tracker) setActive(id string) {
	t.mu.Lock()
	if t.state.ActiveID == id {
		t.mu.Unlock()
		return
	}
	t.state.ActiveID = id
	o, st := t.outline, t.state
	t.mu.Unlock()

	if t.location != nil {
		t.location.WriteFragment(id)
	}
	if t.onChange != nil {
		t.onChange(o, st)
	}
}

// State returns the current reading state.
func (t *Tracker) State() ReadingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Outline returns the attached outline.
func (t *Tracker) Outline() outline.Outline {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outline
}

// Tracking reports whether a live observation is attached.
func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// Close releases the observation. The tracker can be attached again.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releaseLocked()
}

func (t *Tracker) releaseLocked() {
	t.gen++
	if t.sub != nil {
		t.sub.Release()
		t.sub = nil
	}
	t.tracking = false
}
