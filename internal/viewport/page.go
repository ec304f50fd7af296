// Package viewport models a scrolled article page: heading positions, a
// viewport of fixed height and an optional dedicated scroll container. It
// provides the visibility observation and document lookups the tracker
// needs, driven by explicit scroll offsets instead of a browser.
package viewport

import (
	"sort"
	"sync"

	"github.com/dgallion1/docreader/internal/tracker"
)

// Heading is a heading's offset from the top of the scrolled content.
type Heading struct {
	ID  string  `json:"id"`
	Top float64 `json:"top"`
}

// Layout describes the rendered page.
type Layout struct {
	ViewportHeight  float64   `json:"viewport_height"`
	Headings        []Heading `json:"headings"`
	ScrollContainer bool      `json:"scroll_container"`
}

// ScrollRecord is one programmatic scroll.
type ScrollRecord struct {
	Target string  `json:"target"` // "container" or "window"
	Top    float64 `json:"top"`
	Smooth bool    `json:"smooth"`
}

// Page implements tracker.Observer and tracker.Document.
type Page struct {
	mu        sync.Mutex
	layout    Layout
	tops      map[string]float64
	offset    float64
	subs      map[uint64]*subscription
	nextSub   uint64
	scrolls   []ScrollRecord
	unsupport bool
}

var (
	_ tracker.Observer = (*Page)(nil)
	_ tracker.Document = (*Page)(nil)
)

// New creates a page scrolled to the top.
func New(layout Layout) *Page {
	p := &Page{subs: make(map[uint64]*subscription)}
	p.setLayout(layout)
	return p
}

// WithoutObservation makes Observe fail with tracker.ErrUnsupported.
func (p *Page) WithoutObservation() *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unsupport = true
	return p
}

func (p *Page) setLayout(layout Layout) {
	hs := append([]Heading(nil), layout.Headings...)
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Top < hs[j].Top })
	layout.Headings = hs
	p.layout = layout
	p.tops = make(map[string]float64, len(hs))
	for _, h := range hs {
		// First heading wins on duplicate ids, as with getElementById.
		if _, dup := p.tops[h.ID]; !dup {
			p.tops[h.ID] = h.Top
		}
	}
}

// Relayout swaps in the layout of newly rendered content. Live
// subscriptions keep observing by id; headings that disappeared stop
// reporting.
func (p *Page) Relayout(layout Layout) {
	p.mu.Lock()
	p.setLayout(layout)
	p.mu.Unlock()
	p.Scroll(p.Offset())
}

// Observe starts a visibility observation.
func (p *Page) Observe(zone tracker.TriggerZone, fn func([]tracker.Intersection)) (tracker.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsupport {
		return nil, tracker.ErrUnsupported
	}
	p.nextSub++
	s := &subscription{
		page:   p,
		id:     p.nextSub,
		zone:   zone,
		fn:     fn,
		inside: make(map[string]bool),
	}
	p.subs[s.id] = s
	return s, nil
}

// Subscriptions returns the number of live observations.
func (p *Page) Subscriptions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Scroll moves the viewport to offset and delivers one batch of
// intersection changes to every live subscription.
func (p *Page) Scroll(offset float64) {
	if offset < 0 {
		offset = 0
	}

	type delivery struct {
		fn    func([]tracker.Intersection)
		batch []tracker.Intersection
	}

	p.mu.Lock()
	p.offset = offset
	var out []delivery
	for _, s := range p.subs {
		if batch := s.changesLocked(); len(batch) > 0 {
			out = append(out, delivery{fn: s.fn, batch: batch})
		}
	}
	p.mu.Unlock()

	// Callbacks run outside the lock; they may navigate and scroll again.
	for _, d := range out {
		d.fn(d.batch)
	}
}

// Offset returns the current scroll offset.
func (p *Page) Offset() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Scrolls returns the programmatic scrolls performed so far.
func (p *Page) Scrolls() []ScrollRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ScrollRecord(nil), p.scrolls...)
}

// HeadingOffset implements tracker.Document.
func (p *Page) HeadingOffset(id string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	top, ok := p.tops[id]
	return top, ok
}

// ScrollContainer implements tracker.Document.
func (p *Page) ScrollContainer() tracker.Scroller {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.layout.ScrollContainer {
		return nil
	}
	return scroller{page: p, target: "container"}
}

// Window implements tracker.Document.
func (p *Page) Window() tracker.Scroller {
	return scroller{page: p, target: "window"}
}

type scroller struct {
	page   *Page
	target string
}

// ScrollTo jumps straight to the final offset; smooth animation has no
// observable intermediate state here.
func (s scroller) ScrollTo(top float64, smooth bool) {
	s.page.mu.Lock()
	s.page.scrolls = append(s.page.scrolls, ScrollRecord{Target: s.target, Top: top, Smooth: smooth})
	s.page.mu.Unlock()
	s.page.Scroll(top)
}

type subscription struct {
	page   *Page
	id     uint64
	zone   tracker.TriggerZone
	fn     func([]tracker.Intersection)
	order  []string
	inside map[string]bool
}

// Watch implements tracker.Subscription. A heading starts outside the zone,
// so its initial state is reported by the next Scroll, as an observer's first
// callback would.
func (s *subscription) Watch(id string) bool {
	p := s.page
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, live := p.subs[s.id]; !live {
		return false
	}
	if _, ok := p.tops[id]; !ok {
		return false
	}
	if _, dup := s.inside[id]; !dup {
		s.order = append(s.order, id)
	}
	s.inside[id] = false
	return true
}

// Release implements tracker.Subscription.
func (s *subscription) Release() {
	p := s.page
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, s.id)
}

// changesLocked returns the watched headings whose zone membership changed,
// in document order.
func (s *subscription) changesLocked() []tracker.Intersection {
	p := s.page
	var batch []tracker.Intersection
	for _, id := range s.order {
		top, ok := p.tops[id]
		now := ok && s.zone.Contains(top-p.offset, p.layout.ViewportHeight)
		if now != s.inside[id] {
			s.inside[id] = now
			batch = append(batch, tracker.Intersection{ID: id, Intersecting: now})
		}
	}
	sort.SliceStable(batch, func(i, j int) bool { return p.tops[batch[i].ID] < p.tops[batch[j].ID] })
	return batch
}
