// Package panel turns an outline and a reading state into the outline panel:
// entries marked active, passed or upcoming, plus reading progress.
package panel

import (
	"fmt"

	"github.com/dgallion1/docreader/internal/outline"
	"github.com/dgallion1/docreader/internal/tracker"
)

// EntryState is the visual state of one outline entry.
type EntryState string

const (
	StateActive   EntryState = "active"
	StatePassed   EntryState = "passed"
	StateUpcoming EntryState = "upcoming"
)

// Entry is one clickable outline entry.
type Entry struct {
	ID    string     `json:"id"`
	Text  string     `json:"text"`
	Order int        `json:"order"`
	State EntryState `json:"state"`
}

// Progress is the reading progress readout.
type Progress struct {
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
}

// View is everything the panel renders.
type View struct {
	Entries  []Entry  `json:"entries"`
	Progress Progress `json:"progress"`
}

// Empty reports whether there is nothing to render.
func (v View) Empty() bool { return len(v.Entries) == 0 }

// Build derives the panel view. It reads o and st and never modifies them.
func Build(o outline.Outline, st tracker.ReadingState) View {
	if o.Empty() {
		return View{Entries: []Entry{}}
	}

	active := st.ActiveIndex(o)
	entries := make([]Entry, len(o.Sections))
	for i, s := range o.Sections {
		state := StateUpcoming
		switch {
		case active < 0:
		case i == active:
			state = StateActive
		case i < active:
			state = StatePassed
		}
		entries[i] = Entry{ID: s.ID, Text: s.Text, Order: s.Order, State: state}
	}

	current := active + 1
	return View{
		Entries: entries,
		Progress: Progress{
			Current: current,
			Total:   o.Len(),
			Percent: st.ProgressPercent(o),
			Label:   fmt.Sprintf("%d of %d sections", current, o.Len()),
		},
	}
}

// Navigator scrolls to a section. *tracker.Tracker implements it.
type Navigator interface {
	Navigate(id string) error
}

// Select is the click on an entry: it asks the navigator to bring the
// entry's section into view. The panel itself holds no state to update;
// the next Build reflects the new reading state.
func Select(nav Navigator, e Entry) error {
	return nav.Navigate(e.ID)
}
