package tracker

import (
	"math"

	"github.com/dgallion1/docreader/internal/outline"
)

// ReadingState is the transient, derived reading position. It refers to the
// outline by id only and never assumes the outline is unchanged.
type ReadingState struct {
	ActiveID string `json:"active_section_id,omitempty"`
}

// ActiveIndex is the position of the active section in o, or -1.
func (s ReadingState) ActiveIndex(o outline.Outline) int {
	return o.Index(s.ActiveID)
}

// ProgressPercent is (activeIndex+1)/len*100 rounded to two decimals and
// clamped to [0, 100]. No active section reads as 0.
func (s ReadingState) ProgressPercent(o outline.Outline) float64 {
	idx := s.ActiveIndex(o)
	if idx < 0 || o.Len() == 0 {
		return 0
	}
	pct := float64(idx+1) / float64(o.Len()) * 100
	pct = math.Round(pct*100) / 100
	return math.Max(0, math.Min(100, pct))
}

// Passed returns the sections before the active one.
func (s ReadingState) Passed(o outline.Outline) []outline.Section {
	idx := s.ActiveIndex(o)
	if idx <= 0 {
		return nil
	}
	return append([]outline.Section(nil), o.Sections[:idx]...)
}
