// Package workhours models working-hours windows on a 24-hour clock and
// converts them between timezones.
//
// A window is the half-open hour interval [Start, End). End < Start is a
// valid, meaningful state: the window continues past midnight into the next
// day (22:00-06:00). Start == End denotes an empty window, never a full day;
// wrap detection is strictly End < Start.
package workhours

import (
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/teamTZ/pkg/tzproject"
)

// RangeError reports an hour outside 0-23 at window construction time.
type RangeError struct {
	Field string
	Value int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s hour %d out of range 0-23", e.Field, e.Value)
}

// Window is a working-hours interval [Start, End) on a 24-hour clock.
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// New validates both hours and returns the window.
func New(start, end int) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate fails fast on hours outside 0-23.
func (w Window) Validate() error {
	if w.Start < 0 || w.Start > 23 {
		return &RangeError{Field: "start", Value: w.Start}
	}
	if w.End < 0 || w.End > 23 {
		return &RangeError{Field: "end", Value: w.End}
	}
	return nil
}

// Wraps reports whether the window continues past midnight.
func (w Window) Wraps() bool {
	return w.End < w.Start
}

// Contains reports whether the hour falls within the window.
func (w Window) Contains(hour int) bool {
	return contains(w.Start, w.End, w.Wraps(), hour)
}

// Converted is a window projected into another timezone, with the
// spans-next-day state derived from the projected hours.
type Converted struct {
	Start        int  `json:"start"`
	End          int  `json:"end"`
	SpansNextDay bool `json:"spansNextDay"`
}

// Contains reports whether the hour falls within the converted window.
func (c Converted) Contains(hour int) bool {
	return contains(c.Start, c.End, c.SpansNextDay, hour)
}

// contains is the single hour-membership rule for the whole system.
// Start == End is always empty, even under the wrap flag.
func contains(start, end int, wraps bool, hour int) bool {
	if start == end {
		return false
	}
	if wraps {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// Convert projects a window anchored in one timezone into another. The two
// window edges are turned into absolute instants on the reference day (the
// date observed in fromTZ at the evaluation instant) and each instant is
// projected independently, so a DST transition between the edges is honored.
// Raw offset-difference arithmetic on the hour digits would not be.
func Convert(p tzproject.Projector, w Window, fromTZ, toTZ string, at time.Time) (Converted, error) {
	if err := w.Validate(); err != nil {
		return Converted{}, err
	}
	ref, err := p.ClockParts(fromTZ, at)
	if err != nil {
		return Converted{}, err
	}

	startInstant, err := p.Instant(fromTZ, ref.Year, ref.Month, ref.Day, w.Start)
	if err != nil {
		return Converted{}, err
	}
	// A window that already wraps in its home zone ends on the following day.
	endDay := ref.Day
	if w.End <= w.Start {
		endDay++
	}
	endInstant, err := p.Instant(fromTZ, ref.Year, ref.Month, endDay, w.End)
	if err != nil {
		return Converted{}, err
	}

	startParts, err := p.ClockParts(toTZ, startInstant)
	if err != nil {
		return Converted{}, err
	}
	endParts, err := p.ClockParts(toTZ, endInstant)
	if err != nil {
		return Converted{}, err
	}

	out := Converted{Start: startParts.Hour, End: endParts.Hour}
	out.SpansNextDay = out.End < out.Start
	return out, nil
}
