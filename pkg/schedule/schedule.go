// Package schedule scores each hour of a day by the fraction of team members
// available, to support meeting-time recommendation.
//
// The 24 scored slots are ticks of a single reference day (the evaluation
// instant's UTC date). For each tick, every timezone group is asked "are you
// available at the moment this tick occurs", with the tick projected into the
// group's local clock before the membership check.
package schedule

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/codeGROOVE-dev/teamTZ/pkg/roster"
	"github.com/codeGROOVE-dev/teamTZ/pkg/tzproject"
	"github.com/codeGROOVE-dev/teamTZ/pkg/workhours"
)

// ErrEmptyRoster reports a scoring pass over zero members; percentages would
// be undefined, so the pass fails outright instead.
var ErrEmptyRoster = errors.New("roster has no members")

// DefaultWindow is applied uniformly, with no conversion, when no reference
// anchor is supplied.
var DefaultWindow = workhours.Window{Start: 9, End: 17}

// Slot is one hour-of-day's aggregated availability. Slots are recomputed on
// every pass and never persisted.
type Slot struct {
	Hour           int     `json:"hour"`
	AvailableCount int     `json:"availableCount"`
	TotalMembers   int     `json:"totalMembers"`
	Percentage     float64 `json:"percentage"`
	AllAvailable   bool    `json:"allAvailable"`
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithProjector sets the timezone projector. Tests use tzproject.Fixed here.
func WithProjector(p tzproject.Projector) Option {
	return func(s *Scorer) {
		s.proj = p
	}
}

// WithDefaultWindow sets the window used when no anchor is supplied.
func WithDefaultWindow(w workhours.Window) Option {
	return func(s *Scorer) {
		s.fallback = w
	}
}

// Scorer computes availability profiles. It holds no mutable state across
// calls; concurrent Score invocations are safe.
type Scorer struct {
	proj     tzproject.Projector
	logger   *slog.Logger
	fallback workhours.Window
}

// New returns a Scorer backed by the platform timezone database unless
// overridden by options.
func New(logger *slog.Logger, opts ...Option) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scorer{
		proj:     tzproject.NewIANA(),
		logger:   logger,
		fallback: DefaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score produces the 24-slot availability profile for the roster on the UTC
// day of the evaluation instant. Either all 24 slots are produced or the
// pass fails for a structural reason; there are no partial results.
func (s *Scorer) Score(members []roster.Member, anchor *roster.Anchor, at time.Time) ([]Slot, error) {
	if len(members) == 0 {
		return nil, ErrEmptyRoster
	}
	if anchor != nil {
		if err := anchor.Validate(); err != nil {
			return nil, err
		}
	}

	// Members sharing a timezone share one converted window: convert once
	// per distinct zone so every member in a zone is evaluated against the
	// same window instance.
	counts := make(map[string]int)
	var zones []string
	for _, m := range members {
		if err := m.Hours.Validate(); err != nil {
			return nil, fmt.Errorf("member %q: %w", m.Name, err)
		}
		if _, seen := counts[m.Timezone]; !seen {
			zones = append(zones, m.Timezone)
		}
		counts[m.Timezone]++
	}

	windows := make(map[string]workhours.Converted, len(zones))
	for _, tz := range zones {
		if anchor != nil {
			conv, err := workhours.Convert(s.proj, anchor.Hours, anchor.Timezone, tz, at)
			if err != nil {
				return nil, fmt.Errorf("projecting anchor window into %s: %w", tz, err)
			}
			windows[tz] = conv
			continue
		}
		windows[tz] = workhours.Converted{
			Start:        s.fallback.Start,
			End:          s.fallback.End,
			SpansNextDay: s.fallback.Wraps(),
		}
	}

	year, month, day := at.UTC().Date()
	total := len(members)
	slots := make([]Slot, 0, 24)
	for hour := range 24 {
		tick := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
		available := 0
		for _, tz := range zones {
			parts, err := s.proj.ClockParts(tz, tick)
			if err != nil {
				return nil, fmt.Errorf("projecting tick into %s: %w", tz, err)
			}
			if windows[tz].Contains(parts.Hour) {
				available += counts[tz]
			}
		}
		slots = append(slots, Slot{
			Hour:           hour,
			AvailableCount: available,
			TotalMembers:   total,
			Percentage:     float64(available) / float64(total) * 100,
			AllAvailable:   available == total,
		})
	}

	s.logger.Debug("scored availability", "members", total, "zones", len(zones), "anchored", anchor != nil)
	return slots, nil
}

// Perfect returns the slots where every member is available.
func Perfect(slots []Slot) []Slot {
	var out []Slot
	for _, slot := range slots {
		if slot.AllAvailable {
			out = append(out, slot)
		}
	}
	return out
}

// Good returns the slots with at least 75% attendance that are not perfect.
func Good(slots []Slot) []Slot {
	var out []Slot
	for _, slot := range slots {
		if slot.Percentage >= 75 && !slot.AllAvailable {
			out = append(out, slot)
		}
	}
	return out
}

// Ranked returns the slots meeting the minimum attendance, best first.
// Ties keep hour order.
func Ranked(slots []Slot, minPercent float64) []Slot {
	var out []Slot
	for _, slot := range slots {
		if slot.Percentage >= minPercent {
			out = append(out, slot)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out
}

// Block is a run of consecutive slots that all meet an attendance threshold,
// scored by average attendance across the run. Runs may wrap past hour 23
// into hour 0.
type Block struct {
	StartHour      int     `json:"startHour"`
	DurationHours  int     `json:"durationHours"`
	AveragePercent float64 `json:"averagePercent"`
}

// ConsecutiveBlocks slides a wraparound window of durationHours over the 24
// slots and returns every run whose slots all meet minPercent, best first.
func ConsecutiveBlocks(slots []Slot, durationHours int, minPercent float64) ([]Block, error) {
	if durationHours < 1 || durationHours > len(slots) {
		return nil, fmt.Errorf("duration %d hours out of range 1-%d", durationHours, len(slots))
	}

	var blocks []Block
	for start := range slots {
		sum := 0.0
		ok := true
		for i := range durationHours {
			slot := slots[(start+i)%len(slots)]
			if slot.Percentage < minPercent {
				ok = false
				break
			}
			sum += slot.Percentage
		}
		if ok {
			blocks = append(blocks, Block{
				StartHour:      slots[start].Hour,
				DurationHours:  durationHours,
				AveragePercent: sum / float64(durationHours),
			})
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].AveragePercent > blocks[j].AveragePercent
	})
	return blocks, nil
}
