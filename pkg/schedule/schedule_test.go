package schedule

import (
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/teamTZ/pkg/roster"
	"github.com/codeGROOVE-dev/teamTZ/pkg/tzproject"
	"github.com/codeGROOVE-dev/teamTZ/pkg/workhours"
)

// The scorer tests run against a fixed offset table so they never depend on
// real-world DST transition dates changing under tzdata updates.
func fixedProjector() tzproject.Fixed {
	return tzproject.Fixed{Offsets: map[string]int{
		"UTC":    0,
		"hq":     -300, // stands in for wintertime New York
		"manila": 480,
		"berlin": 60,
	}}
}

func newTestScorer() *Scorer {
	return New(slog.Default(), WithProjector(fixedProjector()))
}

var day = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

func member(name, tz string, start, end int) roster.Member {
	return roster.Member{Name: name, Timezone: tz, Hours: workhours.Window{Start: start, End: end}}
}

func TestScoreUniformRoster(t *testing.T) {
	// Everyone in one zone with the anchor matching their window exactly:
	// each slot is either full house or empty, with exactly 8 perfect slots.
	scorer := newTestScorer()
	members := []roster.Member{
		member("Ada", "UTC", 9, 17),
		member("Ben", "UTC", 9, 17),
		member("Cal", "UTC", 9, 17),
	}
	anchor := &roster.Anchor{Timezone: "UTC", Hours: workhours.Window{Start: 9, End: 17}}

	slots, err := scorer.Score(members, anchor, day)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if len(slots) != 24 {
		t.Fatalf("got %d slots, want 24", len(slots))
	}

	perfect := 0
	for _, slot := range slots {
		inWindow := slot.Hour >= 9 && slot.Hour < 17
		switch {
		case inWindow && slot.AvailableCount != 3:
			t.Errorf("hour %d: available = %d, want 3", slot.Hour, slot.AvailableCount)
		case !inWindow && slot.AvailableCount != 0:
			t.Errorf("hour %d: available = %d, want 0", slot.Hour, slot.AvailableCount)
		}
		if slot.TotalMembers != 3 {
			t.Errorf("hour %d: total = %d, want 3", slot.Hour, slot.TotalMembers)
		}
		if slot.AllAvailable {
			perfect++
			if slot.Percentage != 100 {
				t.Errorf("hour %d: percentage = %v, want 100", slot.Hour, slot.Percentage)
			}
		}
	}
	if perfect != 8 {
		t.Errorf("perfect slots = %d, want 8", perfect)
	}
}

func TestScoreProjectsAnchorAcrossZones(t *testing.T) {
	// Anchor 09:00-17:00 at hq (UTC-5) projected into manila (UTC+8) is
	// 22:00-06:00 next day; a manila member is therefore available exactly
	// while the hq window is in effect, UTC hours 14-21.
	scorer := newTestScorer()
	members := []roster.Member{
		member("Mia", "manila", 9, 17),
	}
	anchor := &roster.Anchor{Timezone: "hq", Hours: workhours.Window{Start: 9, End: 17}}

	slots, err := scorer.Score(members, anchor, day)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	for _, slot := range slots {
		want := slot.Hour >= 14 && slot.Hour < 22
		got := slot.AvailableCount == 1
		if got != want {
			t.Errorf("UTC hour %d: available = %v, want %v", slot.Hour, got, want)
		}
	}
}

func TestScoreMixedTeam(t *testing.T) {
	scorer := newTestScorer()
	members := []roster.Member{
		member("Ada", "hq", 9, 17),
		member("Ben", "hq", 9, 17),
		member("Eva", "berlin", 9, 17),
		member("Mia", "manila", 9, 17),
	}
	anchor := &roster.Anchor{Timezone: "hq", Hours: workhours.Window{Start: 9, End: 17}}

	slots, err := scorer.Score(members, anchor, day)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}

	// The anchor window occupies UTC 14-22 regardless of zone, so every
	// member group is in-window at the same reference ticks.
	for _, slot := range slots {
		want := 0
		if slot.Hour >= 14 && slot.Hour < 22 {
			want = 4
		}
		if slot.AvailableCount != want {
			t.Errorf("UTC hour %d: available = %d, want %d", slot.Hour, slot.AvailableCount, want)
		}
		if math.IsNaN(slot.Percentage) || math.IsInf(slot.Percentage, 0) {
			t.Errorf("UTC hour %d: percentage = %v", slot.Hour, slot.Percentage)
		}
	}
}

func TestScoreOrderInvariant(t *testing.T) {
	scorer := newTestScorer()
	forward := []roster.Member{
		member("Ada", "hq", 9, 17),
		member("Eva", "berlin", 8, 16),
		member("Mia", "manila", 10, 18),
	}
	reversed := []roster.Member{forward[2], forward[1], forward[0]}
	anchor := &roster.Anchor{Timezone: "hq", Hours: workhours.Window{Start: 9, End: 17}}

	a, err := scorer.Score(forward, anchor, day)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	b, err := scorer.Score(reversed, anchor, day)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("hour %d: %+v != %+v after reordering", i, a[i], b[i])
		}
	}
}

func TestScoreDefaultWindowWithoutAnchor(t *testing.T) {
	// Without an anchor the fallback window applies to every zone with no
	// conversion: each member is available at their own local 9-17.
	scorer := newTestScorer()
	members := []roster.Member{
		member("Ada", "UTC", 0, 0),
		member("Mia", "manila", 0, 0),
	}

	slots, err := scorer.Score(members, nil, day)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	for _, slot := range slots {
		utcIn := slot.Hour >= 9 && slot.Hour < 17
		manilaLocal := (slot.Hour + 8) % 24
		manilaIn := manilaLocal >= 9 && manilaLocal < 17
		want := 0
		if utcIn {
			want++
		}
		if manilaIn {
			want++
		}
		if slot.AvailableCount != want {
			t.Errorf("UTC hour %d: available = %d, want %d", slot.Hour, slot.AvailableCount, want)
		}
	}
}

func TestScoreEmptyRoster(t *testing.T) {
	scorer := newTestScorer()

	_, err := scorer.Score(nil, nil, day)
	if !errors.Is(err, ErrEmptyRoster) {
		t.Errorf("error = %v, want ErrEmptyRoster", err)
	}
	_, err = scorer.Score([]roster.Member{}, nil, day)
	if !errors.Is(err, ErrEmptyRoster) {
		t.Errorf("error = %v, want ErrEmptyRoster", err)
	}
}

func TestScoreUnsupportedTimezoneFailsWholePass(t *testing.T) {
	scorer := newTestScorer()
	members := []roster.Member{
		member("Ada", "UTC", 9, 17),
		member("Bad", "atlantis", 9, 17),
	}

	_, err := scorer.Score(members, nil, day)
	var unsupported *tzproject.UnsupportedTimezoneError
	if !errors.As(err, &unsupported) {
		t.Errorf("error = %v, want UnsupportedTimezoneError", err)
	}
}

func TestScoreRejectsMalformedHours(t *testing.T) {
	scorer := newTestScorer()
	members := []roster.Member{
		member("Ada", "UTC", 9, 26),
	}

	var rangeErr *workhours.RangeError
	_, err := scorer.Score(members, nil, day)
	if !errors.As(err, &rangeErr) {
		t.Errorf("error = %v, want RangeError", err)
	}
}

func makeSlots(percentages []float64, total int) []Slot {
	slots := make([]Slot, len(percentages))
	for i, pct := range percentages {
		count := int(pct / 100 * float64(total))
		slots[i] = Slot{
			Hour:           i,
			AvailableCount: count,
			TotalMembers:   total,
			Percentage:     pct,
			AllAvailable:   count == total,
		}
	}
	return slots
}

func TestDerivedViews(t *testing.T) {
	pcts := make([]float64, 24)
	for i := range pcts {
		pcts[i] = 25
	}
	pcts[9], pcts[10] = 100, 100
	pcts[11], pcts[12] = 75, 75
	slots := makeSlots(pcts, 4)

	perfect := Perfect(slots)
	if len(perfect) != 2 || perfect[0].Hour != 9 || perfect[1].Hour != 10 {
		t.Errorf("Perfect = %+v, want hours 9 and 10", perfect)
	}

	good := Good(slots)
	if len(good) != 2 || good[0].Hour != 11 || good[1].Hour != 12 {
		t.Errorf("Good = %+v, want hours 11 and 12", good)
	}

	ranked := Ranked(slots, 75)
	if len(ranked) != 4 {
		t.Fatalf("Ranked returned %d slots, want 4", len(ranked))
	}
	if ranked[0].Hour != 9 || ranked[1].Hour != 10 || ranked[2].Hour != 11 || ranked[3].Hour != 12 {
		t.Errorf("Ranked order = %d,%d,%d,%d; want 9,10,11,12", ranked[0].Hour, ranked[1].Hour, ranked[2].Hour, ranked[3].Hour)
	}
}

func TestConsecutiveBlocksWrapAroundMidnight(t *testing.T) {
	pcts := make([]float64, 24)
	pcts[22], pcts[23], pcts[0], pcts[1] = 100, 100, 75, 75
	slots := makeSlots(pcts, 4)

	blocks, err := ConsecutiveBlocks(slots, 4, 75)
	if err != nil {
		t.Fatalf("ConsecutiveBlocks error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want exactly the wraparound run: %+v", len(blocks), blocks)
	}
	block := blocks[0]
	if block.StartHour != 22 || block.DurationHours != 4 {
		t.Errorf("block = %+v, want start 22 duration 4", block)
	}
	if block.AveragePercent != 87.5 {
		t.Errorf("block average = %v, want 87.5", block.AveragePercent)
	}
}

func TestConsecutiveBlocksRanking(t *testing.T) {
	pcts := make([]float64, 24)
	pcts[9], pcts[10] = 100, 100
	pcts[14], pcts[15] = 80, 80
	slots := makeSlots(pcts, 5)

	blocks, err := ConsecutiveBlocks(slots, 2, 75)
	if err != nil {
		t.Fatalf("ConsecutiveBlocks error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %+v", len(blocks), blocks)
	}
	if blocks[0].StartHour != 9 || blocks[1].StartHour != 14 {
		t.Errorf("block order = %d then %d, want 9 then 14", blocks[0].StartHour, blocks[1].StartHour)
	}

	if _, err := ConsecutiveBlocks(slots, 0, 75); err == nil {
		t.Error("duration 0 accepted, want error")
	}
	if _, err := ConsecutiveBlocks(slots, 25, 75); err == nil {
		t.Error("duration 25 accepted, want error")
	}
}
