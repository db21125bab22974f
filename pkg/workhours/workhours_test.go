package workhours

import (
	"errors"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/teamTZ/pkg/tzproject"
)

// January 15 is safely outside northern-hemisphere DST.
var winter = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

func TestContainsNonWrapping(t *testing.T) {
	windows := []Window{
		{Start: 9, End: 17},
		{Start: 0, End: 8},
		{Start: 13, End: 14},
		{Start: 0, End: 23},
	}
	for _, w := range windows {
		for hour := range 24 {
			want := hour >= w.Start && hour < w.End
			if got := w.Contains(hour); got != want {
				t.Errorf("window %d-%d Contains(%d) = %v, want %v", w.Start, w.End, hour, got, want)
			}
		}
	}
}

func TestContainsWrapping(t *testing.T) {
	windows := []Window{
		{Start: 22, End: 6},
		{Start: 23, End: 0},
		{Start: 17, End: 1},
	}
	for _, w := range windows {
		if !w.Wraps() {
			t.Fatalf("window %d-%d should wrap", w.Start, w.End)
		}
		for hour := range 24 {
			want := hour >= w.Start || hour < w.End
			if got := w.Contains(hour); got != want {
				t.Errorf("window %d-%d Contains(%d) = %v, want %v", w.Start, w.End, hour, got, want)
			}
		}
	}
}

func TestEqualStartEndIsEmpty(t *testing.T) {
	// start == end is the empty window, never a full 24-hour one: wrap
	// detection is strictly end < start.
	for _, start := range []int{0, 9, 23} {
		w := Window{Start: start, End: start}
		if w.Wraps() {
			t.Errorf("window %d-%d should not wrap", start, start)
		}
		for hour := range 24 {
			if w.Contains(hour) {
				t.Errorf("empty window %d-%d Contains(%d) = true", start, start, hour)
			}
		}
	}

	// Same rule when the flag arrives from outside instead of being derived.
	c := Converted{Start: 9, End: 9, SpansNextDay: true}
	for hour := range 24 {
		if c.Contains(hour) {
			t.Errorf("degenerate converted window Contains(%d) = true", hour)
		}
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		wantField  string
	}{
		{"start below range", -1, 17, "start"},
		{"start above range", 24, 17, "start"},
		{"end below range", 9, -3, "end"},
		{"end above range", 9, 25, "end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.end)
			var rangeErr *RangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("New(%d, %d) error = %v, want RangeError", tt.start, tt.end, err)
			}
			if rangeErr.Field != tt.wantField {
				t.Errorf("RangeError field = %q, want %q", rangeErr.Field, tt.wantField)
			}
		})
	}

	if _, err := New(22, 6); err != nil {
		t.Errorf("New(22, 6) error = %v; wrap is a valid state, not an error", err)
	}
	if _, err := New(0, 0); err != nil {
		t.Errorf("New(0, 0) error = %v; empty window is valid", err)
	}
}

func TestConvertIdentity(t *testing.T) {
	p := tzproject.NewIANA()

	windows := []Window{
		{Start: 9, End: 17},
		{Start: 22, End: 6},
		{Start: 0, End: 23},
		{Start: 8, End: 8},
	}
	for _, w := range windows {
		for _, tz := range []string{"America/New_York", "Asia/Manila", "UTC"} {
			got, err := Convert(p, w, tz, tz, winter)
			if err != nil {
				t.Fatalf("Convert(%v, %s, %s) error: %v", w, tz, tz, err)
			}
			if got.Start != w.Start || got.End != w.End {
				t.Errorf("Convert(%v, %s→%s) = %v, want identity", w, tz, tz, got)
			}
			if got.SpansNextDay != w.Wraps() {
				t.Errorf("Convert(%v, %s→%s) SpansNextDay = %v, want %v", w, tz, tz, got.SpansNextDay, w.Wraps())
			}
		}
	}
}

func TestConvertNewYorkToManila(t *testing.T) {
	p := tzproject.NewIANA()

	// On January 15 New York is EST (UTC-5) and Manila UTC+8, a 13-hour
	// gap: 09:00-17:00 EST becomes 22:00-06:00 the next day in Manila.
	got, err := Convert(p, Window{Start: 9, End: 17}, "America/New_York", "Asia/Manila", winter)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	want := Converted{Start: 22, End: 6, SpansNextDay: true}
	if got != want {
		t.Errorf("winter conversion = %+v, want %+v", got, want)
	}

	// In July the gap narrows to 12 hours (EDT).
	summer := time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)
	got, err = Convert(p, Window{Start: 9, End: 17}, "America/New_York", "Asia/Manila", summer)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	want = Converted{Start: 21, End: 5, SpansNextDay: true}
	if got != want {
		t.Errorf("summer conversion = %+v, want %+v", got, want)
	}
}

func TestConvertWrappingReference(t *testing.T) {
	p := tzproject.NewIANA()

	// A night shift in New York (22:00-06:00 EST) lands entirely within one
	// UTC day: 03:00-11:00, no longer wrapping.
	got, err := Convert(p, Window{Start: 22, End: 6}, "America/New_York", "UTC", winter)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	want := Converted{Start: 3, End: 11, SpansNextDay: false}
	if got != want {
		t.Errorf("night shift conversion = %+v, want %+v", got, want)
	}
}

func TestConvertAcrossDSTBoundary(t *testing.T) {
	p := tzproject.NewIANA()

	// March 10 2024: New York springs forward at 02:00. A window whose
	// edges straddle the transition must be converted edge-by-edge via
	// absolute instants: 01:00 EST is 06:00 UTC but 03:00 EDT is 07:00 UTC.
	// Offset-difference arithmetic on the hour digits would give 08:00.
	transition := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	got, err := Convert(p, Window{Start: 1, End: 3}, "America/New_York", "UTC", transition)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	want := Converted{Start: 6, End: 7, SpansNextDay: false}
	if got != want {
		t.Errorf("DST-boundary conversion = %+v, want %+v", got, want)
	}
}

func TestConvertUnsupportedTimezone(t *testing.T) {
	p := tzproject.NewIANA()

	var unsupported *tzproject.UnsupportedTimezoneError
	_, err := Convert(p, Window{Start: 9, End: 17}, "Mars/Olympus_Mons", "UTC", winter)
	if !errors.As(err, &unsupported) {
		t.Errorf("bad source zone error = %v, want UnsupportedTimezoneError", err)
	}
	_, err = Convert(p, Window{Start: 9, End: 17}, "UTC", "Mars/Olympus_Mons", winter)
	if !errors.As(err, &unsupported) {
		t.Errorf("bad target zone error = %v, want UnsupportedTimezoneError", err)
	}
}

func TestConvertRejectsMalformedWindow(t *testing.T) {
	p := tzproject.NewIANA()

	var rangeErr *RangeError
	_, err := Convert(p, Window{Start: -2, End: 17}, "UTC", "UTC", winter)
	if !errors.As(err, &rangeErr) {
		t.Errorf("error = %v, want RangeError", err)
	}
}
