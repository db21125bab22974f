// Package tzproject projects absolute instants onto the wall clocks of IANA
// timezones. All availability math downstream depends on offset-at-instant,
// never on a static per-zone offset, so every call here re-derives the offset
// for the specific instant being evaluated.
package tzproject

import (
	"errors"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"
)

// ClockParts is the wall-clock reading of a timezone at one instant.
type ClockParts struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// UnsupportedTimezoneError reports an identifier the platform timezone
// database cannot resolve.
type UnsupportedTimezoneError struct {
	Err  error
	Name string
}

func (e *UnsupportedTimezoneError) Error() string {
	return fmt.Sprintf("unsupported timezone %q: %v", e.Name, e.Err)
}

func (e *UnsupportedTimezoneError) Unwrap() error {
	return e.Err
}

// Projector converts between absolute instants and zone wall clocks.
// IANA is the production implementation; Fixed is a deterministic fake for
// tests that must not track real-world DST transition dates.
type Projector interface {
	// ClockParts returns the wall-clock components observed in the zone at
	// the given instant.
	ClockParts(timezone string, at time.Time) (ClockParts, error)
	// OffsetMinutes returns signed minutes east of UTC at the given instant,
	// incorporating the daylight-saving state of that instant.
	OffsetMinutes(timezone string, at time.Time) (int, error)
	// Abbreviation returns the short zone name ("EST"), falling back to a
	// formatted offset ("UTC-05:00") when no short name exists.
	Abbreviation(timezone string, at time.Time) (string, error)
	// Instant returns the absolute instant of "hour local, on that date, in
	// that zone".
	Instant(timezone string, year int, month time.Month, day, hour int) (time.Time, error)
	// IsSupported probes whether the identifier resolves.
	IsSupported(timezone string) bool
}

// IANA resolves zones through the platform timezone database, caching
// location lookups since LoadLocation re-reads tzdata on every call.
type IANA struct {
	locations *otter.Cache[string, *time.Location]
}

// NewIANA returns a Projector backed by the platform timezone database.
func NewIANA() *IANA {
	return &IANA{
		locations: otter.Must(&otter.Options[string, *time.Location]{
			MaximumSize: 1_000,
		}),
	}
}

func (p *IANA) location(name string) (*time.Location, error) {
	if name == "" {
		return nil, &UnsupportedTimezoneError{Name: name, Err: errors.New("empty timezone name")}
	}
	if loc, ok := p.locations.GetIfPresent(name); ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &UnsupportedTimezoneError{Name: name, Err: err}
	}
	p.locations.Set(name, loc)
	return loc, nil
}

// ClockParts implements Projector.
func (p *IANA) ClockParts(timezone string, at time.Time) (ClockParts, error) {
	loc, err := p.location(timezone)
	if err != nil {
		return ClockParts{}, err
	}
	local := at.In(loc)
	return ClockParts{
		Year:   local.Year(),
		Month:  local.Month(),
		Day:    local.Day(),
		Hour:   local.Hour(),
		Minute: local.Minute(),
		Second: local.Second(),
	}, nil
}

// OffsetMinutes implements Projector.
func (p *IANA) OffsetMinutes(timezone string, at time.Time) (int, error) {
	loc, err := p.location(timezone)
	if err != nil {
		return 0, err
	}
	_, offsetSeconds := at.In(loc).Zone()
	return offsetSeconds / 60, nil
}

// Abbreviation implements Projector.
func (p *IANA) Abbreviation(timezone string, at time.Time) (string, error) {
	loc, err := p.location(timezone)
	if err != nil {
		return "", err
	}
	name, offsetSeconds := at.In(loc).Zone()
	// Zones without a short name report numeric strings like "+0530".
	if name == "" || name[0] == '+' || name[0] == '-' {
		return FormatOffset(offsetSeconds / 60), nil
	}
	return name, nil
}

// OffsetLabel returns the zone's offset at the instant as "UTC±HH:MM".
func (p *IANA) OffsetLabel(timezone string, at time.Time) (string, error) {
	minutes, err := p.OffsetMinutes(timezone, at)
	if err != nil {
		return "", err
	}
	return FormatOffset(minutes), nil
}

// Instant implements Projector.
func (p *IANA) Instant(timezone string, year int, month time.Month, day, hour int) (time.Time, error) {
	loc, err := p.location(timezone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month, day, hour, 0, 0, 0, loc), nil
}

// IsSupported implements Projector.
func (p *IANA) IsSupported(timezone string) bool {
	_, err := p.location(timezone)
	return err == nil
}

// FormatOffset renders signed minutes east of UTC as "UTC±HH:MM".
func FormatOffset(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, minutes/60, minutes%60)
}
