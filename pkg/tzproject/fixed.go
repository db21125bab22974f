package tzproject

import (
	"errors"
	"time"
)

// Fixed is a deterministic Projector backed by a static table of offsets in
// minutes east of UTC. It never consults the platform timezone database, so
// tests built on it stay stable across tzdata updates and DST boundaries.
type Fixed struct {
	Offsets map[string]int
}

var errNotInTable = errors.New("not in fixed offset table")

func (f Fixed) offset(name string) (int, error) {
	minutes, ok := f.Offsets[name]
	if !ok {
		return 0, &UnsupportedTimezoneError{Name: name, Err: errNotInTable}
	}
	return minutes, nil
}

// ClockParts implements Projector.
func (f Fixed) ClockParts(timezone string, at time.Time) (ClockParts, error) {
	minutes, err := f.offset(timezone)
	if err != nil {
		return ClockParts{}, err
	}
	local := at.UTC().Add(time.Duration(minutes) * time.Minute)
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
func (f Fixed) OffsetMinutes(timezone string, _ time.Time) (int, error) {
	return f.offset(timezone)
}

// Abbreviation implements Projector.
func (f Fixed) Abbreviation(timezone string, _ time.Time) (string, error) {
	minutes, err := f.offset(timezone)
	if err != nil {
		return "", err
	}
	return FormatOffset(minutes), nil
}

// Instant implements Projector.
func (f Fixed) Instant(timezone string, year int, month time.Month, day, hour int) (time.Time, error) {
	minutes, err := f.offset(timezone)
	if err != nil {
		return time.Time{}, err
	}
	wall := time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
	return wall.Add(-time.Duration(minutes) * time.Minute), nil
}

// IsSupported implements Projector.
func (f Fixed) IsSupported(timezone string) bool {
	_, ok := f.Offsets[timezone]
	return ok
}
