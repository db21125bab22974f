// Package histogram renders a team's 24-hour availability profile for
// terminals.
package histogram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/teamTZ/pkg/schedule"
)

// barWidth is the maximum bar length; bars scale with attendance percentage.
const barWidth = 20

// bandColor maps an attendance percentage to its display color: green for a
// full house, yellow for a good slot, red for a partial one, grey otherwise.
func bandColor(percentage float64, allAvailable bool) *color.Color {
	switch {
	case allAvailable:
		return color.New(color.FgGreen)
	case percentage >= 75:
		return color.New(color.FgYellow)
	case percentage >= 50:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

// Render produces the hour-by-hour availability strip.
func Render(slots []schedule.Slot) string {
	var output strings.Builder

	output.WriteString("📅 Team Availability (24-hour overview)\n")
	output.WriteString(strings.Repeat("─", 50) + "\n")

	for _, slot := range slots {
		marker := "  "
		switch {
		case slot.AllAvailable:
			marker = "★ "
		case slot.Percentage >= 75:
			marker = "+ "
		}

		line := fmt.Sprintf("%02d:00 %s%2d/%-2d ", slot.Hour, marker, slot.AvailableCount, slot.TotalMembers)

		barLength := int(slot.Percentage / 100 * barWidth)
		c := bandColor(slot.Percentage, slot.AllAvailable)
		if barLength > 0 {
			line += c.Sprint(strings.Repeat("█", barLength))
		} else if slot.AvailableCount > 0 {
			line += c.Sprint("·")
		}

		output.WriteString(line + "\n")
	}

	return output.String()
}

// FormatHourLabel renders a 24-hour value as a 12-hour clock label,
// "9:00 AM" or "11:00 PM".
func FormatHourLabel(hour int) string {
	suffix := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		suffix = "PM"
	case hour > 12:
		display = hour - 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:00 %s", display, suffix)
}

// ParseHourLabel recovers the 24-hour value from a FormatHourLabel string.
func ParseHourLabel(label string) (int, error) {
	clock, suffix, found := strings.Cut(label, " ")
	if !found || (suffix != "AM" && suffix != "PM") {
		return 0, fmt.Errorf("malformed hour label %q", label)
	}
	hourStr, _, found := strings.Cut(clock, ":")
	if !found {
		return 0, fmt.Errorf("malformed hour label %q", label)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("malformed hour label %q", label)
	}

	if hour == 12 {
		hour = 0
	}
	if suffix == "PM" {
		hour += 12
	}
	return hour, nil
}
