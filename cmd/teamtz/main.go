// Package main implements the teamtz CLI for visualizing team availability
// across timezones and finding meeting windows.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/teamTZ/pkg/histogram"
	"github.com/codeGROOVE-dev/teamTZ/pkg/roster"
	"github.com/codeGROOVE-dev/teamTZ/pkg/schedule"
	"github.com/codeGROOVE-dev/teamTZ/pkg/tzproject"
	"github.com/codeGROOVE-dev/teamTZ/pkg/workhours"
)

var (
	rosterPath    = flag.String("roster", "", "Roster JSON file path or https URL (or set TEAMTZ_ROSTER)")
	anchorTZ      = flag.String("anchor-tz", "", "Reference anchor timezone (overrides the roster file's anchor)")
	anchorStart   = flag.Int("anchor-start", 9, "Reference anchor working-hours start (with -anchor-tz)")
	anchorEnd     = flag.Int("anchor-end", 17, "Reference anchor working-hours end (with -anchor-tz)")
	dateStr       = flag.String("date", "", "Evaluation date YYYY-MM-DD (default: today)")
	minAttendance = flag.Float64("min-attendance", 50, "Minimum attendance percentage for ranked suggestions")
	duration      = flag.Int("duration", 0, "Meeting length in hours for consecutive-block search (0 to skip)")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	version       = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("teamTZ CLI v1.0.0")
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if *rosterPath == "" {
		*rosterPath = os.Getenv("TEAMTZ_ROSTER")
	}
	if *rosterPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -roster <file-or-url> [flags]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	at := time.Now().UTC()
	if *dateStr != "" {
		day, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			logger.Error("Invalid -date, expected YYYY-MM-DD", "date", *dateStr, "error", err)
			os.Exit(1)
		}
		at = day
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var doc *roster.File
	var err error
	if strings.HasPrefix(*rosterPath, "http://") || strings.HasPrefix(*rosterPath, "https://") {
		doc, err = roster.Fetch(ctx, *rosterPath, logger)
	} else {
		doc, err = roster.Load(*rosterPath)
	}
	if err != nil {
		logger.Error("Failed to load roster", "roster", *rosterPath, "error", err)
		os.Exit(1)
	}
	if len(doc.Members) == 0 {
		fmt.Println("Roster has no members; add team members to find meeting times.")
		return
	}

	proj := tzproject.NewIANA()
	members, replaced := roster.Sanitize(proj, doc.Members)
	for _, tz := range replaced {
		logger.Warn("Unsupported timezone replaced with UTC", "timezone", tz)
	}

	anchor := doc.Anchor
	if *anchorTZ != "" {
		window, err := workhours.New(*anchorStart, *anchorEnd)
		if err != nil {
			logger.Error("Invalid anchor window", "error", err)
			os.Exit(1)
		}
		anchor = &roster.Anchor{Timezone: *anchorTZ, Hours: window}
	}
	if anchor != nil && !proj.IsSupported(anchor.Timezone) {
		logger.Error("Unsupported anchor timezone", "timezone", anchor.Timezone)
		os.Exit(1)
	}

	scorer := schedule.New(logger, schedule.WithProjector(proj))
	slots, err := scorer.Score(members, anchor, at)
	if err != nil {
		logger.Error("Scoring failed", "error", err)
		os.Exit(1)
	}

	printTeam(proj, members, at)
	fmt.Println()
	fmt.Print(histogram.Render(slots))
	printSuggestions(slots)

	if *duration > 0 {
		blocks, err := schedule.ConsecutiveBlocks(slots, *duration, *minAttendance)
		if err != nil {
			logger.Error("Block search failed", "error", err)
			os.Exit(1)
		}
		printBlocks(blocks, *duration)
	}
}

func printTeam(proj *tzproject.IANA, members []roster.Member, at time.Time) {
	fmt.Println("\n🌍 Team Clocks")
	fmt.Println(strings.Repeat("─", 50))
	for _, m := range members {
		parts, err := proj.ClockParts(m.Timezone, at)
		if err != nil {
			continue
		}
		abbr, _ := proj.Abbreviation(m.Timezone, at)
		offset, _ := proj.OffsetLabel(m.Timezone, at)
		name := m.Name
		if m.Role != "" {
			name += " (" + m.Role + ")"
		}
		fmt.Printf("%-28s %02d:%02d %s (%s) · works %s-%s\n",
			name, parts.Hour, parts.Minute, abbr, offset,
			histogram.FormatHourLabel(m.Hours.Start), histogram.FormatHourLabel(m.Hours.End))
	}
}

func printSuggestions(slots []schedule.Slot) {
	perfect := schedule.Perfect(slots)
	good := schedule.Good(slots)

	fmt.Println("\n⭐ Perfect Times (everyone available)")
	fmt.Println(strings.Repeat("─", 50))
	if len(perfect) == 0 {
		fmt.Println("No perfect overlap found")
	}
	for _, slot := range perfect {
		fmt.Printf("%s - %s  %d/%d available\n",
			histogram.FormatHourLabel(slot.Hour), histogram.FormatHourLabel((slot.Hour+1)%24),
			slot.AvailableCount, slot.TotalMembers)
	}

	fmt.Println("\n👍 Good Times (75%+ available)")
	fmt.Println(strings.Repeat("─", 50))
	if len(good) == 0 {
		fmt.Println("No good times found")
	}
	for _, slot := range good {
		fmt.Printf("%s - %s  %d/%d available (%.0f%%)\n",
			histogram.FormatHourLabel(slot.Hour), histogram.FormatHourLabel((slot.Hour+1)%24),
			slot.AvailableCount, slot.TotalMembers, slot.Percentage)
	}
}

func printBlocks(blocks []schedule.Block, duration int) {
	fmt.Printf("\n📆 %d-Hour Meeting Windows\n", duration)
	fmt.Println(strings.Repeat("─", 50))
	if len(blocks) == 0 {
		fmt.Println("No window meets the attendance threshold")
		return
	}
	for i, block := range blocks {
		if i >= 5 {
			break // Only show top 5
		}
		end := (block.StartHour + block.DurationHours) % 24
		fmt.Printf("%d. %s - %s  avg %.0f%% attendance\n",
			i+1, histogram.FormatHourLabel(block.StartHour), histogram.FormatHourLabel(end), block.AveragePercent)
	}
}
