package calculator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/carpool/internal/models"
)

// ErrBadDay is returned by ParseDay when no known format matches.
var ErrBadDay = errors.New("unrecognized day format")

const (
	isoLayout    = "2006-01-02"
	legacyLayout = "Jan 2 2006 3:04:05 PM"
)

// Entry is a role entry with its day already normalized.
type Entry struct {
	Day         time.Time
	Participant models.ParticipantID
	Role        models.Role
}

// DayOf truncates t to its calendar date at UTC midnight.
// The wall-clock date of t is kept; its location is dropped.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(day time.Time) string {
	return day.Format(isoLayout)
}

// ParseDay parses a stored day value.
//
// Accepted formats, in order:
//   - ISO "2006-01-02", optionally followed by a time or offset (only the
//     first 10 characters are read)
//   - legacy "Jul 12, 2023, 12:00:00 AM" (commas are stripped first)
func ParseDay(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if len(s) >= len(isoLayout) {
		if t, err := time.Parse(isoLayout, s[:len(isoLayout)]); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(legacyLayout, strings.Join(strings.Fields(strings.ReplaceAll(s, ",", "")), " ")); err == nil {
		return DayOf(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDay, raw)
}

// NormalizeDay parses raw, falling back to today when it cannot be parsed.
// The fallback keeps historically malformed rows readable; such rows count
// as if they were recorded today.
func NormalizeDay(raw string, today time.Time) time.Time {
	day, err := ParseDay(raw)
	if err != nil {
		return DayOf(today)
	}
	return day
}

// NormalizeEntries converts stored entries into calculator entries.
// It returns how many rows needed the today fallback.
func NormalizeEntries(rows []models.RoleEntry, today time.Time) ([]Entry, int) {
	entries := make([]Entry, 0, len(rows))
	fallbacks := 0
	for _, row := range rows {
		day, err := ParseDay(row.Day)
		if err != nil {
			day = DayOf(today)
			fallbacks++
		}
		entries = append(entries, Entry{
			Day:         day,
			Participant: row.Participant,
			Role:        row.Role,
		})
	}
	return entries, fallbacks
}
