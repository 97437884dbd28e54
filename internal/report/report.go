// Package report renders carpool data as plain text for the CLI.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mmynk/carpool/internal/calculator"
	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/pkg/api"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Balances writes one row per member.
func Balances(w io.Writer, resp *api.GetBalancesResponse) error {
	if _, err := fmt.Fprintf(w, "Balances as of %s (%s)\n", resp.AsOf, resp.Policy); err != nil {
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tID\tBALANCE")
	for _, b := range resp.Balances {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", b.DisplayName, b.ParticipantId, b.Balance)
	}
	return tw.Flush()
}

// History writes one row per day with a column per member.
func History(w io.Writer, resp *api.GetHistoryResponse) error {
	if len(resp.Days) == 0 {
		_, err := fmt.Fprintln(w, "No days recorded.")
		return err
	}
	tw := newTable(w)
	fmt.Fprint(tw, "DAY")
	for _, m := range resp.Members {
		fmt.Fprintf(tw, "\t%s", m.DisplayName)
	}
	fmt.Fprintln(tw)
	for _, d := range resp.Days {
		fmt.Fprint(tw, d.Day)
		for _, m := range resp.Members {
			role, ok := d.Roles[m.ParticipantId]
			if !ok {
				role = "-"
			}
			fmt.Fprintf(tw, "\t%s", role)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// Suggestion writes the driver pick for a day.
func Suggestion(w io.Writer, day string, s *api.Suggestion) error {
	var err error
	switch s.State {
	case api.SuggestionExplicit:
		_, err = fmt.Fprintf(w, "%s: %s is driving\n", day, nameOf(s))
	case api.SuggestionSuggested:
		_, err = fmt.Fprintf(w, "%s: %s should drive\n", day, nameOf(s))
	default:
		_, err = fmt.Fprintf(w, "%s: no carpool\n", day)
	}
	return err
}

func nameOf(s *api.Suggestion) string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.ParticipantId
}

// MemberStats writes a member's role counts on one line.
func MemberStats(w io.Writer, s *api.GetMemberStatsResponse) error {
	_, err := fmt.Fprintf(w, "%s (%s): driver %d, rider %d, off %d\n",
		s.DisplayName, s.ParticipantId, s.Driver, s.Rider, s.Off)
	return err
}

// Stats summarizes a group's stored history.
type Stats struct {
	Entries     int
	Days        int
	FirstDay    time.Time
	LastDay     time.Time
	Unparseable int
}

// Summarize counts entries and distinct days. Rows whose day cannot be
// parsed are counted as unparseable and otherwise ignored.
func Summarize(rows []models.RoleEntry) Stats {
	s := Stats{Entries: len(rows)}
	days := make(map[time.Time]bool)
	for _, row := range rows {
		day, err := calculator.ParseDay(row.Day)
		if err != nil {
			s.Unparseable++
			continue
		}
		days[day] = true
		if s.FirstDay.IsZero() || day.Before(s.FirstDay) {
			s.FirstDay = day
		}
		if day.After(s.LastDay) {
			s.LastDay = day
		}
	}
	s.Days = len(days)
	return s
}

// WriteStats writes a Stats summary.
func WriteStats(w io.Writer, s Stats) error {
	first, last := "-", "-"
	if !s.FirstDay.IsZero() {
		first = calculator.FormatDay(s.FirstDay)
		last = calculator.FormatDay(s.LastDay)
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "Entries:\t%d\n", s.Entries)
	fmt.Fprintf(tw, "Days:\t%d\n", s.Days)
	fmt.Fprintf(tw, "First day:\t%s\n", first)
	fmt.Fprintf(tw, "Last day:\t%s\n", last)
	fmt.Fprintf(tw, "Unparseable:\t%d\n", s.Unparseable)
	return tw.Flush()
}
