package calculator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmynk/carpool/internal/models"
)

// Policy selects which days count toward balances. The rules changed over
// the life of the data; PolicyExactlyOneDriver is the current rule.
type Policy int

const (
	// PolicyExactlyOneDriver counts a day only when it has exactly one driver.
	PolicyExactlyOneDriver Policy = iota

	// PolicyAnyDriver counts every day with a driver or a rider. Each driver
	// gains the full rider count, and riders lose credit even when nobody drove.
	PolicyAnyDriver

	// PolicyDriverRequired is PolicyAnyDriver restricted to days with at
	// least one driver.
	PolicyDriverRequired
)

var policyNames = map[Policy]string{
	PolicyExactlyOneDriver: "exactly-one-driver",
	PolicyAnyDriver:        "any-driver",
	PolicyDriverRequired:   "driver-required",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a configuration value to a Policy. Empty means the default.
func ParsePolicy(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PolicyExactlyOneDriver, nil
	}
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown credit policy %q", s)
}

// Roster is one day's roles by participant.
type Roster map[models.ParticipantID]models.Role

// BalanceOptions bounds a balance computation.
type BalanceOptions struct {
	// AsOf is the evaluation date. Days after it never count.
	AsOf time.Time

	// Cutoff, when non-zero, also drops days after it.
	Cutoff time.Time

	Policy Policy
}

// GroupByDay assembles each day's full roster. Later entries for the same
// (day, participant) replace earlier ones.
func GroupByDay(entries []Entry) map[time.Time]Roster {
	days := make(map[time.Time]Roster)
	for _, e := range entries {
		day := DayOf(e.Day)
		roster, ok := days[day]
		if !ok {
			roster = make(Roster)
			days[day] = roster
		}
		roster[e.Participant] = e.Role
	}
	return days
}

// DayDeltas returns each participant's balance change for one day under the
// given policy. The second result is false when the day does not count.
//
// On a counted day every driver gains the number of riders and every rider
// loses one. Off participants and unknown roles are left out.
func DayDeltas(roster Roster, policy Policy) (map[models.ParticipantID]int, bool) {
	var drivers, riders []models.ParticipantID
	for p, role := range roster {
		switch role {
		case models.RoleDriver:
			drivers = append(drivers, p)
		case models.RoleRider:
			riders = append(riders, p)
		}
	}

	switch policy {
	case PolicyAnyDriver:
		if len(drivers) == 0 && len(riders) == 0 {
			return nil, false
		}
	case PolicyDriverRequired:
		if len(drivers) == 0 {
			return nil, false
		}
	default:
		if len(drivers) != 1 {
			return nil, false
		}
	}

	deltas := make(map[models.ParticipantID]int, len(drivers)+len(riders))
	for _, d := range drivers {
		deltas[d] += len(riders)
	}
	for _, r := range riders {
		deltas[r]--
	}
	return deltas, true
}

// ComputeBalances sums the credit balance of every participant over the
// given history. Participants that never appear as driver or rider on a
// counted day are absent from the result; callers treat absence as zero.
//
// Each day is evaluated independently, so the input order does not matter.
func ComputeBalances(entries []Entry, opts BalanceOptions) map[models.ParticipantID]int {
	asOf := DayOf(opts.AsOf)
	var cutoff time.Time
	if !opts.Cutoff.IsZero() {
		cutoff = DayOf(opts.Cutoff)
	}

	balances := make(map[models.ParticipantID]int)
	for _, day := range sortedDays(GroupByDay(entries)) {
		if day.date.After(asOf) {
			continue
		}
		if !cutoff.IsZero() && day.date.After(cutoff) {
			continue
		}
		deltas, counted := DayDeltas(day.roster, opts.Policy)
		if !counted {
			continue
		}
		for p, d := range deltas {
			balances[p] += d
		}
	}
	return balances
}

type datedRoster struct {
	date   time.Time
	roster Roster
}

func sortedDays(days map[time.Time]Roster) []datedRoster {
	out := make([]datedRoster, 0, len(days))
	for d, r := range days {
		out = append(out, datedRoster{date: d, roster: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}
