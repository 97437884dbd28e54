package calculator

import (
	"sort"
	"time"

	"github.com/mmynk/carpool/internal/models"
)

// SuggestionState is the outcome of a driver suggestion for one day.
type SuggestionState int

const (
	// NoCarpool means fewer than two participants are riding or driving.
	NoCarpool SuggestionState = iota
	// Explicit means someone already picked Driver for the day.
	Explicit
	// Suggested means the driver was chosen from balances and rotation.
	Suggested
)

func (s SuggestionState) String() string {
	switch s {
	case Explicit:
		return "explicit"
	case Suggested:
		return "suggested"
	default:
		return "no_carpool"
	}
}

// Suggestion is the driver pick for a day. Participant is empty for NoCarpool.
type Suggestion struct {
	State       SuggestionState
	Participant models.ParticipantID
}

// SuggestInput holds everything SuggestDriver reads.
type SuggestInput struct {
	// History is the group's full role history.
	History []Entry

	// SelectedDay is the day being planned.
	SelectedDay time.Time

	// Today is the evaluation date; history after it is ignored for balances.
	Today time.Time

	// RolesToday is the tentative roster for SelectedDay.
	RolesToday Roster

	// Rotation lists active members in display order.
	Rotation []models.ParticipantID

	Policy Policy
}

// DefaultRoster returns the roster for a day, with every rotation member who
// has no entry yet assumed to be riding.
func DefaultRoster(rotation []models.ParticipantID, existing Roster) Roster {
	roster := make(Roster, len(rotation))
	for _, p := range rotation {
		if role, ok := existing[p]; ok {
			roster[p] = role
		} else {
			roster[p] = models.RoleRider
		}
	}
	return roster
}

// SuggestDriver picks who should drive on in.SelectedDay.
//
// An explicit Driver in the roster always wins. Otherwise, with at least two
// active participants, the one with the lowest balance before SelectedDay is
// suggested; ties go to the next candidate in rotation after the most recent
// driver.
func SuggestDriver(in SuggestInput) Suggestion {
	selected := DayOf(in.SelectedDay)

	var explicit []models.ParticipantID
	var active []models.ParticipantID
	for p, role := range in.RolesToday {
		if role == models.RoleDriver {
			explicit = append(explicit, p)
		}
		if role != models.RoleOff {
			active = append(active, p)
		}
	}
	if len(explicit) > 0 {
		return Suggestion{State: Explicit, Participant: firstInOrder(explicit, in.Rotation)}
	}
	if len(active) < 2 {
		return Suggestion{State: NoCarpool}
	}

	balances := ComputeBalances(in.History, BalanceOptions{
		AsOf:   in.Today,
		Cutoff: selected.AddDate(0, 0, -1),
		Policy: in.Policy,
	})

	minBalance := 0
	for i, p := range active {
		if b := balances[p]; i == 0 || b < minBalance {
			minBalance = b
		}
	}
	candidates := make(map[models.ParticipantID]bool)
	for _, p := range active {
		if balances[p] == minBalance {
			candidates[p] = true
		}
	}
	if len(candidates) == 1 {
		for p := range candidates {
			return Suggestion{State: Suggested, Participant: p}
		}
	}

	isActive := make(map[models.ParticipantID]bool, len(active))
	for _, p := range active {
		isActive[p] = true
	}
	var order []models.ParticipantID
	for _, p := range in.Rotation {
		if isActive[p] {
			order = append(order, p)
		}
	}

	last, found := LastDriverBefore(in.History, selected, in.Rotation)
	start := 0
	if found {
		for i, p := range order {
			if p == last {
				start = i + 1
				break
			}
		}
	}
	for i := range order {
		if p := order[(start+i)%len(order)]; candidates[p] {
			return Suggestion{State: Suggested, Participant: p}
		}
	}

	ids := make([]models.ParticipantID, 0, len(candidates))
	for p := range candidates {
		ids = append(ids, p)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return Suggestion{State: Suggested, Participant: ids[0]}
}

// LastDriverBefore finds the driver on the latest day strictly before day
// that had any Driver entry, whether or not that day counted for balances.
// When that day had several drivers, rotation order and then id order decide.
func LastDriverBefore(history []Entry, day time.Time, rotation []models.ParticipantID) (models.ParticipantID, bool) {
	day = DayOf(day)
	var lastDay time.Time
	var drivers []models.ParticipantID
	for d, roster := range GroupByDay(history) {
		if !d.Before(day) || (!lastDay.IsZero() && !d.After(lastDay)) {
			continue
		}
		var ds []models.ParticipantID
		for p, role := range roster {
			if role == models.RoleDriver {
				ds = append(ds, p)
			}
		}
		if len(ds) > 0 {
			lastDay, drivers = d, ds
		}
	}
	if len(drivers) == 0 {
		return "", false
	}
	return firstInOrder(drivers, rotation), true
}

// firstInOrder returns the element of ids that comes first in rotation,
// or the smallest id when none of them is in rotation.
func firstInOrder(ids, rotation []models.ParticipantID) models.ParticipantID {
	set := make(map[models.ParticipantID]bool, len(ids))
	for _, p := range ids {
		set[p] = true
	}
	for _, p := range rotation {
		if set[p] {
			return p
		}
	}
	sorted := append([]models.ParticipantID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[0]
}
