// Package service implements the carpool Connect RPC services.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mmynk/carpool/internal/calculator"
	"github.com/mmynk/carpool/internal/config"
	"github.com/mmynk/carpool/internal/metrics"
	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/internal/storage"
	"github.com/mmynk/carpool/pkg/api"
)

// Options configures both services.
type Options struct {
	// Mode decides how group ids are resolved.
	Mode config.Mode

	// Policy is the credit rule set balances are computed under.
	Policy calculator.Policy

	// Metrics defaults to metrics.Nop.
	Metrics metrics.Recorder

	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = config.ModeMulti
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Nop{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// base holds what both services share.
type base struct {
	store storage.Store
	opts  Options
}

func (b *base) today() time.Time {
	return calculator.DayOf(b.opts.Now())
}

// resolveGroup returns the group a request is scoped to. Legacy mode
// always uses the implicit group "".
func (b *base) resolveGroup(ctx context.Context, groupID string) (string, error) {
	if b.opts.Mode == config.ModeLegacy {
		return "", nil
	}
	if groupID == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, errors.New("group_id is required"))
	}
	if _, err := b.store.GetGroup(ctx, groupID); err != nil {
		return "", storageError(err)
	}
	return groupID, nil
}

// loadHistory fetches and normalizes a group's full role history.
func (b *base) loadHistory(ctx context.Context, groupID string) ([]calculator.Entry, error) {
	rows, err := b.store.ListRoleEntries(ctx, groupID)
	if err != nil {
		return nil, storageError(err)
	}
	entries, fallbacks := calculator.NormalizeEntries(rows, b.today())
	if fallbacks > 0 {
		slog.Warn("Unparseable days read as today", "group_id", groupID, "count", fallbacks)
		b.opts.Metrics.RecordDayFallbacks(fallbacks)
	}
	return entries, nil
}

// members returns a group's memberships in rotation order.
func (b *base) members(ctx context.Context, groupID string, includeInactive bool) ([]*models.Membership, error) {
	members, err := b.store.ListMembers(ctx, groupID, includeInactive)
	if err != nil {
		return nil, storageError(err)
	}
	sortMembers(members)
	return members, nil
}

// balances computes balances and records how long it took.
func (b *base) balances(history []calculator.Entry, cutoff time.Time) map[models.ParticipantID]int {
	start := time.Now()
	balances := calculator.ComputeBalances(history, calculator.BalanceOptions{
		AsOf:   b.today(),
		Cutoff: cutoff,
		Policy: b.opts.Policy,
	})
	b.opts.Metrics.RecordBalanceComputation(time.Since(start))
	return balances
}

// suggest runs the driver suggester for day and records the outcome.
func (b *base) suggest(history []calculator.Entry, day time.Time, roster calculator.Roster, rotation []models.ParticipantID) calculator.Suggestion {
	s := calculator.SuggestDriver(calculator.SuggestInput{
		History:     history,
		SelectedDay: day,
		Today:       b.today(),
		RolesToday:  roster,
		Rotation:    rotation,
		Policy:      b.opts.Policy,
	})
	b.opts.Metrics.RecordSuggestion(s.State.String())
	return s
}

// parseDay parses a request day. Empty means today when allowEmpty is set.
func (b *base) parseDay(field, raw string, allowEmpty bool) (time.Time, error) {
	if raw == "" {
		if allowEmpty {
			return b.today(), nil
		}
		return time.Time{}, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s is required", field))
	}
	day, err := calculator.ParseDay(raw)
	if err != nil {
		return time.Time{}, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s: %w", field, err))
	}
	return day, nil
}

// sortMembers orders members by display name under English collation,
// then by participant id.
func sortMembers(members []*models.Membership) {
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(members, func(i, j int) bool {
		if cmp := c.CompareString(members[i].DisplayName, members[j].DisplayName); cmp != 0 {
			return cmp < 0
		}
		return members[i].Participant < members[j].Participant
	})
}

// rotation returns the active members' ids in rotation order.
func rotation(members []*models.Membership) []models.ParticipantID {
	ids := make([]models.ParticipantID, 0, len(members))
	for _, m := range members {
		if m.Active {
			ids = append(ids, m.Participant)
		}
	}
	return ids
}

func displayNames(members []*models.Membership) map[models.ParticipantID]string {
	names := make(map[models.ParticipantID]string, len(members))
	for _, m := range members {
		names[m.Participant] = m.DisplayName
	}
	return names
}

func storageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

func toAPISuggestion(s calculator.Suggestion, names map[models.ParticipantID]string) *api.Suggestion {
	out := &api.Suggestion{State: s.State.String()}
	if s.Participant != "" {
		out.ParticipantId = string(s.Participant)
		out.DisplayName = names[s.Participant]
	}
	return out
}

func toAPIMember(m *models.Membership) *api.Member {
	return &api.Member{
		ParticipantId: string(m.Participant),
		DisplayName:   m.DisplayName,
		Active:        m.Active,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		Id:        g.ID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
	}
}
