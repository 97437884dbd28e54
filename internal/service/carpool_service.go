package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/carpool/internal/calculator"
	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/internal/storage"
	"github.com/mmynk/carpool/pkg/api"
	"github.com/mmynk/carpool/pkg/api/apiconnect"
)

var _ apiconnect.CarpoolServiceHandler = (*CarpoolService)(nil)

// CarpoolService implements the Connect CarpoolService: daily rosters,
// balances and driver suggestions.
type CarpoolService struct {
	base
}

// NewCarpoolService creates a new CarpoolService with the given storage backend.
func NewCarpoolService(store storage.Store, opts Options) *CarpoolService {
	return &CarpoolService{base{store: store, opts: opts.withDefaults()}}
}

// GetDay returns a day's roster with each member's prior balance and the
// driver suggestion.
func (s *CarpoolService) GetDay(ctx context.Context, req *connect.Request[api.GetDayRequest]) (*connect.Response[api.GetDayResponse], error) {
	slog.Info("GetDay request received", "group_id", req.Msg.GroupId, "day", req.Msg.Day)

	groupID, err := s.resolveGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, err
	}
	day, err := s.parseDay("day", req.Msg.Day, true)
	if err != nil {
		return nil, err
	}

	members, err := s.members(ctx, groupID, false)
	if err != nil {
		slog.Error("GetDay failed", "group_id", groupID, "error", err)
		return nil, err
	}
	history, err := s.loadHistory(ctx, groupID)
	if err != nil {
		slog.Error("GetDay failed", "group_id", groupID, "error", err)
		return nil, err
	}

	order := rotation(members)
	recorded := calculator.GroupByDay(history)[day]
	roster := calculator.DefaultRoster(order, recorded)
	prior := s.balances(history, day.AddDate(0, 0, -1))
	suggestion := s.suggest(history, day, roster, order)

	resp := &api.GetDayResponse{
		Day:        calculator.FormatDay(day),
		Members:    make([]*api.MemberDay, 0, len(members)),
		Suggestion: toAPISuggestion(suggestion, displayNames(members)),
		NoCarpool:  suggestion.State == calculator.NoCarpool,
	}
	for _, m := range members {
		_, ok := recorded[m.Participant]
		resp.Members = append(resp.Members, &api.MemberDay{
			ParticipantId: string(m.Participant),
			DisplayName:   m.DisplayName,
			Role:          string(roster[m.Participant]),
			Balance:       int64(prior[m.Participant]),
			Recorded:      ok,
		})
	}

	slog.Info("GetDay successful",
		"group_id", groupID,
		"day", resp.Day,
		"suggestion", suggestion.State.String(),
		"driver", suggestion.Participant,
	)

	return connect.NewResponse(resp), nil
}

// SaveDay validates and stores a day's roles. Only cells whose role changed
// are written.
func (s *CarpoolService) SaveDay(ctx context.Context, req *connect.Request[api.SaveDayRequest]) (*connect.Response[api.SaveDayResponse], error) {
	slog.Info("SaveDay request received",
		"group_id", req.Msg.GroupId,
		"day", req.Msg.Day,
		"roles_count", len(req.Msg.Roles),
		"recorded_by", req.Msg.RecordedBy,
	)

	groupID, err := s.resolveGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, err
	}
	day, err := s.parseDay("day", req.Msg.Day, false)
	if err != nil {
		return nil, err
	}
	if len(req.Msg.Roles) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("roles are required"))
	}

	members, err := s.members(ctx, groupID, true)
	if err != nil {
		slog.Error("SaveDay failed", "group_id", groupID, "error", err)
		return nil, err
	}
	names := displayNames(members)

	roles := make(calculator.Roster, len(req.Msg.Roles))
	for id, raw := range req.Msg.Roles {
		p := models.ParticipantID(id)
		if _, ok := names[p]; !ok {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("participant %q is not a member", id))
		}
		role, err := models.ParseRole(raw)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("participant %q: %w", id, err))
		}
		roles[p] = role
	}

	dayStr := calculator.FormatDay(day)
	existing, err := s.store.ListRoleEntriesForDay(ctx, groupID, day)
	if err != nil {
		slog.Error("SaveDay failed", "group_id", groupID, "error", err)
		return nil, storageError(err)
	}
	current := make(map[models.ParticipantID][]models.RoleEntry, len(existing))
	for _, e := range existing {
		current[e.Participant] = append(current[e.Participant], e)
	}

	// A cell is unchanged only when it is one row with the same role. Rows of a
	// changed cell stored under another day string are replaced.
	var changed, stale []models.RoleEntry
	for p, role := range roles {
		rows := current[p]
		if len(rows) == 1 && rows[0].Role == role {
			continue
		}
		for _, row := range rows {
			if row.Day != dayStr {
				stale = append(stale, row)
			}
		}
		changed = append(changed, models.RoleEntry{
			GroupID:     groupID,
			Day:         dayStr,
			Participant: p,
			Role:        role,
			RecordedBy:  req.Msg.RecordedBy,
			RecordedAt:  s.opts.Now().Unix(),
		})
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].Participant < changed[j].Participant })

	if len(changed) == 0 {
		slog.Info("No changes", "group_id", groupID, "day", dayStr)
	} else {
		if err := s.store.ReplaceRoleEntries(ctx, stale, changed); err != nil {
			slog.Error("SaveDay failed", "group_id", groupID, "error", err)
			return nil, storageError(err)
		}
		if len(stale) > 0 {
			slog.Info("Rewrote legacy day rows", "group_id", groupID, "day", dayStr, "count", len(stale))
		}
		s.opts.Metrics.RecordEntriesUpserted(len(changed))
	}

	history, err := s.loadHistory(ctx, groupID)
	if err != nil {
		return nil, err
	}
	order := rotation(members)
	roster := calculator.DefaultRoster(order, calculator.GroupByDay(history)[day])
	suggestion := s.suggest(history, day, roster, order)

	slog.Info("Day saved", "group_id", groupID, "day", dayStr, "written", len(changed))

	return connect.NewResponse(&api.SaveDayResponse{
		Written:    int32(len(changed)),
		Suggestion: toAPISuggestion(suggestion, names),
	}), nil
}

// GetBalances returns every active member's balance as of a day.
func (s *CarpoolService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupId, "as_of", req.Msg.AsOf)

	groupID, err := s.resolveGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, err
	}
	asOf, err := s.parseDay("as_of", req.Msg.AsOf, true)
	if err != nil {
		return nil, err
	}

	members, err := s.members(ctx, groupID, false)
	if err != nil {
		slog.Error("GetBalances failed", "group_id", groupID, "error", err)
		return nil, err
	}
	history, err := s.loadHistory(ctx, groupID)
	if err != nil {
		slog.Error("GetBalances failed", "group_id", groupID, "error", err)
		return nil, err
	}

	balances := s.balances(history, asOf)
	out := make([]*api.Balance, len(members))
	for i, m := range members {
		out[i] = &api.Balance{
			ParticipantId: string(m.Participant),
			DisplayName:   m.DisplayName,
			Balance:       int64(balances[m.Participant]),
		}
	}

	slog.Info("GetBalances successful", "group_id", groupID, "count", len(out))

	return connect.NewResponse(&api.GetBalancesResponse{
		AsOf:     calculator.FormatDay(asOf),
		Policy:   s.opts.Policy.String(),
		Balances: out,
	}), nil
}

// GetHistory returns recorded days newest first. Active members without an
// entry on a day are shown as riding.
func (s *CarpoolService) GetHistory(ctx context.Context, req *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error) {
	slog.Info("GetHistory request received",
		"group_id", req.Msg.GroupId,
		"start", req.Msg.Start,
		"end", req.Msg.End,
		"participant_id", req.Msg.ParticipantId,
		"role", req.Msg.Role,
	)

	groupID, err := s.resolveGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, err
	}
	filter, err := s.historyFilter(req.Msg)
	if err != nil {
		return nil, err
	}

	members, err := s.members(ctx, groupID, false)
	if err != nil {
		slog.Error("GetHistory failed", "group_id", groupID, "error", err)
		return nil, err
	}
	history, err := s.loadHistory(ctx, groupID)
	if err != nil {
		slog.Error("GetHistory failed", "group_id", groupID, "error", err)
		return nil, err
	}

	order := rotation(members)
	byDay := calculator.GroupByDay(history)
	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	resp := &api.GetHistoryResponse{
		Members: make([]*api.Member, len(members)),
		Days:    []*api.HistoryDay{},
	}
	for i, m := range members {
		resp.Members[i] = toAPIMember(m)
	}
	for _, d := range days {
		roster := calculator.DefaultRoster(order, byDay[d])
		for p, role := range byDay[d] {
			if _, ok := roster[p]; !ok {
				roster[p] = role
			}
		}
		if !filter.match(d, roster) {
			continue
		}
		roles := make(map[string]string, len(roster))
		for p, role := range roster {
			roles[string(p)] = string(role)
		}
		resp.Days = append(resp.Days, &api.HistoryDay{Day: calculator.FormatDay(d), Roles: roles})
	}

	slog.Info("GetHistory successful", "group_id", groupID, "days", len(resp.Days))

	return connect.NewResponse(resp), nil
}

type historyFilter struct {
	start, end  time.Time
	participant models.ParticipantID
	role        models.Role
}

func (s *CarpoolService) historyFilter(msg *api.GetHistoryRequest) (historyFilter, error) {
	var f historyFilter
	var err error
	if msg.Start != "" {
		if f.start, err = s.parseDay("start", msg.Start, false); err != nil {
			return f, err
		}
	}
	if msg.End != "" {
		if f.end, err = s.parseDay("end", msg.End, false); err != nil {
			return f, err
		}
	}
	if msg.Role != "" {
		if f.role, err = models.ParseRole(msg.Role); err != nil {
			return f, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}
	f.participant = models.ParticipantID(msg.ParticipantId)
	return f, nil
}

// match reports whether a day passes the filter. With a participant and a
// role, that participant must hold the role; with only a role, anyone may;
// with only a participant, they must appear on the day.
func (f historyFilter) match(day time.Time, roster calculator.Roster) bool {
	if !f.start.IsZero() && day.Before(f.start) {
		return false
	}
	if !f.end.IsZero() && day.After(f.end) {
		return false
	}
	switch {
	case f.participant != "" && f.role != "":
		return roster[f.participant] == f.role
	case f.participant != "":
		_, ok := roster[f.participant]
		return ok
	case f.role != "":
		for _, role := range roster {
			if role == f.role {
				return true
			}
		}
		return false
	}
	return true
}

// GetMemberStats counts how often a member held each role.
func (s *CarpoolService) GetMemberStats(ctx context.Context, req *connect.Request[api.GetMemberStatsRequest]) (*connect.Response[api.GetMemberStatsResponse], error) {
	slog.Info("GetMemberStats request received", "group_id", req.Msg.GroupId, "participant_id", req.Msg.ParticipantId)

	groupID, err := s.resolveGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, err
	}
	if req.Msg.ParticipantId == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("participant_id is required"))
	}
	p := models.ParticipantID(req.Msg.ParticipantId)

	members, err := s.members(ctx, groupID, true)
	if err != nil {
		return nil, err
	}
	name, ok := displayNames(members)[p]
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("participant %q is not a member", p))
	}

	counts, err := s.store.CountRoles(ctx, groupID, p)
	if err != nil {
		slog.Error("GetMemberStats failed", "group_id", groupID, "error", err)
		return nil, storageError(err)
	}

	return connect.NewResponse(&api.GetMemberStatsResponse{
		ParticipantId: string(p),
		DisplayName:   name,
		Driver:        int32(counts[models.RoleDriver]),
		Rider:         int32(counts[models.RoleRider]),
		Off:           int32(counts[models.RoleOff]),
	}), nil
}
