package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/internal/storage"
	"github.com/mmynk/carpool/pkg/api"
	"github.com/mmynk/carpool/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	base
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, opts Options) *GroupService {
	return &GroupService{base{store: store, opts: opts.withDefaults()}}
}

// CreateGroup creates a new group.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received", "name", req.Msg.Name)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("name is required"))
	}

	// Save to storage (generates ID and CreatedAt)
	group := &models.Group{Name: name}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	slog.Info("ListGroups request received")

	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = toAPIGroup(group)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// SetMember adds a participant to a group or updates their display name and
// active flag. The display name defaults to the participant id.
func (s *GroupService) SetMember(ctx context.Context, req *connect.Request[api.SetMemberRequest]) (*connect.Response[api.SetMemberResponse], error) {
	if req.Msg.Member == nil || strings.TrimSpace(req.Msg.Member.ParticipantId) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("member.participant_id is required"))
	}
	slog.Info("SetMember request received",
		"group_id", req.Msg.GroupId,
		"participant_id", req.Msg.Member.ParticipantId,
		"active", req.Msg.Member.Active,
	)

	groupID, err := s.resolveGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, err
	}

	m := &models.Membership{
		GroupID:     groupID,
		Participant: models.ParticipantID(strings.TrimSpace(req.Msg.Member.ParticipantId)),
		DisplayName: strings.TrimSpace(req.Msg.Member.DisplayName),
		Active:      req.Msg.Member.Active,
	}
	if m.DisplayName == "" {
		m.DisplayName = string(m.Participant)
	}

	if err := s.store.UpsertMembership(ctx, m); err != nil {
		slog.Error("SetMember failed", "group_id", groupID, "error", err)
		return nil, storageError(err)
	}

	slog.Info("Member saved", "group_id", groupID, "participant_id", m.Participant)

	return connect.NewResponse(&api.SetMemberResponse{Member: toAPIMember(m)}), nil
}

// ListMembers returns a group's members in rotation order.
func (s *GroupService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	slog.Info("ListMembers request received", "group_id", req.Msg.GroupId, "include_inactive", req.Msg.IncludeInactive)

	groupID, err := s.resolveGroup(ctx, req.Msg.GroupId)
	if err != nil {
		return nil, err
	}

	members, err := s.members(ctx, groupID, req.Msg.IncludeInactive)
	if err != nil {
		slog.Error("ListMembers failed", "group_id", groupID, "error", err)
		return nil, err
	}

	out := make([]*api.Member, len(members))
	for i, m := range members {
		out[i] = toAPIMember(m)
	}

	slog.Info("ListMembers successful", "group_id", groupID, "count", len(out))

	return connect.NewResponse(&api.ListMembersResponse{Members: out}), nil
}
