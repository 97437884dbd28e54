// Package api defines the request and response messages of the carpool RPC
// services. Messages travel as JSON over the Connect protocol.
package api

// Group is a carpool group.
type Group struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Member is a participant's membership in a group.
type Member struct {
	ParticipantId string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Active        bool   `json:"active"`
}

// Suggestion states.
const (
	SuggestionNoCarpool = "no_carpool"
	SuggestionExplicit  = "explicit"
	SuggestionSuggested = "suggested"
)

// Suggestion is the driver pick for a day.
type Suggestion struct {
	State         string `json:"state"`
	ParticipantId string `json:"participant_id,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
}

// MemberDay is one member's role and standing on a day.
type MemberDay struct {
	ParticipantId string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Role          string `json:"role"`
	// Balance is the credit balance before the day.
	Balance int64 `json:"balance"`
	// Recorded is false when Role is the Rider default.
	Recorded bool `json:"recorded"`
}

type GetDayRequest struct {
	GroupId string `json:"group_id,omitempty"`
	// Day is YYYY-MM-DD. Empty means today.
	Day string `json:"day,omitempty"`
}

type GetDayResponse struct {
	Day        string       `json:"day"`
	Members    []*MemberDay `json:"members"`
	Suggestion *Suggestion  `json:"suggestion"`
	NoCarpool  bool         `json:"no_carpool"`
}

type SaveDayRequest struct {
	GroupId string `json:"group_id,omitempty"`
	Day     string `json:"day"`
	// Roles maps participant id to a role code or name.
	Roles      map[string]string `json:"roles"`
	RecordedBy string            `json:"recorded_by,omitempty"`
}

type SaveDayResponse struct {
	// Written is the number of cells that changed.
	Written    int32       `json:"written"`
	Suggestion *Suggestion `json:"suggestion"`
}

type Balance struct {
	ParticipantId string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Balance       int64  `json:"balance"`
}

type GetBalancesRequest struct {
	GroupId string `json:"group_id,omitempty"`
	// AsOf is YYYY-MM-DD. Empty means today.
	AsOf string `json:"as_of,omitempty"`
}

type GetBalancesResponse struct {
	AsOf     string     `json:"as_of"`
	Policy   string     `json:"policy"`
	Balances []*Balance `json:"balances"`
}

type GetHistoryRequest struct {
	GroupId       string `json:"group_id,omitempty"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
	ParticipantId string `json:"participant_id,omitempty"`
	Role          string `json:"role,omitempty"`
}

// HistoryDay is one day of history, newest first in responses.
type HistoryDay struct {
	Day   string            `json:"day"`
	Roles map[string]string `json:"roles"`
}

type GetHistoryResponse struct {
	Members []*Member     `json:"members"`
	Days    []*HistoryDay `json:"days"`
}

type GetMemberStatsRequest struct {
	GroupId       string `json:"group_id,omitempty"`
	ParticipantId string `json:"participant_id"`
}

type GetMemberStatsResponse struct {
	ParticipantId string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Driver        int32  `json:"driver"`
	Rider         int32  `json:"rider"`
	Off           int32  `json:"off"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type SetMemberRequest struct {
	GroupId string  `json:"group_id,omitempty"`
	Member  *Member `json:"member"`
}

type SetMemberResponse struct {
	Member *Member `json:"member"`
}

type ListMembersRequest struct {
	GroupId         string `json:"group_id,omitempty"`
	IncludeInactive bool   `json:"include_inactive,omitempty"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}
