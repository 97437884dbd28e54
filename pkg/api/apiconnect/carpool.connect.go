package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/carpool/pkg/api"
)

const (
	// CarpoolServiceName is the fully-qualified name of the CarpoolService service.
	CarpoolServiceName = "carpool.v1.CarpoolService"
	// GroupServiceName is the fully-qualified name of the GroupService service.
	GroupServiceName = "carpool.v1.GroupService"
)

// Procedure paths.
const (
	CarpoolServiceGetDayProcedure         = "/carpool.v1.CarpoolService/GetDay"
	CarpoolServiceSaveDayProcedure        = "/carpool.v1.CarpoolService/SaveDay"
	CarpoolServiceGetBalancesProcedure    = "/carpool.v1.CarpoolService/GetBalances"
	CarpoolServiceGetHistoryProcedure     = "/carpool.v1.CarpoolService/GetHistory"
	CarpoolServiceGetMemberStatsProcedure = "/carpool.v1.CarpoolService/GetMemberStats"

	GroupServiceCreateGroupProcedure = "/carpool.v1.GroupService/CreateGroup"
	GroupServiceListGroupsProcedure  = "/carpool.v1.GroupService/ListGroups"
	GroupServiceSetMemberProcedure   = "/carpool.v1.GroupService/SetMember"
	GroupServiceListMembersProcedure = "/carpool.v1.GroupService/ListMembers"
)

// CarpoolServiceHandler is implemented by the day/balance service.
type CarpoolServiceHandler interface {
	GetDay(context.Context, *connect.Request[api.GetDayRequest]) (*connect.Response[api.GetDayResponse], error)
	SaveDay(context.Context, *connect.Request[api.SaveDayRequest]) (*connect.Response[api.SaveDayResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetHistory(context.Context, *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error)
	GetMemberStats(context.Context, *connect.Request[api.GetMemberStatsRequest]) (*connect.Response[api.GetMemberStatsResponse], error)
}

// GroupServiceHandler is implemented by the group/membership service.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	SetMember(context.Context, *connect.Request[api.SetMemberRequest]) (*connect.Response[api.SetMemberResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
}

// NewCarpoolServiceHandler builds an HTTP handler for the CarpoolService and
// returns the path it should be mounted on.
func NewCarpoolServiceHandler(svc CarpoolServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{withCodec()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(CarpoolServiceGetDayProcedure, connect.NewUnaryHandler(CarpoolServiceGetDayProcedure, svc.GetDay, opts...))
	mux.Handle(CarpoolServiceSaveDayProcedure, connect.NewUnaryHandler(CarpoolServiceSaveDayProcedure, svc.SaveDay, opts...))
	mux.Handle(CarpoolServiceGetBalancesProcedure, connect.NewUnaryHandler(CarpoolServiceGetBalancesProcedure, svc.GetBalances, opts...))
	mux.Handle(CarpoolServiceGetHistoryProcedure, connect.NewUnaryHandler(CarpoolServiceGetHistoryProcedure, svc.GetHistory, opts...))
	mux.Handle(CarpoolServiceGetMemberStatsProcedure, connect.NewUnaryHandler(CarpoolServiceGetMemberStatsProcedure, svc.GetMemberStats, opts...))
	return "/" + CarpoolServiceName + "/", mux
}

// NewGroupServiceHandler builds an HTTP handler for the GroupService and
// returns the path it should be mounted on.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{withCodec()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(GroupServiceCreateGroupProcedure, connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(GroupServiceListGroupsProcedure, connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(GroupServiceSetMemberProcedure, connect.NewUnaryHandler(GroupServiceSetMemberProcedure, svc.SetMember, opts...))
	mux.Handle(GroupServiceListMembersProcedure, connect.NewUnaryHandler(GroupServiceListMembersProcedure, svc.ListMembers, opts...))
	return "/" + GroupServiceName + "/", mux
}

// CarpoolServiceClient is a client for the CarpoolService.
type CarpoolServiceClient interface {
	GetDay(context.Context, *connect.Request[api.GetDayRequest]) (*connect.Response[api.GetDayResponse], error)
	SaveDay(context.Context, *connect.Request[api.SaveDayRequest]) (*connect.Response[api.SaveDayResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetHistory(context.Context, *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error)
	GetMemberStats(context.Context, *connect.Request[api.GetMemberStatsRequest]) (*connect.Response[api.GetMemberStatsResponse], error)
}

type carpoolServiceClient struct {
	getDay         *connect.Client[api.GetDayRequest, api.GetDayResponse]
	saveDay        *connect.Client[api.SaveDayRequest, api.SaveDayResponse]
	getBalances    *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	getHistory     *connect.Client[api.GetHistoryRequest, api.GetHistoryResponse]
	getMemberStats *connect.Client[api.GetMemberStatsRequest, api.GetMemberStatsResponse]
}

// NewCarpoolServiceClient constructs a client for the CarpoolService at baseURL.
func NewCarpoolServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CarpoolServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{withCodec()}, opts...)
	return &carpoolServiceClient{
		getDay:         connect.NewClient[api.GetDayRequest, api.GetDayResponse](httpClient, baseURL+CarpoolServiceGetDayProcedure, opts...),
		saveDay:        connect.NewClient[api.SaveDayRequest, api.SaveDayResponse](httpClient, baseURL+CarpoolServiceSaveDayProcedure, opts...),
		getBalances:    connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+CarpoolServiceGetBalancesProcedure, opts...),
		getHistory:     connect.NewClient[api.GetHistoryRequest, api.GetHistoryResponse](httpClient, baseURL+CarpoolServiceGetHistoryProcedure, opts...),
		getMemberStats: connect.NewClient[api.GetMemberStatsRequest, api.GetMemberStatsResponse](httpClient, baseURL+CarpoolServiceGetMemberStatsProcedure, opts...),
	}
}

func (c *carpoolServiceClient) GetDay(ctx context.Context, req *connect.Request[api.GetDayRequest]) (*connect.Response[api.GetDayResponse], error) {
	return c.getDay.CallUnary(ctx, req)
}

func (c *carpoolServiceClient) SaveDay(ctx context.Context, req *connect.Request[api.SaveDayRequest]) (*connect.Response[api.SaveDayResponse], error) {
	return c.saveDay.CallUnary(ctx, req)
}

func (c *carpoolServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *carpoolServiceClient) GetHistory(ctx context.Context, req *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error) {
	return c.getHistory.CallUnary(ctx, req)
}

func (c *carpoolServiceClient) GetMemberStats(ctx context.Context, req *connect.Request[api.GetMemberStatsRequest]) (*connect.Response[api.GetMemberStatsResponse], error) {
	return c.getMemberStats.CallUnary(ctx, req)
}

// GroupServiceClient is a client for the GroupService.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	SetMember(context.Context, *connect.Request[api.SetMemberRequest]) (*connect.Response[api.SetMemberResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
}

type groupServiceClient struct {
	createGroup *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	listGroups  *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	setMember   *connect.Client[api.SetMemberRequest, api.SetMemberResponse]
	listMembers *connect.Client[api.ListMembersRequest, api.ListMembersResponse]
}

// NewGroupServiceClient constructs a client for the GroupService at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{withCodec()}, opts...)
	return &groupServiceClient{
		createGroup: connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		listGroups:  connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		setMember:   connect.NewClient[api.SetMemberRequest, api.SetMemberResponse](httpClient, baseURL+GroupServiceSetMemberProcedure, opts...),
		listMembers: connect.NewClient[api.ListMembersRequest, api.ListMembersResponse](httpClient, baseURL+GroupServiceListMembersProcedure, opts...),
	}
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) SetMember(ctx context.Context, req *connect.Request[api.SetMemberRequest]) (*connect.Response[api.SetMemberResponse], error) {
	return c.setMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}
