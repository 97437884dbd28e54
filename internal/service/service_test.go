package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/carpool/internal/config"
	"github.com/mmynk/carpool/internal/storage/sqlite"
	"github.com/mmynk/carpool/pkg/api"
	"github.com/mmynk/carpool/pkg/api/apiconnect"
)

// fixedNow is the clock used by every test server: 2024-01-10 noon UTC.
var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	carpool apiconnect.CarpoolServiceClient
	groups  apiconnect.GroupServiceClient
	store   *sqlite.SQLiteStore
	metrics *recordingMetrics
}

type recordingMetrics struct {
	mu          sync.Mutex
	suggestions map[string]int
	fallbacks   int
	upserted    int
	balances    int
}

func (m *recordingMetrics) RecordSuggestion(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestions[state]++
}

func (m *recordingMetrics) RecordBalanceComputation(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances++
}

func (m *recordingMetrics) RecordDayFallbacks(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks += count
}

func (m *recordingMetrics) RecordEntriesUpserted(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted += count
}

type metricsSnapshot struct {
	suggestions map[string]int
	fallbacks   int
	upserted    int
	balances    int
}

func (m *recordingMetrics) snapshot() metricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	suggestions := make(map[string]int, len(m.suggestions))
	for k, v := range m.suggestions {
		suggestions[k] = v
	}
	return metricsSnapshot{
		suggestions: suggestions,
		fallbacks:   m.fallbacks,
		upserted:    m.upserted,
		balances:    m.balances,
	}
}

// setupTestServer starts both services on a temp-dir SQLite database.
func setupTestServer(t *testing.T, mode config.Mode) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	rec := &recordingMetrics{suggestions: map[string]int{}}
	opts := Options{
		Mode:    mode,
		Metrics: rec,
		Now:     func() time.Time { return fixedNow },
	}

	carpoolPath, carpoolHandler := apiconnect.NewCarpoolServiceHandler(NewCarpoolService(store, opts))
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(NewGroupService(store, opts))

	mux := http.NewServeMux()
	mux.Handle(carpoolPath, carpoolHandler)
	mux.Handle(groupPath, groupHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		carpool: apiconnect.NewCarpoolServiceClient(http.DefaultClient, server.URL),
		groups:  apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		store:   store,
		metrics: rec,
	}
}

// createGroup creates a group with the given active members (id -> display name).
func (ts *testServer) createGroup(t *testing.T, members map[string]string) string {
	t.Helper()
	ctx := context.Background()

	resp, err := ts.groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{Name: "Morning Commute"}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := resp.Msg.Group.Id

	for id, name := range members {
		_, err := ts.groups.SetMember(ctx, connect.NewRequest(&api.SetMemberRequest{
			GroupId: groupID,
			Member:  &api.Member{ParticipantId: id, DisplayName: name, Active: true},
		}))
		if err != nil {
			t.Fatalf("SetMember %s failed: %v", id, err)
		}
	}
	return groupID
}

func (ts *testServer) saveDay(t *testing.T, groupID, day string, roles map[string]string) *api.SaveDayResponse {
	t.Helper()
	resp, err := ts.carpool.SaveDay(context.Background(), connect.NewRequest(&api.SaveDayRequest{
		GroupId:    groupID,
		Day:        day,
		Roles:      roles,
		RecordedBy: "tester",
	}))
	if err != nil {
		t.Fatalf("SaveDay %s failed: %v", day, err)
	}
	return resp.Msg
}

func balancesByID(resp *api.GetBalancesResponse) map[string]int64 {
	out := make(map[string]int64, len(resp.Balances))
	for _, b := range resp.Balances {
		out[b.ParticipantId] = b.Balance
	}
	return out
}

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("code = %v, want %v (err: %v)", got, want, err)
	}
}
