package importer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/internal/storage/sqlite"
)

const legacyFile = `
members:
  - id: CA
    name: Carl
  - id: DM
    name: Dana
  - id: EX
    active: false
entries:
  - day: "Jul 12, 2023, 12:00:00 AM"
    participant: CA
    role: D
    recorded_by: admin
    recorded_at: 1689120000
  - day: 2023-07-12
    participant: DM
    role: Rider
  - day: 2023-07-13T08:00:00Z
    participant: DM
    role: driver
`

func newStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "import.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestImport(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	res, err := Import(ctx, store, "", strings.NewReader(legacyFile))
	require.NoError(t, err)
	assert.Equal(t, &Result{Members: 3, Entries: 3, Days: 2}, res)

	members, err := store.ListMembers(ctx, "", true)
	require.NoError(t, err)
	require.Len(t, members, 3)
	byID := map[models.ParticipantID]*models.Membership{}
	for _, m := range members {
		byID[m.Participant] = m
	}
	assert.Equal(t, "Carl", byID["CA"].DisplayName)
	assert.Equal(t, "EX", byID["EX"].DisplayName)
	assert.False(t, byID["EX"].Active)
	assert.True(t, byID["DM"].Active)

	entries, err := store.ListRoleEntries(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		if e.Participant == "CA" {
			assert.Equal(t, "2023-07-12", e.Day)
			assert.Equal(t, models.RoleDriver, e.Role)
			assert.Equal(t, "admin", e.RecordedBy)
			assert.Equal(t, int64(1689120000), e.RecordedAt)
		}
	}
}

func TestImport_RejectsInvalidFileWithoutWriting(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	doc := `
members:
  - id: CA
entries:
  - day: someday
    participant: CA
    role: D
  - day: 2023-07-12
    participant: CA
    role: Passenger
  - day: 2023-07-12
    role: R
`
	_, err := Import(ctx, store, "", strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entries[0]")
	assert.Contains(t, err.Error(), "entries[1]")
	assert.Contains(t, err.Error(), "entries[2]: participant is required")

	members, err := store.ListMembers(ctx, "", true)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"unknown field", "entries: []\nextra: 1\n", "field extra not found"},
		{"empty", "", "empty import file"},
		{"not yaml", "entries: [", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConvert_MemberWithoutID(t *testing.T) {
	_, _, err := Convert(&File{Members: []Member{{Name: "Ghost"}}}, "g1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "members[0]: id is required")
}

func TestConvert_AssignsGroup(t *testing.T) {
	members, entries, err := Convert(&File{
		Members: []Member{{ID: " CA "}},
		Entries: []Entry{{Day: "2024-01-02", Participant: "CA", Role: "off"}},
	}, "g1", nil)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Len(t, entries, 1)
	assert.Equal(t, "g1", members[0].GroupID)
	assert.Equal(t, models.ParticipantID("CA"), members[0].Participant)
	assert.Equal(t, models.RoleEntry{GroupID: "g1", Day: "2024-01-02", Participant: "CA", Role: models.RoleOff}, entries[0])
}

func TestConvert_EntriesMustNameMembers(t *testing.T) {
	f := &File{
		Members: []Member{{ID: "CA"}},
		Entries: []Entry{
			{Day: "2024-01-02", Participant: "CA", Role: "D"},
			{Day: "2024-01-02", Participant: "DM", Role: "R"},
			{Day: "2024-01-02", Participant: "ZZ", Role: "R"},
		},
	}
	existing := []*models.Membership{{GroupID: "g1", Participant: "DM", DisplayName: "Dana"}}

	_, _, err := Convert(f, "g1", existing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `entries[2]: participant "ZZ" is not a member`)
	assert.NotContains(t, err.Error(), "entries[1]")
	assert.NotContains(t, err.Error(), "entries[0]")
}

func TestImport_AcceptsExistingMembers(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertMembership(ctx, &models.Membership{Participant: "CA", DisplayName: "Carl", Active: true}))

	res, err := Import(ctx, store, "", strings.NewReader(`
entries:
  - day: 2024-01-02
    participant: CA
    role: D
`))
	require.NoError(t, err)
	assert.Equal(t, &Result{Members: 0, Entries: 1, Days: 1}, res)
}

func TestImport_ReplacesRowsStoredInOlderFormats(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertRoleEntries(ctx, []models.RoleEntry{
		{Day: "Jul 12, 2023, 12:00:00 AM", Participant: "CA", Role: models.RoleRider},
		{Day: "2023-07-12 08:00:00", Participant: "DM", Role: models.RoleDriver},
	}))

	_, err := Import(ctx, store, "", strings.NewReader(legacyFile))
	require.NoError(t, err)

	entries, err := store.ListRoleEntries(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.NotContains(t, []string{"Jul 12, 2023, 12:00:00 AM", "2023-07-12 08:00:00"}, e.Day)
	}
	counts, err := store.CountRoles(ctx, "", "CA")
	require.NoError(t, err)
	assert.Equal(t, map[models.Role]int{models.RoleDriver: 1}, counts)
}
