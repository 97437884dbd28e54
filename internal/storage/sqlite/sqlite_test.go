package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates ID and CreatedAt", func(t *testing.T) {
		group := &models.Group{Name: "Morning Commute"}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Morning Commute" {
			t.Errorf("Name mismatch: got %s, want %s", got.Name, "Morning Commute")
		}
	})

	t.Run("GetGroup returns ErrNotFound for nonexistent group", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroups orders by name", func(t *testing.T) {
		store.CreateGroup(ctx, &models.Group{Name: "Afternoon"})

		groups, err := store.ListGroups(ctx)
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 2 {
			t.Fatalf("Expected 2 groups, got %d", len(groups))
		}
		if groups[0].Name != "Afternoon" {
			t.Errorf("Expected Afternoon first, got %s", groups[0].Name)
		}
	})
}

func TestMemberships(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, m := range []*models.Membership{
		{GroupID: "g1", Participant: "SJ", DisplayName: "Sean", Active: true},
		{GroupID: "g1", Participant: "CA", DisplayName: "Christian", Active: true},
		{GroupID: "g1", Participant: "ER", DisplayName: "Eric", Active: false},
		{GroupID: "g2", Participant: "XX", DisplayName: "Other", Active: true},
	} {
		if err := store.UpsertMembership(ctx, m); err != nil {
			t.Fatalf("UpsertMembership failed: %v", err)
		}
	}

	active, err := store.ListMembers(ctx, "g1", false)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("Expected 2 active members, got %d", len(active))
	}
	if active[0].Participant != "CA" || active[1].Participant != "SJ" {
		t.Errorf("Unexpected order: %s, %s", active[0].Participant, active[1].Participant)
	}

	all, err := store.ListMembers(ctx, "g1", true)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 members, got %d", len(all))
	}

	// Reactivating replaces the row rather than adding one.
	if err := store.UpsertMembership(ctx, &models.Membership{GroupID: "g1", Participant: "ER", DisplayName: "Eric R", Active: true}); err != nil {
		t.Fatalf("UpsertMembership failed: %v", err)
	}
	active, _ = store.ListMembers(ctx, "g1", false)
	if len(active) != 3 {
		t.Errorf("Expected 3 active members after reactivation, got %d", len(active))
	}
}

func TestRoleEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Upsert overwrites the same cell", func(t *testing.T) {
		err := store.UpsertRoleEntries(ctx, []models.RoleEntry{
			{GroupID: "g1", Day: "2024-01-01", Participant: "A", Role: models.RoleDriver, RecordedBy: "alice", RecordedAt: 100},
			{GroupID: "g1", Day: "2024-01-01", Participant: "B", Role: models.RoleRider, RecordedBy: "alice", RecordedAt: 100},
		})
		if err != nil {
			t.Fatalf("UpsertRoleEntries failed: %v", err)
		}

		err = store.UpsertRoleEntries(ctx, []models.RoleEntry{
			{GroupID: "g1", Day: "2024-01-01", Participant: "B", Role: models.RoleOff, RecordedBy: "bob", RecordedAt: 200},
		})
		if err != nil {
			t.Fatalf("UpsertRoleEntries failed: %v", err)
		}

		entries, err := store.ListRoleEntries(ctx, "g1")
		if err != nil {
			t.Fatalf("ListRoleEntries failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(entries))
		}
		b := entries[1]
		if b.Participant != "B" || b.Role != models.RoleOff {
			t.Errorf("Expected B to be Off, got %s=%s", b.Participant, b.Role)
		}
		if b.RecordedBy != "bob" || b.RecordedAt != 200 {
			t.Errorf("Provenance not round-tripped: %s at %d", b.RecordedBy, b.RecordedAt)
		}
	})

	t.Run("Unknown role is rejected by the schema", func(t *testing.T) {
		err := store.UpsertRoleEntries(ctx, []models.RoleEntry{
			{GroupID: "g1", Day: "2024-01-02", Participant: "A", Role: models.Role("X")},
		})
		if err == nil {
			t.Error("Expected error for unknown role")
		}
	})

	t.Run("Failed batch writes nothing", func(t *testing.T) {
		err := store.UpsertRoleEntries(ctx, []models.RoleEntry{
			{GroupID: "g1", Day: "2024-01-03", Participant: "A", Role: models.RoleDriver},
			{GroupID: "g1", Day: "2024-01-03", Participant: "B", Role: models.Role("?")},
		})
		if err == nil {
			t.Fatal("Expected error for unknown role")
		}
		entries, _ := store.ListRoleEntriesForDay(ctx, "g1", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
		if len(entries) != 0 {
			t.Errorf("Expected rollback, got %d entries", len(entries))
		}
	})

	t.Run("ListRoleEntriesForDay matches every stored day format", func(t *testing.T) {
		store.UpsertRoleEntries(ctx, []models.RoleEntry{
			{GroupID: "g1", Day: "2024-02-01 00:00:00", Participant: "A", Role: models.RoleRider},
			{GroupID: "g1", Day: "2024-02-01", Participant: "B", Role: models.RoleDriver},
			{GroupID: "g1", Day: "Feb 1, 2024, 12:00:00 AM", Participant: "C", Role: models.RoleOff},
			{GroupID: "g1", Day: "Feb 10, 2024, 12:00:00 AM", Participant: "D", Role: models.RoleOff},
			{GroupID: "g1", Day: "garbage", Participant: "E", Role: models.RoleOff},
			{GroupID: "g2", Day: "2024-02-01", Participant: "C", Role: models.RoleDriver},
		})

		entries, err := store.ListRoleEntriesForDay(ctx, "g1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("ListRoleEntriesForDay failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("Expected 3 entries, got %d: %+v", len(entries), entries)
		}
		for _, e := range entries {
			if e.Participant == "D" || e.Participant == "E" {
				t.Errorf("Unexpected entry for another day: %+v", e)
			}
		}
	})

	t.Run("ReplaceRoleEntries rewrites a legacy cell in place", func(t *testing.T) {
		stale := models.RoleEntry{GroupID: "g3", Day: "Mar 4, 2024, 12:00:00 AM", Participant: "A", Role: models.RoleDriver}
		if err := store.UpsertRoleEntries(ctx, []models.RoleEntry{stale}); err != nil {
			t.Fatalf("UpsertRoleEntries failed: %v", err)
		}

		err := store.ReplaceRoleEntries(ctx, []models.RoleEntry{stale}, []models.RoleEntry{
			{GroupID: "g3", Day: "2024-03-04", Participant: "A", Role: models.RoleRider, RecordedBy: "bob", RecordedAt: 300},
		})
		if err != nil {
			t.Fatalf("ReplaceRoleEntries failed: %v", err)
		}

		entries, err := store.ListRoleEntries(ctx, "g3")
		if err != nil {
			t.Fatalf("ListRoleEntries failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected 1 entry, got %d: %+v", len(entries), entries)
		}
		if entries[0].Day != "2024-03-04" || entries[0].Role != models.RoleRider {
			t.Errorf("Expected 2024-03-04 Rider, got %s %s", entries[0].Day, entries[0].Role)
		}
	})

	t.Run("ReplaceRoleEntries keeps the stale row when the write fails", func(t *testing.T) {
		stale := models.RoleEntry{GroupID: "g4", Day: "2024-03-05 08:00:00", Participant: "A", Role: models.RoleDriver}
		store.UpsertRoleEntries(ctx, []models.RoleEntry{stale})

		err := store.ReplaceRoleEntries(ctx, []models.RoleEntry{stale}, []models.RoleEntry{
			{GroupID: "g4", Day: "2024-03-05", Participant: "A", Role: models.Role("X")},
		})
		if err == nil {
			t.Fatal("Expected error for unknown role")
		}
		entries, _ := store.ListRoleEntries(ctx, "g4")
		if len(entries) != 1 || entries[0].Day != stale.Day {
			t.Errorf("Expected the stale row to survive, got %+v", entries)
		}
	})

	t.Run("Legacy group id is its own ledger", func(t *testing.T) {
		store.UpsertRoleEntries(ctx, []models.RoleEntry{
			{Day: "2024-03-01", Participant: "CA", Role: models.RoleDriver},
			{Day: "2024-03-01", Participant: "CA", Role: models.RoleRider},
		})
		entries, err := store.ListRoleEntries(ctx, "")
		if err != nil {
			t.Fatalf("ListRoleEntries failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Role != models.RoleRider {
			t.Errorf("Expected a single Rider entry, got %+v", entries)
		}
	})

	t.Run("CountRoles", func(t *testing.T) {
		counts, err := store.CountRoles(ctx, "g1", "A")
		if err != nil {
			t.Fatalf("CountRoles failed: %v", err)
		}
		if counts[models.RoleDriver] != 1 || counts[models.RoleRider] != 1 {
			t.Errorf("Unexpected counts: %v", counts)
		}
	})
}
