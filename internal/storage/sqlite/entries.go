package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/carpool/internal/calculator"
	"github.com/mmynk/carpool/internal/models"
)

// UpsertRoleEntries writes all entries in a single transaction.
// The (group, day, participant) cell is overwritten together with its provenance.
func (s *SQLiteStore) UpsertRoleEntries(ctx context.Context, entries []models.RoleEntry) error {
	return s.ReplaceRoleEntries(ctx, nil, entries)
}

// ReplaceRoleEntries deletes stale cells and upserts entries in one transaction.
// Stale rows are matched by their exact stored day.
func (s *SQLiteStore) ReplaceRoleEntries(ctx context.Context, stale, entries []models.RoleEntry) error {
	if len(stale) == 0 && len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range stale {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM role_entries
			WHERE group_id = ? AND day = ? AND participant_id = ?`,
			e.GroupID, e.Day, string(e.Participant),
		); err != nil {
			return fmt.Errorf("failed to delete entry %s/%s: %w", e.Day, e.Participant, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO role_entries (group_id, day, participant_id, role, recorded_by, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (group_id, day, participant_id) DO UPDATE SET
			role = excluded.role,
			recorded_by = excluded.recorded_by,
			recorded_at = excluded.recorded_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		recordedAt := e.RecordedAt
		if recordedAt == 0 {
			recordedAt = time.Now().Unix()
		}
		if _, err := stmt.ExecContext(ctx,
			e.GroupID, e.Day, string(e.Participant), string(e.Role), e.RecordedBy, recordedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert entry %s/%s: %w", e.Day, e.Participant, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListRoleEntries retrieves a group's whole history.
func (s *SQLiteStore) ListRoleEntries(ctx context.Context, groupID string) ([]models.RoleEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_id, day, participant_id, role, recorded_by, recorded_at
		FROM role_entries
		WHERE group_id = ?
		ORDER BY day, participant_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list role entries: %w", err)
	}
	return scanEntries(rows)
}

// ListRoleEntriesForDay retrieves the entries stored for one day.
// Stored days are compared after parsing, so "2024-01-01 08:00:00" and
// "Jan 1, 2024, 12:00:00 AM" both fall on 2024-01-01. Unparseable days
// never match.
func (s *SQLiteStore) ListRoleEntriesForDay(ctx context.Context, groupID string, day time.Time) ([]models.RoleEntry, error) {
	all, err := s.ListRoleEntries(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role entries for day: %w", err)
	}

	want := calculator.DayOf(day)
	var entries []models.RoleEntry
	for _, e := range all {
		if d, err := calculator.ParseDay(e.Day); err == nil && d.Equal(want) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// CountRoles counts a participant's entries per role.
func (s *SQLiteStore) CountRoles(ctx context.Context, groupID string, participant models.ParticipantID) (map[models.Role]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, COUNT(*)
		FROM role_entries
		WHERE group_id = ? AND participant_id = ?
		GROUP BY role`,
		groupID, string(participant),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count roles: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Role]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		counts[models.Role(role)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate role counts: %w", err)
	}
	return counts, nil
}

func scanEntries(rows *sql.Rows) ([]models.RoleEntry, error) {
	defer rows.Close()

	var entries []models.RoleEntry
	for rows.Next() {
		var e models.RoleEntry
		var participant, role string
		if err := rows.Scan(&e.GroupID, &e.Day, &participant, &role, &e.RecordedBy, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role entry: %w", err)
		}
		e.Participant = models.ParticipantID(participant)
		e.Role = models.Role(role)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate role entries: %w", err)
	}
	return entries, nil
}
