package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/carpool/internal/models"
)

// UpsertMembership creates or replaces a membership.
func (s *SQLiteStore) UpsertMembership(ctx context.Context, m *models.Membership) error {
	active := 0
	if m.Active {
		active = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (group_id, participant_id, display_name, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (group_id, participant_id) DO UPDATE SET
			display_name = excluded.display_name,
			active = excluded.active
	`, m.GroupID, string(m.Participant), m.DisplayName, active)
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

// ListMembers retrieves a group's members ordered by display name.
// Callers needing locale-aware rotation order re-sort the result.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string, includeInactive bool) ([]*models.Membership, error) {
	query := `
		SELECT group_id, participant_id, display_name, active
		FROM memberships
		WHERE group_id = ?`
	if !includeInactive {
		query += " AND active = 1"
	}
	query += " ORDER BY display_name, participant_id"

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		var participant string
		var active int
		if err := rows.Scan(&m.GroupID, &participant, &m.DisplayName, &active); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Participant = models.ParticipantID(participant)
		m.Active = active == 1
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}
