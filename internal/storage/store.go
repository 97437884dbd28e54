// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/carpool/internal/models"
)

// ErrNotFound is returned when a requested group does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for carpool storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateGroup persists a new group.
	// The group.ID and group.CreatedAt fields are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by its ID.
	// Returns an error wrapping ErrNotFound if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups returns all groups ordered by name.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// UpsertMembership creates or replaces a participant's membership in a group.
	UpsertMembership(ctx context.Context, m *models.Membership) error

	// ListMembers returns a group's memberships. Inactive members are
	// included only when includeInactive is set.
	ListMembers(ctx context.Context, groupID string, includeInactive bool) ([]*models.Membership, error)

	// UpsertRoleEntries writes entries keyed by (group, day, participant)
	// in one transaction. An existing cell is overwritten.
	UpsertRoleEntries(ctx context.Context, entries []models.RoleEntry) error

	// ReplaceRoleEntries deletes the stale cells, matched by their exact stored
	// day, and upserts entries, all in one transaction.
	ReplaceRoleEntries(ctx context.Context, stale, entries []models.RoleEntry) error

	// ListRoleEntries returns the full role history of a group.
	ListRoleEntries(ctx context.Context, groupID string) ([]models.RoleEntry, error)

	// ListRoleEntriesForDay returns the entries whose stored day falls on day,
	// in any of the accepted day formats.
	ListRoleEntriesForDay(ctx context.Context, groupID string, day time.Time) ([]models.RoleEntry, error)

	// CountRoles returns how many entries of each role a participant has.
	CountRoles(ctx context.Context, groupID string, participant models.ParticipantID) (map[models.Role]int, error)

	// Close releases any resources held by the store.
	Close() error
}
