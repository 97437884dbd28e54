package models

// ParticipantID identifies a group member. It is opaque to the core.
type ParticipantID string

// RoleEntry records the role one participant held on one day.
// There is at most one entry per (GroupID, Day, Participant).
type RoleEntry struct {
	// GroupID is the carpool group. Empty in legacy single-group mode.
	GroupID string

	// Day is the calendar day as stored. Rows are written as YYYY-MM-DD;
	// databases carried over from older versions may hold other formats.
	Day string

	// Participant is the member holding the role.
	Participant ParticipantID

	// Role is one of RoleDriver, RoleRider, RoleOff.
	Role Role

	// RecordedBy and RecordedAt are provenance only. They never affect balances.
	RecordedBy string
	RecordedAt int64
}
