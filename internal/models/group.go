package models

// Group is a carpool group whose members share one credit ledger.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	// The empty ID is the implicit group used in legacy mode.
	ID string

	// Name is the display name of the group (e.g., "Morning Commute").
	Name string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Membership places a participant in a group.
type Membership struct {
	GroupID     string
	Participant ParticipantID

	// DisplayName is shown in place of the participant id and
	// determines rotation order.
	DisplayName string

	// Active members take part in daily rosters and rotation.
	Active bool
}
