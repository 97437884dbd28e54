// Package models defines the core domain models for the carpool scheduler.
//
// # Models
//
//   - RoleEntry: one participant's role (Driver, Rider, Off) on one day in one group
//   - Group: a carpool group
//   - Membership: a participant's standing in a group (display name, active flag)
//
// # Participants
//
// Participants are identified by an opaque ParticipantID. Legacy single-group
// data keys members by short strings ("CA", "ER"); multi-group data uses
// numeric user ids. Both are carried as strings and never interpreted.
//
// # Days
//
// RoleEntry.Day is the day exactly as stored. Historical rows use more than
// one textual format, so it is kept raw here and normalized by the calculator
// package before any balance computation.
package models
