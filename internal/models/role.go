package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when a role value is outside {Driver, Rider, Off}.
var ErrUnknownRole = errors.New("unknown role")

// Role is a participant's role for one day. Values are the one-letter codes
// used in storage.
type Role string

const (
	RoleDriver Role = "D"
	RoleRider  Role = "R"
	RoleOff    Role = "O"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleRider, RoleOff:
		return true
	}
	return false
}

// Name returns the human-readable role name.
func (r Role) Name() string {
	switch r {
	case RoleDriver:
		return "Driver"
	case RoleRider:
		return "Rider"
	case RoleOff:
		return "Off"
	}
	return string(r)
}

// ParseRole accepts a role code ("D") or name ("driver"), case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "d", "driver":
		return RoleDriver, nil
	case "r", "rider":
		return RoleRider, nil
	case "o", "off":
		return RoleOff, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}
