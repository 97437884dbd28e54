// Package importer loads role history and members from YAML files.
//
// A file looks like:
//
//	members:
//	  - id: CA
//	    name: Carl
//	  - id: DM
//	    name: Dana
//	    active: false
//	entries:
//	  - day: "Jul 12, 2023, 12:00:00 AM"
//	    participant: CA
//	    role: D
//	    recorded_by: admin
//	    recorded_at: 1689120000
//	  - day: 2023-07-12
//	    participant: DM
//	    role: Rider
//
// Days may use either stored format and are written as YYYY-MM-DD.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/carpool/internal/calculator"
	"github.com/mmynk/carpool/internal/models"
	"github.com/mmynk/carpool/internal/storage"
)

// File is the YAML document shape.
type File struct {
	Members []Member `yaml:"members,omitempty"`
	Entries []Entry  `yaml:"entries"`
}

// Member is an imported membership. Active defaults to true.
type Member struct {
	ID     string `yaml:"id" validate:"required"`
	Name   string `yaml:"name,omitempty"`
	Active *bool  `yaml:"active,omitempty"`
}

// Entry is an imported role entry.
type Entry struct {
	Day         string `yaml:"day" validate:"required"`
	Participant string `yaml:"participant" validate:"required"`
	Role        string `yaml:"role" validate:"required"`
	RecordedBy  string `yaml:"recorded_by,omitempty"`
	RecordedAt  int64  `yaml:"recorded_at,omitempty"`
}

// Result summarizes an import.
type Result struct {
	Members int
	Entries int
	Days    int
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})
	return v
}

// fieldProblems describes struct tag violations of one record.
func fieldProblems(prefix string, record any) []string {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fmt.Sprintf("%s: %v", prefix, err)}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s: %s is %s", prefix, fe.Field(), fe.Tag()))
	}
	return problems
}

// Decode parses and validates a YAML document. Unknown fields are rejected.
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty import file")
		}
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}
	return &f, nil
}

// Convert validates a decoded file into store records for groupID.
// Entries must name a member of the file or one of existing.
// Every problem is reported, not just the first.
func Convert(f *File, groupID string, existing []*models.Membership) ([]*models.Membership, []models.RoleEntry, error) {
	var problems []string

	known := make(map[models.ParticipantID]bool, len(existing)+len(f.Members))
	for _, m := range existing {
		known[m.Participant] = true
	}

	members := make([]*models.Membership, 0, len(f.Members))
	for i, m := range f.Members {
		m.ID = strings.TrimSpace(m.ID)
		if p := fieldProblems(fmt.Sprintf("members[%d]", i), m); p != nil {
			problems = append(problems, p...)
			continue
		}
		id := m.ID
		name := strings.TrimSpace(m.Name)
		if name == "" {
			name = id
		}
		active := true
		if m.Active != nil {
			active = *m.Active
		}
		known[models.ParticipantID(id)] = true
		members = append(members, &models.Membership{
			GroupID:     groupID,
			Participant: models.ParticipantID(id),
			DisplayName: name,
			Active:      active,
		})
	}

	entries := make([]models.RoleEntry, 0, len(f.Entries))
	for i, e := range f.Entries {
		e.Participant = strings.TrimSpace(e.Participant)
		if p := fieldProblems(fmt.Sprintf("entries[%d]", i), e); p != nil {
			problems = append(problems, p...)
			continue
		}
		if !known[models.ParticipantID(e.Participant)] {
			problems = append(problems, fmt.Sprintf("entries[%d]: participant %q is not a member", i, e.Participant))
			continue
		}
		day, err := calculator.ParseDay(e.Day)
		if err != nil {
			problems = append(problems, fmt.Sprintf("entries[%d]: %v", i, err))
			continue
		}
		role, err := models.ParseRole(e.Role)
		if err != nil {
			problems = append(problems, fmt.Sprintf("entries[%d]: %v", i, err))
			continue
		}
		entries = append(entries, models.RoleEntry{
			GroupID:     groupID,
			Day:         calculator.FormatDay(day),
			Participant: models.ParticipantID(e.Participant),
			Role:        role,
			RecordedBy:  e.RecordedBy,
			RecordedAt:  e.RecordedAt,
		})
	}

	if len(problems) > 0 {
		return nil, nil, fmt.Errorf("invalid import file:\n  %s", strings.Join(problems, "\n  "))
	}
	return members, entries, nil
}

// Import reads a YAML document and writes its members and entries into
// groupID. Nothing is written when any record is invalid.
func Import(ctx context.Context, store storage.Store, groupID string, r io.Reader) (*Result, error) {
	f, err := Decode(r)
	if err != nil {
		return nil, err
	}
	existing, err := store.ListMembers(ctx, groupID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	members, entries, err := Convert(f, groupID, existing)
	if err != nil {
		return nil, err
	}
	stale, err := staleRows(ctx, store, groupID, entries)
	if err != nil {
		return nil, err
	}

	for _, m := range members {
		if err := store.UpsertMembership(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to import member %s: %w", m.Participant, err)
		}
	}
	if len(entries) > 0 {
		if err := store.ReplaceRoleEntries(ctx, stale, entries); err != nil {
			return nil, fmt.Errorf("failed to import entries: %w", err)
		}
	}

	days := make(map[string]bool)
	for _, e := range entries {
		days[e.Day] = true
	}
	return &Result{Members: len(members), Entries: len(entries), Days: len(days)}, nil
}

type cell struct {
	day         string
	participant models.ParticipantID
}

// staleRows finds stored rows for the imported cells whose day is written in
// another format. They are replaced by the imported YYYY-MM-DD rows.
func staleRows(ctx context.Context, store storage.Store, groupID string, entries []models.RoleEntry) ([]models.RoleEntry, error) {
	imported := make(map[cell]bool, len(entries))
	for _, e := range entries {
		imported[cell{e.Day, e.Participant}] = true
	}

	rows, err := store.ListRoleEntries(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing entries: %w", err)
	}
	var stale []models.RoleEntry
	for _, row := range rows {
		day, err := calculator.ParseDay(row.Day)
		if err != nil {
			continue
		}
		iso := calculator.FormatDay(day)
		if row.Day != iso && imported[cell{iso, row.Participant}] {
			stale = append(stale, row)
		}
	}
	return stale, nil
}
