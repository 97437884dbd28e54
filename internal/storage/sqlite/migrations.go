package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// The legacy single-group data uses group_id = '' rather than NULL so that
// the UNIQUE(group_id, day, participant_id) key also holds in legacy mode.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memberships (
    group_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    active INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (group_id, participant_id)
);

CREATE TABLE IF NOT EXISTS role_entries (
    group_id TEXT NOT NULL DEFAULT '',
    day TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('D', 'R', 'O')),
    recorded_by TEXT NOT NULL DEFAULT '',
    recorded_at INTEGER NOT NULL DEFAULT 0,
    UNIQUE (group_id, day, participant_id)
);

CREATE INDEX IF NOT EXISTS idx_memberships_group_id ON memberships(group_id);
CREATE INDEX IF NOT EXISTS idx_role_entries_group_day ON role_entries(group_id, day);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
