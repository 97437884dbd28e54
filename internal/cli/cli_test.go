package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command against dbPath and returns stdout.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, dbPath string, args ...string) string {
	t.Helper()
	out, err := run(t, dbPath, args...)
	require.NoError(t, err, "carpool %v", args)
	return out
}

func legacyEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("CARPOOL_MODE", "legacy")
	t.Setenv("CREDIT_POLICY", "")
	return filepath.Join(t.TempDir(), "cli.db")
}

func TestLegacyWorkflow(t *testing.T) {
	db := legacyEnv(t)

	mustRun(t, db, "member", "set", "A", "--name", "Alice")
	mustRun(t, db, "member", "set", "B", "--name", "Bob")
	mustRun(t, db, "member", "set", "C", "--name", "Carol", "--inactive")

	out := mustRun(t, db, "member", "list")
	assert.Contains(t, out, "Alice")
	assert.NotContains(t, out, "Carol")
	assert.Contains(t, mustRun(t, db, "member", "list", "--all"), "Carol")

	out = mustRun(t, db, "day", "set", "2024-01-01", "A=D", "B=Rider", "--by", "A")
	assert.Contains(t, out, "Saved 2 role(s)")
	assert.Contains(t, out, "2024-01-01: Alice is driving")

	out = mustRun(t, db, "day", "set", "2024-01-01", "A=Driver", "B=R")
	assert.Contains(t, out, "No changes")

	out = mustRun(t, db, "balances", "--as-of", "2024-01-01")
	assert.Contains(t, out, "Balances as of 2024-01-01 (exactly-one-driver)")
	assert.Contains(t, out, "Alice  A   1\n")
	assert.Contains(t, out, "Bob    B   -1\n")

	out = mustRun(t, db, "suggest", "2024-01-02")
	assert.Equal(t, "2024-01-02: Bob should drive\n", out)

	out = mustRun(t, db, "history")
	assert.Contains(t, out, "2024-01-01  D      R")

	out = mustRun(t, db, "stats")
	assert.Contains(t, out, "Entries:      2")

	out = mustRun(t, db, "stats", "A")
	assert.Equal(t, "Alice (A): driver 1, rider 0, off 0\n", out)
}

func TestDaySet_Errors(t *testing.T) {
	db := legacyEnv(t)
	mustRun(t, db, "member", "set", "A")

	_, err := run(t, db, "day", "set", "2024-01-01", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want id=role")

	_, err = run(t, db, "day", "set", "2024-01-01", "A=Passenger")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestMultiMode_RequiresGroup(t *testing.T) {
	t.Setenv("CARPOOL_MODE", "multi")
	db := filepath.Join(t.TempDir(), "cli.db")

	_, err := run(t, db, "balances")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group_id is required")

	out := mustRun(t, db, "group", "create", "Morning", "Commute")
	assert.Contains(t, out, "Created group Morning Commute")
	assert.Contains(t, mustRun(t, db, "group", "list"), "Morning Commute")
}

func TestImport(t *testing.T) {
	db := legacyEnv(t)
	file := filepath.Join(t.TempDir(), "history.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
members:
  - id: CA
    name: Carl
  - id: DM
    name: Dana
entries:
  - day: "Jul 12, 2023, 12:00:00 AM"
    participant: CA
    role: D
  - day: "Jul 12, 2023, 12:00:00 AM"
    participant: DM
    role: R
`), 0o644))

	out := mustRun(t, db, "import", file)
	assert.Equal(t, "Imported 2 member(s), 2 entries over 1 day(s)\n", out)

	out = mustRun(t, db, "balances")
	assert.Contains(t, out, "Carl  CA  1\n")
	assert.Contains(t, out, "Dana  DM  -1\n")
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("CREDIT_POLICY", "most-drivers")
	_, err := run(t, filepath.Join(t.TempDir(), "cli.db"), "balances")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CREDIT_POLICY")
}
