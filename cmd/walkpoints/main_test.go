package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkpoints/walkpoints/internal/database"
)

// run executes the CLI against a fresh in-memory database and returns
// its stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("WALKPOINTS_LOG_FILE", filepath.Join(dir, "walkpoints.log"))

	root, a := newRootCmd()
	t.Cleanup(a.close)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "config.toml"), "--db", ":memory:"}, args...))
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "WalkPoints v"+Version)
}

func TestReportRaw(t *testing.T) {
	out, err := run(t, "", "report", "--raw", "--period", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "# WalkPoints Activity Report")
	assert.Contains(t, out, "All Time")
}

func TestReportBusinessJSON(t *testing.T) {
	out, err := run(t, "", "report", "--business", "--json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "week", doc["period"])
	assert.EqualValues(t, 9, doc["total_rewards"])
}

func TestReportRejectsUnknownPeriod(t *testing.T) {
	_, err := run(t, "", "report", "--period", "year")
	assert.ErrorContains(t, err, "unknown period")
}

func TestImportFromStdin(t *testing.T) {
	lines := `{"day": "2020-01-01", "steps": 9000}
not json
{"day": "2020-01-02", "steps": 12000, "active_minutes": 90}
`
	out, err := run(t, lines, "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 days from 3 lines (1 skipped")
}

func TestImportMissingFile(t *testing.T) {
	_, err := run(t, "", "import", filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.ErrorContains(t, err, "opening import file")
}

func TestMilestonesAddAndList(t *testing.T) {
	out, err := run(t, "", "milestones", "add", "7500")
	require.NoError(t, err)
	assert.Contains(t, out, "Milestone added: 7,500 steps for")

	out, err = run(t, "", "ms", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "seed-ms-1")
	assert.Contains(t, out, "in_progress")
}

func TestMilestonesAddRejectsBadTarget(t *testing.T) {
	_, err := run(t, "", "milestones", "add", "0")
	assert.True(t, errors.Is(err, database.ErrInvalidTarget), "got %v", err)

	_, err = run(t, "", "milestones", "add", "lots")
	assert.ErrorContains(t, err, `target steps "lots"`)
}

func TestRewardsList(t *testing.T) {
	out, err := run(t, "", "rewards")
	require.NoError(t, err)
	assert.Contains(t, out, "Plant a Tree")
	assert.NotContains(t, out, "Loyalty Mug")

	out, err = run(t, "", "rewards", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Loyalty Mug, Bean There (inactive)")
}

func TestRedeem(t *testing.T) {
	out, err := run(t, "", "redeem", "pastry")
	require.NoError(t, err)
	assert.Contains(t, out, "Redeemed Free Pastry for 200 pts")
	assert.Contains(t, out, "Code: WALK-")
}

func TestRedeemErrors(t *testing.T) {
	_, err := run(t, "", "redeem", "missing")
	assert.True(t, errors.Is(err, database.ErrNotFound), "got %v", err)

	_, err = run(t, "", "redeem", "bogo")
	assert.True(t, errors.Is(err, database.ErrRewardInactive), "got %v", err)
}

func TestConfigSchema(t *testing.T) {
	out, err := run(t, "", "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"$schema\"")
	assert.Contains(t, out, "inactivity_timeout_ms")
}

func TestConfigShowHonorsEnv(t *testing.T) {
	t.Setenv("WALKPOINTS_NAV_INACTIVITY_TIMEOUT_MS", "3000")
	out, err := run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"inactivity_timeout_ms": 3000`)
}

func TestRootRejectsArgs(t *testing.T) {
	_, err := run(t, "", "bogus")
	assert.Error(t, err)
}
