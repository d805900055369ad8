package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessTestdata = "../harness/testdata"

func TestTestCommand_HarnessScenarios(t *testing.T) {
	code, stdout, _ := execute(t, "test",
		filepath.Join(harnessTestdata, "scenarios"),
		"--golden", filepath.Join(harnessTestdata, "golden"),
		"--format", "json")
	require.Equal(t, ExitSuccess, code, stdout)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Failed)
	assert.Equal(t, resp.Data.Total, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.Equal(t, "match", s.Golden, s.Name)
	}
}

func TestTestCommand_Filter(t *testing.T) {
	code, stdout, _ := execute(t, "test",
		filepath.Join(harnessTestdata, "scenarios"),
		"--golden", filepath.Join(harnessTestdata, "golden"),
		"--filter", "reward_*")
	require.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "✓ reward_exceeds_vault")
	assert.NotContains(t, stdout, "store_verify_reward")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommand_UpdateThenMismatch(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join(harnessTestdata, "scenarios", "reward_exceeds_vault.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.yaml"), src, 0o644))

	code, stdout, _ := execute(t, "test", dir, "--update")
	require.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "(golden updated)")

	golden := filepath.Join(dir, "golden", "reward_exceeds_vault.golden")
	want, err := os.ReadFile(filepath.Join(harnessTestdata, "golden", "reward_exceeds_vault.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0o644))
	code, stdout, _ = execute(t, "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "trace does not match golden file")
	assert.Contains(t, stdout, "Error [TEST_FAILED]: 1 scenario(s) failed")
}

func TestTestCommand_Errors(t *testing.T) {
	code, stdout, _ := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stdout, "scenarios directory not found")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: x\n"), 0o644))
	code, stdout, _ = execute(t, "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "✗ bad.yaml")
	assert.Contains(t, stdout, "load error")

	code, stdout, _ = execute(t, "test", t.TempDir())
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "No scenarios found.")
}
