package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceSnapshot_Canonical(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "s",
		Trace: []TraceEvent{
			{Seq: 1, Timestamp: 5, Signer: "alice", Instruction: "initialize", Status: "ok"},
			{Seq: 2, Timestamp: 6, Instruction: "store_memory", Status: "failed", ErrorCode: "MISSING_SIGNATURE"},
		},
	}

	got, err := snapshot.canonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"s","trace":[`+
			`{"instruction":"initialize","seq":1,"signer":"alice","status":"ok","timestamp":5},`+
			`{"error_code":"MISSING_SIGNATURE","instruction":"store_memory","seq":2,"signer":"","status":"failed","timestamp":6}]}`,
		string(got))
}

func TestAssertGolden_ExistingResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/unsigned_and_unopened.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, scenario.Name, result))
}
