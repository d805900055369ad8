package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/testutil"
)

func TestRun_StoreAndVerify(t *testing.T) {
	scenario := &Scenario{
		Name:        "store_and_verify",
		Description: "Store then verify",
		Flow: []FlowStep{
			{Signer: "alice", Invoke: "store_memory", Args: StepArgs{Content: "hello"}},
			{Signer: "bob", Invoke: "verify_memory", Args: StepArgs{
				Hash: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
			}},
		},
		Assertions: []Assertion{
			{Type: AssertMemory, Content: "hello", Owner: "alice"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 2)

	stored := result.Trace[0]
	assert.Equal(t, int64(1), stored.Seq)
	assert.Equal(t, int64(DefaultStartTime), stored.Timestamp)
	assert.Equal(t, "memory:hello", string(stored.Result["address"].(ir.IRString)))
	assert.Equal(t, "alice", string(stored.Result["owner"].(ir.IRString)))

	verified := result.Trace[1]
	assert.Equal(t, int64(2), verified.Seq)
	assert.Equal(t, "ok", verified.Status)
	assert.Contains(t, verified.Logs[0], "owner=alice")
}

func TestRun_ExpectMismatchIsReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Expectations that do not hold",
		StartTime:   10,
		Flow: []FlowStep{
			{Signer: "alice", Invoke: "verify_memory", Args: StepArgs{Content: "nothing"}},
			{Signer: "alice", Invoke: "store_memory", Args: StepArgs{Content: "x"}, Expect: &ExpectClause{
				Status: "ok",
				Result: map[string]interface{}{"owner": "bob", "created_at": 11, "missing": "y"},
			}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Instruction: "store_memory", Count: 2},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	// Default expectation is success.
	assert.Equal(t, "flow[0] verify_memory: expected ok, got failed (NOT_FOUND)", result.Errors[0])
	assert.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors, "flow[1] store_memory: result.missing missing")
	assert.Contains(t, result.Errors, "flow[1] store_memory: result.owner: expected bob, got alice")
	assert.Contains(t, result.Errors[len(result.Errors)-1], "2 occurrences of store_memory")
}

func TestRun_IsDeterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "store_verify_reward.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestAliases_Rewrite(t *testing.T) {
	a := newAliases()
	alice := testutil.Address("alice")
	a.add("alice", alice)
	a.add("other-name", alice)

	assert.Equal(t, "owner=alice, again alice", a.rewrite("owner="+alice.String()+", again "+alice.String()))
	assert.Equal(t, ir.IRString("alice"), a.value(ir.IRString(alice.String())))
	assert.Equal(t, ir.IRString("hello"), a.value(ir.IRString("hello")))
}
