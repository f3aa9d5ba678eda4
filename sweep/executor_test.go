package sweep

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunConfig(t *testing.T) *RunConfig {
	t.Helper()
	topo := twoSiteTopology(t)
	budgets, err := Allocate(topo, 1000)
	require.NoError(t, err)
	plan, err := Distribute(budgets, smallWorkflow("wf").Files, testRNG())
	require.NoError(t, err)
	rc, err := NewRunConfig(topo, budgets, plan, "wf.xml", StrategyPartition, Hyperparameters{})
	require.NoError(t, err)
	return rc
}

func TestExecute_ResultArtifact_Success(t *testing.T) {
	dirs := newTestDirs(t, ModeGridSearch)
	eng := &fakeEngine{run: func(p TrialPaths) (EngineOutput, error) {
		// exit status is not consulted when the artifact exists
		out := writeResult(p, 300, 5, 50)
		out.ExitCode = 1
		return out, nil
	}}
	ex := NewExecutor(eng, dirs)

	res := ex.Execute(testContext(t), "trial", testRunConfig(t))

	assert.Equal(t, TrialResult{Status: StatusSuccess, TransferredBytes: 300, TransferTime: 5, Makespan: 50}, res)
	require.Len(t, eng.calls, 1)
	assert.FileExists(t, eng.calls[0].Config)
	assert.NoFileExists(t, eng.calls[0].Log)
}

func TestExecute_NoArtifact_FailureAndErrorLog(t *testing.T) {
	// GIVEN an engine that exits cleanly but writes no result
	dirs := newTestDirs(t, ModeEvaluation)
	eng := &fakeEngine{run: func(TrialPaths) (EngineOutput, error) {
		return EngineOutput{Stderr: []byte("no feasible placement for job 7\n")}, nil
	}}
	ex := NewExecutor(eng, dirs)

	// WHEN the trial runs
	res := ex.Execute(testContext(t), "trial", testRunConfig(t))

	// THEN it fails with zero metrics and the stderr lands after ERROR:
	assert.Equal(t, TrialResult{Status: StatusFailure}, res)
	log, err := os.ReadFile(dirs.TrialPaths("trial").Log)
	require.NoError(t, err)
	assert.Equal(t, "ERROR: \nno feasible placement for job 7\n", string(log))
}

func TestExecute_NoArtifact_AppendsToExistingLog(t *testing.T) {
	dirs := newTestDirs(t, ModeGridSearch)
	paths := dirs.TrialPaths("trial")
	require.NoError(t, os.WriteFile(paths.Log, []byte("engine log\n"), 0644))
	eng := &fakeEngine{run: func(TrialPaths) (EngineOutput, error) {
		return EngineOutput{Stderr: []byte("boom")}, nil
	}}

	NewExecutor(eng, dirs).Execute(testContext(t), "trial", testRunConfig(t))

	log, err := os.ReadFile(paths.Log)
	require.NoError(t, err)
	assert.Equal(t, "engine log\nERROR: \nboom", string(log))
}

func TestExecute_EngineCannotStart_Failure(t *testing.T) {
	dirs := newTestDirs(t, ModeGridSearch)
	eng := &fakeEngine{run: func(TrialPaths) (EngineOutput, error) {
		return EngineOutput{}, errors.New("exec: \"java\": executable file not found in $PATH")
	}}

	res := NewExecutor(eng, dirs).Execute(testContext(t), "trial", testRunConfig(t))

	assert.Equal(t, StatusFailure, res.Status)
	log, err := os.ReadFile(dirs.TrialPaths("trial").Log)
	require.NoError(t, err)
	assert.Contains(t, string(log), "ERROR:")
	assert.Contains(t, string(log), "executable file not found")
}

func TestExecute_MalformedArtifact_Failure(t *testing.T) {
	dirs := newTestDirs(t, ModeGridSearch)
	eng := &fakeEngine{run: func(p TrialPaths) (EngineOutput, error) {
		return EngineOutput{}, os.WriteFile(p.Result, []byte("Makespan,soon\n"), 0644)
	}}

	res := NewExecutor(eng, dirs).Execute(testContext(t), "trial", testRunConfig(t))

	assert.Equal(t, TrialResult{Status: StatusFailure}, res)
	log, err := os.ReadFile(dirs.TrialPaths("trial").Log)
	require.NoError(t, err)
	assert.Contains(t, string(log), "ERROR:")
	assert.Contains(t, string(log), ErrMalformedResult.Error())
}

func TestExecute_StaleArtifactRemoved(t *testing.T) {
	dirs := newTestDirs(t, ModeGridSearch)
	paths := dirs.TrialPaths("trial")
	writeResult(paths, 1, 1, 1)
	eng := &fakeEngine{run: func(TrialPaths) (EngineOutput, error) { return EngineOutput{}, nil }}

	res := NewExecutor(eng, dirs).Execute(testContext(t), "trial", testRunConfig(t))

	assert.Equal(t, StatusFailure, res.Status)
}
