package sweep

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type controllerFixture struct {
	ctrl   *Controller
	engine *fakeEngine
	table  *bytes.Buffer
}

func newControllerFixture(t *testing.T, mode Mode, wfs ...*Workflow) *controllerFixture {
	t.Helper()
	dirs := newTestDirs(t, mode)
	table := &bytes.Buffer{}
	agg, err := NewAggregator(table, mode)
	require.NoError(t, err)

	resolver := staticResolver{}
	var sources []WorkflowSource
	for _, wf := range wfs {
		resolver[wf.Name] = wf
		sources = append(sources, WorkflowSource{Name: wf.Name, Path: wf.Path})
	}
	eng := &fakeEngine{}
	return &controllerFixture{
		ctrl: &Controller{
			Mode:          mode,
			Sources:       sources,
			Resolver:      resolver,
			Topologies:    []*Topology{twoSiteTopology(t)},
			Distributions: 1,
			Grid: GridConfig{
				TaskThresholds: []int{0, 1, 10, 100},
				TimeThresholds: []int{0, 1, 10, 60},
			},
			Evaluation: EvaluationConfig{RandomRepetitions: 3},
			Executor:   NewExecutor(eng, dirs),
			Aggregator: agg,
			Metrics:    NewMetrics("test"),
			RNG:        testRNG(),
		},
		engine: eng,
		table:  table,
	}
}

func (f *controllerFixture) rows(t *testing.T) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(f.table.Bytes())).ReadAll()
	require.NoError(t, err)
	return records[1:]
}

func TestController_GridSearch_SixteenTrials(t *testing.T) {
	// GIVEN one workflow, one topology and one distribution
	f := newControllerFixture(t, ModeGridSearch, smallWorkflow("wf"))

	// WHEN the grid search runs
	report, err := f.ctrl.Run(testContext(t))
	require.NoError(t, err)

	// THEN the 4x4 grid yields exactly 16 trials and rows
	assert.Equal(t, 16, report.Trials)
	assert.Equal(t, 16, report.Succeeded)
	assert.Len(t, f.rows(t), 16)
	assert.Len(t, f.engine.calls, 16)

	seen := map[string]bool{}
	for _, p := range f.engine.calls {
		assert.False(t, seen[p.Config], "duplicate trial artifact %s", p.Config)
		seen[p.Config] = true
	}
	assert.Equal(t, "00001_wf_two_distribution0_n0_t0.json", filepath.Base(f.engine.calls[0].Config))
	assert.Equal(t, "00016_wf_two_distribution0_n100_t60.json", filepath.Base(f.engine.calls[15].Config))
}

func TestController_GridSearch_UsesPartitioningStrategy(t *testing.T) {
	f := newControllerFixture(t, ModeGridSearch, smallWorkflow("wf"))
	f.ctrl.Grid = GridConfig{TaskThresholds: []int{5}, TimeThresholds: []int{7}}
	_, err := f.ctrl.Run(testContext(t))
	require.NoError(t, err)

	data, err := os.ReadFile(f.engine.calls[0].Config)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"strategy": "PART"`)
	assert.Contains(t, string(data), `"taskThreshold": 5`)
	assert.Contains(t, string(data), `"secThreshold": 7`)
}

func TestController_Evaluation_DeterministicPlusRepetitions(t *testing.T) {
	f := newControllerFixture(t, ModeEvaluation, smallWorkflow("wf"))
	f.ctrl.Distributions = 2

	report, err := f.ctrl.Run(testContext(t))
	require.NoError(t, err)

	// (1 PART + 3 RND) per distribution
	assert.Equal(t, 8, report.Trials)
	rows := f.rows(t)
	require.Len(t, rows, 8)

	// run counter per distribution, repetition -1 for PART
	reps := []string{}
	counters := []string{}
	for _, r := range rows {
		counters = append(counters, r[9])
		reps = append(reps, r[10])
	}
	assert.Equal(t, []string{"1", "1", "1", "1", "2", "2", "2", "2"}, counters)
	assert.Equal(t, []string{"-1", "0", "1", "2", "-1", "0", "1", "2"}, reps)

	assert.Equal(t, "PART_1_wf_two_distribution0_n0_t0.json", filepath.Base(f.engine.calls[0].Config))
	assert.Equal(t, "RND_1_2_wf_two_distribution0_n0_t0.json", filepath.Base(f.engine.calls[3].Config))

	// randomized trials carry distinct seeds, the deterministic one none
	part, err := os.ReadFile(f.engine.calls[0].Config)
	require.NoError(t, err)
	assert.NotContains(t, string(part), `"seed"`)
	r0, err := os.ReadFile(f.engine.calls[1].Config)
	require.NoError(t, err)
	r1, err := os.ReadFile(f.engine.calls[2].Config)
	require.NoError(t, err)
	assert.Contains(t, string(r0), `"strategy": "RND"`)
	assert.NotEqual(t, string(r0), string(r1))
}

func TestController_FailuresStillProduceRows(t *testing.T) {
	f := newControllerFixture(t, ModeGridSearch, smallWorkflow("wf"))
	n := 0
	f.engine.run = func(p TrialPaths) (EngineOutput, error) {
		n++
		if n%2 == 0 {
			return EngineOutput{Stderr: []byte("crash")}, nil
		}
		return writeResult(p, 10, 1, 2), nil
	}

	report, err := f.ctrl.Run(testContext(t))
	require.NoError(t, err)

	assert.Equal(t, 8, report.Succeeded)
	assert.Equal(t, 8, report.Failed)
	rows := f.rows(t)
	require.Len(t, rows, 16)
	assert.Equal(t, "SUCCESS", rows[0][5])
	assert.Equal(t, []string{"0", "0"}, rows[1][1:3])
	assert.Equal(t, "FAILURE", rows[1][5])
}

func TestController_InfeasibleDistributionIsSkippedAndRecorded(t *testing.T) {
	// Two 290-byte files, budgets 150 and 300: the second never fits.
	wf := &Workflow{Name: "tight", Path: "tight.xml", TotalSize: 300, InputSize: 580,
		Files: []FileEntry{{Name: "x", Size: 290}, {Name: "y", Size: 290}}}
	f := newControllerFixture(t, ModeGridSearch, wf, smallWorkflow("ok"))
	f.ctrl.Distributions = 2

	report, err := f.ctrl.Run(testContext(t))
	require.NoError(t, err)

	require.Len(t, report.Anomalies, 2)
	for i, a := range report.Anomalies {
		assert.Equal(t, AnomalyInfeasible, a.Kind)
		assert.Equal(t, "tight", a.Workflow)
		assert.Equal(t, i, a.Distribution)
		assert.ErrorIs(t, a.Err, ErrNoFeasibleSite)
	}
	assert.Equal(t, 32, report.Trials)
	assert.Len(t, f.rows(t), 32)
}

func TestController_UnresolvableWorkflowIsSkipped(t *testing.T) {
	f := newControllerFixture(t, ModeGridSearch, smallWorkflow("ok"))
	f.ctrl.Sources = append([]WorkflowSource{{Name: "missing"}}, f.ctrl.Sources...)

	report, err := f.ctrl.Run(testContext(t))
	require.NoError(t, err)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, AnomalyWorkflow, report.Anomalies[0].Kind)
	assert.Equal(t, 16, report.Trials)
}

func TestController_EmptyInventoryAbortsBranch(t *testing.T) {
	wf := &Workflow{Name: "empty", TotalSize: 10}
	f := newControllerFixture(t, ModeGridSearch, wf)
	f.ctrl.Distributions = 3

	report, err := f.ctrl.Run(testContext(t))
	require.NoError(t, err)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, AnomalyConfig, report.Anomalies[0].Kind)
	assert.Zero(t, report.Trials)
}

func TestController_ZeroSiteTopologyAbortsOnlyThatBranch(t *testing.T) {
	f := newControllerFixture(t, ModeGridSearch, smallWorkflow("wf"))
	f.ctrl.Topologies = append([]*Topology{{Name: "hollow"}}, f.ctrl.Topologies...)

	report, err := f.ctrl.Run(testContext(t))
	require.NoError(t, err)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, "hollow", report.Anomalies[0].Topology)
	assert.Equal(t, 16, report.Trials)
}

// cancelAfterRow cancels the sweep once the first trial row is written.
type cancelAfterRow struct {
	w      io.Writer
	cancel context.CancelFunc
}

func (c cancelAfterRow) Write(p []byte) (int, error) {
	c.cancel()
	return c.w.Write(p)
}

func TestController_CancelledContextStopsBetweenTrials(t *testing.T) {
	f := newControllerFixture(t, ModeGridSearch, smallWorkflow("wf"))
	ctx, cancel := context.WithCancel(testContext(t))
	f.ctrl.Aggregator.w = csv.NewWriter(cancelAfterRow{w: f.table, cancel: cancel})

	report, err := f.ctrl.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, report.Trials)
	assert.Len(t, f.rows(t), 1)
	assert.Len(t, f.engine.calls, 1)
}

func TestController_InterruptedTrialIsNotRecorded(t *testing.T) {
	// GIVEN an engine killed by cancellation before writing its artifact
	f := newControllerFixture(t, ModeGridSearch, smallWorkflow("wf"))
	ctx, cancel := context.WithCancel(testContext(t))
	f.engine.run = func(TrialPaths) (EngineOutput, error) {
		cancel()
		return EngineOutput{ExitCode: -1}, nil
	}

	// WHEN the sweep runs
	report, err := f.ctrl.Run(ctx)

	// THEN it stops without a FAILURE row for the interrupted trial
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Trials)
	assert.Zero(t, report.Failed)
	assert.Empty(t, f.rows(t))
	assert.Len(t, f.engine.calls, 1)
}

func TestController_SameSeedSameSweep(t *testing.T) {
	run := func() []string {
		f := newControllerFixture(t, ModeEvaluation, smallWorkflow("wf"))
		f.ctrl.Distributions = 3
		_, err := f.ctrl.Run(testContext(t))
		require.NoError(t, err)
		var configs []string
		for _, p := range f.engine.calls {
			data, err := os.ReadFile(p.Config)
			require.NoError(t, err)
			configs = append(configs, string(data))
		}
		return configs
	}
	assert.Equal(t, run(), run())
}

func TestController_RowCountEqualsTrialCount(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mode := rapid.SampledFrom([]Mode{ModeGridSearch, ModeEvaluation}).Draw(rt, "mode")
		f := newControllerFixture(t, mode, smallWorkflow("a"), smallWorkflow("b"))
		f.ctrl.Distributions = rapid.IntRange(1, 3).Draw(rt, "distributions")
		f.ctrl.Evaluation.RandomRepetitions = rapid.IntRange(0, 4).Draw(rt, "reps")
		f.ctrl.Grid = GridConfig{
			TaskThresholds: rapid.SliceOfN(rapid.IntRange(0, 100), 1, 3).Draw(rt, "n"),
			TimeThresholds: rapid.SliceOfN(rapid.IntRange(0, 60), 1, 3).Draw(rt, "t"),
		}
		failEvery := rapid.IntRange(1, 4).Draw(rt, "failEvery")
		calls := 0
		f.engine.run = func(p TrialPaths) (EngineOutput, error) {
			calls++
			if calls%failEvery == 0 {
				return EngineOutput{Stderr: []byte("fail")}, nil
			}
			return writeResult(p, 1, 1, 1), nil
		}

		report, err := f.ctrl.Run(context.Background())
		if err != nil {
			rt.Fatalf("Run: %v", err)
		}

		perDistribution := len(f.ctrl.Grid.Points())
		if mode == ModeEvaluation {
			perDistribution = 1 + f.ctrl.Evaluation.RandomRepetitions
		}
		want := 2 * f.ctrl.Distributions * perDistribution
		rows := strings.Count(f.table.String(), "\n") - 1
		if report.Trials != want || rows != want || f.ctrl.Aggregator.Rows() != want {
			rt.Fatalf("trials=%d rows=%d aggregator=%d, want %d", report.Trials, rows, f.ctrl.Aggregator.Rows(), want)
		}
		if report.Succeeded+report.Failed != report.Trials {
			rt.Fatalf("succeeded %d + failed %d != trials %d", report.Succeeded, report.Failed, report.Trials)
		}
	})
}
