package sweep

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// GridConfig lists the hyperparameter values of a grid search. Every
// combination is one trial with the partitioning strategy.
type GridConfig struct {
	TaskThresholds []int
	TimeThresholds []int
}

// Points returns the grid in task-threshold-major order.
func (g GridConfig) Points() []Hyperparameters {
	out := make([]Hyperparameters, 0, len(g.TaskThresholds)*len(g.TimeThresholds))
	for _, n := range g.TaskThresholds {
		for _, t := range g.TimeThresholds {
			out = append(out, Hyperparameters{TaskThreshold: n, TimeThreshold: t})
		}
	}
	return out
}

// EvaluationConfig compares one deterministic trial against
// RandomRepetitions randomized trials per distribution.
type EvaluationConfig struct {
	Params            Hyperparameters
	RandomRepetitions int
}

// WorkflowResolver turns a source into a resolved workflow.
type WorkflowResolver interface {
	Resolve(ctx context.Context, src WorkflowSource) (*Workflow, error)
}

// Anomaly is a sweep branch that produced no trials.
type Anomaly struct {
	Kind         string
	Workflow     string
	Topology     string
	Distribution int // -1 when the whole workflow or topology branch was skipped
	Err          error
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s: workflow=%s topology=%s distribution=%d: %v", a.Kind, a.Workflow, a.Topology, a.Distribution, a.Err)
}

// Report summarizes a finished (or interrupted) sweep.
type Report struct {
	Trials    int
	Succeeded int
	Failed    int
	Anomalies []Anomaly
}

// Controller enumerates workflows × topologies × distributions × strategies
// × hyperparameters and runs one trial per point, strictly sequentially.
type Controller struct {
	Mode          Mode
	Sources       []WorkflowSource
	Resolver      WorkflowResolver
	Topologies    []*Topology
	Distributions int
	Grid          GridConfig
	Evaluation    EvaluationConfig
	Executor      TrialExecutor
	Aggregator    *Aggregator
	Metrics       *Metrics
	RNG           *rand.Rand

	runCounter int
	report     Report
}

// Run executes the sweep. It returns early only when ctx is cancelled or the
// master table cannot be written; trial failures and skipped branches are
// reported, not returned.
func (c *Controller) Run(ctx context.Context) (*Report, error) {
	if c.Mode != ModeGridSearch && c.Mode != ModeEvaluation {
		return nil, configErrorf("unknown sweep mode %q", c.Mode)
	}
	if c.Executor == nil || c.Aggregator == nil || c.Resolver == nil || c.RNG == nil {
		return nil, configErrorf("controller is missing a collaborator")
	}

	for _, src := range c.Sources {
		wf, err := c.Resolver.Resolve(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return &c.report, ctx.Err()
			}
			c.anomaly(Anomaly{Kind: AnomalyWorkflow, Workflow: src.Name, Distribution: -1, Err: err})
			continue
		}
		for _, topo := range c.Topologies {
			if err := c.runTopology(ctx, wf, topo); err != nil {
				return &c.report, err
			}
		}
	}
	return &c.report, nil
}

func (c *Controller) runTopology(ctx context.Context, wf *Workflow, topo *Topology) error {
	budgets, err := Allocate(topo, wf.TotalSize)
	if err != nil {
		c.anomaly(Anomaly{Kind: AnomalyConfig, Workflow: wf.Name, Topology: topo.Name, Distribution: -1, Err: err})
		return nil
	}

	for i := 0; i < c.Distributions; i++ {
		plan, err := Distribute(budgets, wf.Files, c.RNG)
		switch {
		case errors.Is(err, ErrNoFeasibleSite):
			c.anomaly(Anomaly{Kind: AnomalyInfeasible, Workflow: wf.Name, Topology: topo.Name, Distribution: i, Err: err})
			continue
		case err != nil:
			c.anomaly(Anomaly{Kind: AnomalyConfig, Workflow: wf.Name, Topology: topo.Name, Distribution: -1, Err: err})
			return nil
		}

		if c.Mode == ModeGridSearch {
			err = c.runGridPoints(ctx, wf, topo, budgets, plan, i)
		} else {
			err = c.runEvaluation(ctx, wf, topo, budgets, plan, i)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) runGridPoints(ctx context.Context, wf *Workflow, topo *Topology, budgets Budgets, plan *Plan, distribution int) error {
	for _, params := range c.Grid.Points() {
		c.runCounter++
		name := fmt.Sprintf("%05d_%s_%s_distribution%d_n%d_t%d",
			c.runCounter, wf.Name, topo.Name, distribution, params.TaskThreshold, params.TimeThreshold)
		logrus.Infof("[TRIAL %05d]: %s", c.runCounter, name)

		rc, err := NewRunConfig(topo, budgets, plan, wf.Path, StrategyPartition, params)
		if err != nil {
			return err
		}
		coords := Coordinates{
			Topology: topo.Name, Distribution: distribution, RunCounter: c.runCounter,
			Repetition: -1, Strategy: StrategyPartition, Params: params,
		}
		if err := c.trial(ctx, wf, name, rc, coords); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) runEvaluation(ctx context.Context, wf *Workflow, topo *Topology, budgets Budgets, plan *Plan, distribution int) error {
	c.runCounter++
	params := c.Evaluation.Params
	suffix := fmt.Sprintf("%s_%s_distribution%d_n%d_t%d", wf.Name, topo.Name, distribution, params.TaskThreshold, params.TimeThreshold)

	name := fmt.Sprintf("%s_%d_%s", StrategyPartition, c.runCounter, suffix)
	logrus.Infof("[TRIAL %05d]: %s", c.runCounter, name)
	rc, err := NewRunConfig(topo, budgets, plan, wf.Path, StrategyPartition, params)
	if err != nil {
		return err
	}
	coords := Coordinates{
		Topology: topo.Name, Distribution: distribution, RunCounter: c.runCounter,
		Repetition: -1, Strategy: StrategyPartition, Params: params,
	}
	if err := c.trial(ctx, wf, name, rc, coords); err != nil {
		return err
	}

	rnd, err := NewRunConfig(topo, budgets, plan, wf.Path, StrategyRandom, params)
	if err != nil {
		return err
	}
	for j := 0; j < c.Evaluation.RandomRepetitions; j++ {
		name := fmt.Sprintf("%s_%d_%d_%s", StrategyRandom, c.runCounter, j, suffix)
		logrus.Infof("[TRIAL %05d RND %02d]: %s", c.runCounter, j, name)
		coords := Coordinates{
			Topology: topo.Name, Distribution: distribution, RunCounter: c.runCounter,
			Repetition: j, Strategy: StrategyRandom, Params: params,
		}
		if err := c.trial(ctx, wf, name, rnd.WithSeed(c.RNG.Int63()), coords); err != nil {
			return err
		}
	}
	return nil
}

// trial runs and records one trial. Only cancellation and master-table write
// errors are returned. A trial interrupted by cancellation is neither counted
// nor recorded.
func (c *Controller) trial(ctx context.Context, wf *Workflow, name string, rc *RunConfig, coords Coordinates) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	res := c.Executor.Execute(ctx, name, rc)
	if err := ctx.Err(); err != nil {
		logrus.Warnf("trial %s interrupted, not recorded", name)
		return err
	}
	c.Metrics.ObserveTrial(c.Mode, coords.Strategy, res.Status, time.Since(start))

	c.report.Trials++
	if res.Status == StatusSuccess {
		c.report.Succeeded++
	} else {
		c.report.Failed++
	}
	if _, err := c.Aggregator.Record(wf, res, coords); err != nil {
		return err
	}
	return nil
}

func (c *Controller) anomaly(a Anomaly) {
	if a.Kind == AnomalyInfeasible {
		logrus.Warnf("skipping distribution: %s", a)
	} else {
		logrus.Errorf("skipping branch: %s", a)
	}
	c.Metrics.ObserveAnomaly(a.Kind)
	c.report.Anomalies = append(c.report.Anomalies, a)
}
