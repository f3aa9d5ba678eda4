package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Mode selects the kind of sweep. Its value prefixes every output directory.
type Mode string

const (
	ModeGridSearch Mode = "grid_search"
	ModeEvaluation Mode = "evaluation"
)

// Dirs is the per-mode output tree.
type Dirs struct {
	Inputs             string
	RunConfigs         string
	Logs               string
	Results            string
	SyntheticWorkflows string
	MasterTable        string
	Metrics            string
}

// NewDirs lays out the output tree for mode under root.
func NewDirs(root string, mode Mode) Dirs {
	prefix := filepath.Join(root, string(mode))
	return Dirs{
		Inputs:             prefix + "_inputs",
		RunConfigs:         prefix + "_run_configs",
		Logs:               prefix + "_logs",
		Results:            prefix + "_results",
		SyntheticWorkflows: prefix + "_synthetic_wfs",
		MasterTable:        prefix + "_final_results.csv",
		Metrics:            prefix + "_metrics.prom",
	}
}

// Create makes every directory of the tree.
func (d Dirs) Create() error {
	for _, dir := range []string{d.Inputs, d.RunConfigs, d.Logs, d.Results, d.SyntheticWorkflows} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// TrialPaths returns the artifact paths of the named trial.
func (d Dirs) TrialPaths(name string) TrialPaths {
	return TrialPaths{
		Config: filepath.Join(d.RunConfigs, name+".json"),
		Log:    filepath.Join(d.Logs, name+".log"),
		Result: filepath.Join(d.Results, name+".csv"),
	}
}

// TrialExecutor runs one trial. Implementations never fail the sweep: every
// problem is folded into a FAILURE result.
type TrialExecutor interface {
	Execute(ctx context.Context, name string, rc *RunConfig) TrialResult
}

// Executor runs trials against an Engine and classifies them by the
// existence of the result artifact.
type Executor struct {
	Engine Engine
	Dirs   Dirs
}

// NewExecutor creates an Executor writing its artifacts under dirs.
func NewExecutor(engine Engine, dirs Dirs) *Executor {
	return &Executor{Engine: engine, Dirs: dirs}
}

// Execute writes the run configuration, invokes the engine and reads the
// result artifact. The exit status of the engine is not consulted: a missing
// artifact is a failure, a present one a success. On failure the captured
// error stream is appended to the trial log under an ERROR: marker.
func (e *Executor) Execute(ctx context.Context, name string, rc *RunConfig) TrialResult {
	paths := e.Dirs.TrialPaths(name)

	if err := WriteRunConfig(paths.Config, rc); err != nil {
		logrus.Errorf("trial %s: %v", name, err)
		e.appendError(name, paths.Log, []byte(err.Error()))
		return failedTrial()
	}
	// A stale artifact from an earlier sweep would mask a failure.
	if err := os.Remove(paths.Result); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("trial %s: removing stale result: %v", name, err)
	}

	out, err := e.Engine.RunTrial(ctx, paths)
	stderr := out.Stderr
	if err != nil {
		stderr = append(append([]byte(nil), stderr...), []byte(err.Error()+"\n")...)
	}
	logrus.Debugf("trial %s: engine exit status %d, %d bytes stdout", name, out.ExitCode, len(out.Stdout))

	if _, statErr := os.Stat(paths.Result); statErr != nil {
		e.appendError(name, paths.Log, stderr)
		return failedTrial()
	}

	res, err := LoadResult(paths.Result)
	if err != nil {
		logrus.Warnf("trial %s: %v", name, err)
		e.appendError(name, paths.Log, []byte(err.Error()+"\n"))
		return failedTrial()
	}
	return res
}

func (e *Executor) appendError(name, logPath string, diagnostic []byte) {
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logrus.Errorf("trial %s: opening log: %v", name, err)
		return
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append([]byte("ERROR: \n"), diagnostic...)); err != nil {
		logrus.Errorf("trial %s: writing log: %v", name, err)
	}
}
