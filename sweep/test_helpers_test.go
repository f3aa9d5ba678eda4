package sweep

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEngine stands in for the Java engine. run decides, per trial, what the
// engine leaves behind; nil run writes a fixed successful result.
type fakeEngine struct {
	run       func(paths TrialPaths) (EngineOutput, error)
	inventory func(workflowPath, inventoryPath string) (EngineOutput, error)
	calls     []TrialPaths
}

func (f *fakeEngine) RunTrial(_ context.Context, paths TrialPaths) (EngineOutput, error) {
	f.calls = append(f.calls, paths)
	if f.run == nil {
		return writeResult(paths, 500, 20, 100), nil
	}
	return f.run(paths)
}

func (f *fakeEngine) Inventory(_ context.Context, workflowPath, inventoryPath string) (EngineOutput, error) {
	if f.inventory == nil {
		return EngineOutput{Stderr: []byte("no inventory configured")}, nil
	}
	return f.inventory(workflowPath, inventoryPath)
}

// writeResult writes a well-formed result artifact for paths.
func writeResult(paths TrialPaths, transferred, transferTime, makespan float64) EngineOutput {
	body := fmt.Sprintf("TransferredData,%v\nTransferTime,%v\nMakespan,%v\n", transferred, transferTime, makespan)
	if err := os.WriteFile(paths.Result, []byte(body), 0644); err != nil {
		panic(err)
	}
	return EngineOutput{}
}

// newTestDirs creates a full output tree under a temp dir.
func newTestDirs(t *testing.T, mode Mode) Dirs {
	t.Helper()
	dirs := NewDirs(t.TempDir(), mode)
	require.NoError(t, dirs.Create())
	return dirs
}

// staticResolver resolves every source to a prebuilt workflow by name.
type staticResolver map[string]*Workflow

func (s staticResolver) Resolve(_ context.Context, src WorkflowSource) (*Workflow, error) {
	wf, ok := s[src.Name]
	if !ok {
		return nil, fmt.Errorf("unknown workflow %s", src.Name)
	}
	return wf, nil
}

// smallWorkflow has plenty of slack so that distribution never fails.
func smallWorkflow(name string) *Workflow {
	return &Workflow{
		Name:      name,
		Path:      filepath.Join("dax", name+".xml"),
		TotalSize: 1000,
		InputSize: 100,
		Files: []FileEntry{
			{Name: "a.dat", Size: 10},
			{Name: "b.dat", Size: 20},
			{Name: "c.dat", Size: 30},
			{Name: "d.dat", Size: 40},
		},
	}
}

func twoSiteTopology(t *testing.T) *Topology {
	t.Helper()
	topo, err := NewTopology("two", []Site{smallSite(0), largeSite(1)},
		[]Connection{{SiteA: 0, SiteB: 1, Bandwidth: baseBandwidth}})
	require.NoError(t, err)
	return topo
}

func testRNG() *rand.Rand {
	return NewRNG(NewSweepKey(42))
}

// testContext stands in for testing.T.Context (Go 1.24+): a context that is
// cancelled when the test finishes.
func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
