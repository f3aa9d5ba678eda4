package sweep

import (
	"encoding/json"
	"fmt"
	"os"
)

// Strategy is the placement/execution policy of a trial.
type Strategy string

const (
	StrategyPartition Strategy = "PART" // deterministic partitioning
	StrategyRandom    Strategy = "RND"  // randomized placement
)

// Hyperparameters are the engine scheduling thresholds.
type Hyperparameters struct {
	TaskThreshold int // N
	TimeThreshold int // T, in seconds
}

// RunConfig is the full input of one trial. Build with NewRunConfig; the
// plan is copied so that trials sharing a distribution stay independent.
type RunConfig struct {
	Topology     *Topology
	Budgets      Budgets
	Plan         *Plan
	WorkflowPath string
	Strategy     Strategy
	Params       Hyperparameters
	Seed         int64 // randomized trials only; carried for engines that read it, 0 omits it
}

// NewRunConfig assembles a run configuration.
func NewRunConfig(topo *Topology, budgets Budgets, plan *Plan, workflowPath string, strategy Strategy, params Hyperparameters) (*RunConfig, error) {
	if topo == nil || plan == nil {
		return nil, configErrorf("run config needs a topology and a plan")
	}
	for _, s := range topo.Sites {
		if _, ok := budgets.Of(s.ID); !ok {
			return nil, configErrorf("topology %q: site %d has no storage budget", topo.Name, s.ID)
		}
	}
	return &RunConfig{
		Topology:     topo,
		Budgets:      append(Budgets(nil), budgets...),
		Plan:         plan.Clone(),
		WorkflowPath: workflowPath,
		Strategy:     strategy,
		Params:       params,
	}, nil
}

// WithSeed returns a copy of rc carrying the given engine seed.
func (rc *RunConfig) WithSeed(seed int64) *RunConfig {
	cp := *rc
	cp.Plan = rc.Plan.Clone()
	cp.Budgets = append(Budgets(nil), rc.Budgets...)
	cp.Seed = seed
	return &cp
}

// Wire format read by the engine's config parser.
type runConfigDoc struct {
	Name          string          `json:"name"`
	NumSites      int             `json:"numSites"`
	Sites         []siteDoc       `json:"sites"`
	Connections   []connectionDoc `json:"connections"`
	Files         []fileDoc       `json:"files"`
	WorkflowPath  string          `json:"workflowPath"`
	Strategy      Strategy        `json:"strategy"`
	TaskThreshold int             `json:"taskThreshold"`
	SecThreshold  int             `json:"secThreshold"`
	Seed          int64           `json:"seed,omitempty"`
}

type siteDoc struct {
	ID      int       `json:"id"`
	Type    SiteClass `json:"type"`
	RAM     int       `json:"ram"`
	MIPS    int       `json:"mips"`
	PEs     int       `json:"pes"`
	IntraBw float64   `json:"intraBw"`
	Storage float64   `json:"storage"`
}

type connectionDoc struct {
	Site1ID   int     `json:"site1Id"`
	Site2ID   int     `json:"site2Id"`
	Bandwidth float64 `json:"bandwidth"`
}

type fileDoc struct {
	Name   string `json:"name"`
	SiteID int    `json:"siteId"`
	Size   int64  `json:"size"`
}

// MarshalJSON renders rc in the engine's input format.
func (rc *RunConfig) MarshalJSON() ([]byte, error) {
	doc := runConfigDoc{
		Name:          rc.Topology.Name,
		NumSites:      len(rc.Topology.Sites),
		WorkflowPath:  rc.WorkflowPath,
		Strategy:      rc.Strategy,
		TaskThreshold: rc.Params.TaskThreshold,
		SecThreshold:  rc.Params.TimeThreshold,
		Seed:          rc.Seed,
	}
	for _, s := range rc.Topology.Sites {
		storage, _ := rc.Budgets.Of(s.ID)
		doc.Sites = append(doc.Sites, siteDoc{
			ID: s.ID, Type: s.Class, RAM: s.RAM, MIPS: s.ComputeRate,
			PEs: s.CoreCount, IntraBw: s.IntraBandwidth, Storage: storage,
		})
	}
	for _, c := range rc.Topology.Connections {
		doc.Connections = append(doc.Connections, connectionDoc{Site1ID: c.SiteA, Site2ID: c.SiteB, Bandwidth: c.Bandwidth})
	}
	for _, a := range rc.Plan.Assignments {
		doc.Files = append(doc.Files, fileDoc{Name: a.Name, SiteID: a.SiteID, Size: a.Size})
	}
	return json.Marshal(doc)
}

// WriteRunConfig writes rc to path.
func WriteRunConfig(path string, rc *RunConfig) error {
	data, err := json.MarshalIndent(rc, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling run config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing run config: %w", err)
	}
	return nil
}
