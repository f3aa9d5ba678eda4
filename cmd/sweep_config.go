package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fedsweep/fedsweep/sweep"
)

// SweepConfig is the full sweep YAML structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type SweepConfig struct {
	Seed          int64              `yaml:"seed"`
	Distributions int                `yaml:"distributions"`
	OutputDir     string             `yaml:"output_dir"`
	Topologies    []string           `yaml:"topologies"` // subset by name; empty = all four
	Engine        sweep.EngineConfig `yaml:"engine"`
	Grid          GridSection        `yaml:"grid"`
	Evaluation    EvaluationSection  `yaml:"evaluation"`
	Workflows     WorkflowsSection   `yaml:"workflows"`
}

// GridSection lists the threshold values of a grid search.
type GridSection struct {
	TaskThresholds []int `yaml:"task_thresholds"`
	TimeThresholds []int `yaml:"time_thresholds"`
}

// EvaluationSection fixes the thresholds and repetition count of an evaluation.
type EvaluationSection struct {
	TaskThreshold     int `yaml:"task_threshold"`
	TimeThreshold     int `yaml:"time_threshold"`
	RandomRepetitions int `yaml:"random_repetitions"`
}

// WorkflowsSection lists the synthetic and real workflows to sweep.
type WorkflowsSection struct {
	Synthetic SyntheticSection `yaml:"synthetic"`
	Real      []RealWorkflow   `yaml:"real"`
}

// SyntheticSection describes generated workflows. Generator is an argv
// template; "{family}" and "{path}" are substituted. With no generator the
// files must already exist under Dir.
type SyntheticSection struct {
	Families  []string `yaml:"families"`
	Instances int      `yaml:"instances"`
	Dir       string   `yaml:"dir"`
	Generator []string `yaml:"generator"`
}

// RealWorkflow is an existing workflow description on disk.
type RealWorkflow struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// DefaultSweepConfig returns the published experiment settings.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Seed:          42,
		Distributions: 5,
		OutputDir:     ".",
		Engine: sweep.EngineConfig{
			JavaHome:    "/usr/lib/jvm/jdk1.8.0_202",
			Classpath:   "../lib/*:../bin:../../lib/*",
			MainClass:   "federatedSim.FederatedTwoSites",
			HelperClass: "federatedSim.getInputFilesHelper",
		},
		Grid: GridSection{
			TaskThresholds: []int{0, 1, 10, 100},
			TimeThresholds: []int{0, 1, 10, 60},
		},
		Evaluation: EvaluationSection{RandomRepetitions: 30},
		Workflows: WorkflowsSection{
			Synthetic: SyntheticSection{
				Families:  []string{"aggregation", "distribution", "groups", "longPipeline", "multiPipeline", "redistribution"},
				Instances: 5,
			},
			Real: []RealWorkflow{
				{Name: "CyberShake_30", Path: "../../config/dax/CyberShake_30.xml"},
				{Name: "CyberShake_50", Path: "../../config/dax/CyberShake_50.xml"},
				{Name: "CyberShake_100", Path: "../../config/dax/CyberShake_100.xml"},
				{Name: "CyberShake_1000", Path: "../../config/dax/CyberShake_1000.xml"},
				{Name: "Epigenomics_24", Path: "../../config/dax/Epigenomics_24.xml"},
				{Name: "floodplain", Path: "../../config/dax/floodplain.xml"},
				{Name: "Sipht_30", Path: "../../config/dax/Sipht_30.xml"},
			},
		},
	}
}

// loadSweepConfig decodes path over the defaults. Keys present in the file
// replace the default value; sequences are replaced, not merged.
// Uses strict field checking: typos must cause errors.
func loadSweepConfig(path string) (SweepConfig, error) {
	cfg := DefaultSweepConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading sweep config %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing sweep config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("sweep config %s: %w", path, err)
	}
	return cfg, nil
}

func (c SweepConfig) validate() error {
	if c.Distributions < 1 {
		return fmt.Errorf("distributions must be >= 1, got %d", c.Distributions)
	}
	if len(c.Grid.TaskThresholds) == 0 || len(c.Grid.TimeThresholds) == 0 {
		return fmt.Errorf("grid needs at least one task and one time threshold")
	}
	if c.Evaluation.RandomRepetitions < 0 {
		return fmt.Errorf("random_repetitions must be >= 0, got %d", c.Evaluation.RandomRepetitions)
	}
	if c.Workflows.Synthetic.Instances < 0 {
		return fmt.Errorf("synthetic instances must be >= 0, got %d", c.Workflows.Synthetic.Instances)
	}
	for _, wf := range c.Workflows.Real {
		if wf.Name == "" || wf.Path == "" {
			return fmt.Errorf("real workflow entries need a name and a path")
		}
	}
	return nil
}

// Sources lists the synthetic workflows followed by the real ones.
func (c SweepConfig) Sources(syntheticDir string) []sweep.WorkflowSource {
	if c.Workflows.Synthetic.Dir != "" {
		syntheticDir = c.Workflows.Synthetic.Dir
	}
	syn := c.Workflows.Synthetic
	sources := sweep.SyntheticSources(syn.Families, syn.Instances, syntheticDir)
	for _, wf := range c.Workflows.Real {
		sources = append(sources, sweep.WorkflowSource{Name: wf.Name, Path: wf.Path})
	}
	return sources
}
