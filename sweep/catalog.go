package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// WorkflowSource names a workflow to evaluate. Synthetic sources carry the
// generator family and are materialized at Path before resolution.
type WorkflowSource struct {
	Name   string
	Path   string
	Family string // empty for real workflows
}

// Synthetic reports whether the source has to be generated.
func (s WorkflowSource) Synthetic() bool { return s.Family != "" }

// SyntheticSources enumerates `instances` workflows of every family, named
// <family><i> and placed under dir as <name>.xml.
func SyntheticSources(families []string, instances int, dir string) []WorkflowSource {
	var out []WorkflowSource
	for i := 0; i < instances; i++ {
		for _, fam := range families {
			name := fmt.Sprintf("%s%d", fam, i)
			out = append(out, WorkflowSource{
				Name:   name,
				Path:   filepath.Join(dir, name+".xml"),
				Family: fam,
			})
		}
	}
	return out
}

// Generator writes a synthetic workflow description of the given family.
type Generator interface {
	Generate(ctx context.Context, family, path string) error
}

// CommandGenerator runs an external generator. "{family}" and "{path}" in
// Argv are substituted per call.
type CommandGenerator struct {
	Argv []string
}

// Generate implements Generator.
func (g CommandGenerator) Generate(ctx context.Context, family, path string) error {
	if len(g.Argv) == 0 {
		return configErrorf("generator command is empty")
	}
	argv := make([]string, len(g.Argv))
	for i, a := range g.Argv {
		a = strings.ReplaceAll(a, "{family}", family)
		argv[i] = strings.ReplaceAll(a, "{path}", path)
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("generating %s workflow at %s: %w: %s", family, path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Catalog resolves workflow sources into Workflows using the engine's helper
// mode.
type Catalog struct {
	Engine    Engine
	Generator Generator // nil: synthetic workflows must already exist
	InputsDir string    // where inventory artifacts are written
}

// Resolve generates the workflow if needed, asks the engine for its
// inventory and parses the artifact.
func (c *Catalog) Resolve(ctx context.Context, src WorkflowSource) (*Workflow, error) {
	if src.Synthetic() && c.Generator != nil {
		if err := c.Generator.Generate(ctx, src.Family, src.Path); err != nil {
			return nil, err
		}
	}

	inventoryPath := filepath.Join(c.InputsDir, src.Name+".csv")
	// A leftover inventory from an earlier sweep would mask a helper failure.
	if err := os.Remove(inventoryPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("workflow %s: removing stale inventory: %w", src.Name, err)
	}
	out, err := c.Engine.Inventory(ctx, src.Path, inventoryPath)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", src.Name, err)
	}
	if out.ExitCode != 0 {
		logrus.Debugf("inventory helper for %s exited with status %d", src.Name, out.ExitCode)
	}

	inv, err := LoadInventory(inventoryPath)
	if err != nil {
		if msg := strings.TrimSpace(string(out.Stderr)); msg != "" {
			return nil, fmt.Errorf("workflow %s: %w (engine: %s)", src.Name, err, msg)
		}
		return nil, fmt.Errorf("workflow %s: %w", src.Name, err)
	}
	return &Workflow{
		Name:      src.Name,
		Path:      src.Path,
		TotalSize: inv.TotalSize,
		InputSize: inv.InputSize,
		Files:     inv.Files,
	}, nil
}
