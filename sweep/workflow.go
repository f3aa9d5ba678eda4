package sweep

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FileEntry is one input file of a workflow and its size in bytes.
type FileEntry struct {
	Name string
	Size int64
}

// Workflow is a resolved workflow description. Files keeps the order in
// which the engine reported them; the planner depends on it.
type Workflow struct {
	Name      string
	Path      string
	TotalSize int64
	InputSize int64
	Files     []FileEntry
}

// Inventory is the content of the engine's helper-mode artifact.
type Inventory struct {
	TotalSize int64
	InputSize int64
	Files     []FileEntry
}

// ParseInventory reads the helper-mode artifact: the first record carries the
// total size, the second the input size, every later record (name, size).
// The value of the first two records is read from the last column, so both
// "TOTALSIZE,123" and a bare "123" are accepted.
func ParseInventory(r io.Reader) (*Inventory, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	if len(records) < 2 {
		return nil, configErrorf("inventory has %d records, want at least 2", len(records))
	}

	inv := &Inventory{}
	if inv.TotalSize, err = parseSizeRecord(records[0]); err != nil {
		return nil, fmt.Errorf("inventory total size: %w", err)
	}
	if inv.InputSize, err = parseSizeRecord(records[1]); err != nil {
		return nil, fmt.Errorf("inventory input size: %w", err)
	}

	seen := make(map[string]bool)
	for i, rec := range records[2:] {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if len(rec) != 2 {
			return nil, configErrorf("inventory record %d: want 2 fields, got %d", i+3, len(rec))
		}
		name := strings.TrimSpace(rec[0])
		size, err := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 64)
		if err != nil {
			return nil, configErrorf("inventory record %d: size %q: %v", i+3, rec[1], err)
		}
		if seen[name] {
			return nil, configErrorf("inventory lists file %q twice", name)
		}
		seen[name] = true
		inv.Files = append(inv.Files, FileEntry{Name: name, Size: size})
	}
	if len(inv.Files) == 0 {
		return nil, configErrorf("inventory lists no input files")
	}
	return inv, nil
}

func parseSizeRecord(rec []string) (int64, error) {
	if len(rec) == 0 {
		return 0, configErrorf("empty size record")
	}
	v, err := strconv.ParseInt(strings.TrimSpace(rec[len(rec)-1]), 10, 64)
	if err != nil {
		return 0, configErrorf("size %q: %v", rec[len(rec)-1], err)
	}
	return v, nil
}

// LoadInventory reads and parses an inventory artifact from disk.
func LoadInventory(path string) (*Inventory, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("inventory artifact %s was not written", path)
		}
		return nil, fmt.Errorf("opening inventory: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseInventory(f)
}
