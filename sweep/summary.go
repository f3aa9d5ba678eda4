package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Round2 rounds v to two decimals. NaN and infinities pass through.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}

// TableRow is a master-table row read back for analysis.
type TableRow struct {
	Workflow           string
	Topology           string
	Strategy           Strategy
	Params             Hyperparameters
	Status             TrialStatus
	TransferFactorSize float64
	TransferFactorTime float64 // NaN when the table has no time column
	Makespan           float64
}

// ReadTable parses a master table of either mode. Columns are located by
// header name, so older tables without MAKESPAN still load.
func ReadTable(r io.Reader) ([]TableRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading master table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("master table is empty")
	}

	col := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		col[h] = i
	}
	sizeCol := "TRANSFER-FACTOR-SIZE"
	if _, ok := col[sizeCol]; !ok {
		sizeCol = "TRANSFER-FACTOR"
	}
	for _, required := range []string{"NAME", sizeCol, "N", "T", "STATUS", "CONFIG"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("master table lacks column %s", required)
		}
	}

	get := func(rec []string, name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return "", false
		}
		return rec[i], true
	}
	num := func(rec []string, name string) (float64, error) {
		s, ok := get(rec, name)
		if !ok {
			return math.NaN(), nil
		}
		return strconv.ParseFloat(s, 64)
	}

	rows := make([]TableRow, 0, len(records)-1)
	for line, rec := range records[1:] {
		var (
			row TableRow
			err error
		)
		row.Workflow, _ = get(rec, "NAME")
		row.Topology, _ = get(rec, "CONFIG")
		status, _ := get(rec, "STATUS")
		row.Status = TrialStatus(status)

		row.Strategy = StrategyPartition
		if rep, ok := get(rec, "RND_COUNT"); ok && rep != "-1" {
			row.Strategy = StrategyRandom
		}
		if row.TransferFactorSize, err = num(rec, sizeCol); err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, err)
		}
		if row.TransferFactorTime, err = num(rec, "TRANSFER-FACTOR-TIME"); err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, err)
		}
		if row.Makespan, err = num(rec, "MAKESPAN"); err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, err)
		}
		n, _ := get(rec, "N")
		t, _ := get(rec, "T")
		if row.Params.TaskThreshold, err = strconv.Atoi(n); err != nil {
			return nil, fmt.Errorf("row %d: N: %w", line+2, err)
		}
		if row.Params.TimeThreshold, err = strconv.Atoi(t); err != nil {
			return nil, fmt.Errorf("row %d: T: %w", line+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// GroupKey identifies one comparable group of trials.
type GroupKey struct {
	Workflow string
	Topology string
	Strategy Strategy
	Params   Hyperparameters
}

// GroupSummary aggregates the trials of one group. Means and standard
// deviations cover successful trials only.
type GroupSummary struct {
	GroupKey
	Trials       int
	Failures     int
	SizeMean     float64
	SizeStdDev   float64
	TimeMean     float64
	TimeStdDev   float64
	MakespanMean float64
}

// Summarize groups rows and computes per-group statistics, sorted by key.
func Summarize(rows []TableRow) []GroupSummary {
	type acc struct {
		trials, failures     int
		size, time, makespan []float64
	}
	groups := make(map[GroupKey]*acc)
	for _, r := range rows {
		k := GroupKey{Workflow: r.Workflow, Topology: r.Topology, Strategy: r.Strategy, Params: r.Params}
		a := groups[k]
		if a == nil {
			a = &acc{}
			groups[k] = a
		}
		a.trials++
		if r.Status != StatusSuccess {
			a.failures++
			continue
		}
		a.size = append(a.size, r.TransferFactorSize)
		a.time = append(a.time, r.TransferFactorTime)
		a.makespan = append(a.makespan, r.Makespan)
	}

	out := make([]GroupSummary, 0, len(groups))
	for k, a := range groups {
		s := GroupSummary{GroupKey: k, Trials: a.trials, Failures: a.failures}
		s.SizeMean, s.SizeStdDev = meanStdDev(a.size)
		s.TimeMean, s.TimeStdDev = meanStdDev(a.time)
		s.MakespanMean, _ = meanStdDev(a.makespan)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].GroupKey, out[j].GroupKey
		if a.Workflow != b.Workflow {
			return a.Workflow < b.Workflow
		}
		if a.Topology != b.Topology {
			return a.Topology < b.Topology
		}
		if a.Strategy != b.Strategy {
			return a.Strategy < b.Strategy
		}
		if a.Params.TaskThreshold != b.Params.TaskThreshold {
			return a.Params.TaskThreshold < b.Params.TaskThreshold
		}
		return a.Params.TimeThreshold < b.Params.TimeThreshold
	})
	return out
}

// meanStdDev returns NaN for an empty sample and a zero deviation for a
// single value.
func meanStdDev(xs []float64) (mean, std float64) {
	switch len(xs) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}
