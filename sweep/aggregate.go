package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Coordinates locate a trial in the sweep.
type Coordinates struct {
	Topology     string
	Distribution int
	RunCounter   int
	Repetition   int // -1 for the deterministic trial and for grid trials
	Strategy     Strategy
	Params       Hyperparameters
}

// Row is one master-table record.
type Row struct {
	Workflow           string
	TransferFactorSize float64
	TransferFactorTime float64
	Makespan           float64
	Status             TrialStatus
	Coordinates
}

// DeriveRow computes the comparison ratios of a trial. Failed trials get zero
// metrics. Zero divisors are not guarded: an inf or NaN ratio reaches the
// table as is.
func DeriveRow(wf *Workflow, res TrialResult, c Coordinates) Row {
	row := Row{Workflow: wf.Name, Status: res.Status, Coordinates: c}
	if res.Status != StatusSuccess {
		row.Status = StatusFailure
		return row
	}
	row.TransferFactorSize = res.TransferredBytes / float64(wf.InputSize)
	row.TransferFactorTime = res.TransferTime / res.Makespan
	row.Makespan = res.Makespan
	return row
}

// Master-table column headers.
var (
	gridSearchColumns = []string{
		"NAME", "TRANSFER-FACTOR-SIZE", "MAKESPAN", "N", "T", "STATUS",
		"CONFIG", "DISTRIBUTION", "RUN_COUNT",
	}
	evaluationColumns = []string{
		"NAME", "TRANSFER-FACTOR-SIZE", "TRANSFER-FACTOR-TIME", "MAKESPAN", "N", "T", "STATUS",
		"CONFIG", "DISTRIBUTION", "RUN_COUNT", "RND_COUNT",
	}
)

// Columns returns the master-table header for mode.
func Columns(mode Mode) []string {
	if mode == ModeEvaluation {
		return append([]string(nil), evaluationColumns...)
	}
	return append([]string(nil), gridSearchColumns...)
}

// Aggregator appends rows to the master table. Each row is flushed before
// Record returns, so an interrupted sweep keeps every completed trial.
type Aggregator struct {
	mode Mode
	w    *csv.Writer
	rows int
}

// NewAggregator writes the header for mode and returns an Aggregator.
func NewAggregator(w io.Writer, mode Mode) (*Aggregator, error) {
	a := &Aggregator{mode: mode, w: csv.NewWriter(w)}
	if err := a.write(Columns(mode)); err != nil {
		return nil, fmt.Errorf("writing master table header: %w", err)
	}
	return a, nil
}

// Record derives and writes the row of one trial.
func (a *Aggregator) Record(wf *Workflow, res TrialResult, c Coordinates) (Row, error) {
	row := DeriveRow(wf, res, c)
	if err := a.write(a.fields(row)); err != nil {
		return row, fmt.Errorf("writing master table row %d: %w", a.rows+1, err)
	}
	a.rows++
	return row, nil
}

// Rows returns the number of rows written, header excluded.
func (a *Aggregator) Rows() int { return a.rows }

func (a *Aggregator) write(record []string) error {
	if err := a.w.Write(record); err != nil {
		return err
	}
	a.w.Flush()
	return a.w.Error()
}

func (a *Aggregator) fields(r Row) []string {
	f := formatFloat
	if a.mode == ModeEvaluation {
		return []string{
			r.Workflow, f(r.TransferFactorSize), f(r.TransferFactorTime), f(r.Makespan),
			strconv.Itoa(r.Params.TaskThreshold), strconv.Itoa(r.Params.TimeThreshold), string(r.Status),
			r.Topology, strconv.Itoa(r.Distribution), strconv.Itoa(r.RunCounter), strconv.Itoa(r.Repetition),
		}
	}
	return []string{
		r.Workflow, f(r.TransferFactorSize), f(r.Makespan),
		strconv.Itoa(r.Params.TaskThreshold), strconv.Itoa(r.Params.TimeThreshold), string(r.Status),
		r.Topology, strconv.Itoa(r.Distribution), strconv.Itoa(r.RunCounter),
	}
}

// formatFloat keeps full precision; inf and NaN render as +Inf, -Inf, NaN.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
