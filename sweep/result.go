package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TrialStatus is the coarse outcome of a trial.
type TrialStatus string

const (
	StatusSuccess TrialStatus = "SUCCESS"
	StatusFailure TrialStatus = "FAILURE"
)

// Metric names in the engine's result artifact.
const (
	MetricTransferredData = "TransferredData"
	MetricTransferTime    = "TransferTime"
	MetricMakespan        = "Makespan"
)

// TrialResult is the outcome of one trial. Failed trials carry zero metrics.
type TrialResult struct {
	Status           TrialStatus
	TransferredBytes float64
	TransferTime     float64
	Makespan         float64
}

// failedTrial is the sentinel result for every kind of trial failure.
func failedTrial() TrialResult {
	return TrialResult{Status: StatusFailure}
}

// ParseResult reads a result artifact of (metricName, value) records.
// Unknown metric names are ignored; a record that is not a (name, number)
// pair, or a missing recognized metric, yields ErrMalformedResult.
func ParseResult(r io.Reader) (TrialResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var (
		res  = TrialResult{Status: StatusSuccess}
		seen = make(map[string]bool, 3)
		line = 0
	)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return failedTrial(), fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
		if len(rec) != 2 {
			return failedTrial(), fmt.Errorf("%w: record %d has %d fields", ErrMalformedResult, line, len(rec))
		}
		name := strings.TrimSpace(rec[0])
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return failedTrial(), fmt.Errorf("%w: record %d (%s): %v", ErrMalformedResult, line, name, err)
		}
		switch name {
		case MetricTransferredData:
			res.TransferredBytes = value
		case MetricTransferTime:
			res.TransferTime = value
		case MetricMakespan:
			res.Makespan = value
		default:
			continue
		}
		seen[name] = true
	}
	for _, m := range []string{MetricTransferredData, MetricTransferTime, MetricMakespan} {
		if !seen[m] {
			return failedTrial(), fmt.Errorf("%w: metric %s missing", ErrMalformedResult, m)
		}
	}
	return res, nil
}

// LoadResult parses the result artifact at path.
func LoadResult(path string) (TrialResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return failedTrial(), err
	}
	defer func() { _ = f.Close() }()
	return ParseResult(f)
}
