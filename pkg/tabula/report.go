package tabula

import (
	"fmt"
	"time"

	"github.com/jmylchreest/tabula/pkg/llm"
	"github.com/jmylchreest/tabula/pkg/reconcile"
	"github.com/jmylchreest/tabula/pkg/table"
)

// Stage names the pipeline step a Failure happened in.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageLocate  Stage = "locate"
	StageExtract Stage = "extract"
)

// Failure is a per-URL or per-block error that was absorbed by the run.
type Failure struct {
	Stage Stage
	URL   string
	// Block is the candidate block index for StageExtract, -1 otherwise.
	Block int
	Err   error
}

func (f Failure) Error() string {
	if f.Block >= 0 {
		return fmt.Sprintf("%s %s block %d: %v", f.Stage, f.URL, f.Block, f.Err)
	}
	return fmt.Sprintf("%s %s: %v", f.Stage, f.URL, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report is the outcome of one pipeline run.
type Report struct {
	Domain string
	URLs   []string

	Rows []table.Row
	// Source tells live extraction from the reference fallback.
	Source reconcile.Source
	// Insufficient is set when coverage fell short and no reference
	// dataset existed to fall back to.
	Insufficient bool
	Stats        reconcile.Stats

	Failures []Failure
	// Blocks is the number of candidate blocks sent for extraction.
	Blocks int
	// Records is the number of raw records extracted before reconciling.
	Records int

	Usage llm.Usage
	Cost  float64

	StartedAt       time.Time
	FetchDuration   time.Duration
	ExtractDuration time.Duration
	Duration        time.Duration
}

// Live reports whether the rows came from this run's extraction.
func (r *Report) Live() bool {
	return r.Source == reconcile.SourceLive
}

// Warnings returns the absorbed failures as display strings.
func (r *Report) Warnings() []string {
	out := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f.Error()
	}
	return out
}

// FailedBlocks counts extraction calls that errored.
func (r *Report) FailedBlocks() int {
	n := 0
	for _, f := range r.Failures {
		if f.Stage == StageExtract {
			n++
		}
	}
	return n
}
