package extractor

import (
	"context"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/pkg/llm"
	"github.com/jmylchreest/tabula/pkg/schema"
)

// Outcome is the result of extracting one candidate block. A block that
// yielded no records because nothing matched has a nil Err; a block whose
// call failed carries the error.
type Outcome struct {
	// Block is the zero-based index of the block in the candidate sequence.
	Block   int
	Records []Record
	Usage   llm.Usage
	Cost    float64
	Err     error
}

// Failed reports whether the extraction call for this block errored.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// ExtractBlocks runs one extraction call per block, in order. Per-block
// failures are recorded in the returned outcomes and never abort the loop.
// Blocks not yet started when ctx is cancelled are reported with ctx.Err().
func ExtractBlocks(ctx context.Context, ext Extractor, blocks []string, s schema.Schema, hints Hints) []Outcome {
	log := logger.Component("extract")
	outcomes := make([]Outcome, 0, len(blocks))

	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Block: i, Err: err})
			continue
		}

		out := Outcome{Block: i}
		res, err := ext.Extract(ctx, block, s, hints)
		if res != nil {
			out.Records = res.Records
			out.Usage = res.Usage
			out.Cost = res.Cost
		}
		if err != nil {
			out.Err = err
			out.Records = nil
			log.Warn("block extraction failed", "block", i, "error", err)
		} else {
			log.Debug("block extracted", "block", i, "records", len(out.Records))
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// Records concatenates the records of every successful outcome, in block order.
func Records(outcomes []Outcome) []Record {
	var all []Record
	for _, o := range outcomes {
		if !o.Failed() {
			all = append(all, o.Records...)
		}
	}
	return all
}
