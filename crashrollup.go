// Package crashrollup rolls crash diagnostic summaries up into per-bucket quality metrics.
package crashrollup

import "github.com/farcloser/crashrollup/internal/types"

/*
Usage:

acc := crashrollup.NewAccumulator()
for _, raw := range documents {
    record, err := crashrollup.DecodeRecord(raw)
    if err != nil {
        continue // not an object: excluded from files_parsed
    }
    acc.Add(&record)
}

report := crashrollup.Assemble(acc, crashrollup.Source{
    InputRoot:   root,
    Pattern:     "*_SkyrimDiagSummary.json",
    Recursive:   true,
    FilesFound:  len(documents),
    FilesParsed: parsed,
})

if precision, ok := report.OverallTop1Precision.Value(); ok {
    fmt.Printf("top1 precision: %.2f\n", precision)
}

// Sharded accumulation, same result as the sequential fold
acc, err := crashrollup.AccumulateParallel(ctx, records, runtime.NumCPU())

*/

type (
	// SummaryRecord is one crash incident after ingestion coercion.
	SummaryRecord = types.SummaryRecord
	// Triage holds the human review fields.
	Triage = types.Triage
	// Exception holds the faulting location.
	Exception = types.Exception
	// Suspect is one ranked candidate module.
	Suspect = types.Suspect
	// MatchMode is the outcome of the top suspect evaluation.
	MatchMode = types.MatchMode
	// BucketStatistics are the per-bucket counters.
	BucketStatistics = types.BucketStatistics
	// Ratio is an optional fraction.
	Ratio = types.Ratio
)

const (
	NoGroundTruth           = types.NoGroundTruth
	NoMatch                 = types.NoMatch
	MatchedByModName        = types.MatchedByModName
	MatchedByModuleFilename = types.MatchedByModuleFilename

	// MissingBucketName is the rendered name of the bucket collecting incidents without a key.
	MissingBucketName = types.MissingBucketName
)
