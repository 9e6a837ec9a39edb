package crashrollup

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/farcloser/crashrollup/internal/classify"
	"github.com/farcloser/crashrollup/internal/match"
)

// bucketKey identifies a bucket. The reserved bucket for keyless incidents is kept out of band,
// so no real crash bucket key can collide with it.
type bucketKey struct {
	name    string
	missing bool
}

func keyFor(crashBucketKey string) bucketKey {
	name := strings.TrimSpace(crashBucketKey)
	if name == "" {
		return bucketKey{name: MissingBucketName, missing: true}
	}

	return bucketKey{name: name}
}

// Outcome is the classification of a single record. It depends on nothing but the record.
type Outcome struct {
	// Bucket is the trimmed crash bucket key, or MissingBucketName.
	Bucket         string
	MissingBucket  bool
	Reviewed       bool
	UnknownModule  bool
	HasGroundTruth bool
	// Mode is only evaluated for reviewed records with a ground truth, NoGroundTruth otherwise.
	Mode MatchMode
}

// Classify evaluates record without touching any accumulator state.
func Classify(record *SummaryRecord) Outcome {
	key := keyFor(record.CrashBucketKey)

	outcome := Outcome{
		Bucket:        key.name,
		MissingBucket: key.missing,
		UnknownModule: classify.IsUnknownModule(record),
		Reviewed:      classify.IsReviewed(record.Triage),
		Mode:          NoGroundTruth,
	}

	if !outcome.Reviewed {
		return outcome
	}

	outcome.Mode = match.Evaluate(match.Top1Suspect(record.Suspects), record.Triage.GroundTruthMod)
	outcome.HasGroundTruth = outcome.Mode != NoGroundTruth

	return outcome
}

// Accumulator folds records into per-bucket counters for one aggregation run.
// It is not safe for concurrent use; shard instead and Merge.
type Accumulator struct {
	buckets map[bucketKey]*BucketStatistics
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{buckets: make(map[bucketKey]*BucketStatistics)}
}

// Add folds one record and returns how it was classified.
func (a *Accumulator) Add(record *SummaryRecord) Outcome {
	outcome := Classify(record)
	a.apply(outcome)

	return outcome
}

func (a *Accumulator) apply(outcome Outcome) {
	stats := a.bucket(bucketKey{name: outcome.Bucket, missing: outcome.MissingBucket})
	stats.Total++

	if outcome.UnknownModule {
		stats.UnknownFaultModule++
	}

	if !outcome.Reviewed {
		return
	}

	stats.Reviewed++

	if !outcome.HasGroundTruth {
		return
	}

	stats.GTWithMod++

	switch outcome.Mode {
	case MatchedByModName:
		stats.GTTop1MatchByModName++
		stats.GTTop1Match++
	case MatchedByModuleFilename:
		stats.GTTop1MatchByModuleFilename++
		stats.GTTop1Match++
	case NoGroundTruth, NoMatch:
	}
}

// bucket is get-or-insert.
func (a *Accumulator) bucket(key bucketKey) *BucketStatistics {
	stats, ok := a.buckets[key]
	if !ok {
		stats = &BucketStatistics{}
		a.buckets[key] = stats
	}

	return stats
}

// Merge adds every bucket of other into a. Merging is commutative and associative.
func (a *Accumulator) Merge(other *Accumulator) {
	for key, stats := range other.buckets {
		a.bucket(key).Merge(*stats)
	}
}

// Len returns the number of buckets seen so far.
func (a *Accumulator) Len() int {
	return len(a.buckets)
}

// Lookup returns the counters of the bucket a record with the given crash bucket key would land in.
// A blank key looks up the reserved bucket.
func (a *Accumulator) Lookup(crashBucketKey string) (BucketStatistics, bool) {
	stats, ok := a.buckets[keyFor(crashBucketKey)]
	if !ok {
		return BucketStatistics{}, false
	}

	return *stats, true
}

// AccumulateParallel splits records into contiguous shards, folds each shard into its own
// accumulator concurrently, and merges them. The result equals a sequential fold.
func AccumulateParallel(ctx context.Context, records []SummaryRecord, shards int) (*Accumulator, error) {
	shards = max(min(shards, len(records)), 1)

	partials := make([]*Accumulator, shards)
	size := (len(records) + shards - 1) / shards

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(shards)

	for shard := range shards {
		start := min(shard*size, len(records))
		end := min(start+size, len(records))

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err //nolint:wrapcheck
			}

			acc := NewAccumulator()
			for idx := start; idx < end; idx++ {
				acc.Add(&records[idx])
			}

			partials[shard] = acc

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	merged := NewAccumulator()
	for _, partial := range partials {
		merged.Merge(partial)
	}

	return merged, nil
}
