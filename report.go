//nolint:tagliatelle // report field names are a stable contract
package crashrollup

import (
	"cmp"
	"slices"
	"strings"

	"github.com/farcloser/crashrollup/internal/types"
)

// Source describes where the aggregated records came from. Assemble echoes it into the report.
type Source struct {
	InputRoot   string
	Pattern     string
	Recursive   bool
	FilesFound  int
	FilesParsed int
}

// BucketReport is one bucket row of a Report.
type BucketReport struct {
	CrashBucketKey string `json:"crash_bucket_key"`
	BucketStatistics
	UnknownRate   float64 `json:"unknown_rate"`
	Top1Precision Ratio   `json:"top1_precision_vs_ground_truth_mod"`

	// MissingBucket is set on the reserved bucket, which shares its rendered name with any real key
	// spelled MissingBucketName.
	MissingBucket bool `json:"missing_bucket,omitempty"`
}

// Report is the result of one aggregation run. Treat it as read-only.
type Report struct {
	InputRoot            string         `json:"input_root"`
	Pattern              string         `json:"pattern"`
	Recursive            bool           `json:"recursive"`
	FilesFound           int            `json:"files_found"`
	FilesParsed          int            `json:"files_parsed"`
	BucketCount          int            `json:"bucket_count"`
	ReviewedTotal        int            `json:"reviewed_total"`
	GTWithModTotal       int            `json:"gt_with_mod_total"`
	GTTop1MatchTotal     int            `json:"gt_top1_match_total"`
	OverallTop1Precision Ratio          `json:"overall_top1_precision_vs_ground_truth_mod"`
	Buckets              []BucketReport `json:"buckets"`
}

// Top returns at most n buckets, in report order.
func (r *Report) Top(n int) []BucketReport {
	return r.Buckets[:max(min(n, len(r.Buckets)), 0)]
}

// Assemble derives rates, orders buckets and computes the global rollups.
// It does not modify acc.
func Assemble(acc *Accumulator, source Source) *Report {
	buckets := make([]BucketReport, 0, len(acc.buckets))

	for key, stats := range acc.buckets {
		buckets = append(buckets, BucketReport{
			CrashBucketKey:   key.name,
			BucketStatistics: *stats,
			UnknownRate:      unknownRate(*stats),
			Top1Precision:    types.NewRatio(stats.GTTop1Match, stats.GTWithMod),
			MissingBucket:    key.missing,
		})
	}

	slices.SortStableFunc(buckets, compareBuckets)

	report := &Report{
		InputRoot:   source.InputRoot,
		Pattern:     source.Pattern,
		Recursive:   source.Recursive,
		FilesFound:  source.FilesFound,
		FilesParsed: source.FilesParsed,
		BucketCount: len(buckets),
		Buckets:     buckets,
	}

	for idx := range buckets {
		report.ReviewedTotal += buckets[idx].Reviewed
		report.GTWithModTotal += buckets[idx].GTWithMod
		report.GTTop1MatchTotal += buckets[idx].GTTop1Match
	}

	report.OverallTop1Precision = types.NewRatio(report.GTTop1MatchTotal, report.GTWithModTotal)

	return report
}

func unknownRate(stats BucketStatistics) float64 {
	if stats.Total == 0 {
		return 0
	}

	return float64(stats.UnknownFaultModule) / float64(stats.Total)
}

// compareBuckets orders by total descending, then key ascending.
// The reserved bucket sorts after a real key rendered with the same name.
func compareBuckets(left, right BucketReport) int {
	if c := cmp.Compare(right.Total, left.Total); c != 0 {
		return c
	}

	if c := strings.Compare(left.CrashBucketKey, right.CrashBucketKey); c != 0 {
		return c
	}

	switch {
	case left.MissingBucket == right.MissingBucket:
		return 0
	case left.MissingBucket:
		return 1
	default:
		return -1
	}
}
