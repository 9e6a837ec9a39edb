// Package output provides report serialization and the tabular bucket view.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/crashrollup"
	"github.com/farcloser/crashrollup/internal/format"
)

const undefinedRatio = "-"

var errUnknownBucket = errors.New("bucket not in report")

// SummaryToMap converts the global rollups of a report into the map printed by the formatters.
func SummaryToMap(report *crashrollup.Report) map[string]any {
	return map[string]any{
		"input_root":          report.InputRoot,
		"pattern":             report.Pattern,
		"recursive":           report.Recursive,
		"files_found":         report.FilesFound,
		"files_parsed":        report.FilesParsed,
		"bucket_count":        report.BucketCount,
		"reviewed_total":      report.ReviewedTotal,
		"gt_with_mod_total":   report.GTWithModTotal,
		"gt_top1_match_total": report.GTTop1MatchTotal,
		"overall_top1_precision_vs_ground_truth_mod": ratioValue(report.OverallTop1Precision),
	}
}

// BucketToMap converts one bucket row into a map.
func BucketToMap(bucket *crashrollup.BucketReport) map[string]any {
	return map[string]any{
		"total":                              bucket.Total,
		"reviewed":                           bucket.Reviewed,
		"unknown_fault_module":               bucket.UnknownFaultModule,
		"gt_with_mod":                        bucket.GTWithMod,
		"gt_top1_match_by_mod_name":          bucket.GTTop1MatchByModName,
		"gt_top1_match_by_module_filename":   bucket.GTTop1MatchByModuleFilename,
		"gt_top1_match":                      bucket.GTTop1Match,
		"unknown_rate":                       bucket.UnknownRate,
		"top1_precision_vs_ground_truth_mod": ratioValue(bucket.Top1Precision),
	}
}

// BucketRows converts the first top buckets into maps, in report order.
func BucketRows(report *crashrollup.Report, top int) []map[string]any {
	buckets := report.Top(top)
	rows := make([]map[string]any, 0, len(buckets))

	for idx := range buckets {
		row := BucketToMap(&buckets[idx])
		row["crash_bucket_key"] = buckets[idx].CrashBucketKey
		rows = append(rows, row)
	}

	return rows
}

// FindBucket returns the bucket whose crash bucket key is key.
// The reserved bucket only answers to MissingBucketName when no real key is spelled that way;
// use FindMissingBucket to reach it unambiguously.
func FindBucket(report *crashrollup.Report, key string) (*crashrollup.BucketReport, error) {
	for idx := range report.Buckets {
		if !report.Buckets[idx].MissingBucket && report.Buckets[idx].CrashBucketKey == key {
			return &report.Buckets[idx], nil
		}
	}

	if key == crashrollup.MissingBucketName {
		return FindMissingBucket(report)
	}

	return nil, fmt.Errorf("%q: %w", key, errUnknownBucket)
}

// FindMissingBucket returns the reserved bucket of summaries without a crash bucket key.
func FindMissingBucket(report *crashrollup.Report) (*crashrollup.BucketReport, error) {
	for idx := range report.Buckets {
		if report.Buckets[idx].MissingBucket {
			return &report.Buckets[idx], nil
		}
	}

	return nil, fmt.Errorf("%s: %w", crashrollup.MissingBucketName, errUnknownBucket)
}

// BucketTable renders the first top buckets, in report order.
func BucketTable(report *crashrollup.Report, top int, mode format.Mode) *format.Table {
	tbl := format.NewTable(mode)
	tbl.Header("count", "reviewed", "unknown_rate", "top1_precision", "bucket")
	tbl.AlignRight(1, 2, 3, 4)

	for _, bucket := range report.Top(top) {
		tbl.Row(
			bucket.Total,
			bucket.Reviewed,
			strconv.FormatFloat(bucket.UnknownRate, 'f', 2, 64),
			bucket.Top1Precision.Format(2, undefinedRatio),
			bucket.CrashBucketKey,
		)
	}

	return tbl
}

// WriteJSON writes the report as indented JSON, creating parent directories as needed.
func WriteJSON(path string, report *crashrollup.Report) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // report directories are meant to be shared
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // reports are not secret
		return fmt.Errorf("writing report: %w", err)
	}

	return nil
}

// ReadJSON loads a report previously written by WriteJSON.
func ReadJSON(path string) (*crashrollup.Report, error) {
	data, err := os.ReadFile(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, fmt.Errorf("%w: opening report: %w", fault.ErrReadFailure, err)
	}

	var report crashrollup.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing report %q: %w", path, err)
	}

	return &report, nil
}

// ratioValue returns nil for an undefined ratio, so machine readable output carries a null.
func ratioValue(ratio crashrollup.Ratio) any {
	if value, ok := ratio.Value(); ok {
		return value
	}

	return nil
}
