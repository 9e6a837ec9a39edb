package crashrollup_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/farcloser/crashrollup"
)

func reviewed(bucket, truth string, suspects ...*crashrollup.Suspect) crashrollup.SummaryRecord {
	return crashrollup.SummaryRecord{
		CrashBucketKey: bucket,
		Triage:         crashrollup.Triage{ReviewStatus: "reviewed", GroundTruthMod: truth},
		Exception:      &crashrollup.Exception{ModulePlusOffset: "SkyrimSE.exe+0x1000"},
		Suspects:       suspects,
	}
}

func aggregate(records ...crashrollup.SummaryRecord) *crashrollup.Report {
	acc := crashrollup.NewAccumulator()
	for idx := range records {
		acc.Add(&records[idx])
	}

	return crashrollup.Assemble(acc, crashrollup.Source{FilesFound: len(records), FilesParsed: len(records)})
}

func TestScenarioSingleMatchingRecord(t *testing.T) {
	record := crashrollup.SummaryRecord{
		CrashBucketKey: "bucket-a",
		Triage:         crashrollup.Triage{ReviewStatus: "reviewed", GroundTruthMod: "My Texture Overhaul"},
		Exception:      &crashrollup.Exception{ModulePlusOffset: "unknown"},
		Suspects: []*crashrollup.Suspect{
			{ModuleFilename: "SomeDll.dll", InferredModName: "My Texture Overhaul"},
		},
	}

	report := aggregate(record)

	if report.GTWithModTotal != 1 || report.GTTop1MatchTotal != 1 {
		t.Fatalf("totals = %d/%d, want 1/1", report.GTTop1MatchTotal, report.GTWithModTotal)
	}

	if precision, ok := report.OverallTop1Precision.Value(); !ok || precision != 1.0 {
		t.Errorf("overall precision = %v, want 1.0", report.OverallTop1Precision)
	}

	want := crashrollup.BucketStatistics{
		Total:                1,
		Reviewed:             1,
		UnknownFaultModule:   1,
		GTWithMod:            1,
		GTTop1MatchByModName: 1,
		GTTop1Match:          1,
	}

	if diff := cmp.Diff(want, report.Buckets[0].BucketStatistics); diff != "" {
		t.Errorf("bucket mismatch (-want +got):\n%s", diff)
	}
}

func TestScenarioHalfPrecision(t *testing.T) {
	report := aggregate(
		reviewed("bucket-b", "Engine Fixes", &crashrollup.Suspect{InferredModName: "engine fixes"}),
		reviewed("bucket-b", "Engine Fixes", &crashrollup.Suspect{InferredModName: "SkyUI"}),
	)

	if precision, ok := report.Buckets[0].Top1Precision.Value(); !ok || precision != 0.5 {
		t.Errorf("bucket precision = %v, want 0.5", report.Buckets[0].Top1Precision)
	}
}

func TestScenarioBareStringSuspect(t *testing.T) {
	record, err := crashrollup.DecodeRecord([]byte(`{
		"crash_bucket_key": "bucket-c",
		"triage": {"review_status": "done", "ground_truth_mod": "SomeDll.dll"},
		"exception": {"module_plus_offset": "SomeDll.dll+0x10"},
		"suspects": ["SomeDll.dll"]
	}`))
	if err != nil {
		t.Fatal(err)
	}

	outcome := crashrollup.Classify(&record)
	if outcome.Mode != crashrollup.NoMatch {
		t.Errorf("mode = %s, want %s", outcome.Mode, crashrollup.NoMatch)
	}

	report := aggregate(record)
	if report.GTWithModTotal != 1 || report.GTTop1MatchTotal != 0 {
		t.Errorf("totals = %d/%d, want 0/1", report.GTTop1MatchTotal, report.GTWithModTotal)
	}
}

func TestMatchPriorityCountsOnce(t *testing.T) {
	report := aggregate(reviewed("k", "Engine Fixes", &crashrollup.Suspect{
		ModuleFilename:  "engine fixes",
		InferredModName: "ENGINE FIXES",
	}))

	stats := report.Buckets[0].BucketStatistics
	if stats.GTTop1Match != 1 || stats.GTTop1MatchByModName != 1 || stats.GTTop1MatchByModuleFilename != 0 {
		t.Errorf("unexpected match counters: %+v", stats)
	}
}

func TestUndefinedPrecision(t *testing.T) {
	report := aggregate(crashrollup.SummaryRecord{CrashBucketKey: "k"})

	if report.Buckets[0].Top1Precision.Defined() {
		t.Errorf("bucket precision should be undefined, got %v", report.Buckets[0].Top1Precision)
	}

	if report.OverallTop1Precision.Defined() {
		t.Errorf("overall precision should be undefined, got %v", report.OverallTop1Precision)
	}

	// Reviewed without ground truth is still not a precision sample.
	report = aggregate(crashrollup.SummaryRecord{CrashBucketKey: "k", Triage: crashrollup.Triage{ReviewStatus: "done"}})
	if report.ReviewedTotal != 1 || report.Buckets[0].Top1Precision.Defined() {
		t.Errorf("reviewed=%d precision=%v", report.ReviewedTotal, report.Buckets[0].Top1Precision)
	}
}

func TestMissingBucketKeys(t *testing.T) {
	report := aggregate(
		crashrollup.SummaryRecord{},
		crashrollup.SummaryRecord{CrashBucketKey: "   "},
		crashrollup.SummaryRecord{CrashBucketKey: crashrollup.MissingBucketName},
	)

	if report.BucketCount != 2 {
		t.Fatalf("bucket count = %d, want 2", report.BucketCount)
	}

	reserved := report.Buckets[0]
	if !reserved.MissingBucket || reserved.Total != 2 || reserved.CrashBucketKey != crashrollup.MissingBucketName {
		t.Errorf("unexpected reserved bucket: %+v", reserved)
	}

	if report.Buckets[1].MissingBucket || report.Buckets[1].Total != 1 {
		t.Errorf("a real key named like the reserved bucket must stay separate: %+v", report.Buckets[1])
	}
}

func TestBucketKeysAreOnlyTrimmed(t *testing.T) {
	acc := crashrollup.NewAccumulator()
	acc.Add(&crashrollup.SummaryRecord{CrashBucketKey: " Bucket-A "})
	acc.Add(&crashrollup.SummaryRecord{CrashBucketKey: "bucket-a"})

	if acc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 case sensitive buckets", acc.Len())
	}

	if stats, ok := acc.Lookup("Bucket-A"); !ok || stats.Total != 1 {
		t.Errorf("Lookup(Bucket-A) = %+v, %v", stats, ok)
	}

	if _, ok := acc.Lookup(""); ok {
		t.Error("no keyless record was added, reserved bucket should not exist")
	}
}

func TestOrdering(t *testing.T) {
	var records []crashrollup.SummaryRecord

	for bucket, count := range map[string]int{"zeta": 3, "alpha": 1, "beta": 3, "gamma": 2, "delta": 1} {
		for range count {
			records = append(records, crashrollup.SummaryRecord{CrashBucketKey: bucket})
		}
	}

	report := aggregate(records...)

	got := make([]string, 0, len(report.Buckets))
	for _, bucket := range report.Buckets {
		got = append(got, fmt.Sprintf("%s:%d", bucket.CrashBucketKey, bucket.Total))
	}

	want := []string{"beta:3", "zeta:3", "gamma:2", "alpha:1", "delta:1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"beta:3", "zeta:3"}, got[:len(report.Top(2))]); diff != "" {
		t.Errorf("Top(2) mismatch (-want +got):\n%s", diff)
	}

	if len(report.Top(100)) != 5 || len(report.Top(-1)) != 0 {
		t.Errorf("Top bounds are not clamped")
	}
}

// corpus builds a mixed set of records exercising every counter.
func corpus() []crashrollup.SummaryRecord {
	var records []crashrollup.SummaryRecord

	for idx := range 200 {
		record := crashrollup.SummaryRecord{
			CrashBucketKey: fmt.Sprintf("bucket-%d", idx%7),
			Exception:      &crashrollup.Exception{ModulePlusOffset: "SkyrimSE.exe+0x10"},
		}

		switch idx % 5 {
		case 0:
			record.Exception = nil
		case 1:
			record.Triage = crashrollup.Triage{ReviewStatus: "confirmed"}
		case 2:
			record.Triage = crashrollup.Triage{GroundTruthMod: "Mod A"}
			record.Suspects = []*crashrollup.Suspect{{InferredModName: "mod a"}}
		case 3:
			record.Triage = crashrollup.Triage{ReviewStatus: "done", GroundTruthMod: "moda.dll"}
			record.Suspects = []*crashrollup.Suspect{{ModuleFilename: "ModA.dll", InferredModName: "Other"}}
		case 4:
			record.Triage = crashrollup.Triage{ReviewStatus: "reviewed", GroundTruthMod: "Mod B"}
			record.Suspects = []*crashrollup.Suspect{nil, {InferredModName: "Mod B"}}
		}

		if idx%11 == 0 {
			record.CrashBucketKey = ""
		}

		records = append(records, record)
	}

	return records
}

func TestInvariants(t *testing.T) {
	report := aggregate(corpus()...)

	reviewedTotal := 0

	for _, bucket := range report.Buckets {
		if !bucket.Consistent() {
			t.Errorf("bucket %q breaks counter invariants: %+v", bucket.CrashBucketKey, bucket.BucketStatistics)
		}

		if bucket.UnknownRate < 0 || bucket.UnknownRate > 1 {
			t.Errorf("bucket %q unknown rate out of range: %v", bucket.CrashBucketKey, bucket.UnknownRate)
		}

		precision, ok := bucket.Top1Precision.Value()
		if ok != (bucket.GTWithMod > 0) {
			t.Errorf("bucket %q precision defined=%v with gt_with_mod=%d", bucket.CrashBucketKey, ok, bucket.GTWithMod)
		}

		if ok && (precision < 0 || precision > 1) {
			t.Errorf("bucket %q precision out of range: %v", bucket.CrashBucketKey, precision)
		}

		reviewedTotal += bucket.Reviewed
	}

	if reviewedTotal != report.ReviewedTotal {
		t.Errorf("reviewed_total = %d, want sum %d", report.ReviewedTotal, reviewedTotal)
	}
}

func TestIdempotentAndOrderIndependent(t *testing.T) {
	records := corpus()
	first := aggregate(records...)
	again := aggregate(records...)

	reversed := make([]crashrollup.SummaryRecord, len(records))
	for idx := range records {
		reversed[len(records)-1-idx] = records[idx]
	}

	shuffled := aggregate(reversed...)

	for _, other := range []*crashrollup.Report{again, shuffled} {
		if diff := cmp.Diff(first, other); diff != "" {
			t.Errorf("reports differ (-first +other):\n%s", diff)
		}
	}
}

func TestAccumulateParallel(t *testing.T) {
	records := corpus()
	want := aggregate(records...)

	for _, shards := range []int{0, 1, 3, 8, 1000} {
		acc, err := crashrollup.AccumulateParallel(context.Background(), records, shards)
		if err != nil {
			t.Fatalf("shards=%d: %v", shards, err)
		}

		got := crashrollup.Assemble(acc, crashrollup.Source{FilesFound: len(records), FilesParsed: len(records)})
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("shards=%d mismatch (-sequential +parallel):\n%s", shards, diff)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := crashrollup.AccumulateParallel(ctx, records, 4); err == nil {
		t.Error("expected an error on a cancelled context")
	}
}

func TestMergeIsCommutative(t *testing.T) {
	records := corpus()
	left, right := crashrollup.NewAccumulator(), crashrollup.NewAccumulator()

	for idx := range records {
		if idx%2 == 0 {
			left.Add(&records[idx])
		} else {
			right.Add(&records[idx])
		}
	}

	leftFirst, rightFirst := crashrollup.NewAccumulator(), crashrollup.NewAccumulator()
	leftFirst.Merge(left)
	leftFirst.Merge(right)
	rightFirst.Merge(right)
	rightFirst.Merge(left)

	source := crashrollup.Source{}
	if diff := cmp.Diff(crashrollup.Assemble(leftFirst, source), crashrollup.Assemble(rightFirst, source)); diff != "" {
		t.Errorf("merge order matters (-left +right):\n%s", diff)
	}
}

func TestReportJSON(t *testing.T) {
	report := aggregate(
		reviewed("bucket-a", "Mod", &crashrollup.Suspect{InferredModName: "Mod"}),
		crashrollup.SummaryRecord{CrashBucketKey: "bucket-b"},
	)

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}

	out := string(data)
	for _, want := range []string{
		`"input_root":""`,
		`"files_found":2`,
		`"bucket_count":2`,
		`"overall_top1_precision_vs_ground_truth_mod":1`,
		`"crash_bucket_key":"bucket-a","total":1,"reviewed":1`,
		`"gt_top1_match_by_module_filename":0`,
		`"top1_precision_vs_ground_truth_mod":null`,
		`"unknown_rate":1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}

	if strings.Contains(out, "MissingBucket") {
		t.Errorf("internal fields leaked into %s", out)
	}

	var back crashrollup.Report
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}

	if back.Buckets[1].Top1Precision.Defined() || !back.OverallTop1Precision.Defined() {
		t.Errorf("ratios did not survive a round trip: %+v", back)
	}
}
