package main_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"

	"github.com/farcloser/crashrollup"
	"github.com/farcloser/crashrollup/internal/output"
)

// expectContains returns a comparator verifying the output contains every substring.
func expectContains(substrs ...string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		for _, substr := range substrs {
			if !strings.Contains(stdout, substr) {
				testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
				testing.Fail()
			}
		}
	}
}

// expectReport returns a comparator that loads the report written at path and hands it to check.
// check returns a description of the first mismatch, or an empty string.
func expectReport(path string, check func(report *crashrollup.Report) string) test.Comparator {
	return func(_ string, testing tig.T) {
		testing.Helper()

		report, err := output.ReadJSON(path)
		if err != nil {
			testing.Log(fmt.Sprintf("reading report %s: %v", path, err))
			testing.Fail()

			return
		}

		if problem := check(report); problem != "" {
			testing.Log(problem)
			testing.Fail()
		}
	}
}

// expectJSONKey returns a comparator verifying stdout is a single JSON document holding key,
// and handing the first value found for it to check.
func expectJSONKey(key string, check func(value any) string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		var doc any
		if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
			testing.Log(fmt.Sprintf("output is not JSON: %v\n%s", err, stdout))
			testing.Fail()

			return
		}

		value, ok := findKey(doc, key)
		if !ok {
			testing.Log(fmt.Sprintf("key %q not found in output:\n%s", key, stdout))
			testing.Fail()

			return
		}

		if problem := check(value); problem != "" {
			testing.Log(problem)
			testing.Fail()
		}
	}
}

func findKey(doc any, key string) (any, bool) {
	switch node := doc.(type) {
	case map[string]any:
		if value, ok := node[key]; ok {
			return value, true
		}

		for _, child := range node {
			if value, ok := findKey(child, key); ok {
				return value, true
			}
		}
	case []any:
		for _, child := range node {
			if value, ok := findKey(child, key); ok {
				return value, true
			}
		}
	}

	return nil, false
}

// writeSummaries lays out a small collection of crash summaries under a fresh directory:
//
//	case1_SkyrimDiagSummary.json      bucket-a, reviewed, top suspect matches by mod name
//	case2_SkyrimDiagSummary.json      bucket-a, reviewed, top suspect does not match
//	case3_SkyrimDiagSummary.json      no bucket key, not reviewed
//	broken_SkyrimDiagSummary.json     not JSON
//	nested/case4_SkyrimDiagSummary.json  bucket-b, not reviewed
//	notes.txt                         ignored by the pattern
func writeSummaries(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	files := map[string]string{
		"case1_SkyrimDiagSummary.json": `{
			"crash_bucket_key": "bucket-a",
			"triage": {"review_status": "reviewed", "ground_truth_mod": "my texture overhaul"},
			"exception": {"module_plus_offset": "unknown"},
			"suspects": [{"module_filename": "SomeDll.dll", "inferred_mod_name": "My Texture Overhaul"}]
		}`,
		"case2_SkyrimDiagSummary.json": `{
			"crash_bucket_key": "bucket-a",
			"triage": {"review_status": "confirmed", "ground_truth_mod": "Engine Fixes"},
			"exception": {"module_plus_offset": "SkyrimSE.exe+0x1A2B"},
			"suspects": ["EngineFixes.dll"]
		}`,
		"case3_SkyrimDiagSummary.json":        `{"exception": {"module_plus_offset": "hdtSMP64.dll+0x10"}}`,
		"broken_SkyrimDiagSummary.json":       `{"crash_bucket_key": `,
		"nested/case4_SkyrimDiagSummary.json": `{"crash_bucket_key": "bucket-b"}`,
		"notes.txt":                           `not a summary`,
	}

	for name, content := range files {
		path := filepath.Join(root, name)

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	return root
}
