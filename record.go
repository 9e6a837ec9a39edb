package crashrollup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	// ErrNotObject is returned when a document parses but is not a JSON object.
	ErrNotObject = errors.New("summary is not a JSON object")

	errTrailingData = errors.New("trailing data after summary")
)

// DecodeRecord parses one summary document.
// Only syntax errors and non-object documents fail; wrong-shaped fields are coerced to defaults.
// Numbers keep their literal text, so a key written as 1.0 stays "1.0".
func DecodeRecord(data []byte) (SummaryRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return SummaryRecord{}, fmt.Errorf("decoding summary: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return SummaryRecord{}, fmt.Errorf("decoding summary: %w", errTrailingData)
	}

	fields, ok := doc.(map[string]any)
	if !ok {
		return SummaryRecord{}, ErrNotObject
	}

	return RecordFromMap(fields), nil
}

// RecordFromMap coerces a loosely typed summary into a SummaryRecord.
func RecordFromMap(fields map[string]any) SummaryRecord {
	record := SummaryRecord{
		CrashBucketKey: stringField(fields, "crash_bucket_key"),
	}

	if triage, ok := fields["triage"].(map[string]any); ok {
		record.Triage = Triage{
			ReviewStatus:   stringField(triage, "review_status"),
			GroundTruthMod: stringField(triage, "ground_truth_mod"),
		}
	}

	if exception, ok := fields["exception"].(map[string]any); ok {
		record.Exception = &Exception{ModulePlusOffset: stringField(exception, "module_plus_offset")}
	}

	if suspects, ok := fields["suspects"].([]any); ok {
		record.Suspects = make([]*Suspect, len(suspects))

		for idx, entry := range suspects {
			suspect, ok := entry.(map[string]any)
			if !ok {
				continue
			}

			record.Suspects[idx] = &Suspect{
				ModuleFilename:  stringField(suspect, "module_filename"),
				InferredModName: stringField(suspect, "inferred_mod_name"),
			}
		}
	}

	return record
}

// stringField returns fields[key] as text. Scalars are rendered, anything else is empty.
func stringField(fields map[string]any, key string) string {
	switch val := fields[key].(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
