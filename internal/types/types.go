//nolint:tagliatelle // field names are fixed by the summary and report formats
package types

import (
	"encoding/json"
	"strconv"
)

// MissingBucketName is how the reserved bucket for incidents without a crash bucket key is rendered.
const MissingBucketName = "__missing_bucket__"

// Triage holds the human review fields of a summary.
type Triage struct {
	ReviewStatus   string
	GroundTruthMod string
}

// Exception holds the resolved faulting location of a crash.
type Exception struct {
	ModulePlusOffset string // e.g. SkyrimSE.exe+0x1A2B3C
}

// Suspect is one candidate responsible module emitted by the ranking step.
type Suspect struct {
	ModuleFilename  string
	InferredModName string
}

// SummaryRecord is one crash incident, fully typed after ingestion coercion.
type SummaryRecord struct {
	CrashBucketKey string
	Triage         Triage
	// Exception is nil when the summary has no exception object.
	Exception *Exception
	// Suspects keeps the ranking order. A nil entry stands for an element that was not an object.
	Suspects []*Suspect
}

/*
Match Modes

Only the top-ranked suspect is compared against the ground truth. Comparison is done on normalized text
and the inferred mod name is always tried first:

| Ground truth | inferred_mod_name | module_filename | Mode                    |
|--------------|-------------------|-----------------|-------------------------|
| empty        | any               | any             | NoGroundTruth           |
| "x"          | "x"               | any             | MatchedByModName        |
| "x"          | not "x"           | "x"             | MatchedByModuleFilename |
| "x"          | not "x"           | not "x"         | NoMatch                 |
| "x"          | no suspect        | no suspect      | NoMatch                 |

Empty suspect fields never match.
*/

// MatchMode is the outcome of evaluating a top suspect against the ground truth.
type MatchMode int

const (
	NoGroundTruth MatchMode = iota
	NoMatch
	MatchedByModName
	MatchedByModuleFilename
)

func (m MatchMode) String() string {
	switch m {
	case NoGroundTruth:
		return "no-ground-truth"
	case NoMatch:
		return "no-match"
	case MatchedByModName:
		return "mod-name"
	case MatchedByModuleFilename:
		return "module-filename"
	default:
		return "unknown"
	}
}

// BucketStatistics are the counters kept for one crash bucket.
// Invariant: Total >= Reviewed >= GTWithMod >= GTTop1Match, and
// GTTop1Match == GTTop1MatchByModName + GTTop1MatchByModuleFilename.
type BucketStatistics struct {
	Total                       int `json:"total"`
	Reviewed                    int `json:"reviewed"`
	UnknownFaultModule          int `json:"unknown_fault_module"`
	GTWithMod                   int `json:"gt_with_mod"`
	GTTop1MatchByModName        int `json:"gt_top1_match_by_mod_name"`
	GTTop1MatchByModuleFilename int `json:"gt_top1_match_by_module_filename"`
	GTTop1Match                 int `json:"gt_top1_match"`
}

// Merge adds other into s, field by field.
func (s *BucketStatistics) Merge(other BucketStatistics) {
	s.Total += other.Total
	s.Reviewed += other.Reviewed
	s.UnknownFaultModule += other.UnknownFaultModule
	s.GTWithMod += other.GTWithMod
	s.GTTop1MatchByModName += other.GTTop1MatchByModName
	s.GTTop1MatchByModuleFilename += other.GTTop1MatchByModuleFilename
	s.GTTop1Match += other.GTTop1Match
}

// Consistent reports whether the counter invariants hold.
func (s BucketStatistics) Consistent() bool {
	return s.Total >= s.Reviewed &&
		s.Reviewed >= s.GTWithMod &&
		s.GTWithMod >= s.GTTop1Match &&
		s.GTTop1Match >= 0 &&
		s.UnknownFaultModule >= 0 &&
		s.UnknownFaultModule <= s.Total &&
		s.GTTop1Match == s.GTTop1MatchByModName+s.GTTop1MatchByModuleFilename
}

// Ratio is a fraction that may be undefined (zero denominator).
// The zero value is undefined. It marshals to a JSON number or null.
type Ratio struct {
	value   float64
	defined bool
}

// NewRatio returns num/den, or an undefined Ratio when den is zero.
func NewRatio(num, den int) Ratio {
	if den == 0 {
		return Ratio{}
	}

	return Ratio{value: float64(num) / float64(den), defined: true}
}

// RatioOf wraps an already computed value.
func RatioOf(value float64) Ratio {
	return Ratio{value: value, defined: true}
}

// Defined reports whether the ratio has a value.
func (r Ratio) Defined() bool {
	return r.defined
}

// Value returns the ratio and whether it is defined.
func (r Ratio) Value() (float64, bool) {
	return r.value, r.defined
}

// Equal reports whether both ratios are undefined, or both defined with the same value.
func (r Ratio) Equal(other Ratio) bool {
	return r.defined == other.defined && r.value == other.value
}

// Format renders the ratio with the given precision, or placeholder when undefined.
func (r Ratio) Format(prec int, placeholder string) string {
	if !r.defined {
		return placeholder
	}

	return strconv.FormatFloat(r.value, 'f', prec, 64)
}

func (r Ratio) String() string {
	return r.Format(-1, "none")
}

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.defined {
		return []byte("null"), nil
	}

	return json.Marshal(r.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	var value *float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err //nolint:wrapcheck
	}

	if value == nil {
		*r = Ratio{}

		return nil
	}

	*r = RatioOf(*value)

	return nil
}
