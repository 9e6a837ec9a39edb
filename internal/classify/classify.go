// Package classify derives the per-record review and fault module flags.
package classify

import (
	"github.com/farcloser/crashrollup/internal/normalize"
	"github.com/farcloser/crashrollup/internal/types"
)

//nolint:gochecknoglobals // lookup tables, effectively const
var (
	reviewedStatuses = map[string]struct{}{
		"reviewed":  {},
		"confirmed": {},
		"triaged":   {},
		"done":      {},
	}

	unknownModuleSentinels = map[string]struct{}{
		"":          {},
		"unknown":   {},
		"<unknown>": {},
		"n/a":       {},
		"none":      {},
	}
)

// IsReviewed reports whether a human looked at the incident.
// A filled in ground truth counts as a review even without an explicit status.
func IsReviewed(triage types.Triage) bool {
	if _, ok := reviewedStatuses[normalize.Text(triage.ReviewStatus)]; ok {
		return true
	}

	return normalize.Text(triage.GroundTruthMod) != ""
}

// IsUnknownModule reports whether the faulting module could not be resolved.
// A missing exception and an explicit "unknown" sentinel are treated the same.
func IsUnknownModule(record *types.SummaryRecord) bool {
	if record.Exception == nil {
		return true
	}

	_, ok := unknownModuleSentinels[normalize.Text(record.Exception.ModulePlusOffset)]

	return ok
}
