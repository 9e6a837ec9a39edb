// Package match compares the top ranked suspect of an incident against its human confirmed ground truth.
package match

import (
	"github.com/farcloser/crashrollup/internal/normalize"
	"github.com/farcloser/crashrollup/internal/types"
)

// Top1Suspect returns the highest ranked suspect, or nil when there is none.
// A first element that is not an object counts as no suspect.
func Top1Suspect(suspects []*types.Suspect) *types.Suspect {
	if len(suspects) == 0 {
		return nil
	}

	return suspects[0]
}

// Evaluate returns the single match mode for top against groundTruthMod.
// The inferred mod name has priority over the module filename.
func Evaluate(top *types.Suspect, groundTruthMod string) types.MatchMode {
	truth := normalize.Text(groundTruthMod)
	if truth == "" {
		return types.NoGroundTruth
	}

	if top == nil {
		return types.NoMatch
	}

	if name := normalize.Text(top.InferredModName); name != "" && name == truth {
		return types.MatchedByModName
	}

	if file := normalize.Text(top.ModuleFilename); file != "" && file == truth {
		return types.MatchedByModuleFilename
	}

	return types.NoMatch
}
