// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package search

import (
	"math"
	"slices"
	"sort"

	"github.com/gomlx/ctc/pkg/support/sets"
	"github.com/gomlx/ctc/pkg/support/xslices"
	"github.com/gomlx/exceptions"
)

// BeamSearch runs the prefix beam search over one sequence of per-frame label
// log-probabilities (logProbs[t][label], frames in time order, already
// normalized with LogSoftmax). It returns the final beam: at most beamWidth
// entries with distinct prefixes, ordered best-first by the penalty-aware
// score (a lengthPenalty of 0 ranks by raw log-probability).
//
// An empty logProbs returns the initial beam: the single empty prefix with
// certainty, which is the well-defined result for a zero-length sequence.
func BeamSearch(logProbs [][]float64, blankIndex, beamWidth int, lengthPenalty float64) []*Entry {
	if beamWidth <= 0 {
		exceptions.Panicf("BeamSearch: beam width must be positive, got %d", beamWidth)
	}
	if blankIndex < 0 {
		exceptions.Panicf("BeamSearch: blank index must be non-negative, got %d", blankIndex)
	}

	// Before any frame is seen the empty prefix is certain, with its mass on
	// the blank-ending side.
	beam := []*Entry{{
		NonBlankEndLogProb: math.Inf(-1),
		BlankEndLogProb:    0,
	}}
	for _, frame := range logProbs {
		if blankIndex >= len(frame) {
			exceptions.Panicf("BeamSearch: blank index %d out of range for frame with %d labels", blankIndex, len(frame))
		}
		candidates := make([]*Entry, 0, len(beam)*(beamWidth+2))
		for _, entry := range beam {
			// Labels that turn this prefix into another beam member's prefix:
			// those extensions must be generated so Deduplicate can merge the
			// sibling hypotheses. Only prefixes differing by exactly the last
			// label are considered.
			toConsider := sets.Make[int]()
			for _, other := range beam {
				if len(other.Prefix) > 0 && slices.Equal(entry.Prefix, other.Prefix[:len(other.Prefix)-1]) {
					toConsider.Insert(xslices.Last(other.Prefix))
				}
			}
			candidates = append(candidates, entry.Extend(frame, toConsider, blankIndex, beamWidth)...)
		}
		beam = Deduplicate(candidates)
		sort.SliceStable(beam, func(i, j int) bool {
			return beam[i].Score(lengthPenalty) > beam[j].Score(lengthPenalty)
		})
		if len(beam) > beamWidth {
			beam = beam[:beamWidth]
		}
	}
	return beam
}
