// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package search

import (
	"github.com/gomlx/exceptions"
)

// BestPath runs greedy CTC decoding over one sequence of per-frame label
// probabilities (probs[t][label], already normalized with Softmax): it takes
// the arg-max label of every frame, collapses consecutive repeats and drops
// blanks. It returns the decoded labels, the product of the per-frame max
// probabilities, and the per-frame max probabilities themselves.
//
// The score is a raw probability product, not a log-probability: for long
// sequences it underflows toward zero. It is reported, not used for ranking,
// since best path produces a single hypothesis.
func BestPath(probs [][]float64, blankIndex int) (labels []int, score float64, frameScores []float64) {
	if blankIndex < 0 {
		exceptions.Panicf("BestPath: blank index must be non-negative, got %d", blankIndex)
	}
	score = 1.0
	frameScores = make([]float64, len(probs))
	previous := -1
	for t, frame := range probs {
		if blankIndex >= len(frame) {
			exceptions.Panicf("BestPath: blank index %d out of range for frame with %d labels", blankIndex, len(frame))
		}
		best, bestProb := argMax(frame)
		frameScores[t] = bestProb
		score *= bestProb
		if best != previous && best != blankIndex {
			labels = append(labels, best)
		}
		previous = best
	}
	return
}
