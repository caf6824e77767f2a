// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package search

import (
	"math"
	"sort"

	"github.com/gomlx/exceptions"
	"golang.org/x/exp/constraints"
)

// LogSumExp returns log(sum(exp(values))) computed in a numerically stable
// way, shifting by the maximum term before exponentiation. It is how
// mutually exclusive path probabilities are summed in log-space.
func LogSumExp[T constraints.Float](values ...T) T {
	if len(values) == 0 {
		exceptions.Panicf("LogSumExp requires at least one value")
	}
	maxValue := values[0]
	for _, v := range values[1:] {
		if v > maxValue {
			maxValue = v
		}
	}
	if math.IsInf(float64(maxValue), -1) {
		// All terms are zero probability.
		return maxValue
	}
	var sum float64
	for _, v := range values {
		sum += math.Exp(float64(v - maxValue))
	}
	return maxValue + T(math.Log(sum))
}

// Softmax returns the softmax of the given scores, shifted by the maximum
// score for stability. It panics on an empty input.
func Softmax[T constraints.Float](scores []T) []T {
	if len(scores) == 0 {
		exceptions.Panicf("Softmax requires at least one score")
	}
	maxScore := scores[0]
	for _, v := range scores[1:] {
		if v > maxScore {
			maxScore = v
		}
	}
	probs := make([]T, len(scores))
	var sum float64
	for ii, v := range scores {
		e := math.Exp(float64(v - maxScore))
		probs[ii] = T(e)
		sum += e
	}
	for ii := range probs {
		probs[ii] = T(float64(probs[ii]) / sum)
	}
	return probs
}

// LogSoftmax returns the log of the softmax of the given scores, computed
// without materializing the (potentially underflowing) probabilities.
func LogSoftmax[T constraints.Float](scores []T) []T {
	if len(scores) == 0 {
		exceptions.Panicf("LogSoftmax requires at least one score")
	}
	maxScore := scores[0]
	for _, v := range scores[1:] {
		if v > maxScore {
			maxScore = v
		}
	}
	var sum float64
	for _, v := range scores {
		sum += math.Exp(float64(v - maxScore))
	}
	logSum := T(math.Log(sum))
	logProbs := make([]T, len(scores))
	for ii, v := range scores {
		logProbs[ii] = v - maxScore - logSum
	}
	return logProbs
}

// topIndices returns the indices of the k largest values, in descending value
// order. Ties resolve to the lower index. k is clamped to len(values).
func topIndices(values []float64, k int) []int {
	if k > len(values) {
		k = len(values)
	}
	indices := make([]int, len(values))
	for ii := range indices {
		indices[ii] = ii
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return values[indices[a]] > values[indices[b]]
	})
	return indices[:k]
}

// argMax returns the index of the largest value and the value itself.
// Ties resolve to the lower index.
func argMax(values []float64) (int, float64) {
	best, bestValue := 0, values[0]
	for ii, v := range values[1:] {
		if v > bestValue {
			best, bestValue = ii+1, v
		}
	}
	return best, bestValue
}
