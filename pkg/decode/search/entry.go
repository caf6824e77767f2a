// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package search

import (
	"math"
	"strconv"
	"strings"

	"github.com/gomlx/ctc/pkg/support/sets"
)

// Entry is one candidate hypothesis (prefix) of the beam search. It carries
// the probability mass of every CTC alignment path that collapses to Prefix,
// split in the two disjoint ways the prefix can be "current" at a time step:
// paths whose most recent symbol was the blank, and paths whose most recent
// symbol was the last label of the prefix. Keeping the two separate is what
// lets a repeated label be told apart from a collapsed one.
//
// An Entry is never mutated after creation: each search step derives a fresh
// set of entries from the previous beam.
type Entry struct {
	// Prefix is the emitted label sequence. It never contains the blank.
	Prefix []int

	// NonBlankEndLogProb is the log-probability mass of the paths producing
	// Prefix whose last emitted symbol is the last label of Prefix.
	NonBlankEndLogProb float64

	// BlankEndLogProb is the log-probability mass of the paths producing
	// Prefix whose last emitted symbol is the blank.
	BlankEndLogProb float64
}

// LogProb returns the total log-probability mass for this prefix, regardless
// of the trailing-blank state.
func (e *Entry) LogProb() float64 {
	return LogSumExp(e.NonBlankEndLogProb, e.BlankEndLogProb)
}

// NormalizedLogProb returns the length-normalized score
// LogProb() / (1+len(Prefix))^lengthPenalty. Raw log-probabilities bias the
// ranking toward very short prefixes; the normalization counters that.
func (e *Entry) NormalizedLogProb(lengthPenalty float64) float64 {
	return e.LogProb() / math.Pow(float64(1+len(e.Prefix)), lengthPenalty)
}

// Score returns the penalty-aware score used for ranking: the raw LogProb if
// lengthPenalty is 0, the NormalizedLogProb otherwise.
func (e *Entry) Score(lengthPenalty float64) float64 {
	if lengthPenalty == 0 {
		return e.LogProb()
	}
	return e.NormalizedLogProb(lengthPenalty)
}

// lastIndex returns the last label of the prefix. An empty prefix behaves as
// if it ended in a blank, so the first emitted symbol is never collapsed.
func (e *Entry) lastIndex(blankIndex int) int {
	if len(e.Prefix) > 0 {
		return e.Prefix[len(e.Prefix)-1]
	}
	return blankIndex
}

// Extend returns the candidate successors of this entry for the next frame,
// whose log-probabilities per label are given in frame. The successors are:
//
//   - the entry itself with updated probabilities: repeating the last label
//     (without an intervening blank, so collapsed by CTC) extends the
//     non-blank-ending mass, a blank extends the total mass;
//   - the prefixes extended with the most likely next labels, up to beamWidth
//     of them;
//   - the prefixes extended with each label in toConsider: labels that turn
//     this prefix into another beam member's prefix, required so sibling
//     hypotheses get merged by Deduplicate instead of silently pruned.
func (e *Entry) Extend(frame []float64, toConsider sets.Set[int], blankIndex, beamWidth int) []*Entry {
	last := e.lastIndex(blankIndex)
	next := make([]*Entry, 0, beamWidth+1+len(toConsider))
	next = append(next, &Entry{
		Prefix:             e.Prefix,
		NonBlankEndLogProb: e.NonBlankEndLogProb + frame[last],
		BlankEndLogProb:    e.LogProb() + frame[blankIndex],
	})

	// Take 2 extra candidates: blank and the last label are skipped below.
	handled := sets.Make[int]()
	for _, idx := range topIndices(frame, beamWidth+2) {
		if len(next) > beamWidth {
			break
		}
		if idx == blankIndex || idx == last {
			continue
		}
		next = append(next, e.withLabel(idx, frame))
		handled.Insert(idx)
	}
	for _, idx := range sets.Sorted(toConsider) {
		if handled.Has(idx) {
			continue
		}
		next = append(next, e.withLabel(idx, frame))
	}
	return next
}

// withLabel returns the entry extended by one label. A freshly extended
// prefix cannot have ended in a blank yet.
func (e *Entry) withLabel(idx int, frame []float64) *Entry {
	prefix := make([]int, 0, len(e.Prefix)+1)
	prefix = append(append(prefix, e.Prefix...), idx)
	return &Entry{
		Prefix:             prefix,
		NonBlankEndLogProb: e.LogProb() + frame[idx],
		BlankEndLogProb:    math.Inf(-1),
	}
}

// Deduplicate collapses entries with equal prefixes into one, log-sum-exp'ing
// their blank-ending and non-blank-ending masses separately. Distinct CTC
// alignment paths can produce the same collapsed label sequence; they are
// mutually exclusive events, so their probabilities are summed. The order of
// first occurrence is preserved.
func Deduplicate(entries []*Entry) []*Entry {
	groups := make(map[string][]*Entry, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		key := prefixKey(e.Prefix)
		if _, found := groups[key]; !found {
			order = append(order, key)
		}
		groups[key] = append(groups[key], e)
	}
	merged := make([]*Entry, 0, len(order))
	for _, key := range order {
		same := groups[key]
		if len(same) == 1 {
			merged = append(merged, same[0])
			continue
		}
		nonBlank := make([]float64, len(same))
		blank := make([]float64, len(same))
		for ii, e := range same {
			nonBlank[ii] = e.NonBlankEndLogProb
			blank[ii] = e.BlankEndLogProb
		}
		merged = append(merged, &Entry{
			Prefix:             same[0].Prefix,
			NonBlankEndLogProb: LogSumExp(nonBlank...),
			BlankEndLogProb:    LogSumExp(blank...),
		})
	}
	return merged
}

func prefixKey(prefix []int) string {
	var b strings.Builder
	for ii, idx := range prefix {
		if ii > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	return b.String()
}
