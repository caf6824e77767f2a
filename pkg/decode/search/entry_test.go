package search

import (
	"math"
	"testing"

	"github.com/gomlx/ctc/pkg/support/sets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logs converts probabilities to log-probabilities.
func logs(probs ...float64) []float64 {
	logProbs := make([]float64, len(probs))
	for ii, p := range probs {
		logProbs[ii] = math.Log(p)
	}
	return logProbs
}

func TestEntryScores(t *testing.T) {
	entry := &Entry{
		Prefix:             []int{1},
		NonBlankEndLogProb: math.Log(0.3),
		BlankEndLogProb:    math.Log(0.2),
	}

	t.Run("LogProb", func(t *testing.T) {
		assert.InDelta(t, math.Log(0.5), entry.LogProb(), 1e-12)
	})

	t.Run("NormalizedLogProb", func(t *testing.T) {
		assert.InDelta(t, math.Log(0.5)/2, entry.NormalizedLogProb(1.0), 1e-12)
		assert.InDelta(t, math.Log(0.5)/4, entry.NormalizedLogProb(2.0), 1e-12)
	})

	t.Run("ScoreWithoutPenaltyIsRaw", func(t *testing.T) {
		assert.Equal(t, entry.LogProb(), entry.Score(0))
		assert.Equal(t, entry.NormalizedLogProb(1.0), entry.Score(1.0))
	})
}

func TestEntryExtend(t *testing.T) {
	const blank = 0

	t.Run("SamePrefixContinuation", func(t *testing.T) {
		entry := &Entry{
			Prefix:             []int{1},
			NonBlankEndLogProb: math.Log(0.5),
			BlankEndLogProb:    math.Log(0.25),
		}
		frame := logs(0.2, 0.5, 0.3)
		next := entry.Extend(frame, sets.Make[int](), blank, 2)
		require.NotEmpty(t, next)

		// The first successor keeps the prefix: repeating label 1 extends the
		// non-blank mass, the blank extends the total mass (0.75).
		same := next[0]
		assert.Equal(t, []int{1}, same.Prefix)
		assert.InDelta(t, math.Log(0.5*0.5), same.NonBlankEndLogProb, 1e-12)
		assert.InDelta(t, math.Log(0.75*0.2), same.BlankEndLogProb, 1e-12)
	})

	t.Run("NewLabelStartsWithoutBlankMass", func(t *testing.T) {
		entry := &Entry{
			Prefix:             []int{1},
			NonBlankEndLogProb: math.Log(0.5),
			BlankEndLogProb:    math.Log(0.25),
		}
		frame := logs(0.2, 0.5, 0.3)
		next := entry.Extend(frame, sets.Make[int](), blank, 2)
		require.Len(t, next, 2) // Same-prefix + label 2 (blank and label 1 are special-cased).

		extended := next[1]
		assert.Equal(t, []int{1, 2}, extended.Prefix)
		assert.InDelta(t, math.Log(0.75*0.3), extended.NonBlankEndLogProb, 1e-12)
		assert.True(t, math.IsInf(extended.BlankEndLogProb, -1))
	})

	t.Run("EmptyPrefixTreatsLastAsBlank", func(t *testing.T) {
		entry := &Entry{NonBlankEndLogProb: math.Inf(-1), BlankEndLogProb: 0}
		frame := logs(0.6, 0.3, 0.1)
		next := entry.Extend(frame, sets.Make[int](), blank, 2)
		require.Len(t, next, 3)

		// Same-prefix successor: no last label to repeat, only the blank
		// continuation carries mass.
		assert.Empty(t, next[0].Prefix)
		assert.True(t, math.IsInf(next[0].NonBlankEndLogProb, -1))
		assert.InDelta(t, math.Log(0.6), next[0].BlankEndLogProb, 1e-12)

		// Both non-blank labels are proposed, most likely first.
		assert.Equal(t, []int{1}, next[1].Prefix)
		assert.Equal(t, []int{2}, next[2].Prefix)
	})

	t.Run("TokensToBeConsideredSurvivePruning", func(t *testing.T) {
		entry := &Entry{
			Prefix:             []int{1},
			NonBlankEndLogProb: math.Log(0.5),
			BlankEndLogProb:    math.Inf(-1),
		}
		frame := logs(0.3, 0.3, 0.2, 0.15, 0.05)
		next := entry.Extend(frame, sets.MakeWith(4), blank, 1)

		prefixes := make([][]int, len(next))
		for ii, e := range next {
			prefixes[ii] = e.Prefix
		}
		// Label 4 is far outside the top candidates but is required for a
		// sibling merge, so it must still be proposed.
		assert.Equal(t, [][]int{{1}, {1, 2}, {1, 4}}, prefixes)
	})

	t.Run("AlreadyProposedTokensNotDuplicated", func(t *testing.T) {
		entry := &Entry{
			Prefix:             []int{1},
			NonBlankEndLogProb: math.Log(0.5),
			BlankEndLogProb:    math.Inf(-1),
		}
		frame := logs(0.2, 0.5, 0.3)
		next := entry.Extend(frame, sets.MakeWith(2), blank, 2)
		count := 0
		for _, e := range next {
			if len(e.Prefix) == 2 && e.Prefix[1] == 2 {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestDeduplicate(t *testing.T) {
	t.Run("MergesEqualPrefixes", func(t *testing.T) {
		entries := []*Entry{
			{Prefix: []int{1, 2}, NonBlankEndLogProb: math.Log(0.1), BlankEndLogProb: math.Log(0.2)},
			{Prefix: []int{1, 2}, NonBlankEndLogProb: math.Log(0.3), BlankEndLogProb: math.Inf(-1)},
		}
		merged := Deduplicate(entries)
		require.Len(t, merged, 1)
		assert.InDelta(t, math.Log(0.4), merged[0].NonBlankEndLogProb, 1e-12)
		assert.InDelta(t, math.Log(0.2), merged[0].BlankEndLogProb, 1e-12)
	})

	t.Run("GroupingOrderIndependent", func(t *testing.T) {
		entries := []*Entry{
			{Prefix: []int{3}, NonBlankEndLogProb: math.Log(0.1), BlankEndLogProb: math.Log(0.05)},
			{Prefix: []int{3}, NonBlankEndLogProb: math.Log(0.2), BlankEndLogProb: math.Inf(-1)},
			{Prefix: []int{3}, NonBlankEndLogProb: math.Log(0.4), BlankEndLogProb: math.Log(0.15)},
		}
		forward := Deduplicate(entries)
		reversed := Deduplicate([]*Entry{entries[2], entries[1], entries[0]})
		require.Len(t, forward, 1)
		require.Len(t, reversed, 1)
		assert.InDelta(t, forward[0].NonBlankEndLogProb, reversed[0].NonBlankEndLogProb, 1e-12)
		assert.InDelta(t, forward[0].BlankEndLogProb, reversed[0].BlankEndLogProb, 1e-12)
	})

	t.Run("PreservesFirstOccurrenceOrder", func(t *testing.T) {
		entries := []*Entry{
			{Prefix: []int{2}, NonBlankEndLogProb: math.Log(0.1), BlankEndLogProb: math.Inf(-1)},
			{Prefix: []int{1}, NonBlankEndLogProb: math.Log(0.2), BlankEndLogProb: math.Inf(-1)},
			{Prefix: []int{2}, NonBlankEndLogProb: math.Log(0.3), BlankEndLogProb: math.Inf(-1)},
		}
		merged := Deduplicate(entries)
		require.Len(t, merged, 2)
		assert.Equal(t, []int{2}, merged[0].Prefix)
		assert.Equal(t, []int{1}, merged[1].Prefix)
	})

	t.Run("DistinguishesAmbiguousKeys", func(t *testing.T) {
		// [1, 21] and [12, 1] must not collide.
		entries := []*Entry{
			{Prefix: []int{1, 21}, NonBlankEndLogProb: math.Log(0.1), BlankEndLogProb: math.Inf(-1)},
			{Prefix: []int{12, 1}, NonBlankEndLogProb: math.Log(0.2), BlankEndLogProb: math.Inf(-1)},
		}
		assert.Len(t, Deduplicate(entries), 2)
	})
}
