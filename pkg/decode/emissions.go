// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package decode

import (
	"github.com/pkg/errors"
)

// Emissions holds the raw (unnormalized) per-frame label scores produced by
// an encoder for a batch of sequences, plus the number of valid frames per
// sequence. Frames at or beyond a sequence's length are padding and ignored.
type Emissions struct {
	// Scores is the dense score array. Its layout is [batch, time, label]
	// unless TimeMajor is set, in which case it is [time, batch, label] --
	// the common layout of recurrent encoders.
	Scores []float64

	// Lengths gives the number of valid frames of each batch item.
	Lengths []int

	// Batch, MaxTime and Labels are the dimensions of Scores.
	Batch, MaxTime, Labels int

	// TimeMajor indicates Scores is laid out [time, batch, label].
	TimeMajor bool
}

// NewEmissions creates zero-initialized batch-major emissions with the given
// dimensions, with all lengths set to maxTime.
func NewEmissions(batch, maxTime, labels int) *Emissions {
	em := &Emissions{
		Scores:  make([]float64, batch*maxTime*labels),
		Lengths: make([]int, batch),
		Batch:   batch,
		MaxTime: maxTime,
		Labels:  labels,
	}
	for b := range em.Lengths {
		em.Lengths[b] = maxTime
	}
	return em
}

// Frame returns the label scores of batch item b at time step t, as a view
// into Scores.
func (em *Emissions) Frame(b, t int) []float64 {
	var offset int
	if em.TimeMajor {
		offset = (t*em.Batch + b) * em.Labels
	} else {
		offset = (b*em.MaxTime + t) * em.Labels
	}
	return em.Scores[offset : offset+em.Labels]
}

// SetFrame copies the given label scores into batch item b at time step t.
func (em *Emissions) SetFrame(b, t int, scores []float64) {
	copy(em.Frame(b, t), scores)
}

func (em *Emissions) validate() error {
	if em.Batch < 0 || em.MaxTime < 0 || em.Labels <= 0 {
		return errors.Errorf("emissions have invalid dimensions [batch=%d, maxTime=%d, labels=%d]",
			em.Batch, em.MaxTime, em.Labels)
	}
	if want := em.Batch * em.MaxTime * em.Labels; len(em.Scores) != want {
		return errors.Errorf("emissions have %d scores, want %d for [batch=%d, maxTime=%d, labels=%d]",
			len(em.Scores), want, em.Batch, em.MaxTime, em.Labels)
	}
	if len(em.Lengths) != em.Batch {
		return errors.Errorf("emissions have %d lengths for a batch of %d", len(em.Lengths), em.Batch)
	}
	for b, length := range em.Lengths {
		if length < 0 || length > em.MaxTime {
			return errors.Errorf("emissions length %d of batch item %d out of range [0, %d]",
				length, b, em.MaxTime)
		}
	}
	return nil
}

// itemFrames extracts the valid frames of batch item b, reconciling the
// layout to time order, with normalize applied to each frame.
func (em *Emissions) itemFrames(b int, normalize func([]float64) []float64) [][]float64 {
	frames := make([][]float64, em.Lengths[b])
	for t := range frames {
		frames[t] = normalize(em.Frame(b, t))
	}
	return frames
}
