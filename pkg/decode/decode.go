// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package decode turns the output of a CTC-trained encoder -- per-frame
// scores over a label vocabulary -- into ranked label sequences.
//
// The Decoder owns the configuration (vocabulary, beam width, length penalty,
// search strategy) and exposes the Decode entry point consumed by the
// surrounding inference pipeline. The searches themselves live in the search
// sub-package.
//
// Example:
//
//	decoder := must.M1(decode.New(vocabulary)).
//	    WithBeamWidth(10).
//	    WithLengthPenalty(0) // Rank by raw log-probability.
//	results, err := decoder.Decode(emissions)
package decode

import (
	"github.com/gomlx/ctc/pkg/decode/search"
	"github.com/gomlx/ctc/pkg/support/xslices"
	"github.com/gomlx/ctc/pkg/vocab"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Hypothesis is one decoded label sequence with its score.
type Hypothesis struct {
	// Tokens is the decoded label sequence. It contains neither blanks nor
	// consecutive collapsed repeats.
	Tokens []int

	// Score is the penalty-aware log-probability for beam search hypotheses.
	// For best path decoding it is the raw product of the per-frame max
	// probabilities, reported for reference only.
	Score float64

	// FrameScores holds the per-frame max probabilities. Only best path
	// decoding fills it; beam search hypotheses carry no alignment
	// information.
	FrameScores []float64
}

// Decoder decodes CTC emissions into ranked label sequences.
// Create it with New, adjust it with the WithX methods before the first
// Decode call.
type Decoder struct {
	// Vocab is the label vocabulary; it resolves the blank and EOS indices.
	Vocab *vocab.Vocabulary

	// BeamWidth is the number of hypotheses kept between time steps.
	BeamWidth int

	// LengthPenalty is the exponent of the length normalization applied when
	// ranking hypotheses. 0 disables normalization and ranks by raw
	// log-probability, which is usually preferable for CTC.
	LengthPenalty float64

	// Strategy selects beam search or greedy best path decoding.
	Strategy search.Strategy
}

// New creates a Decoder for the given vocabulary, with default parameters:
// beam width 5, length penalty 1 and beam search strategy.
//
// It fails if the vocabulary is missing: the blank index cannot be resolved
// without one.
func New(v *vocab.Vocabulary) (*Decoder, error) {
	if v == nil {
		return nil, errors.Errorf("decode.New requires a vocabulary to resolve the CTC blank index")
	}
	return &Decoder{
		Vocab:         v,
		BeamWidth:     5,
		LengthPenalty: 1.0,
		Strategy:      search.StrategyBeamSearch,
	}, nil
}

// WithBeamWidth sets the number of hypotheses kept between time steps.
// Ignored by best path decoding.
func (d *Decoder) WithBeamWidth(beamWidth int) *Decoder {
	d.BeamWidth = beamWidth
	return d
}

// WithLengthPenalty sets the length normalization exponent used for ranking.
// 0 ranks by raw log-probability.
func (d *Decoder) WithLengthPenalty(lengthPenalty float64) *Decoder {
	d.LengthPenalty = lengthPenalty
	return d
}

// WithStrategy selects the search: beam search (default) or best path.
func (d *Decoder) WithStrategy(strategy search.Strategy) *Decoder {
	d.Strategy = strategy
	return d
}

// validate checks the decoder configuration.
func (d *Decoder) validate() error {
	if d.Vocab == nil {
		return errors.Errorf("decoder has no vocabulary")
	}
	if d.Vocab.BlankIndex() < 0 {
		return errors.Errorf("vocabulary has no blank symbol")
	}
	if d.BeamWidth <= 0 {
		return errors.Errorf("beam width must be positive, got %d", d.BeamWidth)
	}
	switch d.Strategy {
	case search.StrategyBeamSearch, search.StrategyBestPath:
	default:
		return errors.Errorf("unknown decoding strategy %d", int(d.Strategy))
	}
	return nil
}

// Decode decodes the output of exactly one encoder into, per batch item, a
// list of hypotheses ordered best-first. Beam search returns up to BeamWidth
// hypotheses per item; best path returns exactly one.
//
// Decode is variadic to match the pipeline's model-list calling convention,
// but ensembles are not supported: passing anything but exactly one
// Emissions fails.
//
// Batch items are decoded in parallel; the result order follows the batch
// order, and Decode is deterministic for identical inputs.
func (d *Decoder) Decode(outputs ...*Emissions) ([][]Hypothesis, error) {
	if err := d.validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid decoder configuration")
	}
	if len(outputs) != 1 {
		return nil, errors.Errorf("ensemble decoding is not supported: got %d encoder outputs, want exactly 1", len(outputs))
	}
	em := outputs[0]
	if em == nil {
		return nil, errors.Errorf("nil emissions")
	}
	if err := em.validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid emissions")
	}
	if em.Labels != d.Vocab.Size() {
		return nil, errors.Errorf("emissions have %d labels, vocabulary has %d symbols", em.Labels, d.Vocab.Size())
	}
	klog.V(1).Infof("ctc: decoding batch of %d sequences (maxTime=%d, labels=%d, strategy=%s, beam=%d, lenpen=%g)",
		em.Batch, em.MaxTime, em.Labels, d.Strategy, d.BeamWidth, d.LengthPenalty)

	items := make([]int, em.Batch)
	for b := range items {
		items[b] = b
	}
	switch d.Strategy {
	case search.StrategyBestPath:
		return xslices.MapParallel(items, func(b int) []Hypothesis {
			return d.bestPathItem(em, b)
		}), nil
	default:
		return xslices.MapParallel(items, func(b int) []Hypothesis {
			return d.beamSearchItem(em, b)
		}), nil
	}
}

// beamSearchItem decodes one batch item with the prefix beam search,
// normalizing its frames with LogSoftmax.
func (d *Decoder) beamSearchItem(em *Emissions, b int) []Hypothesis {
	frames := em.itemFrames(b, search.LogSoftmax[float64])
	beam := search.BeamSearch(frames, d.Vocab.BlankIndex(), d.BeamWidth, d.LengthPenalty)
	hypotheses := make([]Hypothesis, len(beam))
	for ii, entry := range beam {
		hypotheses[ii] = Hypothesis{
			Tokens: xslices.Copy(entry.Prefix),
			Score:  entry.Score(d.LengthPenalty),
		}
	}
	return hypotheses
}

// bestPathItem decodes one batch item greedily, normalizing its frames with
// Softmax: the reported score is a raw probability product.
func (d *Decoder) bestPathItem(em *Emissions, b int) []Hypothesis {
	frames := em.itemFrames(b, search.Softmax[float64])
	labels, score, frameScores := search.BestPath(frames, d.Vocab.BlankIndex())
	return []Hypothesis{{
		Tokens:      labels,
		Score:       score,
		FrameScores: frameScores,
	}}
}
