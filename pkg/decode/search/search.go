// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package search implements the searches used to decode CTC (Connectionist
// Temporal Classification) emissions into label sequences.
//
// Two searches are provided:
//
//   - BeamSearch: a prefix beam search over the per-frame label
//     distributions, following K. Hwang and W. Sung, "Character-level
//     incremental speech recognition with recurrent neural networks", IEEE
//     ICASSP, 2016.
//   - BestPath: greedy decoding, taking the arg-max label per frame and
//     collapsing it per the CTC emission rules. See A. Graves et al., "A novel
//     connectionist system for unconstrained handwriting recognition", IEEE
//     Trans. PAMI, 2009.
//
// All probability bookkeeping is done in log-space: see Entry.
//
// Invalid arguments (non-positive beam width, out-of-range blank index) are
// programming errors and panic with an error -- see
// github.com/gomlx/exceptions. The decode package validates its inputs before
// reaching this package.
package search

// Strategy selects the search used to decode CTC emissions.
type Strategy int

const (
	// StrategyBeamSearch selects the prefix beam search. It returns a ranked
	// list of hypotheses.
	StrategyBeamSearch Strategy = iota

	// StrategyBestPath selects greedy best path decoding. It returns a single
	// hypothesis per sequence.
	StrategyBestPath
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case StrategyBeamSearch:
		return "beam_search"
	case StrategyBestPath:
		return "best_path"
	}
	return "invalid_strategy"
}
