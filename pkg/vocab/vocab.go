// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package vocab implements the label vocabulary used by CTC decoding: a fixed
// mapping from label index to symbol with two reserved symbols, the CTC blank
// and the end-of-sentence marker.
package vocab

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// BlankSymbol is the reserved symbol emitted by a CTC model when no new
	// label is produced at a time step. A Vocabulary must contain it.
	BlankSymbol = "<ctc_blank>"

	// EosSymbol is the reserved end-of-sentence symbol.
	EosSymbol = "</s>"
)

// Vocabulary is an immutable mapping from label index to symbol.
// Create it with New or Load.
type Vocabulary struct {
	symbols []string
	indices map[string]int
	blank   int
	eos     int
}

// New creates a Vocabulary from the given ordered list of symbols.
// It returns an error if the blank symbol is not registered: CTC decoding is
// undefined without it. The EOS symbol is optional, EosIndex returns -1 if
// it is missing.
func New(symbols []string) (*Vocabulary, error) {
	v := &Vocabulary{
		symbols: symbols,
		indices: make(map[string]int, len(symbols)),
		blank:   -1,
		eos:     -1,
	}
	for idx, symbol := range symbols {
		if symbol == "" {
			// Holes from sparse vocabulary files: not indexable.
			continue
		}
		if _, found := v.indices[symbol]; found {
			return nil, errors.Errorf("vocabulary has duplicate symbol %q (indices %d and %d)",
				symbol, v.indices[symbol], idx)
		}
		v.indices[symbol] = idx
	}
	if idx, found := v.indices[BlankSymbol]; found {
		v.blank = idx
	} else {
		return nil, errors.Errorf("vocabulary has no %q symbol, required for CTC decoding", BlankSymbol)
	}
	if idx, found := v.indices[EosSymbol]; found {
		v.eos = idx
	}
	return v, nil
}

// Load reads a vocabulary from a JSON file mapping token ids to symbols, e.g.
// `{"0": "<ctc_blank>", "1": "▁the", ...}`. Ids absent from the file map to
// the empty symbol.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading vocabulary from %q", path)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing vocabulary JSON from %q", path)
	}
	maxId := -1
	for key := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid token id %q in %q", key, path)
		}
		if id < 0 {
			return nil, errors.Errorf("negative token id %q in %q", key, path)
		}
		if id > maxId {
			maxId = id
		}
	}
	symbols := make([]string, maxId+1)
	for key, symbol := range raw {
		id, _ := strconv.Atoi(key)
		symbols[id] = symbol
	}
	return New(symbols)
}

// Size returns the number of symbols in the vocabulary.
func (v *Vocabulary) Size() int { return len(v.symbols) }

// BlankIndex returns the index of the CTC blank symbol.
func (v *Vocabulary) BlankIndex() int { return v.blank }

// EosIndex returns the index of the EOS symbol, or -1 if the vocabulary has none.
func (v *Vocabulary) EosIndex() int { return v.eos }

// Symbol returns the symbol for the given label index.
func (v *Vocabulary) Symbol(index int) string {
	return v.symbols[index]
}

// Index returns the index of the given symbol, or -1 if it is not in the vocabulary.
func (v *Vocabulary) Index(symbol string) int {
	if idx, found := v.indices[symbol]; found {
		return idx
	}
	return -1
}

// Render converts a sequence of label indices to text. SentencePiece "▁"
// markers are replaced with spaces and the result is trimmed. Blank and EOS
// labels are skipped, so rendering a decoded hypothesis is always safe.
func (v *Vocabulary) Render(tokens []int) string {
	var b strings.Builder
	for _, id := range tokens {
		if id == v.blank || id == v.eos {
			continue
		}
		if id >= 0 && id < len(v.symbols) {
			b.WriteString(v.symbols[id])
		}
	}
	text := strings.ReplaceAll(b.String(), "▁", " ")
	return strings.TrimSpace(text)
}
