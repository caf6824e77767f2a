// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"os"

	"github.com/gomlx/ctc/pkg/decode"
	"github.com/pkg/errors"
)

// Utterance is one sequence of encoder emissions: raw per-frame scores over
// the vocabulary, frames in time order.
type Utterance struct {
	Id     string      `json:"id"`
	Frames [][]float64 `json:"frames"`
}

type inputFile struct {
	Utterances []Utterance `json:"utterances"`
}

// LoadUtterances reads the emissions JSON file:
//
//	{"utterances": [{"id": "utt0", "frames": [[...], ...]}, ...]}
func LoadUtterances(path string, labels int) ([]Utterance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading emissions from %q", path)
	}
	var parsed inputFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, errors.Wrapf(err, "parsing emissions JSON from %q", path)
	}
	for _, utt := range parsed.Utterances {
		for t, frame := range utt.Frames {
			if len(frame) != labels {
				return nil, errors.Errorf("utterance %q frame %d has %d scores, vocabulary has %d symbols",
					utt.Id, t, len(frame), labels)
			}
		}
	}
	return parsed.Utterances, nil
}

// BatchEmissions packs a batch of utterances into one Emissions, padding
// shorter utterances to the longest one.
func BatchEmissions(batch []Utterance, labels int) *decode.Emissions {
	maxTime := 0
	for _, utt := range batch {
		if len(utt.Frames) > maxTime {
			maxTime = len(utt.Frames)
		}
	}
	em := decode.NewEmissions(len(batch), maxTime, labels)
	for b, utt := range batch {
		em.Lengths[b] = len(utt.Frames)
		for t, frame := range utt.Frames {
			em.SetFrame(b, t, frame)
		}
	}
	return em
}
