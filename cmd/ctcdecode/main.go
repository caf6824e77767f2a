// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// ctcdecode decodes CTC encoder emissions into transcripts.
//
// It reads a vocabulary (JSON id->symbol map, with the reserved "<ctc_blank>"
// symbol) and a file of utterance emissions, and prints the ranked
// transcripts:
//
//	ctcdecode --vocab vocab.json --beam 10 --lenpen 0 emissions.json
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/ctc/pkg/decode"
	"github.com/gomlx/ctc/pkg/decode/search"
	"github.com/gomlx/ctc/pkg/vocab"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagVocab  = flag.String("vocab", "", "Vocabulary JSON file mapping token ids to symbols. Required.")
	flagConfig = flag.String("config", "", "Optional YAML config file with decoding defaults; explicit flags take precedence.")

	flagBeam   = flag.Int("beam", 5, "Beam width: number of hypotheses kept per time step.")
	flagLenPen = flag.Float64("lenpen", 1.0, "Length penalty exponent. 0 ranks by raw log-probability, usually best for CTC.")
	flagGreedy = flag.Bool("greedy", false, "Use greedy best path decoding instead of beam search.")
	flagNBest  = flag.Int("nbest", 1, "Number of hypotheses to print per utterance (beam search only).")
	flagBatch  = flag.Int("batch", 8, "Number of utterances decoded per batch.")
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newResultsTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row == 1 {
				s = headerRowStyle
				return
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			if col <= 2 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		}).
		Headers("Utterance", "Rank", "Score", "Transcript")
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		klog.Errorf("Expected exactly one emissions file to decode. See 'ctcdecode -help'.")
		os.Exit(1)
	}
	if *flagVocab == "" {
		klog.Errorf("Missing --vocab file. See 'ctcdecode -help'.")
		os.Exit(1)
	}

	cfg := DefaultConfig()
	if *flagConfig != "" {
		cfg = must.M1(LoadConfig(*flagConfig))
	}
	// Explicitly set flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "beam":
			cfg.Beam = *flagBeam
		case "lenpen":
			cfg.LengthPenalty = *flagLenPen
		case "greedy":
			cfg.Greedy = *flagGreedy
		case "nbest":
			cfg.NBest = *flagNBest
		case "batch":
			cfg.BatchSize = *flagBatch
		}
	})

	run(args[0], cfg)
}

func run(emissionsPath string, cfg *Config) {
	vocabulary := must.M1(vocab.Load(*flagVocab))
	decoder := must.M1(decode.New(vocabulary)).
		WithBeamWidth(cfg.Beam).
		WithLengthPenalty(cfg.LengthPenalty)
	if cfg.Greedy {
		decoder.WithStrategy(search.StrategyBestPath)
	}

	utterances := must.M1(LoadUtterances(emissionsPath, vocabulary.Size()))
	bar := progressbar.NewOptions(len(utterances),
		progressbar.OptionSetDescription("decoding"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("utt"))

	table := newResultsTable()
	var totalFrames int64
	start := time.Now()
	for first := 0; first < len(utterances); first += cfg.BatchSize {
		batch := utterances[first:min(first+cfg.BatchSize, len(utterances))]
		em := BatchEmissions(batch, vocabulary.Size())
		results := must.M1(decoder.Decode(em))
		for b, hypotheses := range results {
			totalFrames += int64(len(batch[b].Frames))
			for rank, hyp := range hypotheses {
				if rank >= cfg.NBest {
					break
				}
				table.Row(batch[b].Id,
					fmt.Sprintf("%d", rank+1),
					fmt.Sprintf("%.4f", hyp.Score),
					vocabulary.Render(hyp.Tokens))
			}
		}
		_ = bar.Add(len(batch))
	}
	_ = bar.Finish()
	elapsed := time.Since(start)

	fmt.Println()
	fmt.Println(titleStyle.Render("Transcripts"))
	fmt.Println(table.Render())
	fmt.Printf("Decoded %s frames in %s utterances in %s (%s frames/s).\n",
		humanize.Comma(totalFrames), humanize.Comma(int64(len(utterances))),
		elapsed.Round(time.Millisecond),
		humanize.CommafWithDigits(float64(totalFrames)/elapsed.Seconds(), 1))
}
