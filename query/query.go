// Package query implements the per-read orchestrator (component G of the
// specification): running the seed-and-extend pipeline once on the
// forward strand and once on the reverse complement, and merging the two
// hit sets, per spec.md §4.2.4.
package query

import (
	"math"

	"github.com/FofanovLab/mtsv-tools/candidate"
	"github.com/FofanovLab/mtsv-tools/corpus"
	"github.com/FofanovLab/mtsv-tools/editdist"
	"github.com/FofanovLab/mtsv-tools/fmindex"
	"github.com/FofanovLab/mtsv-tools/ids"
	"github.com/FofanovLab/mtsv-tools/seed"
	"github.com/FofanovLab/mtsv-tools/swscore"
)

// Hit is one confirmed taxonomic assignment for a read.
type Hit struct {
	TaxId  ids.TaxId
	Gi     ids.Gi
	Offset uint64
	Edits  int
}

// Params bundles every tunable of the seed/candidate/score/confirm
// pipeline, threaded through from the CLI flags described in spec.md §6.
type Params struct {
	EditFreq             float64 // e = ceil(len(seq) * EditFreq)
	SeedLength           int
	SeedGap              int
	MinSeedsPercent      float64
	MaxHits              int
	TuneMaxHits          int
	MaxCandidatesChecked int // 0 means unlimited
	MaxAssignments       int // 0 means unlimited
}

// complementTable maps each case-folded base (and the sentinel) to its
// Watson-Crick complement; anything else folds to 'N'.
var complementTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 'N'
	}
	t['A'] = 'T'
	t['C'] = 'G'
	t['G'] = 'C'
	t['T'] = 'A'
	t['N'] = 'N'
	return t
}()

// ReverseComplement returns the Watson-Crick reverse complement of a
// case-folded sequence.
func ReverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	n := len(seq)
	for i, b := range seq {
		out[n-1-i] = complementTable[b]
	}
	return out
}

// matchingTaxIds runs the full component C-F pipeline against sequence
// (which must already be case-folded per corpus.FoldSequence) using fm/sa
// for seed lookups and cp for bin resolution. It does not run on the
// reverse complement; callers that want both strands call Run instead.
func matchingTaxIds(fm *fmindex.FMIndex, sa *fmindex.SampledSA, cp *corpus.Corpus, sequence []byte, p Params) ([]Hit, error) {
	seqLen := len(sequence)
	editDistance := int(math.Ceil(float64(seqLen) * p.EditFreq))

	harvest := seed.Harvest(fm, sa, sequence, seed.Params{
		SeedLength:  p.SeedLength,
		SeedGap:     p.SeedGap,
		MaxHits:     p.MaxHits,
		TuneMaxHits: p.TuneMaxHits,
	})

	minSeeds := int(float64(harvest.NumSeeds) * p.MinSeedsPercent)
	if minSeeds < 1 {
		minSeeds = 1
	}

	candidates, err := candidate.Coalesce(cp, harvest.Hits, minSeeds, seqLen, editDistance)
	if err != nil {
		return nil, err
	}

	profile := swscore.NewProfile(sequence)

	var hits []Hit
	matched := make(map[ids.TaxId]bool)
	checked := 0

	for _, cand := range candidates {
		if matched[cand.Bin.TaxId] {
			continue
		}
		if p.MaxCandidatesChecked > 0 && checked >= p.MaxCandidatesChecked {
			break
		}
		checked++

		candSeq := cand.Seq(cp)
		score := profile.Score(candSeq)
		if score < seqLen-2*editDistance {
			continue
		}

		edits, ok := editdist.Confirm(sequence, candSeq, editDistance)
		if !ok {
			continue
		}

		matched[cand.Bin.TaxId] = true
		hits = append(hits, Hit{
			TaxId:  cand.Bin.TaxId,
			Gi:     cand.Bin.Gi,
			Offset: cand.Start - cand.Bin.Start,
			Edits:  edits,
		})

		if p.MaxAssignments > 0 && len(hits) >= p.MaxAssignments {
			break
		}
	}

	return hits, nil
}

// Run executes the complete per-read orchestration described in spec.md
// §4.2.4: case-fold is assumed already done by the caller (cmd/mtsv-bin's
// per-record work folds each read before calling Run);
// matching is run once forward and once on the reverse complement, and
// the two hit lists are concatenated without deduplication (the codec
// layer is responsible for collapsing duplicates across strands). Returns
// candidate.ErrBinOverrun if the index's bin table and suffix array have
// fallen out of sync (see candidate.ErrBinOverrun).
func Run(fm *fmindex.FMIndex, sa *fmindex.SampledSA, cp *corpus.Corpus, foldedSeq []byte, p Params) ([]Hit, error) {
	forward, err := matchingTaxIds(fm, sa, cp, foldedSeq, p)
	if err != nil {
		return nil, err
	}
	reverse, err := matchingTaxIds(fm, sa, cp, ReverseComplement(foldedSeq), p)
	if err != nil {
		return nil, err
	}
	return append(forward, reverse...), nil
}
