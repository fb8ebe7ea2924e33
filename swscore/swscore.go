// Package swscore implements the SIMD-striped Smith-Waterman score filter
// (component E of the specification): a fast, local-alignment score used
// to reject candidate windows before the expensive exact edit-distance
// confirmation in package editdist, per spec.md §4.2.3.
//
// The real mtsv binner this is grounded on links against a native striped
// SSW implementation (ssw::Profile); no such C library is wired into this
// pack's dependency surface, so the scorer here computes the same score
// with a straight dynamic-programming local alignment rather than an
// actual lane-striped SIMD kernel. The Profile type still exists to
// preserve the "build once per read, reuse across every candidate" shape
// the original API has, since that reuse is what spec.md §4.2.3 step 2
// requires.
package swscore

// matchScore/mismatchScore/gapPenalty implement the identity matrix with
// gap-open=gap-extend=1 that spec.md §4.2.3 mandates: a match scores +1,
// anything else (mismatch, insertion, or deletion) costs -1.
const (
	matchScore    = 1
	mismatchScore = -1
	gapPenalty    = 1
)

// Profile is a precomputed, read-specific scoring context: building it
// once per read (forward or reverse-complement) and reusing it across
// every candidate window avoids re-deriving per-read constants on each
// alignment, mirroring ssw::Profile's reuse contract.
type Profile struct {
	query []byte
}

// NewProfile builds a Profile for query, to be reused across every
// candidate window aligned against this read (or its reverse complement).
func NewProfile(query []byte) *Profile {
	return &Profile{query: query}
}

// Score computes the local-alignment (Smith-Waterman) score of p's query
// against ref, using the identity scoring scheme described above. The
// score never drops below zero (local alignment semantics).
func (p *Profile) Score(ref []byte) int {
	query := p.query
	n, m := len(query), len(ref)
	if n == 0 || m == 0 {
		return 0
	}

	prev := make([]int, m+1)
	curr := make([]int, m+1)
	best := 0

	for i := 1; i <= n; i++ {
		curr[0] = 0
		qc := query[i-1]
		for j := 1; j <= m; j++ {
			var sub int
			if qc == ref[j-1] {
				sub = prev[j-1] + matchScore
			} else {
				sub = prev[j-1] + mismatchScore
			}
			del := prev[j] - gapPenalty
			ins := curr[j-1] - gapPenalty
			score := 0
			if sub > score {
				score = sub
			}
			if del > score {
				score = del
			}
			if ins > score {
				score = ins
			}
			curr[j] = score
			if score > best {
				best = score
			}
		}
		prev, curr = curr, prev
	}

	return best
}
