package fmindex

// SampledSA is a suffix array stored at a sample rate of one entry every
// SampleInterval corpus positions, per spec.md §4.1 step 6 / §9's design
// note: rather than keep the full SA in memory, only the entries whose
// *text position* is a multiple of SampleInterval are retained; any other
// entry is resolved at query time by repeatedly applying the LF-mapping
// (which always steps the text position back by exactly one) until a
// sampled position is reached. Because sampled positions recur every
// SampleInterval text positions, this terminates within SampleInterval-1
// steps.
type SampledSA struct {
	SampleInterval uint32
	CorpusLen      uint64
	// Sampled maps an SA index to its (sampled) text position. An entry
	// exists only for SA indices i where sa[i] % SampleInterval == 0.
	Sampled map[uint64]uint64
}

// BuildSampledSA samples every SampleInterval-th text position out of a
// fully-built suffix array. Position 0 (the whole-corpus suffix, which is
// always present exactly once) is always a multiple of any interval, so it
// is always retained and guarantees the back-walk in Locate always
// terminates.
func BuildSampledSA(sa []int, interval uint32) *SampledSA {
	if interval == 0 {
		interval = 1
	}
	sampled := make(map[uint64]uint64)
	for i, p := range sa {
		if uint64(p)%uint64(interval) == 0 {
			sampled[uint64(i)] = uint64(p)
		}
	}
	return &SampledSA{
		SampleInterval: interval,
		CorpusLen:      uint64(len(sa)),
		Sampled:        sampled,
	}
}

// Locate resolves SA index i to its absolute corpus text position, back-
// walking the LF-mapping through fm until a sampled entry is found.
func (fm *FMIndex) Locate(sa *SampledSA, i uint64) uint64 {
	var steps uint64
	for {
		if p, ok := sa.Sampled[i]; ok {
			return p + steps
		}
		i = fm.LF(i)
		steps++
	}
}
