package fmindex

import "sort"

// Occ is a sampled occurrence table: for each symbol in the BWT's
// alphabet, Count(bwt, c, i) returns the number of occurrences of c in
// bwt[0:i]. Between sampled checkpoints (every SampleInterval positions),
// the count is completed by scanning forward over the BWT itself, trading
// a bounded number of byte comparisons per query for a much smaller
// resident table than a full occurrence array would need.
type Occ struct {
	SampleInterval uint32
	Alphabet       []byte  // sorted distinct symbols appearing in the BWT
	symbolIndex    [256]int32
	// Checkpoints is row-major: row i holds, for each alphabet symbol j,
	// the count of that symbol in bwt[0 : i*SampleInterval].
	Checkpoints []uint64
}

func (o *Occ) indexOf(c byte) int32 {
	return o.symbolIndex[c]
}

// buildSymbolIndex populates the reverse lookup table from Alphabet.
func (o *Occ) buildSymbolIndex() {
	for i := range o.symbolIndex {
		o.symbolIndex[i] = -1
	}
	for i, c := range o.Alphabet {
		o.symbolIndex[c] = int32(i)
	}
}

// BuildOcc computes a sampled occurrence table over bwt with the given
// sample interval (typically 32-64, per spec.md §4).
func BuildOcc(bwt []byte, interval uint32) *Occ {
	if interval == 0 {
		interval = 1
	}
	present := make(map[byte]bool)
	for _, b := range bwt {
		present[b] = true
	}
	alphabet := make([]byte, 0, len(present))
	for b := range present {
		alphabet = append(alphabet, b)
	}
	sort.Slice(alphabet, func(i, j int) bool { return alphabet[i] < alphabet[j] })

	o := &Occ{SampleInterval: interval, Alphabet: alphabet}
	o.buildSymbolIndex()

	numSymbols := len(alphabet)
	numCheckpoints := len(bwt)/int(interval) + 2
	o.Checkpoints = make([]uint64, numCheckpoints*numSymbols)

	counts := make([]uint64, numSymbols)
	row := 0
	copy(o.Checkpoints[row*numSymbols:(row+1)*numSymbols], counts)
	row++
	for i, c := range bwt {
		counts[o.indexOf(c)]++
		if (i+1)%int(interval) == 0 {
			copy(o.Checkpoints[row*numSymbols:(row+1)*numSymbols], counts)
			row++
		}
	}
	// Always keep a final checkpoint at len(bwt), whether or not it landed
	// exactly on a sample boundary above.
	copy(o.Checkpoints[row*numSymbols:(row+1)*numSymbols], counts)
	o.Checkpoints = o.Checkpoints[:(row+1)*numSymbols]
	return o
}

// Count returns the number of occurrences of c in bwt[0:i].
func (o *Occ) Count(bwt []byte, c byte, i int) uint64 {
	idx := o.indexOf(c)
	if idx < 0 {
		return 0
	}
	numSymbols := len(o.Alphabet)
	sampleRow := i / int(o.SampleInterval)
	base := o.Checkpoints[sampleRow*numSymbols+int(idx)]
	start := sampleRow * int(o.SampleInterval)
	var extra uint64
	for j := start; j < i; j++ {
		if bwt[j] == c {
			extra++
		}
	}
	return base + extra
}
