package fmindex

// BWT derives the Burrows-Wheeler transform of seq from its suffix array:
// bwt[i] = seq[sa[i]-1], or the final byte of seq when sa[i] == 0.
func BWT(seq []byte, sa []int) []byte {
	n := len(seq)
	bwt := make([]byte, n)
	for i, s := range sa {
		if s == 0 {
			bwt[i] = seq[n-1]
		} else {
			bwt[i] = seq[s-1]
		}
	}
	return bwt
}

// Less is the FM-index "C array": Less[c] is the number of bytes in seq
// that are strictly lexicographically smaller than byte value c. It has a
// fixed 256-entry layout regardless of which byte values actually occur,
// matching the on-disk "less table (256 x u64)" layout in spec.md §6.
type Less [256]uint64

// BuildLess computes the C array over seq.
func BuildLess(seq []byte) Less {
	var counts [256]uint64
	for _, b := range seq {
		counts[b]++
	}
	var less Less
	var cum uint64
	for c := 0; c < 256; c++ {
		less[c] = cum
		cum += counts[c]
	}
	return less
}
