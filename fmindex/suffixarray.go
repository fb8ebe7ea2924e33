package fmindex

import "sort"

// BuildSuffixArray constructs the full suffix array of seq using a
// prefix-doubling rank sort (O(n log^2 n)): in round k, suffixes are
// ordered by their first 2^k characters via a composite rank key, and the
// key size doubles each round until every suffix has a unique rank. This
// is a simpler, well-understood alternative to a linear-time SA-IS
// construction and is adequate for the corpus sizes a seed-and-extend
// binner operates over.
func BuildSuffixArray(seq []byte) []int {
	n := len(seq)
	sa := make([]int, n)
	rank := make([]int, n)
	tmp := make([]int, n)

	for i := 0; i < n; i++ {
		sa[i] = i
		rank[i] = int(seq[i])
	}

	for k := 1; ; k *= 2 {
		rankAt := func(i int) int {
			if i >= n {
				return -1
			}
			return rank[i]
		}
		sort.Slice(sa, func(i, j int) bool {
			a, b := sa[i], sa[j]
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			return rankAt(a+k) < rankAt(b+k)
		})

		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			prev, cur := sa[i-1], sa[i]
			same := rank[prev] == rank[cur] && rankAt(prev+k) == rankAt(cur+k)
			if same {
				tmp[cur] = tmp[prev]
			} else {
				tmp[cur] = tmp[prev] + 1
			}
		}
		copy(rank, tmp)

		if rank[sa[n-1]] == n-1 {
			break
		}
	}

	return sa
}
