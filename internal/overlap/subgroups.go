// internal/overlap/subgroups.go - Subgroup combination generator
package overlap

import (
	"iter"
)

// Subgroups yields every non-empty subset of the indices 0..n-1, largest first.
// Subsets of equal size come in lexicographic order of their sorted indices, so
// the full set is first and the singletons {0}, {1}, ... are last. Each yielded
// slice is freshly allocated and may be retained by the caller.
func Subgroups(n int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		for size := n; size > 0; size-- {
			for combo := range Combinations(n, size) {
				if !yield(combo) {
					return
				}
			}
		}
	}
}

// Combinations yields the k-element subsets of 0..n-1 in lexicographic order
func Combinations(n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k <= 0 || k > n {
			return
		}
		combo := make([]int, k)
		for i := range combo {
			combo[i] = i
		}
		for {
			if !yield(append([]int(nil), combo...)) {
				return
			}
			// rightmost position that can still advance
			i := k - 1
			for i >= 0 && combo[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			combo[i]++
			for j := i + 1; j < k; j++ {
				combo[j] = combo[j-1] + 1
			}
		}
	}
}
