// Package combin provides lexicographic enumeration of fixed-size subsets of
// a finite population, used by the permute package to choose which blocks of
// a fingerprint form the search prefix.
package combin

import "fmt"

// ErrPopulationTooSmall is returned by Choose when r exceeds the size of the
// population.
var ErrPopulationTooSmall = fmt.Errorf("combin: r cannot be greater than population size")

// Choose returns, in lexicographic order of index tuples, every r-element
// subsequence of population. Elements are compared by position, not by
// equality, so a population with repeated values still yields C(n, r)
// distinct index-tuples.
//
// Choose fails with ErrPopulationTooSmall when r > len(population). The
// r == 0 case returns a single empty subsequence.
//
// The algorithm keeps an index vector I = [0, 1, ..., r-1] and advances it by
// finding the rightmost index i with I[i] < i+n-r, incrementing it, and
// resetting the suffix to I[i]+1, I[i]+2, ... — the same index-advance rule
// Python's itertools.combinations uses internally.
func Choose[T any](population []T, r int) ([][]T, error) {
	n := len(population)
	if r > n {
		return nil, fmt.Errorf("%w: r=%d, n=%d", ErrPopulationTooSmall, r, n)
	}
	if r < 0 {
		return nil, fmt.Errorf("%w: r=%d, n=%d", ErrPopulationTooSmall, r, n)
	}

	indices := make([]int, r)
	for i := range indices {
		indices[i] = i
	}

	emit := func() []T {
		result := make([]T, r)
		for i, idx := range indices {
			result[i] = population[idx]
		}
		return result
	}

	results := [][]T{emit()}

	for {
		i := r - 1
		for ; i >= 0; i-- {
			if indices[i] != i+n-r {
				break
			}
		}
		if i < 0 {
			return results, nil
		}

		indices[i]++
		for j := i + 1; j < r; j++ {
			indices[j] = indices[j-1] + 1
		}
		results = append(results, emit())
	}
}
