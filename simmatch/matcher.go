// Package simmatch implements the prefix-scan near-duplicate matcher: for
// each permutation produced by permute.NewSet, it permutes a corpus of
// fingerprints, sorts it, and scans equal-prefix runs for pairs within a
// tolerated Hamming distance.
package simmatch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coregx/simhash/bitops"
	"github.com/coregx/simhash/permute"
)

// Pair is an unordered pair of fingerprints with Low <= High.
type Pair struct {
	Low, High uint64
}

// FindAll returns every unordered pair of fingerprints in hashes whose
// Hamming distance is at most distance, using numberOfBlocks contiguous
// blocks of the 64-bit word to build the search permutations.
//
// hashes is a set (duplicate fingerprints collapse to one key, matching the
// C++ original's use of std::unordered_set) so the matcher never needs to
// special-case a fingerprint against itself.
//
// FindAll fails only when permute.NewSet fails: numberOfBlocks > 64,
// numberOfBlocks <= distance, or distance < 0.
func FindAll(hashes map[uint64]struct{}, numberOfBlocks, distance int) (map[Pair]struct{}, error) {
	set, err := permute.NewSet(numberOfBlocks, distance)
	if err != nil {
		return nil, fmt.Errorf("simmatch: %w", err)
	}

	results := make(map[Pair]struct{})
	if len(hashes) < 2 {
		return results, nil
	}

	original := make([]uint64, 0, len(hashes))
	for h := range hashes {
		original = append(original, h)
	}
	scratch := make([]uint64, len(original))

	for _, p := range set.Permutations {
		scanPermutation(p, original, scratch, distance, results)
	}

	return results, nil
}

// scanPermutation applies p to every hash in original, writing the permuted
// values into scratch (cleared and refilled rather than reallocated, per
// spec §5), sorts scratch in place, and walks equal-prefix runs, inserting
// any pair within distance into results.
func scanPermutation(p *permute.Permutation, original, scratch []uint64, distance int, results map[Pair]struct{}) {
	for i, h := range original {
		scratch[i] = p.Apply(h)
	}
	permuted := scratch
	sort.Slice(permuted, func(i, j int) bool { return permuted[i] < permuted[j] })

	mask := p.SearchMask()
	start := 0
	for start < len(permuted) {
		prefix := permuted[start] & mask
		end := start + 1
		for end < len(permuted) && permuted[end]&mask == prefix {
			end++
		}

		for a := start; a < end; a++ {
			for b := a + 1; b < end; b++ {
				if bitops.Hamming(permuted[a], permuted[b]) > distance {
					continue
				}
				origA := p.Reverse(permuted[a])
				origB := p.Reverse(permuted[b])
				low, high := origA, origB
				if low > high {
					low, high = high, low
				}
				results[Pair{Low: low, High: high}] = struct{}{}
			}
		}

		start = end
	}
}

// FindAllConcurrent is an optional convenience wrapper around FindAll that
// partitions permutations across a bounded pool of goroutines, as spec §5
// explicitly admits: each worker owns its own scratch copy and a private
// partial result set, merged by set union once every worker finishes. It is
// not part of the core contract — FindAll alone is sufficient. With
// workers == 1 all permutations are scanned on a single worker goroutine; the
// result is the same set FindAll returns.
//
// workers <= 0 is treated as 1.
func FindAllConcurrent(hashes map[uint64]struct{}, numberOfBlocks, distance, workers int) (map[Pair]struct{}, error) {
	set, err := permute.NewSet(numberOfBlocks, distance)
	if err != nil {
		return nil, fmt.Errorf("simmatch: %w", err)
	}
	if workers <= 0 {
		workers = 1
	}

	results := make(map[Pair]struct{})
	if len(hashes) < 2 {
		return results, nil
	}

	original := make([]uint64, 0, len(hashes))
	for h := range hashes {
		original = append(original, h)
	}

	jobs := make(chan *permute.Permutation)
	partials := make(chan map[Pair]struct{}, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker owns a private scratch vector: sharing one across
			// goroutines would race, the same constraint spec §5 notes for
			// caller-driven parallelism ("each thread owns its scratch
			// vector and a private partial match-set").
			scratch := make([]uint64, len(original))
			partial := make(map[Pair]struct{})
			for p := range jobs {
				scanPermutation(p, original, scratch, distance, partial)
			}
			partials <- partial
		}()
	}

	for _, p := range set.Permutations {
		jobs <- p
	}
	close(jobs)

	wg.Wait()
	close(partials)

	for partial := range partials {
		for pair := range partial {
			results[pair] = struct{}{}
		}
	}

	return results, nil
}
