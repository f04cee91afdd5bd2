// Package simhash provides locality-sensitive near-duplicate detection over
// 64-bit fingerprints.
//
// Given a corpus of previously-computed fingerprints, it finds every pair
// that differs in at most d bit positions (Hamming distance <= d) and
// groups such pairs into connected-component clusters. It also computes a
// single fingerprint from a stream of component hashes by column-wise sign
// aggregation (the simhash algorithm proper).
//
// simhash achieves sub-quadratic near-duplicate search through:
//   - a block-permutation generator guaranteeing pigeonhole coverage of any
//     pair within the tolerated distance (package permute)
//   - a sort-and-scan prefix matcher instead of an all-pairs comparison
//     (package simmatch)
//   - connected-component clustering over the resulting match graph
//     (package simcluster)
//
// Basic usage:
//
//	hashes := map[uint64]struct{}{0x000000FF: {}, 0x000000EF: {}}
//	pairs, err := simhash.FindAll(hashes, 8, 3)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	clusters, err := simhash.FindClusters(hashes, 8, 3)
//
// The library operates on a snapshot of fingerprints and produces a
// snapshot of matches; it is single-threaded and synchronous (see
// simmatch.FindAllConcurrent for the caller-driven parallel variant) and
// never logs, panics on invalid input, or performs I/O — those concerns
// belong to the cmd/simhash-find-all and cmd/simhash-find-clusters
// binaries.
package simhash

import (
	"github.com/coregx/simhash/bitops"
	"github.com/coregx/simhash/simcluster"
	"github.com/coregx/simhash/simmatch"
)

// Pair is an unordered pair of near-duplicate fingerprints, Low <= High.
type Pair = simmatch.Pair

// Cluster is a connected component of near-duplicate fingerprints.
type Cluster = simcluster.Cluster

// Hamming returns the number of bit positions in which a and b differ, a
// value in [0, 64].
func Hamming(a, b uint64) int {
	return bitops.Hamming(a, b)
}

// Compute aggregates hashes into a single 64-bit fingerprint by column-wise
// majority vote: bit i of the result is set iff more of the inputs have bit
// i set than clear. Ties (equal counts) produce a clear bit. Compute(nil)
// is 0.
func Compute(hashes []uint64) uint64 {
	var counts [bitops.Bits]int64
	for _, h := range hashes {
		for i := 0; i < bitops.Bits; i++ {
			if h&1 != 0 {
				counts[i]++
			} else {
				counts[i]--
			}
			h >>= 1
		}
	}

	var result uint64
	for i, c := range counts {
		if c > 0 {
			result |= uint64(1) << uint(i)
		}
	}
	return result
}

// FindAll returns every unordered pair of fingerprints in hashes within
// Hamming distance distance of each other, partitioning the 64-bit word
// into numberOfBlocks contiguous blocks to build the search permutations.
//
// FindAll fails when numberOfBlocks > 64, numberOfBlocks <= distance, or
// distance < 0.
func FindAll(hashes map[uint64]struct{}, numberOfBlocks, distance int) (map[Pair]struct{}, error) {
	return simmatch.FindAll(hashes, numberOfBlocks, distance)
}

// FindClusters groups fingerprints in hashes into connected components of
// the near-duplicate match graph. Fingerprints appearing in no match are
// omitted from the result.
//
// FindClusters fails when numberOfBlocks > 64, numberOfBlocks <= distance,
// or distance < 0.
func FindClusters(hashes map[uint64]struct{}, numberOfBlocks, distance int) ([]Cluster, error) {
	return simcluster.FindClusters(hashes, numberOfBlocks, distance)
}
