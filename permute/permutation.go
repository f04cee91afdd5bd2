// Package permute constructs the bit-level permutations that the
// prefix-scan matcher relies on to find near-duplicate fingerprints.
//
// Given B blocks of a 64-bit fingerprint and a chosen ordering of those
// blocks, a Permutation rearranges the bits of a fingerprint so the ordered
// blocks occupy contiguous, most-significant-bit-first positions. A Set
// produces every such Permutation that covers all ways of choosing B-d
// "prefix" blocks, guaranteeing that any two fingerprints within Hamming
// distance d share an identical prefix under at least one Permutation.
package permute

import (
	"fmt"
	"math/bits"

	"github.com/coregx/simhash/bitops"
	"github.com/coregx/simhash/internal/combin"
)

// ErrTooManyBlocks is returned when the requested block count exceeds the
// fingerprint width.
var ErrTooManyBlocks = fmt.Errorf("permute: number of blocks must not exceed %d", bitops.Bits)

// ErrBlocksNotGreaterThanDistance is returned when the block count does not
// exceed the tolerated distance; at least one block must always be fully
// preserved for the prefix-scan guarantee to hold.
var ErrBlocksNotGreaterThanDistance = fmt.Errorf("permute: number of blocks must be greater than distance")

// Permutation is a bit-level rearrangement of a 64-bit word built from an
// ordered list of block masks. It keeps each block's internal bit order
// intact and changes only which block occupies which position.
type Permutation struct {
	forwardMasks []uint64
	reverseMasks []uint64
	offsets      []int
	searchMask   uint64
}

// blockRange locates the contiguous run of set bits in mask, returning the
// index of the lowest set bit i and the index just past the highest set bit
// j, so the block's width is j-i.
func blockRange(mask uint64) (i, j int) {
	i = bits.TrailingZeros64(mask)
	if i == 64 {
		return 0, 0
	}
	j = i
	for j < 64 && mask&(uint64(1)<<uint(j)) != 0 {
		j++
	}
	return i, j
}

func shift(x uint64, s int) uint64 {
	if s >= 0 {
		return x << uint(s)
	}
	return x >> uint(-s)
}

// New builds a Permutation from an ordered list of block masks, prefix
// blocks first, and a tolerance differentBits identifying how many trailing
// blocks in masks form the tail (the blocks excluded from the search
// prefix).
//
// masks must partition the 64-bit word (as produced by blockMasks); New does
// not itself validate that partition — callers within this package always
// supply masks derived from blockMasks, and constructing a Permutation from
// an arbitrary mask list is not part of the public contract.
func New(differentBits int, masks []uint64) *Permutation {
	p := &Permutation{
		forwardMasks: append([]uint64(nil), masks...),
		reverseMasks: make([]uint64, len(masks)),
		offsets:      make([]int, len(masks)),
	}

	widths := make([]int, len(masks))
	width := 0
	for k, mask := range masks {
		i, j := blockRange(mask)
		w := j - i
		width += w
		widths[k] = w

		offset := 64 - width - i
		p.offsets[k] = offset
		p.reverseMasks[k] = shift(mask, offset)
	}

	// The search mask covers every block except the last differentBits
	// blocks: prefixWidth accumulates the bit-count of those leading blocks.
	prefixWidth := 0
	for k := 0; k < len(widths)-differentBits; k++ {
		prefixWidth += widths[k]
	}
	if prefixWidth > 0 {
		p.searchMask = ^uint64(0) << uint(64-prefixWidth)
	}

	return p
}

// Apply permutes h according to this Permutation.
func (p *Permutation) Apply(h uint64) uint64 {
	var result uint64
	for k, mask := range p.forwardMasks {
		result |= shift(h&mask, p.offsets[k])
	}
	return result
}

// Reverse undoes Apply, recovering the original fingerprint from a permuted
// value.
func (p *Permutation) Reverse(h uint64) uint64 {
	var result uint64
	for k, mask := range p.reverseMasks {
		result |= shift(h&mask, -p.offsets[k])
	}
	return result
}

// SearchMask returns the mask selecting the high bits occupied by the
// prefix blocks after permutation. Two permuted fingerprints that agree
// under SearchMask share an identical, unpermuted prefix block subset.
func (p *Permutation) SearchMask() uint64 {
	return p.searchMask
}

// blockMasks partitions the 64 bits of a fingerprint into count contiguous
// blocks. Block i spans [i*64/count, (i+1)*64/count); widths differ by at
// most one bit when 64 is not evenly divisible by count.
func blockMasks(count int) []uint64 {
	masks := make([]uint64, count)
	for i := 0; i < count; i++ {
		start := (i * bitops.Bits) / count
		end := ((i + 1) * bitops.Bits) / count
		var mask uint64
		for b := start; b < end; b++ {
			mask |= uint64(1) << uint(b)
		}
		masks[i] = mask
	}
	return masks
}

// Set is the collection of Permutations produced by NewSet for a given
// (blocks, distance) pair — enough permutations to guarantee, by
// pigeonhole, that any two fingerprints within the tolerated distance share
// an identical prefix under at least one of them.
type Set struct {
	Permutations []*Permutation
}

// NewSet builds every Permutation needed to find fingerprint pairs within
// distance differentBits of each other, using numberOfBlocks contiguous
// blocks of the 64-bit word.
//
// It fails with ErrTooManyBlocks when numberOfBlocks > 64, with
// ErrBlocksNotGreaterThanDistance when numberOfBlocks <= differentBits, and
// with an error when differentBits < 0.
func NewSet(numberOfBlocks, differentBits int) (*Set, error) {
	if numberOfBlocks > bitops.Bits {
		return nil, ErrTooManyBlocks
	}
	if differentBits < 0 {
		return nil, fmt.Errorf("permute: distance must not be negative, got %d", differentBits)
	}
	if numberOfBlocks <= differentBits {
		return nil, ErrBlocksNotGreaterThanDistance
	}

	blocks := blockMasks(numberOfBlocks)
	prefixCount := numberOfBlocks - differentBits

	choices, err := combin.Choose(blocks, prefixCount)
	if err != nil {
		// combin.Choose only fails when r > n, which cannot happen here
		// since prefixCount <= numberOfBlocks by construction above.
		return nil, fmt.Errorf("permute: unexpected combinator failure: %w", err)
	}

	permutations := make([]*Permutation, 0, len(choices))
	for _, prefix := range choices {
		ordered := make([]uint64, 0, numberOfBlocks)
		ordered = append(ordered, prefix...)
		for _, block := range blocks {
			if !containsMask(prefix, block) {
				ordered = append(ordered, block)
			}
		}
		permutations = append(permutations, New(differentBits, ordered))
	}

	return &Set{Permutations: permutations}, nil
}

func containsMask(haystack []uint64, needle uint64) bool {
	for _, m := range haystack {
		if m == needle {
			return true
		}
	}
	return false
}
