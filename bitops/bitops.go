// Package bitops provides bit-width constants and Hamming distance for the
// 64-bit fingerprints the simhash package operates on.
package bitops

import (
	"math/bits"

	"golang.org/x/sys/cpu"
)

// Bits is the number of bits in a Fingerprint.
const Bits = 64

// Fingerprint is a 64-bit locality-sensitive hash value.
type Fingerprint = uint64

// HasHardwarePopcount reports whether the current CPU exposes a hardware
// population-count instruction (POPCNT on amd64, part of the base ISA on
// arm64). Hamming always returns a correct result regardless of this value;
// it is exposed so callers can log which path the runtime took (neither CLI
// binary reads it), the way prefilter/teddy_*.go report SIMD availability.
var HasHardwarePopcount = cpu.X86.HasPOPCNT || cpu.ARM64.HasASIMD

// Hamming returns the number of bit positions in which a and b differ.
//
// math/bits.OnesCount64 is a compiler intrinsic that lowers to a single
// POPCNT instruction on hardware that supports it, so there is no separate
// hand-rolled fast path here; HasHardwarePopcount exists purely for
// diagnostics.
func Hamming(a, b Fingerprint) int {
	return bits.OnesCount64(a ^ b)
}
