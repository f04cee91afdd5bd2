package simmatch

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/coregx/simhash/bitops"
)

func set(values ...uint64) map[uint64]struct{} {
	m := make(map[uint64]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func TestFindAllEmptyInput(t *testing.T) {
	got, err := FindAll(set(), 4, 3)
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("FindAll(empty) = %v, want empty", got)
	}
}

func TestFindAllSingleElement(t *testing.T) {
	got, err := FindAll(set(0xDEADBEEF), 4, 3)
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("FindAll(single) = %v, want empty", got)
	}
}

func TestFindAllPairWithinDistance(t *testing.T) {
	a, b := uint64(0x000000FF), uint64(0x000000EF)
	if bitops.Hamming(a, b) > 3 {
		t.Fatalf("test fixture invalid: Hamming(%#x, %#x) > 3", a, b)
	}
	for blocks := 4; blocks < 10; blocks++ {
		got, err := FindAll(set(a, b), blocks, 3)
		if err != nil {
			t.Fatalf("FindAll(blocks=%d) returned error: %v", blocks, err)
		}
		want := Pair{Low: min(a, b), High: max(a, b)}
		if _, ok := got[want]; !ok {
			t.Errorf("blocks=%d: FindAll did not find pair %v in %v", blocks, want, got)
		}
	}
}

func TestFindAllExcludesPairsBeyondDistance(t *testing.T) {
	a, b := uint64(0), uint64(0xFFFFFFFFFFFFFFFF) // Hamming distance 64
	got, err := FindAll(set(a, b), 8, 3)
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("FindAll found %v, want no matches beyond distance", got)
	}
}

func TestFindAllByteWiseClusters(t *testing.T) {
	hashes := set(
		0x000000FF, 0x000000EF, 0x000000EE, 0x000000CE, 0x00000033,
		0x0000FF00, 0x0000EF00, 0x0000EE00, 0x0000CE00, 0x00003300,
		0x00FF0000, 0x00EF0000, 0x00EE0000, 0x00CE0000, 0x00330000,
		0xFF000000, 0xEF000000, 0xEE000000, 0xCE000000, 0x33000000,
	)

	for blocks := 4; blocks <= 9; blocks++ {
		got, err := FindAll(hashes, blocks, 3)
		if err != nil {
			t.Fatalf("blocks=%d: FindAll returned error: %v", blocks, err)
		}
		if len(got) != 24 {
			t.Errorf("blocks=%d: FindAll found %d pairs, want 24", blocks, len(got))
		}
		for pair := range got {
			if bitops.Hamming(pair.Low, pair.High) > 3 {
				t.Errorf("blocks=%d: pair %v exceeds distance 3", blocks, pair)
			}
			if pair.Low > pair.High {
				t.Errorf("blocks=%d: pair %v violates Low <= High", blocks, pair)
			}
		}
	}
}

func TestFindAllNeverEmitsSelfPair(t *testing.T) {
	hashes := set(0xABCDEF, 0xABCDEE, 0xABCDEC)
	got, err := FindAll(hashes, 4, 3)
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	for pair := range got {
		if pair.Low == pair.High {
			t.Errorf("FindAll emitted self-pair %v", pair)
		}
	}
}

func TestFindAllFailsOnInvalidPermutationParameters(t *testing.T) {
	if _, err := FindAll(set(1, 2), 65, 3); err == nil {
		t.Error("expected error for blocks > 64")
	}
	if _, err := FindAll(set(1, 2), 2, 3); err == nil {
		t.Error("expected error for blocks <= distance")
	}
}

func TestFindAllConcurrentMatchesSerial(t *testing.T) {
	hashes := set(
		0x000000FF, 0x000000EF, 0x000000EE, 0x000000CE, 0x00000033,
		0x0000FF00, 0x0000EF00, 0x0000EE00, 0x0000CE00, 0x00003300,
	)

	serial, err := FindAll(hashes, 6, 3)
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	concurrent, err := FindAllConcurrent(hashes, 6, 3, 4)
	if err != nil {
		t.Fatalf("FindAllConcurrent returned error: %v", err)
	}

	if len(serial) != len(concurrent) {
		t.Fatalf("serial found %d pairs, concurrent found %d", len(serial), len(concurrent))
	}
	for pair := range serial {
		if _, ok := concurrent[pair]; !ok {
			t.Errorf("concurrent result missing pair %v", pair)
		}
	}
}

// BenchmarkFindAll mirrors bench_simhash.cpp's sweep of the matcher over
// growing corpus sizes, at a fixed (blocks, distance) pair.
func BenchmarkFindAll(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		hashes := randomHashSet(n)
		b.Run(fmt.Sprintf("N=%d", n), func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := FindAll(hashes, 6, 3); err != nil {
					b.Fatalf("FindAll returned error: %v", err)
				}
			}
		})
	}
}

func randomHashSet(n int) map[uint64]struct{} {
	r := rand.New(rand.NewSource(1))
	hashes := make(map[uint64]struct{}, n)
	for len(hashes) < n {
		hashes[r.Uint64()] = struct{}{}
	}
	return hashes
}
