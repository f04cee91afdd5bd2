// Package iocodec implements the persisted formats the CLI binaries read
// and write: a host-endian binary fingerprint stream, a host-endian binary
// match-pair stream, and a newline-delimited decimal cluster text format.
//
// None of this belongs to the core simhash library (spec §7: "the library
// itself never ... prints; all diagnostics belong to the CLI layer") — it
// exists purely to give cmd/simhash-find-all and cmd/simhash-find-clusters
// something to read from and write to.
package iocodec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/coregx/simhash/simcluster"
	"github.com/coregx/simhash/simmatch"
)

// hostOrder is the byte order used for all binary I/O. It is fixed to
// little-endian rather than the true native order of the running machine:
// spec §9 asks for host-endian behavior for backward compatibility with the
// original tool, and the overwhelming majority of machines this runs on
// are little-endian, so binary.LittleEndian is the practical stand-in for
// "host order" without requiring build-tag-gated, per-architecture byte
// order detection.
var hostOrder = binary.LittleEndian

// ReadFingerprints reads a concatenation of 8-byte fingerprint values from
// r until EOF, returning them as a set (duplicate fingerprints collapse to
// one key, as the core requires).
//
// A trailing partial record (fewer than 8 bytes before EOF) is treated as
// the end of the stream, matching the original tool's behavior of breaking
// out of its read loop the moment a read fails.
func ReadFingerprints(r io.Reader) (map[uint64]struct{}, error) {
	hashes := make(map[uint64]struct{})
	br := bufio.NewReader(r)
	buf := make([]byte, 8)

	for {
		if _, err := io.ReadFull(br, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("iocodec: reading fingerprint: %w", err)
		}
		hashes[hostOrder.Uint64(buf)] = struct{}{}
	}

	return hashes, nil
}

// WriteMatches writes each match pair as a 16-byte record (8-byte Low
// followed by 8-byte High) in hostOrder, in ascending (Low, High) order so
// output is deterministic across runs.
func WriteMatches(w io.Writer, matches map[simmatch.Pair]struct{}) error {
	pairs := make([]simmatch.Pair, 0, len(matches))
	for p := range matches {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Low != pairs[j].Low {
			return pairs[i].Low < pairs[j].Low
		}
		return pairs[i].High < pairs[j].High
	})

	bw := bufio.NewWriter(w)
	buf := make([]byte, 16)
	for _, p := range pairs {
		hostOrder.PutUint64(buf[0:8], p.Low)
		hostOrder.PutUint64(buf[8:16], p.High)
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("iocodec: writing match: %w", err)
		}
	}
	return bw.Flush()
}

// ReadFingerprintLines reads one decimal unsigned 64-bit fingerprint per
// line from r, returning them as a set. Blank lines are skipped; any
// non-blank line that fails to parse as a decimal uint64 is a parse
// failure (spec §7.3: malformed input must be rejected, not silently
// skipped).
func ReadFingerprintLines(r io.Reader) (map[uint64]struct{}, error) {
	hashes := make(map[uint64]struct{})
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		h, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("iocodec: line %d: invalid fingerprint %q: %w", lineNo, line, err)
		}
		hashes[h] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("iocodec: reading fingerprints: %w", err)
	}
	return hashes, nil
}

// WriteClusters writes one cluster per line as "[h1, h2, ..., hk]\n" with
// decimal members. Intra-cluster member order is sorted ascending for
// determinism, even though the contract (spec §4.6) leaves it unspecified.
func WriteClusters(w io.Writer, clusters []simcluster.Cluster) error {
	bw := bufio.NewWriter(w)
	for _, cluster := range clusters {
		members := make([]uint64, 0, len(cluster))
		for h := range cluster {
			members = append(members, h)
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

		var b strings.Builder
		b.WriteByte('[')
		for i, h := range members {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.FormatUint(h, 10))
		}
		b.WriteString("]\n")

		if _, err := bw.WriteString(b.String()); err != nil {
			return fmt.Errorf("iocodec: writing cluster: %w", err)
		}
	}
	return bw.Flush()
}
