// Package simcluster groups near-duplicate fingerprint pairs into
// connected-component clusters via breadth-first search over the match
// graph.
package simcluster

import (
	"fmt"

	"github.com/coregx/simhash/simmatch"
)

// Cluster is a non-empty, pairwise-disjoint connected component of
// fingerprints joined by near-duplicate matches. Fingerprint order within a
// Cluster is unspecified.
type Cluster = map[uint64]struct{}

// FindClusters groups fingerprints in hashes into connected components of
// the match graph produced by simmatch.FindAll with the same numberOfBlocks
// and distance parameters. Fingerprints that appear in no match are not
// represented in the output; cluster iteration order is unspecified.
//
// FindClusters fails only when simmatch.FindAll fails.
func FindClusters(hashes map[uint64]struct{}, numberOfBlocks, distance int) ([]Cluster, error) {
	matches, err := simmatch.FindAll(hashes, numberOfBlocks, distance)
	if err != nil {
		return nil, fmt.Errorf("simcluster: %w", err)
	}

	adjacency := make(map[uint64]map[uint64]struct{})
	for pair := range matches {
		addEdge(adjacency, pair.Low, pair.High)
		addEdge(adjacency, pair.High, pair.Low)
	}

	visited := make(map[uint64]bool, len(adjacency))
	clusters := make([]Cluster, 0)

	for node := range adjacency {
		if visited[node] {
			continue
		}

		cluster := make(Cluster)
		frontier := []uint64{node}
		visited[node] = true

		for len(frontier) > 0 {
			current := frontier[0]
			frontier = frontier[1:]
			cluster[current] = struct{}{}

			for neighbor := range adjacency[current] {
				if !visited[neighbor] {
					visited[neighbor] = true
					frontier = append(frontier, neighbor)
				}
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters, nil
}

func addEdge(adjacency map[uint64]map[uint64]struct{}, a, b uint64) {
	if adjacency[a] == nil {
		adjacency[a] = make(map[uint64]struct{})
	}
	adjacency[a][b] = struct{}{}
}
