package simcluster

import "testing"

func set(values ...uint64) map[uint64]struct{} {
	m := make(map[uint64]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func TestFindClustersDistanceFour(t *testing.T) {
	clusters, err := FindClusters(set(20, 10), 5, 4)
	if err != nil {
		t.Fatalf("FindClusters returned error: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
	if _, ok := clusters[0][20]; !ok {
		t.Errorf("cluster missing 20: %v", clusters[0])
	}
	if _, ok := clusters[0][10]; !ok {
		t.Errorf("cluster missing 10: %v", clusters[0])
	}
}

func TestFindClustersIsolatedFingerprintExcluded(t *testing.T) {
	// 0xFFFFFFFF differs from the rest by far more than the tolerated
	// distance and must not appear in any cluster.
	hashes := set(0x000000FF, 0x000000EF, 0x000000EE, 0xFFFFFFFF)
	clusters, err := FindClusters(hashes, 8, 2)
	if err != nil {
		t.Fatalf("FindClusters returned error: %v", err)
	}
	for _, cluster := range clusters {
		if _, ok := cluster[0xFFFFFFFF]; ok {
			t.Errorf("isolated fingerprint appeared in cluster %v", cluster)
		}
	}
}

func TestFindClustersPairwiseDisjointUnionCoversMatches(t *testing.T) {
	hashes := set(
		0x000000FF, 0x000000EF, 0x000000EE, 0x000000CE,
		0x0000FF00, 0x0000EF00, 0x0000EE00, 0x0000CE00,
	)
	clusters, err := FindClusters(hashes, 6, 3)
	if err != nil {
		t.Fatalf("FindClusters returned error: %v", err)
	}

	seen := make(map[uint64]int)
	for _, cluster := range clusters {
		for h := range cluster {
			seen[h]++
		}
	}
	for h, count := range seen {
		if count != 1 {
			t.Errorf("fingerprint %#x appears in %d clusters, want exactly 1", h, count)
		}
	}
}

func TestFindClustersEmptyInput(t *testing.T) {
	clusters, err := FindClusters(set(), 4, 2)
	if err != nil {
		t.Fatalf("FindClusters returned error: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("FindClusters(empty) = %v, want none", clusters)
	}
}
