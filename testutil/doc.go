// Package testutil provides testing utilities for pandora.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random descriptors, codebooks and
// training matrices, and brute-force references for nearest-centroid search.
//
// # Random Generation
//
//	rng := testutil.NewRNG(seed)
//	descs := rng.UniformMatrix(500, 16)     // uniform [0, 1)
//	sample := rng.GaussianMatrix(200, 8)     // standard normal
//	descs = rng.ClusteredMatrix(1000, 16, 8, 0.05)
//
// # References
//
//	idx := testutil.BruteForceNearest(descriptor, centroids)
package testutil
