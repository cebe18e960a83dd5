// Package pandora turns sets of local image descriptors into fixed-size
// vectors for similarity search and compresses them with a learned PCA
// projection.
//
// The root package holds the shared error taxonomy, the structured logger and
// the metrics interface. The numeric core lives in subpackages:
//
//   - codebook: immutable centroid sets with early-abort nearest neighbor lookup
//   - normalize: signed power and Euclidean (L2) normalization
//   - aggregate: bag-of-words, VLAD and VLAT aggregation over one or more codebooks
//   - sample: seeded random permutation sampling
//   - projection: PCA projection spaces fit via SVD and the reducers that apply them
//
// Batch orchestration over artifact stores lives in pipeline, configured via
// config and backed by blobstore.
//
// # Quick Start
//
//	cb, _ := codebook.New(centroids)
//	agg, _ := aggregate.New(aggregate.Config{Method: aggregate.VLAD, Normalize: true}, cb)
//	vec, _ := agg.Aggregate(descriptors)
//
//	space, _ := projection.Fit(sample, projection.FitConfig{Whiten: false, Compact: true})
//	red, _ := space.Reducer(128, false)
//	reduced, _ := red.Reduce(vec)
//
// # Errors
//
// Invalid shapes and arguments surface as *InputError (errors.Is(err, ErrInput));
// numerical failures surface as *ComputationError (errors.Is(err, ErrComputation)).
// Core operations never log, retry or partially recover.
//
// # Thread Safety
//
// Codebooks, aggregators, projection spaces and reducers are immutable after
// construction and safe for concurrent use. A sample.RandomPermutation advances
// its generator on every call and must be owned by a single goroutine.
package pandora
