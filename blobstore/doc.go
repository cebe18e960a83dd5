// Package blobstore provides storage abstraction for pipeline artifacts.
//
// Store is the interface for reading and writing whole blobs: descriptor
// files, aggregated vectors, sampled training sets and projection spaces.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with atomic writes
//   - MemoryStore: In-memory, for tests
//   - s3.Store: Amazon S3 with multipart uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Wrappers
//
//   - CachingStore: read-through cache with expiry
//   - RetryingStore: exponential backoff on transient errors
//
// Wrappers compose:
//
//	store := blobstore.NewRetryingStore(
//	    blobstore.NewCachingStore(s3store, 10*time.Minute),
//	)
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error         // Atomic write
//	    List(ctx, prefix) ([]string, error)
//	    Delete(ctx, name) error
//	}
package blobstore
