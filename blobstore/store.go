package blobstore

import (
	"context"
	"os"
	"sort"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing whole artifact blobs
// (descriptor files, vectors, samples, projection spaces).
//
// Names are slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the full content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
}

// ListSuffix returns the sorted names under prefix that end with any of
// suffixes.
func ListSuffix(ctx context.Context, s Store, prefix string, suffixes ...string) ([]string, error) {
	names, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	matched := names[:0]
	for _, name := range names {
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				matched = append(matched, name)
				break
			}
		}
	}

	sort.Strings(matched)
	return matched, nil
}
