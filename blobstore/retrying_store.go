package blobstore

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions configures RetryingStore.
type RetryOptions struct {
	// MaxRetries bounds the number of retries after the first attempt.
	// Default: 3
	MaxRetries uint64

	// InitialInterval is the first backoff delay.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval caps a single backoff delay.
	// Default: 5s
	MaxInterval time.Duration

	// OnRetry, if set, is called before every retry.
	OnRetry func(op, name string, err error, wait time.Duration)
}

// DefaultRetryOptions returns the default retry settings.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// RetryingStore wraps a Store and retries failed calls with exponential
// backoff. ErrNotFound and context errors are returned immediately.
type RetryingStore struct {
	inner Store
	opts  RetryOptions
}

// NewRetryingStore creates a RetryingStore with DefaultRetryOptions.
func NewRetryingStore(inner Store) *RetryingStore {
	return NewRetryingStoreWithOptions(inner, DefaultRetryOptions())
}

// NewRetryingStoreWithOptions creates a RetryingStore. Zero fields of opts
// take their default.
func NewRetryingStoreWithOptions(inner Store, opts RetryOptions) *RetryingStore {
	def := DefaultRetryOptions()
	if opts.MaxRetries == 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = def.InitialInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = def.MaxInterval
	}
	return &RetryingStore{inner: inner, opts: opts}
}

func (s *RetryingStore) policy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.opts.InitialInterval
	eb.MaxInterval = s.opts.MaxInterval
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, s.opts.MaxRetries), ctx)
}

func (s *RetryingStore) notify(op, name string) backoff.Notify {
	if s.opts.OnRetry == nil {
		return nil
	}
	return func(err error, wait time.Duration) {
		s.opts.OnRetry(op, name, err, wait)
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return backoff.Permanent(err)
	}
	return err
}

// Get reads a blob, retrying transient failures.
func (s *RetryingStore) Get(ctx context.Context, name string) ([]byte, error) {
	return backoff.RetryNotifyWithData(func() ([]byte, error) {
		data, err := s.inner.Get(ctx, name)
		return data, classify(err)
	}, s.policy(ctx), s.notify("get", name))
}

// Put writes a blob, retrying transient failures.
func (s *RetryingStore) Put(ctx context.Context, name string, data []byte) error {
	return backoff.RetryNotify(func() error {
		return classify(s.inner.Put(ctx, name, data))
	}, s.policy(ctx), s.notify("put", name))
}

// List lists blobs, retrying transient failures.
func (s *RetryingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return backoff.RetryNotifyWithData(func() ([]string, error) {
		names, err := s.inner.List(ctx, prefix)
		return names, classify(err)
	}, s.policy(ctx), s.notify("list", prefix))
}

// Delete removes a blob, retrying transient failures.
func (s *RetryingStore) Delete(ctx context.Context, name string) error {
	return backoff.RetryNotify(func() error {
		return classify(s.inner.Delete(ctx, name))
	}, s.policy(ctx), s.notify("delete", name))
}

var _ Store = (*RetryingStore)(nil)
