/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"time"

	"github.com/rs/zerolog"
)

// ThrottleRetry is the store client's own tolerance for throttled requests,
// applied before a throttling error reaches the repository.
type ThrottleRetry struct {
	MaxWait     time.Duration
	MaxAttempts int
}

// Options configures a Repository
type Options struct {
	BulkThreshold        int           // Tracked-set size at which Save switches to bulk import (default: 5)
	MaxRetries           int           // Retries of a failing non-throttled write (default: 10)
	RetryInterval        time.Duration // Wait between those retries (default: 2s)
	ThrottleFallbackWait time.Duration // Wait after a throttling error without a retry-after hint (default: 1s)
	ThrottleRetry        ThrottleRetry // Store client throttle tolerance during itemized saves (default: 30s, 9)
	MaxBulkRounds        int           // Bulk submissions per Save before giving up, 0 for no limit (default: 0)

	DefaultFilter         string // Filter expression ANDed into reads unless the query opts out
	DefaultSortField      string // Sort field for reads that specify none
	DefaultSortDescending bool

	Logger  zerolog.Logger
	Metrics *Metrics

	factory      any
	defaultMatch any
}

// Option is a functional option for configuring a Repository
type Option func(*Options)

// DefaultOptions returns default repository options
func DefaultOptions() Options {
	return Options{
		BulkThreshold:        5,
		MaxRetries:           10,
		RetryInterval:        2 * time.Second,
		ThrottleFallbackWait: time.Second,
		ThrottleRetry: ThrottleRetry{
			MaxWait:     30 * time.Second,
			MaxAttempts: 9,
		},
		Logger: zerolog.Nop(),
	}
}

// WithBulkThreshold sets the tracked-set size at which Save uses bulk import
func WithBulkThreshold(n int) Option {
	return func(opts *Options) {
		opts.BulkThreshold = n
	}
}

// WithRetryPolicy sets the retry budget and interval for non-throttled write failures
func WithRetryPolicy(maxRetries int, interval time.Duration) Option {
	return func(opts *Options) {
		opts.MaxRetries = maxRetries
		opts.RetryInterval = interval
	}
}

// WithThrottleFallbackWait sets the wait used when a throttled response carries no retry-after
func WithThrottleFallbackWait(d time.Duration) Option {
	return func(opts *Options) {
		opts.ThrottleFallbackWait = d
	}
}

// WithThrottleRetry sets the store client's throttle tolerance for itemized saves
func WithThrottleRetry(maxWait time.Duration, maxAttempts int) Option {
	return func(opts *Options) {
		opts.ThrottleRetry = ThrottleRetry{MaxWait: maxWait, MaxAttempts: maxAttempts}
	}
}

// WithMaxBulkRounds bounds how many times a bulk save resubmits the batch
func WithMaxBulkRounds(n int) Option {
	return func(opts *Options) {
		opts.MaxBulkRounds = n
	}
}

// WithDefaultFilter sets a filter expression applied to every read unless the query ignores it
func WithDefaultFilter(expression string) Option {
	return func(opts *Options) {
		opts.DefaultFilter = expression
	}
}

// WithDefaultSort sets the sort used by reads that specify none
func WithDefaultSort(field string, descending bool) Option {
	return func(opts *Options) {
		opts.DefaultSortField = field
		opts.DefaultSortDescending = descending
	}
}

// WithLogger sets the logger for write failures and save summaries
func WithLogger(logger zerolog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(m *Metrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithFactory sets the constructor used by CreateNew and for decoding read results.
// E must match the repository's record type.
func WithFactory[E Record](factory func() E) Option {
	return func(opts *Options) {
		opts.factory = factory
	}
}

// WithDefaultMatch sets a predicate ANDed into reads unless the query ignores the default filter.
// E must match the repository's record type.
func WithDefaultMatch[E Record](match func(E) bool) Option {
	return func(opts *Options) {
		opts.defaultMatch = match
	}
}
