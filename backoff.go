/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

const (
	opCreate  = "create"
	opReplace = "replace"
)

type writeFunc func(ctx context.Context) (*storagemodels.ResourceResponse, error)

// backoffController runs a single document write until it succeeds or fails for good.
// Throttled attempts sleep for the server's retry-after and never consume the
// retry budget; other failures are retried maxRetries times at a fixed interval.
type backoffController struct {
	maxRetries       int
	interval         time.Duration
	throttleFallback time.Duration
	sleep            func(ctx context.Context, d time.Duration) error
	log              zerolog.Logger
	metrics          *Metrics
}

func newBackoffController(opts Options) *backoffController {
	return &backoffController{
		maxRetries:       opts.MaxRetries,
		interval:         opts.RetryInterval,
		throttleFallback: opts.ThrottleFallbackWait,
		sleep:            sleepContext,
		log:              opts.Logger,
		metrics:          opts.Metrics,
	}
}

func (b *backoffController) do(ctx context.Context, op, key string, fn writeFunc) (*storagemodels.ResourceResponse, error) {
	attempts := 0
	failures := 0

	for {
		attempts++
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}

		kind, wait := errors.Classify(err)
		switch kind {
		case errors.KindThrottled:
			if wait <= 0 {
				wait = b.throttleFallback
			}
			b.log.Debug().Str("op", op).Str("id", key).Dur("retry_after", wait).Msg("write throttled")
			b.metrics.observeThrottle(op, wait)

		case errors.KindTransient:
			failures++
			b.log.Error().Err(err).Str("op", op).Str("id", key).Int("attempt", attempts).Msg("write failed")
			if failures > b.maxRetries {
				return nil, &errors.RetryExhaustedError{Operation: op, Key: key, Attempts: attempts, Err: err}
			}
			b.metrics.observeRetry(op)
			wait = b.interval

		default:
			b.log.Error().Err(err).Str("op", op).Str("id", key).Msg("write aborted")
			return nil, fmt.Errorf("%s %q: %w", op, key, err)
		}

		if err := b.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%s %q: %w", op, key, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
