/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

func newTestBackoff(opts Options) (*backoffController, *sleepRecorder) {
	b := newBackoffController(opts)
	rec := &sleepRecorder{}
	b.sleep = rec.sleep
	return b, rec
}

// failing returns a writeFunc that fails with errs in order, then succeeds.
func failing(calls *int, errs ...error) writeFunc {
	return func(ctx context.Context) (*storagemodels.ResourceResponse, error) {
		*calls++
		if *calls <= len(errs) {
			return nil, errs[*calls-1]
		}
		return &storagemodels.ResourceResponse{StatusCode: 200}, nil
	}
}

func TestBackoffThrottledDoesNotConsumeBudget(t *testing.T) {
	b, rec := newTestBackoff(DefaultOptions())

	var errs []error
	var want time.Duration
	for i := 1; i <= 25; i++ {
		wait := time.Duration(i) * 10 * time.Millisecond
		want += wait
		errs = append(errs, errors.NewThrottledError(429, wait, nil))
	}

	calls := 0
	resp, err := b.do(context.Background(), opCreate, "m1", failing(&calls, errs...))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 26, calls)
	assert.Equal(t, want, rec.total())
}

func TestBackoffThrottledFallbackWait(t *testing.T) {
	opts := DefaultOptions()
	opts.ThrottleFallbackWait = 250 * time.Millisecond
	b, rec := newTestBackoff(opts)

	calls := 0
	_, err := b.do(context.Background(), opReplace, "m1", failing(&calls, errors.NewThrottledError(503, 0, nil)))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, rec.total())
}

func TestBackoffTransientExhaustsAfterElevenAttempts(t *testing.T) {
	b, rec := newTestBackoff(DefaultOptions())

	cause := stderrors.New("connection reset")
	calls := 0
	fn := func(ctx context.Context) (*storagemodels.ResourceResponse, error) {
		calls++
		return nil, cause
	}

	_, err := b.do(context.Background(), opCreate, "m1", fn)
	require.Error(t, err)
	assert.Equal(t, 11, calls)
	assert.ErrorIs(t, err, errors.ErrRetryExhausted)
	assert.ErrorIs(t, err, cause)

	var re *errors.RetryExhaustedError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 11, re.Attempts)
	assert.Equal(t, opCreate, re.Operation)

	assert.Equal(t, 10, rec.count())
	assert.Equal(t, 20*time.Second, rec.total())
}

func TestBackoffThrottlingBetweenTransientFailures(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRetries = 2
	b, _ := newTestBackoff(opts)

	transient := stderrors.New("timeout")
	throttled := errors.NewThrottledError(429, time.Millisecond, nil)
	calls := 0
	_, err := b.do(context.Background(), opCreate, "m1",
		failing(&calls, transient, throttled, throttled, transient, throttled))
	require.NoError(t, err)
	assert.Equal(t, 6, calls)
}

func TestBackoffCancellationIsFatal(t *testing.T) {
	b, _ := newTestBackoff(DefaultOptions())

	calls := 0
	_, err := b.do(context.Background(), opCreate, "m1", failing(&calls, context.Canceled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoffCancelledDuringWait(t *testing.T) {
	b, _ := newTestBackoff(DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := b.do(ctx, opCreate, "m1", failing(&calls, errors.NewThrottledError(429, time.Second, nil)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, sleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
