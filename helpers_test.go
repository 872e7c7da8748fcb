/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/suparena/docrepo/datastore/mock"
	"github.com/suparena/docrepo/datastore/testmodels"
)

const (
	testDatabase   = "db"
	testCollection = "members"
)

var testCollectionLink = "dbs/db/colls/members"

// sleepRecorder replaces real waits in tests.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, w := range s.waits {
		sum += w
	}
	return sum
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waits)
}

func newTestRepo(t *testing.T, store *mock.DataStore, opts ...Option) (*Repository[*testmodels.Member], *sleepRecorder) {
	t.Helper()
	repo, err := NewRepository[*testmodels.Member](store, testDatabase, testCollection, opts...)
	require.NoError(t, err)
	rec := &sleepRecorder{}
	repo.backoff.sleep = rec.sleep
	return repo, rec
}

func newMember(id, title string, status int) *testmodels.Member {
	m := &testmodels.Member{
		Title:    title,
		UserName: title,
		Status:   status,
	}
	m.ID = id
	return m
}
