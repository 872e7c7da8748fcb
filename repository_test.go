/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docrepo/datastore/mock"
	"github.com/suparena/docrepo/datastore/testmodels"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// resourceValue satisfies Entity but cannot be constructed by reflection.
type resourceValue struct{ *storagemodels.Resource }

func TestNewRepositoryValidation(t *testing.T) {
	store := mock.New()

	tests := []struct {
		name  string
		build func() error
	}{
		{"NilStore", func() error {
			_, err := NewRepository[*testmodels.Member](nil, "db", "coll")
			return err
		}},
		{"EmptyDatabase", func() error {
			_, err := NewRepository[*testmodels.Member](store, "", "coll")
			return err
		}},
		{"EmptyCollection", func() error {
			_, err := NewRepository[*testmodels.Member](store, "db", "")
			return err
		}},
		{"ZeroThreshold", func() error {
			_, err := NewRepository[*testmodels.Member](store, "db", "coll", WithBulkThreshold(0))
			return err
		}},
		{"NegativeRetries", func() error {
			_, err := NewRepository[*testmodels.Member](store, "db", "coll", WithRetryPolicy(-1, 0))
			return err
		}},
		{"BadDefaultFilter", func() error {
			_, err := NewRepository[*testmodels.Member](store, "db", "coll", WithDefaultFilter("Status =="))
			return err
		}},
		{"MismatchedFactory", func() error {
			_, err := NewRepository[*testmodels.Member](store, "db", "coll",
				WithFactory(func() resourceValue { return resourceValue{&storagemodels.Resource{}} }))
			return err
		}},
		{"UnconstructibleRecord", func() error {
			_, err := NewRepository[resourceValue](store, "db", "coll")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err), "unexpected error: %v", err)
		})
	}
}

func TestRepositoryLinks(t *testing.T) {
	repo, _ := newTestRepo(t, mock.New())
	assert.Equal(t, testDatabase, repo.DatabaseID())
	assert.Equal(t, testCollection, repo.CollectionID())
	assert.Equal(t, testCollectionLink, repo.CollectionLink())
}

func TestCreateNew(t *testing.T) {
	repo, _ := newTestRepo(t, mock.New())

	a := repo.CreateNew()
	b := repo.CreateNew()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, repo.IsNew(a))
	assert.Equal(t, []*testmodels.Member{a, b}, repo.Tracked())
}

func TestCreateNewWithFactory(t *testing.T) {
	repo, _ := newTestRepo(t, mock.New(), WithFactory(func() *testmodels.Member {
		m := &testmodels.Member{Status: testmodels.StatusAvailable}
		m.ID = "fixed"
		return m
	}))

	m := repo.CreateNew()
	assert.Equal(t, "fixed", m.ID)
	assert.Equal(t, testmodels.StatusAvailable, m.Status)
}

func TestAddAndRemove(t *testing.T) {
	repo, _ := newTestRepo(t, mock.New())

	anonymous := &testmodels.Member{Title: "anon"}
	repo.Add(anonymous)
	assert.NotEmpty(t, anonymous.ID)

	repo.AddAll([]*testmodels.Member{newMember("a", "a", 0), nil, newMember("b", "b", 0)})
	assert.Len(t, repo.Tracked(), 3)

	repo.Remove(newMember("a", "ignored", 0))
	assert.Len(t, repo.Tracked(), 2)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("ByLocation", func(t *testing.T) {
		store := mock.New()
		repo, _ := newTestRepo(t, store)
		m := repo.CreateNew()
		require.NoError(t, repo.Save(ctx))

		require.NoError(t, repo.Delete(ctx, m))
		assert.Zero(t, store.Count(testCollectionLink))
		assert.Empty(t, repo.Tracked())
		assert.Zero(t, store.Calls(mock.OpQuery))
	})

	t.Run("ResolvedByIdentity", func(t *testing.T) {
		store := mock.New()
		seed(t, store, newMember("m1", "carol", 0))
		repo, _ := newTestRepo(t, store)

		require.NoError(t, repo.Delete(ctx, newMember("m1", "carol", 0)))
		assert.Zero(t, store.Count(testCollectionLink))
		assert.Equal(t, 1, store.Calls(mock.OpQuery))
	})

	t.Run("UnknownIdentity", func(t *testing.T) {
		repo, _ := newTestRepo(t, mock.New())
		err := repo.Delete(ctx, newMember("missing", "x", 0))
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("StoreError", func(t *testing.T) {
		store := mock.New()
		repo, _ := newTestRepo(t, store)
		m := repo.CreateNew()
		require.NoError(t, repo.Save(ctx))

		store.WithFailures(mock.OpDelete, errors.NewThrottledError(429, 0, nil))
		err := repo.Delete(ctx, m)
		assert.True(t, errors.IsThrottled(err))
		assert.Len(t, repo.Tracked(), 1)
	})
}

func TestDeleteWhere(t *testing.T) {
	ctx := context.Background()
	store := mock.New()
	seed(t, store,
		newMember("m1", "carol", testmodels.StatusAvailable),
		newMember("m2", "alice", testmodels.StatusPassive),
		newMember("m3", "bob", testmodels.StatusAvailable),
	)
	repo, _ := newTestRepo(t, store)

	_, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)

	n, err := repo.DeleteWhere(ctx, Query[*testmodels.Member]{Filter: "Status == 1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, store.Count(testCollectionLink))
	assert.Empty(t, repo.Tracked())
}

func TestClose(t *testing.T) {
	repo, _ := newTestRepo(t, mock.New())
	repo.CreateNew()

	require.NoError(t, repo.Close())
	assert.Empty(t, repo.Tracked())

	repo.Add(newMember("a", "a", 0))
	assert.Empty(t, repo.Tracked())
	assert.ErrorIs(t, repo.Delete(context.Background(), newMember("a", "a", 0)), errors.ErrClosed)
	_, err := repo.DeleteWhere(context.Background(), Query[*testmodels.Member]{})
	assert.ErrorIs(t, err, errors.ErrClosed)
}
