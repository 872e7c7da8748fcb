/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	stderrors "errors"
	"io"
	"slices"
	"sync"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/errors"
)

// Stores holds shared DocumentStore clients by name. Repositories over
// different collections of the same account should share one client.
type Stores struct {
	mu     sync.RWMutex
	stores map[string]datastore.DocumentStore
}

// NewStores creates an empty registry
func NewStores() *Stores {
	return &Stores{
		stores: make(map[string]datastore.DocumentStore),
	}
}

// Register adds a store under key
func (s *Stores) Register(key string, ds datastore.DocumentStore) error {
	if ds == nil {
		return errors.NewValidationError("store", "document store is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[key]; exists {
		return errors.NewAlreadyExistsError("store", key)
	}
	s.stores[key] = ds
	return nil
}

// Get retrieves a store by key
func (s *Stores) Get(key string) (datastore.DocumentStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, exists := s.stores[key]
	if !exists {
		return nil, errors.NewNotFoundError("store", key)
	}
	return ds, nil
}

// Remove unregisters a store without closing it
func (s *Stores) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[key]; !exists {
		return errors.NewNotFoundError("store", key)
	}
	delete(s.stores, key)
	return nil
}

// List returns the registered keys in sorted order
func (s *Stores) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.stores))
	for k := range s.stores {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Close closes every registered store that implements io.Closer and empties
// the registry.
func (s *Stores) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, ds := range s.stores {
		if c, ok := ds.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	s.stores = make(map[string]datastore.DocumentStore)
	return stderrors.Join(errs...)
}

// NewRepositoryFor creates a repository over the store registered under key
func NewRepositoryFor[E Record](s *Stores, key, databaseID, collectionID string, opts ...Option) (*Repository[E], error) {
	ds, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	return NewRepository[E](ds, databaseID, collectionID, opts...)
}
