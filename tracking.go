/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"sync"

	"github.com/suparena/docrepo/storagemodels"
)

// Record is the constraint for tracked records: a comparable Entity, in
// practice a pointer to a struct embedding storagemodels.Resource.
type Record interface {
	comparable
	storagemodels.Entity
}

// TrackingSet holds at most one record per identity, in insertion order.
// Identities must not change while a record is tracked.
type TrackingSet[E Record] struct {
	mu    sync.Mutex
	items map[string]E
	order []string
}

// NewTrackingSet creates an empty TrackingSet
func NewTrackingSet[E Record]() *TrackingSet[E] {
	return &TrackingSet[E]{
		items: make(map[string]E),
	}
}

// Add tracks e, replacing any other record with the same identity. It is a
// no-op for the zero value and for a record that is already tracked.
func (s *TrackingSet[E]) Add(e E) bool {
	var zero E
	if e == zero {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := e.GetID()
	if existing, ok := s.items[id]; ok {
		if existing == e {
			return false
		}
		s.removeLocked(id)
	}
	s.items[id] = e
	s.order = append(s.order, id)
	return true
}

// Remove stops tracking the record with e's identity.
func (s *TrackingSet[E]) Remove(e E) bool {
	var zero E
	if e == zero {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.removeLocked(e.GetID())
}

// Get returns the tracked record with the given identity.
func (s *TrackingSet[E]) Get(id string) (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[id]
	return e, ok
}

// Contains reports whether this exact record is tracked.
func (s *TrackingSet[E]) Contains(e E) bool {
	var zero E
	if e == zero {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[e.GetID()]
	return ok && existing == e
}

func (s *TrackingSet[E]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Snapshot returns the tracked records in insertion order.
func (s *TrackingSet[E]) Snapshot() []E {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]E, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

func (s *TrackingSet[E]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]E)
	s.order = nil
}

func (s *TrackingSet[E]) removeLocked(id string) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}
