/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// Repository tracks records of type E for one collection and writes them
// through a DocumentStore on Save.
//
// Records returned by reads and created with CreateNew are tracked
// automatically. Tracking-set methods are safe for concurrent use, but the set
// must not be mutated from another goroutine while Save is running.
type Repository[E Record] struct {
	store          datastore.DocumentStore
	databaseID     string
	collectionID   string
	collectionLink string

	opts         Options
	factory      func() E
	defaultMatch func(E) bool
	tracked      *TrackingSet[E]
	backoff      *backoffController
	log          zerolog.Logger
	closed       atomic.Bool
}

// NewRepository creates a repository over one collection of store. The store is
// not owned by the repository and may be shared between repositories.
func NewRepository[E Record](store datastore.DocumentStore, databaseID, collectionID string, opts ...Option) (*Repository[E], error) {
	if store == nil {
		return nil, errors.NewValidationError("store", "document store is required")
	}
	if databaseID == "" {
		return nil, errors.NewValidationError("databaseID", "must not be empty")
	}
	if collectionID == "" {
		return nil, errors.NewValidationError("collectionID", "must not be empty")
	}

	options := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.BulkThreshold < 1 {
		return nil, errors.NewValidationError("BulkThreshold", "must be at least 1")
	}
	if options.MaxRetries < 0 {
		return nil, errors.NewValidationError("MaxRetries", "must not be negative")
	}

	factory, err := resolveFactory[E](options.factory)
	if err != nil {
		return nil, err
	}

	var defaultMatch func(E) bool
	if options.defaultMatch != nil {
		fn, ok := options.defaultMatch.(func(E) bool)
		if !ok {
			return nil, errors.NewValidationError("defaultMatch", fmt.Sprintf("expected func(%T) bool, got %T", *new(E), options.defaultMatch))
		}
		defaultMatch = fn
	}

	if _, err := storagemodels.CompilePredicate(options.DefaultFilter); err != nil {
		return nil, errors.NewValidationError("DefaultFilter", err.Error())
	}

	collectionLink := storagemodels.CollectionLink(databaseID, collectionID)
	log := options.Logger.With().Str("collection", collectionLink).Logger()
	options.Logger = log

	return &Repository[E]{
		store:          store,
		databaseID:     databaseID,
		collectionID:   collectionID,
		collectionLink: collectionLink,
		opts:           options,
		factory:        factory,
		defaultMatch:   defaultMatch,
		tracked:        NewTrackingSet[E](),
		backoff:        newBackoffController(options),
		log:            log,
	}, nil
}

func resolveFactory[E Record](configured any) (func() E, error) {
	if configured != nil {
		fn, ok := configured.(func() E)
		if !ok {
			return nil, errors.NewValidationError("factory", fmt.Sprintf("expected func() %T, got %T", *new(E), configured))
		}
		return fn, nil
	}

	var zero E
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, errors.NewValidationError("factory", fmt.Sprintf("cannot construct %v, use WithFactory", t))
	}
	elem := t.Elem()
	return func() E {
		return reflect.New(elem).Interface().(E)
	}, nil
}

func (r *Repository[E]) DatabaseID() string     { return r.databaseID }
func (r *Repository[E]) CollectionID() string   { return r.collectionID }
func (r *Repository[E]) CollectionLink() string { return r.collectionLink }

// CreateNew constructs a record, gives it a fresh identity if the factory did
// not, and tracks it.
func (r *Repository[E]) CreateNew() E {
	e := r.factory()
	if e.GetID() == "" {
		e.SetID(uuid.NewString())
	}
	if !r.closed.Load() {
		r.tracked.Add(e)
	}
	return e
}

// Add tracks e, replacing any tracked record with the same identity. Records
// without an identity are given a fresh one.
func (r *Repository[E]) Add(e E) {
	var zero E
	if e == zero || r.closed.Load() {
		return
	}
	if e.GetID() == "" {
		e.SetID(uuid.NewString())
	}
	r.tracked.Add(e)
}

// AddAll tracks each record in order.
func (r *Repository[E]) AddAll(es []E) {
	for _, e := range es {
		r.Add(e)
	}
}

// Remove stops tracking the record with e's identity. The store is not touched.
func (r *Repository[E]) Remove(e E) {
	r.tracked.Remove(e)
}

// Tracked returns the tracked records in insertion order.
func (r *Repository[E]) Tracked() []E {
	return r.tracked.Snapshot()
}

// IsNew reports whether e has never been created in the store.
func (r *Repository[E]) IsNew(e E) bool {
	return e.GetSelfLink() == ""
}

// Delete removes e from the store immediately and stops tracking it. A record
// without a location handle is resolved by identity first.
func (r *Repository[E]) Delete(ctx context.Context, e E) error {
	if r.closed.Load() {
		return errors.ErrClosed
	}

	link := e.GetSelfLink()
	if link == "" {
		resolved, err := r.resolveLink(ctx, e.GetID())
		if err != nil {
			return err
		}
		link = resolved
	}

	if err := r.store.DeleteDocument(ctx, link); err != nil {
		return fmt.Errorf("delete %s: %w", link, err)
	}
	r.tracked.Remove(e)
	return nil
}

// DeleteWhere deletes every document matching q and returns how many were deleted.
func (r *Repository[E]) DeleteWhere(ctx context.Context, q Query[E]) (int, error) {
	if r.closed.Load() {
		return 0, errors.ErrClosed
	}

	items, _, err := r.query(ctx, q, 0)
	if err != nil {
		return 0, err
	}
	for i, e := range items {
		if err := r.store.DeleteDocument(ctx, e.GetSelfLink()); err != nil {
			return i, fmt.Errorf("delete %s: %w", e.GetSelfLink(), err)
		}
		if tracked, ok := r.tracked.Get(e.GetID()); ok {
			r.tracked.Remove(tracked)
		}
	}
	return len(items), nil
}

func (r *Repository[E]) resolveLink(ctx context.Context, id string) (string, error) {
	pred, criteria, err := idPredicate(id)
	if err != nil {
		return "", err
	}
	docs, err := r.store.QueryDocuments(ctx, &storagemodels.QueryParams{
		CollectionLink: r.collectionLink,
		Predicate:      pred,
		Limit:          2,
	})
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", id, err)
	}
	if len(docs) != 1 {
		return "", errors.NewLookupError(r.collectionLink, criteria, len(docs))
	}
	return storagemodels.MetadataFromDocument(docs[0]).SelfLink, nil
}

// Close clears the tracking set. The store is left open.
func (r *Repository[E]) Close() error {
	r.closed.Store(true)
	r.tracked.Clear()
	return nil
}

func idPredicate(id string) (*storagemodels.Predicate, string, error) {
	criteria := storagemodels.FieldID + " == " + strconv.Quote(id)
	pred, err := storagemodels.CompilePredicate(criteria)
	if err != nil {
		return nil, criteria, err
	}
	return pred, criteria, nil
}
