/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"
	"fmt"

	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// Query describes a read over the repository's collection.
//
// Filter is an expression over document fields, for example
// `status == 1 && createdAt >= "2025-01-01"`. Match is evaluated against the
// decoded record after Filter. Both are ANDed with the repository defaults
// unless IgnoreDefaultFilter is set. PageSize 0 returns every match.
type Query[E Record] struct {
	Filter              string
	Match               func(E) bool
	IgnoreDefaultFilter bool

	SortField         string
	SortDescending    bool
	IgnoreDefaultSort bool

	PageSize  int
	PageIndex int
}

// Page is one page of query results. TotalCount is the number of matches
// before paging.
type Page[E Record] struct {
	Items      []E
	TotalCount int
}

// GetAll returns the records matching q and tracks them.
func (r *Repository[E]) GetAll(ctx context.Context, q Query[E]) (*Page[E], error) {
	if r.closed.Load() {
		return nil, errors.ErrClosed
	}
	items, total, err := r.query(ctx, q, 0)
	if err != nil {
		return nil, err
	}
	r.track(items)
	return &Page[E]{Items: items, TotalCount: total}, nil
}

// GetSingle returns the one record matching q and tracks it. Zero or several
// matches produce a LookupError.
func (r *Repository[E]) GetSingle(ctx context.Context, q Query[E]) (E, error) {
	var zero E
	if r.closed.Load() {
		return zero, errors.ErrClosed
	}
	q.PageSize, q.PageIndex = 0, 0
	items, _, err := r.query(ctx, q, 2)
	if err != nil {
		return zero, err
	}
	if len(items) != 1 {
		return zero, errors.NewLookupError(r.collectionLink, r.criteria(q), len(items))
	}
	r.track(items)
	return items[0], nil
}

// GetByID returns the record with the given identity and tracks it. The
// repository's default filter does not apply.
func (r *Repository[E]) GetByID(ctx context.Context, id string) (E, error) {
	var zero E
	if r.closed.Load() {
		return zero, errors.ErrClosed
	}
	pred, criteria, err := idPredicate(id)
	if err != nil {
		return zero, err
	}
	docs, err := r.store.QueryDocuments(ctx, &storagemodels.QueryParams{
		CollectionLink: r.collectionLink,
		Predicate:      pred,
		Limit:          2,
	})
	if err != nil {
		return zero, fmt.Errorf("query %s: %w", r.collectionLink, err)
	}
	if len(docs) != 1 {
		return zero, errors.NewLookupError(r.collectionLink, criteria, len(docs))
	}
	e, err := r.decode(docs[0])
	if err != nil {
		return zero, err
	}
	r.track([]E{e})
	return e, nil
}

// Any reports whether at least one record matches q.
func (r *Repository[E]) Any(ctx context.Context, q Query[E]) (bool, error) {
	if r.closed.Load() {
		return false, errors.ErrClosed
	}
	q.PageSize, q.PageIndex = 0, 0
	items, _, err := r.query(ctx, q, 1)
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

// Count returns the number of records matching q, ignoring paging.
func (r *Repository[E]) Count(ctx context.Context, q Query[E]) (int, error) {
	if r.closed.Load() {
		return 0, errors.ErrClosed
	}
	q.PageSize, q.PageIndex = 0, 0
	_, total, err := r.query(ctx, q, 0)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// query runs q against the store and returns the requested page together with
// the number of matches before paging. A positive limit caps how many
// matches are materialized.
func (r *Repository[E]) query(ctx context.Context, q Query[E], limit int) ([]E, int, error) {
	if q.PageSize < 0 || q.PageIndex < 0 {
		return nil, 0, errors.NewValidationError("page", "size and index must not be negative")
	}

	pred, err := r.compile(q)
	if err != nil {
		return nil, 0, err
	}
	match := r.matcher(q)

	params := &storagemodels.QueryParams{
		CollectionLink: r.collectionLink,
		Predicate:      pred,
	}
	// Go-side matching and sorting need the full candidate set.
	sortField, descending := r.sortOrder(q)
	if match == nil && sortField == "" {
		params.Limit = limit
	}

	docs, err := r.store.QueryDocuments(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", r.collectionLink, err)
	}

	if sortField != "" {
		storagemodels.SortDocuments(docs, sortField, descending)
	}

	items := make([]E, 0, len(docs))
	for _, doc := range docs {
		e, err := r.decode(doc)
		if err != nil {
			return nil, 0, err
		}
		if match != nil && !match(e) {
			continue
		}
		items = append(items, e)
		if limit > 0 && len(items) >= limit {
			break
		}
	}

	total := len(items)
	if q.PageSize > 0 {
		items = pageOf(items, q.PageSize, q.PageIndex)
	}
	return items, total, nil
}

// pageOf returns the index-th slice of size items. Out-of-range pages are empty.
func pageOf[E any](items []E, size, index int) []E {
	if index > len(items)/size {
		return items[:0]
	}
	start := size * index
	end := start + min(size, len(items)-start)
	return items[start:end]
}

func (r *Repository[E]) compile(q Query[E]) (*storagemodels.Predicate, error) {
	exprs := []string{q.Filter}
	if !q.IgnoreDefaultFilter {
		exprs = append(exprs, r.opts.DefaultFilter)
	}
	pred, err := storagemodels.CompilePredicate(exprs...)
	if err != nil {
		return nil, errors.NewValidationError("filter", err.Error())
	}
	return pred, nil
}

func (r *Repository[E]) matcher(q Query[E]) func(E) bool {
	def := r.defaultMatch
	if q.IgnoreDefaultFilter {
		def = nil
	}
	switch {
	case q.Match == nil:
		return def
	case def == nil:
		return q.Match
	default:
		return func(e E) bool { return def(e) && q.Match(e) }
	}
}

func (r *Repository[E]) sortOrder(q Query[E]) (string, bool) {
	if q.SortField != "" {
		return q.SortField, q.SortDescending
	}
	if q.IgnoreDefaultSort {
		return "", false
	}
	return r.opts.DefaultSortField, r.opts.DefaultSortDescending
}

func (r *Repository[E]) criteria(q Query[E]) string {
	pred, err := r.compile(q)
	if err != nil {
		return q.Filter
	}
	return pred.String()
}

func (r *Repository[E]) decode(doc storagemodels.Document) (E, error) {
	e := r.factory()
	if err := storagemodels.FromDocument(doc, e); err != nil {
		var zero E
		return zero, fmt.Errorf("decode %q: %w", doc.ID(), err)
	}
	return e, nil
}

func (r *Repository[E]) track(items []E) {
	for _, e := range items {
		r.tracked.Add(e)
	}
}
