/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory DocumentStore for testing
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// Operation names a store call for fault injection and call accounting.
type Operation string

const (
	OpCreate     Operation = "create"
	OpReplace    Operation = "replace"
	OpDelete     Operation = "delete"
	OpQuery      Operation = "query"
	OpBulkImport Operation = "bulk-import"
)

// DataStore is an in-memory implementation of datastore.DocumentStore for testing
type DataStore struct {
	mu          sync.Mutex
	collections map[string]*collection
	errs        map[Operation]error
	failures    map[Operation][]error
	calls       map[Operation]int
	options     map[Operation][]storagemodels.RequestOptions
	bulkLimits  []int
	loaders     int
	submissions [][]storagemodels.Document
	now         func() time.Time
}

type collection struct {
	order []string
	docs  map[string]storagemodels.Document
}

var _ datastore.DocumentStore = (*DataStore)(nil)

// New creates a new mock DataStore
func New() *DataStore {
	return &DataStore{
		collections: make(map[string]*collection),
		errs:        make(map[Operation]error),
		failures:    make(map[Operation][]error),
		calls:       make(map[Operation]int),
		options:     make(map[Operation][]storagemodels.RequestOptions),
		now:         time.Now,
	}
}

// WithError makes every call of op return err
func (m *DataStore) WithError(op Operation, err error) *DataStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[op] = err
	return m
}

// WithFailures queues errs to be returned, one per call, by the next calls of op
func (m *DataStore) WithFailures(op Operation, errs ...error) *DataStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], errs...)
	return m
}

// WithBulkImportLimits queues per-call caps on how many documents BulkImport
// writes. Calls beyond the queue write every document.
func (m *DataStore) WithBulkImportLimits(limits ...int) *DataStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulkLimits = append(m.bulkLimits, limits...)
	return m
}

// WithClock sets the source of server timestamps
func (m *DataStore) WithClock(now func() time.Time) *DataStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

// CreateDocument inserts a document and assigns its server metadata
func (m *DataStore) CreateDocument(ctx context.Context, collectionLink string, doc storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.ResourceResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(ctx, OpCreate, opts); err != nil {
		return nil, err
	}

	id := doc.ID()
	if id == "" {
		return nil, errors.NewValidationError(storagemodels.FieldID, "document id is required")
	}
	c := m.collection(collectionLink)
	if _, exists := c.docs[id]; exists {
		return nil, errors.NewAlreadyExistsError("document", storagemodels.DocumentLink(collectionLink, id))
	}

	stored := doc.Clone()
	storagemodels.StampMetadata(stored, storagemodels.Metadata{
		ResourceID: newResourceID(),
		SelfLink:   storagemodels.DocumentLink(collectionLink, id),
		ETag:       newETag(),
		Timestamp:  m.now().Unix(),
	})
	c.put(id, stored)

	return &storagemodels.ResourceResponse{Document: stored.Clone(), StatusCode: 201}, nil
}

// ReplaceDocument overwrites an existing document
func (m *DataStore) ReplaceDocument(ctx context.Context, selfLink string, doc storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.ResourceResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(ctx, OpReplace, opts); err != nil {
		return nil, err
	}

	collLink, id, err := storagemodels.ParseDocumentLink(selfLink)
	if err != nil {
		return nil, errors.NewValidationError("selfLink", err.Error())
	}
	if doc.ID() != id {
		return nil, errors.NewValidationError(storagemodels.FieldID, fmt.Sprintf("document id %q does not match %q", doc.ID(), selfLink))
	}
	c := m.collection(collLink)
	existing, ok := c.docs[id]
	if !ok {
		return nil, errors.NewNotFoundError("document", selfLink)
	}

	stored := doc.Clone()
	storagemodels.StampMetadata(stored, storagemodels.Metadata{
		ResourceID: storagemodels.MetadataFromDocument(existing).ResourceID,
		SelfLink:   selfLink,
		ETag:       newETag(),
		Timestamp:  m.now().Unix(),
	})
	c.put(id, stored)

	return &storagemodels.ResourceResponse{Document: stored.Clone(), StatusCode: 200}, nil
}

// DeleteDocument removes a document by location
func (m *DataStore) DeleteDocument(ctx context.Context, selfLink string, opts ...storagemodels.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(ctx, OpDelete, opts); err != nil {
		return err
	}

	collLink, id, err := storagemodels.ParseDocumentLink(selfLink)
	if err != nil {
		return errors.NewValidationError("selfLink", err.Error())
	}
	c := m.collection(collLink)
	if _, ok := c.docs[id]; !ok {
		return errors.NewNotFoundError("document", selfLink)
	}
	c.remove(id)
	return nil
}

// QueryDocuments returns matching documents in insertion order
func (m *DataStore) QueryDocuments(ctx context.Context, params *storagemodels.QueryParams) ([]storagemodels.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(ctx, OpQuery, nil); err != nil {
		return nil, err
	}

	c := m.collection(params.CollectionLink)
	results := make([]storagemodels.Document, 0, len(c.order))
	for _, id := range c.order {
		doc := c.docs[id]
		ok, err := params.Matches(doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		results = append(results, doc.Clone())
		if params.Limit > 0 && len(results) >= params.Limit {
			break
		}
	}
	return results, nil
}

// NewBulkLoader returns a loader bound to the collection
func (m *DataStore) NewBulkLoader(ctx context.Context, collectionLink string) (datastore.BulkLoader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.loaders++
	return &bulkLoader{store: m, collectionLink: collectionLink}, nil
}

type bulkLoader struct {
	store          *DataStore
	collectionLink string
}

// BulkImport upserts documents, honouring the bulk import limit
func (l *bulkLoader) BulkImport(ctx context.Context, docs []storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.BulkImportResponse, error) {
	m := l.store
	m.mu.Lock()
	defer m.mu.Unlock()

	start := m.now()
	submitted := make([]storagemodels.Document, len(docs))
	for i, d := range docs {
		submitted[i] = d.Clone()
	}
	m.submissions = append(m.submissions, submitted)

	if err := m.enter(ctx, OpBulkImport, opts); err != nil {
		return nil, err
	}

	limit := 0
	if len(m.bulkLimits) > 0 {
		limit = m.bulkLimits[0]
		m.bulkLimits = m.bulkLimits[1:]
	}

	c := m.collection(l.collectionLink)
	imported := 0
	for _, doc := range docs {
		if limit > 0 && imported >= limit {
			break
		}
		id := doc.ID()
		if id == "" {
			continue
		}
		rid := newResourceID()
		if existing, ok := c.docs[id]; ok {
			rid = storagemodels.MetadataFromDocument(existing).ResourceID
		}
		stored := doc.Clone()
		storagemodels.StampMetadata(stored, storagemodels.Metadata{
			ResourceID: rid,
			SelfLink:   storagemodels.DocumentLink(l.collectionLink, id),
			ETag:       newETag(),
			Timestamp:  m.now().Unix(),
		})
		c.put(id, stored)
		imported++
	}

	return &storagemodels.BulkImportResponse{Imported: imported, Elapsed: m.now().Sub(start)}, nil
}

// Helper methods for testing

// Calls returns how many times op was invoked
func (m *DataStore) Calls(op Operation) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// RequestOptions returns the options passed to each call of op
func (m *DataStore) RequestOptions(op Operation) []storagemodels.RequestOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storagemodels.RequestOptions(nil), m.options[op]...)
}

// BulkSubmissions returns the document batches passed to BulkImport
func (m *DataStore) BulkSubmissions() [][]storagemodels.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]storagemodels.Document(nil), m.submissions...)
}

// LoaderCount returns how many bulk loaders were created
func (m *DataStore) LoaderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaders
}

// Documents returns copies of the documents of a collection in insertion order
func (m *DataStore) Documents(collectionLink string) []storagemodels.Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collectionLink)
	out := make([]storagemodels.Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.docs[id].Clone())
	}
	return out
}

// Count returns the number of documents in a collection
func (m *DataStore) Count(collectionLink string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collection(collectionLink).docs)
}

// Clear removes all documents, faults and call records
func (m *DataStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]*collection)
	m.errs = make(map[Operation]error)
	m.failures = make(map[Operation][]error)
	m.calls = make(map[Operation]int)
	m.options = make(map[Operation][]storagemodels.RequestOptions)
	m.submissions = nil
	m.loaders = 0
	m.bulkLimits = nil
}

// enter records a call and returns the injected fault for it, if any. Callers hold m.mu.
func (m *DataStore) enter(ctx context.Context, op Operation, opts []storagemodels.RequestOption) error {
	m.calls[op]++
	m.options[op] = append(m.options[op], storagemodels.ApplyRequestOptions(opts...))

	if err := ctx.Err(); err != nil {
		return err
	}
	if queued := m.failures[op]; len(queued) > 0 {
		m.failures[op] = queued[1:]
		if queued[0] != nil {
			return queued[0]
		}
	}
	return m.errs[op]
}

func (m *DataStore) collection(link string) *collection {
	c, ok := m.collections[link]
	if !ok {
		c = &collection{docs: make(map[string]storagemodels.Document)}
		m.collections[link] = c
	}
	return c
}

func (c *collection) put(id string, doc storagemodels.Document) {
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
}

func (c *collection) remove(id string) {
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func newResourceID() string {
	return uuid.NewString()[:8]
}

func newETag() string {
	return `"` + uuid.NewString() + `"`
}
