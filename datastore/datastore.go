/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/docrepo/storagemodels"
)

// DocumentStore is a networked document store addressed by collection and document links.
type DocumentStore interface {
	// CreateDocument inserts doc into the collection. A taken id fails with an AlreadyExistsError.
	CreateDocument(ctx context.Context, collectionLink string, doc storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.ResourceResponse, error)

	// ReplaceDocument overwrites the document at selfLink. A missing document fails with a NotFoundError.
	ReplaceDocument(ctx context.Context, selfLink string, doc storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.ResourceResponse, error)

	DeleteDocument(ctx context.Context, selfLink string, opts ...storagemodels.RequestOption) error

	// QueryDocuments reads every partition of a collection and returns the matching documents.
	QueryDocuments(ctx context.Context, params *storagemodels.QueryParams) ([]storagemodels.Document, error)

	// NewBulkLoader binds a bulk loader to a collection.
	NewBulkLoader(ctx context.Context, collectionLink string) (BulkLoader, error)
}

// BulkLoader upserts many documents per call.
type BulkLoader interface {
	// BulkImport upserts docs and reports how many were written in this call.
	// Documents that were not written may be resubmitted.
	BulkImport(ctx context.Context, docs []storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.BulkImportResponse, error)
}
