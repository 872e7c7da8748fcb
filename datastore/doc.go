/*
Package datastore defines the collaborator interfaces of the docrepo persistence layer.

DocumentStore is the remote document store the repository writes through:

	type DocumentStore interface {
	    CreateDocument(ctx, collectionLink, doc, opts...) (*storagemodels.ResourceResponse, error)
	    ReplaceDocument(ctx, selfLink, doc, opts...) (*storagemodels.ResourceResponse, error)
	    DeleteDocument(ctx, selfLink, opts...) error
	    QueryDocuments(ctx, params) ([]storagemodels.Document, error)
	    NewBulkLoader(ctx, collectionLink) (BulkLoader, error)
	}

Stores report rate limiting with errors.ThrottledError, conflicts with
errors.AlreadyExistsError and missing documents with errors.NotFoundError.

Implementations:
  - ddb: DynamoDB implementation, one partition per collection in a shared table
  - sqlite: embedded SQLite implementation
  - mock: In-memory mock implementation with fault injection for testing
*/
package datastore
