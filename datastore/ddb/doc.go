/*
Package ddb provides a DynamoDB implementation of datastore.DocumentStore.

Every collection lives in one table. Items carry the document's own
attributes plus the key attributes of the collection's registry.KeyLayout:

	registry.RegisterKeyLayout(link, registry.KeyLayout{
	    "PK":     "{collectionLink}",  // one partition per collection
	    "SK":     "MEMBER#{id}",
	    "GSI1PK": "EMAIL#{Email}",     // any document field
	})

Creates and replaces are conditional puts, so a taken id yields an
AlreadyExistsError and a missing document a NotFoundError. Queries page
through the collection's partition and filter client side. Bulk imports use
BatchWriteItem in chunks of 25, several chunks at a time.

Throttling (ProvisionedThroughputExceeded, RequestLimitExceeded,
ThrottlingException, HTTP 429 and 503) is returned as an
errors.ThrottledError carrying the Retry-After hint when the response had one.
The per-request throttle tolerance from storagemodels.WithThrottleRetry sets
the SDK retryer for that call.

	store, err := ddb.New(ctx, ddb.ClientConfig{
	    Region:   "us-east-1",
	    Endpoint: "http://localhost:8000",
	}, "documents", ddb.WithLogger(logger))
*/
package ddb
