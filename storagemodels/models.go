/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// Document is the wire form of a record: field name to JSON-compatible value.
type Document map[string]any

// ID returns the document identity.
func (d Document) ID() string {
	return stringField(d, FieldID)
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// ResourceResponse is the envelope returned by single-document writes.
type ResourceResponse struct {
	// Document is the store's canonical representation after the write.
	Document Document
	// StatusCode mirrors the HTTP-like status of the operation (201 created, 200 replaced).
	StatusCode int
	// RequestCharge is the cost reported by the store, zero when the backend has no such notion.
	RequestCharge float64
}

// Metadata returns the server-assigned fields of the response document.
func (r *ResourceResponse) Metadata() Metadata {
	if r == nil {
		return Metadata{}
	}
	return MetadataFromDocument(r.Document)
}

// BulkImportResponse reports the outcome of one bulk import submission.
type BulkImportResponse struct {
	// Imported is the number of documents confirmed written in this submission.
	Imported int
	// Elapsed is the wall time spent in the submission.
	Elapsed time.Duration
	// RequestCharge is the total cost reported by the store.
	RequestCharge float64
}

// QueryParams defines a read over one collection.
type QueryParams struct {
	// CollectionLink addresses the collection, see CollectionLink.
	CollectionLink string
	// Predicate filters documents; nil matches everything.
	Predicate *Predicate
	// Limit stops the read after this many matches. Zero means no limit.
	Limit int
}

// Matches reports whether doc passes the predicate.
func (p *QueryParams) Matches(doc Document) (bool, error) {
	if p == nil || p.Predicate == nil {
		return true, nil
	}
	return p.Predicate.Match(doc)
}

// RequestOptions configures a single store request.
type RequestOptions struct {
	// ThrottleRetrySet is true when the caller overrides the store's own throttling tolerance.
	ThrottleRetrySet bool
	// MaxRetryWait caps the time the store client spends retrying throttled requests.
	MaxRetryWait time.Duration
	// MaxRetryAttempts caps how many throttled requests the store client retries itself.
	MaxRetryAttempts int
}

// RequestOption is a functional option for store requests
type RequestOption func(*RequestOptions)

// WithThrottleRetry sets the store client's own throttling tolerance for the request.
// Zero values disable client-side throttle retries entirely.
func WithThrottleRetry(maxWait time.Duration, maxAttempts int) RequestOption {
	return func(opts *RequestOptions) {
		opts.ThrottleRetrySet = true
		opts.MaxRetryWait = maxWait
		opts.MaxRetryAttempts = maxAttempts
	}
}

// ApplyRequestOptions folds opts into a RequestOptions value.
func ApplyRequestOptions(opts ...RequestOption) RequestOptions {
	var ro RequestOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&ro)
		}
	}
	return ro
}
