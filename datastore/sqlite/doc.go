/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite implements the document store contract on an embedded
// SQLite database using the pure-Go modernc.org/sqlite driver.
//
// All collections share one documents table keyed by (collection, id); the
// document body is kept as JSON and filtered in process. A locked database
// is retried within the request's throttle tolerance and otherwise reported
// as a ThrottledError so repositories back off the same way they do for a
// remote store.
package sqlite
