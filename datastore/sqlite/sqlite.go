/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	sqlitedriver "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// busyRetryAfter is the retry-after hint of a ThrottledError raised for a locked database.
const busyRetryAfter = 100 * time.Millisecond

// DocumentStore implements datastore.DocumentStore on an embedded SQLite database.
type DocumentStore struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

var _ datastore.DocumentStore = (*DocumentStore)(nil)

// Option configures a DocumentStore
type Option func(*DocumentStore)

// WithLogger sets the store logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *DocumentStore) {
		s.log = log
	}
}

// WithClock sets the source of document timestamps
func WithClock(now func() time.Time) Option {
	return func(s *DocumentStore) {
		s.now = now
	}
}

// Open opens (creating if needed) the database at path. ":memory:" opens a
// private in-memory database.
func Open(path string, opts ...Option) (*DocumentStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &DocumentStore{db: db, log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s.log.Info().Str("path", path).Msg("SQLite document store opened")
	return s, nil
}

func (s *DocumentStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		rid TEXT NOT NULL,
		etag TEXT NOT NULL,
		ts INTEGER NOT NULL,
		body JSON NOT NULL,
		PRIMARY KEY (collection, id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

// CreateDocument inserts doc unless its id is taken.
func (s *DocumentStore) CreateDocument(ctx context.Context, collectionLink string, doc storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.ResourceResponse, error) {
	id := doc.ID()
	if id == "" {
		return nil, errors.NewValidationError(storagemodels.FieldID, "document id is required")
	}

	stored, md := s.stamp(doc, collectionLink, newResourceID())
	body, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document %q: %w", id, err)
	}

	var inserted int64
	err = s.withBusyRetry(ctx, opts, func() error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO documents (collection, id, rid, etag, ts, body)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(collection, id) DO NOTHING
		`, collectionLink, id, md.ResourceID, md.ETag, md.Timestamp, string(body))
		if err != nil {
			return err
		}
		inserted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	if inserted == 0 {
		return nil, errors.NewAlreadyExistsError("document", md.SelfLink)
	}

	return &storagemodels.ResourceResponse{Document: stored, StatusCode: 201}, nil
}

// ReplaceDocument overwrites the document at selfLink. The resource id is kept.
func (s *DocumentStore) ReplaceDocument(ctx context.Context, selfLink string, doc storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.ResourceResponse, error) {
	collectionLink, id, err := storagemodels.ParseDocumentLink(selfLink)
	if err != nil {
		return nil, errors.NewValidationError("selfLink", err.Error())
	}
	if doc.ID() != id {
		return nil, errors.NewValidationError(storagemodels.FieldID, fmt.Sprintf("document id %q does not match %q", doc.ID(), selfLink))
	}

	var stored storagemodels.Document
	err = s.withBusyRetry(ctx, opts, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var rid string
		err = tx.QueryRowContext(ctx, `SELECT rid FROM documents WHERE collection = ? AND id = ?`, collectionLink, id).Scan(&rid)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError("document", selfLink)
		}
		if err != nil {
			return err
		}

		var md storagemodels.Metadata
		stored, md = s.stamp(doc, collectionLink, rid)
		body, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal document %q: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET etag = ?, ts = ?, body = ?
			WHERE collection = ? AND id = ?
		`, md.ETag, md.Timestamp, string(body), collectionLink, id); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to replace document: %w", err)
	}

	return &storagemodels.ResourceResponse{Document: stored, StatusCode: 200}, nil
}

// DeleteDocument removes the document at selfLink.
func (s *DocumentStore) DeleteDocument(ctx context.Context, selfLink string, opts ...storagemodels.RequestOption) error {
	collectionLink, id, err := storagemodels.ParseDocumentLink(selfLink)
	if err != nil {
		return errors.NewValidationError("selfLink", err.Error())
	}

	var deleted int64
	err = s.withBusyRetry(ctx, opts, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collectionLink, id)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if deleted == 0 {
		return errors.NewNotFoundError("document", selfLink)
	}
	return nil
}

// QueryDocuments returns the matching documents of a collection in insertion order.
func (s *DocumentStore) QueryDocuments(ctx context.Context, params *storagemodels.QueryParams) ([]storagemodels.Document, error) {
	if params == nil || params.CollectionLink == "" {
		return nil, errors.NewValidationError("collectionLink", "must not be empty")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM documents WHERE collection = ? ORDER BY rowid
	`, params.CollectionLink)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", translateError(err))
	}
	defer rows.Close()

	var results []storagemodels.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := storagemodels.DecodeDocument(body)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}

		ok, err := params.Matches(doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		results = append(results, doc)
		if params.Limit > 0 && len(results) >= params.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return results, nil
}

func (s *DocumentStore) stamp(doc storagemodels.Document, collectionLink, rid string) (storagemodels.Document, storagemodels.Metadata) {
	md := storagemodels.Metadata{
		ID:         doc.ID(),
		ResourceID: rid,
		SelfLink:   storagemodels.DocumentLink(collectionLink, doc.ID()),
		ETag:       newETag(),
		Timestamp:  s.now().Unix(),
	}
	stored := doc.Clone()
	storagemodels.StampMetadata(stored, md)
	return stored, md
}

// withBusyRetry runs fn, retrying while the database is locked within the
// request's throttle tolerance. A lock that outlasts it becomes a ThrottledError.
func (s *DocumentStore) withBusyRetry(ctx context.Context, opts []storagemodels.RequestOption, fn func() error) error {
	ro := storagemodels.ApplyRequestOptions(opts...)
	var waited time.Duration

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isBusy(err) {
			return err
		}
		if attempt >= ro.MaxRetryAttempts || waited+busyRetryAfter > ro.MaxRetryWait {
			return translateError(err)
		}

		s.log.Debug().Int("attempt", attempt+1).Msg("database locked, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(busyRetryAfter):
		}
		waited += busyRetryAfter
	}
}

func isBusy(err error) bool {
	var se *sqlitedriver.Error
	if !stderrors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlitelib.SQLITE_BUSY, sqlitelib.SQLITE_LOCKED:
		return true
	}
	return false
}

// translateError reports a locked database as throttling.
func translateError(err error) error {
	if isBusy(err) {
		return errors.NewThrottledError(503, busyRetryAfter, err)
	}
	return err
}

func newResourceID() string {
	return uuid.NewString()[:8]
}

func newETag() string {
	return `"` + uuid.NewString() + `"`
}
