/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

type bulkLoader struct {
	store          *DocumentStore
	collectionLink string
}

// NewBulkLoader returns a loader that upserts documents in one transaction.
func (s *DocumentStore) NewBulkLoader(ctx context.Context, collectionLink string) (datastore.BulkLoader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if collectionLink == "" {
		return nil, errors.NewValidationError("collectionLink", "must not be empty")
	}
	return &bulkLoader{store: s, collectionLink: collectionLink}, nil
}

// BulkImport upserts docs. The transaction either imports every document or
// none. A document that already exists keeps its resource id.
func (l *bulkLoader) BulkImport(ctx context.Context, docs []storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.BulkImportResponse, error) {
	s := l.store
	start := time.Now()

	type row struct {
		id   string
		md   storagemodels.Metadata
		body string
	}
	rows := make([]row, 0, len(docs))
	for _, doc := range docs {
		if doc.ID() == "" {
			return nil, errors.NewValidationError(storagemodels.FieldID, "document id is required")
		}
		rid := storagemodels.MetadataFromDocument(doc).ResourceID
		if rid == "" {
			rid = newResourceID()
		}
		stored, md := s.stamp(doc, l.collectionLink, rid)
		body, err := json.Marshal(stored)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document %q: %w", doc.ID(), err)
		}
		rows = append(rows, row{id: doc.ID(), md: md, body: string(body)})
	}

	err := s.withBusyRetry(ctx, opts, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO documents (collection, id, rid, etag, ts, body)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				etag = excluded.etag,
				ts = excluded.ts,
				body = json_set(excluded.body, '$._rid', documents.rid)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, l.collectionLink, r.id, r.md.ResourceID, r.md.ETag, r.md.Timestamp, r.body); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("bulk import failed: %w", err)
	}

	resp := &storagemodels.BulkImportResponse{Imported: len(rows), Elapsed: time.Since(start)}
	s.log.Debug().Str("collection", l.collectionLink).Int("imported", resp.Imported).Dur("elapsed", resp.Elapsed).Msg("bulk import")
	return resp, nil
}
