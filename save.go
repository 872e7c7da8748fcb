/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// Save writes every tracked record to the store. Sets smaller than the bulk
// threshold are written one document at a time, replacing persisted records
// before creating new ones; larger sets are upserted through a bulk loader.
//
// A failed Save leaves already-written documents in place. Saving the same set
// again is the recovery path.
func (r *Repository[E]) Save(ctx context.Context) error {
	if r.closed.Load() {
		return errors.ErrClosed
	}

	records := r.tracked.Snapshot()
	if len(records) == 0 {
		return nil
	}

	path := PathItemized
	if len(records) >= r.opts.BulkThreshold {
		path = PathBulk
	}

	start := time.Now()
	var err error
	if path == PathBulk {
		err = r.saveBulk(ctx, records)
	} else {
		err = r.saveItemized(ctx, records)
	}
	elapsed := time.Since(start)
	r.opts.Metrics.observeSave(path, elapsed, err)

	if err != nil {
		r.log.Error().Err(err).Str("path", path).Int("count", len(records)).Dur("elapsed", elapsed).Msg("save failed")
		return err
	}
	r.log.Info().Str("path", path).Int("count", len(records)).Dur("elapsed", elapsed).Msg("save completed")
	return nil
}

func (r *Repository[E]) saveItemized(ctx context.Context, records []E) error {
	reqOpts := []storagemodels.RequestOption{
		storagemodels.WithThrottleRetry(r.opts.ThrottleRetry.MaxWait, r.opts.ThrottleRetry.MaxAttempts),
	}

	var created []E
	pending := make(map[string]E)
	for _, e := range records {
		if r.IsNew(e) {
			created = append(created, e)
			pending[e.GetID()] = e
			continue
		}

		doc, err := storagemodels.ToDocument(e)
		if err != nil {
			return fmt.Errorf("encode %q: %w", e.GetID(), err)
		}
		selfLink := e.GetSelfLink()
		resp, err := r.backoff.do(ctx, opReplace, e.GetID(), func(ctx context.Context) (*storagemodels.ResourceResponse, error) {
			return r.store.ReplaceDocument(ctx, selfLink, doc, reqOpts...)
		})
		if err != nil {
			return err
		}
		if md := resp.Metadata(); md.SelfLink != "" {
			e.ApplyMetadata(md)
		}
	}

	for _, e := range created {
		doc, err := storagemodels.ToDocument(e)
		if err != nil {
			return fmt.Errorf("encode %q: %w", e.GetID(), err)
		}
		resp, err := r.backoff.do(ctx, opCreate, e.GetID(), func(ctx context.Context) (*storagemodels.ResourceResponse, error) {
			return r.store.CreateDocument(ctx, r.collectionLink, doc, reqOpts...)
		})
		if err != nil {
			return err
		}

		md := resp.Metadata()
		target, ok := pending[md.ID]
		if !ok {
			return errors.NewLookupError(r.collectionLink, storagemodels.FieldID+" == "+fmt.Sprintf("%q", md.ID), 0)
		}
		target.ApplyMetadata(md)
		delete(pending, md.ID)
	}

	return nil
}

func (r *Repository[E]) saveBulk(ctx context.Context, records []E) error {
	docs := make([]storagemodels.Document, 0, len(records))
	for _, e := range records {
		doc, err := storagemodels.ToDocument(e)
		if err != nil {
			return fmt.Errorf("encode %q: %w", e.GetID(), err)
		}
		docs = append(docs, doc)
	}

	bulkErr := func(imported int, cause error) error {
		r.log.Error().Err(cause).Int("submitted", len(docs)).Int("imported", imported).Msg("bulk import failed")
		return &errors.BulkImportError{
			Collection: r.collectionLink,
			Submitted:  len(docs),
			Imported:   imported,
			Err:        cause,
		}
	}

	loader, err := r.store.NewBulkLoader(ctx, r.collectionLink)
	if err != nil {
		return bulkErr(0, err)
	}

	noThrottleRetry := storagemodels.WithThrottleRetry(0, 0)
	imported := 0
	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return bulkErr(imported, err)
		}

		resp, err := loader.BulkImport(ctx, docs, noThrottleRetry)
		if err != nil {
			return bulkErr(imported, err)
		}
		imported = resp.Imported
		r.opts.Metrics.observeBulkRound(imported)
		r.log.Debug().Int("round", round).Int("imported", imported).Int("submitted", len(docs)).
			Dur("elapsed", resp.Elapsed).Float64("request_charge", resp.RequestCharge).Msg("bulk round")

		if imported >= len(docs) {
			return nil
		}
		if r.opts.MaxBulkRounds > 0 && round >= r.opts.MaxBulkRounds {
			return bulkErr(imported, fmt.Errorf("incomplete after %d rounds", round))
		}
	}
}
