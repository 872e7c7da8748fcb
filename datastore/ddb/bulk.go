/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// batchWriteLimit is the most put requests DynamoDB accepts in one BatchWriteItem call.
const batchWriteLimit = 25

type bulkLoader struct {
	store          *DocumentStore
	collectionLink string
}

// NewBulkLoader returns a loader that upserts documents with BatchWriteItem.
func (d *DocumentStore) NewBulkLoader(ctx context.Context, collectionLink string) (datastore.BulkLoader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if collectionLink == "" {
		return nil, errors.NewValidationError("collectionLink", "must not be empty")
	}
	return &bulkLoader{store: d, collectionLink: collectionLink}, nil
}

// BulkImport writes docs in chunks of 25, several chunks at a time. Items
// DynamoDB hands back as unprocessed are not counted as imported; the caller
// resubmits the batch.
func (l *bulkLoader) BulkImport(ctx context.Context, docs []storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.BulkImportResponse, error) {
	d := l.store
	start := time.Now()

	requests := make([]types.WriteRequest, 0, len(docs))
	for _, doc := range docs {
		if doc.ID() == "" {
			return nil, errors.NewValidationError(storagemodels.FieldID, "document id is required")
		}
		rid := storagemodels.MetadataFromDocument(doc).ResourceID
		if rid == "" {
			rid = newResourceID(storagemodels.DocumentLink(l.collectionLink, doc.ID()))
		}
		item, err := toItem(l.collectionLink, d.stamp(doc, l.collectionLink, rid))
		if err != nil {
			return nil, err
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	optFns := requestOptions(opts...)

	var (
		mu          sync.Mutex
		unprocessed int
		charge      float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.bulkConcurrency)
	for offset := 0; offset < len(requests); offset += batchWriteLimit {
		end := min(offset+batchWriteLimit, len(requests))
		chunk := requests[offset:end]

		g.Go(func() error {
			out, err := d.client.BatchWriteItem(gctx, &sdk.BatchWriteItemInput{
				RequestItems:           map[string][]types.WriteRequest{d.tableName: chunk},
				ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
			}, optFns...)
			if err != nil {
				return translateError(err)
			}

			mu.Lock()
			defer mu.Unlock()
			unprocessed += len(out.UnprocessedItems[d.tableName])
			for i := range out.ConsumedCapacity {
				charge += capacityUnits(&out.ConsumedCapacity[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("BatchWriteItem failed: %w", err)
	}

	resp := &storagemodels.BulkImportResponse{
		Imported:      len(docs) - unprocessed,
		Elapsed:       time.Since(start),
		RequestCharge: charge,
	}
	d.log.Debug().Str("collection", l.collectionLink).Int("submitted", len(docs)).Int("imported", resp.Imported).
		Dur("elapsed", resp.Elapsed).Msg("bulk import")
	return resp, nil
}
