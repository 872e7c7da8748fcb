/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/registry"
	"github.com/suparena/docrepo/storagemodels"
)

// QueryDocuments reads the collection's partition page by page and filters
// each document with the query predicate.
func (d *DocumentStore) QueryDocuments(ctx context.Context, params *storagemodels.QueryParams) ([]storagemodels.Document, error) {
	if params == nil || params.CollectionLink == "" {
		return nil, errors.NewValidationError("collectionLink", "must not be empty")
	}

	layout := registry.KeyLayoutFor(params.CollectionLink)
	pk := expandMacros(registry.KeyLayout{registry.PartitionKey: layout[registry.PartitionKey]}, params.CollectionLink, nil)[registry.PartitionKey]

	input := &sdk.QueryInput{
		TableName:                &d.tableName,
		KeyConditionExpression:   aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{"#pk": registry.PartitionKey},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
	}

	var results []storagemodels.Document
	pages := 0
	paginator := sdk.NewQueryPaginator(d.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", translateError(err))
		}
		pages++

		for _, item := range out.Items {
			doc, err := fromItem(params.CollectionLink, item)
			if err != nil {
				return nil, err
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
				return results, nil
			}
		}
	}

	d.log.Debug().Str("collection", params.CollectionLink).Int("pages", pages).Int("results", len(results)).
		Str("filter", params.Predicate.String()).Msg("query completed")
	return results, nil
}
