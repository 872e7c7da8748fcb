/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// fakeAPI is an in-memory table understanding the few condition and key
// expressions DocumentStore sends.
type fakeAPI struct {
	mu                 sync.Mutex
	items              map[string]item
	pageSize           int
	unprocessedPerCall int
	putErrs            []error
	batchErrs          []error
	batchCalls         int
	optFns             [][]func(*sdk.Options)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]item)}
}

func keyString(it item) string {
	return attrString(it["PK"]) + "|" + attrString(it["SK"])
}

func attrString(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeAPI) PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optFns = append(f.optFns, optFns)

	if len(f.putErrs) > 0 {
		err := f.putErrs[0]
		f.putErrs = f.putErrs[1:]
		return nil, err
	}

	key := keyString(params.Item)
	_, exists := f.items[key]
	switch aws.ToString(params.ConditionExpression) {
	case "attribute_not_exists(#pk)":
		if exists {
			return nil, conditionFailed()
		}
	case "attribute_exists(#pk)":
		if !exists {
			return nil, conditionFailed()
		}
	}
	f.items[key] = params.Item
	return &sdk.PutItemOutput{ConsumedCapacity: &types.ConsumedCapacity{CapacityUnits: aws.Float64(1)}}, nil
}

func (f *fakeAPI) DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optFns = append(f.optFns, optFns)

	key := keyString(params.Key)
	if _, exists := f.items[key]; !exists && params.ConditionExpression != nil {
		return nil, conditionFailed()
	}
	delete(f.items, key)
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pk := attrString(params.ExpressionAttributeValues[":pk"])
	var matched []item
	for _, it := range f.items {
		if attrString(it["PK"]) == pk {
			matched = append(matched, it)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return attrString(matched[i]["SK"]) < attrString(matched[j]["SK"])
	})

	if params.ExclusiveStartKey != nil {
		after := attrString(params.ExclusiveStartKey["SK"])
		idx := sort.Search(len(matched), func(i int) bool {
			return strings.Compare(attrString(matched[i]["SK"]), after) > 0
		})
		matched = matched[idx:]
	}

	out := &sdk.QueryOutput{}
	if f.pageSize > 0 && len(matched) > f.pageSize {
		matched = matched[:f.pageSize]
		last := matched[len(matched)-1]
		out.LastEvaluatedKey = item{"PK": last["PK"], "SK": last["SK"]}
	}
	out.Items = matched
	out.Count = int32(len(matched))
	return out, nil
}

func (f *fakeAPI) BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	f.optFns = append(f.optFns, optFns)

	if len(f.batchErrs) > 0 {
		err := f.batchErrs[0]
		f.batchErrs = f.batchErrs[1:]
		return nil, err
	}

	out := &sdk.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, reqs := range params.RequestItems {
		for i, req := range reqs {
			if i < f.unprocessedPerCall {
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], req)
				continue
			}
			f.items[keyString(req.PutRequest.Item)] = req.PutRequest.Item
		}
		out.ConsumedCapacity = append(out.ConsumedCapacity, types.ConsumedCapacity{
			TableName:     aws.String(table),
			CapacityUnits: aws.Float64(float64(len(reqs))),
		})
	}
	return out, nil
}

func (f *fakeAPI) get(pk, sk string) (item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[pk+"|"+sk]
	return it, ok
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
