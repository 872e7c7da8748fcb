/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/registry"
	"github.com/suparena/docrepo/storagemodels"
)

// DocumentStore implements datastore.DocumentStore on a single DynamoDB table.
// Items are keyed by the collection's registry.KeyLayout.
type DocumentStore struct {
	client          API
	tableName       string
	log             zerolog.Logger
	now             func() time.Time
	bulkConcurrency int
}

var _ datastore.DocumentStore = (*DocumentStore)(nil)

// Option configures a DocumentStore
type Option func(*DocumentStore)

// WithLogger sets the store logger
func WithLogger(log zerolog.Logger) Option {
	return func(d *DocumentStore) {
		d.log = log
	}
}

// WithClock sets the source of document timestamps
func WithClock(now func() time.Time) Option {
	return func(d *DocumentStore) {
		d.now = now
	}
}

// WithBulkConcurrency bounds how many BatchWriteItem calls a bulk import runs at once (default: 4)
func WithBulkConcurrency(n int) Option {
	return func(d *DocumentStore) {
		if n > 0 {
			d.bulkConcurrency = n
		}
	}
}

// NewDocumentStore wraps an existing client.
func NewDocumentStore(client API, tableName string, opts ...Option) (*DocumentStore, error) {
	if client == nil {
		return nil, errors.NewValidationError("client", "DynamoDB client is required")
	}
	if tableName == "" {
		return nil, errors.NewValidationError("tableName", "must not be empty")
	}

	d := &DocumentStore{
		client:          client,
		tableName:       tableName,
		log:             zerolog.Nop(),
		now:             time.Now,
		bulkConcurrency: 4,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// New creates a client from cfg and a DocumentStore over tableName.
func New(ctx context.Context, cfg ClientConfig, tableName string, opts ...Option) (*DocumentStore, error) {
	if tableName == "" {
		return nil, errors.NewValidationError("tableName", "must not be empty")
	}

	settings := &DocumentStore{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(settings)
	}
	client, err := NewDynamoDBClient(ctx, cfg, settings.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	return NewDocumentStore(client, tableName, opts...)
}

// TableName returns the backing table
func (d *DocumentStore) TableName() string {
	return d.tableName
}

// CreateDocument puts doc under a condition that no item with its key exists.
func (d *DocumentStore) CreateDocument(ctx context.Context, collectionLink string, doc storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.ResourceResponse, error) {
	id := doc.ID()
	if id == "" {
		return nil, errors.NewValidationError(storagemodels.FieldID, "document id is required")
	}

	selfLink := storagemodels.DocumentLink(collectionLink, id)
	stored := d.stamp(doc, collectionLink, newResourceID(storagemodels.DocumentLink(collectionLink, doc.ID())))

	item, err := toItem(collectionLink, stored)
	if err != nil {
		return nil, err
	}

	out, err := d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                &d.tableName,
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": registry.PartitionKey},
		ReturnConsumedCapacity:   types.ReturnConsumedCapacityTotal,
	}, requestOptions(opts...)...)
	if err != nil {
		if isConditionFailed(err) {
			return nil, errors.NewAlreadyExistsError("document", selfLink)
		}
		return nil, fmt.Errorf("PutItem failed: %w", translateError(err))
	}

	return &storagemodels.ResourceResponse{
		Document:      stored,
		StatusCode:    201,
		RequestCharge: capacityUnits(out.ConsumedCapacity),
	}, nil
}

// ReplaceDocument puts doc under a condition that the item already exists.
// The last write wins; the version token is not checked.
func (d *DocumentStore) ReplaceDocument(ctx context.Context, selfLink string, doc storagemodels.Document, opts ...storagemodels.RequestOption) (*storagemodels.ResourceResponse, error) {
	collectionLink, id, err := storagemodels.ParseDocumentLink(selfLink)
	if err != nil {
		return nil, errors.NewValidationError("selfLink", err.Error())
	}
	if doc.ID() != id {
		return nil, errors.NewValidationError(storagemodels.FieldID, fmt.Sprintf("document id %q does not match %q", doc.ID(), selfLink))
	}

	rid := storagemodels.MetadataFromDocument(doc).ResourceID
	if rid == "" {
		rid = newResourceID(selfLink)
	}
	stored := d.stamp(doc, collectionLink, rid)

	item, err := toItem(collectionLink, stored)
	if err != nil {
		return nil, err
	}

	out, err := d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                &d.tableName,
		Item:                     item,
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": registry.PartitionKey},
		ReturnConsumedCapacity:   types.ReturnConsumedCapacityTotal,
	}, requestOptions(opts...)...)
	if err != nil {
		if isConditionFailed(err) {
			return nil, errors.NewNotFoundError("document", selfLink)
		}
		return nil, fmt.Errorf("PutItem failed: %w", translateError(err))
	}

	return &storagemodels.ResourceResponse{
		Document:      stored,
		StatusCode:    200,
		RequestCharge: capacityUnits(out.ConsumedCapacity),
	}, nil
}

// DeleteDocument removes the item at selfLink.
func (d *DocumentStore) DeleteDocument(ctx context.Context, selfLink string, opts ...storagemodels.RequestOption) error {
	key, err := keyForLink(selfLink)
	if err != nil {
		return err
	}

	_, err = d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                &d.tableName,
		Key:                      key,
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": registry.PartitionKey},
	}, requestOptions(opts...)...)
	if err != nil {
		if isConditionFailed(err) {
			return errors.NewNotFoundError("document", selfLink)
		}
		return fmt.Errorf("failed to delete item in DynamoDB: %w", translateError(err))
	}
	return nil
}

// stamp returns a copy of doc carrying fresh server metadata.
func (d *DocumentStore) stamp(doc storagemodels.Document, collectionLink, rid string) storagemodels.Document {
	stored := doc.Clone()
	storagemodels.StampMetadata(stored, storagemodels.Metadata{
		ID:         doc.ID(),
		ResourceID: rid,
		SelfLink:   storagemodels.DocumentLink(collectionLink, doc.ID()),
		ETag:       newETag(),
		Timestamp:  d.now().Unix(),
	})
	return stored
}

// toItem marshals doc and adds the attributes of the collection's key layout.
func toItem(collectionLink string, doc storagemodels.Document) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document %q: %w", doc.ID(), err)
	}

	expanded := expandMacros(registry.KeyLayoutFor(collectionLink), collectionLink, av)
	for k, v := range expanded {
		av[k] = &types.AttributeValueMemberS{Value: v}
	}
	return av, nil
}

// fromItem unmarshals an item and strips the key layout attributes.
func fromItem(collectionLink string, item map[string]types.AttributeValue) (storagemodels.Document, error) {
	var doc map[string]any
	err := attributevalue.UnmarshalMapWithOptions(item, &doc, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	for _, attr := range registry.KeyLayoutFor(collectionLink).Attributes() {
		delete(doc, attr)
	}
	for k, v := range doc {
		doc[k] = storagemodels.NormalizeNumbers(v)
	}
	return storagemodels.Document(doc), nil
}

// keyForLink builds the primary key of the item a document link points at.
func keyForLink(selfLink string) (map[string]types.AttributeValue, error) {
	collectionLink, id, err := storagemodels.ParseDocumentLink(selfLink)
	if err != nil {
		return nil, errors.NewValidationError("selfLink", err.Error())
	}

	layout := registry.KeyLayoutFor(collectionLink)
	expanded := expandMacros(registry.KeyLayout{
		registry.PartitionKey: layout[registry.PartitionKey],
		registry.SortKey:      layout[registry.SortKey],
	}, collectionLink, map[string]types.AttributeValue{
		storagemodels.FieldID: &types.AttributeValueMemberS{Value: id},
	})
	return map[string]types.AttributeValue{
		registry.PartitionKey: &types.AttributeValueMemberS{Value: expanded[registry.PartitionKey]},
		registry.SortKey:      &types.AttributeValueMemberS{Value: expanded[registry.SortKey]},
	}, nil
}

// expandMacros fills each template of layout from the item's attributes.
func expandMacros(layout registry.KeyLayout, collectionLink string, av map[string]types.AttributeValue) map[string]string {
	lookup := func(name string) (string, bool) {
		if name == registry.MacroCollection {
			return collectionLink, true
		}
		val, ok := av[name]
		if !ok {
			return "", false
		}
		switch tv := val.(type) {
		case *types.AttributeValueMemberS:
			return tv.Value, true
		case *types.AttributeValueMemberN:
			return tv.Value, true
		case *types.AttributeValueMemberBOOL:
			return fmt.Sprintf("%v", tv.Value), true
		default:
			// Sets, maps, lists, binary and NULL have no key form.
			return "", false
		}
	}

	res := make(map[string]string, len(layout))
	for attr, template := range layout {
		res[attr] = registry.Expand(template, lookup)
	}
	return res
}

func isConditionFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return stderrors.As(err, &cfe)
}

func capacityUnits(cc *types.ConsumedCapacity) float64 {
	if cc == nil || cc.CapacityUnits == nil {
		return 0
	}
	return *cc.CapacityUnits
}

// newResourceID derives the resource id from the document link. Writes that
// do not carry an id, such as repeated bulk upserts, land on the same one.
func newResourceID(selfLink string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(selfLink)).String()[:8]
}

func newETag() string {
	return `"` + uuid.NewString() + `"`
}
