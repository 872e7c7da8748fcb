/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"encoding/json"
	"strconv"
	"time"
)

// Reserved document fields written by the store.
const (
	FieldID         = "id"
	FieldResourceID = "_rid"
	FieldSelfLink   = "_self"
	FieldETag       = "_etag"
	FieldTimestamp  = "_ts"
)

// Entity is the capability a record needs to be tracked and persisted by a repository.
type Entity interface {
	GetID() string
	SetID(id string)
	// GetSelfLink returns the location handle, empty until the record is first created.
	GetSelfLink() string
	GetETag() string
	GetResourceID() string
	GetTimestamp() time.Time
	// ApplyMetadata copies server-assigned fields onto the record.
	ApplyMetadata(md Metadata)
}

// Metadata holds the server-assigned fields of a stored document.
type Metadata struct {
	ID         string
	ResourceID string
	SelfLink   string
	ETag       string
	Timestamp  int64
}

// Resource carries the identity and server metadata of a document. Concrete
// records embed it to satisfy Entity:
//
//	type Member struct {
//	    storagemodels.Resource
//	    Title string `json:"Title"`
//	}
type Resource struct {
	ID         string `json:"id"`
	ResourceID string `json:"_rid,omitempty"`
	SelfLink   string `json:"_self,omitempty"`
	ETag       string `json:"_etag,omitempty"`
	Timestamp  int64  `json:"_ts,omitempty"`
}

func (r *Resource) GetID() string         { return r.ID }
func (r *Resource) SetID(id string)       { r.ID = id }
func (r *Resource) GetSelfLink() string   { return r.SelfLink }
func (r *Resource) GetETag() string       { return r.ETag }
func (r *Resource) GetResourceID() string { return r.ResourceID }

// GetTimestamp returns the server timestamp, or the zero time if the record was never stored.
func (r *Resource) GetTimestamp() time.Time {
	if r.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(r.Timestamp, 0).UTC()
}

// ApplyMetadata overwrites the server-assigned fields. The identity is left alone.
func (r *Resource) ApplyMetadata(md Metadata) {
	r.ResourceID = md.ResourceID
	r.SelfLink = md.SelfLink
	r.ETag = md.ETag
	r.Timestamp = md.Timestamp
}

// MetadataFromDocument reads the reserved fields of a stored document.
func MetadataFromDocument(doc Document) Metadata {
	return Metadata{
		ID:         stringField(doc, FieldID),
		ResourceID: stringField(doc, FieldResourceID),
		SelfLink:   stringField(doc, FieldSelfLink),
		ETag:       stringField(doc, FieldETag),
		Timestamp:  int64Field(doc, FieldTimestamp),
	}
}

// StampMetadata writes server-assigned fields into doc.
func StampMetadata(doc Document, md Metadata) {
	doc[FieldResourceID] = md.ResourceID
	doc[FieldSelfLink] = md.SelfLink
	doc[FieldETag] = md.ETag
	doc[FieldTimestamp] = md.Timestamp
}

func stringField(doc Document, key string) string {
	switch v := doc[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func int64Field(doc Document, key string) int64 {
	switch v := doc[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}
