/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels_test

import (
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docrepo/datastore/testmodels"
	"github.com/suparena/docrepo/storagemodels"
)

func TestDocumentRoundTrip(t *testing.T) {
	created := strfmt.DateTime(time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC))
	m := &testmodels.Member{
		Resource:  storagemodels.Resource{ID: "m-1", ETag: `"e1"`, SelfLink: "dbs/app/colls/members/docs/m-1", Timestamp: 1740825000},
		Title:     "Test Member",
		UserName:  "username",
		Status:    testmodels.StatusAvailable,
		Email:     "test@test.com",
		CreatedAt: created,
	}

	doc, err := storagemodels.ToDocument(m)
	require.NoError(t, err)

	// embedded Resource fields are flattened onto the document
	assert.Equal(t, "m-1", doc.ID())
	assert.Equal(t, "dbs/app/colls/members/docs/m-1", doc[storagemodels.FieldSelfLink])
	assert.Equal(t, int64(1), doc["Status"])

	var back testmodels.Member
	require.NoError(t, storagemodels.FromDocument(doc, &back))
	assert.Equal(t, m.ID, back.ID)
	assert.Equal(t, m.ETag, back.ETag)
	assert.Equal(t, m.Timestamp, back.Timestamp)
	assert.Equal(t, m.Email, back.Email)
	assert.Equal(t, m.Status, back.Status)
	assert.True(t, time.Time(created).Equal(time.Time(back.CreatedAt)))
}

type counterRecord struct {
	storagemodels.Resource
	Big    int64          `json:"Big"`
	Ratio  float64        `json:"Ratio"`
	Nested map[string]any `json:"Nested"`
}

func TestDocumentKeepsLargeIntegers(t *testing.T) {
	in := &counterRecord{
		Resource: storagemodels.Resource{ID: "c-1"},
		Big:      1<<53 + 1,
		Ratio:    0.25,
		Nested:   map[string]any{"list": []any{int64(1<<53 + 3), 1.5}},
	}

	doc, err := storagemodels.ToDocument(in)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<53+1), doc["Big"])
	assert.Equal(t, 0.25, doc["Ratio"])
	nested := doc["Nested"].(map[string]any)
	assert.Equal(t, []any{int64(1<<53 + 3), 1.5}, nested["list"])

	var out counterRecord
	require.NoError(t, storagemodels.FromDocument(doc, &out))
	assert.Equal(t, in.Big, out.Big)
	assert.Equal(t, in.Ratio, out.Ratio)

	pred, err := storagemodels.CompilePredicate("Big > 9007199254740992")
	require.NoError(t, err)
	ok, err := pred.Match(doc)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDecodeDocument(t *testing.T) {
	doc, err := storagemodels.DecodeDocument([]byte(`{"id":"x","n":9007199254740993,"f":2.5,"e":1e3}`))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), doc["n"])
	assert.Equal(t, 2.5, doc["f"])
	assert.Equal(t, float64(1000), doc["e"])

	_, err = storagemodels.DecodeDocument([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestNewRecordOmitsMetadata(t *testing.T) {
	doc, err := storagemodels.ToDocument(&testmodels.Member{Resource: storagemodels.Resource{ID: "new"}})
	require.NoError(t, err)

	_, hasSelf := doc[storagemodels.FieldSelfLink]
	assert.False(t, hasSelf)
	assert.Equal(t, storagemodels.Metadata{ID: "new"}, storagemodels.MetadataFromDocument(doc))
}

func TestToDocumentRejectsNonObjects(t *testing.T) {
	_, err := storagemodels.ToDocument([]int{1, 2})
	assert.Error(t, err)
}

func TestApplyMetadata(t *testing.T) {
	r := &storagemodels.Resource{ID: "a"}
	assert.True(t, r.GetTimestamp().IsZero())

	r.ApplyMetadata(storagemodels.Metadata{ID: "ignored", ResourceID: "rid", SelfLink: "dbs/d/colls/c/docs/a", ETag: `"v"`, Timestamp: 100})
	assert.Equal(t, "a", r.GetID())
	assert.Equal(t, "rid", r.GetResourceID())
	assert.Equal(t, "dbs/d/colls/c/docs/a", r.GetSelfLink())
	assert.Equal(t, `"v"`, r.GetETag())
	assert.Equal(t, time.Unix(100, 0).UTC(), r.GetTimestamp())
}

func TestMetadataFromResponse(t *testing.T) {
	resp := &storagemodels.ResourceResponse{Document: storagemodels.Document{
		"id": "x", "_rid": "r", "_self": "s", "_etag": "e", "_ts": float64(42),
	}}
	assert.Equal(t, storagemodels.Metadata{ID: "x", ResourceID: "r", SelfLink: "s", ETag: "e", Timestamp: 42}, resp.Metadata())

	var nilResp *storagemodels.ResourceResponse
	assert.Equal(t, storagemodels.Metadata{}, nilResp.Metadata())
}

func TestLinks(t *testing.T) {
	coll := storagemodels.CollectionLink("app", "members")
	assert.Equal(t, "dbs/app/colls/members", coll)

	link := storagemodels.DocumentLink(coll, "a/b")
	gotColl, gotID, err := storagemodels.ParseDocumentLink(link)
	require.NoError(t, err)
	assert.Equal(t, coll, gotColl)
	assert.Equal(t, "a/b", gotID)

	for _, bad := range []string{"", "docs/x", "dbs/app/docs/x", "dbs/app/colls/members/docs/"} {
		_, _, err := storagemodels.ParseDocumentLink(bad)
		assert.Error(t, err, bad)
	}
}

func TestCompilePredicate(t *testing.T) {
	pred, err := storagemodels.CompilePredicate("", "  ")
	require.NoError(t, err)
	assert.Nil(t, pred)

	pred, err = storagemodels.CompilePredicate(`Status == 1`, `Title startsWith "A"`)
	require.NoError(t, err)
	assert.Equal(t, `(Status == 1) && (Title startsWith "A")`, pred.String())

	ok, err := pred.Match(storagemodels.Document{"Status": float64(1), "Title": "Alice"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pred.Match(storagemodels.Document{"Status": float64(0), "Title": "Alice"})
	require.NoError(t, err)
	assert.False(t, ok)

	// missing fields are nil
	ok, err = pred.Match(storagemodels.Document{"Title": "Alice"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = storagemodels.CompilePredicate(`Status ==`)
	assert.Error(t, err)
}

func TestQueryParamsMatches(t *testing.T) {
	var params *storagemodels.QueryParams
	ok, err := params.Matches(storagemodels.Document{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSortDocuments(t *testing.T) {
	docs := []storagemodels.Document{
		{"id": "c", "n": float64(3)},
		{"id": "none"},
		{"id": "a", "n": float64(1)},
		{"id": "b", "n": float64(2)},
	}

	storagemodels.SortDocuments(docs, "n", false)
	assert.Equal(t, []string{"none", "a", "b", "c"}, ids(docs))

	storagemodels.SortDocuments(docs, "n", true)
	assert.Equal(t, []string{"c", "b", "a", "none"}, ids(docs))

	storagemodels.SortDocuments(docs, "id", false)
	assert.Equal(t, []string{"a", "b", "c", "none"}, ids(docs))
}

func TestLookupNested(t *testing.T) {
	doc := storagemodels.Document{"address": map[string]any{"city": "Oakville"}}
	assert.Equal(t, "Oakville", storagemodels.Lookup(doc, "address.city"))
	assert.Nil(t, storagemodels.Lookup(doc, "address.zip"))
	assert.Nil(t, storagemodels.Lookup(doc, "missing.city"))
}

func TestCompareValues(t *testing.T) {
	assert.Negative(t, storagemodels.CompareValues(nil, false))
	assert.Negative(t, storagemodels.CompareValues(true, 0))
	assert.Negative(t, storagemodels.CompareValues(int64(5), "5"))
	assert.Zero(t, storagemodels.CompareValues(2, float64(2)))
	assert.Positive(t, storagemodels.CompareValues("b", "a"))
}

func ids(docs []storagemodels.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID()
	}
	return out
}
