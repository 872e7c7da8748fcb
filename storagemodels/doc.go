/*
Package storagemodels defines the data structures shared by the repository and
the document stores.

Key Types:

Resource / Entity:
Identity and server metadata of a record. Concrete records embed Resource:

	type Member struct {
	    storagemodels.Resource
	    Title  string `json:"Title"`
	    Status int    `json:"Status"`
	}

A record is new while its SelfLink (the location handle) is empty.

Document:
The wire form of a record. ToDocument and FromDocument convert between the two
using json tags; the reserved fields id, _rid, _self, _etag and _ts carry the
Resource values.

QueryParams:
A read over one collection, optionally filtered by a compiled Predicate:

	pred, _ := storagemodels.CompilePredicate(`Status == 1`, `Title != ""`)
	params := &storagemodels.QueryParams{
	    CollectionLink: storagemodels.CollectionLink("app", "members"),
	    Predicate:      pred,
	}

RequestOptions:
Per-request settings for stores, such as the client's own throttling tolerance:

	store.ReplaceDocument(ctx, link, doc, storagemodels.WithThrottleRetry(30*time.Second, 9))

These types provide a consistent interface across different storage implementations.
*/
package storagemodels
