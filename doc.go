/*
Package docrepo provides a change-tracking repository over a document store.

Records are plain structs embedding storagemodels.Resource. A Repository
tracks the records it creates or reads and writes the whole tracked set back
on Save:

  - Fewer than BulkThreshold records (default 5) are saved one at a time.
    Persisted records are replaced first, then new records are created and
    their server metadata (_rid, _self, _etag, _ts) is copied back.
  - Larger sets are upserted in rounds through a bulk loader until the store
    reports every document imported.

Throttled writes wait for the store's retry-after hint and are retried
without limit. Other write failures are retried a fixed number of times
(default 10, every 2 seconds) before Save gives up with a RetryExhaustedError.

Basic Usage:

	store := mock.New() // or ddb.NewDocumentStore(...), sqlite.Open(...)
	repo, err := docrepo.NewRepository[*Member](store, "appdb", "members",
		docrepo.WithLogger(logger),
		docrepo.WithDefaultFilter("Status == 1"),
	)

	m := repo.CreateNew()
	m.Title = "Wilma"
	err = repo.Save(ctx)

	page, err := repo.GetAll(ctx, docrepo.Query[*Member]{
		Filter:    `UserName == "wilma"`,
		SortField: "CreatedAt",
	})

Store clients are shared between repositories through a Stores registry and
closed by their owner, never by a Repository.
*/
package docrepo
