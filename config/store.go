/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/datastore/ddb"
	"github.com/suparena/docrepo/datastore/mock"
	"github.com/suparena/docrepo/datastore/sqlite"
)

// OpenStore builds the document store selected by the store section.
func (c *Config) OpenStore(ctx context.Context, log zerolog.Logger) (datastore.DocumentStore, error) {
	switch c.Store.Backend {
	case BackendDynamoDB:
		return ddb.New(ctx, ddb.ClientConfig{
			AccessKey: c.Store.AccessKey,
			SecretKey: c.Store.SecretKey,
			Region:    c.Store.Region,
			Endpoint:  c.Store.Endpoint,
		}, c.Store.Table, ddb.WithLogger(log))
	case BackendSQLite:
		return sqlite.Open(c.Store.SQLitePath, sqlite.WithLogger(log))
	case BackendMemory:
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
}
