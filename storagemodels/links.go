/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"net/url"
	"strings"
)

// CollectionLink returns the address of a collection within a database.
func CollectionLink(databaseID, collectionID string) string {
	return "dbs/" + url.PathEscape(databaseID) + "/colls/" + url.PathEscape(collectionID)
}

// DocumentLink returns the location handle of a document in a collection.
func DocumentLink(collectionLink, id string) string {
	return collectionLink + "/docs/" + url.PathEscape(id)
}

// ParseDocumentLink splits a location handle into its collection link and document id.
func ParseDocumentLink(link string) (collectionLink, id string, err error) {
	idx := strings.LastIndex(link, "/docs/")
	if idx <= 0 {
		return "", "", fmt.Errorf("malformed document link %q", link)
	}
	collectionLink = link[:idx]
	if !strings.HasPrefix(collectionLink, "dbs/") || !strings.Contains(collectionLink, "/colls/") {
		return "", "", fmt.Errorf("malformed document link %q", link)
	}
	id, err = url.PathUnescape(link[idx+len("/docs/"):])
	if err != nil {
		return "", "", fmt.Errorf("malformed document id in %q: %w", link, err)
	}
	if id == "" {
		return "", "", fmt.Errorf("empty document id in %q", link)
	}
	return collectionLink, id, nil
}
