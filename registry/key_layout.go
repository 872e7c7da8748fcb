/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
	"sync"
)

// Key attribute names and the macros they may reference.
const (
	PartitionKey = "PK"
	SortKey      = "SK"

	MacroCollection = "collectionLink"
	MacroID         = "id"
)

// KeyLayout maps item attribute names to templates. Macros in braces are
// replaced with document fields when an item is written, for example
//
//	registry.KeyLayout{
//	    "PK":     "{collectionLink}",
//	    "SK":     "MEMBER#{id}",
//	    "GSI1PK": "EMAIL#{Email}",
//	}
//
// PK may only reference {collectionLink} so that a whole collection can be
// read from one partition. SK must reference {id} and nothing but
// {collectionLink} besides, so that a document link alone locates the item.
type KeyLayout map[string]string

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// DefaultKeyLayout is used for collections without a registered layout.
var DefaultKeyLayout = KeyLayout{
	PartitionKey: "{" + MacroCollection + "}",
	SortKey:      "{" + MacroID + "}",
}

var (
	layouts = make(map[string]KeyLayout)
	mu      sync.RWMutex
)

// RegisterKeyLayout associates a collection link with a key layout.
func RegisterKeyLayout(collectionLink string, layout KeyLayout) error {
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("key layout for %s: %w", collectionLink, err)
	}

	mu.Lock()
	defer mu.Unlock()
	layouts[collectionLink] = maps.Clone(layout)
	return nil
}

// GetKeyLayout returns the layout registered for a collection, if any.
func GetKeyLayout(collectionLink string) (KeyLayout, bool) {
	mu.RLock()
	defer mu.RUnlock()
	l, ok := layouts[collectionLink]
	return l, ok
}

// KeyLayoutFor returns the registered layout for a collection or DefaultKeyLayout.
func KeyLayoutFor(collectionLink string) KeyLayout {
	if l, ok := GetKeyLayout(collectionLink); ok {
		return l
	}
	return DefaultKeyLayout
}

// UnregisterKeyLayout removes the layout of a collection.
func UnregisterKeyLayout(collectionLink string) {
	mu.Lock()
	defer mu.Unlock()
	delete(layouts, collectionLink)
}

// Validate checks the PK and SK templates.
func (l KeyLayout) Validate() error {
	pk, ok := l[PartitionKey]
	if !ok || pk == "" {
		return fmt.Errorf("missing %s template", PartitionKey)
	}
	for _, m := range Macros(pk) {
		if m != MacroCollection {
			return fmt.Errorf("%s template may only reference {%s}, found {%s}", PartitionKey, MacroCollection, m)
		}
	}

	sk, ok := l[SortKey]
	if !ok || sk == "" {
		return fmt.Errorf("missing %s template", SortKey)
	}
	hasID := false
	for _, m := range Macros(sk) {
		switch m {
		case MacroID:
			hasID = true
		case MacroCollection:
		default:
			return fmt.Errorf("%s template may only reference {%s} and {%s}, found {%s}", SortKey, MacroID, MacroCollection, m)
		}
	}
	if !hasID {
		return fmt.Errorf("%s template must reference {%s}", SortKey, MacroID)
	}
	return nil
}

// Attributes returns the names of the attributes the layout writes.
func (l KeyLayout) Attributes() []string {
	names := make([]string, 0, len(l))
	for k := range l {
		names = append(names, k)
	}
	return names
}

// Macros returns the macro names referenced by a template.
func Macros(template string) []string {
	var out []string
	for _, m := range macroPattern.FindAllStringSubmatch(template, -1) {
		out = append(out, m[1])
	}
	return out
}

// Expand replaces each macro in template with lookup(name). Macros the lookup
// cannot resolve expand to the empty string.
func Expand(template string, lookup func(name string) (string, bool)) string {
	return macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
		v, ok := lookup(strings.Trim(macro, "{}"))
		if !ok {
			return ""
		}
		return v
	})
}
