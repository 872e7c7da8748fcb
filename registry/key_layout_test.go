/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"testing"
)

func TestKeyLayoutValidate(t *testing.T) {
	tests := []struct {
		name    string
		layout  KeyLayout
		wantErr bool
	}{
		{"Default", DefaultKeyLayout, false},
		{"Prefixed", KeyLayout{"PK": "COLL#{collectionLink}", "SK": "MEMBER#{id}"}, false},
		{"WithIndex", KeyLayout{"PK": "{collectionLink}", "SK": "{id}", "GSI1PK": "EMAIL#{Email}"}, false},
		{"MissingPK", KeyLayout{"SK": "{id}"}, true},
		{"MissingSK", KeyLayout{"PK": "{collectionLink}"}, true},
		{"PKUsesField", KeyLayout{"PK": "{Email}", "SK": "{id}"}, true},
		{"SKWithoutID", KeyLayout{"PK": "{collectionLink}", "SK": "STATIC"}, true},
		{"SKUsesField", KeyLayout{"PK": "{collectionLink}", "SK": "{id}#{Email}"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterKeyLayout(t *testing.T) {
	coll := "dbs/db/colls/registry-test"
	t.Cleanup(func() { UnregisterKeyLayout(coll) })

	if _, ok := GetKeyLayout(coll); ok {
		t.Fatal("layout should not be registered yet")
	}
	if got := KeyLayoutFor(coll); got[SortKey] != DefaultKeyLayout[SortKey] {
		t.Errorf("Expected default layout, got %v", got)
	}

	if err := RegisterKeyLayout(coll, KeyLayout{"PK": "{collectionLink}"}); err == nil {
		t.Error("Expected invalid layout to be rejected")
	}

	layout := KeyLayout{"PK": "{collectionLink}", "SK": "MEMBER#{id}"}
	if err := RegisterKeyLayout(coll, layout); err != nil {
		t.Fatalf("RegisterKeyLayout failed: %v", err)
	}
	layout["SK"] = "changed"

	got, ok := GetKeyLayout(coll)
	if !ok {
		t.Fatal("layout not registered")
	}
	if got[SortKey] != "MEMBER#{id}" {
		t.Errorf("registered layout should be a copy, got %q", got[SortKey])
	}
}

func TestExpand(t *testing.T) {
	fields := map[string]string{"id": "42", "collectionLink": "dbs/db/colls/c"}
	lookup := func(name string) (string, bool) {
		v, ok := fields[name]
		return v, ok
	}

	if got := Expand("{collectionLink}#{id}", lookup); got != "dbs/db/colls/c#42" {
		t.Errorf("unexpected expansion %q", got)
	}
	if got := Expand("EMAIL#{Email}", lookup); got != "EMAIL#" {
		t.Errorf("unknown macros should expand to empty, got %q", got)
	}
	if got := Macros("A#{x}#{y}"); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("unexpected macros %v", got)
	}
}
