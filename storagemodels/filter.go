/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Predicate is a compiled boolean expression over document fields, e.g.
//
//	Status == 1 && _ts >= 1700000000
//
// Fields missing from a document evaluate to nil.
type Predicate struct {
	source  string
	program *vm.Program
}

// CompilePredicate ANDs the non-empty expressions together and compiles the
// result. It returns nil when every expression is empty.
func CompilePredicate(expressions ...string) (*Predicate, error) {
	parts := make([]string, 0, len(expressions))
	for _, e := range expressions {
		if e = strings.TrimSpace(e); e != "" {
			parts = append(parts, "("+e+")")
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	source := strings.Join(parts, " && ")
	program, err := expr.Compile(source, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", source, err)
	}
	return &Predicate{source: source, program: program}, nil
}

// Match evaluates the predicate against doc.
func (p *Predicate) Match(doc Document) (bool, error) {
	if p == nil {
		return true, nil
	}
	out, err := expr.Run(p.program, map[string]any(doc))
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", p.source, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", p.source, out)
	}
	return matched, nil
}

func (p *Predicate) String() string {
	if p == nil {
		return "true"
	}
	return p.source
}

// Lookup returns the value at a dotted field path, or nil.
func Lookup(doc Document, path string) any {
	var cur any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

// SortDocuments orders docs by the value at field. The sort is stable and
// places missing values first in ascending order.
func SortDocuments(docs []Document, field string, descending bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := CompareValues(Lookup(docs[i], field), Lookup(docs[j], field))
		if descending {
			return c > 0
		}
		return c < 0
	})
}

// CompareValues orders JSON-compatible values: nil < bool < number < string,
// each compared naturally within its kind.
func CompareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case string:
		return strings.Compare(av, b.(string))
	case time.Time:
		return av.Compare(b.(time.Time))
	}
	if fa, ok := toFloat(a); ok {
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	}
	return 0
}

func valueRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case string:
		return 3
	case time.Time:
		return 4
	}
	if _, ok := toFloat(v); ok {
		return 2
	}
	return 5
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
