/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ToDocument encodes v (usually a pointer to a struct embedding Resource)
// using its json tags.
func ToDocument(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	doc, err := DecodeDocument(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("value of type %T does not encode to an object", v)
	}
	return doc, nil
}

// DecodeDocument parses a JSON object. Integral numbers become int64 and the
// rest float64, so integers beyond 2^53 survive.
func DecodeDocument(b []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	for k, v := range doc {
		doc[k] = NormalizeNumbers(v)
	}
	return doc, nil
}

// number is satisfied by json.Number and the DynamoDB attributevalue.Number.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// NormalizeNumbers replaces decoder number values, including those nested in
// maps and slices, with int64 or float64.
func NormalizeNumbers(v any) any {
	switch t := v.(type) {
	case number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return v
	case map[string]any:
		for k, e := range t {
			t[k] = NormalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = NormalizeNumbers(e)
		}
		return t
	}
	return v
}

// FromDocument decodes doc into out, which must be a pointer. Fields are matched by
// json tag and embedded structs are flattened, mirroring ToDocument.
func FromDocument(doc Document, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Squash:  true,
		Result:  out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder for %T: %w", out, err)
	}
	if err := dec.Decode(map[string]any(doc)); err != nil {
		return fmt.Errorf("failed to decode document into %T: %w", out, err)
	}
	return nil
}
