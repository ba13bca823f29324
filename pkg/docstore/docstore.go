// Package docstore is the narrow document persistence surface the hotel
// core talks to: point lookups and merge writes keyed by collection and
// document key. Backends live in the gormstore and mongostore
// subpackages; Memory is used by tests and local runs.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrNotFound is returned by Get when the document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a JSON-shaped document. Nested objects are Documents or
// map[string]any; numbers may arrive as float64, json.Number or any
// integer width depending on the backend, see Int.
type Document map[string]any

// Snapshot is one document returned from List.
type Snapshot struct {
	Key  string
	Data Document
}

// Store is implemented by every backend. Single-document operations are
// atomic; nothing spans documents.
type Store interface {
	Get(ctx context.Context, collection, key string) (Document, error)
	// Set deep-merges fields into the document, creating it when absent.
	Set(ctx context.Context, collection, key string, fields Document) error
	// Replace overwrites the whole document.
	Replace(ctx context.Context, collection, key string, doc Document) error
	// Delete removes the document; deleting a missing document is not an error.
	Delete(ctx context.Context, collection, key string) error
	List(ctx context.Context, collection string) ([]Snapshot, error)
	Ping(ctx context.Context) error
}

// Merge deep-merges src into dst and returns dst. Nested maps merge key by
// key; every other value in src replaces the one in dst.
func Merge(dst, src Document) Document {
	if dst == nil {
		dst = Document{}
	}
	for key, value := range src {
		srcMap, srcIsMap := asMap(value)
		dstMap, dstIsMap := asMap(dst[key])
		if srcIsMap && dstIsMap {
			dst[key] = map[string]any(Merge(Document(dstMap), Document(srcMap)))
			continue
		}
		if srcIsMap {
			dst[key] = map[string]any(Merge(Document{}, Document(srcMap)))
			continue
		}
		dst[key] = value
	}
	return dst
}

// Clone returns a deep copy so callers cannot mutate stored state.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	return Merge(Document{}, doc)
}

// Map returns the nested object stored under key, or nil.
func (d Document) Map(key string) map[string]any {
	m, _ := asMap(d[key])
	return m
}

func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Document:
		return map[string]any(v), true
	default:
		return nil, false
	}
}

// Int normalizes numeric document values to int. Fractional floats are
// rejected.
func Int(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case float32:
		return Int(float64(v))
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Bool normalizes boolean document values.
func Bool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	default:
		return false, false
	}
}

// Encode converts a JSON-tagged struct into a Document.
func Encode(v any) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode fills a JSON-tagged struct from a Document.
func Decode(doc Document, dst any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
