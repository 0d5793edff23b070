// Package normalize converts entity documents between the two identity and
// date representations the backends speak. The canonical form keys an
// entity by its external key under "id" and keeps the numeric backend id,
// when there is one, under "_apiId"; submissions move them back.
package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dealgrid/dealgrid/internal/wire"
)

const (
	idField    = "id"
	keyField   = "key"
	apiIDField = "_apiId"
)

// Entity rewrites a fetched document into canonical form: the external
// key becomes "id", the original numeric id moves to "_apiId". Documents
// without an external key keep their raw id. Nil passes through.
func Entity(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	key, _ := doc[keyField].(string)
	if key == "" {
		return doc
	}
	if n, ok := numericID(doc[idField]); ok {
		doc[apiIDField] = n
	}
	doc[idField] = key
	delete(doc, keyField)
	return doc
}

// Denormalize prepares a canonical document for submission. A stashed
// numeric id becomes the primary "id" again and the canonical id moves
// back to "key"; without one the canonical id is submitted as the key
// alone. Entity(Denormalize(doc)) restores the canonical id.
func Denormalize(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	canonical, _ := doc[idField].(string)
	if n, ok := numericID(doc[apiIDField]); ok {
		doc[idField] = n
		if canonical != "" {
			doc[keyField] = canonical
		}
		delete(doc, apiIDField)
		return doc
	}
	if canonical != "" {
		doc[keyField] = canonical
		delete(doc, idField)
	}
	return doc
}

// numericID extracts an integral id from the JSON decodings it can arrive
// as. Strings and UUID-shaped ids are not numeric.
func numericID(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Dates converts every named field present in doc into a time.Time using
// the wire timestamp decoder. Absent, null and falsy values stay
// untouched; an unrecognized shape is reported, not skipped.
func Dates(doc map[string]any, fields ...string) error {
	if doc == nil {
		return nil
	}
	for _, f := range fields {
		v, ok := doc[f]
		if !ok || isFalsy(v) {
			continue
		}
		t, err := wire.ParseTimestamp(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", f, err)
		}
		doc[f] = t
	}
	return nil
}

// SerializeDates formats time values in the named fields as RFC 3339 UTC
// strings for submission. Fields already serialized, absent or falsy pass
// through unchanged.
func SerializeDates(doc map[string]any, fields ...string) {
	if doc == nil {
		return
	}
	for _, f := range fields {
		switch t := doc[f].(type) {
		case time.Time:
			doc[f] = t.UTC().Format(time.RFC3339Nano)
		case *time.Time:
			if t != nil {
				doc[f] = t.UTC().Format(time.RFC3339Nano)
			}
		case wire.FlexTime:
			if !t.IsZero() {
				doc[f] = t.UTC().Format(time.RFC3339Nano)
			}
		}
	}
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case json.Number:
		return t.String() == "0"
	case bool:
		return !t
	default:
		return false
	}
}
