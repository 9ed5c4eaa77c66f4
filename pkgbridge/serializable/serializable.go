package serializable

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the loosely-typed form a settings object is persisted as.
// Only fields that differ from their default are present.
type Document map[string]any

// Component is implemented by every persisted settings object.
type Component[T any] interface {
	// Copy returns an independent duplicate that shares no backing storage.
	Copy() T
	// LoadFromJSON replaces every recognized field with the value in doc, or with the
	// field default when the key is missing or malformed. Unknown keys are ignored.
	LoadFromJSON(doc Document)
	// AsDocument emits only the fields that differ from their default.
	AsDocument() Document
}

// Load builds a fresh component with newFn and hydrates it from doc.
func Load[T Component[T]](doc Document, newFn func() T) T {
	c := newFn()
	c.LoadFromJSON(doc)
	return c
}

type documenter interface {
	AsDocument() Document
}

// Marshal encodes the sparse document of c.
func Marshal(c documenter) ([]byte, error) {
	return json.Marshal(c.AsDocument())
}

// Unmarshal decodes a persisted document. Blank input decodes to an empty document.
func Unmarshal(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Document{}, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding settings document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func readBool(doc Document, key string, def bool) bool {
	v, ok := doc[key].(bool)
	if !ok {
		return def
	}
	return v
}

func readString(doc Document, key string, def string) string {
	v, ok := doc[key].(string)
	if !ok {
		return def
	}
	return v
}

// readStringList accepts []string (documents built in memory) and []any holding only
// strings (documents decoded from JSON). Anything else yields nil.
func readStringList(doc Document, key string) []string {
	switch v := doc[key].(type) {
	case []string:
		return copyStrings(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return copyStrings(out)
	default:
		return nil
	}
}

func putBool(doc Document, key string, v, def bool) {
	if v != def {
		doc[key] = v
	}
}

func putString(doc Document, key string, v, def string) {
	if v != def {
		doc[key] = v
	}
}

func putStringList(doc Document, key string, v []string) {
	if len(v) > 0 {
		doc[key] = copyStrings(v)
	}
}

func copyStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}
