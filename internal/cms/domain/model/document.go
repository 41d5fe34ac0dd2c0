package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Document is an open JSON record. Fields the service does not know about
// round-trip untouched.
type Document map[string]interface{}

// FieldID is the identity field of sequence records.
const FieldID = "id"

// FieldServices is normalized on projects.
const FieldServices = "services"

// ID returns the numeric id of the record, if it has one.
func (d Document) ID() (int64, bool) {
	return NumericID(d[FieldID])
}

// SetID stores id as a JSON number.
func (d Document) SetID(id int64) {
	d[FieldID] = id
}

// Clone returns a shallow copy.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge overlays fields onto a copy of d (shallow, last writer wins).
func (d Document) Merge(fields Document) Document {
	out := d.Clone()
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// NumericID converts a decoded JSON value to an integer id. Only numbers
// count; a string "12" does not match id 12.
func NumericID(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// ParseID parses an id taken from a request path.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// NormalizeServices turns a comma-joined services string into a list of
// trimmed, non-empty names. Lists are stored as given.
func NormalizeServices(d Document) {
	if v, ok := d[FieldServices].(string); ok {
		d[FieldServices] = SplitNames(v)
	}
}

// SplitNames splits on commas, trims, and drops empty parts.
func SplitNames(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StringList reads a field that may hold a list of strings or a comma-joined
// string.
func StringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return SplitNames(t)
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// DecodeDocuments decodes a stored sequence collection. An empty value is an
// empty sequence; any other shape is an error.
func DecodeDocuments(raw json.RawMessage) ([]Document, error) {
	if isBlank(raw) {
		return []Document{}, nil
	}
	var docs []Document
	if err := decodeNumbers(raw, &docs); err != nil {
		return nil, fmt.Errorf("stored value is not a list of records: %w", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// DecodeDocument decodes a stored mapping collection.
func DecodeDocument(raw json.RawMessage) (Document, error) {
	if isBlank(raw) {
		return Document{}, nil
	}
	var doc Document
	if err := decodeNumbers(raw, &doc); err != nil {
		return nil, fmt.Errorf("stored value is not an object: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// DecodeBody decodes a request body into a Document.
func DecodeBody(body []byte) (Document, error) {
	doc := Document{}
	if len(bytes.TrimSpace(body)) == 0 {
		return doc, nil
	}
	if err := decodeNumbers(body, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func decodeNumbers(raw []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func isBlank(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
