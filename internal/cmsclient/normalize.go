package cmsclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a body is not JSON or its data member
// is neither an entry, a list of entries nor null.
var ErrMalformedResponse = errors.New("malformed content response")

// Record is a flat entry: id merged with its fields.
type Record map[string]any

// String returns the string attribute or "".
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Bool returns the boolean attribute or false.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// ID returns the numeric id, or 0.
func (r Record) ID() int64 {
	switch v := r["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// Record returns the nested object under key, e.g. a populated relation.
func (r Record) Record(key string) Record {
	switch v := r[key].(type) {
	case Record:
		return v
	case map[string]any:
		return Record(v)
	}
	return nil
}

// Entry is one element of a response's data member. It is either the v4
// variant {id, attributes: {...}} or the flat v5 variant.
type Entry struct {
	ID         any
	Attributes map[string]any // set for the v4 variant only
	Fields     map[string]any // set for the flat variant only
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("%w: entry is null", ErrMalformedResponse)
	}
	if attrs, ok := raw["attributes"].(map[string]any); ok {
		e.ID = raw["id"]
		e.Attributes = attrs
		return nil
	}
	e.ID = raw["id"]
	e.Fields = raw
	return nil
}

// Flatten returns the entry as a flat record.
func (e Entry) Flatten() Record {
	if e.Attributes == nil {
		return Record(e.Fields)
	}
	rec := make(Record, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		rec[k] = v
	}
	rec["id"] = e.ID
	return rec
}

// Result is a normalized response: a list, or a single entry.
type Result struct {
	Records []Record
	Single  bool
}

// One returns the single entry, or the first element of a list.
func (r Result) One() (Record, bool) {
	if len(r.Records) == 0 {
		return nil, false
	}
	return r.Records[0], true
}

// Normalize flattens a response body. A missing or null data member yields an
// empty list, as does a bare JSON array. Bodies that are not JSON, and data
// that is neither an object nor an array, are ErrMalformedResponse.
func Normalize(body []byte) (Result, error) {
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed) {
		return Result{Records: []Record{}}, nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Result{Records: []Record{}}, nil
	}

	switch data[0] {
	case '[':
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		out := make([]Record, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Flatten())
		}
		return Result{Records: out}, nil
	case '{':
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return Result{Records: []Record{e.Flatten()}, Single: true}, nil
	}
	return Result{}, fmt.Errorf("%w: data is %s", ErrMalformedResponse, string(data[:1]))
}
