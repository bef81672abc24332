package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/store"
)

// TimeLayout is the wire format for timestamps, e.g. 2026-01-05T10:00:00.000Z.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

const dateLayout = "2006-01-02"

// Record is one entry keyed by API attribute name.
type Record map[string]any

// ID returns the numeric id of the record.
func (r Record) ID() int64 {
	id, _ := store.ToInt64(r["id"])
	return id
}

// DocumentID returns the document id of the record.
func (r Record) DocumentID() string {
	s, _ := r["documentId"].(string)
	return s
}

// String returns the attribute as a string, or "".
func (r Record) String(attr string) string {
	s, _ := r[attr].(string)
	return s
}

// Published reports whether publishedAt is set.
func (r Record) Published() bool {
	return r["publishedAt"] != nil
}

// codec converts between API values and column values for one content type.
type codec struct {
	ct      *metadata.ContentType
	dialect store.Dialect
}

// encode converts an attribute value for binding. attr must resolve to a column.
func (c codec) encode(attr string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch attr {
	case "publishedAt", "createdAt", "updatedAt":
		t, err := toTime(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr, err)
		}
		return c.dialect.TimeParam(t), nil
	case "locale", "documentId":
		return fmt.Sprint(v), nil
	case "id":
		id, ok := store.ToInt64(v)
		if !ok {
			return nil, fmt.Errorf("id: invalid value %v", v)
		}
		return id, nil
	}

	f := c.ct.GetField(attr)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, attr)
	}

	switch f.Type {
	case metadata.TypeJSON, metadata.TypeMedia:
		if s, ok := v.(string); ok && json.Valid([]byte(s)) && (strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")) {
			return c.dialect.JSONParam([]byte(s)), nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr, err)
		}
		return c.dialect.JSONParam(raw), nil
	case metadata.TypeDateTime:
		t, err := toTime(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr, err)
		}
		return c.dialect.TimeParam(t), nil
	case metadata.TypeDate:
		t, err := toTime(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr, err)
		}
		return c.dialect.DateParam(t), nil
	case metadata.TypeInteger, metadata.TypeRelation:
		if m, ok := v.(map[string]any); ok {
			v = m["id"]
		}
		n, ok := store.ToInt64(v)
		if !ok {
			return nil, fmt.Errorf("%s: expected an integer, got %v", attr, v)
		}
		return n, nil
	case metadata.TypeBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return b == "true" || b == "1", nil
		}
		n, ok := store.ToInt64(v)
		if !ok {
			return nil, fmt.Errorf("%s: expected a boolean, got %v", attr, v)
		}
		return n != 0, nil
	default:
		return fmt.Sprint(v), nil
	}
}

// decode converts one scanned row into a Record.
func (c codec) decode(row map[string]any) Record {
	rec := make(Record, len(row))
	for col, v := range row {
		attr := c.ct.Attribute(col)
		switch col {
		case "id":
			id, _ := store.ToInt64(v)
			rec[attr] = id
			continue
		case "created_at", "updated_at", "published_at":
			rec[attr] = formatTime(v)
			continue
		}

		f := c.ct.GetField(col)
		if f == nil {
			rec[attr] = v
			continue
		}
		rec[attr] = c.decodeField(f, v)
	}
	return rec
}

func (c codec) decodeField(f *metadata.Field, v any) any {
	if v == nil {
		return nil
	}
	switch f.Type {
	case metadata.TypeJSON, metadata.TypeMedia:
		s, ok := v.(string)
		if !ok {
			return v
		}
		var out any
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return s
		}
		return out
	case metadata.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b
		}
		n, _ := store.ToInt64(v)
		return n != 0
	case metadata.TypeInteger, metadata.TypeRelation:
		n, _ := store.ToInt64(v)
		return n
	case metadata.TypeDate:
		if t, ok := store.ParseTime(v); ok {
			return t.Format(dateLayout)
		}
		return v
	case metadata.TypeDateTime:
		return formatTime(v)
	default:
		return v
	}
}

func formatTime(v any) any {
	if v == nil {
		return nil
	}
	if t, ok := store.ParseTime(v); ok {
		return t.Format(TimeLayout)
	}
	return v
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		if parsed, ok := store.ParseTime(t); ok {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %v", v)
}
