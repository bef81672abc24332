// Package cmsclient talks to the content API: it builds bracket-notation query
// strings, fetches JSON and flattens both response envelope versions into
// plain records.
package cmsclient

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// Param is one option of a query. Value may be nil (omitted), a scalar, a
// slice, a nested Params or a map[string]any.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered option bag; keys are encoded in insertion order.
type Params []Param

// With returns p with key appended.
func (p Params) With(key string, value any) Params {
	return append(p, Param{Key: key, Value: value})
}

// Pair is one encoded key=value occurrence.
type Pair struct {
	Key   string
	Value string
}

// Query is an ordered list of pairs; repeated keys are allowed.
type Query []Pair

// Encode renders the query string without the leading "?".
func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Get returns every value stored under key.
func (q Query) Get(key string) []string {
	var out []string
	for _, p := range q {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

// BuildQuery flattens params into bracket notation, e.g.
// {filters: {slug: {$eq: "x"}}} becomes filters[slug][$eq]=x. prefix is the
// key the params are nested under, empty at top level.
func BuildQuery(params Params, prefix string) Query {
	var q Query
	for _, p := range params {
		q = appendValue(q, joinKey(prefix, p.Key), p.Value)
	}
	return q
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "[" + key + "]"
}

func appendValue(q Query, key string, value any) Query {
	switch v := value.(type) {
	case nil:
		return q
	case Params:
		return append(q, BuildQuery(v, key)...)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			q = appendValue(q, joinKey(key, k), v[k])
		}
		return q
	case string:
		return append(q, Pair{Key: key, Value: v})
	case []byte:
		return append(q, Pair{Key: key, Value: string(v)})
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		// one occurrence per element under the same key
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			if elem == nil {
				continue
			}
			q = append(q, Pair{Key: key, Value: fmt.Sprint(elem)})
		}
		return q
	case reflect.Pointer:
		if rv.IsNil() {
			return q
		}
		return appendValue(q, key, rv.Elem().Interface())
	}
	return append(q, Pair{Key: key, Value: fmt.Sprint(value)})
}
