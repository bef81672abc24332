package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rambosorn/khadimy/internal/content"
	"github.com/rambosorn/khadimy/internal/metadata"
)

const (
	DefaultPageSize  = 25
	MaxPageSize      = 100
	maxPopulateDepth = 2
)

// QueryArg is one key=value pair of the query string, in request order.
type QueryArg struct {
	Key   string
	Value string
}

// QueryPlan is the parsed form of a content API query string.
type QueryPlan struct {
	Type       *metadata.ContentType
	Where      content.Where
	Sorts      []content.Sort
	Page       int
	PageSize   int
	Start      int
	Limit      int
	OffsetMode bool // start/limit instead of page/pageSize
	Populate   *Populate
	Fields     []string // selected attributes; empty selects all
	Drafts     bool     // status=draft / publicationState=preview
}

// Populate is the tree of media and relation fields to resolve.
type Populate struct {
	All    bool
	Fields map[string]*Populate
}

// Has reports whether field should be resolved.
func (p *Populate) Has(field string) bool {
	if p == nil {
		return false
	}
	if p.All {
		return true
	}
	_, ok := p.Fields[field]
	return ok
}

// Child returns the nested selection for field, or nil.
func (p *Populate) Child(field string) *Populate {
	if p == nil || p.Fields == nil {
		return nil
	}
	return p.Fields[field]
}

func (p *Populate) add(path []string) *Populate {
	if p.Fields == nil {
		p.Fields = make(map[string]*Populate)
	}
	child, ok := p.Fields[path[0]]
	if !ok || child == nil {
		child = &Populate{}
		p.Fields[path[0]] = child
	}
	if len(path) > 1 {
		child.add(path[1:])
	}
	return child
}

// Plan converts the query plan into a repository plan.
func (q *QueryPlan) Plan(publishedOnly bool) content.Plan {
	plan := content.Plan{
		Where:         q.Where,
		Sorts:         q.Sorts,
		PublishedOnly: publishedOnly,
	}
	if q.OffsetMode {
		plan.Offset = q.Start
		plan.Limit = q.Limit
	} else {
		plan.Offset = (q.Page - 1) * q.PageSize
		plan.Limit = q.PageSize
	}
	return plan
}

// Meta returns the pagination block of the response meta.
func (q *QueryPlan) Meta(total int) fiber.Map {
	if q.OffsetMode {
		return fiber.Map{"start": q.Start, "limit": q.Limit, "total": total}
	}
	pageCount := 0
	if q.PageSize > 0 {
		pageCount = (total + q.PageSize - 1) / q.PageSize
	}
	return fiber.Map{"page": q.Page, "pageSize": q.PageSize, "pageCount": pageCount, "total": total}
}

// QueryArgs returns the request's query pairs in order, repeated keys included.
func QueryArgs(c *fiber.Ctx) []QueryArg {
	var args []QueryArg
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		args = append(args, QueryArg{Key: string(key), Value: string(value)})
	})
	return args
}

// ParseQuery parses Strapi-style query parameters for content type ct.
func ParseQuery(args []QueryArg, ct *metadata.ContentType, reg *metadata.Registry) (*QueryPlan, error) {
	plan := &QueryPlan{
		Type:     ct,
		Page:     1,
		PageSize: DefaultPageSize,
	}

	type filterKey struct{ field, op string }
	var filterOrder []filterKey
	filterValues := make(map[filterKey][]string)

	for _, arg := range args {
		segs := splitKey(arg.Key)
		switch segs[0] {
		case "filters":
			field, op, err := parseFilterPath(segs)
			if err != nil {
				return nil, err
			}
			k := filterKey{field, op}
			if _, seen := filterValues[k]; !seen {
				filterOrder = append(filterOrder, k)
			}
			filterValues[k] = append(filterValues[k], arg.Value)

		case "sort":
			for _, part := range strings.Split(arg.Value, ",") {
				if part = strings.TrimSpace(part); part == "" {
					continue
				}
				s, err := parseSort(part, ct)
				if err != nil {
					return nil, err
				}
				plan.Sorts = append(plan.Sorts, s)
			}

		case "pagination":
			if len(segs) != 2 {
				return nil, BadRequestError(fmt.Sprintf("Invalid pagination parameter: %s", arg.Key))
			}
			if err := plan.setPagination(segs[1], arg.Value); err != nil {
				return nil, err
			}

		case "populate":
			if err := plan.addPopulate(segs[1:], arg.Value); err != nil {
				return nil, err
			}

		case "fields":
			for _, name := range strings.Split(arg.Value, ",") {
				if name = strings.TrimSpace(name); name == "" {
					continue
				}
				if _, ok := ct.Column(name); !ok {
					return nil, BadRequestError(fmt.Sprintf("Invalid key %s", name))
				}
				plan.Fields = append(plan.Fields, name)
			}

		case "status":
			plan.Drafts = arg.Value == "draft"
		case "publicationState":
			plan.Drafts = arg.Value == "preview"
		}
	}

	for _, k := range filterOrder {
		f, err := buildFilter(ct, k.field, k.op, filterValues[k])
		if err != nil {
			return nil, err
		}
		plan.Where = append(plan.Where, f)
	}

	if plan.Populate != nil {
		if err := validatePopulate(plan.Populate, ct, reg, 1); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// SelectFields drops attributes outside the fields selection. id, documentId
// and populated fields are always kept.
func (q *QueryPlan) SelectFields(records []content.Record) {
	if len(q.Fields) == 0 {
		return
	}
	keep := map[string]bool{"id": true, "documentId": true}
	for _, f := range q.Fields {
		keep[f] = true
	}
	for _, rec := range records {
		for k := range rec {
			if !keep[k] && !q.Populate.Has(k) {
				delete(rec, k)
			}
		}
	}
}

// splitKey turns "filters[date][$gte]" into ["filters", "date", "$gte"].
func splitKey(key string) []string {
	i := strings.IndexByte(key, '[')
	if i < 0 {
		return []string{key}
	}
	segs := []string{key[:i]}
	rest := key[i:]
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}
	return segs
}

func parseFilterPath(segs []string) (string, string, error) {
	if len(segs) < 2 || segs[1] == "" {
		return "", "", BadRequestError("Invalid filters parameter")
	}
	field := segs[1]
	if strings.HasPrefix(field, "$") {
		return "", "", BadRequestError(fmt.Sprintf("Logical operator %s is not supported", field))
	}
	if len(segs) == 2 {
		return field, "$eq", nil
	}
	op := segs[2]
	if !strings.HasPrefix(op, "$") {
		return "", "", BadRequestError(fmt.Sprintf("Nested filters on %s are not supported", field))
	}
	// filters[f][$in][0]=a form; deeper segments are array indexes.
	for _, s := range segs[3:] {
		if _, err := strconv.Atoi(s); err != nil {
			return "", "", BadRequestError(fmt.Sprintf("Invalid filters parameter on %s", field))
		}
	}
	return field, op, nil
}

func buildFilter(ct *metadata.ContentType, field, rawOp string, values []string) (content.Filter, error) {
	if _, ok := ct.Column(field); !ok {
		return content.Filter{}, BadRequestError(fmt.Sprintf("Invalid key %s", field))
	}
	op := content.Op(strings.TrimPrefix(rawOp, "$"))
	if !content.ValidOp(op) {
		return content.Filter{}, BadRequestError(fmt.Sprintf("Invalid operator %s", rawOp))
	}

	switch op {
	case content.OpNull, content.OpNotNull:
		// $null=false means IS NOT NULL and $notNull=false means IS NULL.
		truthy := len(values) == 0 || values[len(values)-1] != "false"
		if (op == content.OpNull) == truthy {
			return content.Filter{Field: field, Op: content.OpNull}, nil
		}
		return content.Filter{Field: field, Op: content.OpNotNull}, nil
	case content.OpIn, content.OpNotIn:
		items := make([]any, 0, len(values))
		for _, v := range values {
			coerced, err := coerceValue(ct, field, v)
			if err != nil {
				return content.Filter{}, err
			}
			items = append(items, coerced)
		}
		return content.Filter{Field: field, Op: op, Value: items}, nil
	case content.OpContains, content.OpContainsi, content.OpStartsWith, content.OpEndsWith:
		return content.Filter{Field: field, Op: op, Value: values[len(values)-1]}, nil
	}

	v, err := coerceValue(ct, field, values[len(values)-1])
	if err != nil {
		return content.Filter{}, err
	}
	return content.Filter{Field: field, Op: op, Value: v}, nil
}

// coerceValue converts a query string value to the field's Go type.
func coerceValue(ct *metadata.ContentType, field, val string) (any, error) {
	if field == "id" {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, BadRequestError(fmt.Sprintf("Invalid value for id: %s", val))
		}
		return n, nil
	}
	f := ct.GetField(field)
	if f == nil {
		return val, nil
	}
	switch f.Type {
	case metadata.TypeInteger, metadata.TypeRelation:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, BadRequestError(fmt.Sprintf("Invalid value for %s: %s", field, val))
		}
		return n, nil
	case metadata.TypeBoolean:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, BadRequestError(fmt.Sprintf("Invalid value for %s: %s", field, val))
		}
		return b, nil
	case metadata.TypeJSON, metadata.TypeMedia:
		return nil, BadRequestError(fmt.Sprintf("Cannot filter on %s", field))
	}
	return val, nil
}

func parseSort(part string, ct *metadata.ContentType) (content.Sort, error) {
	field, dir, _ := strings.Cut(part, ":")
	if _, ok := ct.Column(field); !ok {
		return content.Sort{}, BadRequestError(fmt.Sprintf("Invalid key %s", field))
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return content.Sort{Field: field}, nil
	case "desc":
		return content.Sort{Field: field, Desc: true}, nil
	}
	return content.Sort{}, BadRequestError(fmt.Sprintf("Invalid sort direction %s", dir))
}

func (q *QueryPlan) setPagination(key, val string) error {
	n, err := strconv.Atoi(val)
	if err != nil {
		if key == "withCount" {
			return nil
		}
		return BadRequestError(fmt.Sprintf("Invalid pagination value for %s: %s", key, val))
	}
	switch key {
	case "page":
		if n < 1 {
			return BadRequestError("pagination[page] must be a positive integer")
		}
		q.Page = n
	case "pageSize":
		if n < 1 {
			return BadRequestError("pagination[pageSize] must be a positive integer")
		}
		q.PageSize = min(n, MaxPageSize)
	case "start":
		if n < 0 {
			return BadRequestError("pagination[start] must be zero or more")
		}
		q.OffsetMode = true
		q.Start = n
		if q.Limit == 0 {
			q.Limit = DefaultPageSize
		}
	case "limit":
		q.OffsetMode = true
		if n < 1 {
			n = MaxPageSize
		}
		q.Limit = min(n, MaxPageSize)
	case "withCount":
	default:
		return BadRequestError(fmt.Sprintf("Invalid pagination parameter: %s", key))
	}
	return nil
}

// addPopulate folds one populate parameter into the tree. segs are the
// bracket segments after "populate".
func (q *QueryPlan) addPopulate(segs []string, val string) error {
	if q.Populate == nil {
		q.Populate = &Populate{}
	}
	root := q.Populate

	// populate=*, populate=a,b, populate=a.b, populate[0]=a
	if len(segs) == 0 || isIndex(segs[0]) {
		if val == "*" || val == "true" {
			root.All = true
			return nil
		}
		for _, name := range strings.Split(val, ",") {
			if name = strings.TrimSpace(name); name != "" {
				root.add(strings.Split(name, "."))
			}
		}
		return nil
	}

	// populate[a]=true, populate[a][populate]=b, populate[a][populate][0]=b,
	// populate[a][populate][b]=true
	node := root.add([]string{segs[0]})
	rest := segs[1:]
	for len(rest) > 0 {
		if rest[0] != "populate" && rest[0] != "fields" {
			return BadRequestError(fmt.Sprintf("Invalid populate parameter: populate[%s]", strings.Join(segs, "][")))
		}
		if rest[0] == "fields" {
			return nil
		}
		rest = rest[1:]
		if len(rest) == 0 || isIndex(rest[0]) {
			if val == "*" || val == "true" {
				node.All = true
				return nil
			}
			for _, name := range strings.Split(val, ",") {
				if name = strings.TrimSpace(name); name != "" {
					node.add(strings.Split(name, "."))
				}
			}
			return nil
		}
		node = node.add([]string{rest[0]})
		rest = rest[1:]
	}
	return nil
}

func isIndex(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// validatePopulate checks every named field exists and is populatable.
func validatePopulate(p *Populate, ct *metadata.ContentType, reg *metadata.Registry, depth int) error {
	if depth > maxPopulateDepth && (p.All || len(p.Fields) > 0) {
		return BadRequestError("populate is limited to one nested level")
	}
	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := ct.GetField(name)
		if f == nil || !f.IsPopulatable() {
			return BadRequestError(fmt.Sprintf("Invalid populate field %s", name))
		}
		child := p.Fields[name]
		if child == nil || (!child.All && len(child.Fields) == 0) {
			continue
		}
		if f.Type != metadata.TypeRelation {
			return BadRequestError(fmt.Sprintf("Cannot populate inside media field %s", name))
		}
		target := reg.Get(f.Target)
		if target == nil {
			return BadRequestError(fmt.Sprintf("Invalid populate field %s", name))
		}
		if err := validatePopulate(child, target, reg, depth+1); err != nil {
			return err
		}
	}
	return nil
}
