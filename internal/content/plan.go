package content

// Op is a filter operator, named after the Strapi operator without the "$".
type Op string

const (
	OpEq         Op = "eq"
	OpNe         Op = "ne"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpIn         Op = "in"
	OpNotIn      Op = "notIn"
	OpContains   Op = "contains"
	OpContainsi  Op = "containsi"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
	OpNull       Op = "null"
	OpNotNull    Op = "notNull"
)

var knownOps = map[Op]bool{
	OpEq: true, OpNe: true, OpLt: true, OpLte: true, OpGt: true, OpGte: true,
	OpIn: true, OpNotIn: true, OpContains: true, OpContainsi: true,
	OpStartsWith: true, OpEndsWith: true, OpNull: true, OpNotNull: true,
}

// ValidOp reports whether op is supported.
func ValidOp(op Op) bool {
	return knownOps[op]
}

// Filter restricts rows on one attribute. Field is the API attribute name.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where is a conjunction of filters.
type Where []Filter

type Sort struct {
	Field string
	Desc  bool
}

// Plan describes one list query.
type Plan struct {
	Where         Where
	Sorts         []Sort
	Offset        int
	Limit         int // <= 0 means no limit
	PublishedOnly bool
}

// Conditions returns the filters the plan applies, including the published
// constraint.
func (p Plan) Conditions() Where {
	w := append(Where{}, p.Where...)
	if p.PublishedOnly {
		w = append(w, Filter{Field: "publishedAt", Op: OpNotNull})
	}
	return w
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}
