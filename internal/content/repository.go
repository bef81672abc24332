package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/rambosorn/khadimy/internal/metadata"
	"github.com/rambosorn/khadimy/internal/store"
)

var ErrUnknownField = errors.New("unknown field")

// Repository reads and writes the entries of one content type.
type Repository struct {
	store *store.Store
	ct    *metadata.ContentType
	codec codec
	now   func() time.Time
}

// NewRepository creates a repository for ct backed by s.
func NewRepository(s *store.Store, ct *metadata.ContentType) *Repository {
	return &Repository{
		store: s,
		ct:    ct,
		codec: codec{ct: ct, dialect: s.Dialect},
		now:   time.Now,
	}
}

// WithClock returns a copy of the repository that timestamps with now.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	cp := *r
	cp.now = now
	return &cp
}

// ContentType returns the type served by the repository.
func (r *Repository) ContentType() *metadata.ContentType {
	return r.ct
}

func (r *Repository) flavor() sqlbuilder.Flavor {
	return r.store.Dialect.Flavor()
}

// FindOne returns the first entry matching where, or store.ErrNotFound.
func (r *Repository) FindOne(ctx context.Context, where Where) (Record, error) {
	records, err := r.List(ctx, Plan{Where: where, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, store.ErrNotFound
	}
	return records[0], nil
}

// Count returns the number of entries matching where.
func (r *Repository) Count(ctx context.Context, where Where) (int, error) {
	sb := r.flavor().NewSelectBuilder()
	sb.Select("COUNT(*)").From(r.ct.Table)
	conds, err := r.conditions(sb, where)
	if err != nil {
		return 0, err
	}
	if len(conds) > 0 {
		sb.Where(conds...)
	}

	query, args := sb.Build()
	var n int
	if err := r.store.DB.QueryRowxContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.ct.Table, err)
	}
	return n, nil
}

// List returns the entries selected by plan.
func (r *Repository) List(ctx context.Context, plan Plan) ([]Record, error) {
	sb := r.flavor().NewSelectBuilder()
	sb.Select(r.ct.Columns()...).From(r.ct.Table)

	conds, err := r.conditions(sb, plan.Conditions())
	if err != nil {
		return nil, err
	}
	if len(conds) > 0 {
		sb.Where(conds...)
	}

	var order []string
	for _, s := range plan.Sorts {
		col, ok := r.ct.Column(s.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, s.Field)
		}
		if s.Desc {
			order = append(order, col+" DESC")
		} else {
			order = append(order, col+" ASC")
		}
	}
	order = append(order, "id ASC")
	sb.OrderBy(order...)

	if plan.Limit > 0 {
		sb.Limit(plan.Limit)
		if plan.Offset > 0 {
			sb.Offset(plan.Offset)
		}
	}

	query, args := sb.Build()
	rows, err := store.QueryRows(ctx, r.store.DB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.ct.Table, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, r.codec.decode(row))
	}
	return records, nil
}

// FindByIDs returns the entries with the given ids keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []int64, publishedOnly bool) (map[int64]Record, error) {
	out := make(map[int64]Record, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	records, err := r.List(ctx, Plan{
		Where:         Where{{Field: "id", Op: OpIn, Value: values}},
		PublishedOnly: publishedOnly,
	})
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		out[rec.ID()] = rec
	}
	return out, nil
}

// Create inserts an entry and returns it as stored.
func (r *Repository) Create(ctx context.Context, fields map[string]any) (Record, error) {
	rec, _, err := r.insert(ctx, fields, false)
	return rec, err
}

// CreateIfAbsent inserts an entry unless it collides with an existing one on a
// unique key. The boolean reports whether a row was written.
func (r *Repository) CreateIfAbsent(ctx context.Context, fields map[string]any) (Record, bool, error) {
	return r.insert(ctx, fields, true)
}

func (r *Repository) insert(ctx context.Context, fields map[string]any, ignoreConflict bool) (Record, bool, error) {
	now := r.now()
	docID := uuid.NewString()

	cols := []string{"document_id", "created_at", "updated_at"}
	vals := []any{docID, r.store.Dialect.TimeParam(now), r.store.Dialect.TimeParam(now)}
	if r.ct.IsSingle() {
		if _, ok := fields["locale"]; !ok {
			cols = append(cols, "locale")
			vals = append(vals, metadata.DefaultLocale)
		}
	}

	for _, attr := range sortedKeys(fields) {
		if isManaged(attr) {
			continue
		}
		col, v, err := r.column(attr, fields[attr])
		if err != nil {
			return nil, false, err
		}
		cols = append(cols, col)
		vals = append(vals, v)
	}

	ib := r.flavor().NewInsertBuilder()
	ib.InsertInto(r.ct.Table).Cols(cols...).Values(vals...)
	if ignoreConflict {
		ib.SQL("ON CONFLICT DO NOTHING")
	}

	query, args := ib.Build()
	n, err := store.Exec(ctx, r.store.DB, query, args...)
	if err != nil {
		return nil, false, store.MapError(r.store.Dialect, err)
	}
	if n == 0 {
		return nil, false, nil
	}

	rec, err := r.FindOne(ctx, Where{Eq("documentId", docID)})
	if err != nil {
		return nil, false, fmt.Errorf("reload %s: %w", r.ct.Table, err)
	}
	return rec, true, nil
}

// Update sets the given attributes on entry id and returns the updated entry.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) (Record, error) {
	ub := r.flavor().NewUpdateBuilder()
	ub.Update(r.ct.Table)

	sets := []string{ub.Assign("updated_at", r.store.Dialect.TimeParam(r.now()))}
	for _, attr := range sortedKeys(fields) {
		if isManaged(attr) {
			continue
		}
		col, v, err := r.column(attr, fields[attr])
		if err != nil {
			return nil, err
		}
		sets = append(sets, ub.Assign(col, v))
	}
	ub.Set(sets...)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	n, err := store.Exec(ctx, r.store.DB, query, args...)
	if err != nil {
		return nil, store.MapError(r.store.Dialect, err)
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return r.FindOne(ctx, Where{Eq("id", id)})
}

// Delete removes entry id and returns it as it was.
func (r *Repository) Delete(ctx context.Context, id int64) (Record, error) {
	rec, err := r.FindOne(ctx, Where{Eq("id", id)})
	if err != nil {
		return nil, err
	}

	del := r.flavor().NewDeleteBuilder()
	del.DeleteFrom(r.ct.Table).Where(del.Equal("id", id))
	query, args := del.Build()
	if _, err := store.Exec(ctx, r.store.DB, query, args...); err != nil {
		return nil, fmt.Errorf("delete %s: %w", r.ct.Table, err)
	}
	return rec, nil
}

func (r *Repository) column(attr string, v any) (string, any, error) {
	col, ok := r.ct.Column(attr)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownField, attr)
	}
	enc, err := r.codec.encode(attr, v)
	if err != nil {
		return "", nil, err
	}
	return col, enc, nil
}

func (r *Repository) conditions(sb *sqlbuilder.SelectBuilder, where Where) ([]string, error) {
	var conds []string
	for _, f := range where {
		col, ok := r.ct.Column(f.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, f.Field)
		}
		cond, err := r.condition(sb, col, f)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func (r *Repository) condition(sb *sqlbuilder.SelectBuilder, col string, f Filter) (string, error) {
	switch f.Op {
	case OpNull:
		return sb.IsNull(col), nil
	case OpNotNull:
		return sb.IsNotNull(col), nil
	case OpContains:
		return sb.Like(col, "%"+fmt.Sprint(f.Value)+"%"), nil
	case OpContainsi:
		pattern := "%" + strings.ToLower(fmt.Sprint(f.Value)) + "%"
		return fmt.Sprintf("LOWER(%s) LIKE %s", col, sb.Var(pattern)), nil
	case OpStartsWith:
		return sb.Like(col, fmt.Sprint(f.Value)+"%"), nil
	case OpEndsWith:
		return sb.Like(col, "%"+fmt.Sprint(f.Value)), nil
	case OpIn, OpNotIn:
		values, err := r.encodeList(f.Field, f.Value)
		if err != nil {
			return "", err
		}
		if len(values) == 0 {
			if f.Op == OpIn {
				return "1 = 0", nil
			}
			return "1 = 1", nil
		}
		if f.Op == OpIn {
			return sb.In(col, values...), nil
		}
		return sb.NotIn(col, values...), nil
	}

	v, err := r.codec.encode(f.Field, f.Value)
	if err != nil {
		return "", err
	}
	switch f.Op {
	case OpEq:
		if v == nil {
			return sb.IsNull(col), nil
		}
		return sb.Equal(col, v), nil
	case OpNe:
		if v == nil {
			return sb.IsNotNull(col), nil
		}
		return sb.NotEqual(col, v), nil
	case OpLt:
		return sb.LessThan(col, v), nil
	case OpLte:
		return sb.LessEqualThan(col, v), nil
	case OpGt:
		return sb.GreaterThan(col, v), nil
	case OpGte:
		return sb.GreaterEqualThan(col, v), nil
	}
	return "", fmt.Errorf("unsupported operator %q", f.Op)
}

func (r *Repository) encodeList(attr string, v any) ([]any, error) {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []string:
		for _, s := range list {
			items = append(items, s)
		}
	case []int64:
		for _, n := range list {
			items = append(items, n)
		}
	default:
		items = []any{v}
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		enc, err := r.codec.encode(attr, item)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}

// isManaged reports attributes the repository assigns itself.
func isManaged(attr string) bool {
	switch attr {
	case "id", "documentId", "createdAt", "updatedAt":
		return true
	}
	return false
}
