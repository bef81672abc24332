package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/rambosorn/khadimy/internal/store"
)

// Role is a row of up_roles.
type Role struct {
	ID   int64
	Name string
	Type string
}

// Permissions reads and writes role permissions.
type Permissions struct {
	store *store.Store
}

func NewPermissions(s *store.Store) *Permissions {
	return &Permissions{store: s}
}

// FindRole returns the role with the given type, or store.ErrNotFound.
func (p *Permissions) FindRole(ctx context.Context, roleType string) (*Role, error) {
	sb := p.store.Dialect.Flavor().NewSelectBuilder()
	sb.Select("id", "name", "type").From("up_roles").Where(sb.Equal("type", roleType))
	query, args := sb.Build()

	row, err := store.QueryRow(ctx, p.store.DB, query, args...)
	if err != nil {
		return nil, err
	}
	id, _ := store.ToInt64(row["id"])
	name, _ := row["name"].(string)
	typ, _ := row["type"].(string)
	return &Role{ID: id, Name: name, Type: typ}, nil
}

// HasPermission reports whether roleID holds action.
func (p *Permissions) HasPermission(ctx context.Context, action string, roleID int64) (bool, error) {
	sb := p.store.Dialect.Flavor().NewSelectBuilder()
	sb.Select("id").From("up_permissions").Where(
		sb.Equal("action", action),
		sb.Equal("role_id", roleID),
	)
	sb.Limit(1)
	query, args := sb.Build()

	_, err := store.QueryRow(ctx, p.store.DB, query, args...)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Grant gives action to roleID unless already held. It reports whether a row was written.
func (p *Permissions) Grant(ctx context.Context, action string, roleID int64) (bool, error) {
	ib := p.store.Dialect.Flavor().NewInsertBuilder()
	ib.InsertInto("up_permissions").Cols("action", "role_id").Values(action, roleID)
	ib.SQL("ON CONFLICT (action, role_id) DO NOTHING")
	query, args := ib.Build()

	n, err := store.Exec(ctx, p.store.DB, query, args...)
	if err != nil {
		return false, fmt.Errorf("grant %s: %w", action, err)
	}
	return n > 0, nil
}

// Revoke removes action from roleID.
func (p *Permissions) Revoke(ctx context.Context, action string, roleID int64) error {
	del := p.store.Dialect.Flavor().NewDeleteBuilder()
	del.DeleteFrom("up_permissions").Where(
		del.Equal("action", action),
		del.Equal("role_id", roleID),
	)
	query, args := del.Build()
	_, err := store.Exec(ctx, p.store.DB, query, args...)
	return err
}

// LoadGrants returns every granted action keyed by role type.
func (p *Permissions) LoadGrants(ctx context.Context) (map[string][]string, error) {
	rows, err := store.QueryRows(ctx, p.store.DB,
		`SELECT r.type AS role_type, p.action AS action
		   FROM up_permissions p JOIN up_roles r ON r.id = p.role_id
		  ORDER BY r.type, p.action`)
	if err != nil {
		return nil, fmt.Errorf("load grants: %w", err)
	}
	grants := make(map[string][]string)
	for _, row := range rows {
		role, _ := row["role_type"].(string)
		action, _ := row["action"].(string)
		grants[role] = append(grants[role], action)
	}
	return grants, nil
}
