package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rambosorn/khadimy/internal/metadata"
)

// AdminSeed is the first administrator created on an empty users table.
type AdminSeed struct {
	Email    string
	Password string
}

var defaultRoles = []struct {
	name, typ, description string
}{
	{"Public", metadata.RolePublic, "Default role given to unauthenticated user."},
	{"Authenticated", metadata.RoleAuthenticated, "Default role given to authenticated user."},
	{"Admin", metadata.RoleAdmin, "Full access to every content type."},
}

// Bootstrap creates the system tables, seeds the built-in roles and, when an
// admin is configured and no users exist yet, the first admin user.
func (s *Store) Bootstrap(ctx context.Context, admin AdminSeed, logger *zap.Logger) error {
	if _, err := s.DB.ExecContext(ctx, s.Dialect.SystemTablesSQL()); err != nil {
		return fmt.Errorf("bootstrap system tables: %w", err)
	}
	if err := s.seedRoles(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if admin.Email == "" || admin.Password == "" {
		return nil
	}
	if err := s.seedAdminUser(ctx, admin, logger); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func (s *Store) seedRoles(ctx context.Context) error {
	for _, r := range defaultRoles {
		ib := s.Dialect.Flavor().NewInsertBuilder()
		ib.InsertInto("up_roles").Cols("name", "type", "description").Values(r.name, r.typ, r.description)
		ib.SQL("ON CONFLICT (type) DO NOTHING")
		query, args := ib.Build()
		if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert role %s: %w", r.typ, err)
		}
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context, admin AdminSeed, logger *zap.Logger) error {
	var count int
	if err := s.DB.QueryRowxContext(ctx, "SELECT COUNT(*) FROM up_users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	roleID, err := s.RoleID(ctx, metadata.RoleAdmin)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := s.Dialect.TimeParam(time.Now())
	ib := s.Dialect.Flavor().NewInsertBuilder()
	ib.InsertInto("up_users").
		Cols("username", "email", "password_hash", "role_id", "created_at", "updated_at").
		Values("admin", admin.Email, string(hash), roleID, now, now)
	ib.SQL("ON CONFLICT (email) DO NOTHING")
	query, args := ib.Build()
	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	logger.Info("admin user created", zap.String("email", admin.Email))
	return nil
}

// RoleID returns the id of the role with the given type, or ErrNotFound.
func (s *Store) RoleID(ctx context.Context, roleType string) (int64, error) {
	sb := s.Dialect.Flavor().NewSelectBuilder()
	sb.Select("id").From("up_roles").Where(sb.Equal("type", roleType))
	query, args := sb.Build()

	row, err := QueryRow(ctx, s.DB, query, args...)
	if err != nil {
		return 0, err
	}
	id, ok := ToInt64(row["id"])
	if !ok {
		return 0, fmt.Errorf("role %s: unexpected id %v", roleType, row["id"])
	}
	return id, nil
}
