package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/rambosorn/khadimy/internal/store"
)

// User is a row of up_users joined with its role type.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Blocked      bool   `json:"blocked"`
	RoleType     string `json:"-"`
	PasswordHash string `json:"-"`
}

type Users struct {
	store *store.Store
}

func NewUsers(s *store.Store) *Users {
	return &Users{store: s}
}

// FindByIdentifier looks a user up by email or username.
func (u *Users) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	sb := u.selectUsers()
	sb.Where(sb.Or(
		sb.Equal("LOWER(u.email)", strings.ToLower(identifier)),
		sb.Equal("u.username", identifier),
	))
	return u.findOne(ctx, sb)
}

// FindByID returns the user with the given id, or store.ErrNotFound.
func (u *Users) FindByID(ctx context.Context, id int64) (*User, error) {
	sb := u.selectUsers()
	sb.Where(sb.Equal("u.id", id))
	return u.findOne(ctx, sb)
}

// Create inserts a user with the given role type. Email collisions surface as
// store.ErrUniqueViolation.
func (u *Users) Create(ctx context.Context, username, email, passwordHash, roleType string) (*User, error) {
	roleID, err := u.store.RoleID(ctx, roleType)
	if err != nil {
		return nil, fmt.Errorf("role %s: %w", roleType, err)
	}

	now := u.store.Dialect.TimeParam(time.Now())
	ib := u.store.Dialect.Flavor().NewInsertBuilder()
	ib.InsertInto("up_users").
		Cols("username", "email", "password_hash", "role_id", "blocked", "created_at", "updated_at").
		Values(username, strings.ToLower(email), passwordHash, roleID, false, now, now)
	query, args := ib.Build()
	if _, err := store.Exec(ctx, u.store.DB, query, args...); err != nil {
		return nil, store.MapError(u.store.Dialect, err)
	}
	return u.FindByIdentifier(ctx, email)
}

func (u *Users) selectUsers() *sqlbuilder.SelectBuilder {
	sb := u.store.Dialect.Flavor().NewSelectBuilder()
	sb.Select("u.id", "u.username", "u.email", "u.blocked", "u.password_hash", "r.type AS role_type").
		From("up_users u").
		JoinWithOption(sqlbuilder.LeftJoin, "up_roles r", "r.id = u.role_id")
	sb.Limit(1)
	return sb
}

func (u *Users) findOne(ctx context.Context, sb *sqlbuilder.SelectBuilder) (*User, error) {
	query, args := sb.Build()
	row, err := store.QueryRow(ctx, u.store.DB, query, args...)
	if err != nil {
		return nil, err
	}

	user := &User{}
	user.ID, _ = store.ToInt64(row["id"])
	user.Username, _ = row["username"].(string)
	user.Email, _ = row["email"].(string)
	user.PasswordHash, _ = row["password_hash"].(string)
	user.RoleType, _ = row["role_type"].(string)
	switch b := row["blocked"].(type) {
	case bool:
		user.Blocked = b
	default:
		n, _ := store.ToInt64(b)
		user.Blocked = n != 0
	}
	return user, nil
}
