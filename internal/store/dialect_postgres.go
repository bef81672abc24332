package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rambosorn/khadimy/internal/metadata"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string              { return "postgres" }
func (d *PostgresDialect) DriverName() string        { return "pgx" }
func (d *PostgresDialect) Flavor() sqlbuilder.Flavor { return sqlbuilder.PostgreSQL }
func (d *PostgresDialect) PrimaryKeyDDL() string     { return "id BIGSERIAL PRIMARY KEY" }
func (d *PostgresDialect) TimestampType() string     { return "TIMESTAMPTZ" }
func (d *PostgresDialect) NeedsBoolFix() bool        { return false }
func (d *PostgresDialect) TimeParam(t time.Time) any { return t.UTC() }
func (d *PostgresDialect) DateParam(t time.Time) any { return t }
func (d *PostgresDialect) JSONParam(raw []byte) any  { return string(raw) }
func (d *PostgresDialect) SystemTablesSQL() string   { return postgresSystemTablesSQL }

func (d *PostgresDialect) ColumnType(fieldType metadata.FieldType) string {
	switch fieldType {
	case metadata.TypeInteger, metadata.TypeRelation:
		return "BIGINT"
	case metadata.TypeBoolean:
		return "BOOLEAN"
	case metadata.TypeDate:
		return "DATE"
	case metadata.TypeDateTime:
		return "TIMESTAMPTZ"
	case metadata.TypeJSON, metadata.TypeMedia:
		return "JSONB"
	default:
		return "TEXT"
	}
}

func (d *PostgresDialect) TableExists(ctx context.Context, q Querier, tableName string) (bool, error) {
	var exists bool
	err := q.QueryRowxContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)",
		tableName,
	).Scan(&exists)
	return exists, err
}

func (d *PostgresDialect) GetColumns(ctx context.Context, q Querier, tableName string) (map[string]string, error) {
	rows, err := q.QueryxContext(ctx,
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1",
		tableName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, err
		}
		cols[name] = dataType
	}
	return cols, rows.Err()
}

func (d *PostgresDialect) MapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.Detail)
	}
	return err
}

const postgresSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS up_roles (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS up_permissions (
    id         BIGSERIAL PRIMARY KEY,
    action     TEXT NOT NULL,
    role_id    BIGINT NOT NULL REFERENCES up_roles(id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (action, role_id)
);

CREATE TABLE IF NOT EXISTS up_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role_id       BIGINT REFERENCES up_roles(id) ON DELETE SET NULL,
    blocked       BOOLEAN NOT NULL DEFAULT false,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS files (
    id           BIGSERIAL PRIMARY KEY,
    document_id  TEXT NOT NULL UNIQUE,
    name         TEXT NOT NULL,
    url          TEXT NOT NULL,
    mime         TEXT NOT NULL DEFAULT 'application/octet-stream',
    size         BIGINT NOT NULL DEFAULT 0,
    storage_path TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
