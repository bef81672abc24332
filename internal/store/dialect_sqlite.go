package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/rambosorn/khadimy/internal/metadata"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string              { return "sqlite" }
func (d *SQLiteDialect) DriverName() string        { return "sqlite" }
func (d *SQLiteDialect) Flavor() sqlbuilder.Flavor { return sqlbuilder.SQLite }
func (d *SQLiteDialect) PrimaryKeyDDL() string     { return "id INTEGER PRIMARY KEY AUTOINCREMENT" }
func (d *SQLiteDialect) TimestampType() string     { return "TEXT" }
func (d *SQLiteDialect) NeedsBoolFix() bool        { return true }
func (d *SQLiteDialect) JSONParam(raw []byte) any  { return string(raw) }
func (d *SQLiteDialect) SystemTablesSQL() string   { return sqliteSystemTablesSQL }

func (d *SQLiteDialect) TimeParam(t time.Time) any {
	return t.UTC().Format(SQLiteTimeLayout)
}

func (d *SQLiteDialect) DateParam(t time.Time) any {
	return t.Format("2006-01-02")
}

func (d *SQLiteDialect) ColumnType(fieldType metadata.FieldType) string {
	switch fieldType {
	case metadata.TypeInteger, metadata.TypeRelation, metadata.TypeBoolean:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func (d *SQLiteDialect) TableExists(ctx context.Context, q Querier, tableName string) (bool, error) {
	var name string
	err := q.QueryRowxContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		tableName,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *SQLiteDialect) GetColumns(ctx context.Context, q Querier, tableName string) (map[string]string, error) {
	rows, err := q.QueryxContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dfltValue any
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = colType
	}
	return cols, rows.Err()
}

// MapError matches on the message; modernc does not export typed constraint errors.
func (d *SQLiteDialect) MapError(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, err.Error())
	}
	return err
}

const sqliteSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS up_roles (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
    updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

CREATE TABLE IF NOT EXISTS up_permissions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    action     TEXT NOT NULL,
    role_id    INTEGER NOT NULL REFERENCES up_roles(id) ON DELETE CASCADE,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
    UNIQUE (action, role_id)
);

CREATE TABLE IF NOT EXISTS up_users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role_id       INTEGER REFERENCES up_roles(id) ON DELETE SET NULL,
    blocked       INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
    updated_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);

CREATE TABLE IF NOT EXISTS files (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id  TEXT NOT NULL UNIQUE,
    name         TEXT NOT NULL,
    url          TEXT NOT NULL,
    mime         TEXT NOT NULL DEFAULT 'application/octet-stream',
    size         INTEGER NOT NULL DEFAULT 0,
    storage_path TEXT NOT NULL,
    created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);
`
