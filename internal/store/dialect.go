package store

import (
	"context"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/rambosorn/khadimy/internal/metadata"
)

// Dialect abstracts database-specific SQL generation and behavior.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// Flavor returns the go-sqlbuilder flavor used to render statements.
	Flavor() sqlbuilder.Flavor

	// ColumnType maps a metadata field type to the database DDL type.
	ColumnType(fieldType metadata.FieldType) string

	// PrimaryKeyDDL returns the column definition for an auto-increment id.
	PrimaryKeyDDL() string

	// TimestampType returns the DDL type used for system timestamps.
	TimestampType() string

	// SystemTablesSQL returns the DDL for roles, permissions, users and files.
	SystemTablesSQL() string

	// TableExists checks whether a table exists.
	TableExists(ctx context.Context, q Querier, tableName string) (bool, error)

	// GetColumns returns existing column names and types for a table.
	GetColumns(ctx context.Context, q Querier, tableName string) (map[string]string, error)

	// TimeParam encodes a timestamp for binding.
	// PostgreSQL: time.Time as-is. SQLite: fixed-width UTC text so that
	// lexical order matches time order.
	TimeParam(t time.Time) any

	// DateParam encodes a calendar date for binding.
	DateParam(t time.Time) any

	// JSONParam encodes an already-marshalled JSON document for binding.
	JSONParam(raw []byte) any

	// MapError inspects a driver error and returns a well-known sentinel error if applicable.
	MapError(err error) error

	// NeedsBoolFix returns true if boolean columns come back as integers (SQLite).
	NeedsBoolFix() bool
}

// NewDialect creates a Dialect for the given driver name ("postgres" or "sqlite").
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{}
	}
}

// SQLiteTimeLayout is the stored form of timestamps on SQLite.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000Z"

// ParseTime decodes a timestamp column value as returned by either driver.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), true
			}
		}
	case []byte:
		return ParseTime(string(t))
	}
	return time.Time{}, false
}
