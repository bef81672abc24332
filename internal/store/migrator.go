package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rambosorn/khadimy/internal/metadata"
)

type Migrator struct {
	store *Store
}

func NewMigrator(store *Store) *Migrator {
	return &Migrator{store: store}
}

// Migrate ensures the table matches the content type.
// Creates the table if it doesn't exist, or adds missing columns.
func (m *Migrator) Migrate(ctx context.Context, ct *metadata.ContentType) error {
	exists, err := m.store.Dialect.TableExists(ctx, m.store.DB, ct.Table)
	if err != nil {
		return fmt.Errorf("check table exists: %w", err)
	}

	if !exists {
		return m.createTable(ctx, ct)
	}

	return m.alterTable(ctx, ct)
}

// MigrateAll migrates every content type in order.
func (m *Migrator) MigrateAll(ctx context.Context, types []*metadata.ContentType) error {
	for _, ct := range types {
		if err := m.Migrate(ctx, ct); err != nil {
			return fmt.Errorf("migrate %s: %w", ct.Name, err)
		}
	}
	return nil
}

func (m *Migrator) createTable(ctx context.Context, ct *metadata.ContentType) error {
	var cols []string
	for _, c := range ct.SystemColumns() {
		cols = append(cols, m.systemColumnDef(c))
	}
	for i := range ct.Fields {
		cols = append(cols, m.buildColumnDef(&ct.Fields[i]))
	}

	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", ct.Table, strings.Join(cols, ",\n  "))

	if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", ct.Table, err)
	}

	if err := m.createIndexes(ctx, ct); err != nil {
		return fmt.Errorf("create indexes for %s: %w", ct.Table, err)
	}

	return nil
}

func (m *Migrator) alterTable(ctx context.Context, ct *metadata.ContentType) error {
	existing, err := m.store.Dialect.GetColumns(ctx, m.store.DB, ct.Table)
	if err != nil {
		return fmt.Errorf("get columns for %s: %w", ct.Table, err)
	}

	var missing []string
	for _, c := range ct.SystemColumns() {
		if _, ok := existing[c]; !ok && c != "id" {
			missing = append(missing, m.systemColumnDef(c))
		}
	}
	for i := range ct.Fields {
		if _, ok := existing[ct.Fields[i].Name]; !ok {
			missing = append(missing, m.buildColumnDef(&ct.Fields[i]))
		}
	}

	for _, def := range missing {
		sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", ct.Table, def)
		if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
			return fmt.Errorf("add column to %s: %w", ct.Table, err)
		}
	}

	if err := m.createIndexes(ctx, ct); err != nil {
		return fmt.Errorf("create indexes for %s: %w", ct.Table, err)
	}

	return nil
}

func (m *Migrator) systemColumnDef(col string) string {
	d := m.store.Dialect
	switch col {
	case "id":
		return d.PrimaryKeyDDL()
	case "document_id":
		return "document_id TEXT"
	case "locale":
		return fmt.Sprintf("locale TEXT DEFAULT '%s'", metadata.DefaultLocale)
	default:
		return col + " " + d.TimestampType()
	}
}

func (m *Migrator) buildColumnDef(f *metadata.Field) string {
	col := f.Name + " " + m.store.Dialect.ColumnType(f.Type)

	if b, ok := f.Default.(bool); ok {
		if m.store.Dialect.NeedsBoolFix() {
			if b {
				col += " DEFAULT 1"
			} else {
				col += " DEFAULT 0"
			}
		} else {
			col += fmt.Sprintf(" DEFAULT %t", b)
		}
	}

	return col
}

// createIndexes adds the unique indexes that back natural keys: document ids,
// unique fields and the one-entry-per-locale rule of single types.
func (m *Migrator) createIndexes(ctx context.Context, ct *metadata.ContentType) error {
	unique := []string{"document_id"}
	for _, f := range ct.Fields {
		if f.Unique {
			unique = append(unique, f.Name)
		}
	}
	if ct.IsSingle() {
		unique = append(unique, "locale")
	}

	for _, col := range unique {
		sql := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
			ct.Table, col, ct.Table, col)
		if _, err := m.store.DB.ExecContext(ctx, sql); err != nil {
			return fmt.Errorf("create unique index on %s.%s: %w", ct.Table, col, err)
		}
	}
	return nil
}
