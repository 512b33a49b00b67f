package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lumenfill/dbfill/internal/schema"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteAdapter struct {
	sqlAdapter
}

func NewSQLiteAdapter() *SQLiteAdapter {
	return &SQLiteAdapter{sqlAdapter{
		driver: "sqlite3",
		qb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		quote:  quoteDouble,
	}}
}

func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ExtractSchema walks sqlite_master and the table/index/foreign-key
// PRAGMAs. An INTEGER PRIMARY KEY is a rowid alias, so it is treated as
// identity and never populated.
func (s *SQLiteAdapter) ExtractSchema(ctx context.Context) (schema.Schema, error) {
	rows, err := s.runner().QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tableNames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tableNames = append(tableNames, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make(schema.Schema, len(tableNames))
	for _, name := range tableNames {
		ts := schema.NewTableSchema(name)
		if err := s.loadColumns(ctx, ts); err != nil {
			return nil, fmt.Errorf("failed to read columns for %s: %w", name, err)
		}
		if err := s.loadForeignKeys(ctx, ts); err != nil {
			return nil, fmt.Errorf("failed to read foreign keys for %s: %w", name, err)
		}
		if err := s.loadUniqueColumns(ctx, ts); err != nil {
			return nil, fmt.Errorf("failed to read indexes for %s: %w", name, err)
		}
		result[name] = ts
	}

	// PRAGMA foreign_key_list leaves the target column empty when the
	// constraint references the implicit rowid primary key
	for _, ts := range result {
		for col, fk := range ts.ForeignKeys {
			if fk.ReferencesColumn != "" {
				continue
			}
			if parent, ok := result[fk.ReferencesTable]; ok {
				fk.ReferencesColumn = parent.PrimaryKey()
			}
			if fk.ReferencesColumn == "" {
				fk.ReferencesColumn = "id"
			}
			ts.ForeignKeys[col] = fk
		}
	}
	return result, nil
}

func (s *SQLiteAdapter) loadColumns(ctx context.Context, ts *schema.TableSchema) error {
	if !validIdentifier.MatchString(ts.Name) {
		return fmt.Errorf("invalid table name: %s", ts.Name)
	}
	rows, err := s.runner().QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteDouble(ts.Name)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return err
		}
		isRowIDAlias := pk > 0 && strings.Contains(strings.ToUpper(colType), "INTEGER")
		ts.AddColumn(schema.ColumnInfo{
			Name:       name,
			Type:       colType,
			Nullable:   notNull == 0 && pk == 0,
			Default:    dfltValue.String,
			IsIdentity: isRowIDAlias,
			IsPrimary:  pk > 0,
		})
	}
	return rows.Err()
}

func (s *SQLiteAdapter) loadForeignKeys(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := s.runner().QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteDouble(ts.Name)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, seq int
		var refTable, from string
		var to sql.NullString
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}
		ts.ForeignKeys[from] = schema.FKRef{
			ReferencesTable:  refTable,
			ReferencesColumn: to.String,
		}
	}
	return rows.Err()
}

func (s *SQLiteAdapter) loadUniqueColumns(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := s.runner().QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteDouble(ts.Name)))
	if err != nil {
		return err
	}

	type index struct {
		name   string
		unique bool
	}
	var indexes []index
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return err
		}
		indexes = append(indexes, index{name: name, unique: unique == 1})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, idx := range indexes {
		if !idx.unique {
			continue
		}
		cols, err := s.indexColumns(ctx, idx.name)
		if err != nil {
			return err
		}
		// only single-column constraints translate to per-column
		// uniqueness the generator can enforce
		if len(cols) == 1 {
			ts.MarkUnique(cols[0])
		}
	}
	return nil
}

func (s *SQLiteAdapter) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := s.runner().QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteDouble(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}
