package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/lumenfill/dbfill/internal/schema"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresAdapter struct {
	sqlAdapter
}

func NewPostgresAdapter() *PostgresAdapter {
	return &PostgresAdapter{sqlAdapter{
		driver: "pgx",
		qb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		quote:  pq.QuoteIdentifier,
	}}
}

// ExtractSchema reads tables, columns, primary keys, foreign keys and
// single-column unique constraints for the public schema from the
// information_schema catalog.
func (p *PostgresAdapter) ExtractSchema(ctx context.Context) (schema.Schema, error) {
	run := p.runner()

	rows, err := run.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
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
		if err := p.loadColumns(ctx, ts); err != nil {
			return nil, fmt.Errorf("failed to read columns for %s: %w", name, err)
		}
		result[name] = ts
	}

	if err := p.loadPrimaryKeys(ctx, result); err != nil {
		return nil, err
	}
	if err := p.loadForeignKeys(ctx, result); err != nil {
		return nil, err
	}
	if err := p.loadUniqueColumns(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *PostgresAdapter) loadColumns(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := p.runner().QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default, is_identity
		FROM information_schema.columns
		WHERE table_name = $1 AND table_schema = 'public'
		ORDER BY ordinal_position
	`, ts.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, dataType, isNullable, isIdentity string
		var colDefault sql.NullString
		if err := rows.Scan(&name, &dataType, &isNullable, &colDefault, &isIdentity); err != nil {
			return err
		}
		ts.AddColumn(schema.ColumnInfo{
			Name:       name,
			Type:       dataType,
			Nullable:   isNullable == "YES",
			Default:    colDefault.String,
			IsIdentity: isIdentity == "YES",
		})
	}
	return rows.Err()
}

func (p *PostgresAdapter) loadPrimaryKeys(ctx context.Context, s schema.Schema) error {
	rows, err := p.runner().QueryContext(ctx, `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = 'public'
	`)
	if err != nil {
		return fmt.Errorf("failed to read primary keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		if ts, ok := s[table]; ok {
			if col, ok := ts.Column(column); ok {
				col.IsPrimary = true
			}
		}
	}
	return rows.Err()
}

func (p *PostgresAdapter) loadForeignKeys(ctx context.Context, s schema.Schema) error {
	rows, err := p.runner().QueryContext(ctx, `
		SELECT
			tc.table_name,
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = 'public'
	`)
	if err != nil {
		return fmt.Errorf("failed to read foreign keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var table, column, refTable, refColumn string
		if err := rows.Scan(&table, &column, &refTable, &refColumn); err != nil {
			return err
		}
		if ts, ok := s[table]; ok {
			ts.ForeignKeys[column] = schema.FKRef{
				ReferencesTable:  refTable,
				ReferencesColumn: refColumn,
			}
		}
	}
	return rows.Err()
}

func (p *PostgresAdapter) loadUniqueColumns(ctx context.Context, s schema.Schema) error {
	rows, err := p.runner().QueryContext(ctx, `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
		WHERE tc.constraint_type = 'UNIQUE' AND tc.table_schema = 'public'
	`)
	if err != nil {
		return fmt.Errorf("failed to read unique constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return err
		}
		if ts, ok := s[table]; ok {
			ts.MarkUnique(column)
		}
	}
	return rows.Err()
}
