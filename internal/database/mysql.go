package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lumenfill/dbfill/internal/schema"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLAdapter struct {
	sqlAdapter
}

func NewMySQLAdapter() *MySQLAdapter {
	return &MySQLAdapter{sqlAdapter{
		driver: "mysql",
		qb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		quote:  quoteBacktick,
	}}
}

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// ExtractSchema reads the current database's tables from
// information_schema. Auto-increment columns are flagged through the
// EXTRA column; primary and unique single-column keys come from
// COLUMN_KEY.
func (m *MySQLAdapter) ExtractSchema(ctx context.Context) (schema.Schema, error) {
	run := m.runner()

	rows, err := run.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
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
		if err := m.loadColumns(ctx, ts); err != nil {
			return nil, fmt.Errorf("failed to read columns for %s: %w", name, err)
		}
		result[name] = ts
	}

	if err := m.loadForeignKeys(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (m *MySQLAdapter) loadColumns(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := m.runner().QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY, EXTRA
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`, ts.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, dataType, isNullable, columnKey, extra string
		var colDefault sql.NullString
		if err := rows.Scan(&name, &dataType, &isNullable, &colDefault, &columnKey, &extra); err != nil {
			return err
		}
		col := schema.ColumnInfo{
			Name:       name,
			Type:       dataType,
			Nullable:   isNullable == "YES",
			Default:    colDefault.String,
			IsIdentity: strings.Contains(strings.ToLower(extra), "auto_increment"),
			IsPrimary:  columnKey == "PRI",
		}
		ts.AddColumn(col)
		if columnKey == "UNI" {
			ts.MarkUnique(name)
		}
	}
	return rows.Err()
}

func (m *MySQLAdapter) loadForeignKeys(ctx context.Context, s schema.Schema) error {
	rows, err := m.runner().QueryContext(ctx, `
		SELECT TABLE_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE() AND REFERENCED_TABLE_NAME IS NOT NULL
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
