package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
	"github.com/lumenfill/dbfill/internal/schema"
)

// Adapter is the boundary the filler drives: one live connection that
// can describe its catalog, report existing key pools and persist
// generated batches inside a transaction.
type Adapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	ExtractSchema(ctx context.Context) (schema.Schema, error)
	FetchIDs(ctx context.Context, table, pkColumn string) ([]interface{}, error)
	InsertBatch(ctx context.Context, table string, columns []string, rows []map[string]interface{}) error

	Begin(ctx context.Context) error
	Commit() error
	Rollback() error
}

func NewAdapter(provider string) Adapter {
	switch provider {
	case "mysql":
		return NewMySQLAdapter()
	case "sqlite", "sqlite3":
		return NewSQLiteAdapter()
	default:
		return NewPostgresAdapter()
	}
}

// validIdentifier guards table/column names that end up inside SQL text
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// sqlAdapter carries the driver-independent half of an Adapter.
type sqlAdapter struct {
	db     *sql.DB
	tx     *sql.Tx
	driver string
	qb     squirrel.StatementBuilderType
	quote  func(string) string
}

// runner routes statements through the open transaction when one is
// active.
type runner interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (a *sqlAdapter) runner() runner {
	if a.tx != nil {
		return a.tx
	}
	return a.db
}

func (a *sqlAdapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open(a.driver, url)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	return nil
}

func (a *sqlAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *sqlAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *sqlAdapter) Begin(ctx context.Context) error {
	if a.tx != nil {
		return fmt.Errorf("transaction already open")
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	a.tx = tx
	return nil
}

func (a *sqlAdapter) Commit() error {
	if a.tx == nil {
		return nil
	}
	err := a.tx.Commit()
	a.tx = nil
	return err
}

func (a *sqlAdapter) Rollback() error {
	if a.tx == nil {
		return nil
	}
	err := a.tx.Rollback()
	a.tx = nil
	return err
}

// FetchIDs returns every existing value of pkColumn in the table, for
// use as a foreign key pool.
func (a *sqlAdapter) FetchIDs(ctx context.Context, table, pkColumn string) ([]interface{}, error) {
	if !validIdentifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %s", table)
	}
	if !validIdentifier.MatchString(pkColumn) {
		return nil, fmt.Errorf("invalid column name: %s", pkColumn)
	}

	query, args, err := a.qb.Select(a.quote(pkColumn)).From(a.quote(table)).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := a.runner().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ids from %s: %w", table, err)
	}
	defer rows.Close()

	var ids []interface{}
	for rows.Next() {
		var id interface{}
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertBatch persists the rows in one multi-row INSERT. All rows must
// share exactly the column set given in columns.
func (a *sqlAdapter) InsertBatch(ctx context.Context, table string, columns []string, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if !validIdentifier.MatchString(table) {
		return fmt.Errorf("invalid table name: %s", table)
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		if !validIdentifier.MatchString(col) {
			return fmt.Errorf("invalid column name: %s", col)
		}
		quoted[i] = a.quote(col)
	}

	builder := a.qb.Insert(a.quote(table)).Columns(quoted...)
	for _, row := range rows {
		vals := make([]interface{}, len(columns))
		for i, col := range columns {
			vals[i] = row[col]
		}
		builder = builder.Values(vals...)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	if _, err := a.runner().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}
