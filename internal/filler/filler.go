package filler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/lumenfill/dbfill/internal/config"
	"github.com/lumenfill/dbfill/internal/database"
	"github.com/lumenfill/dbfill/internal/generator"
	"github.com/lumenfill/dbfill/internal/resolver"
	"github.com/lumenfill/dbfill/internal/schema"
)

// Filler drives one run: extract the schema, resolve the insertion
// order, then generate and insert rows table by table inside a single
// transaction.
type Filler struct {
	cfg     *config.Config
	adapter database.Adapter
}

func New(cfg *config.Config, adapter database.Adapter) *Filler {
	return &Filler{cfg: cfg, adapter: adapter}
}

// Plan extracts the schema and returns the insertion order without
// writing anything.
func (f *Filler) Plan(ctx context.Context) ([]string, error) {
	sch, err := f.adapter.ExtractSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract schema: %w", err)
	}
	return resolver.Resolve(sch)
}

// Run populates every table. Generation errors flagged as truncating
// stop the current table only; anything else rolls the whole
// transaction back.
func (f *Filler) Run(ctx context.Context) (err error) {
	sch, err := f.adapter.ExtractSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to extract schema: %w", err)
	}
	if len(sch) == 0 {
		color.Yellow("⚠️  No tables found in database")
		return nil
	}

	order, err := resolver.Resolve(sch)
	if err != nil {
		return err
	}

	color.Green("📊 Found %d tables", len(sch))
	color.Cyan("📋 Insertion order: %s", strings.Join(order, " → "))

	gen := generator.New(sch)

	if err := f.adapter.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.adapter.Rollback()
		}
	}()

	total := 0
	for _, table := range order {
		inserted, tableErr := f.fillTable(ctx, gen, sch[table], f.cfg.RowCount(table))
		if tableErr != nil {
			return fmt.Errorf("failed to fill table %s: %w", table, tableErr)
		}
		total += inserted
	}

	if err := f.adapter.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	color.Green("\n✅ Autofill completed successfully (%d rows inserted)", total)
	return nil
}

func (f *Filler) fillTable(ctx context.Context, gen *generator.Generator, ts *schema.TableSchema, target int) (int, error) {
	color.Cyan("  📝 Populating %s (target %d rows)...", ts.Name, target)

	colCfgs := f.cfg.ColumnConfigs(ts.Name)
	if err := gen.ValidateColumnConfigs(ts.Name, colCfgs); err != nil {
		if truncating(err) {
			color.Yellow("  ⚠️  Skipping %s: %v", ts.Name, err)
			return 0, nil
		}
		return 0, err
	}

	pools, err := f.fetchPools(ctx, ts)
	if err != nil {
		return 0, err
	}

	columns := ts.InsertColumns()
	if len(columns) == 0 {
		color.Yellow("  ⚠️  %s has no generatable columns, skipping", ts.Name)
		return 0, nil
	}

	inserted := 0
	var batch []map[string]interface{}
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := f.adapter.InsertBatch(ctx, ts.Name, columns, batch); err != nil {
			return err
		}
		inserted += len(batch)
		batch = batch[:0]
		return nil
	}

	for i := 0; i < target; i++ {
		row, err := gen.GenerateRow(ts.Name, pools, colCfgs)
		if err != nil {
			if truncating(err) {
				color.Yellow("  ⚠️  Stopping %s after %d rows: %v", ts.Name, inserted+len(batch), err)
				break
			}
			return 0, err
		}
		batch = append(batch, row)
		if len(batch) >= f.cfg.Batch {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if inserted < target {
		color.Yellow("  ⚠️  %s populated with %d of %d rows", ts.Name, inserted, target)
	} else {
		color.Green("  ✅ %s populated (%d rows)", ts.Name, inserted)
	}
	return inserted, nil
}

// fetchPools loads the current id pool of every table this table
// references, one query per referenced table.
func (f *Filler) fetchPools(ctx context.Context, ts *schema.TableSchema) (map[string][]interface{}, error) {
	pools := make(map[string][]interface{})
	for _, fk := range ts.ForeignKeys {
		if _, done := pools[fk.ReferencesTable]; done {
			continue
		}
		ids, err := f.adapter.FetchIDs(ctx, fk.ReferencesTable, fk.ReferencesColumn)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch ids from %s: %w", fk.ReferencesTable, err)
		}
		pools[fk.ReferencesTable] = ids
	}
	return pools, nil
}

// truncating reports whether the error means "stop this table, keep
// the run" under the partial-failure policy.
func truncating(err error) bool {
	var genErr *generator.Error
	return errors.As(err, &genErr) && genErr.Truncating()
}
