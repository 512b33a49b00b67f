package generator

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lumenfill/dbfill/internal/config"
	"github.com/lumenfill/dbfill/internal/schema"
)

const (
	// uniqueRetryBudget bounds how often a unique column's value is
	// re-rolled before the fallback/failure path kicks in.
	uniqueRetryBudget = 10
	// nullChance is the probability of injecting NULL into a nullable
	// column that is not otherwise bound.
	nullChance = 0.1

	defaultIntMin   = int64(1)
	defaultIntMax   = int64(10000)
	defaultFloatMin = 0.0
	defaultFloatMax = 1000.0
	maxTextChars    = 50
)

// Generator synthesizes rows that satisfy a table's schema constraints
// and the user's per-column configuration. It owns the uniqueness
// tracker for the run; no state is shared outside of it.
type Generator struct {
	schema  schema.Schema
	tracker *Tracker
	faker   *faker
	rand    *rand.Rand
}

func New(s schema.Schema) *Generator {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Generator{
		schema:  s,
		tracker: NewTracker(),
		faker:   newFaker(r),
		rand:    r,
	}
}

// Tracker exposes the run's uniqueness tracker, mainly for inspection
// in tests.
func (g *Generator) Tracker() *Tracker {
	return g.tracker
}

// GenerateRow synthesizes one row for the table. fkPools maps a
// referenced table name to the ids currently available in it;
// columnConfigs carries the user's per-column overrides.
//
// The returned row holds a value (possibly nil) for every column the
// database does not assign itself.
func (g *Generator) GenerateRow(table string, fkPools map[string][]interface{}, columnConfigs map[string]config.ColumnConfig) (map[string]interface{}, error) {
	ts, ok := g.schema[table]
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", table)
	}

	row := make(map[string]interface{}, len(ts.Columns))

	for i := range ts.Columns {
		col := &ts.Columns[i]
		if col.AutoAssigned() {
			continue
		}

		if fk, isFK := ts.ForeignKeys[col.Name]; isFK {
			ids := fkPools[fk.ReferencesTable]
			if len(ids) == 0 {
				if col.Nullable {
					row[col.Name] = nil
					continue
				}
				return nil, &Error{
					Kind:   KindForeignKey,
					Table:  table,
					Column: col.Name,
					Detail: fmt.Sprintf("no rows found in referenced table %s", fk.ReferencesTable),
				}
			}
			row[col.Name] = ids[g.rand.Intn(len(ids))]
			continue
		}

		cfg, hasCfg := columnConfigs[col.Name]

		if !ts.IsUniqueColumn(col.Name) {
			val, err := g.generateValue(table, col, cfg, hasCfg)
			if err != nil {
				return nil, err
			}
			row[col.Name] = val
			continue
		}

		res, err := g.generateUnique(table, col, cfg, hasCfg)
		if err != nil {
			return nil, err
		}
		if res.status == uniqueFallback {
			color.Yellow("  ⚠️  unique retries exhausted for %s.%s, appended numeric suffix", table, col.Name)
		}
		row[col.Name] = res.value
	}

	return row, nil
}

// ValidateColumnConfigs checks the user's overrides for a table against
// the column types before any row is generated. Configs naming columns
// the table does not have are ignored.
func (g *Generator) ValidateColumnConfigs(table string, columnConfigs map[string]config.ColumnConfig) error {
	ts, ok := g.schema[table]
	if !ok {
		return fmt.Errorf("unknown table: %s", table)
	}

	for name, cfg := range columnConfigs {
		col, ok := ts.Column(name)
		if !ok {
			continue
		}
		if len(cfg.Values) > 0 {
			for _, v := range cfg.Values {
				if err := checkValueKind(table, col, v); err != nil {
					return err
				}
			}
			continue
		}
		if (cfg.MinValue != nil || cfg.MaxValue != nil) && !col.Family.Numeric() {
			return &Error{
				Kind:   KindConfig,
				Table:  table,
				Column: col.Name,
				Detail: fmt.Sprintf("min_value/max_value configured for type %q, ranges are only supported for numeric columns", col.Type),
			}
		}
	}
	return nil
}

type uniqueStatus int

const (
	uniqueOK uniqueStatus = iota
	uniqueFallback
)

type uniqueResult struct {
	value  interface{}
	status uniqueStatus
}

// generateUnique re-rolls a value until it has not been emitted before,
// within the retry budget. Text columns degrade to a random 4-digit
// suffix on the last candidate; other families give up with an error.
// Accepted non-null values are recorded before returning.
func (g *Generator) generateUnique(table string, col *schema.ColumnInfo, cfg config.ColumnConfig, hasCfg bool) (uniqueResult, error) {
	var last interface{}
	for attempt := 0; attempt < uniqueRetryBudget; attempt++ {
		val, err := g.generateValue(table, col, cfg, hasCfg)
		if err != nil {
			return uniqueResult{}, err
		}
		if val == nil {
			return uniqueResult{value: nil, status: uniqueOK}, nil
		}
		if !g.tracker.Seen(table, col.Name, val) {
			g.tracker.Record(table, col.Name, val)
			return uniqueResult{value: val, status: uniqueOK}, nil
		}
		last = val
	}

	if col.Family == schema.FamilyText {
		base := fmt.Sprint(last)
		for i := 0; ; i++ {
			candidate := fmt.Sprintf("%s_%d", base, 1000+g.rand.Intn(9000))
			if !g.tracker.Seen(table, col.Name, candidate) {
				g.tracker.Record(table, col.Name, candidate)
				return uniqueResult{value: candidate, status: uniqueFallback}, nil
			}
			// suffix space for this base is filling up, grow the base
			if i%100 == 99 {
				base = candidate
			}
		}
	}

	return uniqueResult{}, &Error{
		Kind:   KindUnique,
		Table:  table,
		Column: col.Name,
		Detail: fmt.Sprintf("could not generate a unique value after %d attempts", uniqueRetryBudget),
	}
}

// generateValue runs the non-FK part of the per-column procedure: null
// injection, value-set and range overrides, then type-driven synthesis.
func (g *Generator) generateValue(table string, col *schema.ColumnInfo, cfg config.ColumnConfig, hasCfg bool) (interface{}, error) {
	if col.Nullable && g.rand.Float64() < nullChance {
		return nil, nil
	}

	if hasCfg && len(cfg.Values) > 0 {
		val := cfg.Values[g.rand.Intn(len(cfg.Values))]
		if err := checkValueKind(table, col, val); err != nil {
			return nil, err
		}
		return coerceValue(col, val), nil
	}

	if hasCfg && (cfg.MinValue != nil || cfg.MaxValue != nil) && !col.Family.Numeric() {
		return nil, &Error{
			Kind:   KindConfig,
			Table:  table,
			Column: col.Name,
			Detail: fmt.Sprintf("min_value/max_value configured for type %q, ranges are only supported for numeric columns", col.Type),
		}
	}

	switch col.Family {
	case schema.FamilyInteger:
		min, max := defaultIntMin, defaultIntMax
		if hasCfg && cfg.MinValue != nil {
			min = int64(*cfg.MinValue)
		}
		if hasCfg && cfg.MaxValue != nil {
			max = int64(*cfg.MaxValue)
		}
		if min > max {
			// inverted range degrades to the lower bound instead of
			// failing the run
			max = min
		}
		return g.faker.intBetween(min, max), nil
	case schema.FamilyFloat:
		min, max := defaultFloatMin, defaultFloatMax
		if hasCfg && cfg.MinValue != nil {
			min = *cfg.MinValue
		}
		if hasCfg && cfg.MaxValue != nil {
			max = *cfg.MaxValue
		}
		if min > max {
			max = min
		}
		return g.faker.floatBetween(min, max), nil
	case schema.FamilyText:
		return g.textValue(col), nil
	case schema.FamilyBool:
		return g.faker.boolean(), nil
	case schema.FamilyTime:
		return g.faker.timestamp(), nil
	case schema.FamilyJSON:
		return "{}", nil
	case schema.FamilyUUID:
		return g.faker.uuid(), nil
	default:
		return g.faker.word(), nil
	}
}

// textValue synthesizes text using the column name as a hint.
func (g *Generator) textValue(col *schema.ColumnInfo) string {
	name := strings.ToLower(col.Name)
	switch {
	case strings.Contains(name, "email"):
		return g.faker.email()
	case strings.Contains(name, "name"):
		return g.faker.name()
	default:
		return g.faker.text(maxTextChars)
	}
}

// checkValueKind validates a configured candidate value against the
// column's type family. Mismatches are configuration errors, never
// silent coercions.
func checkValueKind(table string, col *schema.ColumnInfo, val interface{}) error {
	mismatch := func() error {
		return &Error{
			Kind:   KindConfig,
			Table:  table,
			Column: col.Name,
			Detail: fmt.Sprintf("column type is %q but configured value %v is %T", col.Type, val, val),
		}
	}

	switch col.Family {
	case schema.FamilyInteger:
		if !isIntegerLike(val) {
			return mismatch()
		}
	case schema.FamilyFloat:
		if !isNumberLike(val) {
			return mismatch()
		}
	case schema.FamilyBool:
		if _, ok := val.(bool); !ok {
			return mismatch()
		}
	}
	// text/char columns accept anything convertible to text
	return nil
}

// coerceValue converts a validated config value into the shape the
// driver expects for the column.
func coerceValue(col *schema.ColumnInfo, val interface{}) interface{} {
	switch col.Family {
	case schema.FamilyInteger:
		return asInt64(val)
	case schema.FamilyText:
		if s, ok := val.(string); ok {
			return s
		}
		return fmt.Sprint(val)
	default:
		return val
	}
}

// isIntegerLike accepts Go integers plus JSON/YAML numbers that carry
// an integral value (encoding/json decodes every number as float64).
func isIntegerLike(val interface{}) bool {
	switch v := val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == math.Trunc(v)
	case float32:
		return float64(v) == math.Trunc(float64(v))
	default:
		return false
	}
}

func isNumberLike(val interface{}) bool {
	switch val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func asInt64(val interface{}) int64 {
	switch v := val.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
