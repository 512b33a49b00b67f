package generator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lumenfill/dbfill/internal/config"
	"github.com/lumenfill/dbfill/internal/schema"
)

func floatPtr(f float64) *float64 { return &f }

func customersSchema() schema.Schema {
	customers := schema.NewTableSchema("customers")
	customers.AddColumn(schema.ColumnInfo{Name: "id", Type: "integer", IsIdentity: true, IsPrimary: true})
	customers.AddColumn(schema.ColumnInfo{Name: "email", Type: "character varying"})
	customers.AddColumn(schema.ColumnInfo{Name: "full_name", Type: "text"})
	customers.AddColumn(schema.ColumnInfo{Name: "age", Type: "integer"})
	customers.AddColumn(schema.ColumnInfo{Name: "balance", Type: "numeric"})
	customers.AddColumn(schema.ColumnInfo{Name: "active", Type: "boolean"})
	customers.AddColumn(schema.ColumnInfo{Name: "created_at", Type: "timestamp without time zone"})
	customers.AddColumn(schema.ColumnInfo{Name: "settings", Type: "jsonb"})
	customers.AddColumn(schema.ColumnInfo{Name: "blob", Type: "bytea"})
	customers.MarkUnique("email")

	orders := schema.NewTableSchema("orders")
	orders.AddColumn(schema.ColumnInfo{Name: "id", Type: "integer", IsIdentity: true, IsPrimary: true})
	orders.AddColumn(schema.ColumnInfo{Name: "customer_id", Type: "integer"})
	orders.AddColumn(schema.ColumnInfo{Name: "note_id", Type: "integer", Nullable: true})
	orders.ForeignKeys["customer_id"] = schema.FKRef{ReferencesTable: "customers", ReferencesColumn: "id"}
	orders.ForeignKeys["note_id"] = schema.FKRef{ReferencesTable: "notes", ReferencesColumn: "id"}

	return schema.Schema{"customers": customers, "orders": orders}
}

func TestIdentityColumnNeverPopulated(t *testing.T) {
	g := New(customersSchema())

	row, err := g.GenerateRow("customers", nil, nil)
	if err != nil {
		t.Fatalf("GenerateRow failed: %v", err)
	}
	if _, ok := row["id"]; ok {
		t.Error("Expected identity column to be absent from the generated row")
	}
	if len(row) != 8 {
		t.Errorf("Expected 8 generated columns, got %d: %v", len(row), row)
	}
}

func TestForeignKeyDrawnFromPool(t *testing.T) {
	g := New(customersSchema())
	pool := []interface{}{int64(1), int64(2), int64(3)}
	pools := map[string][]interface{}{"customers": pool, "notes": {int64(9)}}

	for i := 0; i < 100; i++ {
		row, err := g.GenerateRow("orders", pools, nil)
		if err != nil {
			t.Fatalf("GenerateRow failed: %v", err)
		}
		got := row["customer_id"]
		if got != int64(1) && got != int64(2) && got != int64(3) {
			t.Fatalf("Expected customer_id from pool, got %v", got)
		}
	}
}

func TestEmptyPoolNullableForeignKey(t *testing.T) {
	g := New(customersSchema())
	pools := map[string][]interface{}{"customers": {int64(1)}}

	row, err := g.GenerateRow("orders", pools, nil)
	if err != nil {
		t.Fatalf("GenerateRow failed: %v", err)
	}
	if row["note_id"] != nil {
		t.Errorf("Expected nil for nullable FK with empty pool, got %v", row["note_id"])
	}
}

func TestEmptyPoolRequiredForeignKey(t *testing.T) {
	g := New(customersSchema())

	_, err := g.GenerateRow("orders", map[string][]interface{}{}, nil)
	if err == nil {
		t.Fatal("Expected an error for required FK with empty pool")
	}
	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if genErr.Kind != KindForeignKey {
		t.Errorf("Expected foreign key kind, got %s", genErr.Kind)
	}
	if !genErr.Truncating() {
		t.Error("Expected FK error to be truncating")
	}
	if !strings.Contains(err.Error(), "customers") {
		t.Errorf("Expected error to name the parent table, got: %v", err)
	}
}

func TestUniqueEmailsNeverCollide(t *testing.T) {
	g := New(customersSchema())

	seen := make(map[interface{}]bool, 1000)
	for i := 0; i < 1000; i++ {
		row, err := g.GenerateRow("customers", nil, nil)
		if err != nil {
			t.Fatalf("GenerateRow failed on row %d: %v", i, err)
		}
		email := row["email"]
		if email == nil {
			t.Fatalf("Expected non-nil email for non-nullable unique column, row %d", i)
		}
		if seen[email] {
			t.Fatalf("Duplicate email %v on row %d", email, i)
		}
		seen[email] = true
	}
}

func TestInvertedRangeClampsToMin(t *testing.T) {
	g := New(customersSchema())
	cfgs := map[string]config.ColumnConfig{
		"age": {Name: "age", MinValue: floatPtr(50), MaxValue: floatPtr(10)},
	}

	for i := 0; i < 50; i++ {
		row, err := g.GenerateRow("customers", nil, cfgs)
		if err != nil {
			t.Fatalf("GenerateRow failed: %v", err)
		}
		if row["age"] != int64(50) {
			t.Fatalf("Expected clamped value 50, got %v", row["age"])
		}
	}
}

func TestValueSetMembership(t *testing.T) {
	g := New(customersSchema())
	cfgs := map[string]config.ColumnConfig{
		"full_name": {Name: "full_name", Values: []interface{}{"active", "closed"}},
	}

	for i := 0; i < 50; i++ {
		row, err := g.GenerateRow("customers", nil, cfgs)
		if err != nil {
			t.Fatalf("GenerateRow failed: %v", err)
		}
		v := row["full_name"]
		if v != "active" && v != "closed" {
			t.Fatalf("Expected value from configured set, got %v", v)
		}
	}
}

func TestValueSetTypeMismatchOnIntegerColumn(t *testing.T) {
	g := New(customersSchema())
	cfgs := map[string]config.ColumnConfig{
		"age": {Name: "age", Values: []interface{}{"active", "closed"}},
	}

	err := g.ValidateColumnConfigs("customers", cfgs)
	if err == nil {
		t.Fatal("Expected a configuration error before generating rows")
	}
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Kind != KindConfig {
		t.Fatalf("Expected configuration error, got %v", err)
	}
}

func TestValueSetAcceptsIntegralJSONNumbers(t *testing.T) {
	g := New(customersSchema())

	// encoding/json decodes 18 and 65 as float64
	ok := map[string]config.ColumnConfig{
		"age": {Name: "age", Values: []interface{}{float64(18), float64(65)}},
	}
	if err := g.ValidateColumnConfigs("customers", ok); err != nil {
		t.Fatalf("Expected integral float64 values to pass, got %v", err)
	}

	bad := map[string]config.ColumnConfig{
		"age": {Name: "age", Values: []interface{}{float64(1.5)}},
	}
	if err := g.ValidateColumnConfigs("customers", bad); err == nil {
		t.Fatal("Expected fractional value on integer column to fail")
	}
}

func TestRangeOnTextColumnIsConfigError(t *testing.T) {
	g := New(customersSchema())
	cfgs := map[string]config.ColumnConfig{
		"full_name": {Name: "full_name", MinValue: floatPtr(1), MaxValue: floatPtr(10)},
	}

	if err := g.ValidateColumnConfigs("customers", cfgs); err == nil {
		t.Fatal("Expected a configuration error for range on text column")
	}

	_, err := g.GenerateRow("customers", nil, cfgs)
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Kind != KindConfig {
		t.Fatalf("Expected configuration error at generation time too, got %v", err)
	}
}

func TestFloatRangeHonored(t *testing.T) {
	g := New(customersSchema())
	cfgs := map[string]config.ColumnConfig{
		"balance": {Name: "balance", MinValue: floatPtr(10), MaxValue: floatPtr(20)},
	}

	for i := 0; i < 50; i++ {
		row, err := g.GenerateRow("customers", nil, cfgs)
		if err != nil {
			t.Fatalf("GenerateRow failed: %v", err)
		}
		v, ok := row["balance"].(float64)
		if !ok {
			t.Fatalf("Expected float64 balance, got %T", row["balance"])
		}
		if v < 10 || v > 20 {
			t.Fatalf("Expected balance in [10, 20], got %v", v)
		}
	}
}

func TestTypeFamilySynthesis(t *testing.T) {
	g := New(customersSchema())

	row, err := g.GenerateRow("customers", nil, nil)
	if err != nil {
		t.Fatalf("GenerateRow failed: %v", err)
	}

	if _, ok := row["age"].(int64); !ok {
		t.Errorf("Expected int64 for integer column, got %T", row["age"])
	}
	if _, ok := row["active"].(bool); !ok {
		t.Errorf("Expected bool for boolean column, got %T", row["active"])
	}
	if row["settings"] != "{}" {
		t.Errorf("Expected empty object literal for json column, got %v", row["settings"])
	}
	ts, ok := row["created_at"].(time.Time)
	if !ok {
		t.Fatalf("Expected time.Time for timestamp column, got %T", row["created_at"])
	}
	if ts.After(time.Now()) || ts.Before(time.Now().AddDate(-1, 0, -1)) {
		t.Errorf("Expected timestamp within the last year, got %v", ts)
	}
	email, ok := row["email"].(string)
	if !ok || !strings.Contains(email, "@") {
		t.Errorf("Expected synthesized email address, got %v", row["email"])
	}
	blob, ok := row["blob"].(string)
	if !ok || blob == "" {
		t.Errorf("Expected generic word for unrecognized type, got %v", row["blob"])
	}
	name, ok := row["full_name"].(string)
	if !ok || len(name) == 0 || len(name) > 50 {
		t.Errorf("Expected bounded text for name column, got %v", row["full_name"])
	}
}

func TestUniqueExhaustedOnNonTextColumn(t *testing.T) {
	s := schema.Schema{}
	users := schema.NewTableSchema("users")
	users.AddColumn(schema.ColumnInfo{Name: "code", Type: "integer"})
	users.MarkUnique("code")
	s["users"] = users

	g := New(s)
	cfgs := map[string]config.ColumnConfig{
		"code": {Name: "code", Values: []interface{}{7}},
	}

	if _, err := g.GenerateRow("users", nil, cfgs); err != nil {
		t.Fatalf("First row should succeed: %v", err)
	}

	_, err := g.GenerateRow("users", nil, cfgs)
	if err == nil {
		t.Fatal("Expected uniqueness exhaustion error")
	}
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Kind != KindUnique {
		t.Fatalf("Expected uniqueness error, got %v", err)
	}
	if !genErr.Truncating() {
		t.Error("Expected uniqueness error to be truncating")
	}
}

func TestUniqueTextFallbackAppendsSuffix(t *testing.T) {
	s := schema.Schema{}
	users := schema.NewTableSchema("users")
	users.AddColumn(schema.ColumnInfo{Name: "slug", Type: "text"})
	users.MarkUnique("slug")
	s["users"] = users

	g := New(s)
	cfgs := map[string]config.ColumnConfig{
		"slug": {Name: "slug", Values: []interface{}{"only"}},
	}

	first, err := g.GenerateRow("users", nil, cfgs)
	if err != nil {
		t.Fatalf("First row failed: %v", err)
	}
	if first["slug"] != "only" {
		t.Fatalf("Expected first row to use the configured value, got %v", first["slug"])
	}

	seen := map[interface{}]bool{first["slug"]: true}
	for i := 0; i < 20; i++ {
		row, err := g.GenerateRow("users", nil, cfgs)
		if err != nil {
			t.Fatalf("Fallback row %d failed: %v", i, err)
		}
		slug, ok := row["slug"].(string)
		if !ok || !strings.HasPrefix(slug, "only_") {
			t.Fatalf("Expected suffixed fallback value, got %v", row["slug"])
		}
		if seen[slug] {
			t.Fatalf("Fallback value %q collided", slug)
		}
		seen[slug] = true
	}

	if got := g.Tracker().Count("users", "slug"); got != 21 {
		t.Errorf("Expected 21 tracked values (1 base + 20 fallbacks), got %d", got)
	}
}

func TestNullableColumnsGetNullsInjected(t *testing.T) {
	s := schema.Schema{}
	users := schema.NewTableSchema("users")
	users.AddColumn(schema.ColumnInfo{Name: "nickname", Type: "text", Nullable: true})
	s["users"] = users

	g := New(s)
	nulls, values := 0, 0
	for i := 0; i < 500; i++ {
		row, err := g.GenerateRow("users", nil, nil)
		if err != nil {
			t.Fatalf("GenerateRow failed: %v", err)
		}
		if row["nickname"] == nil {
			nulls++
		} else {
			values++
		}
	}
	if nulls == 0 {
		t.Error("Expected some nulls to be injected for a nullable column")
	}
	if values == 0 {
		t.Error("Expected some non-null values for a nullable column")
	}
}

func TestUnknownTable(t *testing.T) {
	g := New(customersSchema())
	if _, err := g.GenerateRow("missing", nil, nil); err == nil {
		t.Error("Expected an error for an unknown table")
	}
}
