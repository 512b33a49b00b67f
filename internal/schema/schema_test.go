package schema

import "testing"

func TestResolveFamily(t *testing.T) {
	cases := []struct {
		raw  string
		want TypeFamily
	}{
		{"integer", FamilyInteger},
		{"bigint", FamilyInteger},
		{"smallint", FamilyInteger},
		{"BIGSERIAL", FamilyInteger},
		{"character varying", FamilyText},
		{"VARCHAR(255)", FamilyText},
		{"text", FamilyText},
		{"char", FamilyText},
		{"boolean", FamilyBool},
		{"timestamp with time zone", FamilyTime},
		{"date", FamilyTime},
		{"time without time zone", FamilyTime},
		{"numeric(10,2)", FamilyFloat},
		{"decimal", FamilyFloat},
		{"double precision", FamilyFloat},
		{"real", FamilyFloat},
		{"json", FamilyJSON},
		{"jsonb", FamilyJSON},
		{"uuid", FamilyUUID},
		{"bytea", FamilyUnknown},
		{"inet", FamilyUnknown},
	}

	for _, c := range cases {
		if got := ResolveFamily(c.raw); got != c.want {
			t.Errorf("ResolveFamily(%q) = %s, want %s", c.raw, got, c.want)
		}
	}
}

func TestAutoAssigned(t *testing.T) {
	identity := ColumnInfo{Name: "id", Type: "integer", IsIdentity: true}
	if !identity.AutoAssigned() {
		t.Error("Expected identity column to be auto-assigned")
	}

	serial := ColumnInfo{Name: "id", Type: "integer", Default: "nextval('users_id_seq'::regclass)"}
	if !serial.AutoAssigned() {
		t.Error("Expected nextval-defaulted column to be auto-assigned")
	}

	plain := ColumnInfo{Name: "age", Type: "integer", Default: "0"}
	if plain.AutoAssigned() {
		t.Error("Expected column with plain default to not be auto-assigned")
	}

	noDefault := ColumnInfo{Name: "email", Type: "text"}
	if noDefault.AutoAssigned() {
		t.Error("Expected column without default to not be auto-assigned")
	}
}

func TestInsertColumnsSkipsAutoAssigned(t *testing.T) {
	ts := NewTableSchema("users")
	ts.AddColumn(ColumnInfo{Name: "id", Type: "integer", IsIdentity: true})
	ts.AddColumn(ColumnInfo{Name: "email", Type: "text"})
	ts.AddColumn(ColumnInfo{Name: "age", Type: "integer"})

	cols := ts.InsertColumns()
	if len(cols) != 2 {
		t.Fatalf("Expected 2 insert columns, got %d", len(cols))
	}
	if cols[0] != "email" || cols[1] != "age" {
		t.Errorf("Expected [email age] in declaration order, got %v", cols)
	}
}

func TestMarkUnique(t *testing.T) {
	ts := NewTableSchema("users")
	ts.AddColumn(ColumnInfo{Name: "email", Type: "text"})
	ts.MarkUnique("email")

	if !ts.IsUniqueColumn("email") {
		t.Error("Expected email to be unique after MarkUnique")
	}
	col, _ := ts.Column("email")
	if !col.IsUnique {
		t.Error("Expected column flag to be set as well")
	}
	if ts.IsUniqueColumn("missing") {
		t.Error("Expected unknown column to not be unique")
	}
}

func TestAddColumnResolvesFamily(t *testing.T) {
	ts := NewTableSchema("users")
	ts.AddColumn(ColumnInfo{Name: "email", Type: "character varying"})

	col, ok := ts.Column("email")
	if !ok {
		t.Fatal("Expected column to be found")
	}
	if col.Family != FamilyText {
		t.Errorf("Expected family to be resolved at load time, got %s", col.Family)
	}
}

func TestPrimaryKey(t *testing.T) {
	ts := NewTableSchema("users")
	ts.AddColumn(ColumnInfo{Name: "email", Type: "text"})
	if ts.PrimaryKey() != "" {
		t.Errorf("Expected no primary key, got %q", ts.PrimaryKey())
	}

	ts.AddColumn(ColumnInfo{Name: "id", Type: "integer", IsPrimary: true})
	if ts.PrimaryKey() != "id" {
		t.Errorf("Expected primary key 'id', got %q", ts.PrimaryKey())
	}
}
