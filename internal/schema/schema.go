package schema

import (
	"regexp"
	"strings"
)

// Schema maps table name -> table definition. It is built once by a
// database adapter and treated as read-only afterwards.
type Schema map[string]*TableSchema

type TableSchema struct {
	Name          string
	Columns       []ColumnInfo
	ForeignKeys   map[string]FKRef
	UniqueColumns map[string]struct{}
}

type ColumnInfo struct {
	Name       string
	Type       string
	Family     TypeFamily
	Nullable   bool
	Default    string
	IsIdentity bool
	IsPrimary  bool
	IsUnique   bool
}

type FKRef struct {
	ReferencesTable  string
	ReferencesColumn string
}

func NewTableSchema(name string) *TableSchema {
	return &TableSchema{
		Name:          name,
		ForeignKeys:   make(map[string]FKRef),
		UniqueColumns: make(map[string]struct{}),
	}
}

func (t *TableSchema) AddColumn(col ColumnInfo) {
	if col.Family == FamilyUnset {
		col.Family = ResolveFamily(col.Type)
	}
	t.Columns = append(t.Columns, col)
}

func (t *TableSchema) Column(name string) (*ColumnInfo, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

func (t *TableSchema) MarkUnique(column string) {
	t.UniqueColumns[column] = struct{}{}
	if col, ok := t.Column(column); ok {
		col.IsUnique = true
	}
}

// IsUniqueColumn reports whether the column carries a uniqueness
// constraint, either on the column itself or via the table's
// unique-constraint set.
func (t *TableSchema) IsUniqueColumn(name string) bool {
	if _, ok := t.UniqueColumns[name]; ok {
		return true
	}
	col, ok := t.Column(name)
	return ok && col.IsUnique
}

// PrimaryKey returns the name of the first primary key column, or ""
// when the table has none.
func (t *TableSchema) PrimaryKey() string {
	for i := range t.Columns {
		if t.Columns[i].IsPrimary {
			return t.Columns[i].Name
		}
	}
	return ""
}

var sequenceDefault = regexp.MustCompile(`(?i)^nextval\(|auto_increment|autoincrement`)

// AutoAssigned reports whether the database assigns this column's value
// itself. Such columns are never populated by the generator.
func (c *ColumnInfo) AutoAssigned() bool {
	if c.IsIdentity {
		return true
	}
	return c.Default != "" && sequenceDefault.MatchString(c.Default)
}

// InsertColumns returns the column names the generator populates, in
// declaration order.
func (t *TableSchema) InsertColumns() []string {
	var cols []string
	for i := range t.Columns {
		if t.Columns[i].AutoAssigned() {
			continue
		}
		cols = append(cols, t.Columns[i].Name)
	}
	return cols
}

// TypeFamily is the closed set of column type categories the generator
// dispatches on. It is resolved once from the raw catalog type string
// when the schema is extracted.
type TypeFamily int

const (
	FamilyUnset TypeFamily = iota
	FamilyInteger
	FamilyFloat
	FamilyText
	FamilyBool
	FamilyTime
	FamilyJSON
	FamilyUUID
	FamilyUnknown
)

func (f TypeFamily) String() string {
	switch f {
	case FamilyInteger:
		return "integer"
	case FamilyFloat:
		return "float"
	case FamilyText:
		return "text"
	case FamilyBool:
		return "boolean"
	case FamilyTime:
		return "time"
	case FamilyJSON:
		return "json"
	case FamilyUUID:
		return "uuid"
	default:
		return "unknown"
	}
}

// Numeric reports whether min/max range configuration is valid for the
// family.
func (f TypeFamily) Numeric() bool {
	return f == FamilyInteger || f == FamilyFloat
}

// ResolveFamily maps a raw database type string ("character varying",
// "BIGINT", "timestamp with time zone", ...) to its family. Matching is
// by keyword; json is checked before anything else so "jsonb" never
// falls through, and char/text before time so "character" never
// matches a date keyword.
func ResolveFamily(rawType string) TypeFamily {
	dtype := strings.ToLower(rawType)
	if idx := strings.Index(dtype, "("); idx > 0 {
		dtype = dtype[:idx]
	}

	switch {
	case strings.Contains(dtype, "json"):
		return FamilyJSON
	case strings.Contains(dtype, "uuid"):
		return FamilyUUID
	case strings.Contains(dtype, "char") || strings.Contains(dtype, "text"):
		return FamilyText
	case strings.Contains(dtype, "int") || strings.Contains(dtype, "serial"):
		return FamilyInteger
	case strings.Contains(dtype, "bool"):
		return FamilyBool
	case strings.Contains(dtype, "numeric") || strings.Contains(dtype, "decimal") ||
		strings.Contains(dtype, "double") || strings.Contains(dtype, "float") ||
		strings.Contains(dtype, "real"):
		return FamilyFloat
	case strings.Contains(dtype, "date") || strings.Contains(dtype, "time"):
		return FamilyTime
	default:
		return FamilyUnknown
	}
}
