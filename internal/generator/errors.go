package generator

import "fmt"

// Kind classifies generation failures so the caller can decide the
// propagation policy from data instead of inspecting error types.
type Kind int

const (
	// KindConfig marks a user configuration that contradicts the
	// column's declared type.
	KindConfig Kind = iota
	// KindForeignKey marks a required foreign key with no parent ids
	// available.
	KindForeignKey
	// KindUnique marks a unique column whose retry budget was
	// exhausted without producing a fresh value.
	KindUnique
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindForeignKey:
		return "foreign key"
	case KindUnique:
		return "uniqueness"
	default:
		return "unknown"
	}
}

// Error is a generation failure tied to one table (and usually one
// column).
type Error struct {
	Kind   Kind
	Table  string
	Column string
	Detail string
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s error for %s.%s: %s", e.Kind, e.Table, e.Column, e.Detail)
	}
	return fmt.Sprintf("%s error for %s: %s", e.Kind, e.Table, e.Detail)
}

// Truncating reports whether the failure should stop generation for
// the current table only, keeping already generated rows and letting
// the run continue. All generation error kinds truncate; anything else
// that escapes the generator is fatal for the whole run.
func (e *Error) Truncating() bool {
	switch e.Kind {
	case KindConfig, KindForeignKey, KindUnique:
		return true
	}
	return false
}
