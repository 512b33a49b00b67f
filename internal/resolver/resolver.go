package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lumenfill/dbfill/internal/schema"
)

// CircularDependencyError reports the tables that could not be placed
// in the insertion order because they participate in (or sit behind) a
// foreign-key cycle.
type CircularDependencyError struct {
	Tables []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency or unresolved references detected involving tables: %s",
		strings.Join(e.Tables, ", "))
}

// Resolve returns the order in which tables must be populated so that
// every foreign key target exists before its referencing rows.
//
// An edge parent -> child is added for every foreign key whose target
// table is part of the schema and is not the owning table itself.
// Self-references are dropped on purpose: the table is still ordered,
// the caller has to insert a null self-reference and patch afterwards.
//
// Ties between tables that become ready at the same time are broken by
// name so the output is reproducible across runs.
func Resolve(s schema.Schema) ([]string, error) {
	children := make(map[string]map[string]struct{}, len(s))
	inDegree := make(map[string]int, len(s))
	for name := range s {
		inDegree[name] = 0
	}

	for child, table := range s {
		for _, fk := range table.ForeignKeys {
			parent := fk.ReferencesTable
			if parent == child {
				continue
			}
			if _, ok := s[parent]; !ok {
				continue
			}
			if children[parent] == nil {
				children[parent] = make(map[string]struct{})
			}
			if _, seen := children[parent][child]; seen {
				continue
			}
			children[parent][child] = struct{}{}
			inDegree[child]++
		}
	}

	var ready []string
	for name, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	ordered := make([]string, 0, len(s))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		ordered = append(ordered, node)

		var unlocked []string
		for child := range children[node] {
			inDegree[child]--
			if inDegree[child] == 0 {
				unlocked = append(unlocked, child)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}

	if len(ordered) != len(s) {
		placed := make(map[string]struct{}, len(ordered))
		for _, name := range ordered {
			placed[name] = struct{}{}
		}
		var remaining []string
		for name := range s {
			if _, ok := placed[name]; !ok {
				remaining = append(remaining, name)
			}
		}
		sort.Strings(remaining)
		return nil, &CircularDependencyError{Tables: remaining}
	}

	return ordered, nil
}
