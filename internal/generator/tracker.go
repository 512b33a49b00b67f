package generator

// Tracker remembers every value emitted for a unique column during one
// run so later rows can be checked for collisions. It lives exactly as
// long as its Generator and is never persisted.
type Tracker struct {
	seen map[string]map[string]map[interface{}]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]map[string]map[interface{}]struct{})}
}

func (t *Tracker) Seen(table, column string, value interface{}) bool {
	cols, ok := t.seen[table]
	if !ok {
		return false
	}
	vals, ok := cols[column]
	if !ok {
		return false
	}
	_, ok = vals[value]
	return ok
}

func (t *Tracker) Record(table, column string, value interface{}) {
	cols, ok := t.seen[table]
	if !ok {
		cols = make(map[string]map[interface{}]struct{})
		t.seen[table] = cols
	}
	vals, ok := cols[column]
	if !ok {
		vals = make(map[interface{}]struct{})
		cols[column] = vals
	}
	vals[value] = struct{}{}
}

// Count returns how many distinct values have been recorded for the
// column.
func (t *Tracker) Count(table, column string) int {
	return len(t.seen[table][column])
}
