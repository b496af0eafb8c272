package realtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter is a PostgREST style row filter such as "group_id=eq.5". The zero
// Filter matches every row.
type Filter struct {
	Column string
	Op     string
	Value  string
}

var ops = map[string]bool{"eq": true, "neq": true, "gt": true, "gte": true, "lt": true, "lte": true}

func ParseFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	col, rest, ok := strings.Cut(expr, "=")
	if !ok || col == "" {
		return Filter{}, fmt.Errorf("invalid filter %q: want column=op.value", expr)
	}
	op, value, ok := strings.Cut(rest, ".")
	if !ok || !ops[op] {
		return Filter{}, fmt.Errorf("invalid filter %q: unknown operator %q", expr, op)
	}
	return Filter{Column: col, Op: op, Value: value}, nil
}

func (f Filter) String() string {
	if f.Column == "" {
		return ""
	}
	return f.Column + "=" + f.Op + "." + f.Value
}

// Matches compares numerically when both sides are numbers and as text
// otherwise. A missing column never matches.
func (f Filter) Matches(record map[string]any) bool {
	if f.Column == "" {
		return true
	}
	raw, ok := record[f.Column]
	if !ok || raw == nil {
		return false
	}
	got := fmt.Sprint(raw)

	var c int
	a, errA := strconv.ParseFloat(got, 64)
	b, errB := strconv.ParseFloat(f.Value, 64)
	if errA == nil && errB == nil {
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	} else {
		c = strings.Compare(got, f.Value)
	}

	switch f.Op {
	case "eq":
		return c == 0
	case "neq":
		return c != 0
	case "gt":
		return c > 0
	case "gte":
		return c >= 0
	case "lt":
		return c < 0
	case "lte":
		return c <= 0
	}
	return false
}
