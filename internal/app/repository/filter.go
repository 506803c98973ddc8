package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Predicate is one column comparison in a Filter.
type Predicate struct {
	Column string
	Op     string
	Value  interface{}
}

func (p Predicate) clause() string {
	switch p.Op {
	case "IS NULL", "IS NOT NULL":
		return fmt.Sprintf("%s %s", p.Column, p.Op)
	case "IN":
		return fmt.Sprintf("%s IN ?", p.Column)
	default:
		return fmt.Sprintf("%s %s ?", p.Column, p.Op)
	}
}

func (p Predicate) hasValue() bool {
	return p.Op != "IS NULL" && p.Op != "IS NOT NULL"
}

// Filter is an ordered list of predicates plus ordering and limit. It is
// built as plain data so callers can inspect or render a query before it
// runs.
type Filter struct {
	predicates []Predicate
	orderBy    string
	limit      int
}

func NewFilter() *Filter {
	return &Filter{}
}

func (f *Filter) add(column, op string, value interface{}) *Filter {
	f.predicates = append(f.predicates, Predicate{Column: column, Op: op, Value: value})
	return f
}

func (f *Filter) Eq(column string, value interface{}) *Filter  { return f.add(column, "=", value) }
func (f *Filter) Lt(column string, value interface{}) *Filter  { return f.add(column, "<", value) }
func (f *Filter) Gt(column string, value interface{}) *Filter  { return f.add(column, ">", value) }
func (f *Filter) Gte(column string, value interface{}) *Filter { return f.add(column, ">=", value) }
func (f *Filter) Lte(column string, value interface{}) *Filter { return f.add(column, "<=", value) }
func (f *Filter) In(column string, values interface{}) *Filter { return f.add(column, "IN", values) }
func (f *Filter) IsNull(column string) *Filter                 { return f.add(column, "IS NULL", nil) }
func (f *Filter) NotNull(column string) *Filter                { return f.add(column, "IS NOT NULL", nil) }

func (f *Filter) OrderBy(order string) *Filter {
	f.orderBy = order
	return f
}

func (f *Filter) Limit(n int) *Filter {
	f.limit = n
	return f
}

// Predicates returns a copy of the predicate list.
func (f *Filter) Predicates() []Predicate {
	out := make([]Predicate, len(f.predicates))
	copy(out, f.predicates)
	return out
}

// HasColumn reports whether any predicate constrains column.
func (f *Filter) HasColumn(column string) bool {
	for _, p := range f.predicates {
		if p.Column == column {
			return true
		}
	}
	return false
}

// SQL returns the WHERE expression and its bind arguments.
func (f *Filter) SQL() (string, []interface{}) {
	clauses := make([]string, 0, len(f.predicates))
	args := make([]interface{}, 0, len(f.predicates))
	for _, p := range f.predicates {
		clauses = append(clauses, p.clause())
		if p.hasValue() {
			args = append(args, p.Value)
		}
	}
	return strings.Join(clauses, " AND "), args
}

// Where adds only the predicates to a gorm query, for counts.
func (f *Filter) Where(db *gorm.DB) *gorm.DB {
	for _, p := range f.predicates {
		if p.hasValue() {
			db = db.Where(p.clause(), p.Value)
		} else {
			db = db.Where(p.clause())
		}
	}
	return db
}

// Apply adds the whole filter to a gorm query.
func (f *Filter) Apply(db *gorm.DB) *gorm.DB {
	db = f.Where(db)
	if f.orderBy != "" {
		db = db.Order(f.orderBy)
	}
	if f.limit > 0 {
		db = db.Limit(f.limit)
	}
	return db
}

// String renders the filter with inlined values, one clause per line.
func (f *Filter) String() string {
	var b strings.Builder
	for i, p := range f.predicates {
		if i == 0 {
			b.WriteString("WHERE ")
		} else {
			b.WriteString("  AND ")
		}
		clause := p.clause()
		if p.hasValue() {
			clause = strings.Replace(clause, "?", renderValue(p.Value), 1)
		}
		b.WriteString(clause)
		b.WriteString("\n")
	}
	if f.orderBy != "" {
		fmt.Fprintf(&b, "ORDER BY %s\n", f.orderBy)
	}
	if f.limit > 0 {
		fmt.Fprintf(&b, "LIMIT %d\n", f.limit)
	}
	return b.String()
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case time.Time:
		return "'" + val.UTC().Format(time.RFC3339) + "'"
	case []string:
		quoted := make([]string, len(val))
		for i, s := range val {
			quoted[i] = renderValue(s)
		}
		return "(" + strings.Join(quoted, ", ") + ")"
	case []uint:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = fmt.Sprintf("%d", n)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprintf("%v", val)
	}
}
