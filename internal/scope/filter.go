package scope

import (
	"strings"
)

// Columns that scoping rules filter on. They name columns of the scoped
// resource's own table.
const (
	ColAssignedUserID = "assigned_user_id"
	ColAssignedRole   = "assigned_role"
	ColApartmentID    = "apartment_id"
	ColUserID         = "user_id"
	ColGuestCedula    = "guest_cedula"
	ColReportedBy     = "reported_by"
)

// Cond requires Column to equal one of Values.
type Cond struct {
	Column string
	Values []string
}

// Eq is a condition matching a single value.
func Eq(column, value string) Cond {
	return Cond{Column: column, Values: []string{value}}
}

// In is a condition matching any of values. An empty set matches nothing.
func In(column string, values []string) Cond {
	return Cond{Column: column, Values: values}
}

// Filter is a row predicate: unrestricted, always false, or a conjunction of conditions.
// The zero value matches nothing; only All grants unrestricted access.
type Filter struct {
	all   bool
	conds []Cond
}

// All returns a filter that matches every row.
func All() Filter {
	return Filter{all: true}
}

// None returns a filter that matches no rows.
func None() Filter {
	return Filter{}
}

// Where returns a filter matching rows that satisfy every condition.
// A condition with no values or an empty value collapses the filter to None.
func Where(conds ...Cond) Filter {
	if len(conds) == 0 {
		return None()
	}
	for _, c := range conds {
		if len(c.Values) == 0 {
			return None()
		}
		for _, v := range c.Values {
			if v == "" {
				return None()
			}
		}
	}
	return Filter{conds: conds}
}

// Denies reports whether the filter matches nothing.
func (f Filter) Denies() bool {
	return !f.all && len(f.conds) == 0
}

// Unrestricted reports whether the filter matches every row.
func (f Filter) Unrestricted() bool {
	return f.all
}

// Conds returns the conjunction's conditions.
func (f Filter) Conds() []Cond {
	return f.conds
}

// SQL renders the filter as a WHERE fragment with positional args.
func (f Filter) SQL() (string, []any) {
	return f.QualifiedSQL("")
}

// QualifiedSQL is SQL with every column prefixed by the given table alias.
func (f Filter) QualifiedSQL(alias string) (string, []any) {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}

	if f.all {
		return "1 = 1", nil
	}
	if f.Denies() {
		return "1 = 0", nil
	}

	var parts []string
	var args []any
	for _, c := range f.conds {
		if len(c.Values) == 1 {
			parts = append(parts, prefix+c.Column+" = ?")
			args = append(args, c.Values[0])
			continue
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(c.Values)), ", ")
		parts = append(parts, prefix+c.Column+" IN ("+placeholders+")")
		for _, v := range c.Values {
			args = append(args, v)
		}
	}
	return strings.Join(parts, " AND "), args
}

// Match evaluates the filter against a row. get returns the column value and
// false when the column is NULL; NULL never satisfies a condition.
func (f Filter) Match(get func(column string) (string, bool)) bool {
	if f.all {
		return true
	}
	if f.Denies() {
		return false
	}
	for _, c := range f.conds {
		v, ok := get(c.Column)
		if !ok || !contains(c.Values, v) {
			return false
		}
	}
	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
