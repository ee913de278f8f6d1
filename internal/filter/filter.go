// Package filter provides a small filter-expression AST for scoping index
// queries. Expressions are composed in code and rendered to the backend's
// string DSL only at the boundary, so query planning stays testable without
// a live index.
package filter

import (
	"fmt"
	"strings"
)

// Expr is a boolean restriction over a record's fields.
type Expr interface {
	// Render serialises the expression into the backend filter DSL.
	Render() string
	// Matches evaluates the expression against a flat field map.
	Matches(fields map[string]string) bool
}

type eq struct {
	field string
	value string
}

// Eq restricts a field to an exact value.
func Eq(field, value string) Expr { return eq{field: field, value: value} }

func (e eq) Render() string {
	return fmt.Sprintf("%s:%q", e.field, e.value)
}

func (e eq) Matches(fields map[string]string) bool {
	return fields[e.field] == e.value
}

type and struct{ exprs []Expr }

// And requires every sub-expression to hold. And() with no arguments matches
// everything.
func And(exprs ...Expr) Expr { return and{exprs: compact(exprs)} }

func (a and) Render() string { return join(a.exprs, " AND ") }

func (a and) Matches(fields map[string]string) bool {
	for _, e := range a.exprs {
		if !e.Matches(fields) {
			return false
		}
	}
	return true
}

type or struct{ exprs []Expr }

// Or requires at least one sub-expression to hold. Or() with no arguments
// matches nothing.
func Or(exprs ...Expr) Expr { return or{exprs: compact(exprs)} }

func (o or) Render() string { return join(o.exprs, " OR ") }

func (o or) Matches(fields map[string]string) bool {
	for _, e := range o.exprs {
		if e.Matches(fields) {
			return true
		}
	}
	return false
}

// In restricts a field to any of the given values.
func In(field string, values ...string) Expr {
	exprs := make([]Expr, 0, len(values))
	for _, v := range values {
		exprs = append(exprs, Eq(field, v))
	}
	return Or(exprs...)
}

func compact(exprs []Expr) []Expr {
	out := exprs[:0]
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func join(exprs []Expr, sep string) string {
	if len(exprs) == 0 {
		return ""
	}
	if len(exprs) == 1 {
		return exprs[0].Render()
	}
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		r := e.Render()
		if r == "" {
			continue
		}
		parts = append(parts, r)
	}
	return "(" + strings.Join(parts, sep) + ")"
}
