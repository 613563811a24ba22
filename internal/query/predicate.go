package query

import (
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/value"
)

// Predicate is a boolean test over a cursor, used by Filter and evaluated
// per element of a list focus.
type Predicate interface {
	Apply(c Cursor) result.Result[bool]
}

// Path names a chain of fields from a focus down to a leaf.
type Path []string

// Leaf walks the path and reads the leaf value at its end. Null positions
// along the way yield Null rather than failing.
func (p Path) Leaf(c Cursor) result.Result[value.Value] {
	cur := c
	for _, name := range p {
		if cur.IsNullable() {
			r := cur.AsNullable()
			if !r.IsOK() {
				return result.FailAll[value.Value](r.Problems())
			}
			if r.Value() == nil {
				return result.OK[value.Value](value.Null{})
			}
			cur = r.Value()
		}
		r := cur.Field(name, name)
		if !r.IsOK() {
			return result.FailAll[value.Value](r.Problems())
		}
		cur = r.Value()
	}
	if cur.IsNullable() {
		r := cur.AsNullable()
		if !r.IsOK() {
			return result.FailAll[value.Value](r.Problems())
		}
		if r.Value() == nil {
			return result.OK[value.Value](value.Null{})
		}
		cur = r.Value()
	}
	return cur.AsLeaf()
}

// Eql holds when the leaf at Path equals Value.
type Eql struct {
	Path  Path
	Value value.Value
}

func (p Eql) Apply(c Cursor) result.Result[bool] {
	return result.Map(p.Path.Leaf(c), func(v value.Value) bool {
		return valueEq(v, p.Value)
	})
}

// In holds when the leaf at Path equals any of Values.
type In struct {
	Path   Path
	Values []value.Value
}

func (p In) Apply(c Cursor) result.Result[bool] {
	return result.Map(p.Path.Leaf(c), func(v value.Value) bool {
		for _, candidate := range p.Values {
			if valueEq(v, candidate) {
				return true
			}
		}
		return false
	})
}

// And holds when every member holds. The empty conjunction holds.
type And []Predicate

func (ps And) Apply(c Cursor) result.Result[bool] {
	for _, p := range ps {
		r := p.Apply(c)
		if !r.IsOK() {
			return r
		}
		if !r.Value() {
			return result.OK(false)
		}
	}
	return result.OK(true)
}

// Or holds when any member holds. The empty disjunction does not hold.
type Or []Predicate

func (ps Or) Apply(c Cursor) result.Result[bool] {
	for _, p := range ps {
		r := p.Apply(c)
		if !r.IsOK() {
			return r
		}
		if r.Value() {
			return result.OK(true)
		}
	}
	return result.OK(false)
}

// Not negates its operand.
type Not struct {
	Pred Predicate
}

func (p Not) Apply(c Cursor) result.Result[bool] {
	return result.Map(p.Pred.Apply(c), func(b bool) bool { return !b })
}

// valueEq compares coerced leaf values, treating ID and String
// representations of the same text as equal and Int/Float numerically.
func valueEq(a, b value.Value) bool {
	if ta, ok := textOf(a); ok {
		if tb, ok := textOf(b); ok {
			return ta == tb
		}
		return false
	}
	if na, ok := numOf(a); ok {
		if nb, ok := numOf(b); ok {
			return na == nb
		}
		return false
	}
	switch av := a.(type) {
	case value.Boolean:
		bv, ok := b.(value.Boolean)
		return ok && av == bv
	case value.Enum:
		bv, ok := b.(value.Enum)
		return ok && av == bv
	case value.Null:
		_, ok := b.(value.Null)
		return ok
	}
	return false
}

func textOf(v value.Value) (string, bool) {
	switch v := v.(type) {
	case value.Str:
		return string(v), true
	case value.ID:
		return string(v), true
	}
	return "", false
}

func numOf(v value.Value) (float64, bool) {
	switch v := v.(type) {
	case value.Int:
		return float64(v), true
	case value.Float:
		return float64(v), true
	}
	return 0, false
}

// Compare orders two leaf values for OrderBy: numbers numerically, text
// lexicographically, booleans false<true, nulls first. Mixed kinds compare
// equal.
func Compare(a, b value.Value) int {
	if na, ok := numOf(a); ok {
		if nb, ok := numOf(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := textOf(a); ok {
		if tb, ok := textOf(b); ok {
			switch {
			case ta < tb:
				return -1
			case ta > tb:
				return 1
			}
			return 0
		}
	}
	if ea, ok := a.(value.Enum); ok {
		if eb, ok := b.(value.Enum); ok {
			switch {
			case ea.Name < eb.Name:
				return -1
			case ea.Name > eb.Name:
				return 1
			}
			return 0
		}
	}
	if ba, ok := a.(value.Boolean); ok {
		if bb, ok := b.(value.Boolean); ok {
			switch {
			case !bool(ba) && bool(bb):
				return -1
			case bool(ba) && !bool(bb):
				return 1
			}
			return 0
		}
	}
	_, aNull := a.(value.Null)
	_, bNull := b.(value.Null)
	switch {
	case aNull && !bNull:
		return -1
	case !aNull && bNull:
		return 1
	}
	return 0
}
