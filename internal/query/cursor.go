package query

import (
	"strings"

	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
)

// Cursor is an immutable, typed pointer into a data source. Navigation
// derives new cursors functionally; two cursors at the same logical
// position are observationally equivalent. A cursor never owns the
// underlying model.
//
// The As*/Narrow/Field operations are total with respect to the type at the
// focus: calling a list operation on a non-list focus is a contract
// violation reported as a type-mismatch problem, not a domain error.
type Cursor interface {
	// Type is the static type at the focus.
	Type() *schema.Type
	// Path is the field path from the root, for problem reporting.
	Path() []string
	// Env returns the ambient bindings visible at the focus.
	Env() *Env
	// WithEnv derives a cursor with additional ambient bindings.
	WithEnv(env *Env) Cursor

	// IsLeaf reports whether the focus is a scalar or enum position.
	IsLeaf() bool
	// AsLeaf yields the value at a leaf focus.
	AsLeaf() result.Result[value.Value]

	// IsList reports whether the focus is list-typed.
	IsList() bool
	// AsList yields the ordered element cursors of a list focus.
	AsList() result.Result[[]Cursor]

	// IsNullable reports whether the focus may be null.
	IsNullable() bool
	// AsNullable yields the present cursor of a nullable focus, or nil for
	// null.
	AsNullable() result.Result[Cursor]

	// NarrowsTo reports whether the dynamic type at the focus conforms to
	// subtype.
	NarrowsTo(subtype *schema.Type) bool
	// Narrow yields a cursor at the given subtype.
	Narrow(subtype *schema.Type) result.Result[Cursor]

	// HasField reports whether the focus can navigate to the named field.
	HasField(name string) bool
	// Field navigates to the named field. resultName is the response key
	// the navigation is performed for, recorded on the derived path.
	Field(name, resultName string) result.Result[Cursor]
}

// ArgumentedCursor is implemented by cursors whose field navigation
// consumes selection arguments directly instead of relying on elaboration
// to rewrite them away.
type ArgumentedCursor interface {
	Cursor
	// FieldWith navigates to the named field, applying args.
	FieldWith(name, resultName string, args Bindings) result.Result[Cursor]
}

// TypeMismatch builds the distinguishable problem kind for cursor contract
// violations.
func TypeMismatch(c Cursor, format string, args ...any) *result.Problem {
	p := result.Problemf(format, args...)
	p.Message = "type mismatch at " + pathString(c) + ": " + p.Message
	return p
}

// IsTypeMismatch reports whether p was produced by TypeMismatch.
func IsTypeMismatch(p *result.Problem) bool {
	return strings.HasPrefix(p.Message, "type mismatch at ")
}

func pathString(c Cursor) string {
	if c == nil || len(c.Path()) == 0 {
		return "<root>"
	}
	return strings.Join(c.Path(), ".")
}

// Env is an immutable chain of ambient key/value bindings. The zero value
// (nil) is the empty environment.
type Env struct {
	parent *Env
	name   string
	val    any
}

// NewEnv builds an environment holding a single binding.
func NewEnv(name string, val any) *Env {
	return &Env{name: name, val: val}
}

// Add derives an environment with one more binding. Later bindings shadow
// earlier ones of the same name.
func (e *Env) Add(name string, val any) *Env {
	return &Env{parent: e, name: name, val: val}
}

// Extend layers every binding of other over e.
func (e *Env) Extend(other *Env) *Env {
	if other == nil {
		return e
	}
	base := e.Extend(other.parent)
	return base.Add(other.name, other.val)
}

// Lookup finds the innermost binding for name.
func (e *Env) Lookup(name string) (any, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.val, true
		}
	}
	return nil, false
}
