// Package query defines the algebra compiled queries are made of, the
// cursor abstraction the interpreter walks, and the predicate language used
// by filtering and ordering nodes.
//
// The node set is closed: every consumer (elaborator, size validator,
// interpreter) switches exhaustively over it, so adding a kind is a
// whole-program change.
package query

import (
	"context"

	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
)

// Query is one node of the immutable plan tree. Each node owns its children
// outright; there is no sharing and no cycles.
type Query interface {
	isQuery()
}

// Binding is a coerced argument bound to a selection.
type Binding struct {
	Name  string
	Value value.Value
}

// Bindings is an ordered argument list.
type Bindings []Binding

// Get returns the named binding's value and whether it is present.
func (bs Bindings) Get(name string) (value.Value, bool) {
	for _, b := range bs {
		if b.Name == name {
			return b.Value, true
		}
	}
	return nil, false
}

// Select navigates to a named field, binding coerced arguments, and runs
// Child over the narrowed focus. Alias, when non-empty, is the result key.
type Select struct {
	Name  string
	Alias string
	Args  Bindings
	Child Query
}

// ResultName is the key the selection contributes to the result object.
func (s *Select) ResultName() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// Group fans out sibling selections over the same focus and merges their
// result objects.
type Group struct {
	Children []Query
}

// Unique asserts that its list-valued child yields exactly one element and
// unwraps it.
type Unique struct {
	Child Query
}

// Filter keeps the elements of a list focus for which Pred holds.
type Filter struct {
	Pred  Predicate
	Child Query
}

// Component crosses into another mapping: Join derives the query to run
// against Target's root from the parent cursor, and the target's result is
// spliced back in.
type Component struct {
	Target Backend
	Join   JoinFunc
	Child  Query
}

// Effect crosses into a side-effecting resolver. The handler's continuation
// cursor is what Child runs against.
type Effect struct {
	Handler EffectHandler
	Child   Query
}

// Introspect answers from schema metadata rather than the data model.
type Introspect struct {
	Schema *schema.Schema
	Child  Query
}

// Environment attaches ambient bindings visible to every descendant.
type Environment struct {
	Env   *Env
	Child Query
}

// Wrap labels its child's result under Name in the parent object.
type Wrap struct {
	Name  string
	Child Query
}

// Rename relabels the result key produced by its child selection.
type Rename struct {
	Name  string
	Child Query
}

// UntypedNarrow restricts the focus to a subtype known only by name;
// elaboration resolves it to a Narrow.
type UntypedNarrow struct {
	TypeName string
	Child    Query
}

// Narrow restricts the focus to a statically resolved subtype. Child runs
// only when the dynamic type of the focus conforms.
type Narrow struct {
	Subtype *schema.Type
	Child   Query
}

// Skip conditionally omits its child from the result entirely (absent, not
// null) when When is true.
type Skip struct {
	When  bool
	Child Query
}

// Limit truncates a list focus to the first N elements.
type Limit struct {
	N     int
	Child Query
}

// Offset drops the first N elements of a list focus.
type Offset struct {
	N     int
	Child Query
}

// OrderBy sorts a list focus by successive leaf paths.
type OrderBy struct {
	Keys  []OrderKey
	Child Query
}

// OrderKey is one ordering term: a leaf path and a direction.
type OrderKey struct {
	Path       Path
	Descending bool
}

// Count replaces its child's result with the number of elements the child's
// focus yields.
type Count struct {
	Child Query
}

// TransformCursor rewrites the cursor before continuing with Child.
type TransformCursor struct {
	Transform CursorTransform
	Child     Query
}

// Skipped is the terminal node of a selection omitted at compile time.
type Skipped struct{}

// Empty contributes nothing to the result.
type Empty struct{}

func (*Select) isQuery()          {}
func (*Group) isQuery()           {}
func (*Unique) isQuery()          {}
func (*Filter) isQuery()          {}
func (*Component) isQuery()       {}
func (*Effect) isQuery()          {}
func (*Introspect) isQuery()      {}
func (*Environment) isQuery()     {}
func (*Wrap) isQuery()            {}
func (*Rename) isQuery()          {}
func (*UntypedNarrow) isQuery()   {}
func (*Narrow) isQuery()          {}
func (*Skip) isQuery()            {}
func (*Limit) isQuery()           {}
func (*Offset) isQuery()          {}
func (*OrderBy) isQuery()         {}
func (*Count) isQuery()           {}
func (*TransformCursor) isQuery() {}
func (*Skipped) isQuery()         {}
func (*Empty) isQuery()           {}

// Backend is what a Component target must provide: the ability to run a
// compiled query against its own root and yield a JSON-shaped result tree.
type Backend interface {
	RunQuery(ctx context.Context, q Query) result.Result[map[string]any]
}

// JoinFunc derives the query to run against a Component target from the
// parent cursor and the component's sub-query.
type JoinFunc func(ctx context.Context, parent Cursor, child Query) result.Result[Query]

// EffectHandler performs a side effect and returns the cursor the effect's
// sub-query continues against.
type EffectHandler interface {
	RunEffect(ctx context.Context, q Query, c Cursor) result.Result[Cursor]
}

// CursorTransform is an arbitrary cursor rewrite applied by TransformCursor.
type CursorTransform func(ctx context.Context, c Cursor) result.Result[Cursor]
