// Package interp executes elaborated query plans against cursors. The
// interpreter is generic over the data source: everything it knows about
// the model it learns through the query.Cursor interface, so the same walk
// serves in-memory fixtures, protobuf messages and remote components.
package interp

import (
	"context"
	"reflect"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/hanpama/cursorgraph/internal/introspection"
	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
)

// Run executes an elaborated plan against a root cursor and produces the
// JSON-shaped result object.
func Run(ctx context.Context, q query.Query, root query.Cursor) result.Result[map[string]any] {
	return runFields(ctx, q, root)
}

// runFields evaluates the field-level nodes: everything that contributes
// keys to the result object at the current focus.
func runFields(ctx context.Context, q query.Query, c query.Cursor) result.Result[map[string]any] {
	if err := ctx.Err(); err != nil {
		return result.Failf[map[string]any]("execution aborted: %s", err)
	}

	switch q := q.(type) {
	case *query.Select:
		return result.FlatMap(navigate(c, q), func(fc query.Cursor) result.Result[map[string]any] {
			return result.Map(runValue(ctx, q.Child, fc), func(v any) map[string]any {
				return map[string]any{q.ResultName(): v}
			})
		})

	case *query.Group:
		return runGroup(ctx, q, c)

	case *query.Narrow:
		if !c.NarrowsTo(q.Subtype) {
			return result.OK(map[string]any{})
		}
		return result.FlatMap(c.Narrow(q.Subtype), func(nc query.Cursor) result.Result[map[string]any] {
			return runFields(ctx, q.Child, nc)
		})

	case *query.UntypedNarrow:
		return result.Failf[map[string]any]("unresolved type condition %q; plan was not elaborated", q.TypeName)

	case *query.Skip:
		if q.When {
			return result.OK(map[string]any{})
		}
		return runFields(ctx, q.Child, c)

	case *query.Wrap:
		return result.Map(runValue(ctx, q.Child, c), func(v any) map[string]any {
			return map[string]any{q.Name: v}
		})

	case *query.Rename:
		return result.FlatMap(runFields(ctx, q.Child, c), func(m map[string]any) result.Result[map[string]any] {
			if len(m) != 1 {
				return result.Failf[map[string]any]("cannot rename a selection producing %d fields", len(m))
			}
			for _, v := range m {
				return result.OK(map[string]any{q.Name: v})
			}
			return result.OK(map[string]any{})
		})

	case *query.Environment:
		return runFields(ctx, q.Child, c.WithEnv(q.Env))

	case *query.TransformCursor:
		return result.FlatMap(q.Transform(ctx, c), func(tc query.Cursor) result.Result[map[string]any] {
			return runFields(ctx, q.Child, tc)
		})

	case *query.Component:
		return result.FlatMap(q.Join(ctx, c, q.Child), func(jq query.Query) result.Result[map[string]any] {
			return q.Target.RunQuery(ctx, jq)
		})

	case *query.Effect:
		return result.FlatMap(q.Handler.RunEffect(ctx, q.Child, c), func(ec query.Cursor) result.Result[map[string]any] {
			// The handler consumed the selection arguments.
			child := q.Child
			if sel, ok := child.(*query.Select); ok && len(sel.Args) > 0 {
				stripped := *sel
				stripped.Args = nil
				child = &stripped
			}
			return runFields(ctx, child, ec)
		})

	case *query.Introspect:
		return runIntrospect(ctx, q, c)

	case *query.Skipped:
		return result.OK(map[string]any{})
	case *query.Empty:
		return result.OK(map[string]any{})
	}
	return result.Failf[map[string]any]("misplaced query node %T in field position", q)
}

func runGroup(ctx context.Context, q *query.Group, c query.Cursor) result.Result[map[string]any] {
	results := make([]result.Result[map[string]any], len(q.Children))
	g, gctx := errgroup.WithContext(ctx)
	for i, child := range q.Children {
		g.Go(func() error {
			results[i] = runFields(gctx, child, c)
			return nil
		})
	}
	// Problems travel in the results slice, never through the group.
	_ = g.Wait()

	merged := map[string]any{}
	var problems result.Problems
	for _, r := range results {
		if !r.IsOK() {
			problems = append(problems, r.Problems()...)
			continue
		}
		for k, v := range r.Value() {
			if prev, exists := merged[k]; exists {
				if !reflect.DeepEqual(prev, v) {
					problems = append(problems, result.Problemf("conflicting values for field %q", k))
				}
				continue
			}
			merged[k] = v
		}
	}
	if len(problems) > 0 {
		return result.FailAll[map[string]any](problems)
	}
	return result.OK(merged)
}

func runIntrospect(ctx context.Context, q *query.Introspect, c query.Cursor) result.Result[map[string]any] {
	if sel, ok := q.Child.(*query.Select); ok && sel.Name == "__typename" {
		return result.OK(map[string]any{sel.ResultName(): dynamicTypeName(q.Schema, c)})
	}
	return runFields(ctx, q.Child, introspection.Root(q.Schema))
}

// runValue evaluates the subtree below a navigated field. List-shaping
// nodes run against the resolved list focus; everything else follows the
// shape of the cursor.
func runValue(ctx context.Context, q query.Query, c query.Cursor) result.Result[any] {
	switch q := q.(type) {
	case *query.Environment:
		return runValue(ctx, q.Child, c.WithEnv(q.Env))
	case *query.TransformCursor:
		return result.FlatMap(q.Transform(ctx, c), func(tc query.Cursor) result.Result[any] {
			return runValue(ctx, q.Child, tc)
		})
	}

	nullable := c.IsNullable()
	if nullable {
		inner := c.AsNullable()
		if !inner.IsOK() {
			return result.FailAll[any](inner.Problems())
		}
		if inner.Value() == nil {
			return result.OK[any](nil)
		}
		c = inner.Value()
	}

	switch q := q.(type) {
	case *query.Unique:
		return runUnique(ctx, q, c, nullable)
	case *query.Filter, *query.Limit, *query.Offset, *query.OrderBy:
		return result.FlatMap(shapeList(ctx, q, c), func(sh shaped) result.Result[any] {
			return mapElements(ctx, sh.rest, sh.elems)
		})
	case *query.Count:
		return result.FlatMap(shapeList(ctx, q.Child, c), func(sh shaped) result.Result[any] {
			return result.OK[any](len(sh.elems))
		})
	}

	if c.IsList() {
		return result.FlatMap(c.AsList(), func(elems []query.Cursor) result.Result[any] {
			return mapElements(ctx, q, elems)
		})
	}

	if c.IsLeaf() {
		switch q.(type) {
		case *query.Empty, *query.Skipped:
			return result.FlatMap(c.AsLeaf(), func(v value.Value) result.Result[any] {
				return result.OK(value.ToJSON(v))
			})
		}
		return result.Fail[any](query.TypeMismatch(c, "selection on a leaf position"))
	}

	return result.Map(runFields(ctx, q, c), func(m map[string]any) any { return m })
}

// runUnique expects exactly one element. Zero elements resolve to null when
// the focus is nullable; only a non-nullable focus makes emptiness fatal,
// and more than one element is always fatal.
func runUnique(ctx context.Context, q *query.Unique, c query.Cursor, nullable bool) result.Result[any] {
	return result.FlatMap(shapeList(ctx, q.Child, c), func(sh shaped) result.Result[any] {
		switch len(sh.elems) {
		case 1:
			return runValue(ctx, sh.rest, sh.elems[0])
		case 0:
			if nullable {
				return result.OK[any](nil)
			}
			return result.Fail[any](query.TypeMismatch(c, "expected a single element, found none"))
		}
		return result.Fail[any](query.TypeMismatch(c, "expected a single element, found %d", len(sh.elems)))
	})
}

type shaped struct {
	elems []query.Cursor
	rest  query.Query
}

// shapeList resolves the focus to its elements and folds the leading chain
// of list-shaping nodes over them, returning the surviving elements and the
// per-element remainder of the plan.
func shapeList(ctx context.Context, q query.Query, c query.Cursor) result.Result[shaped] {
	elemsR := c.AsList()
	if !elemsR.IsOK() {
		return result.FailAll[shaped](elemsR.Problems())
	}
	elems := elemsR.Value()

	for {
		switch node := q.(type) {
		case *query.Filter:
			kept, problems := filterElements(node.Pred, elems)
			if len(problems) > 0 {
				return result.FailAll[shaped](problems)
			}
			elems, q = kept, node.Child

		case *query.Limit:
			if node.N < len(elems) {
				elems = elems[:node.N]
			}
			q = node.Child

		case *query.Offset:
			if node.N >= len(elems) {
				elems = nil
			} else {
				elems = elems[node.N:]
			}
			q = node.Child

		case *query.OrderBy:
			sorted, problems := orderElements(node.Keys, elems)
			if len(problems) > 0 {
				return result.FailAll[shaped](problems)
			}
			elems, q = sorted, node.Child

		default:
			return result.OK(shaped{elems: elems, rest: q})
		}
	}
}

func filterElements(pred query.Predicate, elems []query.Cursor) ([]query.Cursor, result.Problems) {
	var kept []query.Cursor
	var problems result.Problems
	for _, elem := range elems {
		r := pred.Apply(elem)
		if !r.IsOK() {
			problems = append(problems, r.Problems()...)
			continue
		}
		if r.Value() {
			kept = append(kept, elem)
		}
	}
	return kept, problems
}

func orderElements(keys []query.OrderKey, elems []query.Cursor) ([]query.Cursor, result.Problems) {
	type keyed struct {
		cursor query.Cursor
		vals   []value.Value
	}
	out := make([]keyed, len(elems))
	var problems result.Problems
	for i, elem := range elems {
		out[i].cursor = elem
		out[i].vals = make([]value.Value, len(keys))
		for j, key := range keys {
			r := key.Path.Leaf(elem)
			if !r.IsOK() {
				problems = append(problems, r.Problems()...)
				continue
			}
			out[i].vals[j] = r.Value()
		}
	}
	if len(problems) > 0 {
		return nil, problems
	}
	sort.SliceStable(out, func(i, j int) bool {
		for k, key := range keys {
			cmp := query.Compare(out[i].vals[k], out[j].vals[k])
			if key.Descending {
				cmp = -cmp
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	sorted := make([]query.Cursor, len(out))
	for i, k := range out {
		sorted[i] = k.cursor
	}
	return sorted, nil
}

func mapElements(ctx context.Context, q query.Query, elems []query.Cursor) result.Result[any] {
	out := make([]any, len(elems))
	var problems result.Problems
	for i, elem := range elems {
		r := runValue(ctx, q, elem)
		if !r.IsOK() {
			problems = append(problems, r.Problems()...)
			continue
		}
		out[i] = r.Value()
	}
	if len(problems) > 0 {
		return result.FailAll[any](problems)
	}
	return result.OK[any](out)
}

func navigate(c query.Cursor, sel *query.Select) result.Result[query.Cursor] {
	if len(sel.Args) > 0 {
		if ac, ok := c.(query.ArgumentedCursor); ok {
			return ac.FieldWith(sel.Name, sel.ResultName(), sel.Args)
		}
		return result.Fail[query.Cursor](query.TypeMismatch(c, "field %q does not accept arguments here", sel.Name))
	}
	return c.Field(sel.Name, sel.ResultName())
}

// dynamicTypeName resolves __typename: the concrete type the focus narrows
// to at abstract positions, the declared type otherwise.
func dynamicTypeName(s *schema.Schema, c query.Cursor) string {
	t := c.Type()
	if t.NonNull() {
		t = t.Unwrap()
	}
	d := t.Dealias()
	if d == nil {
		return ""
	}
	if d.Kind == schema.KindInterface || d.Kind == schema.KindUnion {
		for _, name := range s.ConcreteSubtypes(d) {
			if sub := s.Definition(name); sub != nil && c.NarrowsTo(sub) {
				return name
			}
		}
	}
	return d.Name
}
