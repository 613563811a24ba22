package compiler

import (
	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
)

// Rewrite transforms one compiled Select whose child has already been
// elaborated. Returning the Select unchanged keeps the default plan.
type Rewrite func(sel *query.Select, child query.Query) result.Result[query.Query]

// Elaborator rewrites compiled algebra into an executable plan. Steps are
// registered per field, keyed by the owning type; fields without a step
// pass through unchanged. Elaboration also resolves type conditions,
// turning UntypedNarrow into Narrow.
type Elaborator struct {
	schema *schema.Schema
	steps  map[string]Rewrite
}

// NewElaborator creates an Elaborator with no registered steps.
func NewElaborator(s *schema.Schema) *Elaborator {
	return &Elaborator{schema: s, steps: map[string]Rewrite{}}
}

// Bind registers the rewrite step for fieldName on typeName, replacing any
// previous step for the same field.
func (e *Elaborator) Bind(typeName, fieldName string, fn Rewrite) {
	e.steps[typeName+"."+fieldName] = fn
}

// Elaborate rewrites q bottom-up, tracking the static type each subtree
// selects against. Rewrite output is taken as already elaborated.
func (e *Elaborator) Elaborate(q query.Query, tpe *schema.Type) result.Result[query.Query] {
	switch q := q.(type) {
	case *query.Select:
		return e.elaborateSelect(q, tpe)

	case *query.Group:
		children := make([]result.Result[query.Query], len(q.Children))
		for i, child := range q.Children {
			children[i] = e.Elaborate(child, tpe)
		}
		return result.Map(result.Combine(children...), func(qs []query.Query) query.Query {
			return &query.Group{Children: qs}
		})

	case *query.UntypedNarrow:
		subtype := e.schema.Definition(q.TypeName)
		if subtype == nil {
			return result.Failf[query.Query]("unknown type %q in type condition", q.TypeName)
		}
		return result.Map(e.Elaborate(q.Child, subtype), func(child query.Query) query.Query {
			return &query.Narrow{Subtype: subtype, Child: child}
		})

	case *query.Narrow:
		return result.Map(e.Elaborate(q.Child, q.Subtype), func(child query.Query) query.Query {
			return &query.Narrow{Subtype: q.Subtype, Child: child}
		})

	case *query.Unique:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Unique{Child: child}
		})
	case *query.Filter:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Filter{Pred: q.Pred, Child: child}
		})
	case *query.Component:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Component{Target: q.Target, Join: q.Join, Child: child}
		})
	case *query.Effect:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Effect{Handler: q.Handler, Child: child}
		})
	case *query.Environment:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Environment{Env: q.Env, Child: child}
		})
	case *query.Wrap:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Wrap{Name: q.Name, Child: child}
		})
	case *query.Rename:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Rename{Name: q.Name, Child: child}
		})
	case *query.Skip:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Skip{When: q.When, Child: child}
		})
	case *query.Limit:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Limit{N: q.N, Child: child}
		})
	case *query.Offset:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Offset{N: q.N, Child: child}
		})
	case *query.OrderBy:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.OrderBy{Keys: q.Keys, Child: child}
		})
	case *query.Count:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.Count{Child: child}
		})
	case *query.TransformCursor:
		return result.Map(e.Elaborate(q.Child, tpe), func(child query.Query) query.Query {
			return &query.TransformCursor{Transform: q.Transform, Child: child}
		})

	case *query.Introspect:
		// Meta selections address the introspection model, not the mapping.
		return result.OK[query.Query](q)
	case *query.Skipped:
		return result.OK[query.Query](q)
	case *query.Empty:
		return result.OK[query.Query](q)
	}
	return result.Failf[query.Query]("unhandled query node %T", q)
}

func (e *Elaborator) elaborateSelect(sel *query.Select, tpe *schema.Type) result.Result[query.Query] {
	if tpe == nil {
		return result.Failf[query.Query]("no type context for field %q", sel.Name)
	}
	fieldDef := tpe.FieldByName(sel.Name)
	if fieldDef == nil {
		return result.Failf[query.Query]("type %q has no field %q", tpe.Name, sel.Name)
	}

	childType := fieldDef.Type.UnderlyingObject()
	return result.FlatMap(e.Elaborate(sel.Child, childType), func(child query.Query) result.Result[query.Query] {
		next := &query.Select{Name: sel.Name, Alias: sel.Alias, Args: sel.Args, Child: child}
		if step, ok := e.steps[tpe.Name+"."+sel.Name]; ok {
			r := step(next, child)
			if !r.IsOK() {
				return r
			}
			if r.Value() == nil {
				return result.Failf[query.Query]("elaboration of %s.%s produced no plan", tpe.Name, sel.Name)
			}
			return r
		}
		return result.OK[query.Query](next)
	})
}
