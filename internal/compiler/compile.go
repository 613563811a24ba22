// Package compiler turns parsed query documents into the query algebra,
// applies mapping-specific elaboration, and enforces structural size
// limits on the elaborated plan.
package compiler

import (
	"strconv"

	"github.com/hanpama/cursorgraph/internal/language"
	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
)

// Compiler compiles operations of one schema into untyped algebra.
type Compiler struct {
	schema *schema.Schema
}

// New creates a Compiler for the given schema.
func New(s *schema.Schema) *Compiler {
	return &Compiler{schema: s}
}

// Operation is a compiled operation: the algebra plus the root type it
// executes against.
type Operation struct {
	Kind     language.Operation
	RootType *schema.Type
	Query    query.Query
}

// Compile selects the named operation (or the only one when unnamed),
// coerces its variables from decoded JSON, and compiles its selection set.
func (c *Compiler) Compile(doc *language.QueryDocument, operationName string, vars map[string]any) result.Result[*Operation] {
	op := getOperation(doc, operationName)
	if op == nil {
		return result.Failf[*Operation]("operation %q not found", operationName)
	}

	var rootType *schema.Type
	switch op.Operation {
	case language.Query:
		rootType = c.schema.Query()
	case language.Mutation:
		rootType = c.schema.Mutation()
	case language.Subscription:
		rootType = c.schema.Subscription()
	}
	if rootType == nil {
		return result.Failf[*Operation]("schema does not define a root type for %s operations", op.Operation)
	}

	return result.FlatMap(value.CoerceVariables(c.schema, op, vars), func(coerced map[string]value.Value) result.Result[*Operation] {
		cc := &compileContext{
			schema:    c.schema,
			fragments: doc.Fragments,
			vars:      coerced,
		}
		return result.Map(cc.compileSelectionSet(rootType, op.SelectionSet, nil), func(q query.Query) *Operation {
			return &Operation{Kind: op.Operation, RootType: rootType, Query: q}
		})
	})
}

func getOperation(doc *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	return doc.Operations.ForName(operationName)
}

type compileContext struct {
	schema    *schema.Schema
	fragments language.FragmentDefinitionList
	vars      map[string]value.Value
}

// compileSelectionSet compiles sibling selections over tpe, accumulating
// problems across independent siblings before failing.
func (cc *compileContext) compileSelectionSet(tpe *schema.Type, selSet language.SelectionSet, visited map[string]bool) result.Result[query.Query] {
	var children []result.Result[query.Query]
	for _, sel := range selSet {
		switch sel := sel.(type) {
		case *language.Field:
			children = append(children, cc.compileField(tpe, sel))
		case *language.InlineFragment:
			children = append(children, cc.compileFragment(tpe, sel.TypeCondition, sel.SelectionSet, sel.Directives, visited))
		case *language.FragmentSpread:
			if visited[sel.Name] {
				continue
			}
			def := cc.fragments.ForName(sel.Name)
			if def == nil {
				children = append(children, result.Failf[query.Query]("fragment %q is not defined", sel.Name))
				continue
			}
			nextVisited := map[string]bool{sel.Name: true}
			for k := range visited {
				nextVisited[k] = true
			}
			directives := append(language.DirectiveList{}, sel.Directives...)
			directives = append(directives, def.Directives...)
			children = append(children, cc.compileFragment(tpe, def.TypeCondition, def.SelectionSet, directives, nextVisited))
		}
	}
	return result.Map(result.Combine(children...), func(qs []query.Query) query.Query {
		compact := qs[:0]
		for _, q := range qs {
			if _, empty := q.(*query.Empty); empty {
				continue
			}
			compact = append(compact, q)
		}
		switch len(compact) {
		case 0:
			return &query.Empty{}
		case 1:
			return compact[0]
		}
		return &query.Group{Children: compact}
	})
}

func (cc *compileContext) compileField(tpe *schema.Type, field *language.Field) result.Result[query.Query] {
	if field.Name == "__typename" || field.Name == "__schema" || field.Name == "__type" {
		return cc.compileIntrospection(field)
	}

	fieldDef := tpe.FieldByName(field.Name)
	if fieldDef == nil {
		return result.Fail[query.Query](language.ProblemAtPosition(field.Position,
			"cannot query field %q on type %q", field.Name, tpe.Name))
	}

	bindings := cc.bindArguments(fieldDef, field)
	if !bindings.IsOK() {
		return result.FailAll[query.Query](bindings.Problems())
	}

	var child result.Result[query.Query]
	if obj := fieldDef.Type.UnderlyingObject(); obj != nil {
		if len(field.SelectionSet) == 0 {
			return result.Fail[query.Query](language.ProblemAtPosition(field.Position,
				"field %q of type %q must have a selection set", field.Name, tpe.Name))
		}
		child = cc.compileSelectionSet(obj, field.SelectionSet, nil)
	} else {
		if len(field.SelectionSet) > 0 {
			return result.Fail[query.Query](language.ProblemAtPosition(field.Position,
				"field %q of type %q cannot have a selection set", field.Name, tpe.Name))
		}
		child = result.OK[query.Query](&query.Empty{})
	}

	return result.FlatMap(child, func(childQ query.Query) result.Result[query.Query] {
		var q query.Query = &query.Select{
			Name:  field.Name,
			Alias: field.Alias,
			Args:  bindings.Value(),
			Child: childQ,
		}
		return cc.applyConditionDirectives(q, field.Directives)
	})
}

// bindArguments reconciles supplied argument literals against the field's
// declared argument signature, applying defaults for omitted arguments.
// Problems across independent arguments accumulate.
func (cc *compileContext) bindArguments(fieldDef *schema.Field, field *language.Field) result.Result[query.Bindings] {
	var problems result.Problems
	for _, arg := range field.Arguments {
		known := false
		for _, def := range fieldDef.Args {
			if def.Name == arg.Name {
				known = true
				break
			}
		}
		if !known {
			problems = append(problems, language.ProblemAtPosition(arg.Position,
				"unknown argument %q on field %q", arg.Name, field.Name))
		}
	}
	var bindings query.Bindings
	for _, def := range fieldDef.Args {
		var lit *language.Value
		if supplied := field.Arguments.ForName(def.Name); supplied != nil {
			lit = supplied.Value
		}
		r := value.CoerceLiteral(cc.schema, def, lit, cc.vars)
		if !r.IsOK() {
			problems = append(problems, r.Problems()...)
			continue
		}
		if _, absent := r.Value().(value.Absent); absent {
			continue
		}
		bindings = append(bindings, query.Binding{Name: def.Name, Value: r.Value()})
	}
	if len(problems) > 0 {
		return result.FailAll[query.Bindings](problems)
	}
	return result.OK(bindings)
}

func (cc *compileContext) compileFragment(tpe *schema.Type, condition string, selSet language.SelectionSet, directives language.DirectiveList, visited map[string]bool) result.Result[query.Query] {
	target := tpe
	if condition != "" && condition != tpe.Name {
		cond := cc.schema.Definition(condition)
		if cond == nil {
			return result.Failf[query.Query]("unknown type %q in fragment condition", condition)
		}
		target = cond
	}
	return result.FlatMap(cc.compileSelectionSet(target, selSet, visited), func(child query.Query) result.Result[query.Query] {
		var q query.Query = child
		if condition != "" && condition != tpe.Name {
			q = &query.UntypedNarrow{TypeName: condition, Child: child}
		}
		return cc.applyConditionDirectives(q, directives)
	})
}

// applyConditionDirectives resolves @skip/@include, whose conditions are
// decidable once variables are coerced. A statically excluded node becomes
// Skipped; an included one keeps a Skip wrapper only when a directive was
// present, preserving the omit-entirely result semantics.
func (cc *compileContext) applyConditionDirectives(q query.Query, directives language.DirectiveList) result.Result[query.Query] {
	omit := false
	conditioned := false
	for _, name := range []string{"skip", "include"} {
		d := directives.ForName(name)
		if d == nil {
			continue
		}
		arg := d.Arguments.ForName("if")
		if arg == nil {
			return result.Failf[query.Query]("directive @%s requires argument %q", name, "if")
		}
		cond, ok := cc.boolArgument(arg.Value)
		if !ok {
			return result.Failf[query.Query]("argument %q of directive @%s must be a Boolean", "if", name)
		}
		conditioned = true
		if name == "skip" && cond {
			omit = true
		}
		if name == "include" && !cond {
			omit = true
		}
	}
	if !conditioned {
		return result.OK(q)
	}
	if omit {
		return result.OK[query.Query](&query.Skipped{})
	}
	return result.OK[query.Query](&query.Skip{When: false, Child: q})
}

func (cc *compileContext) boolArgument(lit *language.Value) (bool, bool) {
	if lit == nil {
		return false, false
	}
	switch lit.Kind {
	case language.BooleanValue:
		return lit.Raw == "true", true
	case language.Variable:
		if v, ok := cc.vars[lit.Raw]; ok {
			if b, ok := v.(value.Boolean); ok {
				return bool(b), true
			}
		}
	}
	return false, false
}

// compileIntrospection routes the meta fields to Introspect nodes. Their
// sub-selections address the meta model, which the introspection backend
// types for itself, so they compile without schema lookups.
func (cc *compileContext) compileIntrospection(field *language.Field) result.Result[query.Query] {
	return result.Map(cc.compileMetaSelectionSet(field.SelectionSet), func(child query.Query) query.Query {
		return &query.Introspect{
			Schema: cc.schema,
			Child: &query.Select{
				Name:  field.Name,
				Alias: field.Alias,
				Args:  cc.metaBindings(field.Arguments),
				Child: child,
			},
		}
	})
}

func (cc *compileContext) compileMetaSelectionSet(selSet language.SelectionSet) result.Result[query.Query] {
	var children []result.Result[query.Query]
	for _, sel := range selSet {
		field, ok := sel.(*language.Field)
		if !ok {
			children = append(children, result.Failf[query.Query]("fragments are not supported in introspection selections"))
			continue
		}
		children = append(children, result.Map(cc.compileMetaSelectionSet(field.SelectionSet), func(child query.Query) query.Query {
			return &query.Select{
				Name:  field.Name,
				Alias: field.Alias,
				Args:  cc.metaBindings(field.Arguments),
				Child: child,
			}
		}))
	}
	return result.Map(result.Combine(children...), func(qs []query.Query) query.Query {
		switch len(qs) {
		case 0:
			return &query.Empty{}
		case 1:
			return qs[0]
		}
		return &query.Group{Children: qs}
	})
}

func (cc *compileContext) metaBindings(args language.ArgumentList) query.Bindings {
	var bindings query.Bindings
	for _, arg := range args {
		if v, ok := literalToValue(arg.Value, cc.vars); ok {
			bindings = append(bindings, query.Binding{Name: arg.Name, Value: v})
		}
	}
	return bindings
}

func literalToValue(lit *language.Value, vars map[string]value.Value) (value.Value, bool) {
	if lit == nil {
		return nil, false
	}
	switch lit.Kind {
	case language.Variable:
		v, ok := vars[lit.Raw]
		return v, ok
	case language.IntValue:
		n, err := strconv.ParseInt(lit.Raw, 10, 64)
		if err != nil {
			return nil, false
		}
		return value.Int(n), true
	case language.StringValue, language.BlockValue:
		return value.Str(lit.Raw), true
	case language.BooleanValue:
		return value.Boolean(lit.Raw == "true"), true
	case language.NullValue:
		return value.Null{}, true
	case language.EnumValue:
		return value.UntypedEnum(lit.Raw), true
	}
	return nil, false
}
