// Package mapping binds a schema to a data source and runs operations end
// to end: parse, compile, elaborate, size-validate, interpret. A Mapping is
// also a query.Backend, so one mapping can serve as a component of another.
package mapping

import (
	"context"
	"time"

	"github.com/hanpama/cursorgraph/internal/compiler"
	"github.com/hanpama/cursorgraph/internal/eventbus"
	"github.com/hanpama/cursorgraph/internal/events"
	"github.com/hanpama/cursorgraph/internal/interp"
	"github.com/hanpama/cursorgraph/internal/language"
	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
)

// RootSource provides the root cursor a mapping executes against.
type RootSource interface {
	Root() query.Cursor
}

// Mapping is one executable schema-to-source binding.
type Mapping struct {
	schema   *schema.Schema
	source   RootSource
	compiler *compiler.Compiler
	elab     *compiler.Elaborator
	maxDepth int
	maxWidth int
}

// Option configures a Mapping.
type Option func(*Mapping)

// WithMaxDepth rejects plans nested deeper than n selection levels.
func WithMaxDepth(n int) Option { return func(m *Mapping) { m.maxDepth = n } }

// WithMaxWidth rejects plans producing more than n leaves.
func WithMaxWidth(n int) Option { return func(m *Mapping) { m.maxWidth = n } }

// New creates a Mapping for the schema over the given source.
func New(s *schema.Schema, source RootSource, opts ...Option) *Mapping {
	m := &Mapping{
		schema:   s,
		source:   source,
		compiler: compiler.New(s),
		elab:     compiler.NewElaborator(s),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Schema returns the schema this mapping serves.
func (m *Mapping) Schema() *schema.Schema { return m.schema }

// Bind registers an elaboration step for fieldName on typeName.
func (m *Mapping) Bind(typeName, fieldName string, fn compiler.Rewrite) {
	m.elab.Bind(typeName, fieldName, fn)
}

// BindEffect routes fieldName on typeName through the given effect handler.
func (m *Mapping) BindEffect(typeName, fieldName string, h query.EffectHandler) {
	m.Bind(typeName, fieldName, func(sel *query.Select, child query.Query) result.Result[query.Query] {
		return result.OK[query.Query](&query.Effect{Handler: h, Child: sel})
	})
}

// BindComponent delegates fieldName on typeName to another backend. join
// derives the query to run against the target from the parent cursor.
func (m *Mapping) BindComponent(typeName, fieldName string, target query.Backend, join query.JoinFunc) {
	m.Bind(typeName, fieldName, func(sel *query.Select, child query.Query) result.Result[query.Query] {
		return result.OK[query.Query](&query.Component{Target: target, Join: join, Child: sel})
	})
}

// Plan compiles, elaborates and size-validates one operation without
// executing it.
func (m *Mapping) Plan(doc *language.QueryDocument, operationName string, vars map[string]any) result.Result[*compiler.Operation] {
	return result.FlatMap(m.compiler.Compile(doc, operationName, vars), func(op *compiler.Operation) result.Result[*compiler.Operation] {
		return result.FlatMap(m.elab.Elaborate(op.Query, op.RootType), func(plan query.Query) result.Result[*compiler.Operation] {
			return result.Map(compiler.ValidateSize(plan, m.maxDepth, m.maxWidth), func(q query.Query) *compiler.Operation {
				return &compiler.Operation{Kind: op.Kind, RootType: op.RootType, Query: q}
			})
		})
	})
}

// Execute runs one operation end to end and publishes operation events
// around it.
func (m *Mapping) Execute(ctx context.Context, querySrc, operationName string, vars map[string]any) result.Result[map[string]any] {
	docR := language.ParseQuery(querySrc)
	if !docR.IsOK() {
		return result.FailAll[map[string]any](docR.Problems())
	}
	doc := docR.Value()

	opType := ""
	if def := operationDefinition(doc, operationName); def != nil {
		opType = string(def.Operation)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.OperationStart{
		Query:         querySrc,
		OperationName: operationName,
		OperationType: opType,
	})

	res := result.FlatMap(m.Plan(doc, operationName, vars), func(op *compiler.Operation) result.Result[map[string]any] {
		return interp.Run(ctx, op.Query, m.source.Root())
	})

	eventbus.Publish(ctx, events.OperationFinish{
		Query:         querySrc,
		OperationName: operationName,
		OperationType: opType,
		ProblemCount:  len(res.Problems()),
		Duration:      time.Since(start),
	})
	return res
}

// RunQuery implements query.Backend: it elaborates the already-compiled
// query against this mapping's own field table and runs it at the root.
func (m *Mapping) RunQuery(ctx context.Context, q query.Query) result.Result[map[string]any] {
	return result.FlatMap(m.elab.Elaborate(q, m.schema.Query()), func(plan query.Query) result.Result[map[string]any] {
		return interp.Run(ctx, plan, m.source.Root())
	})
}

var _ query.Backend = (*Mapping)(nil)

func operationDefinition(doc *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" && len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	return doc.Operations.ForName(operationName)
}
