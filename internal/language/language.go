// Package language is the parser boundary. Schema and query text enter the
// system here and come out as gqlparser AST documents; everything downstream
// treats those documents as lexically and syntactically valid.
package language

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/hanpama/cursorgraph/internal/result"
)

// ParseQuery parses an executable document (operations and fragments).
// Malformed text yields a single located Problem.
func ParseQuery(source string) result.Result[*QueryDocument] {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return result.Fail[*QueryDocument](problemFromGQLError(err))
	}
	return result.OK(doc)
}

// ParseSchema parses a schema definition document.
func ParseSchema(name, source string) result.Result[*SchemaDocument] {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return result.Fail[*SchemaDocument](problemFromGQLError(err))
	}
	return result.OK(doc)
}

func problemFromGQLError(err error) *result.Problem {
	if gqlErr, ok := err.(*gqlerror.Error); ok {
		p := &result.Problem{Message: gqlErr.Message}
		if len(gqlErr.Locations) > 0 {
			p.Line = gqlErr.Locations[0].Line
			p.Column = gqlErr.Locations[0].Column
		}
		return p
	}
	return &result.Problem{Message: err.Error()}
}

// ProblemAtPosition locates a problem at an AST position. Positions may be
// nil for synthesized nodes.
func ProblemAtPosition(pos *Position, format string, args ...any) *result.Problem {
	if pos == nil || pos.Src == nil {
		return result.Problemf(format, args...)
	}
	return result.ProblemAt(pos.Src.Name, pos.Line, pos.Column, format, args...)
}
