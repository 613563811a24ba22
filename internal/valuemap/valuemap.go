// Package valuemap serves cursors over plain decoded data. A Source pairs a
// schema with a map-shaped model; navigation is driven by the schema and
// values are read straight out of the maps, so fixtures and JSON documents
// can back a mapping without any transport.
package valuemap

import (
	"encoding/json"
	"fmt"

	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
)

// TypeNameKey is the object key carrying the dynamic type name at abstract
// positions.
const TypeNameKey = "__typename"

// Source is an in-memory data source for one schema.
type Source struct {
	schema *schema.Schema
	data   map[string]any
}

// New creates a Source over data shaped like the schema's query root.
func New(s *schema.Schema, data map[string]any) *Source {
	return &Source{schema: s, data: data}
}

// ParseJSON creates a Source from a JSON document.
func ParseJSON(s *schema.Schema, doc []byte) (*Source, error) {
	var data map[string]any
	if err := json.Unmarshal(doc, &data); err != nil {
		return nil, fmt.Errorf("decoding data document: %w", err)
	}
	return New(s, data), nil
}

// Root returns a cursor focused on the query root.
func (src *Source) Root() query.Cursor {
	return &cursor{
		source: src,
		typ:    schema.NonNullOf(src.schema.Query()),
		node:   src.data,
	}
}

// Cursor returns a cursor focused on node at the given type.
func (src *Source) Cursor(t *schema.Type, node any) query.Cursor {
	return &cursor{source: src, typ: t, node: node}
}

type cursor struct {
	source *Source
	typ    *schema.Type
	node   any
	path   []string
	env    *query.Env
}

var _ query.Cursor = (*cursor)(nil)

func (c *cursor) Type() *schema.Type { return c.typ }
func (c *cursor) Path() []string     { return c.path }
func (c *cursor) Env() *query.Env    { return c.env }

func (c *cursor) WithEnv(env *query.Env) query.Cursor {
	derived := *c
	derived.env = c.env.Extend(env)
	return &derived
}

func (c *cursor) at(t *schema.Type, node any, step string) *cursor {
	path := c.path
	if step != "" {
		path = append(append([]string(nil), c.path...), step)
	}
	return &cursor{source: c.source, typ: t, node: node, path: path, env: c.env}
}

func (c *cursor) IsLeaf() bool { return c.typ.IsLeaf() }

func (c *cursor) AsLeaf() result.Result[value.Value] {
	d := c.typ.LeafType()
	if d == nil {
		return result.Fail[value.Value](query.TypeMismatch(c, "expected a leaf position"))
	}
	v, err := leafValue(d, c.node)
	if err != nil {
		return result.Fail[value.Value](query.TypeMismatch(c, "%s", err))
	}
	return result.OK(v)
}

// IsList is data-driven as well as type-driven: list-shaped data under a
// singular field is a list focus too, so plans that filter a collection
// down to one element can run against fields declared with the element
// type.
func (c *cursor) IsList() bool {
	if c.typ.IsList() {
		return true
	}
	_, ok := c.node.([]any)
	return ok
}

func (c *cursor) AsList() result.Result[[]query.Cursor] {
	if !c.IsList() {
		return result.Fail[[]query.Cursor](query.TypeMismatch(c, "expected a list position"))
	}
	elems, ok := c.node.([]any)
	if !ok {
		return result.Fail[[]query.Cursor](query.TypeMismatch(c, "expected list data, found %T", c.node))
	}
	elemType := c.typ
	if c.typ.IsList() {
		listType := c.typ
		if listType.NonNull() {
			listType = listType.Unwrap()
		}
		elemType = listType.Unwrap()
	} else if elemType.Nullable() {
		elemType = schema.NonNullOf(elemType)
	}
	out := make([]query.Cursor, len(elems))
	for i, elem := range elems {
		out[i] = c.at(elemType, elem, "")
	}
	return result.OK(out)
}

func (c *cursor) IsNullable() bool { return c.typ.Nullable() }

func (c *cursor) AsNullable() result.Result[query.Cursor] {
	if !c.IsNullable() {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "expected a nullable position"))
	}
	if c.node == nil {
		return result.OK[query.Cursor](nil)
	}
	return result.OK[query.Cursor](c.at(schema.NonNullOf(c.typ), c.node, ""))
}

// dynamicType resolves the runtime type at an object focus: the declared
// type for concrete positions, the __typename discriminator for abstract
// ones.
func (c *cursor) dynamicType() *schema.Type {
	d := c.typ
	if d.NonNull() {
		d = d.Unwrap()
	}
	d = d.Dealias()
	if d == nil {
		return nil
	}
	if d.Kind != schema.KindInterface && d.Kind != schema.KindUnion {
		return d
	}
	if m, ok := c.node.(map[string]any); ok {
		if name, ok := m[TypeNameKey].(string); ok {
			return c.source.schema.Definition(name)
		}
	}
	return d
}

func (c *cursor) NarrowsTo(subtype *schema.Type) bool {
	dyn := c.dynamicType()
	if dyn == nil {
		return false
	}
	return schema.Subtype(dyn, subtype)
}

func (c *cursor) Narrow(subtype *schema.Type) result.Result[query.Cursor] {
	if !c.NarrowsTo(subtype) {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "cannot narrow %s to %s",
			c.typ.Unwrap().Dealias().Name, subtype.Name))
	}
	return result.OK[query.Cursor](c.at(subtype, c.node, ""))
}

func (c *cursor) HasField(name string) bool {
	obj := c.typ.UnderlyingObject()
	return obj != nil && obj.FieldByName(name) != nil
}

func (c *cursor) Field(name, resultName string) result.Result[query.Cursor] {
	obj := c.typ.UnderlyingObject()
	if obj == nil {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "expected an object position"))
	}
	fieldDef := obj.FieldByName(name)
	if fieldDef == nil {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "%s has no field %q", obj.Name, name))
	}
	m, ok := c.node.(map[string]any)
	if !ok {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "expected object data, found %T", c.node))
	}
	node, present := m[name]
	if !present {
		if fieldDef.Type.Nullable() {
			node = nil
		} else {
			return result.Fail[query.Cursor](query.TypeMismatch(c, "missing data for non-null field %q of %s", name, obj.Name))
		}
	}
	return result.OK[query.Cursor](c.at(fieldDef.Type, node, resultName))
}

func leafValue(d *schema.Type, node any) (value.Value, error) {
	if d.Kind == schema.KindEnum {
		name, ok := node.(string)
		if !ok {
			return nil, fmt.Errorf("expected an enum name for %s, found %T", d.Name, node)
		}
		for _, ev := range d.EnumValues {
			if ev.Name == name {
				return value.Enum{TypeName: d.Name, Name: name}, nil
			}
		}
		return nil, fmt.Errorf("enum %s has no value %q", d.Name, name)
	}

	switch node := node.(type) {
	case string:
		if d.Name == schema.ScalarID {
			return value.ID(node), nil
		}
		return value.Str(node), nil
	case bool:
		return value.Boolean(node), nil
	case int:
		return value.Int(int64(node)), nil
	case int64:
		return value.Int(node), nil
	case float64:
		if d.Name == schema.ScalarFloat {
			return value.Float(node), nil
		}
		if node == float64(int64(node)) {
			return value.Int(int64(node)), nil
		}
		return value.Float(node), nil
	case json.Number:
		if n, err := node.Int64(); err == nil && d.Name != schema.ScalarFloat {
			return value.Int(n), nil
		}
		f, err := node.Float64()
		if err != nil {
			return nil, fmt.Errorf("bad number %q for %s", node.String(), d.Name)
		}
		return value.Float(f), nil
	}
	return nil, fmt.Errorf("unsupported leaf data %T for %s", node, d.Name)
}
