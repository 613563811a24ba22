package protomap

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
)

// Source is a data source whose model lives in protobuf messages shaped by
// a Registry.
type Source struct {
	schema *schema.Schema
	reg    *Registry
	root   protoreflect.Message
}

// New creates a Source over a root message of the schema's query type.
func New(s *schema.Schema, reg *Registry, root protoreflect.Message) *Source {
	return &Source{schema: s, reg: reg, root: root}
}

// NewEmpty creates a Source with a fresh, empty query root message.
func NewEmpty(s *schema.Schema, reg *Registry) *Source {
	return New(s, reg, dynamicpb.NewMessage(reg.Message(s.QueryType)))
}

// Root returns a cursor focused on the query root.
func (src *Source) Root() query.Cursor {
	return &cursor{
		source: src,
		typ:    schema.NonNullOf(src.schema.Query()),
		node:   src.root,
	}
}

// Cursor returns a cursor focused on msg at the given type.
func (src *Source) Cursor(t *schema.Type, msg protoreflect.Message) query.Cursor {
	return &cursor{source: src, typ: t, node: msg}
}

// cursor focuses one position in a message tree: a message for object
// positions, a protoreflect.List for list positions, an unwrapped Go value
// for leaves, nil for null.
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
	v, err := c.leafValue(d)
	if err != nil {
		return result.Fail[value.Value](query.TypeMismatch(c, "%s", err))
	}
	return result.OK(v)
}

func (c *cursor) IsList() bool { return c.typ.IsList() }

func (c *cursor) AsList() result.Result[[]query.Cursor] {
	if !c.typ.IsList() {
		return result.Fail[[]query.Cursor](query.TypeMismatch(c, "expected a list position"))
	}
	list, ok := c.node.(protoreflect.List)
	if !ok {
		return result.Fail[[]query.Cursor](query.TypeMismatch(c, "expected list data, found %T", c.node))
	}
	listType := c.typ
	if listType.NonNull() {
		listType = listType.Unwrap()
	}
	elemType := listType.Unwrap()

	out := make([]query.Cursor, list.Len())
	for i := 0; i < list.Len(); i++ {
		out[i] = c.at(elemType, nodeOf(elemType, list.Get(i)), "")
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

// dynamic resolves the runtime type and message at an object focus. An
// abstract focus holds a wrapper message whose "value" oneof names the
// concrete member; the set choice carries the member message.
func (c *cursor) dynamic() (*schema.Type, protoreflect.Message, error) {
	d := c.typ
	if d.NonNull() {
		d = d.Unwrap()
	}
	d = d.Dealias()
	msg, ok := c.node.(protoreflect.Message)
	if !ok {
		return nil, nil, fmt.Errorf("expected message data, found %T", c.node)
	}
	if d.Kind != schema.KindInterface && d.Kind != schema.KindUnion {
		return d, msg, nil
	}
	od := msg.Descriptor().Oneofs().ByName("value")
	if od == nil {
		return nil, nil, fmt.Errorf("message %s has no member oneof", msg.Descriptor().Name())
	}
	fd := msg.WhichOneof(od)
	if fd == nil {
		return nil, nil, fmt.Errorf("no member set for %s value", d.Name)
	}
	sub := c.source.schema.Definition(string(fd.Name()))
	if sub == nil {
		return nil, nil, fmt.Errorf("unknown member %q of %s", fd.Name(), d.Name)
	}
	return sub, msg.Get(fd).Message(), nil
}

func (c *cursor) NarrowsTo(subtype *schema.Type) bool {
	dyn, _, err := c.dynamic()
	if err != nil {
		return false
	}
	return schema.Subtype(dyn, subtype)
}

func (c *cursor) Narrow(subtype *schema.Type) result.Result[query.Cursor] {
	dyn, msg, err := c.dynamic()
	if err != nil || !schema.Subtype(dyn, subtype) {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "cannot narrow %s to %s",
			c.typ.Unwrap().Dealias().Name, subtype.Name))
	}
	return result.OK[query.Cursor](c.at(subtype, msg, ""))
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

	dyn, msg, err := c.dynamic()
	if err != nil {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "%s", err))
	}
	if concrete := dyn.FieldByName(name); concrete != nil {
		fieldDef = concrete
	}
	fd := c.source.reg.Field(dyn.Name, name)
	if fd == nil {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "no descriptor for field %q of %s", name, dyn.Name))
	}

	ft := fieldDef.Type
	var node any
	switch {
	case fd.IsList():
		node = msg.Get(fd).List()
	case fd.HasPresence() && !msg.Has(fd):
		if !ft.Nullable() {
			return result.Fail[query.Cursor](query.TypeMismatch(c, "missing data for non-null field %q of %s", name, dyn.Name))
		}
		node = nil
	default:
		node = nodeOf(ft, msg.Get(fd))
	}
	return result.OK[query.Cursor](c.at(ft, node, resultName))
}

func nodeOf(t *schema.Type, v protoreflect.Value) any {
	if t.IsList() {
		return v.List()
	}
	if t.LeafType() != nil {
		return v.Interface()
	}
	return v.Message()
}

func (c *cursor) leafValue(d *schema.Type) (value.Value, error) {
	if d.Kind == schema.KindEnum {
		n, ok := c.node.(protoreflect.EnumNumber)
		if !ok {
			return nil, fmt.Errorf("expected an enum number for %s, found %T", d.Name, c.node)
		}
		name, ok := c.source.reg.EnumValueName(d.Name, n)
		if !ok {
			return nil, fmt.Errorf("enum %s has no value for number %d", d.Name, n)
		}
		return value.Enum{TypeName: d.Name, Name: name}, nil
	}

	switch node := c.node.(type) {
	case string:
		if d.Name == schema.ScalarID {
			return value.ID(node), nil
		}
		return value.Str(node), nil
	case bool:
		return value.Boolean(node), nil
	case int32:
		return value.Int(int64(node)), nil
	case int64:
		return value.Int(node), nil
	case uint32:
		return value.Int(int64(node)), nil
	case uint64:
		return value.Int(int64(node)), nil
	case float32:
		return value.Float(float64(node)), nil
	case float64:
		return value.Float(node), nil
	case []byte:
		return value.Str(string(node)), nil
	}
	return nil, fmt.Errorf("unsupported leaf data %T for %s", c.node, d.Name)
}
