package introspection

import (
	"sort"

	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
)

// Root returns a cursor focused on the meta root of the described schema.
// Its fields are __schema and __type(name:).
func Root(described *schema.Schema) query.Cursor {
	return &cursor{
		described: described,
		meta:      schema.NonNullOf(metaSchema().Query()),
		node:      root{},
	}
}

// root is the node behind the meta Query type.
type root struct{}

// cursor walks schema metadata. node is the focus: root, the described
// *schema.Schema, a *schema.Type, *schema.Field, *schema.InputValue,
// *schema.EnumValue, *schema.DirectiveDef, a leaf string or bool, or a
// []any for list positions. meta is the focus position in the meta schema.
type cursor struct {
	described *schema.Schema
	meta      *schema.Type
	node      any
	path      []string
	env       *query.Env
}

var _ query.ArgumentedCursor = (*cursor)(nil)

func (c *cursor) Type() *schema.Type { return c.meta }
func (c *cursor) Path() []string     { return c.path }
func (c *cursor) Env() *query.Env    { return c.env }

func (c *cursor) WithEnv(env *query.Env) query.Cursor {
	derived := *c
	derived.env = c.env.Extend(env)
	return &derived
}

func (c *cursor) at(meta *schema.Type, node any, step string) *cursor {
	path := c.path
	if step != "" {
		path = append(append([]string(nil), c.path...), step)
	}
	return &cursor{described: c.described, meta: meta, node: node, path: path, env: c.env}
}

func (c *cursor) IsLeaf() bool { return c.meta.IsLeaf() }

func (c *cursor) AsLeaf() result.Result[value.Value] {
	d := c.meta.LeafType()
	if d == nil {
		return result.Fail[value.Value](query.TypeMismatch(c, "expected a leaf position"))
	}
	switch node := c.node.(type) {
	case string:
		if d.Kind == schema.KindEnum {
			return result.OK[value.Value](value.Enum{TypeName: d.Name, Name: node})
		}
		return result.OK[value.Value](value.Str(node))
	case bool:
		return result.OK[value.Value](value.Boolean(node))
	}
	return result.Fail[value.Value](query.TypeMismatch(c, "no leaf value at %s position", d.Name))
}

func (c *cursor) IsList() bool { return c.meta.IsList() }

func (c *cursor) AsList() result.Result[[]query.Cursor] {
	if !c.IsList() {
		return result.Fail[[]query.Cursor](query.TypeMismatch(c, "expected a list position"))
	}
	elems, ok := c.node.([]any)
	if !ok {
		return result.Fail[[]query.Cursor](query.TypeMismatch(c, "no list value at list position"))
	}
	listType := c.meta
	if listType.NonNull() {
		listType = listType.Unwrap()
	}
	elemType := listType.Unwrap()
	out := make([]query.Cursor, len(elems))
	for i, elem := range elems {
		out[i] = c.at(elemType, elem, "")
	}
	return result.OK(out)
}

func (c *cursor) IsNullable() bool { return c.meta.Nullable() }

func (c *cursor) AsNullable() result.Result[query.Cursor] {
	if !c.IsNullable() {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "expected a nullable position"))
	}
	if c.node == nil {
		return result.OK[query.Cursor](nil)
	}
	return result.OK[query.Cursor](c.at(schema.NonNullOf(c.meta), c.node, ""))
}

// The meta model has no abstract types, so narrowing only succeeds onto the
// static type itself.
func (c *cursor) NarrowsTo(subtype *schema.Type) bool {
	return schema.Eq(c.meta.Unwrap(), subtype)
}

func (c *cursor) Narrow(subtype *schema.Type) result.Result[query.Cursor] {
	if !c.NarrowsTo(subtype) {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "cannot narrow %s to %s", c.meta.Unwrap().Dealias().Name, subtype.Name))
	}
	return result.OK[query.Cursor](c)
}

func (c *cursor) HasField(name string) bool {
	obj := c.meta.UnderlyingObject()
	return obj != nil && obj.FieldByName(name) != nil
}

func (c *cursor) Field(name, resultName string) result.Result[query.Cursor] {
	return c.FieldWith(name, resultName, nil)
}

func (c *cursor) FieldWith(name, resultName string, args query.Bindings) result.Result[query.Cursor] {
	obj := c.meta.UnderlyingObject()
	if obj == nil {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "expected an object position"))
	}
	fieldDef := obj.FieldByName(name)
	if fieldDef == nil {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "%s has no field %q", obj.Name, name))
	}
	node, ok := c.resolve(name, args)
	if !ok {
		return result.Fail[query.Cursor](query.TypeMismatch(c, "cannot resolve field %q on %T", name, c.node))
	}
	return result.OK[query.Cursor](c.at(fieldDef.Type, node, resultName))
}

func (c *cursor) resolve(field string, args query.Bindings) (any, bool) {
	switch node := c.node.(type) {
	case root:
		switch field {
		case "__schema":
			return c.described, true
		case "__type":
			name, _ := args.Get("name")
			if str, ok := name.(value.Str); ok {
				if def := c.described.Definition(string(str)); def != nil {
					return def, true
				}
			}
			return nil, true
		}
	case *schema.Schema:
		return resolveSchemaField(node, field)
	case *schema.Type:
		return resolveTypeField(c.described, node, field, args)
	case *schema.Field:
		return resolveFieldField(node, field, args)
	case *schema.InputValue:
		return resolveInputValueField(node, field)
	case *schema.EnumValue:
		return resolveEnumValueField(node, field)
	case *schema.DirectiveDef:
		return resolveDirectiveField(node, field, args)
	}
	return nil, false
}

func resolveSchemaField(s *schema.Schema, field string) (any, bool) {
	switch field {
	case "description":
		return nullableString(s.Description), true
	case "types":
		names := append([]string(nil), s.TypeNames()...)
		sort.Strings(names)
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = s.Definition(name)
		}
		return out, true
	case "queryType":
		return s.Query(), true
	case "mutationType":
		return nilableType(s.Mutation()), true
	case "subscriptionType":
		return nilableType(s.Subscription()), true
	case "directives":
		names := append([]string(nil), s.DirectiveNames()...)
		sort.Strings(names)
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = s.Directive(name)
		}
		return out, true
	}
	return nil, false
}

func resolveTypeField(s *schema.Schema, t *schema.Type, field string, args query.Bindings) (any, bool) {
	switch field {
	case "kind":
		return typeKindName(t), true
	case "name":
		if t.Kind == schema.KindList || t.Kind == schema.KindNonNull {
			return nil, true
		}
		return t.Dealias().Name, true
	case "description":
		return nullableString(t.Dealias().Description), true
	case "fields":
		return resolveTypeFields(t.Dealias(), args), true
	case "interfaces":
		return resolveTypeInterfaces(s, t.Dealias()), true
	case "possibleTypes":
		return resolveTypePossibleTypes(s, t.Dealias()), true
	case "enumValues":
		return resolveTypeEnumValues(t.Dealias(), args), true
	case "inputFields":
		return resolveTypeInputFields(t.Dealias(), args), true
	case "ofType":
		if t.Kind == schema.KindList || t.Kind == schema.KindNonNull {
			return t.Elem, true
		}
		return nil, true
	case "specifiedByURL":
		return nil, true
	}
	return nil, false
}

func resolveTypeFields(t *schema.Type, args query.Bindings) any {
	if t.Kind != schema.KindObject && t.Kind != schema.KindInterface {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []any{}
	for _, f := range sortedFields(t.Fields) {
		if !includeDeprecated && f.IsDeprecated {
			continue
		}
		out = append(out, f)
	}
	return out
}

func resolveTypeInterfaces(s *schema.Schema, t *schema.Type) any {
	if t.Kind != schema.KindObject && t.Kind != schema.KindInterface {
		return nil
	}
	names := append([]string(nil), t.Interfaces...)
	sort.Strings(names)
	out := make([]any, 0, len(names))
	for _, name := range names {
		if def := s.Definition(name); def != nil {
			out = append(out, def)
		}
	}
	return out
}

func resolveTypePossibleTypes(s *schema.Schema, t *schema.Type) any {
	if t.Kind != schema.KindInterface && t.Kind != schema.KindUnion {
		return nil
	}
	names := s.ConcreteSubtypes(t)
	sort.Strings(names)
	out := make([]any, 0, len(names))
	for _, name := range names {
		if def := s.Definition(name); def != nil {
			out = append(out, def)
		}
	}
	return out
}

func resolveTypeEnumValues(t *schema.Type, args query.Bindings) any {
	if t.Kind != schema.KindEnum {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []any{}
	for _, ev := range t.EnumValues {
		if !includeDeprecated && ev.IsDeprecated {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func resolveTypeInputFields(t *schema.Type, args query.Bindings) any {
	if t.Kind != schema.KindInputObject {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []any{}
	for _, iv := range t.InputFields {
		if !includeDeprecated && iv.IsDeprecated {
			continue
		}
		out = append(out, iv)
	}
	return out
}

func resolveFieldField(f *schema.Field, field string, args query.Bindings) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return nullableString(f.Description), true
	case "args":
		return resolveInputValues(f.Args, args), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		if f.IsDeprecated {
			return f.DeprecationReason, true
		}
		return nil, true
	}
	return nil, false
}

func resolveInputValueField(iv *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return iv.Name, true
	case "description":
		return nullableString(iv.Description), true
	case "type":
		return iv.Type, true
	case "defaultValue":
		if iv.DefaultValue != nil {
			return iv.DefaultValue.String(), true
		}
		return nil, true
	case "isDeprecated":
		return iv.IsDeprecated, true
	case "deprecationReason":
		if iv.IsDeprecated {
			return iv.DeprecationReason, true
		}
		return nil, true
	}
	return nil, false
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return nullableString(ev.Description), true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		if ev.IsDeprecated {
			return ev.DeprecationReason, true
		}
		return nil, true
	}
	return nil, false
}

func resolveDirectiveField(d *schema.DirectiveDef, field string, args query.Bindings) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return nullableString(d.Description), true
	case "isRepeatable":
		return d.Repeatable, true
	case "locations":
		locs := append([]string(nil), d.Locations...)
		sort.Strings(locs)
		out := make([]any, len(locs))
		for i, l := range locs {
			out[i] = l
		}
		return out, true
	case "args":
		return resolveInputValues(d.Args, args), true
	}
	return nil, false
}

func resolveInputValues(ivs []*schema.InputValue, args query.Bindings) any {
	includeDeprecated := boolArg(args, "includeDeprecated")
	out := []any{}
	for _, iv := range ivs {
		if !includeDeprecated && iv.IsDeprecated {
			continue
		}
		out = append(out, iv)
	}
	return out
}

func sortedFields(fields []*schema.Field) []*schema.Field {
	out := append([]*schema.Field(nil), fields...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func boolArg(args query.Bindings, name string) bool {
	if v, ok := args.Get(name); ok {
		if b, ok := v.(value.Boolean); ok {
			return bool(b)
		}
	}
	return false
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nilableType(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}
