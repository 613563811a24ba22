package schema

import (
	"fmt"

	"github.com/hanpama/cursorgraph/internal/language"
	"github.com/hanpama/cursorgraph/internal/result"
)

// RawValue is a parsed literal carried un-coerced in declarations (argument
// and input-field defaults). Coercion resolves it against the declared type
// at use sites.
type RawValue = language.Value

// Build parses SDL text and builds a validated Schema.
func Build(name, sdl string) result.Result[*Schema] {
	return result.FlatMap(language.ParseSchema(name, sdl), BuildFromAST)
}

// BuildFromAST builds a Schema from a parsed schema document.
//
// Definitions are built independently, then four validation passes run and
// their problems accumulate: reference closure, type-name uniqueness,
// enum-value uniqueness, and interface conformance. Any problem across any
// pass fails the whole build.
func BuildFromAST(doc *language.SchemaDocument) result.Result[*Schema] {
	b := &builder{
		schema: &Schema{
			types:      map[string]*Type{},
			directives: map[string]*DirectiveDef{},
		},
	}
	for _, t := range builtinScalars() {
		b.schema.addType(t)
	}
	for _, d := range builtinDirectives(b.schema) {
		b.schema.addDirective(d)
	}

	b.buildDefinitions(doc)
	b.resolveRoots(doc)

	b.checkReferenceClosure()
	b.checkUniqueness(doc)
	b.checkEnumValueUniqueness()
	b.checkInterfaceConformance()

	if len(b.problems) > 0 {
		return result.FailAll[*Schema](b.problems)
	}
	return result.OK(b.schema)
}

type builder struct {
	schema   *Schema
	problems result.Problems
}

func (b *builder) problemAt(pos *language.Position, format string, args ...any) {
	b.problems = append(b.problems, language.ProblemAtPosition(pos, format, args...))
}

func (b *builder) buildDefinitions(doc *language.SchemaDocument) {
	for _, def := range doc.Definitions {
		switch def.Kind {
		case language.Object:
			b.addDefinition(b.buildObjectLike(def, KindObject))
		case language.Interface:
			b.addDefinition(b.buildObjectLike(def, KindInterface))
		case language.Union:
			if len(def.Types) == 0 {
				b.problemAt(def.Position, "union %q declares no members", def.Name)
				continue
			}
			b.addDefinition(NewUnion(def.Name, def.Description, append([]string(nil), def.Types...)))
		case language.Enum:
			if len(def.EnumValues) == 0 {
				b.problemAt(def.Position, "enum %q declares no values", def.Name)
				continue
			}
			values := make([]*EnumValue, len(def.EnumValues))
			for i, v := range def.EnumValues {
				values[i] = &EnumValue{Name: v.Name, Description: v.Description}
				applyDeprecation(v.Directives, &values[i].IsDeprecated, &values[i].DeprecationReason)
			}
			b.addDefinition(NewEnum(def.Name, def.Description, values))
		case language.InputObject:
			fields := make([]*InputValue, len(def.Fields))
			for i, f := range def.Fields {
				fields[i] = &InputValue{
					Name:         f.Name,
					Description:  f.Description,
					Type:         b.typeFromAST(f.Type),
					DefaultValue: f.DefaultValue,
				}
				applyDeprecation(f.Directives, &fields[i].IsDeprecated, &fields[i].DeprecationReason)
			}
			b.addDefinition(NewInputObject(def.Name, def.Description, fields))
		case language.Scalar:
			b.addDefinition(NewScalar(def.Name, def.Description))
		}
	}
	for _, dd := range doc.Directives {
		args := make([]*InputValue, len(dd.Arguments))
		for i, a := range dd.Arguments {
			args[i] = &InputValue{
				Name:         a.Name,
				Description:  a.Description,
				Type:         b.typeFromAST(a.Type),
				DefaultValue: a.DefaultValue,
			}
		}
		locations := make([]string, len(dd.Locations))
		for i, l := range dd.Locations {
			locations[i] = string(l)
		}
		b.schema.addDirective(&DirectiveDef{
			Name:        dd.Name,
			Description: dd.Description,
			Args:        args,
			Locations:   locations,
			Repeatable:  dd.IsRepeatable,
		})
	}
}

func (b *builder) buildObjectLike(def *language.Definition, kind Kind) *Type {
	if len(def.Fields) == 0 {
		b.problemAt(def.Position, "%s %q declares no fields", kindWord(kind), def.Name)
		return nil
	}
	fields := make([]*Field, len(def.Fields))
	for i, f := range def.Fields {
		args := make([]*InputValue, len(f.Arguments))
		for j, a := range f.Arguments {
			args[j] = &InputValue{
				Name:         a.Name,
				Description:  a.Description,
				Type:         b.typeFromAST(a.Type),
				DefaultValue: a.DefaultValue,
			}
		}
		fields[i] = &Field{
			Name:        f.Name,
			Description: f.Description,
			Type:        b.typeFromAST(f.Type),
			Args:        args,
		}
		applyDeprecation(f.Directives, &fields[i].IsDeprecated, &fields[i].DeprecationReason)
	}
	interfaces := append([]string(nil), def.Interfaces...)
	if kind == KindInterface {
		return NewInterface(def.Name, def.Description, fields, interfaces)
	}
	return NewObject(def.Name, def.Description, fields, interfaces)
}

func (b *builder) addDefinition(t *Type) {
	if t == nil {
		return
	}
	b.schema.addType(t)
}

func (b *builder) typeFromAST(t *language.Type) *Type {
	return b.schema.TypeFromAST(t)
}

// TypeFromAST converts a parsed type reference into a Type whose named
// leaves are Refs into this schema.
func (s *Schema) TypeFromAST(t *language.Type) *Type {
	if t == nil {
		return nil
	}
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return NonNullOf(s.TypeFromAST(&inner))
	}
	if t.NamedType != "" {
		return s.Ref(t.NamedType)
	}
	return ListOf(s.TypeFromAST(t.Elem))
}

func applyDeprecation(directives language.DirectiveList, deprecated *bool, reason *string) {
	d := directives.ForName("deprecated")
	if d == nil {
		return
	}
	*deprecated = true
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		*reason = arg.Value.Raw
	}
}

func kindWord(k Kind) string {
	if k == KindInterface {
		return "interface"
	}
	return "object"
}

// resolveRoots applies the explicit schema block if present, defaulting
// unspecified roots to types literally named Query/Mutation/Subscription.
func (b *builder) resolveRoots(doc *language.SchemaDocument) {
	for _, sd := range doc.Schema {
		b.schema.Description = sd.Description
		for _, op := range sd.OperationTypes {
			switch op.Operation {
			case language.Query:
				b.schema.QueryType = op.Type
			case language.Mutation:
				b.schema.MutationType = op.Type
			case language.Subscription:
				b.schema.SubscriptionType = op.Type
			}
		}
	}
	if b.schema.QueryType == "" && b.schema.types["Query"] != nil {
		b.schema.QueryType = "Query"
	}
	if b.schema.MutationType == "" && b.schema.types["Mutation"] != nil {
		b.schema.MutationType = "Mutation"
	}
	if b.schema.SubscriptionType == "" && b.schema.types["Subscription"] != nil {
		b.schema.SubscriptionType = "Subscription"
	}
}

// checkReferenceClosure verifies that every type name mentioned anywhere in
// the schema resolves against the built-in scalars plus declared types.
func (b *builder) checkReferenceClosure() {
	check := func(context string, t *Type) {
		for t != nil && (t.Kind == KindList || t.Kind == KindNonNull) {
			t = t.Elem
		}
		if t == nil {
			return
		}
		if t.Kind == KindRef && b.schema.types[t.Name] == nil {
			b.problems = append(b.problems, result.Problemf("unknown type %q referenced by %s", t.Name, context))
		}
	}
	for _, name := range b.schema.typeNames {
		t := b.schema.types[name]
		for _, f := range t.Fields {
			check(fmt.Sprintf("field %s.%s", name, f.Name), f.Type)
			for _, a := range f.Args {
				check(fmt.Sprintf("argument %s.%s(%s:)", name, f.Name, a.Name), a.Type)
			}
		}
		for _, in := range t.InputFields {
			check(fmt.Sprintf("input field %s.%s", name, in.Name), in.Type)
		}
		for _, iface := range t.Interfaces {
			if b.schema.types[iface] == nil {
				b.problems = append(b.problems, result.Problemf("unknown interface %q implemented by %q", iface, name))
			}
		}
		for _, m := range t.Members {
			if b.schema.types[m] == nil {
				b.problems = append(b.problems, result.Problemf("unknown type %q in union %q", m, name))
			}
		}
	}
	for _, name := range b.schema.dirNames {
		for _, a := range b.schema.directives[name].Args {
			check(fmt.Sprintf("argument @%s(%s:)", name, a.Name), a.Type)
		}
	}
}

// checkUniqueness rejects duplicate type declarations. The type index is
// last-write-wins, so duplicates are recovered from the source document.
func (b *builder) checkUniqueness(doc *language.SchemaDocument) {
	seen := map[string]bool{}
	for _, def := range doc.Definitions {
		if seen[def.Name] {
			b.problemAt(def.Position, "type %q is declared more than once", def.Name)
			continue
		}
		if builtinScalarNames[def.Name] {
			b.problemAt(def.Position, "type %q redeclares a built-in scalar", def.Name)
		}
		seen[def.Name] = true
	}
	seenDir := map[string]bool{}
	for _, dd := range doc.Directives {
		if seenDir[dd.Name] {
			b.problemAt(dd.Position, "directive @%s is declared more than once", dd.Name)
		}
		seenDir[dd.Name] = true
	}
}

func (b *builder) checkEnumValueUniqueness() {
	for _, name := range b.schema.typeNames {
		t := b.schema.types[name]
		if t.Kind != KindEnum {
			continue
		}
		seen := map[string]bool{}
		for _, v := range t.EnumValues {
			if seen[v.Name] {
				b.problems = append(b.problems, result.Problemf("enum %q declares value %q more than once", name, v.Name))
			}
			seen[v.Name] = true
		}
	}
}

// checkInterfaceConformance verifies that every field declared by an
// implemented interface is present on the implementor with a
// covariant-or-equal result type and an identical argument signature.
func (b *builder) checkInterfaceConformance() {
	for _, name := range b.schema.typeNames {
		t := b.schema.types[name]
		if t.Kind != KindObject && t.Kind != KindInterface {
			continue
		}
		for _, ifaceName := range t.Interfaces {
			iface := b.schema.types[ifaceName]
			if iface == nil || iface.Kind != KindInterface {
				continue
			}
			for _, want := range iface.Fields {
				got := t.FieldByName(want.Name)
				if got == nil {
					b.problems = append(b.problems, result.Problemf(
						"type %q does not implement field %q of interface %q", name, want.Name, ifaceName))
					continue
				}
				if !Subtype(got.Type, want.Type) {
					b.problems = append(b.problems, result.Problemf(
						"field %q of type %q is not a subtype of its declaration on interface %q", want.Name, name, ifaceName))
				}
				if !sameArgumentSignature(got.Args, want.Args) {
					b.problems = append(b.problems, result.Problemf(
						"field %q of type %q does not match the argument signature declared by interface %q", want.Name, name, ifaceName))
				}
			}
		}
	}
}

// sameArgumentSignature requires identical argument name, type and position.
func sameArgumentSignature(got, want []*InputValue) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].Name != want[i].Name || !Eq(got[i].Type, want[i].Type) {
			return false
		}
	}
	return true
}
