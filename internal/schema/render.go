package schema

import (
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema. Deterministic ordering: type and
// directive names sorted lexicographically, built-ins omitted. The output
// re-parses to a schema equal (by Eq on every declared type) to the input.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	if hasExplicitRoots(s) {
		b.WriteString("schema {\n")
		if s.QueryType != "" {
			b.WriteString("  query: " + s.QueryType + "\n")
		}
		if s.MutationType != "" {
			b.WriteString("  mutation: " + s.MutationType + "\n")
		}
		if s.SubscriptionType != "" {
			b.WriteString("  subscription: " + s.SubscriptionType + "\n")
		}
		b.WriteString("}\n\n")
	}

	typeNames := make([]string, 0, len(s.types))
	for name := range s.types {
		if builtinScalarNames[name] {
			continue
		}
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		typ := s.types[name]
		switch typ.Kind {
		case KindScalar:
			renderScalar(&b, typ)
		case KindEnum:
			renderEnum(&b, typ)
		case KindInputObject:
			renderInputObject(&b, typ)
		case KindObject:
			renderObjectLike(&b, typ, "type")
		case KindInterface:
			renderObjectLike(&b, typ, "interface")
		case KindUnion:
			renderUnion(&b, typ)
		}
	}

	dirNames := make([]string, 0, len(s.directives))
	for name := range s.directives {
		if builtinDirectiveNames[name] {
			continue
		}
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)
	for _, name := range dirNames {
		renderDirectiveDef(&b, s.directives[name])
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// RenderType renders a type reference the way it appears in SDL.
func RenderType(t *Type) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case KindList:
		return "[" + RenderType(t.Elem) + "]"
	case KindNonNull:
		return RenderType(t.Elem) + "!"
	default:
		return t.Name
	}
}

func hasExplicitRoots(s *Schema) bool {
	return (s.QueryType != "" && s.QueryType != "Query") ||
		(s.MutationType != "" && s.MutationType != "Mutation") ||
		(s.SubscriptionType != "" && s.SubscriptionType != "Subscription")
}

func renderDescription(b *strings.Builder, desc string) {
	if desc == "" {
		return
	}
	// The only escape a block string needs is for the triple quote itself.
	b.WriteString("\"\"\"\n")
	b.WriteString(strings.ReplaceAll(desc, `"""`, `\"""`))
	b.WriteString("\n\"\"\"\n")
}

func renderScalar(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("scalar ")
	b.WriteString(typ.Name)
	b.WriteString("\n\n")
}

func renderEnum(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("enum ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, val := range typ.EnumValues {
		renderDescription(b, val.Description)
		b.WriteString("  ")
		b.WriteString(val.Name)
		renderDeprecation(b, val.IsDeprecated, val.DeprecationReason)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderInputObject(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("input ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, field := range typ.InputFields {
		renderDescription(b, field.Description)
		b.WriteString("  ")
		renderInputValue(b, field)
		renderDeprecation(b, field.IsDeprecated, field.DeprecationReason)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func renderObjectLike(b *strings.Builder, typ *Type, keyword string) {
	renderDescription(b, typ.Description)
	b.WriteString(keyword)
	b.WriteString(" ")
	b.WriteString(typ.Name)
	if len(typ.Interfaces) > 0 {
		b.WriteString(" implements ")
		b.WriteString(strings.Join(typ.Interfaces, " & "))
	}
	b.WriteString(" {\n")
	for _, field := range typ.Fields {
		renderField(b, field)
	}
	b.WriteString("}\n\n")
}

func renderUnion(b *strings.Builder, typ *Type) {
	renderDescription(b, typ.Description)
	b.WriteString("union ")
	b.WriteString(typ.Name)
	b.WriteString(" = ")
	b.WriteString(strings.Join(typ.Members, " | "))
	b.WriteString("\n\n")
}

func renderField(b *strings.Builder, field *Field) {
	renderDescription(b, field.Description)
	b.WriteString("  ")
	b.WriteString(field.Name)
	renderArguments(b, field.Args)
	b.WriteString(": ")
	b.WriteString(RenderType(field.Type))
	renderDeprecation(b, field.IsDeprecated, field.DeprecationReason)
	b.WriteString("\n")
}

func renderArguments(b *strings.Builder, args []*InputValue) {
	if len(args) == 0 {
		return
	}
	b.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		renderInputValue(b, arg)
	}
	b.WriteString(")")
}

func renderInputValue(b *strings.Builder, in *InputValue) {
	b.WriteString(in.Name)
	b.WriteString(": ")
	b.WriteString(RenderType(in.Type))
	if in.DefaultValue != nil {
		b.WriteString(" = ")
		b.WriteString(in.DefaultValue.String())
	}
}

func renderDeprecation(b *strings.Builder, deprecated bool, reason string) {
	if !deprecated {
		return
	}
	b.WriteString(" @deprecated")
	if reason != "" {
		b.WriteString("(reason: ")
		b.WriteString(strconv.Quote(reason))
		b.WriteString(")")
	}
}

func renderDirectiveDef(b *strings.Builder, d *DirectiveDef) {
	renderDescription(b, d.Description)
	b.WriteString("directive @")
	b.WriteString(d.Name)
	renderArguments(b, d.Args)
	if d.Repeatable {
		b.WriteString(" repeatable")
	}
	b.WriteString(" on ")
	b.WriteString(strings.Join(d.Locations, " | "))
	b.WriteString("\n\n")
}
