package value

import (
	"strconv"

	"github.com/hanpama/cursorgraph/internal/language"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
)

// CoerceLiteral coerces a parsed literal (nil when the argument was
// omitted) against an input value declaration. Variables referenced by the
// literal are substituted from vars, which holds already-coerced values.
func CoerceLiteral(s *schema.Schema, in *schema.InputValue, lit *language.Value, vars map[string]Value) result.Result[Value] {
	v, present := fromLiteral(lit, vars)
	return coerce(s, in.Name, in.Type, in.DefaultValue, v, present)
}

// CoerceJSON coerces externally-supplied JSON data (already decoded into Go
// values) against an input value declaration. present is false when the
// entry was missing entirely.
func CoerceJSON(s *schema.Schema, in *schema.InputValue, data any, present bool) result.Result[Value] {
	var v Value
	if present {
		v = FromJSON(data)
	}
	return coerce(s, in.Name, in.Type, in.DefaultValue, v, present)
}

// CoerceVariables coerces an operation's variable values from decoded JSON,
// accumulating problems across independent variable definitions.
func CoerceVariables(s *schema.Schema, operation *language.OperationDefinition, vars map[string]any) result.Result[map[string]Value] {
	coerced := make(map[string]Value, len(operation.VariableDefinitions))
	var problems result.Problems
	for _, def := range operation.VariableDefinitions {
		in := &schema.InputValue{
			Name:         def.Variable,
			Type:         s.TypeFromAST(def.Type),
			DefaultValue: def.DefaultValue,
		}
		supplied, present := vars[def.Variable]
		r := CoerceJSON(s, in, supplied, present)
		if !r.IsOK() {
			problems = append(problems, r.Problems()...)
			continue
		}
		if _, absent := r.Value().(Absent); !absent {
			coerced[def.Variable] = r.Value()
		}
	}
	if len(problems) > 0 {
		return result.FailAll[map[string]Value](problems)
	}
	return result.OK(coerced)
}

// fromLiteral lifts a literal AST value into the pre-coercion value space,
// substituting variables. The second return is false when the value is
// effectively absent (nil literal, or a variable with no binding).
func fromLiteral(lit *language.Value, vars map[string]Value) (Value, bool) {
	if lit == nil {
		return nil, false
	}
	switch lit.Kind {
	case language.Variable:
		if v, ok := vars[lit.Raw]; ok {
			if _, absent := v.(Absent); absent {
				return nil, false
			}
			return v, true
		}
		return nil, false
	case language.IntValue:
		n, err := strconv.ParseInt(lit.Raw, 10, 64)
		if err != nil {
			return Malformed(lit.Raw), true
		}
		return Int(n), true
	case language.FloatValue:
		f, err := strconv.ParseFloat(lit.Raw, 64)
		if err != nil {
			return Malformed(lit.Raw), true
		}
		return Float(f), true
	case language.StringValue, language.BlockValue:
		return Str(lit.Raw), true
	case language.BooleanValue:
		return Boolean(lit.Raw == "true"), true
	case language.NullValue:
		return Null{}, true
	case language.EnumValue:
		return UntypedEnum(lit.Raw), true
	case language.ListValue:
		out := make(List, 0, len(lit.Children))
		for _, c := range lit.Children {
			v, ok := fromLiteral(c.Value, vars)
			if !ok {
				// An unbound variable in a list position reads as null.
				v = Null{}
			}
			out = append(out, v)
		}
		return out, true
	case language.ObjectValue:
		out := make(Object, 0, len(lit.Children))
		for _, c := range lit.Children {
			// An unbound variable on a field reads as an omitted field,
			// so the field's default still applies.
			if v, ok := fromLiteral(c.Value, vars); ok {
				out = append(out, ObjectField{Name: c.Name, Value: v})
			}
		}
		return out, true
	}
	return nil, false
}

// coerce is the shared rule table. Checked in order, first match wins.
func coerce(s *schema.Schema, name string, expected *schema.Type, dflt *schema.RawValue, v Value, present bool) result.Result[Value] {
	// (1) absent with a declared default: coerce the default literal.
	if !present && dflt != nil {
		dv, dp := fromLiteral(dflt, nil)
		return coerce(s, name, expected, nil, dv, dp)
	}

	_, isNull := v.(Null)

	// (2)/(3) nullability. A NonNull wrapper rejects null/absent and retries
	// one level in; without the wrapper, absence and explicit null resolve
	// immediately.
	if expected.NonNull() {
		if !present || isNull {
			return result.Failf[Value]("no value provided for non-null input %q of type %s", name, schema.RenderType(expected))
		}
		return coerce(s, name, expected.Unwrap(), nil, v, true)
	}
	if !present {
		return result.OK[Value](Absent{})
	}
	if isNull {
		return result.OK[Value](Null{})
	}

	if expected.Kind == schema.KindList {
		return coerceList(s, name, expected, v)
	}

	d := expected.Dealias()
	if d == nil {
		return result.Failf[Value]("input %q has unresolvable type %s", name, schema.RenderType(expected))
	}

	switch d.Kind {
	case schema.KindScalar:
		return coerceScalar(name, d, v)
	case schema.KindEnum:
		return coerceEnum(name, d, v)
	case schema.KindInputObject:
		return coerceInputObject(s, name, d, v)
	case schema.KindList:
		return coerceList(s, name, d, v)
	}
	return typeError(name, expected, v)
}

func coerceScalar(name string, d *schema.Type, v Value) result.Result[Value] {
	// (4) exact scalar-kind match.
	switch d.Name {
	case schema.ScalarInt:
		if i, ok := v.(Int); ok {
			return result.OK[Value](i)
		}
	case schema.ScalarFloat:
		if f, ok := v.(Float); ok {
			return result.OK[Value](f)
		}
	case schema.ScalarString:
		if s, ok := v.(Str); ok {
			return result.OK[Value](s)
		}
	case schema.ScalarBoolean:
		if b, ok := v.(Boolean); ok {
			return result.OK[Value](b)
		}
	case schema.ScalarID:
		// (6) ID accepts ID, String and Int literal shapes.
		switch v := v.(type) {
		case ID:
			return result.OK[Value](v)
		case Str:
			return result.OK[Value](ID(v))
		case Int:
			return result.OK[Value](ID(strconv.FormatInt(int64(v), 10)))
		}
	default:
		// (5) custom scalars pass any primitive literal shape unchanged.
		switch v.(type) {
		case Int, Float, Str, Boolean:
			return result.OK[Value](v)
		}
	}
	return typeErrorNamed(name, d.Name, v)
}

func coerceEnum(name string, d *schema.Type, v Value) result.Result[Value] {
	// (7) already-typed enum values pass through; untyped names (and, for
	// the JSON path, strings) resolve against the declared value set.
	var candidate string
	switch v := v.(type) {
	case Enum:
		if v.TypeName == d.Name {
			candidate = v.Name
		} else {
			return typeErrorNamed(name, d.Name, v)
		}
	case UntypedEnum:
		candidate = string(v)
	case Str:
		candidate = string(v)
	default:
		return typeErrorNamed(name, d.Name, v)
	}
	for _, ev := range d.EnumValues {
		if ev.Name == candidate {
			return result.OK[Value](Enum{TypeName: d.Name, Name: candidate})
		}
	}
	return result.Failf[Value]("enum %s has no value %q (input %q)", d.Name, candidate, name)
}

// coerceList coerces every element against the element type, accumulating
// all element problems before failing the list as a whole.
func coerceList(s *schema.Schema, name string, listType *schema.Type, v Value) result.Result[Value] {
	lv, ok := v.(List)
	if !ok {
		return typeError(name, listType, v)
	}
	elemType := listType.Unwrap()
	r := result.Traverse(lv, func(elem Value) result.Result[Value] {
		return coerce(s, name, elemType, nil, elem, true)
	})
	return result.Map(r, func(vs []Value) Value { return List(vs) })
}

// coerceInputObject rejects undeclared field names, then coerces every
// declared field against the corresponding supplied entry. Problems across
// sibling fields accumulate.
func coerceInputObject(s *schema.Schema, name string, d *schema.Type, v Value) result.Result[Value] {
	ov, ok := v.(Object)
	if !ok {
		return typeErrorNamed(name, d.Name, v)
	}
	var problems result.Problems
	for _, f := range ov {
		declared := false
		for _, in := range d.InputFields {
			if in.Name == f.Name {
				declared = true
				break
			}
		}
		if !declared {
			problems = append(problems, result.Problemf("input object %s has no field %q (input %q)", d.Name, f.Name, name))
		}
	}
	out := make(Object, 0, len(d.InputFields))
	for _, in := range d.InputFields {
		supplied, present := ov.Field(in.Name)
		r := coerce(s, in.Name, in.Type, in.DefaultValue, supplied, present)
		if !r.IsOK() {
			problems = append(problems, r.Problems()...)
			continue
		}
		if _, absent := r.Value().(Absent); absent {
			continue
		}
		out = append(out, ObjectField{Name: in.Name, Value: r.Value()})
	}
	if len(problems) > 0 {
		return result.FailAll[Value](problems)
	}
	return result.OK[Value](out)
}

// (10) anything else is a type error naming the expected type, the
// offending value and the input name.
func typeError(name string, expected *schema.Type, v Value) result.Result[Value] {
	return result.Failf[Value]("expected %s for input %q, found %s", schema.RenderType(expected), name, v.String())
}

func typeErrorNamed(name, typeName string, v Value) result.Result[Value] {
	return result.Failf[Value]("expected %s for input %q, found %s", typeName, name, v.String())
}
