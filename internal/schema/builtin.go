package schema

// Built-in scalar names checked by reference-closure validation and treated
// specially by coercion.
const (
	ScalarString  = "String"
	ScalarInt     = "Int"
	ScalarFloat   = "Float"
	ScalarBoolean = "Boolean"
	ScalarID      = "ID"
)

// IsBuiltinScalar reports whether name is one of the five built-in scalars.
func IsBuiltinScalar(name string) bool {
	switch name {
	case ScalarString, ScalarInt, ScalarFloat, ScalarBoolean, ScalarID:
		return true
	}
	return false
}

func builtinScalars() []*Type {
	return []*Type{
		NewScalar(ScalarString, "The `String` scalar type represents textual data, represented as UTF-8 character sequences."),
		NewScalar(ScalarInt, "The `Int` scalar type represents non-fractional signed whole numeric values."),
		NewScalar(ScalarFloat, "The `Float` scalar type represents signed double-precision fractional values."),
		NewScalar(ScalarBoolean, "The `Boolean` scalar type represents `true` or `false`."),
		NewScalar(ScalarID, "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching."),
	}
}

func builtinDirectives(s *Schema) []*DirectiveDef {
	boolArg := func(name, desc string) *InputValue {
		return &InputValue{Name: name, Description: desc, Type: NonNullOf(s.Ref(ScalarBoolean))}
	}
	return []*DirectiveDef{
		{
			Name:        "include",
			Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
			Args:        []*InputValue{boolArg("if", "Included when true.")},
			Locations:   []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		},
		{
			Name:        "skip",
			Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
			Args:        []*InputValue{boolArg("if", "Skipped when true.")},
			Locations:   []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		},
		{
			Name:        "deprecated",
			Description: "Marks an element of a GraphQL schema as no longer supported.",
			Args: []*InputValue{{
				Name:        "reason",
				Description: "Explains why this element was deprecated.",
				Type:        s.Ref(ScalarString),
			}},
			Locations: []string{"FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE"},
		},
	}
}

var builtinScalarNames = map[string]bool{
	ScalarString: true, ScalarInt: true, ScalarFloat: true, ScalarBoolean: true, ScalarID: true,
}

var builtinDirectiveNames = map[string]bool{
	"include": true, "skip": true, "deprecated": true,
}
