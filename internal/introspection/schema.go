// Package introspection serves the __schema, __type and __typename meta
// fields. The meta model is itself a schema, and schema metadata is exposed
// through a cursor over it, so the interpreter executes introspection
// selections the same way it executes everything else.
package introspection

import (
	"sync"

	"github.com/hanpama/cursorgraph/internal/schema"
)

const metaSDL = `
type Query {
  "Access the current type schema of this server."
  __schema: __Schema!
  "Request the type information of a single type."
  __type(name: String!): __Type
}

"A schema defines the capabilities of a server."
type __Schema {
  description: String
  "A list of all types supported by this server."
  types: [__Type!]!
  "The type that query operations will be rooted at."
  queryType: __Type!
  "If this server supports mutation, the type that mutation operations will be rooted at."
  mutationType: __Type
  "If this server supports subscription, the type that subscription operations will be rooted at."
  subscriptionType: __Type
  "A list of all directives supported by this server."
  directives: [__Directive!]!
}

"The fundamental unit of any schema is the type."
type __Type {
  kind: __TypeKind!
  name: String
  description: String
  fields(includeDeprecated: Boolean = false): [__Field!]
  interfaces: [__Type!]
  possibleTypes: [__Type!]
  enumValues(includeDeprecated: Boolean = false): [__EnumValue!]
  inputFields(includeDeprecated: Boolean = false): [__InputValue!]
  ofType: __Type
  specifiedByURL: String
}

type __Field {
  name: String!
  description: String
  args(includeDeprecated: Boolean = false): [__InputValue!]!
  type: __Type!
  isDeprecated: Boolean!
  deprecationReason: String
}

type __InputValue {
  name: String!
  description: String
  type: __Type!
  defaultValue: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __EnumValue {
  name: String!
  description: String
  isDeprecated: Boolean!
  deprecationReason: String
}

type __Directive {
  name: String!
  description: String
  isRepeatable: Boolean!
  locations: [__DirectiveLocation!]!
  args(includeDeprecated: Boolean = false): [__InputValue!]!
}

enum __TypeKind {
  SCALAR
  OBJECT
  INTERFACE
  UNION
  ENUM
  INPUT_OBJECT
  LIST
  NON_NULL
}

enum __DirectiveLocation {
  QUERY
  MUTATION
  SUBSCRIPTION
  FIELD
  FRAGMENT_DEFINITION
  FRAGMENT_SPREAD
  INLINE_FRAGMENT
  VARIABLE_DEFINITION
  SCHEMA
  SCALAR
  OBJECT
  FIELD_DEFINITION
  ARGUMENT_DEFINITION
  INTERFACE
  UNION
  ENUM
  ENUM_VALUE
  INPUT_OBJECT
  INPUT_FIELD_DEFINITION
}
`

var metaSchema = sync.OnceValue(func() *schema.Schema {
	r := schema.Build("introspection", metaSDL)
	if !r.IsOK() {
		panic(r.Err())
	}
	return r.Value()
})

// MetaSchema returns the schema of the introspection model itself.
func MetaSchema() *schema.Schema { return metaSchema() }

func typeKindName(t *schema.Type) string {
	switch t.Kind {
	case schema.KindList:
		return "LIST"
	case schema.KindNonNull:
		return "NON_NULL"
	}
	switch t.Dealias().Kind {
	case schema.KindScalar:
		return "SCALAR"
	case schema.KindObject:
		return "OBJECT"
	case schema.KindInterface:
		return "INTERFACE"
	case schema.KindUnion:
		return "UNION"
	case schema.KindEnum:
		return "ENUM"
	case schema.KindInputObject:
		return "INPUT_OBJECT"
	}
	return ""
}
