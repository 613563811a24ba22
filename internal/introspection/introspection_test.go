package introspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
)

const describedSDL = `
type Query {
  hero(episode: Episode! = JEDI): Character
}

enum Episode { NEWHOPE EMPIRE JEDI }

interface Character {
  id: ID!
  name: String!
}

type Human implements Character {
  id: ID!
  name: String!
  homePlanet: String @deprecated(reason: "use location")
}

type Droid implements Character {
  id: ID!
  name: String!
}
`

func describedSchema(t *testing.T) *schema.Schema {
	t.Helper()
	r := schema.Build("described", describedSDL)
	require.NoError(t, r.Err())
	return r.Value()
}

func field(t *testing.T, c query.Cursor, name string, args query.Bindings) query.Cursor {
	t.Helper()
	r := c.(query.ArgumentedCursor).FieldWith(name, name, args)
	require.NoError(t, r.Err())
	next := r.Value()
	if next.IsNullable() {
		inner := next.AsNullable()
		require.NoError(t, inner.Err())
		require.NotNil(t, inner.Value())
		next = inner.Value()
	}
	return next
}

func leaf(t *testing.T, c query.Cursor) value.Value {
	t.Helper()
	r := c.AsLeaf()
	require.NoError(t, r.Err())
	return r.Value()
}

func TestSchemaField(t *testing.T) {
	s := describedSchema(t)
	root := Root(s)

	meta := field(t, root, "__schema", nil)
	queryType := field(t, meta, "queryType", nil)
	assert.Equal(t, value.Str("Query"), leaf(t, field(t, queryType, "name", nil)))

	mutationType := meta.(query.ArgumentedCursor).FieldWith("mutationType", "mutationType", nil)
	require.NoError(t, mutationType.Err())
	r := mutationType.Value().AsNullable()
	require.NoError(t, r.Err())
	assert.Nil(t, r.Value())
}

func TestSchemaTypesAreSorted(t *testing.T) {
	s := describedSchema(t)
	meta := field(t, Root(s), "__schema", nil)

	types := field(t, meta, "types", nil).AsList()
	require.NoError(t, types.Err())
	var names []string
	for _, tc := range types.Value() {
		names = append(names, string(leaf(t, field(t, tc, "name", nil)).(value.Str)))
	}
	assert.Equal(t, []string{"Character", "Droid", "Episode", "Human", "Query"}, names)
}

func TestTypeByName(t *testing.T) {
	s := describedSchema(t)
	root := Root(s)

	droid := field(t, root, "__type", query.Bindings{{Name: "name", Value: value.Str("Droid")}})
	assert.Equal(t, value.Enum{TypeName: "__TypeKind", Name: "OBJECT"}, leaf(t, field(t, droid, "kind", nil)))
	assert.Equal(t, value.Str("Droid"), leaf(t, field(t, droid, "name", nil)))
}

func TestTypeByNameMissing(t *testing.T) {
	s := describedSchema(t)
	r := Root(s).(query.ArgumentedCursor).FieldWith("__type", "__type",
		query.Bindings{{Name: "name", Value: value.Str("Starship")}})
	require.NoError(t, r.Err())
	inner := r.Value().AsNullable()
	require.NoError(t, inner.Err())
	assert.Nil(t, inner.Value())
}

func TestWrapperTypesExposeOfType(t *testing.T) {
	s := describedSchema(t)
	character := field(t, Root(s), "__type", query.Bindings{{Name: "name", Value: value.Str("Character")}})

	fields := field(t, character, "fields", nil).AsList()
	require.NoError(t, fields.Err())
	require.Len(t, fields.Value(), 2)

	// sorted: id before name
	id := fields.Value()[0]
	assert.Equal(t, value.Str("id"), leaf(t, field(t, id, "name", nil)))

	idType := field(t, id, "type", nil)
	assert.Equal(t, value.Enum{TypeName: "__TypeKind", Name: "NON_NULL"}, leaf(t, field(t, idType, "kind", nil)))

	name := idType.(query.ArgumentedCursor).FieldWith("name", "name", nil)
	require.NoError(t, name.Err())
	null := name.Value().AsNullable()
	require.NoError(t, null.Err())
	assert.Nil(t, null.Value())

	inner := field(t, idType, "ofType", nil)
	assert.Equal(t, value.Str("ID"), leaf(t, field(t, inner, "name", nil)))
}

func TestDeprecatedFieldsAreFilteredByDefault(t *testing.T) {
	s := describedSchema(t)
	human := field(t, Root(s), "__type", query.Bindings{{Name: "name", Value: value.Str("Human")}})

	visible := field(t, human, "fields", nil).AsList()
	require.NoError(t, visible.Err())
	assert.Len(t, visible.Value(), 2)

	all := field(t, human, "fields", query.Bindings{{Name: "includeDeprecated", Value: value.Boolean(true)}}).AsList()
	require.NoError(t, all.Err())
	require.Len(t, all.Value(), 3)

	homePlanet := all.Value()[0]
	assert.Equal(t, value.Str("homePlanet"), leaf(t, field(t, homePlanet, "name", nil)))
	assert.Equal(t, value.Boolean(true), leaf(t, field(t, homePlanet, "isDeprecated", nil)))
	assert.Equal(t, value.Str("use location"), leaf(t, field(t, homePlanet, "deprecationReason", nil)))
}

func TestPossibleTypesAndInterfaces(t *testing.T) {
	s := describedSchema(t)
	character := field(t, Root(s), "__type", query.Bindings{{Name: "name", Value: value.Str("Character")}})

	possible := field(t, character, "possibleTypes", nil).AsList()
	require.NoError(t, possible.Err())
	var names []string
	for _, tc := range possible.Value() {
		names = append(names, string(leaf(t, field(t, tc, "name", nil)).(value.Str)))
	}
	assert.Equal(t, []string{"Droid", "Human"}, names)

	human := field(t, Root(s), "__type", query.Bindings{{Name: "name", Value: value.Str("Human")}})
	ifaces := field(t, human, "interfaces", nil).AsList()
	require.NoError(t, ifaces.Err())
	require.Len(t, ifaces.Value(), 1)
	assert.Equal(t, value.Str("Character"), leaf(t, field(t, ifaces.Value()[0], "name", nil)))
}

func TestEnumValuesAndDefaultRendering(t *testing.T) {
	s := describedSchema(t)
	episode := field(t, Root(s), "__type", query.Bindings{{Name: "name", Value: value.Str("Episode")}})

	evs := field(t, episode, "enumValues", nil).AsList()
	require.NoError(t, evs.Err())
	require.Len(t, evs.Value(), 3)
	assert.Equal(t, value.Str("NEWHOPE"), leaf(t, field(t, evs.Value()[0], "name", nil)))

	queryType := field(t, Root(s), "__type", query.Bindings{{Name: "name", Value: value.Str("Query")}})
	hero := field(t, queryType, "fields", nil).AsList().Value()[0]
	arg := field(t, hero, "args", nil).AsList().Value()[0]
	assert.Equal(t, value.Str("JEDI"), leaf(t, field(t, arg, "defaultValue", nil)))
}

func TestDirectives(t *testing.T) {
	s := describedSchema(t)
	meta := field(t, Root(s), "__schema", nil)

	dirs := field(t, meta, "directives", nil).AsList()
	require.NoError(t, dirs.Err())
	var names []string
	for _, d := range dirs.Value() {
		names = append(names, string(leaf(t, field(t, d, "name", nil)).(value.Str)))
	}
	assert.Equal(t, []string{"deprecated", "include", "skip"}, names)
}
