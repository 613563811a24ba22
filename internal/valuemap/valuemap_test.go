package valuemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
)

const starwarsSDL = `
type Query {
  characters: [Character!]!
  character(id: ID!): Character
}

enum Episode { NEWHOPE EMPIRE JEDI }

interface Character {
  id: ID!
  name: String!
  appearsIn: [Episode!]
}

type Human implements Character {
  id: ID!
  name: String!
  appearsIn: [Episode!]
  homePlanet: String
}

type Droid implements Character {
  id: ID!
  name: String!
  appearsIn: [Episode!]
  primaryFunction: String
}
`

func starwarsData() map[string]any {
	characters := []any{
		map[string]any{
			"__typename": "Human",
			"id":         "1000",
			"name":       "Luke Skywalker",
			"appearsIn":  []any{"NEWHOPE", "EMPIRE", "JEDI"},
			"homePlanet": "Tatooine",
		},
		map[string]any{
			"__typename": "Droid",
			"id":         "2001",
			"name":       "R2-D2",
			"appearsIn":  []any{"NEWHOPE", "EMPIRE", "JEDI"},
		},
	}
	return map[string]any{
		"characters": characters,
		"character":  characters,
	}
}

func buildSource(t *testing.T) *Source {
	t.Helper()
	r := schema.Build("starwars", starwarsSDL)
	require.NoError(t, r.Err())
	return New(r.Value(), starwarsData())
}

func field(t *testing.T, c query.Cursor, name string) query.Cursor {
	t.Helper()
	r := c.Field(name, name)
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

func TestNavigateListAndLeaf(t *testing.T) {
	src := buildSource(t)

	characters := field(t, src.Root(), "characters")
	elems := characters.AsList()
	require.NoError(t, elems.Err())
	require.Len(t, elems.Value(), 2)

	name := field(t, elems.Value()[0], "name").AsLeaf()
	require.NoError(t, name.Err())
	assert.Equal(t, value.Str("Luke Skywalker"), name.Value())

	id := field(t, elems.Value()[0], "id").AsLeaf()
	require.NoError(t, id.Err())
	assert.Equal(t, value.ID("1000"), id.Value())
}

func TestEnumLeaves(t *testing.T) {
	src := buildSource(t)
	luke := element(t, src, 0)

	episodes := field(t, luke, "appearsIn").AsList()
	require.NoError(t, episodes.Err())
	first := episodes.Value()[0].AsLeaf()
	require.NoError(t, first.Err())
	assert.Equal(t, value.Enum{TypeName: "Episode", Name: "NEWHOPE"}, first.Value())
}

func TestAbsentNullableFieldIsNull(t *testing.T) {
	src := buildSource(t)
	r2 := element(t, src, 1)

	narrowed := narrowTo(t, src, r2, "Droid")
	pf := narrowed.Field("primaryFunction", "primaryFunction")
	require.NoError(t, pf.Err())
	null := pf.Value().AsNullable()
	require.NoError(t, null.Err())
	assert.Nil(t, null.Value())
}

func TestNarrowByTypename(t *testing.T) {
	src := buildSource(t)
	luke := element(t, src, 0)

	human := src.schema.Definition("Human")
	droid := src.schema.Definition("Droid")
	assert.True(t, luke.NarrowsTo(human))
	assert.False(t, luke.NarrowsTo(droid))

	narrowed := narrowTo(t, src, luke, "Human")
	planet := field(t, narrowed, "homePlanet").AsLeaf()
	require.NoError(t, planet.Err())
	assert.Equal(t, value.Str("Tatooine"), planet.Value())
}

func TestSingularFieldOverListData(t *testing.T) {
	src := buildSource(t)

	character := field(t, src.Root(), "character")
	assert.True(t, character.IsList())
	elems := character.AsList()
	require.NoError(t, elems.Err())
	assert.Len(t, elems.Value(), 2)
	assert.False(t, elems.Value()[0].IsList())
}

func TestTypeMismatchProblems(t *testing.T) {
	src := buildSource(t)
	luke := element(t, src, 0)

	r := field(t, luke, "name").AsList()
	require.Error(t, r.Err())
	require.True(t, query.IsTypeMismatch(r.Problems()[0]))

	missing := luke.Field("starship", "starship")
	require.Error(t, missing.Err())
	assert.Contains(t, missing.Problems()[0].Message, `has no field "starship"`)
}

func element(t *testing.T, src *Source, i int) query.Cursor {
	t.Helper()
	elems := field(t, src.Root(), "characters").AsList()
	require.NoError(t, elems.Err())
	require.Greater(t, len(elems.Value()), i)
	return elems.Value()[i]
}

func narrowTo(t *testing.T, src *Source, c query.Cursor, typeName string) query.Cursor {
	t.Helper()
	sub := src.schema.Definition(typeName)
	require.NotNil(t, sub)
	r := c.Narrow(sub)
	require.NoError(t, r.Err())
	return r.Value()
}
