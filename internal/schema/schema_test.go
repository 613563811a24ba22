package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const starwarsSDL = `
type Query {
  hero(episode: Episode): Character
  character(id: ID!): Character
  human(id: ID!): Human
  droid(id: ID!): Droid
}

enum Episode { NEWHOPE, EMPIRE, JEDI }

interface Character {
  id: String!
  name: String!
  friends: [Character!]
  appearsIn: [Episode!]!
}

type Human implements Character {
  id: String!
  name: String!
  friends: [Character!]
  appearsIn: [Episode!]!
  homePlanet: String
}

type Droid implements Character {
  id: String!
  name: String!
  friends: [Character!]
  appearsIn: [Episode!]!
  primaryFunction: String
}

union SearchResult = Human | Droid
`

func mustBuild(t *testing.T, sdl string) *Schema {
	t.Helper()
	r := Build("test.graphql", sdl)
	require.NoError(t, r.Err())
	return r.Value()
}

func TestBuildAndLookup(t *testing.T) {
	s := mustBuild(t, starwarsSDL)

	require.NotNil(t, s.Query())
	assert.Equal(t, "Query", s.Query().Name)
	assert.Nil(t, s.Mutation())

	human := s.Definition("Human")
	require.NotNil(t, human)
	assert.Equal(t, KindObject, human.Kind)
	assert.Equal(t, []string{"Character"}, human.Interfaces)

	// Field lookup dealiases and looks through NonNull.
	name := human.FieldByName("name")
	require.NotNil(t, name)
	assert.True(t, name.Type.NonNull())
	assert.Equal(t, "String", name.Type.Unwrap().Name)

	assert.Nil(t, human.FieldByName("nope"))
}

func TestDanglingRefFailsClosed(t *testing.T) {
	s := mustBuild(t, starwarsSDL)
	ref := s.Ref("NoSuchType")
	assert.Nil(t, ref.Dealias())
	assert.Nil(t, ref.FieldByName("x"))
	assert.Nil(t, ref.UnderlyingObject())
	assert.False(t, Subtype(ref, s.Ref("Character")))
}

func TestSubtyping(t *testing.T) {
	s := mustBuild(t, starwarsSDL)
	human := s.Definition("Human")
	character := s.Definition("Character")
	search := s.Definition("SearchResult")

	// Reflexive, through refs.
	assert.True(t, Subtype(human, human))
	assert.True(t, Subtype(s.Ref("Human"), human))

	// Object below declared interface, and union membership.
	assert.True(t, Subtype(human, character))
	assert.False(t, Subtype(character, human))
	assert.True(t, Subtype(human, search))
	assert.False(t, Subtype(character, search))

	// NonNull unwraps on the right; wrappers are covariant.
	assert.True(t, Subtype(NonNullOf(s.Ref("Human")), character))
	assert.False(t, Subtype(human, NonNullOf(s.Ref("Character"))))
	assert.True(t, Subtype(ListOf(NonNullOf(s.Ref("Human"))), ListOf(s.Ref("Character"))))
}

func TestSubtypeTransitivityThroughInterfaceChain(t *testing.T) {
	s := mustBuild(t, `
type Query { node: Node }
interface Node { id: ID! }
interface Resource implements Node { id: ID!, url: String }
type Image implements Resource & Node { id: ID!, url: String, thumbnail: String }
`)
	image := s.Definition("Image")
	resource := s.Definition("Resource")
	node := s.Definition("Node")
	assert.True(t, Subtype(image, resource))
	assert.True(t, Subtype(resource, node))
	assert.True(t, Subtype(image, node))
}

func TestEqualityAcrossRefsAndRoundTrip(t *testing.T) {
	s := mustBuild(t, starwarsSDL)
	assert.True(t, Eq(s.Ref("Human"), s.Definition("Human")))
	assert.True(t, NominalEq(ListOf(s.Ref("Human")), ListOf(s.Definition("Human"))))
	assert.False(t, Eq(s.Ref("Human"), s.Definition("Droid")))

	// Render then re-parse: every declared type compares equal.
	r := Build("rendered.graphql", Render(s))
	require.NoError(t, r.Err())
	reparsed := r.Value()
	for _, name := range s.TypeNames() {
		if IsBuiltinScalar(name) {
			continue
		}
		assert.True(t, Eq(s.Definition(name), reparsed.Definition(name)), "type %s", name)
	}
	assert.Equal(t, Render(s), Render(reparsed))
}

func TestRenderEscapesQuotedText(t *testing.T) {
	s := mustBuild(t, `
"""
Says "hi" and contains a \""" delimiter.
"""
type Query {
  hello: String @deprecated(reason: "use \"greeting\" instead")
}
`)
	r := Build("rendered.graphql", Render(s))
	require.NoError(t, r.Err())
	reparsed := r.Value()

	q := reparsed.Definition("Query")
	require.NotNil(t, q)
	assert.Equal(t, `Says "hi" and contains a """ delimiter.`, q.Description)
	f := q.FieldByName("hello")
	require.NotNil(t, f)
	assert.Equal(t, `use "greeting" instead`, f.DeprecationReason)
	assert.Equal(t, Render(s), Render(reparsed))
}

func TestPathWalks(t *testing.T) {
	s := mustBuild(t, starwarsSDL)
	q := s.Query()

	leaf := q.Path([]string{"hero", "friends", "name"})
	require.NotNil(t, leaf)
	assert.Equal(t, "String", leaf.Unwrap().Name)

	assert.True(t, q.PathIsList([]string{"hero", "friends"}))
	assert.False(t, q.PathIsList([]string{"hero", "name"}))
	assert.True(t, q.PathIsNullable([]string{"hero", "name"}))
	assert.False(t, s.Definition("Human").PathIsNullable([]string{"name"}))
	assert.Nil(t, q.Path([]string{"hero", "nope"}))
}

func TestUnderlyingObjectAndField(t *testing.T) {
	s := mustBuild(t, starwarsSDL)
	friends := s.Definition("Human").FieldByName("friends")
	obj := friends.Type.UnderlyingObject()
	require.NotNil(t, obj)
	assert.Equal(t, "Character", obj.Name)
	appears := friends.Type.UnderlyingField("appearsIn")
	require.NotNil(t, appears)
	assert.True(t, appears.IsList())
}

func TestExhaustive(t *testing.T) {
	s := mustBuild(t, starwarsSDL)
	character := s.Definition("Character")
	human, droid := s.Definition("Human"), s.Definition("Droid")

	assert.True(t, s.Exhaustive(character, []*Type{human, droid}))
	assert.False(t, s.Exhaustive(character, []*Type{human}))
	assert.True(t, s.Exhaustive(s.Definition("SearchResult"), []*Type{character}))
}

func TestBuildValidationAccumulates(t *testing.T) {
	r := Build("bad.graphql", `
type Query { a: Missing, b: AlsoMissing }
type Dup { x: String }
type Dup { y: String }
enum Mood { HAPPY, HAPPY }
`)
	require.Error(t, r.Err())
	msgs := make([]string, 0, len(r.Problems()))
	for _, p := range r.Problems() {
		msgs = append(msgs, p.Message)
	}
	assert.Contains(t, msgs, `unknown type "Missing" referenced by field Query.a`)
	assert.Contains(t, msgs, `unknown type "AlsoMissing" referenced by field Query.b`)
	assert.Contains(t, msgs, `type "Dup" is declared more than once`)
	assert.Contains(t, msgs, `enum "Mood" declares value "HAPPY" more than once`)
	assert.GreaterOrEqual(t, len(msgs), 4)
}

func TestEmptyContainersRejected(t *testing.T) {
	for _, tc := range []struct {
		name string
		sdl  string
		want string
	}{
		{"object", `type Query { ok: String } type Empty`, `object "Empty" declares no fields`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := Build("t.graphql", tc.sdl)
			require.Error(t, r.Err())
			assert.Equal(t, tc.want, r.Problems()[0].Message)
		})
	}
}

func TestInterfaceConformance(t *testing.T) {
	t.Run("argument signature mismatch", func(t *testing.T) {
		r := Build("t.graphql", `
type Query { n: Named }
interface Named { display(upper: Boolean): String }
type Venue implements Named { display(shout: Boolean): String }
`)
		require.Error(t, r.Err())
		assert.Equal(t,
			`field "display" of type "Venue" does not match the argument signature declared by interface "Named"`,
			r.Problems()[0].Message)
	})

	t.Run("missing field", func(t *testing.T) {
		r := Build("t.graphql", `
type Query { n: Named }
interface Named { name: String! }
type Venue implements Named { address: String }
`)
		require.Error(t, r.Err())
		assert.Equal(t, `type "Venue" does not implement field "name" of interface "Named"`, r.Problems()[0].Message)
	})

	t.Run("covariant result type accepted", func(t *testing.T) {
		r := Build("t.graphql", `
type Query { n: Node }
interface Node { self: Node }
type Leaf implements Node { self: Leaf }
`)
		require.NoError(t, r.Err())
	})

	t.Run("all violations reported together", func(t *testing.T) {
		r := Build("t.graphql", `
type Query { n: Named }
interface Named { name: String!, tag: String }
type Venue implements Named { other: Int }
`)
		require.Error(t, r.Err())
		assert.Len(t, r.Problems(), 2)
	})
}

func TestDirectiveDefinitionRoundTrip(t *testing.T) {
	s := mustBuild(t, `
type Query { ok: String }
directive @foo(arg: String!) on FIELD
`)
	d := s.Directive("foo")
	require.NotNil(t, d)
	require.Len(t, d.Args, 1)
	assert.Equal(t, "arg", d.Args[0].Name)
	assert.True(t, d.Args[0].Type.NonNull())
	assert.Equal(t, "String", d.Args[0].Type.Unwrap().Name)
	assert.Equal(t, []string{"FIELD"}, d.Locations)

	reparsed := mustBuild(t, Render(s))
	d2 := reparsed.Directive("foo")
	require.NotNil(t, d2)
	require.Len(t, d2.Args, 1)
	assert.True(t, Eq(d.Args[0].Type, d2.Args[0].Type))
}

func TestExplicitSchemaBlockRoots(t *testing.T) {
	s := mustBuild(t, `
schema { query: Root }
type Root { ok: String }
`)
	require.NotNil(t, s.Query())
	assert.Equal(t, "Root", s.Query().Name)
}
