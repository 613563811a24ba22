package mapping

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/cursorgraph/internal/eventbus"
	"github.com/hanpama/cursorgraph/internal/events"
	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
	"github.com/hanpama/cursorgraph/internal/schema"
	"github.com/hanpama/cursorgraph/internal/value"
	"github.com/hanpama/cursorgraph/internal/valuemap"
)

const catalogSDL = `
type Query {
  products: [Product!]!
  product(sku: ID!): Product
}

type Product {
  sku: ID!
  title: String!
  price: Float!
}
`

func catalogData() map[string]any {
	return map[string]any{
		"products": []any{
			map[string]any{"sku": "A1", "title": "Anvil", "price": 49.5},
			map[string]any{"sku": "B2", "title": "Rocket Skates", "price": 120.0},
		},
		"product": []any{
			map[string]any{"sku": "A1", "title": "Anvil", "price": 49.5},
			map[string]any{"sku": "B2", "title": "Rocket Skates", "price": 120.0},
		},
	}
}

func newCatalog(t *testing.T, opts ...Option) *Mapping {
	t.Helper()
	r := schema.Build("catalog", catalogSDL)
	require.NoError(t, r.Err())
	s := r.Value()

	m := New(s, valuemap.New(s, catalogData()), opts...)
	m.Bind("Query", "product", func(sel *query.Select, child query.Query) result.Result[query.Query] {
		sku, ok := sel.Args.Get("sku")
		if !ok {
			return result.Failf[query.Query]("product requires a sku argument")
		}
		return result.OK[query.Query](&query.Select{
			Name:  sel.Name,
			Alias: sel.Alias,
			Child: &query.Unique{Child: &query.Filter{
				Pred:  query.Eql{Path: query.Path{"sku"}, Value: sku},
				Child: child,
			}},
		})
	})
	return m
}

func TestExecute(t *testing.T) {
	m := newCatalog(t)
	r := m.Execute(context.Background(), `{ product(sku: "B2") { title price } }`, "", nil)
	require.NoError(t, r.Err())
	want := map[string]any{
		"product": map[string]any{"title": "Rocket Skates", "price": 120.0},
	}
	if diff := cmp.Diff(want, r.Value()); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestExecuteWithVariables(t *testing.T) {
	m := newCatalog(t)
	r := m.Execute(context.Background(),
		`query Get($sku: ID!) { product(sku: $sku) { title } }`,
		"Get", map[string]any{"sku": "A1"})
	require.NoError(t, r.Err())
	want := map[string]any{"product": map[string]any{"title": "Anvil"}}
	if diff := cmp.Diff(want, r.Value()); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestExecuteReportsParseProblems(t *testing.T) {
	m := newCatalog(t)
	r := m.Execute(context.Background(), `{ product(`, "", nil)
	require.Error(t, r.Err())
}

func TestExecuteReportsCompileProblems(t *testing.T) {
	m := newCatalog(t)
	r := m.Execute(context.Background(), `{ nosuch }`, "", nil)
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), `cannot query field "nosuch" on type "Query"`)
}

func TestMaxDepthEnforced(t *testing.T) {
	m := newCatalog(t, WithMaxDepth(1))
	r := m.Execute(context.Background(), `{ products { title } }`, "", nil)
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "Query is too deep")
}

func TestMaxWidthEnforced(t *testing.T) {
	m := newCatalog(t, WithMaxWidth(2))
	r := m.Execute(context.Background(), `{ products { sku title price } }`, "", nil)
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "Query is too wide")
}

func TestExecutePublishesOperationEvents(t *testing.T) {
	ctx := context.Background()
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	var starts []events.OperationStart
	var finishes []events.OperationFinish
	eventbus.Subscribe(func(ctx context.Context, e events.OperationStart) { starts = append(starts, e) })
	eventbus.Subscribe(func(ctx context.Context, e events.OperationFinish) { finishes = append(finishes, e) })

	m := newCatalog(t)
	r := m.Execute(ctx, `query List { products { title } }`, "List", nil)
	require.NoError(t, r.Err())

	require.Len(t, starts, 1)
	assert.Equal(t, "List", starts[0].OperationName)
	assert.Equal(t, "query", starts[0].OperationType)
	require.Len(t, finishes, 1)
	assert.Equal(t, 0, finishes[0].ProblemCount)
}

func TestMappingAsComponentBackend(t *testing.T) {
	inventory := newCatalog(t)

	const storeSDL = `
type Query {
  store: Store!
}

type Store {
  name: String!
  featuredSku: ID!
  featured: Product
}

type Product {
  sku: ID!
  title: String!
  price: Float!
}
`
	r := schema.Build("store", storeSDL)
	require.NoError(t, r.Err())
	s := r.Value()

	data := map[string]any{
		"store": map[string]any{"name": "Acme", "featuredSku": "A1"},
	}
	m := New(s, valuemap.New(s, data))
	m.BindComponent("Store", "featured", inventory,
		func(ctx context.Context, parent query.Cursor, child query.Query) result.Result[query.Query] {
			sel, ok := child.(*query.Select)
			require.True(t, ok)
			return result.OK[query.Query](&query.Select{
				Name:  "product",
				Alias: sel.ResultName(),
				Args:  query.Bindings{{Name: "sku", Value: mustLeaf(t, parent, "featuredSku")}},
				Child: sel.Child,
			})
		})

	res := m.Execute(context.Background(), `{ store { name featured { title } } }`, "", nil)
	require.NoError(t, res.Err())
	want := map[string]any{
		"store": map[string]any{
			"name":     "Acme",
			"featured": map[string]any{"title": "Anvil"},
		},
	}
	if diff := cmp.Diff(want, res.Value()); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func mustLeaf(t *testing.T, c query.Cursor, name string) value.Value {
	t.Helper()
	fr := c.Field(name, name)
	require.NoError(t, fr.Err())
	lr := fr.Value().AsLeaf()
	require.NoError(t, lr.Err())
	return lr.Value()
}
