package result

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatMapShortCircuits(t *testing.T) {
	calls := 0
	r := FlatMap(Failf[int]("boom"), func(n int) Result[string] {
		calls++
		return OK(strconv.Itoa(n))
	})
	require.False(t, r.IsOK())
	assert.Equal(t, 0, calls)
	assert.Len(t, r.Problems(), 1)
	assert.Equal(t, "boom", r.Problems()[0].Message)
}

func TestFlatMapSequences(t *testing.T) {
	r := FlatMap(OK(7), func(n int) Result[string] { return OK(strconv.Itoa(n)) })
	require.True(t, r.IsOK())
	assert.Equal(t, "7", r.Value())
}

func TestTraverseAccumulates(t *testing.T) {
	r := Traverse([]int{1, -2, 3, -4}, func(n int) Result[int] {
		if n < 0 {
			return Failf[int]("negative: %d", n)
		}
		return OK(n * 10)
	})
	require.False(t, r.IsOK())
	require.Len(t, r.Problems(), 2)
	assert.Equal(t, "negative: -2", r.Problems()[0].Message)
	assert.Equal(t, "negative: -4", r.Problems()[1].Message)
}

func TestCombineUnionsProblems(t *testing.T) {
	r := Combine(OK(1), Failf[int]("a"), Failf[int]("b"), OK(2))
	require.False(t, r.IsOK())
	assert.Len(t, r.Problems(), 2)

	ok := Combine(OK(1), OK(2))
	require.True(t, ok.IsOK())
	assert.Equal(t, []int{1, 2}, ok.Value())
}

func TestMap2AccumulatesBothSides(t *testing.T) {
	r := Map2(Failf[int]("left"), Failf[string]("right"), func(int, string) bool { return true })
	require.False(t, r.IsOK())
	require.Len(t, r.Problems(), 2)
	assert.Equal(t, "left", r.Problems()[0].Message)
	assert.Equal(t, "right", r.Problems()[1].Message)
}

func TestProblemLocationRendering(t *testing.T) {
	p := ProblemAt("schema.graphql", 3, 7, "unknown type %q", "Droid")
	assert.Equal(t, `unknown type "Droid" schema.graphql:3:7`, p.String())
}

func TestErrIsNilOnSuccess(t *testing.T) {
	assert.NoError(t, OK(1).Err())
	assert.Error(t, Failf[int]("x").Err())
}
