package compiler

import (
	"github.com/hanpama/cursorgraph/internal/query"
	"github.com/hanpama/cursorgraph/internal/result"
)

// Size is the structural measure of a plan: depth is the longest chain of
// nested selections, width the number of leaves it can produce.
type Size struct {
	Depth int
	Width int
}

// Measure computes the size of q. Selects add one level of depth; leaf
// selects count one toward width. Group takes the deepest branch and sums
// width across branches, so both arms of a type condition are counted.
// Wrapper nodes measure as their child.
func Measure(q query.Query) Size {
	switch q := q.(type) {
	case *query.Select:
		child := Measure(q.Child)
		if child.Width == 0 {
			child.Width = 1
		}
		return Size{Depth: child.Depth + 1, Width: child.Width}
	case *query.Group:
		var size Size
		for _, child := range q.Children {
			cs := Measure(child)
			if cs.Depth > size.Depth {
				size.Depth = cs.Depth
			}
			size.Width += cs.Width
		}
		return size
	case *query.Unique:
		return Measure(q.Child)
	case *query.Filter:
		return Measure(q.Child)
	case *query.Component:
		return Measure(q.Child)
	case *query.Effect:
		return Measure(q.Child)
	case *query.Introspect:
		return Measure(q.Child)
	case *query.Environment:
		return Measure(q.Child)
	case *query.Wrap:
		return Measure(q.Child)
	case *query.Rename:
		return Measure(q.Child)
	case *query.UntypedNarrow:
		return Measure(q.Child)
	case *query.Narrow:
		return Measure(q.Child)
	case *query.Skip:
		return Measure(q.Child)
	case *query.Limit:
		return Measure(q.Child)
	case *query.Offset:
		return Measure(q.Child)
	case *query.OrderBy:
		return Measure(q.Child)
	case *query.Count:
		return Measure(q.Child)
	case *query.TransformCursor:
		return Measure(q.Child)
	case *query.Skipped:
		return Size{}
	case *query.Empty:
		return Size{}
	}
	return Size{}
}

// ValidateSize rejects plans exceeding either limit. A non-positive limit
// disables that check. Both violations are reported together when present.
func ValidateSize(q query.Query, maxDepth, maxWidth int) result.Result[query.Query] {
	size := Measure(q)
	var problems result.Problems
	if maxDepth > 0 && size.Depth > maxDepth {
		problems = append(problems, result.Problemf(
			"Query is too deep: depth is %d levels, maximum is %d", size.Depth, maxDepth))
	}
	if maxWidth > 0 && size.Width > maxWidth {
		problems = append(problems, result.Problemf(
			"Query is too wide: width is %d leaves, maximum is %d", size.Width, maxWidth))
	}
	if len(problems) > 0 {
		return result.FailAll[query.Query](problems)
	}
	return result.OK(q)
}
