package protomap

import (
	"hash/fnv"
	"sort"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func allocateFieldNumbers(fieldBuilders []*protobuilder.FieldBuilder) {
	names := make([]string, len(fieldBuilders))
	for i, fb := range fieldBuilders {
		names[i] = string(fb.Name())
	}
	numbers := hashedNumbers(names)
	for i, fb := range fieldBuilders {
		fb.SetNumber(protoreflect.FieldNumber(numbers[i]))
	}
}

func allocateEnumValueNumbers(enumValueBuilders []*protobuilder.EnumValueBuilder) {
	names := make([]string, len(enumValueBuilders))
	for i, evb := range enumValueBuilders {
		names[i] = string(evb.Name())
	}
	numbers := hashedNumbers(names)
	for i, evb := range enumValueBuilders {
		evb.SetNumber(protoreflect.EnumNumber(numbers[i]))
	}
}

// hashedNumbers assigns deterministic tag numbers:
// 1. candidate = (FNV32a(name) % 31767) + 1 (range 1..31767)
// 2. if candidate in [19000,19999] -> linear probe (candidate+1 wrapping to 1)
// 3. if collision -> linear probe (skip reserved block) until free
// Names are sorted first so collision resolution is stable regardless of
// declaration order.
func hashedNumbers(names []string) []int {
	if len(names) == 0 {
		return nil
	}
	type item struct {
		name string
		idx  int
	}
	items := make([]item, len(names))
	for i, n := range names {
		items[i] = item{name: n, idx: i}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].name < items[j].name })

	out := make([]int, len(names))
	used := make(map[int]struct{}, len(names))
	const max = 31767
	for _, it := range items {
		start := int(fnv32(it.name)%31767) + 1
		cand := start
		for {
			if cand >= 19000 && cand <= 19999 { // reserved block
				cand = 20000
				if cand > max {
					cand = 1
				}
				if cand == start {
					panic("protomap: exhausted tag space (reserved block)")
				}
				continue
			}
			if _, ok := used[cand]; !ok {
				used[cand] = struct{}{}
				out[it.idx] = cand
				break
			}
			cand++
			if cand > max {
				cand = 1
			}
			if cand == start {
				panic("protomap: exhausted tag space")
			}
		}
	}
	return out
}

func fnv32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
