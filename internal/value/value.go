// Package value holds the closed variant of coerced runtime values and the
// coercion engine that admits literal AST values and external JSON into it.
package value

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is the closed variant of runtime values. Untyped enum and variable
// placeholders come out of literal parsing and must be resolved against an
// expected type before they count as final values.
type Value interface {
	isValue()
	String() string
}

// Int is an Int scalar value.
type Int int64

// Float is a Float scalar value.
type Float float64

// Str is a String scalar value.
type Str string

// Boolean is a Boolean scalar value.
type Boolean bool

// ID is an ID scalar value.
type ID string

// Enum is a coerced enum value: the owning enum type plus the value name.
type Enum struct {
	TypeName string
	Name     string
}

// List is an ordered list of values.
type List []Value

// ObjectField is one named entry of an Object.
type ObjectField struct {
	Name  string
	Value Value
}

// Object is an ordered collection of named values.
type Object []ObjectField

// Null is an explicit null.
type Null struct{}

// Absent marks an omitted argument, distinct from explicit null.
type Absent struct{}

// UntypedEnum is a bare enum name awaiting resolution against an enum type.
type UntypedEnum string

// UntypedVariable is an unresolved variable reference.
type UntypedVariable string

// Malformed carries the raw text of a literal that failed to parse, such
// as an out-of-range Int. It matches no input type, so coercion always
// rejects it with the offending text in the message.
type Malformed string

func (Int) isValue()             {}
func (Float) isValue()           {}
func (Str) isValue()             {}
func (Boolean) isValue()         {}
func (ID) isValue()              {}
func (Enum) isValue()            {}
func (List) isValue()            {}
func (Object) isValue()          {}
func (Null) isValue()            {}
func (Absent) isValue()          {}
func (UntypedEnum) isValue()     {}
func (UntypedVariable) isValue() {}
func (Malformed) isValue()       {}

func (v Int) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Str) String() string     { return strconv.Quote(string(v)) }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v ID) String() string      { return strconv.Quote(string(v)) }
func (v Enum) String() string    { return v.Name }
func (v List) String() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (v Object) String() string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = f.Name + ": " + f.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (Null) String() string              { return "null" }
func (Absent) String() string            { return "<absent>" }
func (v UntypedEnum) String() string     { return string(v) }
func (v UntypedVariable) String() string { return "$" + string(v) }
func (v Malformed) String() string       { return string(v) }

// Field returns the named entry of an object and whether it is present.
func (v Object) Field(name string) (Value, bool) {
	for _, f := range v {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// ToJSON lowers a coerced value to its JSON-shaped Go representation.
// Absent lowers to nil at this level; callers that must distinguish absence
// check for it before lowering.
func ToJSON(v Value) any {
	switch v := v.(type) {
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case Str:
		return string(v)
	case Boolean:
		return bool(v)
	case ID:
		return string(v)
	case Enum:
		return v.Name
	case List:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = ToJSON(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(v))
		for _, f := range v {
			out[f.Name] = ToJSON(f.Value)
		}
		return out
	default:
		return nil
	}
}

// FromJSON lifts arbitrary JSON-decoded Go data into the pre-coercion value
// space. Integral numbers become Int, other numbers Float; strings stay
// strings until the rule table resolves them against the expected type.
func FromJSON(data any) Value {
	switch d := data.(type) {
	case nil:
		return Null{}
	case bool:
		return Boolean(d)
	case string:
		return Str(d)
	case int:
		return Int(d)
	case int64:
		return Int(d)
	case float64:
		if d == float64(int64(d)) {
			return Int(int64(d))
		}
		return Float(d)
	case json.Number:
		if i, err := d.Int64(); err == nil {
			return Int(i)
		}
		f, _ := d.Float64()
		return Float(f)
	case []any:
		out := make(List, len(d))
		for i, e := range d {
			out[i] = FromJSON(e)
		}
		return out
	case map[string]any:
		out := make(Object, 0, len(d))
		for _, k := range sortedKeys(d) {
			out = append(out, ObjectField{Name: k, Value: FromJSON(d[k])})
		}
		return out
	default:
		return Str(fmt.Sprint(d))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
