package schema

// Kind discriminates the closed Type variant. Named kinds (Scalar through
// InputObject) live in a Schema's type index; List and NonNull wrap another
// Type; Ref is a lazy by-name reference into its owning schema.
type Kind int

const (
	KindScalar Kind = iota + 1
	KindObject
	KindInterface
	KindUnion
	KindEnum
	KindInputObject
	KindList
	KindNonNull
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "SCALAR"
	case KindObject:
		return "OBJECT"
	case KindInterface:
		return "INTERFACE"
	case KindUnion:
		return "UNION"
	case KindEnum:
		return "ENUM"
	case KindInputObject:
		return "INPUT_OBJECT"
	case KindList:
		return "LIST"
	case KindNonNull:
		return "NON_NULL"
	case KindRef:
		return "REF"
	}
	return "UNKNOWN"
}

// Type is one node of the closed type variant. The zero value is invalid;
// construct through the New*/ListOf/NonNullOf/Schema.Ref helpers.
//
// Schema definitions are mutually recursive, so field and member types are
// held as Refs (name + owning schema) and resolved on demand. A Ref whose
// name is absent from the schema "does not exist": every structural query
// through it fails closed (nil / false) rather than panicking.
type Type struct {
	Kind        Kind
	Name        string // named kinds and Ref
	Description string

	Fields      []*Field     // Object, Interface
	Interfaces  []string     // Object, Interface: implemented interface names
	Members     []string     // Union: member type names
	EnumValues  []*EnumValue // Enum
	InputFields []*InputValue // InputObject

	Elem   *Type   // List, NonNull
	schema *Schema // Ref
}

// Field is a declared output field on an object or interface.
type Field struct {
	Name              string
	Description       string
	Type              *Type
	Args              []*InputValue
	IsDeprecated      bool
	DeprecationReason string
}

// EnumValue is one declared value of an enum type.
type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

// NewScalar constructs a scalar type definition.
func NewScalar(name, description string) *Type {
	return &Type{Kind: KindScalar, Name: name, Description: description}
}

// NewObject constructs an object type definition.
func NewObject(name, description string, fields []*Field, interfaces []string) *Type {
	return &Type{Kind: KindObject, Name: name, Description: description, Fields: fields, Interfaces: interfaces}
}

// NewInterface constructs an interface type definition.
func NewInterface(name, description string, fields []*Field, interfaces []string) *Type {
	return &Type{Kind: KindInterface, Name: name, Description: description, Fields: fields, Interfaces: interfaces}
}

// NewUnion constructs a union type definition.
func NewUnion(name, description string, members []string) *Type {
	return &Type{Kind: KindUnion, Name: name, Description: description, Members: members}
}

// NewEnum constructs an enum type definition.
func NewEnum(name, description string, values []*EnumValue) *Type {
	return &Type{Kind: KindEnum, Name: name, Description: description, EnumValues: values}
}

// NewInputObject constructs an input object type definition.
func NewInputObject(name, description string, fields []*InputValue) *Type {
	return &Type{Kind: KindInputObject, Name: name, Description: description, InputFields: fields}
}

// ListOf wraps t in a list type.
func ListOf(t *Type) *Type { return &Type{Kind: KindList, Elem: t} }

// NonNullOf wraps t in a non-null type. Wrapping a non-null is a no-op.
func NonNullOf(t *Type) *Type {
	if t != nil && t.Kind == KindNonNull {
		return t
	}
	return &Type{Kind: KindNonNull, Elem: t}
}

// Dealias resolves a Ref to its underlying definition; identity for
// everything else. Returns nil for a dangling Ref.
func (t *Type) Dealias() *Type {
	if t == nil {
		return nil
	}
	if t.Kind != KindRef {
		return t
	}
	if t.schema == nil {
		return nil
	}
	return t.schema.Definition(t.Name)
}

// Nullable reports whether a value of this type may be null, i.e. the type
// is not wrapped in NonNull.
func (t *Type) Nullable() bool { return t != nil && t.Kind != KindNonNull }

// NonNull reports whether the type is wrapped in NonNull.
func (t *Type) NonNull() bool { return t != nil && t.Kind == KindNonNull }

// IsList reports whether the type is a list, looking through one NonNull.
func (t *Type) IsList() bool {
	if t == nil {
		return false
	}
	if t.Kind == KindList {
		return true
	}
	return t.Kind == KindNonNull && t.Elem != nil && t.Elem.Kind == KindList
}

// Unwrap strips one List or NonNull layer; identity for other kinds.
func (t *Type) Unwrap() *Type {
	if t == nil {
		return nil
	}
	if t.Kind == KindList || t.Kind == KindNonNull {
		return t.Elem
	}
	return t
}

// IsLeaf reports whether the type is a scalar or enum position, looking
// through one NonNull.
func (t *Type) IsLeaf() bool { return t.LeafType() != nil }

// LeafType returns the scalar or enum definition at a leaf position,
// looking through one NonNull. Nil for non-leaf types.
func (t *Type) LeafType() *Type {
	d := t.Dealias()
	if d != nil && d.Kind == KindNonNull {
		d = d.Elem.Dealias()
	}
	if d == nil {
		return nil
	}
	if d.Kind == KindScalar || d.Kind == KindEnum {
		return d
	}
	return nil
}

// Eq is structural equality: Refs compare equal to their targets, wrappers
// compare element-wise, named definitions compare by name.
func Eq(a, b *Type) bool {
	a, b = a.Dealias(), b.Dealias()
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	switch {
	case a.Kind == KindList && b.Kind == KindList,
		a.Kind == KindNonNull && b.Kind == KindNonNull:
		return Eq(a.Elem, b.Elem)
	case a.Kind == b.Kind && a.Name != "":
		return a.Name == b.Name
	}
	return false
}

// NominalEq compares by name only, still looking through wrappers and Refs.
// A Ref is nominally equal to its target even when the target is absent.
func NominalEq(a, b *Type) bool {
	if a == nil || b == nil {
		return false
	}
	for a != nil && (a.Kind == KindList || a.Kind == KindNonNull) {
		if b == nil || b.Kind != a.Kind {
			return false
		}
		a, b = a.Elem, b.Elem
	}
	if a == nil || b == nil {
		return false
	}
	return a.Name != "" && a.Name == b.Name
}

// Subtype reports whether a <:< b: reflexive; an object or interface is a
// subtype of every interface it transitively declares; a union member is a
// subtype of the union; NonNull(A) <:< A; List and NonNull are covariant.
func Subtype(a, b *Type) bool {
	if a == nil || b == nil {
		return false
	}
	// NonNull(A) <:< B whenever A <:< B.
	if a.Kind == KindNonNull {
		if b.Kind == KindNonNull {
			return Subtype(a.Elem, b.Elem)
		}
		return Subtype(a.Elem, b)
	}
	if b.Kind == KindNonNull {
		return false
	}
	if a.Kind == KindList || b.Kind == KindList {
		if a.Kind != KindList || b.Kind != KindList {
			return false
		}
		return Subtype(a.Elem, b.Elem)
	}
	da, db := a.Dealias(), b.Dealias()
	if da == nil || db == nil {
		return false
	}
	if Eq(da, db) {
		return true
	}
	switch db.Kind {
	case KindInterface:
		return implementsTransitively(da, db.Name, nil)
	case KindUnion:
		for _, m := range db.Members {
			if da.Name == m {
				return true
			}
		}
	}
	return false
}

func implementsTransitively(t *Type, ifaceName string, seen map[string]bool) bool {
	if t == nil || (t.Kind != KindObject && t.Kind != KindInterface) {
		return false
	}
	for _, name := range t.Interfaces {
		if name == ifaceName {
			return true
		}
		if seen[name] {
			continue
		}
		if seen == nil {
			seen = map[string]bool{}
		}
		seen[name] = true
		if t.schema != nil {
			if parent := t.schema.Definition(name); parent != nil && implementsTransitively(parent, ifaceName, seen) {
				return true
			}
		}
	}
	return false
}

// FieldByName looks a field up through NonNull wrappers and Refs. Returns
// nil when the type has no such field or is not field-bearing.
func (t *Type) FieldByName(name string) *Field {
	d := t.Dealias()
	if d == nil {
		return nil
	}
	if d.Kind == KindNonNull {
		return d.Elem.FieldByName(name)
	}
	if d.Kind != KindObject && d.Kind != KindInterface {
		return nil
	}
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Path walks a chain of field names from this type, returning the type of
// the final field, or nil if any hop is missing. Wrappers are looked
// through at every hop.
func (t *Type) Path(names []string) *Type {
	cur := t
	for _, name := range names {
		f := cur.UnderlyingObject().FieldByName(name)
		if f == nil {
			return nil
		}
		cur = f.Type
	}
	return cur
}

// PathIsList reports whether any hop of the path passes through a List.
func (t *Type) PathIsList(names []string) bool {
	cur := t
	for _, name := range names {
		f := cur.UnderlyingObject().FieldByName(name)
		if f == nil {
			return false
		}
		if f.Type.IsList() {
			return true
		}
		cur = f.Type
	}
	return false
}

// PathIsNullable reports whether any hop of the path is nullable.
func (t *Type) PathIsNullable(names []string) bool {
	cur := t
	for _, name := range names {
		f := cur.UnderlyingObject().FieldByName(name)
		if f == nil {
			return false
		}
		if f.Type.Nullable() {
			return true
		}
		cur = f.Type
	}
	return false
}

// UnderlyingObject strips List/NonNull/Ref layers down to the first Object,
// Interface or Union, or nil if the chain bottoms out elsewhere.
func (t *Type) UnderlyingObject() *Type {
	d := t.Dealias()
	for d != nil && (d.Kind == KindList || d.Kind == KindNonNull) {
		d = d.Elem.Dealias()
	}
	if d == nil {
		return nil
	}
	switch d.Kind {
	case KindObject, KindInterface, KindUnion:
		return d
	}
	return nil
}

// UnderlyingField is the type of the named field on the underlying object.
func (t *Type) UnderlyingField(name string) *Type {
	obj := t.UnderlyingObject()
	if obj == nil {
		return nil
	}
	if f := obj.FieldByName(name); f != nil {
		return f.Type
	}
	return nil
}
