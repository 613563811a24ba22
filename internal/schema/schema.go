// Package schema implements the type system: a closed variant of schema
// types with lazy by-name references, subtyping, field lookup and path
// walking, plus the SDL builder/validator and renderer.
package schema

// Schema owns every named type and directive declaration of one API.
// Built once by the builder and immutable thereafter; type references into
// the schema are resolved by name against its index ("arena + key").
type Schema struct {
	Description string

	QueryType        string
	MutationType     string
	SubscriptionType string

	types      map[string]*Type
	typeNames  []string // declaration order
	directives map[string]*DirectiveDef
	dirNames   []string
}

// DirectiveDef declares a directive: name, argument signature, locations.
type DirectiveDef struct {
	Name        string
	Description string
	Args        []*InputValue
	Locations   []string
	Repeatable  bool
}

// InputValue is a named, typed input position: a field argument, a
// directive argument or an input-object field. DefaultValue, when present,
// is the raw parsed literal; coercion resolves it against Type on use.
type InputValue struct {
	Name              string
	Description       string
	Type              *Type
	DefaultValue      *RawValue
	IsDeprecated      bool
	DeprecationReason string
}

// Definition returns the named type declared in this schema, nil if absent.
func (s *Schema) Definition(name string) *Type {
	if s == nil {
		return nil
	}
	return s.types[name]
}

// Directive returns the named directive declaration, nil if absent.
func (s *Schema) Directive(name string) *DirectiveDef {
	if s == nil {
		return nil
	}
	return s.directives[name]
}

// TypeNames returns the declared type names in declaration order.
func (s *Schema) TypeNames() []string { return s.typeNames }

// DirectiveNames returns the declared directive names in declaration order.
func (s *Schema) DirectiveNames() []string { return s.dirNames }

// Ref creates a lazy by-name reference into this schema's type index.
func (s *Schema) Ref(name string) *Type {
	return &Type{Kind: KindRef, Name: name, schema: s}
}

// Query returns the distinguished query root type, nil if unresolvable.
func (s *Schema) Query() *Type { return s.Definition(s.QueryType) }

// Mutation returns the mutation root type, nil if none.
func (s *Schema) Mutation() *Type { return s.Definition(s.MutationType) }

// Subscription returns the subscription root type, nil if none.
func (s *Schema) Subscription() *Type { return s.Definition(s.SubscriptionType) }

func (s *Schema) addType(t *Type) {
	if _, exists := s.types[t.Name]; !exists {
		s.typeNames = append(s.typeNames, t.Name)
	}
	s.types[t.Name] = t
	s.adopt(t)
}

// adopt points the type's outgoing Refs at this schema. The builder creates
// refs through Schema.Ref so this only matters for hand-assembled types in
// tests and builtins.
func (s *Schema) adopt(t *Type) {
	if t == nil {
		return
	}
	t.schema = s
	for _, f := range t.Fields {
		s.adoptRef(f.Type)
		for _, a := range f.Args {
			s.adoptRef(a.Type)
		}
	}
	for _, in := range t.InputFields {
		s.adoptRef(in.Type)
	}
}

func (s *Schema) adoptRef(t *Type) {
	for t != nil {
		if t.Kind == KindRef {
			t.schema = s
			return
		}
		t = t.Elem
	}
}

func (s *Schema) addDirective(d *DirectiveDef) {
	if _, exists := s.directives[d.Name]; !exists {
		s.dirNames = append(s.dirNames, d.Name)
	}
	s.directives[d.Name] = d
	for _, a := range d.Args {
		s.adoptRef(a.Type)
	}
}

// ConcreteSubtypes returns the names of every object type in the schema
// that is a subtype of t (t itself for an object, the implementors of an
// interface, the members of a union).
func (s *Schema) ConcreteSubtypes(t *Type) []string {
	d := t.Dealias()
	if d == nil {
		return nil
	}
	switch d.Kind {
	case KindObject:
		return []string{d.Name}
	case KindUnion:
		return append([]string(nil), d.Members...)
	case KindInterface:
		var out []string
		for _, name := range s.typeNames {
			cand := s.types[name]
			if cand.Kind == KindObject && implementsTransitively(cand, d.Name, nil) {
				out = append(out, name)
			}
		}
		return out
	}
	return nil
}

// Exhaustive reports whether every concrete object subtype of t is covered
// by at least one of branches. Used for fragment coverage over unions and
// interfaces.
func (s *Schema) Exhaustive(t *Type, branches []*Type) bool {
	concrete := s.ConcreteSubtypes(t)
	if len(concrete) == 0 {
		return false
	}
	for _, name := range concrete {
		obj := s.Definition(name)
		covered := false
		for _, b := range branches {
			if Subtype(obj, b) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}
