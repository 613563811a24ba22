// Package protomap serves cursors over protobuf dynamic messages. A
// Registry synthesizes proto descriptors mirroring a schema's output model,
// and a Source navigates dynamicpb messages shaped by those descriptors.
package protomap

import (
	"strings"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/hanpama/cursorgraph/internal/schema"
)

// Registry holds the synthesized descriptors for one schema and the
// name mappings between the two models.
type Registry struct {
	file     protoreflect.FileDescriptor
	messages map[string]protoreflect.MessageDescriptor
	fields   map[[2]string]protoreflect.FieldDescriptor
	enums    map[string]protoreflect.EnumDescriptor

	enumValueNames   map[string]map[protoreflect.EnumNumber]string
	enumValueNumbers map[string]map[string]protoreflect.EnumNumber
}

// File returns the synthesized file descriptor.
func (r *Registry) File() protoreflect.FileDescriptor { return r.file }

// Message returns the message descriptor for a named output type.
func (r *Registry) Message(typeName string) protoreflect.MessageDescriptor {
	return r.messages[typeName]
}

// Field returns the field descriptor backing fieldName on typeName. For
// abstract types, fieldName may also be a member type name, resolving to
// the oneof choice carrying that member.
func (r *Registry) Field(typeName, fieldName string) protoreflect.FieldDescriptor {
	return r.fields[[2]string{typeName, fieldName}]
}

// Enum returns the enum descriptor for a named enum type.
func (r *Registry) Enum(typeName string) protoreflect.EnumDescriptor {
	return r.enums[typeName]
}

// EnumValueName maps a proto enum number back to the declared value name.
func (r *Registry) EnumValueName(enumName string, n protoreflect.EnumNumber) (string, bool) {
	name, ok := r.enumValueNames[enumName][n]
	return name, ok
}

// EnumValueNumber maps a declared enum value name to its proto number.
func (r *Registry) EnumValueNumber(enumName, valueName string) (protoreflect.EnumNumber, bool) {
	n, ok := r.enumValueNumbers[enumName][valueName]
	return n, ok
}

// BuildRegistry synthesizes one proto3 file mirroring the schema's output
// model. Objects, interfaces, unions and input objects become messages;
// abstract types carry their members in a "value" oneof; enums gain a zero
// UNSPECIFIED value. Field and enum numbers are content-addressed so
// regenerating from an unchanged schema yields identical descriptors.
func BuildRegistry(s *schema.Schema, pkg string) (*Registry, error) {
	b := &regBuilder{
		schema:          s,
		messageBuilders: map[string]*protobuilder.MessageBuilder{},
		enumBuilders:    map[string]*protobuilder.EnumBuilder{},
		fieldNames:      map[[2]string]protoreflect.Name{},
		enumValueNames:  map[string]map[protoreflect.Name]string{},
	}

	fb := protobuilder.NewFile(strings.ReplaceAll(pkg, ".", "/") + "/model.proto")
	fb.SetPackageName(protoreflect.FullName(pkg))
	fb.SetSyntax(protoreflect.Proto3)

	for _, name := range s.TypeNames() {
		def := s.Definition(name)
		switch def.Kind {
		case schema.KindObject, schema.KindInterface, schema.KindUnion, schema.KindInputObject:
			mb := protobuilder.NewMessage(protoreflect.Name(name))
			b.messageBuilders[name] = mb
			fb.AddMessage(mb)
		case schema.KindEnum:
			b.addEnum(fb, def)
		}
	}

	for _, name := range s.TypeNames() {
		def := s.Definition(name)
		switch def.Kind {
		case schema.KindObject:
			b.addOutputFields(def)
		case schema.KindInterface, schema.KindUnion:
			b.addMemberOneof(def)
		case schema.KindInputObject:
			b.addInputFields(def)
		}
	}

	fd, err := fb.Build()
	if err != nil {
		return nil, err
	}
	return b.index(fd)
}

type regBuilder struct {
	schema          *schema.Schema
	messageBuilders map[string]*protobuilder.MessageBuilder
	enumBuilders    map[string]*protobuilder.EnumBuilder
	fieldNames      map[[2]string]protoreflect.Name
	enumValueNames  map[string]map[protoreflect.Name]string
}

func (b *regBuilder) addEnum(fb *protobuilder.FileBuilder, def *schema.Type) {
	eb := protobuilder.NewEnum(protoreflect.Name(def.Name))
	prefix := strings.ToUpper(snakeCase(def.Name))

	zero := protobuilder.NewEnumValue(protoreflect.Name(prefix + "_UNSPECIFIED"))
	zero.SetNumber(0)
	eb.AddValue(zero)

	names := map[protoreflect.Name]string{}
	evbs := make([]*protobuilder.EnumValueBuilder, 0, len(def.EnumValues))
	for _, v := range def.EnumValues {
		protoName := protoreflect.Name(prefix + "_" + strings.ToUpper(v.Name))
		evb := protobuilder.NewEnumValue(protoName)
		eb.AddValue(evb)
		evbs = append(evbs, evb)
		names[protoName] = v.Name
	}
	allocateEnumValueNumbers(evbs)

	b.enumBuilders[def.Name] = eb
	b.enumValueNames[def.Name] = names
	fb.AddEnum(eb)
}

func (b *regBuilder) addOutputFields(def *schema.Type) {
	mb := b.messageBuilders[def.Name]
	fbs := make([]*protobuilder.FieldBuilder, 0, len(def.Fields))
	for _, field := range def.Fields {
		rt := b.resolveType(field.Type)
		fieldName := protoreflect.Name(snakeCase(field.Name))
		fb := protobuilder.NewField(fieldName, rt.fieldType)
		if rt.isOptional {
			fb.SetOptional()
		}
		if rt.isRepeated {
			fb.SetRepeated()
		}
		mb.AddField(fb)
		fbs = append(fbs, fb)
		b.fieldNames[[2]string{def.Name, field.Name}] = fieldName
	}
	allocateFieldNumbers(fbs)
}

func (b *regBuilder) addInputFields(def *schema.Type) {
	mb := b.messageBuilders[def.Name]
	fbs := make([]*protobuilder.FieldBuilder, 0, len(def.InputFields))
	for _, in := range def.InputFields {
		rt := b.resolveType(in.Type)
		fieldName := protoreflect.Name(snakeCase(in.Name))
		fb := protobuilder.NewField(fieldName, rt.fieldType)
		if rt.isOptional {
			fb.SetOptional()
		}
		if rt.isRepeated {
			fb.SetRepeated()
		}
		mb.AddField(fb)
		fbs = append(fbs, fb)
		b.fieldNames[[2]string{def.Name, in.Name}] = fieldName
	}
	allocateFieldNumbers(fbs)
}

// addMemberOneof models an abstract type as a oneof over its concrete
// members. Choice fields keep the member type name verbatim so the dynamic
// type can be read back without a side table.
func (b *regBuilder) addMemberOneof(def *schema.Type) {
	mb := b.messageBuilders[def.Name]
	ob := protobuilder.NewOneof(protoreflect.Name("value"))
	mb.AddOneOf(ob)

	members := b.schema.ConcreteSubtypes(def)
	fbs := make([]*protobuilder.FieldBuilder, 0, len(members))
	for _, member := range members {
		fb := protobuilder.NewField(protoreflect.Name(member),
			protobuilder.FieldTypeMessage(b.messageBuilders[member]))
		ob.AddChoice(fb)
		fbs = append(fbs, fb)
		b.fieldNames[[2]string{def.Name, member}] = protoreflect.Name(member)
	}
	allocateFieldNumbers(fbs)
}

type resolvedType struct {
	isRepeated bool
	isOptional bool
	fieldType  *protobuilder.FieldType
}

func (b *regBuilder) resolveType(t *schema.Type) resolvedType {
	switch t.Kind {
	case schema.KindNonNull:
		inner := b.resolveType(t.Elem)
		inner.isOptional = false
		return inner
	case schema.KindList:
		inner := b.resolveType(t.Elem)
		return resolvedType{isRepeated: true, fieldType: inner.fieldType}
	}
	return resolvedType{isOptional: true, fieldType: b.namedFieldType(t.Dealias())}
}

func (b *regBuilder) namedFieldType(def *schema.Type) *protobuilder.FieldType {
	if mb, ok := b.messageBuilders[def.Name]; ok {
		return protobuilder.FieldTypeMessage(mb)
	}
	if eb, ok := b.enumBuilders[def.Name]; ok {
		return protobuilder.FieldTypeEnum(eb)
	}
	switch def.Name {
	case schema.ScalarInt:
		return protobuilder.FieldTypeScalar(protoreflect.Int64Kind)
	case schema.ScalarFloat:
		return protobuilder.FieldTypeScalar(protoreflect.DoubleKind)
	case schema.ScalarBoolean:
		return protobuilder.FieldTypeScalar(protoreflect.BoolKind)
	}
	// String, ID and custom scalars travel as strings.
	return protobuilder.FieldTypeScalar(protoreflect.StringKind)
}

func (b *regBuilder) index(fd protoreflect.FileDescriptor) (*Registry, error) {
	r := &Registry{
		file:             fd,
		messages:         map[string]protoreflect.MessageDescriptor{},
		fields:           map[[2]string]protoreflect.FieldDescriptor{},
		enums:            map[string]protoreflect.EnumDescriptor{},
		enumValueNames:   map[string]map[protoreflect.EnumNumber]string{},
		enumValueNumbers: map[string]map[string]protoreflect.EnumNumber{},
	}

	messages := fd.Messages()
	for i := 0; i < messages.Len(); i++ {
		md := messages.Get(i)
		r.messages[string(md.Name())] = md
	}
	for key, protoName := range b.fieldNames {
		md := r.messages[key[0]]
		if md == nil {
			continue
		}
		r.fields[key] = md.Fields().ByName(protoName)
	}

	enums := fd.Enums()
	for i := 0; i < enums.Len(); i++ {
		ed := enums.Get(i)
		enumName := string(ed.Name())
		r.enums[enumName] = ed
		byNumber := map[protoreflect.EnumNumber]string{}
		byName := map[string]protoreflect.EnumNumber{}
		values := ed.Values()
		for j := 0; j < values.Len(); j++ {
			vd := values.Get(j)
			gqlName, ok := b.enumValueNames[enumName][vd.Name()]
			if !ok {
				continue
			}
			byNumber[vd.Number()] = gqlName
			byName[gqlName] = vd.Number()
		}
		r.enumValueNames[enumName] = byNumber
		r.enumValueNumbers[enumName] = byName
	}
	return r, nil
}

func snakeCase(s string) string {
	var out strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			out.WriteByte('_')
		}
		out.WriteRune(r)
	}
	return strings.ToLower(out.String())
}
