package pvdata

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// structured value container used by shared records
// the core stores and forwards values; it never interprets field semantics

type Value struct {
	s *structpb.Struct
}

func NewValue(fields map[string]any) (*Value, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return &Value{
		s: s,
	}, nil
}

func RequireValue(fields map[string]any) *Value {
	value, err := NewValue(fields)
	if err != nil {
		panic(err)
	}
	return value
}

func (self *Value) Clone() *Value {
	return &Value{
		s: proto.Clone(self.s).(*structpb.Struct),
	}
}

func (self *Value) Equal(value *Value) bool {
	if value == nil {
		return false
	}
	return proto.Equal(self.s, value.s)
}

// `path` is a dot-separated field path, e.g. "alarm.severity"
func (self *Value) Get(path string) (any, bool) {
	leaf := self.leaf(path)
	if leaf == nil {
		return nil, false
	}
	return leaf.AsInterface(), true
}

func (self *Value) Set(path string, fieldValue any) error {
	parts := strings.Split(path, ".")
	s := self.s
	for _, part := range parts[:len(parts)-1] {
		field, ok := s.Fields[part]
		if !ok {
			return fmt.Errorf("no field at path %s", path)
		}
		sub := field.GetStructValue()
		if sub == nil {
			return fmt.Errorf("field %s in path %s is not a structure", part, path)
		}
		s = sub
	}
	converted, err := structpb.NewValue(fieldValue)
	if err != nil {
		return err
	}
	s.Fields[parts[len(parts)-1]] = converted
	return nil
}

func (self *Value) leaf(path string) *structpb.Value {
	parts := strings.Split(path, ".")
	s := self.s
	for _, part := range parts[:len(parts)-1] {
		field, ok := s.Fields[part]
		if !ok {
			return nil
		}
		s = field.GetStructValue()
		if s == nil {
			return nil
		}
	}
	return s.Fields[parts[len(parts)-1]]
}

// depth-first leaf paths, lexically ordered at each level
// this ordering is the bit numbering used by change sets
func (self *Value) LeafPaths() []string {
	paths := []string{}
	var walk func(prefix string, s *structpb.Struct)
	walk = func(prefix string, s *structpb.Struct) {
		names := []string{}
		for name := range s.Fields {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			path := name
			if prefix != "" {
				path = prefix + "." + name
			}
			if sub := s.Fields[name].GetStructValue(); sub != nil {
				walk(path, sub)
			} else {
				paths = append(paths, path)
			}
		}
	}
	walk("", self.s)
	return paths
}

func (self *Value) String() string {
	parts := []string{}
	for _, path := range self.LeafPaths() {
		leafValue, _ := self.Get(path)
		parts = append(parts, fmt.Sprintf("%s=%v", path, leafValue))
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}

type FieldKind string

const (
	FieldKindNull   FieldKind = "null"
	FieldKindNumber FieldKind = "number"
	FieldKindString FieldKind = "string"
	FieldKindBool   FieldKind = "bool"
	FieldKindList   FieldKind = "list"
)

func kindOf(leaf *structpb.Value) FieldKind {
	switch leaf.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return FieldKindNumber
	case *structpb.Value_StringValue:
		return FieldKindString
	case *structpb.Value_BoolValue:
		return FieldKindBool
	case *structpb.Value_ListValue:
		return FieldKindList
	default:
		return FieldKindNull
	}
}

// schema of a record's value
// set once per record, immutable thereafter
type TypeDescriptor struct {
	paths []string
	kinds []FieldKind
	index map[string]int
}

func Describe(value *Value) *TypeDescriptor {
	paths := value.LeafPaths()
	kinds := make([]FieldKind, len(paths))
	index := map[string]int{}
	for i, path := range paths {
		kinds[i] = kindOf(value.leaf(path))
		index[path] = i
	}
	return &TypeDescriptor{
		paths: paths,
		kinds: kinds,
		index: index,
	}
}

func (self *TypeDescriptor) NumFields() int {
	return len(self.paths)
}

func (self *TypeDescriptor) Paths() []string {
	return slices.Clone(self.paths)
}

func (self *TypeDescriptor) Index(path string) (int, bool) {
	i, ok := self.index[path]
	return i, ok
}

func (self *TypeDescriptor) Kind(i int) FieldKind {
	return self.kinds[i]
}

// a value is compatible when it has the same leaf paths with the same kinds
func (self *TypeDescriptor) Compatible(value *Value) bool {
	if value == nil {
		return false
	}
	paths := value.LeafPaths()
	if !slices.Equal(self.paths, paths) {
		return false
	}
	for i, path := range paths {
		if self.kinds[i] != kindOf(value.leaf(path)) {
			return false
		}
	}
	return true
}

func (self *TypeDescriptor) String() string {
	parts := []string{}
	for i, path := range self.paths {
		parts = append(parts, fmt.Sprintf("%s:%s", path, self.kinds[i]))
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}

// copy the leaves marked in `changed` from `next` into `current`
// a nil or empty `changed` copies every leaf
func ApplyChanged(typ *TypeDescriptor, current *Value, next *Value, changed *BitSet) {
	for i, path := range typ.paths {
		if !changed.IsEmpty() && !changed.Get(i) {
			continue
		}
		if leafValue, ok := next.Get(path); ok {
			current.Set(path, leafValue)
		}
	}
}
