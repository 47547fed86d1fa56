package codec

import (
	"github.com/gogo/protobuf/proto"
	"github.com/gogo/protobuf/types"
)

// Envelope messages for Go values that have no well-known protobuf
// counterpart. They are registered like generated messages so that an
// Any holding one can be resolved by name when decoding.

// Int carries a Go int so that it decodes as int rather than int64
type Int struct {
	Value int64 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *Int) Reset()         { *m = Int{} }
func (m *Int) String() string { return proto.CompactTextString(m) }
func (*Int) ProtoMessage()    {}

// Int8 carries a Go int8
type Int8 struct {
	Value int32 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *Int8) Reset()         { *m = Int8{} }
func (m *Int8) String() string { return proto.CompactTextString(m) }
func (*Int8) ProtoMessage()    {}

// Int16 carries a Go int16
type Int16 struct {
	Value int32 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *Int16) Reset()         { *m = Int16{} }
func (m *Int16) String() string { return proto.CompactTextString(m) }
func (*Int16) ProtoMessage()    {}

// Uint carries a Go uint
type Uint struct {
	Value uint64 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *Uint) Reset()         { *m = Uint{} }
func (m *Uint) String() string { return proto.CompactTextString(m) }
func (*Uint) ProtoMessage()    {}

// Uint8 carries a Go uint8 that is not part of a []byte
type Uint8 struct {
	Value uint32 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *Uint8) Reset()         { *m = Uint8{} }
func (m *Uint8) String() string { return proto.CompactTextString(m) }
func (*Uint8) ProtoMessage()    {}

// Uint16 carries a Go uint16
type Uint16 struct {
	Value uint32 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *Uint16) Reset()         { *m = Uint16{} }
func (m *Uint16) String() string { return proto.CompactTextString(m) }
func (*Uint16) ProtoMessage()    {}

// List carries a []interface{}
type List struct {
	Items []*types.Any `protobuf:"bytes,1,rep,name=items,proto3" json:"items,omitempty"`
}

func (m *List) Reset()         { *m = List{} }
func (m *List) String() string { return proto.CompactTextString(m) }
func (*List) ProtoMessage()    {}

// Map carries a map[string]interface{}. Entries are sorted by
// key so equal maps always encode to equal bytes.
type Map struct {
	Entries []*MapEntry `protobuf:"bytes,1,rep,name=entries,proto3" json:"entries,omitempty"`
}

func (m *Map) Reset()         { *m = Map{} }
func (m *Map) String() string { return proto.CompactTextString(m) }
func (*Map) ProtoMessage()    {}

// MapEntry is one key of a Map
type MapEntry struct {
	Key   string     `protobuf:"bytes,1,opt,name=key,proto3" json:"key,omitempty"`
	Value *types.Any `protobuf:"bytes,2,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *MapEntry) Reset()         { *m = MapEntry{} }
func (m *MapEntry) String() string { return proto.CompactTextString(m) }
func (*MapEntry) ProtoMessage()    {}

// TypedList carries a slice of any other element type.
// ElemType names the element type, for example "string"
// or "map[string]int".
type TypedList struct {
	ElemType string       `protobuf:"bytes,1,opt,name=elem_type,json=elemType,proto3" json:"elem_type,omitempty"`
	Items    []*types.Any `protobuf:"bytes,2,rep,name=items,proto3" json:"items,omitempty"`
}

func (m *TypedList) Reset()         { *m = TypedList{} }
func (m *TypedList) String() string { return proto.CompactTextString(m) }
func (*TypedList) ProtoMessage()    {}

// TypedMap carries a map other than map[string]interface{}.
// Entries are sorted by their encoded key.
type TypedMap struct {
	KeyType   string           `protobuf:"bytes,1,opt,name=key_type,json=keyType,proto3" json:"key_type,omitempty"`
	ValueType string           `protobuf:"bytes,2,opt,name=value_type,json=valueType,proto3" json:"value_type,omitempty"`
	Entries   []*TypedMapEntry `protobuf:"bytes,3,rep,name=entries,proto3" json:"entries,omitempty"`
}

func (m *TypedMap) Reset()         { *m = TypedMap{} }
func (m *TypedMap) String() string { return proto.CompactTextString(m) }
func (*TypedMap) ProtoMessage()    {}

// TypedMapEntry is one key of a TypedMap
type TypedMapEntry struct {
	Key   *types.Any `protobuf:"bytes,1,opt,name=key,proto3" json:"key,omitempty"`
	Value *types.Any `protobuf:"bytes,2,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *TypedMapEntry) Reset()         { *m = TypedMapEntry{} }
func (m *TypedMapEntry) String() string { return proto.CompactTextString(m) }
func (*TypedMapEntry) ProtoMessage()    {}

func init() {
	proto.RegisterType((*Int8)(nil), "graphkv.codec.Int8")
	proto.RegisterType((*Int16)(nil), "graphkv.codec.Int16")
	proto.RegisterType((*Uint)(nil), "graphkv.codec.Uint")
	proto.RegisterType((*Uint8)(nil), "graphkv.codec.Uint8")
	proto.RegisterType((*Uint16)(nil), "graphkv.codec.Uint16")
	proto.RegisterType((*TypedList)(nil), "graphkv.codec.TypedList")
	proto.RegisterType((*TypedMap)(nil), "graphkv.codec.TypedMap")
	proto.RegisterType((*TypedMapEntry)(nil), "graphkv.codec.TypedMapEntry")
	proto.RegisterType((*Int)(nil), "graphkv.codec.Int")
	proto.RegisterType((*List)(nil), "graphkv.codec.List")
	proto.RegisterType((*Map)(nil), "graphkv.codec.Map")
	proto.RegisterType((*MapEntry)(nil), "graphkv.codec.MapEntry")
}
