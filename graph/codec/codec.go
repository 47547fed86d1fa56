// Package codec serializes arbitrary values to self-describing bytes.
//
// Every encoded value is a protobuf Any: the name of the value's type
// followed by its protobuf encoding. Decoding looks the name up in the
// protobuf type registry and rebuilds a value of the same type, so callers
// never declare a schema. Go's built-in scalar types, time.Time,
// time.Duration and []byte map onto well-known or built-in envelope
// messages. Unnamed slices and maps of those types, nested to any depth,
// are carried with the name of their element type and decode to the same
// Go type; a nil slice or map decodes empty. Any other protobuf message must be
// registered with proto.RegisterType (generated code does this) in every
// process that encodes or decodes it.
//
// Well-known wrapper messages such as *types.StringValue are envelopes
// themselves and decode to the Go value they wrap.
//
// Codecs hold no state and are safe for concurrent use.
package codec

import (
	"reflect"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gogo/protobuf/proto"
	"github.com/gogo/protobuf/types"
	"github.com/jrife/graphkv/graph"
)

// ErrUnsupportedType is returned when encoding a value
// whose type the codec cannot represent
var ErrUnsupportedType = errors.New("unsupported type")

// Codec encodes values to bytes and back
type Codec struct {
}

var defaultCodec = Codec{}

// Default returns the process-wide codec
func Default() Codec {
	return defaultCodec
}

// Marshal encodes v with the process-wide codec
func Marshal(v interface{}) ([]byte, error) {
	return defaultCodec.Marshal(v)
}

// Unmarshal decodes b with the process-wide codec
func Unmarshal(b []byte) (interface{}, error) {
	return defaultCodec.Unmarshal(b)
}

// Marshal encodes v together with its type
func (codec Codec) Marshal(v interface{}) ([]byte, error) {
	a, err := toAny(v)

	if err != nil {
		return nil, err
	}

	b, err := proto.Marshal(a)

	if err != nil {
		return nil, errors.Wrapf(err, "could not marshal %T", v)
	}

	return b, nil
}

// Unmarshal decodes bytes produced by Marshal. It fails with a
// decode error if b was not produced by Marshal or names a type
// that is not registered in this process.
func (codec Codec) Unmarshal(b []byte) (interface{}, error) {
	var a types.Any

	if err := proto.Unmarshal(b, &a); err != nil {
		return nil, graph.Mark(errors.Wrapf(err, "could not unmarshal %#x", b), graph.KindDecode)
	}

	v, err := fromAny(&a)

	if err != nil {
		return nil, graph.Mark(err, graph.KindDecode)
	}

	return v, nil
}

func toAny(v interface{}) (*types.Any, error) {
	m, err := toMessage(v)

	if err != nil {
		return nil, err
	}

	a, err := types.MarshalAny(m)

	if err != nil {
		return nil, errors.Wrapf(err, "could not marshal %T", v)
	}

	return a, nil
}

func toMessage(v interface{}) (proto.Message, error) {
	switch v := v.(type) {
	case nil:
		return &types.Empty{}, nil
	case bool:
		return &types.BoolValue{Value: v}, nil
	case string:
		return &types.StringValue{Value: v}, nil
	case []byte:
		return &types.BytesValue{Value: v}, nil
	case int:
		return &Int{Value: int64(v)}, nil
	case int8:
		return &Int8{Value: int32(v)}, nil
	case int16:
		return &Int16{Value: int32(v)}, nil
	case int32:
		return &types.Int32Value{Value: v}, nil
	case int64:
		return &types.Int64Value{Value: v}, nil
	case uint:
		return &Uint{Value: uint64(v)}, nil
	case uint8:
		return &Uint8{Value: uint32(v)}, nil
	case uint16:
		return &Uint16{Value: uint32(v)}, nil
	case uint32:
		return &types.UInt32Value{Value: v}, nil
	case uint64:
		return &types.UInt64Value{Value: v}, nil
	case float32:
		return &types.FloatValue{Value: v}, nil
	case float64:
		return &types.DoubleValue{Value: v}, nil
	case time.Time:
		ts, err := types.TimestampProto(v)

		if err != nil {
			return nil, errors.Wrapf(ErrUnsupportedType, "time %s: %s", v, err)
		}

		return ts, nil
	case time.Duration:
		return types.DurationProto(v), nil
	case []interface{}:
		list := &List{Items: make([]*types.Any, len(v))}

		for i, item := range v {
			a, err := toAny(item)

			if err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}

			list.Items[i] = a
		}

		return list, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))

		for key := range v {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		m := &Map{Entries: make([]*MapEntry, len(keys))}

		for i, key := range keys {
			a, err := toAny(v[key])

			if err != nil {
				return nil, errors.Wrapf(err, "key %q", key)
			}

			m.Entries[i] = &MapEntry{Key: key, Value: a}
		}

		return m, nil
	case proto.Message:
		if proto.MessageName(v) == "" {
			return nil, errors.Wrapf(ErrUnsupportedType, "%T is not a registered message", v)
		}

		return v, nil
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice:
		return toTypedList(rv)
	case reflect.Map:
		return toTypedMap(rv)
	}

	return nil, errors.Wrapf(ErrUnsupportedType, "%T", v)
}

func fromAny(a *types.Any) (interface{}, error) {
	if a == nil || a.TypeUrl == "" {
		return nil, errors.New("missing type")
	}

	m, err := types.EmptyAny(a)

	if err != nil {
		return nil, errors.Wrap(err, "unknown type")
	}

	if err := types.UnmarshalAny(a, m); err != nil {
		return nil, errors.Wrapf(err, "could not unmarshal %s", a.TypeUrl)
	}

	return fromMessage(m)
}

func fromMessage(m proto.Message) (interface{}, error) {
	switch m := m.(type) {
	case *types.Empty:
		return nil, nil
	case *types.BoolValue:
		return m.Value, nil
	case *types.StringValue:
		return m.Value, nil
	case *types.BytesValue:
		if m.Value == nil {
			return []byte{}, nil
		}

		return m.Value, nil
	case *Int:
		return int(m.Value), nil
	case *Int8:
		return int8(m.Value), nil
	case *Int16:
		return int16(m.Value), nil
	case *Uint:
		return uint(m.Value), nil
	case *Uint8:
		return uint8(m.Value), nil
	case *Uint16:
		return uint16(m.Value), nil
	case *types.Int32Value:
		return m.Value, nil
	case *types.Int64Value:
		return m.Value, nil
	case *types.UInt32Value:
		return m.Value, nil
	case *types.UInt64Value:
		return m.Value, nil
	case *types.FloatValue:
		return m.Value, nil
	case *types.DoubleValue:
		return m.Value, nil
	case *types.Timestamp:
		return types.TimestampFromProto(m)
	case *types.Duration:
		return types.DurationFromProto(m)
	case *List:
		list := make([]interface{}, len(m.Items))

		for i, item := range m.Items {
			v, err := fromAny(item)

			if err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}

			list[i] = v
		}

		return list, nil
	case *Map:
		result := make(map[string]interface{}, len(m.Entries))

		for _, entry := range m.Entries {
			v, err := fromAny(entry.Value)

			if err != nil {
				return nil, errors.Wrapf(err, "key %q", entry.Key)
			}

			result[entry.Key] = v
		}

		return result, nil
	case *TypedList:
		return fromTypedList(m)
	case *TypedMap:
		return fromTypedMap(m)
	}

	return m, nil
}
