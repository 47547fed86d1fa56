package codec

import (
	"bytes"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gogo/protobuf/proto"
	"github.com/gogo/protobuf/types"
)

// Element types a typed slice or map may be built from. Slices and
// maps of these nest, so []map[string]int is named by composing them.
var scalarTypes = map[string]reflect.Type{
	"bool":          reflect.TypeOf(false),
	"string":        reflect.TypeOf(""),
	"int":           reflect.TypeOf(int(0)),
	"int8":          reflect.TypeOf(int8(0)),
	"int16":         reflect.TypeOf(int16(0)),
	"int32":         reflect.TypeOf(int32(0)),
	"int64":         reflect.TypeOf(int64(0)),
	"uint":          reflect.TypeOf(uint(0)),
	"uint8":         reflect.TypeOf(uint8(0)),
	"uint16":        reflect.TypeOf(uint16(0)),
	"uint32":        reflect.TypeOf(uint32(0)),
	"uint64":        reflect.TypeOf(uint64(0)),
	"float32":       reflect.TypeOf(float32(0)),
	"float64":       reflect.TypeOf(float64(0)),
	"time.Time":     reflect.TypeOf(time.Time{}),
	"time.Duration": reflect.TypeOf(time.Duration(0)),
	"interface {}":  reflect.TypeOf((*interface{})(nil)).Elem(),
}

var scalarNames = func() map[reflect.Type]string {
	names := make(map[reflect.Type]string, len(scalarTypes))

	for name, t := range scalarTypes {
		names[t] = name
	}

	return names
}()

// typeName names t so that parseType can rebuild it. Named
// slice and map types are rejected since only their underlying
// type could be rebuilt.
func typeName(t reflect.Type) (string, error) {
	if name, ok := scalarNames[t]; ok {
		return name, nil
	}

	if t.Name() != "" {
		return "", errors.Wrapf(ErrUnsupportedType, "%s", t)
	}

	switch t.Kind() {
	case reflect.Slice:
		elem, err := typeName(t.Elem())

		if err != nil {
			return "", err
		}

		return "[]" + elem, nil
	case reflect.Map:
		key, err := typeName(t.Key())

		if err != nil {
			return "", err
		}

		elem, err := typeName(t.Elem())

		if err != nil {
			return "", err
		}

		return "map[" + key + "]" + elem, nil
	}

	return "", errors.Wrapf(ErrUnsupportedType, "%s", t)
}

func parseType(name string) (reflect.Type, error) {
	if t, ok := scalarTypes[name]; ok {
		return t, nil
	}

	if strings.HasPrefix(name, "[]") {
		elem, err := parseType(name[2:])

		if err != nil {
			return nil, err
		}

		return reflect.SliceOf(elem), nil
	}

	if strings.HasPrefix(name, "map[") {
		depth := 1
		i := len("map[")

		for ; i < len(name) && depth > 0; i++ {
			switch name[i] {
			case '[':
				depth++
			case ']':
				depth--
			}
		}

		if depth != 0 {
			return nil, errors.Newf("malformed type name %q", name)
		}

		key, err := parseType(name[len("map[") : i-1])

		if err != nil {
			return nil, err
		}

		if !key.Comparable() {
			return nil, errors.Newf("map key type %s is not comparable", key)
		}

		elem, err := parseType(name[i:])

		if err != nil {
			return nil, err
		}

		return reflect.MapOf(key, elem), nil
	}

	return nil, errors.Newf("unknown type name %q", name)
}

func toTypedList(v reflect.Value) (proto.Message, error) {
	if _, err := typeName(v.Type()); err != nil {
		return nil, err
	}

	elemType, _ := typeName(v.Type().Elem())

	list := &TypedList{ElemType: elemType, Items: make([]*types.Any, v.Len())}

	for i := 0; i < v.Len(); i++ {
		a, err := toAny(v.Index(i).Interface())

		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}

		list.Items[i] = a
	}

	return list, nil
}

func toTypedMap(v reflect.Value) (proto.Message, error) {
	if _, err := typeName(v.Type()); err != nil {
		return nil, err
	}

	keyType, _ := typeName(v.Type().Key())
	valueType, _ := typeName(v.Type().Elem())

	m := &TypedMap{KeyType: keyType, ValueType: valueType, Entries: make([]*TypedMapEntry, 0, v.Len())}
	sortKeys := make(map[*TypedMapEntry][]byte, v.Len())
	iter := v.MapRange()

	for iter.Next() {
		key, err := toAny(iter.Key().Interface())

		if err != nil {
			return nil, errors.Wrapf(err, "key %v", iter.Key())
		}

		value, err := toAny(iter.Value().Interface())

		if err != nil {
			return nil, errors.Wrapf(err, "key %v", iter.Key())
		}

		sortKey, err := proto.Marshal(key)

		if err != nil {
			return nil, errors.Wrapf(err, "key %v", iter.Key())
		}

		entry := &TypedMapEntry{Key: key, Value: value}
		sortKeys[entry] = sortKey
		m.Entries = append(m.Entries, entry)
	}

	sort.Slice(m.Entries, func(i, j int) bool {
		return bytes.Compare(sortKeys[m.Entries[i]], sortKeys[m.Entries[j]]) < 0
	})

	return m, nil
}

func fromTypedList(list *TypedList) (interface{}, error) {
	elemType, err := parseType(list.ElemType)

	if err != nil {
		return nil, err
	}

	slice := reflect.MakeSlice(reflect.SliceOf(elemType), len(list.Items), len(list.Items))

	for i, item := range list.Items {
		v, err := typedValue(item, elemType)

		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}

		slice.Index(i).Set(v)
	}

	return slice.Interface(), nil
}

func fromTypedMap(m *TypedMap) (interface{}, error) {
	keyType, err := parseType(m.KeyType)

	if err != nil {
		return nil, err
	}

	if !keyType.Comparable() {
		return nil, errors.Newf("map key type %s is not comparable", keyType)
	}

	valueType, err := parseType(m.ValueType)

	if err != nil {
		return nil, err
	}

	result := reflect.MakeMapWithSize(reflect.MapOf(keyType, valueType), len(m.Entries))

	for i, entry := range m.Entries {
		key, err := typedValue(entry.Key, keyType)

		if err != nil {
			return nil, errors.Wrapf(err, "entry %d key", i)
		}

		value, err := typedValue(entry.Value, valueType)

		if err != nil {
			return nil, errors.Wrapf(err, "entry %d value", i)
		}

		result.SetMapIndex(key, value)
	}

	return result.Interface(), nil
}

// typedValue decodes a and checks that the result fits in t
func typedValue(a *types.Any, t reflect.Type) (reflect.Value, error) {
	v, err := fromAny(a)

	if err != nil {
		return reflect.Value{}, err
	}

	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)

	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, errors.Newf("expected %s, got %s", t, rv.Type())
	}

	return rv, nil
}
