// Package encoding converts between the column fields of the store
// and Go values.
//
// Text is a row, family or qualifier field and Value is a cell value. A
// TypedText is a qualifier whose first byte is a record type tag. It is a
// distinct type so that a tagged field can only be decoded with
// TextToTypedObject, which strips the tag before decoding.
package encoding

import (
	"github.com/cockroachdb/errors"
	"github.com/jrife/graphkv/graph"
	"github.com/jrife/graphkv/graph/codec"
)

// Text is a row, column family or column qualifier
type Text []byte

// TypedText is a column field prefixed with a one-byte record type tag
type TypedText []byte

// Value is a cell value
type Value []byte

// ObjectToValue encodes obj as a cell value
func ObjectToValue(obj interface{}) (Value, error) {
	b, err := codec.Marshal(obj)

	if err != nil {
		return nil, err
	}

	return Value(b), nil
}

// ValueToObject decodes a value written by ObjectToValue
func ValueToObject(value Value) (interface{}, error) {
	return codec.Unmarshal(value)
}

// ObjectToText encodes obj as a column field
func ObjectToText(obj interface{}) (Text, error) {
	b, err := codec.Marshal(obj)

	if err != nil {
		return nil, err
	}

	return Text(b), nil
}

// TextToObject decodes a field written by ObjectToText
func TextToObject(text Text) (interface{}, error) {
	return codec.Unmarshal(text)
}

// TypedObjectToText encodes obj and prefixes the tag of t
func TypedObjectToText(t graph.RecordType, obj interface{}) (TypedText, error) {
	if !t.Valid() {
		return nil, errors.Newf("invalid record type %d", t)
	}

	b, err := codec.Marshal(obj)

	if err != nil {
		return nil, err
	}

	text := make(TypedText, 1+len(b))
	text[0] = byte(t)
	copy(text[1:], b)

	return text, nil
}

// TextToTypedObject returns the record type and object of a field
// written by TypedObjectToText
func TextToTypedObject(text TypedText) (graph.RecordType, interface{}, error) {
	if len(text) == 0 {
		return 0, nil, graph.Mark(errors.New("typed text is empty"), graph.KindDecode)
	}

	t := graph.RecordType(text[0])

	if !t.Valid() {
		return 0, nil, graph.Mark(errors.Newf("unknown record type tag %d", text[0]), graph.KindDecode)
	}

	obj, err := codec.Unmarshal(text[1:])

	if err != nil {
		return 0, nil, errors.Wrapf(err, "%s record", t)
	}

	return t, obj, nil
}

// RecordTypeOf returns the tag of a typed field without decoding the rest
func RecordTypeOf(text TypedText) (graph.RecordType, error) {
	if len(text) == 0 || !graph.RecordType(text[0]).Valid() {
		return 0, graph.Mark(errors.Newf("no record type tag in %#x", []byte(text)), graph.KindDecode)
	}

	return graph.RecordType(text[0]), nil
}

// StringToText copies the bytes of str
func StringToText(str string) Text {
	return Text(str)
}

// TextToString copies the bytes of text
func TextToString(text Text) string {
	return string(text)
}

// StringToValue copies the bytes of str
func StringToValue(str string) Value {
	return Value(str)
}

// ValueToString copies the bytes of value
func ValueToString(value Value) string {
	return string(value)
}

// TextToValue reinterprets a field as a value
func TextToValue(text Text) Value {
	return append(Value{}, text...)
}

// ValueToText reinterprets a value as a field
func ValueToText(value Value) Text {
	return append(Text{}, value...)
}
