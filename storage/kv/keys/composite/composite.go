// Package composite flattens (row, family, qualifier) keys into
// single byte strings for stores that only understand flat keys.
//
// Each component is escaped so that the flattened form sorts exactly
// like the structured key and no component can bleed into the next:
//
//   \x00 -> \x00\xff
//   end  -> \x00\x01
package composite

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/jrife/graphkv/storage/kv"
	"github.com/jrife/graphkv/storage/kv/keys"
)

const (
	escape      byte = 0x00
	escapedTerm byte = 0x01
	escaped00   byte = 0xff
	escapedFF   byte = 0x00
)

// ErrMalformed is returned when a flattened key cannot be decoded
var ErrMalformed = errors.New("malformed composite key")

// AppendComponent escapes data and appends it to b followed
// by a terminator. The resulting buffer is returned.
func AppendComponent(b []byte, data []byte) []byte {
	for {
		// IndexByte is implemented by the go runtime in assembly and is
		// much faster than looping over the bytes in the slice.
		i := bytes.IndexByte(data, escape)

		if i == -1 {
			break
		}

		b = append(b, data[:i]...)
		b = append(b, escape, escaped00)
		data = data[i+1:]
	}

	b = append(b, data...)

	return append(b, escape, escapedTerm)
}

// DecodeComponent decodes one component from the front of b. It
// returns the remainder of b and the decoded component.
func DecodeComponent(b []byte) ([]byte, []byte, error) {
	r := []byte{}

	for {
		i := bytes.IndexByte(b, escape)

		if i == -1 {
			return nil, nil, errors.Wrapf(ErrMalformed, "did not find terminator in buffer %#x", b)
		}

		if i+1 >= len(b) {
			return nil, nil, errors.Wrapf(ErrMalformed, "malformed escape in buffer %#x", b)
		}

		v := b[i+1]

		if v == escapedTerm {
			r = append(r, b[:i]...)

			return b[i+2:], r, nil
		}

		if v != escaped00 {
			return nil, nil, errors.Wrapf(ErrMalformed, "unknown escape sequence: %#x %#x", escape, v)
		}

		r = append(r, b[:i]...)
		r = append(r, escapedFF)
		b = b[i+2:]
	}
}

// Encode flattens key, appending it to prefix
func Encode(prefix []byte, key kv.Key) []byte {
	b := make([]byte, 0, len(prefix)+len(key.Row)+len(key.Family)+len(key.Qualifier)+6)
	b = append(b, prefix...)
	b = AppendComponent(b, key.Row)
	b = AppendComponent(b, key.Family)

	return AppendComponent(b, key.Qualifier)
}

// Decode reverses Encode. prefix must be the
// same prefix that was passed to Encode.
func Decode(prefix []byte, b []byte) (kv.Key, error) {
	var key kv.Key
	var err error

	if !bytes.HasPrefix(b, prefix) {
		return kv.Key{}, errors.Wrapf(ErrMalformed, "key %#x does not have prefix %#x", b, prefix)
	}

	b = b[len(prefix):]

	if b, key.Row, err = DecodeComponent(b); err != nil {
		return kv.Key{}, err
	}

	if b, key.Family, err = DecodeComponent(b); err != nil {
		return kv.Key{}, err
	}

	if b, key.Qualifier, err = DecodeComponent(b); err != nil {
		return kv.Key{}, err
	}

	if len(b) != 0 {
		return kv.Key{}, errors.Wrapf(ErrMalformed, "%d trailing bytes", len(b))
	}

	return key, nil
}

// Bounds returns the flattened [lower, upper) bounds covering every
// key whose row is inside rows. upper is nil if the range is unbounded
// above, in which case the end of the prefix is the bound.
func Bounds(prefix []byte, rows keys.Range) ([]byte, []byte) {
	lower := append([]byte{}, prefix...)

	if rows.Min != nil {
		lower = appendRowBound(lower, rows.Min)
	}

	if rows.Max != nil {
		return lower, appendRowBound(append([]byte{}, prefix...), rows.Max)
	}

	if len(prefix) == 0 {
		return lower, nil
	}

	return lower, keys.Inc(prefix)
}

// appendRowBound appends the escaped row without its terminator.
// Every flattened key whose row is >= row sorts at or after it and
// every flattened key whose row is < row sorts before it.
func appendRowBound(b []byte, row []byte) []byte {
	b = AppendComponent(b, row)

	return b[:len(b)-2]
}
