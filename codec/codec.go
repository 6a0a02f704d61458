// Package codec encodes component values, identifiers and compressed blocks for the
// snapshot package and any other external serializer.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Encode marshals a component value, or a slice of them, to JSON.
func Encode(v any) ([]byte, error) {
	bz, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to encode %T", v)
	}
	return bz, nil
}

// Decode unmarshals bz into a fresh T.
func Decode[T any](bz []byte) (T, error) {
	var v T
	if err := json.Unmarshal(bz, &v); err != nil {
		return v, eris.Wrapf(err, "failed to decode %T", v)
	}
	return v, nil
}
