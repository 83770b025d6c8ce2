// Package codec converts records to and from their stored text form.
//
// Encoding writes every field (nothing is omitted), compact, with map keys
// sorted. Decoding ignores fields it does not know and leaves missing fields
// at the record's defaults (see the UnmarshalJSON methods in models).
package codec

import (
	"encoding/json"
	"fmt"
)

// Encode serializes v.
func Encode[T any](v T) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return string(data), nil
}

// Decode parses s into a fresh T.
func Decode[T any](s string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return v, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return v, nil
}
