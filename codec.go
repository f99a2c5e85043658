package storefront

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
)

// Codec defines how client state is serialized to and from bytes so it can
// be kept in a Store. JSONCodec is the default; GobCodec is more compact but
// unreadable outside Go.
type Codec interface {
	// Encode serializes v into a byte slice.
	Encode(v any) ([]byte, error)

	// Decode deserializes data into the value pointed to by v.
	Decode(data []byte, v any) error
}

var (
	_ Codec = JSONCodec{}
	_ Codec = GobCodec{}
)

// JSONCodec is a Codec implementation using encoding/json. Values written by
// it keep the same shape the backend uses for the same records.
type JSONCodec struct{}

// Encode serializes v as JSON.
func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode deserializes JSON data into v.
func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// GobCodec is a Codec implementation using Go's encoding/gob.
type GobCodec struct{}

// Encode serializes v using gob encoding.
func (GobCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode deserializes gob data into v.
func (GobCodec) Decode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
