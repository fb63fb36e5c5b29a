package codec

import (
	"typecodec/jsonvalue"
)

// JSONCodec writes value trees as compact JSON text.
// Pros: human-readable, cross-language, easy to debug.
// Cons: larger payload, numbers pass through decimal text.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v jsonvalue.Value) ([]byte, error) {
	return v.MarshalJSON()
}

func (c *JSONCodec) Decode(data []byte) (jsonvalue.Value, error) {
	return jsonvalue.Parse(data)
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}
