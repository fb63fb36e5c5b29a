package codec

import (
	"typecodec/jsonvalue"
)

// CBORCodec writes value trees as CBOR (RFC 8949). Only the JSON subset of
// CBOR is produced and accepted: no byte strings, tags or non-string keys.
// Object field order is preserved.
type CBORCodec struct{}

func (c *CBORCodec) Encode(v jsonvalue.Value) ([]byte, error) {
	return v.MarshalCBOR()
}

func (c *CBORCodec) Decode(data []byte) (jsonvalue.Value, error) {
	return jsonvalue.ParseCBOR(data)
}

func (c *CBORCodec) Type() CodecType {
	return CodecTypeCBOR
}
