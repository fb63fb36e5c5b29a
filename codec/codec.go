// Package codec converts Go values to JSON value trees and back.
//
// Encoding is type-directed: scalars map to their JSON counterparts, slices to
// arrays, and application types implementing Convertible supply their own
// object form tagged with a "type" discriminator. Decoding reverses this,
// looking the discriminator up in a registry.Resolver to rebuild the concrete
// type. Neither direction fails: a value that cannot be handled degrades to a
// string (encode) or to the raw JSON value (decode), and the *Result variants
// say why.
//
// The wire codecs in this file move value trees to and from bytes:
//
//	value --Encode--> jsonvalue.Value --Codec.Encode--> []byte
//	[]byte --Codec.Decode--> jsonvalue.Value --Decode--> value
package codec

import (
	"fmt"
	"strings"

	"typecodec/jsonvalue"
	"typecodec/registry"
)

type CodecType byte

const (
	CodecTypeJSON CodecType = 0
	CodecTypeCBOR CodecType = 1
)

func (t CodecType) String() string {
	switch t {
	case CodecTypeJSON:
		return "json"
	case CodecTypeCBOR:
		return "cbor"
	}
	return fmt.Sprintf("codec(%d)", byte(t))
}

// ParseCodecType maps a configuration name to a CodecType.
func ParseCodecType(name string) (CodecType, error) {
	switch strings.ToLower(name) {
	case "json":
		return CodecTypeJSON, nil
	case "cbor":
		return CodecTypeCBOR, nil
	}
	return 0, fmt.Errorf("codec: unknown wire format %q", name)
}

// Codec serializes value trees.
type Codec interface {
	Encode(v jsonvalue.Value) ([]byte, error)
	Decode(data []byte) (jsonvalue.Value, error)
	Type() CodecType // 0=JSON, 1=CBOR
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeJSON {
		return &JSONCodec{}
	}

	return &CBORCodec{}
}

// Marshal encodes v and serializes the tree with c.
func Marshal(c Codec, v any) ([]byte, error) {
	return c.Encode(Encode(v))
}

// Unmarshal parses data with c and decodes the tree in resolution context r.
// Only malformed input is an error; decoding itself degrades as Decode does.
func Unmarshal(c Codec, data []byte, r registry.Resolver) (any, error) {
	tree, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return Decode(tree, r), nil
}

// Marshal is the package Marshal using e.
func (e *Encoder) Marshal(c Codec, v any) ([]byte, error) {
	return c.Encode(e.Encode(v))
}

// Unmarshal is the package Unmarshal using d and its resolver.
func (d *Decoder) Unmarshal(c Codec, data []byte) (any, error) {
	tree, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return d.Decode(tree), nil
}
