package codec

import "errors"

// Encode and Decode never return these. They surface through EncodeResult
// and DecodeResult so callers can see why a value degraded.
var (
	// ErrUnsupportedType means no encoding rule matched and the value was
	// written as its string form.
	ErrUnsupportedType = errors.New("codec: unsupported type")
	// ErrUnsupportedValue means the type is supported but this value is not,
	// such as a NaN float.
	ErrUnsupportedValue = errors.New("codec: unsupported value")
	// ErrConversion means a ToJSON method failed or panicked.
	ErrConversion = errors.New("codec: ToJSON failed")

	// ErrUnknownType means the discriminator names a type the resolution
	// context does not know.
	ErrUnknownType = errors.New("codec: unknown type")
	// ErrConstruction means the factory for a known type failed.
	ErrConstruction = errors.New("codec: construction failed")
	// ErrHeterogeneousArray means array elements decoded to different types.
	ErrHeterogeneousArray = errors.New("codec: heterogeneous array")

	ErrTypeMismatch = errors.New("codec: decoded value has unexpected type")
)
