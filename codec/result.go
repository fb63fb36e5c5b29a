package codec

import (
	"fmt"

	"typecodec/jsonvalue"
	"typecodec/registry"
)

// Outcome says how a decoded value was produced.
type Outcome uint8

const (
	// Decoded covers scalars, UUIDs and reified arrays.
	Decoded Outcome = iota
	// Reconstructed means a discriminated object went through its factory.
	Reconstructed
	// Raw means the input was returned as is by design: an object with no
	// discriminator, an empty array, or an array whose first element is null.
	Raw
	// UnresolvedType means the discriminator named an unknown type; the raw
	// object was returned.
	UnresolvedType
	// ConstructionFailed means the factory failed; the raw object was returned.
	ConstructionFailed
	// HeterogeneousArray means the elements did not share one decoded type;
	// the raw array was returned.
	HeterogeneousArray
)

func (o Outcome) String() string {
	switch o {
	case Decoded:
		return "decoded"
	case Reconstructed:
		return "reconstructed"
	case Raw:
		return "raw"
	case UnresolvedType:
		return "unresolved-type"
	case ConstructionFailed:
		return "construction-failed"
	case HeterogeneousArray:
		return "heterogeneous-array"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// Degraded reports whether the value fell back to its raw JSON form because
// something went wrong.
func (o Outcome) Degraded() bool {
	return o >= UnresolvedType
}

// Result is the value produced by a decode together with its outcome. Err is
// set whenever Outcome is degraded. A reified array may also carry an Err
// listing the elements that came back raw.
type Result struct {
	Value   any
	Outcome Outcome
	Err     error
}

// As returns the decoded value as a T.
func As[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}

// DecodeAs decodes v with d and requires the result to be a T. The error
// explains a degradation when there was one.
func DecodeAs[T any](d *Decoder, v jsonvalue.Value) (T, error) {
	res := d.DecodeResult(v)
	if t, ok := res.Value.(T); ok {
		return t, nil
	}
	var zero T
	if res.Err != nil {
		return zero, res.Err
	}
	return zero, fmt.Errorf("%w: got %T, want %T", ErrTypeMismatch, res.Value, zero)
}

// DecodeSlice decodes an Array with an explicit element decoder instead of
// inferring the element type from the data.
func DecodeSlice[T any](v jsonvalue.Value, elem func(jsonvalue.Value) (T, error)) ([]T, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: got %s, want array", ErrTypeMismatch, v.Kind())
	}
	out := make([]T, v.Len())
	for i := range out {
		t, err := elem(v.Index(i))
		if err != nil {
			return nil, fmt.Errorf("codec: element %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// Elem returns an element decoder for DecodeSlice that decodes in s and
// requires T. Inside a factory s is the factory's scope; elsewhere pass a
// *Decoder.
func Elem[T any](s registry.Scope) func(jsonvalue.Value) (T, error) {
	dec, ok := s.(*Decoder)
	switch {
	case !ok:
		dec = defaultDecoder.In(s)
	case dec == nil:
		dec = defaultDecoder
	}
	return func(v jsonvalue.Value) (T, error) {
		return DecodeAs[T](dec, v)
	}
}
