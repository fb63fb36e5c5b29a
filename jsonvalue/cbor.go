package jsonvalue

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// CBOR major types used for containers. Maps are written by hand so that
// Object field order survives the round trip.
const (
	cborMajorArray byte = 4
	cborMajorMap   byte = 5
)

var ErrUnsupportedCBOR = errors.New("jsonvalue: CBOR item has no JSON equivalent")

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Keep NaN/Inf out of the stream, the same as the JSON side.
	encOptions.NaNConvert = cbor.NaNConvertReject
	encOptions.InfConvert = cbor.InfConvertReject
	cborEnc, err = encOptions.EncMode()
	if err != nil {
		panic("jsonvalue: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		MaxNestedLevels: 256,
	}.DecMode()
	if err != nil {
		panic("jsonvalue: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalCBOR implements cbor.Marshaler.
func (v Value) MarshalCBOR() ([]byte, error) {
	return v.appendCBOR(nil)
}

func (v Value) appendCBOR(dst []byte) ([]byte, error) {
	var item any
	switch v.kind {
	case NullKind:
		item = nil
	case BooleanKind:
		item = v.b
	case NumberKind:
		if v.exact {
			item = v.i
		} else {
			if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
				return nil, ErrInvalidNumber
			}
			item = v.num
		}
	case StringKind:
		item = v.str
	case ArrayKind:
		dst = appendHead(dst, cborMajorArray, uint64(len(v.arr)))
		for _, e := range v.arr {
			var err error
			if dst, err = e.appendCBOR(dst); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case ObjectKind:
		dst = appendHead(dst, cborMajorMap, uint64(v.obj.Len()))
		var err error
		v.obj.Range(func(k string, e Value) bool {
			var kb []byte
			if kb, err = cborEnc.Marshal(k); err != nil {
				return false
			}
			dst = append(dst, kb...)
			dst, err = e.appendCBOR(dst)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("jsonvalue: unknown kind %d", v.kind)
	}

	b, err := cborEnc.Marshal(item)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}

// appendHead writes a definite-length CBOR head in its shortest form.
func appendHead(dst []byte, major byte, n uint64) []byte {
	m := major << 5
	switch {
	case n < 24:
		return append(dst, m|byte(n))
	case n <= math.MaxUint8:
		return append(dst, m|24, byte(n))
	case n <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, m|25), uint16(n))
	case n <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(append(dst, m|26), uint32(n))
	}
	return binary.BigEndian.AppendUint64(append(dst, m|27), n)
}

// UnmarshalCBOR implements cbor.Unmarshaler. Byte strings, tags and
// non-string map keys are rejected.
func (v *Value) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("jsonvalue: empty CBOR item")
	}
	switch data[0] >> 5 {
	case cborMajorArray:
		var elems []Value
		if err := cborDec.Unmarshal(data, &elems); err != nil {
			return err
		}
		if elems == nil {
			elems = make([]Value, 0)
		}
		*v = Value{kind: ArrayKind, arr: elems}
		return nil
	case cborMajorMap:
		obj, err := decodeCBORMap(data)
		if err != nil {
			return err
		}
		*v = ObjectOf(obj)
		return nil
	}

	var item any
	if err := cborDec.Unmarshal(data, &item); err != nil {
		return err
	}
	switch t := item.(type) {
	case nil:
		*v = Null
	case bool:
		*v = Bool(t)
	case int64:
		*v = Int(t)
	case uint64:
		if t <= math.MaxInt64 {
			*v = Int(int64(t))
		} else {
			*v = Number(float64(t))
		}
	case big.Int:
		f, _ := new(big.Float).SetInt(&t).Float64()
		*v = Number(f)
	case *big.Int:
		f, _ := new(big.Float).SetInt(t).Float64()
		*v = Number(f)
	case float64:
		*v = Number(t)
	case string:
		*v = String(t)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedCBOR, item)
	}
	return nil
}

// decodeCBORMap reads a map item pair by pair so field order is kept.
func decodeCBORMap(data []byte) (*Object, error) {
	n, rest, err := readHead(data)
	if err != nil {
		return nil, err
	}
	dec := cborDec.NewDecoder(bytes.NewReader(rest))
	obj := NewObject()
	for i := uint64(0); i < n; i++ {
		var key string
		if err := dec.Decode(&key); err != nil {
			return nil, fmt.Errorf("jsonvalue: map key: %w", err)
		}
		var val Value
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	return obj, nil
}

// readHead parses a definite-length head and returns its argument and the
// bytes that follow it.
func readHead(data []byte) (uint64, []byte, error) {
	ai := data[0] & 0x1f
	switch {
	case ai < 24:
		return uint64(ai), data[1:], nil
	case ai == 24 && len(data) >= 2:
		return uint64(data[1]), data[2:], nil
	case ai == 25 && len(data) >= 3:
		return uint64(binary.BigEndian.Uint16(data[1:3])), data[3:], nil
	case ai == 26 && len(data) >= 5:
		return uint64(binary.BigEndian.Uint32(data[1:5])), data[5:], nil
	case ai == 27 && len(data) >= 9:
		return binary.BigEndian.Uint64(data[1:9]), data[9:], nil
	case ai == 31:
		return 0, nil, fmt.Errorf("%w: indefinite-length map", ErrUnsupportedCBOR)
	}
	return 0, nil, fmt.Errorf("jsonvalue: truncated CBOR head")
}

// ParseCBOR reads exactly one CBOR data item from data.
func ParseCBOR(data []byte) (Value, error) {
	var v Value
	rest, err := cborDec.UnmarshalFirst(data, &v)
	if err != nil {
		return Null, err
	}
	if len(rest) > 0 {
		return Null, ErrTrailingData
	}
	return v, nil
}
