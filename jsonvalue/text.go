package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
)

var (
	ErrInvalidNumber = errors.New("jsonvalue: NaN and infinite numbers have no JSON form")
	ErrTrailingData  = errors.New("jsonvalue: trailing data after value")
)

// Parse reads exactly one JSON value from data.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Null, fmt.Errorf("jsonvalue: %w", err)
	}
	v, err := parseValue(dec, tok)
	if err != nil {
		return Null, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Null, ErrTrailingData
	}
	return v, nil
}

// ParseString is Parse for text input.
func ParseString(s string) (Value, error) {
	return Parse([]byte(s))
}

// MustParse is Parse that panics on malformed input. Intended for tests and
// literals known at compile time.
func MustParse(s string) Value {
	v, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseValue(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(t)
	case json.Delim:
		switch t {
		case '[':
			return parseArray(dec)
		case '{':
			return parseObject(dec)
		}
	}
	return Null, fmt.Errorf("jsonvalue: unexpected token %v", tok)
}

// parseNumber keeps integer literals exact when they fit in an int64.
func parseNumber(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null, fmt.Errorf("jsonvalue: number %q: %w", s, err)
	}
	return Number(f), nil
}

func parseArray(dec *json.Decoder) (Value, error) {
	elems := make([]Value, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Null, fmt.Errorf("jsonvalue: %w", err)
		}
		v, err := parseValue(dec, tok)
		if err != nil {
			return Null, err
		}
		elems = append(elems, v)
	}
	// closing ']'
	if _, err := dec.Token(); err != nil {
		return Null, fmt.Errorf("jsonvalue: %w", err)
	}
	return Value{kind: ArrayKind, arr: elems}, nil
}

func parseObject(dec *json.Decoder) (Value, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Null, fmt.Errorf("jsonvalue: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return Null, fmt.Errorf("jsonvalue: object key must be a string, got %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return Null, fmt.Errorf("jsonvalue: %w", err)
		}
		v, err := parseValue(dec, tok)
		if err != nil {
			return Null, err
		}
		obj.Set(key, v)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return Null, fmt.Errorf("jsonvalue: %w", err)
	}
	return ObjectOf(obj), nil
}

// MarshalJSON implements json.Marshaler. Object fields are written in order.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// AppendJSON appends the compact JSON text of v to dst.
func (v Value) AppendJSON(dst []byte) ([]byte, error) {
	switch v.kind {
	case NullKind:
		return append(dst, "null"...), nil
	case BooleanKind:
		return strconv.AppendBool(dst, v.b), nil
	case NumberKind:
		if v.exact {
			return strconv.AppendInt(dst, v.i, 10), nil
		}
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, ErrInvalidNumber
		}
		b, err := gojson.Marshal(v.num)
		if err != nil {
			return nil, err
		}
		return append(dst, b...), nil
	case StringKind:
		return appendString(dst, v.str)
	case ArrayKind:
		dst = append(dst, '[')
		for i, e := range v.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = e.AppendJSON(dst); err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case ObjectKind:
		dst = append(dst, '{')
		var err error
		first := true
		v.obj.Range(func(k string, e Value) bool {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			if dst, err = appendString(dst, k); err != nil {
				return false
			}
			dst = append(dst, ':')
			dst, err = e.AppendJSON(dst)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return append(dst, '}'), nil
	}
	return nil, fmt.Errorf("jsonvalue: unknown kind %d", v.kind)
}

func appendString(dst []byte, s string) ([]byte, error) {
	b, err := gojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
