package codec

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"typecodec/jsonvalue"
)

// TypeField is the discriminator key naming the concrete type of an object.
const TypeField = "type"

// Convertible is implemented by application types that know their own JSON
// form. ToJSON must embed a TypeField naming a type registered with the
// receiving side's registry if the value is to be rebuilt after transport.
//
// When ToJSON has a pointer receiver, values of the type are copied to a new
// pointer and converted through it.
type Convertible interface {
	ToJSON() (jsonvalue.Value, error)
}

var convertibleType = reflect.TypeOf((*Convertible)(nil)).Elem()

// NewTyped starts an object whose first field is the discriminator.
func NewTyped(typeName string) *jsonvalue.Object {
	return jsonvalue.NewObject().Set(TypeField, jsonvalue.String(typeName))
}

// Encoder converts Go values to JSON value trees. It is safe for concurrent
// use and keeps no state between calls besides its log limiter.
type Encoder struct {
	log *fallbackLog
}

// NewEncoder creates an Encoder.
func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{log: newFallbackLog(newSettings(opts))}
}

var defaultEncoder = NewEncoder()

// Encode converts v with the default Encoder.
func Encode(v any) jsonvalue.Value {
	return defaultEncoder.Encode(v)
}

// EncodeResult converts v with the default Encoder and reports any
// degradation.
func EncodeResult(v any) (jsonvalue.Value, error) {
	return defaultEncoder.EncodeResult(v)
}

// Encode converts v to a JSON value. It never fails: values without an
// encoding rule become their fmt.Sprint text, and the cause is logged at
// debug level.
func (e *Encoder) Encode(v any) jsonvalue.Value {
	out, err := e.EncodeResult(v)
	if err != nil {
		e.log.debug("value encoded in string form",
			zap.String("type", fmt.Sprintf("%T", v)),
			zap.Error(err))
	}
	return out
}

// EncodeResult is Encode without the logging. The returned value is always
// usable. A non-nil error lists every part of v that fell back to its string
// form.
//
// Rules, first match wins:
//
//	nil, nil pointer/map/func/chan  -> Null
//	bool                            -> Boolean
//	integers, floats                -> Number (integers stay exact)
//	string                          -> String
//	jsonvalue.Value, *Object        -> unchanged
//	uuid.UUID                       -> canonical String
//	slices and arrays               -> Array, element by element
//	Convertible (or *T is)          -> result of ToJSON
//	maps with string keys           -> Object, keys sorted
//	named scalar kinds, pointers    -> by underlying kind / pointee
//	anything else                   -> String(fmt.Sprint(v))
func (e *Encoder) EncodeResult(v any) (jsonvalue.Value, error) {
	if v == nil {
		return jsonvalue.Null, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			return jsonvalue.Null, nil
		}
	}

	switch t := v.(type) {
	case bool:
		return jsonvalue.Bool(t), nil
	case int:
		return jsonvalue.Int(int64(t)), nil
	case int8:
		return jsonvalue.Int(int64(t)), nil
	case int16:
		return jsonvalue.Int(int64(t)), nil
	case int32:
		return jsonvalue.Int(int64(t)), nil
	case int64:
		return jsonvalue.Int(t), nil
	case uint:
		return encodeUint(uint64(t)), nil
	case uint8:
		return jsonvalue.Int(int64(t)), nil
	case uint16:
		return jsonvalue.Int(int64(t)), nil
	case uint32:
		return jsonvalue.Int(int64(t)), nil
	case uint64:
		return encodeUint(t), nil
	case float32:
		return encodeFloat(widenFloat32(t))
	case float64:
		return encodeFloat(t)
	case string:
		return jsonvalue.String(t), nil
	case jsonvalue.Value:
		return t, nil
	case *jsonvalue.Object:
		return jsonvalue.ObjectOf(t), nil
	case uuid.UUID:
		return jsonvalue.String(t.String()), nil
	case []any:
		return e.encodeSlice(rv)
	case Convertible:
		return e.convert(t)
	}
	return e.encodeReflect(v, rv)
}

func (e *Encoder) encodeReflect(v any, rv reflect.Value) (jsonvalue.Value, error) {
	if rv.Kind() != reflect.Pointer && reflect.PointerTo(rv.Type()).Implements(convertibleType) {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		return e.convert(p.Interface().(Convertible))
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return e.encodeSlice(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return e.encodeMap(rv)
		}
	case reflect.Pointer:
		return e.EncodeResult(rv.Elem().Interface())
	case reflect.Bool:
		return jsonvalue.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return jsonvalue.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return encodeUint(rv.Uint()), nil
	case reflect.Float32:
		return encodeFloat(widenFloat32(float32(rv.Float())))
	case reflect.Float64:
		return encodeFloat(rv.Float())
	case reflect.String:
		return jsonvalue.String(rv.String()), nil
	}
	return stringForm(v), fmt.Errorf("%w: %T", ErrUnsupportedType, v)
}

func (e *Encoder) encodeSlice(rv reflect.Value) (jsonvalue.Value, error) {
	n := rv.Len()
	elems := make([]jsonvalue.Value, n)
	var errs error
	for i := 0; i < n; i++ {
		ev, err := e.EncodeResult(rv.Index(i).Interface())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("[%d]: %w", i, err))
		}
		elems[i] = ev
	}
	return jsonvalue.Array(elems...), errs
}

func (e *Encoder) encodeMap(rv reflect.Value) (jsonvalue.Value, error) {
	keys := make([]string, 0, rv.Len())
	vals := make(map[string]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		keys = append(keys, k)
		vals[k] = iter.Value()
	}
	sort.Strings(keys)

	obj := jsonvalue.NewObject()
	var errs error
	for _, k := range keys {
		ev, err := e.EncodeResult(vals[k].Interface())
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("[%q]: %w", k, err))
		}
		obj.Set(k, ev)
	}
	return jsonvalue.ObjectOf(obj), errs
}

// convert calls ToJSON, turning errors and panics into the string fallback.
func (e *Encoder) convert(c Convertible) (out jsonvalue.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = stringForm(c)
			err = fmt.Errorf("%w: %T: panic: %v", ErrConversion, c, r)
		}
	}()
	v, err := c.ToJSON()
	if err != nil {
		return stringForm(c), fmt.Errorf("%w: %T: %w", ErrConversion, c, err)
	}
	return v, nil
}

func stringForm(v any) jsonvalue.Value {
	return jsonvalue.String(fmt.Sprint(v))
}

func encodeUint(u uint64) jsonvalue.Value {
	if u <= math.MaxInt64 {
		return jsonvalue.Int(int64(u))
	}
	return jsonvalue.Number(float64(u))
}

func encodeFloat(f float64) (jsonvalue.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return stringForm(f), fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}
	return jsonvalue.Number(f), nil
}

// widenFloat32 converts through the shortest decimal form of f, so 0.1f
// becomes 0.1 rather than 0.10000000149011612.
func widenFloat32(f float32) float64 {
	w, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return w
}
