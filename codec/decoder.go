package codec

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"typecodec/jsonvalue"
	"typecodec/registry"
)

// uuidV4 matches the canonical text of a version 4, RFC 4122 variant UUID.
// Hex digits are lower case, the variant nibble may be either case.
var uuidV4 = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-4[a-f0-9]{3}-[89aAbB][a-f0-9]{3}-[a-f0-9]{12}$`)

// Decoder rebuilds Go values from JSON value trees. It is safe for concurrent
// use. Its resolver is consulted for every discriminated object; a nil
// resolver means registry.Default.
//
// A Decoder is the registry.Scope handed to factories, so nested fields a
// factory decodes see the same resolver and the same options.
type Decoder struct {
	resolver   registry.Resolver
	detectUUID bool
	log        *fallbackLog
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	s := newSettings(opts)
	return &Decoder{
		resolver:   s.resolver,
		detectUUID: !s.opts.DisableUUIDDetection,
		log:        newFallbackLog(s),
	}
}

var defaultDecoder = NewDecoder()

// Decode converts v with the default Decoder, resolving types in r. A nil r
// means registry.Default.
func Decode(v jsonvalue.Value, r registry.Resolver) any {
	return defaultDecoder.In(r).Decode(v)
}

// DecodeResult is Decode that also reports how the value was produced.
func DecodeResult(v jsonvalue.Value, r registry.Resolver) Result {
	return defaultDecoder.In(r).DecodeResult(v)
}

// In returns a copy of d that resolves types in r. The copy shares d's log
// limiter.
func (d *Decoder) In(r registry.Resolver) *Decoder {
	cp := *d
	cp.resolver = r
	return &cp
}

// Resolver returns the resolution context of d.
func (d *Decoder) Resolver() registry.Resolver {
	if d.resolver == nil {
		return registry.Default
	}
	return d.resolver
}

// Resolve implements registry.Resolver by delegating to d's resolution
// context.
func (d *Decoder) Resolve(typeName string) (registry.Factory, bool) {
	return d.Resolver().Resolve(typeName)
}

// Decode converts v to a Go value. It never fails; anything it cannot rebuild
// comes back as the jsonvalue.Value it was given.
//
//	Null    -> nil
//	Boolean -> bool
//	Number  -> float64
//	String  -> uuid.UUID if it looks like a v4 UUID, otherwise string
//	Array   -> []T when every element decodes to T, otherwise the raw Array
//	Object  -> the factory's result when "type" resolves, otherwise the raw Object
func (d *Decoder) Decode(v jsonvalue.Value) any {
	return d.DecodeResult(v).Value
}

// DecodeResult is Decode with the outcome made explicit. Outcome describes
// the top-level value; Err also collects degradations of array elements that
// did not stop the array from being reified. Anything with an Err is logged
// at debug level.
func (d *Decoder) DecodeResult(v jsonvalue.Value) Result {
	res := d.decode(v)
	if res.Err != nil {
		d.log.debug("value decoded in raw form",
			zap.Stringer("outcome", res.Outcome),
			zap.Error(res.Err))
	}
	return res
}

func (d *Decoder) decode(v jsonvalue.Value) Result {
	switch v.Kind() {
	case jsonvalue.NullKind:
		return Result{Value: nil, Outcome: Decoded}
	case jsonvalue.BooleanKind:
		b, _ := v.AsBool()
		return Result{Value: b, Outcome: Decoded}
	case jsonvalue.NumberKind:
		f, _ := v.AsFloat()
		return Result{Value: f, Outcome: Decoded}
	case jsonvalue.StringKind:
		s, _ := v.AsString()
		return Result{Value: d.decodeString(s), Outcome: Decoded}
	case jsonvalue.ArrayKind:
		return d.decodeArray(v)
	case jsonvalue.ObjectKind:
		return d.decodeObject(v)
	}
	return Result{Value: v, Outcome: Raw}
}

func (d *Decoder) decodeString(s string) any {
	if !d.detectUUID || len(s) != 36 || !uuidV4.MatchString(s) {
		return s
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return s
	}
	return id
}

// decodeArray reifies v into a slice typed after its first decoded element.
func (d *Decoder) decodeArray(v jsonvalue.Value) Result {
	n := v.Len()
	if n == 0 {
		return Result{Value: v, Outcome: Raw}
	}
	first := d.decode(v.Index(0))
	if first.Value == nil {
		return Result{Value: v, Outcome: Raw}
	}
	nested := elemErr(nil, 0, first.Err)

	elemType := reflect.TypeOf(first.Value)
	out := reflect.MakeSlice(reflect.SliceOf(elemType), n, n)
	out.Index(0).Set(reflect.ValueOf(first.Value))
	for i := 1; i < n; i++ {
		er := d.decode(v.Index(i))
		nested = elemErr(nested, i, er.Err)
		if er.Value == nil {
			if nillable(elemType) {
				continue // zero value is already nil
			}
			return heterogeneous(v, i, elemType, nil, nested)
		}
		if t := reflect.TypeOf(er.Value); t != elemType {
			return heterogeneous(v, i, elemType, t, nested)
		}
		out.Index(i).Set(reflect.ValueOf(er.Value))
	}
	return Result{Value: out.Interface(), Outcome: Decoded, Err: nested}
}

func elemErr(errs error, i int, err error) error {
	if err == nil {
		return errs
	}
	return multierr.Append(errs, fmt.Errorf("[%d]: %w", i, err))
}

func heterogeneous(v jsonvalue.Value, i int, want, got reflect.Type, nested error) Result {
	return Result{
		Value:   v,
		Outcome: HeterogeneousArray,
		Err: multierr.Append(
			fmt.Errorf("%w: element %d is %v, not %v", ErrHeterogeneousArray, i, got, want),
			nested),
	}
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

// decodeObject rebuilds a discriminated object through its factory.
func (d *Decoder) decodeObject(v jsonvalue.Value) Result {
	obj, _ := v.AsObject()
	typeName, ok := obj.GetString(TypeField)
	if !ok {
		return Result{Value: v, Outcome: Raw}
	}

	factory, ok := d.Resolve(typeName)
	if !ok {
		return Result{
			Value:   v,
			Outcome: UnresolvedType,
			Err:     fmt.Errorf("%w: %q", ErrUnknownType, typeName),
		}
	}

	out, err := construct(factory, obj.Clone(), d)
	if err != nil {
		return Result{
			Value:   v,
			Outcome: ConstructionFailed,
			Err:     fmt.Errorf("%w: %s: %w", ErrConstruction, typeName, err),
		}
	}
	return Result{Value: out, Outcome: Reconstructed}
}

// construct runs factory, treating a panic or a nil result as failure.
func construct(factory registry.Factory, obj *jsonvalue.Object, s registry.Scope) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	out, err = factory(obj, s)
	if err != nil {
		return nil, err
	}
	if isNil(out) {
		return nil, fmt.Errorf("factory returned nil")
	}
	return out, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
