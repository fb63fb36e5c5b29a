package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"typecodec/jsonvalue"
)

type celsius float64

type label string

func TestEncodeScalars(t *testing.T) {
	id := uuid.MustParse("3fa85f64-5717-4562-b3fc-2c963f66afa6")
	var nilPoint *point
	var nilMap map[string]int

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, `null`},
		{"nil pointer", nilPoint, `null`},
		{"nil map", nilMap, `null`},
		{"true", true, `true`},
		{"int", 42, `42`},
		{"int8", int8(-8), `-8`},
		{"int32", int32(1 << 30), `1073741824`},
		{"int64 max", int64(math.MaxInt64), `9223372036854775807`},
		{"uint64 max", uint64(math.MaxUint64), `18446744073709552000`},
		{"float32", float32(0.1), `0.1`},
		{"float64", 2.5, `2.5`},
		{"string", "héllo", `"héllo"`},
		{"uuid", id, `"3fa85f64-5717-4562-b3fc-2c963f66afa6"`},
		{"named float", celsius(21.5), `21.5`},
		{"named string", label("hall"), `"hall"`},
		{"pointer to int", ptr(7), `7`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := EncodeResult(tc.in)
			if err != nil {
				t.Fatalf("unexpected degradation: %v", err)
			}
			if got := out.String(); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestEncodeIsIdempotent(t *testing.T) {
	in := jsonvalue.MustParse(`{"type":"Point","x":1,"y":2,"tags":["a"]}`)
	out := Encode(in)
	if !out.Equal(in) {
		t.Fatalf("got %s, want %s", out, in)
	}
	again := Encode(out)
	if again.String() != in.String() {
		t.Fatalf("second pass changed the tree: %s", again)
	}

	obj, _ := in.AsObject()
	if got := Encode(obj); !got.Equal(in) {
		t.Errorf("*Object pass-through: got %s", got)
	}
}

func TestEncodeArrays(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"doubles", []float64{1, 2, 3}, `[1,2,3]`},
		{"strings", []string{"a", "b"}, `["a","b"]`},
		{"empty", []int{}, `[]`},
		{"nil slice", []int(nil), `[]`},
		{"any", []any{1, "two", nil, true}, `[1,"two",null,true]`},
		{"nested", [][]int{{1}, {2, 3}}, `[[1],[2,3]]`},
		{"fixed array", [2]bool{true, false}, `[true,false]`},
		{"points", []*point{{1, 2}, {3, 4}}, `[{"type":"Point","x":1,"y":2},{"type":"Point","x":3,"y":4}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Encode(tc.in).String(); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEncodeConvertible(t *testing.T) {
	got := Encode(&point{X: 1, Y: 2}).String()
	if got != `{"type":"Point","x":1,"y":2}` {
		t.Fatalf("got %s", got)
	}
}

func TestEncodeValueWithPointerReceiver(t *testing.T) {
	out, err := EncodeResult(point{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("unexpected degradation: %v", err)
	}
	if got := out.String(); got != `{"type":"Point","x":1,"y":2}` {
		t.Errorf("got %s", got)
	}

	got := Encode([]point{{1, 2}, {3, 4}}).String()
	if got != `[{"type":"Point","x":1,"y":2},{"type":"Point","x":3,"y":4}]` {
		t.Errorf("slice of values: got %s", got)
	}
}

func TestEncodeMapSortsKeys(t *testing.T) {
	got := Encode(map[string]any{"b": 2, "a": []int{1}, "c": nil}).String()
	if got != `{"a":[1],"b":2,"c":null}` {
		t.Fatalf("got %s", got)
	}
}

func TestEncodeFallsBackToString(t *testing.T) {
	type opaque struct{ A int }

	cases := []struct {
		name string
		in   any
		want string
		err  error
	}{
		{"struct", opaque{A: 1}, `"{1}"`, ErrUnsupportedType},
		{"int keyed map", map[int]string{1: "x"}, `"map[1:x]"`, ErrUnsupportedType},
		{"NaN", math.NaN(), `"NaN"`, ErrUnsupportedValue},
		{"Inf", math.Inf(-1), `"-Inf"`, ErrUnsupportedValue},
		{"ToJSON error", broken{id: 3}, `"broken#3"`, ErrConversion},
		{"ToJSON panic", panicky{}, `"panicky"`, ErrConversion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := EncodeResult(tc.in)
			if !errors.Is(err, tc.err) {
				t.Fatalf("err = %v, want %v", err, tc.err)
			}
			if got := out.String(); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
			// Encode never fails and produces the same tree
			if got := Encode(tc.in).String(); got != tc.want {
				t.Errorf("Encode got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEncodeArrayKeepsGoodElementsOnFailure(t *testing.T) {
	out, err := EncodeResult([]any{1, broken{id: 9}, "ok"})
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("err = %v", err)
	}
	if got := out.String(); got != `[1,"broken#9","ok"]` {
		t.Errorf("got %s", got)
	}
}
