package jsonvalue

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestCBORRoundTrip(t *testing.T) {
	cases := []string{
		`null`,
		`false`,
		`42`,
		`-9223372036854775808`,
		`0.5`,
		`"ünïcode"`,
		`[]`,
		`{}`,
		`{"type":"Point","x":1,"y":2,"z":[1.5,{"nested":true}]}`,
	}
	for _, in := range cases {
		v := MustParse(in)
		data, err := v.MarshalCBOR()
		if err != nil {
			t.Fatalf("MarshalCBOR(%s) failed: %v", in, err)
		}
		back, err := ParseCBOR(data)
		if err != nil {
			t.Fatalf("ParseCBOR(%s) failed: %v", in, err)
		}
		if got := back.String(); got != in {
			t.Errorf("round trip: got %s, want %s", got, in)
		}
	}
}

func TestCBORKeepsFieldOrder(t *testing.T) {
	obj := NewObject()
	for _, k := range []string{"zeta", "alpha", "mid"} {
		obj.Set(k, Bool(true))
	}
	data, err := ObjectOf(obj).MarshalCBOR()
	if err != nil {
		t.Fatal(err)
	}
	back, err := ParseCBOR(data)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := back.AsObject()
	keys := got.Keys()
	if len(keys) != 3 || keys[0] != "zeta" || keys[1] != "alpha" || keys[2] != "mid" {
		t.Errorf("keys = %v", keys)
	}
}

func TestCBORLongContainerHeads(t *testing.T) {
	elems := make([]Value, 300)
	for i := range elems {
		elems[i] = Int(int64(i))
	}
	v := Array(elems...)
	data, err := v.MarshalCBOR()
	if err != nil {
		t.Fatal(err)
	}
	// 300 elements need a two byte length
	if !bytes.HasPrefix(data, []byte{0x99, 0x01, 0x2c}) {
		t.Fatalf("unexpected head % x", data[:3])
	}
	back, err := ParseCBOR(data)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(v) {
		t.Errorf("long array did not survive round trip")
	}
}

func TestCBORInsideStructs(t *testing.T) {
	type frame struct {
		Seq  uint32 `cbor:"seq"`
		Body Value  `cbor:"body"`
	}
	in := frame{Seq: 7, Body: MustParse(`{"a":[1,2,3]}`)}
	data, err := cbor.Marshal(in)
	if err != nil {
		t.Fatalf("cbor.Marshal failed: %v", err)
	}
	var out frame
	if err := cbor.Unmarshal(data, &out); err != nil {
		t.Fatalf("cbor.Unmarshal failed: %v", err)
	}
	if out.Seq != 7 || !out.Body.Equal(in.Body) {
		t.Errorf("got %+v", out)
	}
}

func TestCBORRejects(t *testing.T) {
	if _, err := Number(math.Inf(1)).MarshalCBOR(); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("expect ErrInvalidNumber, got %v", err)
	}

	byteString, _ := cbor.Marshal([]byte{1, 2, 3})
	if _, err := ParseCBOR(byteString); !errors.Is(err, ErrUnsupportedCBOR) {
		t.Errorf("expect ErrUnsupportedCBOR for byte string, got %v", err)
	}

	if _, err := ParseCBOR([]byte{0x01, 0x02}); !errors.Is(err, ErrTrailingData) {
		t.Errorf("expect ErrTrailingData, got %v", err)
	}
}
