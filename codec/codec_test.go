package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestJSONCodec(t *testing.T) {
	jsonCodec := GetCodec(CodecTypeJSON)
	reg := newTestRegistry()

	original := &path{Name: "route", Points: []*point{{1, 2}, {3.5, -4}}}

	data, err := Marshal(jsonCodec, original)
	if err != nil {
		t.Fatalf("JSONCodec Marshal failed: %v", err)
	}
	want := `{"type":"Path","name":"route","points":[{"type":"Point","x":1,"y":2},{"type":"Point","x":3.5,"y":-4}]}`
	if string(data) != want {
		t.Errorf("wire text mismatch:\n got %s\nwant %s", data, want)
	}

	decoded, err := Unmarshal(jsonCodec, data, reg)
	if err != nil {
		t.Fatalf("JSONCodec Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(original, decoded); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCBORCodec(t *testing.T) {
	cborCodec := GetCodec(CodecTypeCBOR)
	reg := newTestRegistry()
	dec := NewDecoder(WithResolver(reg))
	enc := NewEncoder()

	id := uuid.New()
	original := []any{id, &point{X: 1, Y: 2}, "text", 3.25, true, nil}

	data, err := enc.Marshal(cborCodec, original)
	if err != nil {
		t.Fatalf("CBORCodec Marshal failed: %v", err)
	}

	decoded, err := dec.Unmarshal(cborCodec, data)
	if err != nil {
		t.Fatalf("CBORCodec Unmarshal failed: %v", err)
	}
	// mixed element types come back as the raw array
	tree, err := cborCodec.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(tree, decoded); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if got := dec.Decode(tree.Index(1)); !cmp.Equal(got, &point{X: 1, Y: 2}) {
		t.Errorf("element 1 decoded to %#v", got)
	}
	if got := dec.Decode(tree.Index(0)); got != id {
		t.Errorf("element 0 decoded to %#v", got)
	}
}

func TestCodecErrors(t *testing.T) {
	for _, c := range []Codec{&JSONCodec{}, &CBORCodec{}} {
		if _, err := Unmarshal(c, []byte{0xff, 0x00}, nil); err == nil {
			t.Errorf("%s: expect error for malformed input", c.Type())
		}
	}
}

func TestParseCodecType(t *testing.T) {
	cases := map[string]CodecType{"json": CodecTypeJSON, "JSON": CodecTypeJSON, "cbor": CodecTypeCBOR}
	for name, want := range cases {
		got, err := ParseCodecType(name)
		if err != nil || got != want {
			t.Errorf("ParseCodecType(%q) = %v, %v", name, got, err)
		}
		if GetCodec(got).Type() != want {
			t.Errorf("GetCodec(%v) returned the wrong codec", got)
		}
	}
	if _, err := ParseCodecType("xml"); err == nil {
		t.Error("expect error for unknown format")
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := (Options{}).Validate(); err != nil {
		t.Errorf("zero options: %v", err)
	}
	if err := (Options{Wire: "cbor", FallbackLogRate: 5}).Validate(); err != nil {
		t.Errorf("valid options: %v", err)
	}
	bad := []Options{{Wire: "yaml"}, {FallbackLogRate: -1}, {FallbackLogBurst: -1}}
	for _, o := range bad {
		if err := o.Validate(); err == nil {
			t.Errorf("%+v: expect error", o)
		}
	}
	c, err := (Options{Wire: "cbor"}).WireCodec()
	if err != nil || c.Type() != CodecTypeCBOR {
		t.Errorf("WireCodec = %v, %v", c, err)
	}
}
