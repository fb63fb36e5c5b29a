package codec

import (
	"errors"
	"fmt"

	"typecodec/jsonvalue"
	"typecodec/registry"
)

// point is the reconstructible type used across the codec tests.
type point struct {
	X, Y float64
}

func (p *point) ToJSON() (jsonvalue.Value, error) {
	return jsonvalue.ObjectOf(NewTyped("Point").
		Set("x", jsonvalue.Number(p.X)).
		Set("y", jsonvalue.Number(p.Y))), nil
}

func newPoint(obj *jsonvalue.Object, _ registry.Scope) (*point, error) {
	x, okX := obj.GetFloat("x")
	y, okY := obj.GetFloat("y")
	if !okX || !okY {
		return nil, errors.New("point needs numeric x and y")
	}
	return &point{X: x, Y: y}, nil
}

// path holds nested points and decodes them in the caller's context.
type path struct {
	Name   string
	Points []*point
}

func (p *path) ToJSON() (jsonvalue.Value, error) {
	return jsonvalue.ObjectOf(NewTyped("Path").
		Set("name", jsonvalue.String(p.Name)).
		Set("points", Encode(p.Points))), nil
}

func newPath(obj *jsonvalue.Object, s registry.Scope) (*path, error) {
	name, _ := obj.GetString("name")
	raw, _ := obj.Get("points")
	pts, err := DecodeSlice(raw, Elem[*point](s))
	if err != nil {
		return nil, err
	}
	return &path{Name: name, Points: pts}, nil
}

// broken always fails to convert.
type broken struct{ id int }

func (b broken) ToJSON() (jsonvalue.Value, error) {
	return jsonvalue.Null, fmt.Errorf("broken %d", b.id)
}

func (b broken) String() string { return fmt.Sprintf("broken#%d", b.id) }

// panicky panics in ToJSON.
type panicky struct{}

func (panicky) ToJSON() (jsonvalue.Value, error) { panic("boom") }

func (panicky) String() string { return "panicky" }

func newTestRegistry() *registry.TypeRegistry {
	reg := registry.New()
	if err := registry.Register(reg, "Point", newPoint); err != nil {
		panic(err)
	}
	if err := registry.Register(reg, "Path", newPath); err != nil {
		panic(err)
	}
	return reg
}
