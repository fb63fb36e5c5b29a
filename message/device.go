package message

import (
	"fmt"

	"typecodec/codec"
	"typecodec/jsonvalue"
	"typecodec/registry"
)

// Device describes one running component found in the deployment topology.
// ID is "node.component"; Attributes are the component's dictionary values.
type Device struct {
	Name       string
	ID         string
	Type       string // component type name, not the wire discriminator
	Attributes map[string]string
}

func (d *Device) ToJSON() (jsonvalue.Value, error) {
	attrs := d.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	return jsonvalue.ObjectOf(codec.NewTyped(TypeDevice).
		Set("name", jsonvalue.String(d.Name)).
		Set("id", jsonvalue.String(d.ID)).
		Set("deviceType", jsonvalue.String(d.Type)).
		Set("attributes", codec.Encode(attrs))), nil
}

func newDevice(obj *jsonvalue.Object, _ registry.Scope) (*Device, error) {
	id, ok := obj.GetString("id")
	if !ok {
		return nil, fmt.Errorf("message: device without id")
	}
	d := &Device{ID: id, Attributes: make(map[string]string)}
	d.Name, _ = obj.GetString("name")
	d.Type, _ = obj.GetString("deviceType")

	if v, ok := obj.Get("attributes"); ok {
		attrs, ok := v.AsObject()
		if !ok {
			return nil, fmt.Errorf("message: device attributes must be an object, got %s", v.Kind())
		}
		var err error
		attrs.Range(func(k string, v jsonvalue.Value) bool {
			s, ok := v.AsString()
			if !ok {
				err = fmt.Errorf("message: device attribute %q is a %s", k, v.Kind())
				return false
			}
			d.Attributes[k] = s
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Devices indexes ds by ID.
func Devices(ds ...*Device) map[string]*Device {
	m := make(map[string]*Device, len(ds))
	for _, d := range ds {
		m[d.ID] = d
	}
	return m
}
