// Package message defines the typed payloads components exchange.
//
// Every type here carries its own "type" discriminator in ToJSON and has a
// factory, so a receiver that called Register on its registry gets concrete
// values back from codec.Decode instead of raw objects.
//
//   - Request:      Src asks Dest to run Method with Params.
//   - Response:     the reply to the Request with the same ID.
//   - Notification: Src tells Dest something happened, no reply expected.
//
// Params, results and contents are arbitrary values. They are decoded with the
// receiver's decoder, so they may themselves be registered types and follow
// that decoder's options.
package message

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"typecodec/codec"
	"typecodec/jsonvalue"
	"typecodec/registry"
)

// Wire names of the payload types.
const (
	TypeRequest      = "message.Request"
	TypeResponse     = "message.Response"
	TypeNotification = "message.Notification"
	TypeDevice       = "message.Device"
)

// Request asks Dest to run Method.
type Request struct {
	ID     uuid.UUID
	Src    string
	Dest   string
	Method string // e.g. "Thermostat.SetPoint"
	Params []any
	TS     time.Time
}

// NewRequest creates a Request with a fresh ID stamped with the current time.
func NewRequest(src, dest, method string, params ...any) *Request {
	return &Request{
		ID:     uuid.New(),
		Src:    src,
		Dest:   dest,
		Method: method,
		Params: params,
		TS:     time.Now(),
	}
}

func (r *Request) ToJSON() (jsonvalue.Value, error) {
	params := r.Params
	if params == nil {
		params = []any{}
	}
	return jsonvalue.ObjectOf(codec.NewTyped(TypeRequest).
		Set("id", codec.Encode(r.ID)).
		Set("src", jsonvalue.String(r.Src)).
		Set("dest", jsonvalue.String(r.Dest)).
		Set("method", jsonvalue.String(r.Method)).
		Set("params", codec.Encode(params)).
		Set("ts", jsonvalue.Int(r.TS.UnixMilli()))), nil
}

func newRequest(obj *jsonvalue.Object, s registry.Scope) (*Request, error) {
	id, err := readID(obj)
	if err != nil {
		return nil, err
	}
	method, ok := obj.GetString("method")
	if !ok {
		return nil, fmt.Errorf("message: request without method")
	}
	params, err := readValues(obj, "params", s)
	if err != nil {
		return nil, err
	}
	src, _ := obj.GetString("src")
	dest, _ := obj.GetString("dest")
	return &Request{
		ID:     id,
		Src:    src,
		Dest:   dest,
		Method: method,
		Params: params,
		TS:     readTime(obj),
	}, nil
}

// Reply builds the Response to r carrying result.
func (r *Request) Reply(result any) *Response {
	return &Response{ID: r.ID, Src: r.Dest, Dest: r.Src, Result: result, TS: time.Now()}
}

// Fail builds the Response to r reporting err.
func (r *Request) Fail(err error) *Response {
	return &Response{ID: r.ID, Src: r.Dest, Dest: r.Src, Error: err.Error(), TS: time.Now()}
}

// Response carries the outcome of the Request with the same ID.
//
//   - On success: Result holds the return value, Error is empty.
//   - On failure: Error is non-empty.
type Response struct {
	ID     uuid.UUID
	Src    string
	Dest   string
	Result any
	Error  string
	TS     time.Time
}

func (r *Response) ToJSON() (jsonvalue.Value, error) {
	obj := codec.NewTyped(TypeResponse).
		Set("id", codec.Encode(r.ID)).
		Set("src", jsonvalue.String(r.Src)).
		Set("dest", jsonvalue.String(r.Dest)).
		Set("result", codec.Encode(r.Result))
	if r.Error != "" {
		obj.Set("error", jsonvalue.String(r.Error))
	}
	obj.Set("ts", jsonvalue.Int(r.TS.UnixMilli()))
	return jsonvalue.ObjectOf(obj), nil
}

func newResponse(obj *jsonvalue.Object, s registry.Scope) (*Response, error) {
	id, err := readID(obj)
	if err != nil {
		return nil, err
	}
	src, _ := obj.GetString("src")
	dest, _ := obj.GetString("dest")
	errText, _ := obj.GetString("error")
	result, _ := obj.Get("result")
	return &Response{
		ID:     id,
		Src:    src,
		Dest:   dest,
		Result: s.Decode(result),
		Error:  errText,
		TS:     readTime(obj),
	}, nil
}

// Err returns the failure carried by r, if any.
func (r *Response) Err() error {
	if r.Error == "" {
		return nil
	}
	return fmt.Errorf("%s: %s", r.Src, r.Error)
}

// Notification tells Dest about an event. Content is the event payload.
type Notification struct {
	Src     string
	Dest    string
	Content any
	TS      time.Time
}

func (n *Notification) ToJSON() (jsonvalue.Value, error) {
	return jsonvalue.ObjectOf(codec.NewTyped(TypeNotification).
		Set("src", jsonvalue.String(n.Src)).
		Set("dest", jsonvalue.String(n.Dest)).
		Set("content", codec.Encode(n.Content)).
		Set("ts", jsonvalue.Int(n.TS.UnixMilli()))), nil
}

func newNotification(obj *jsonvalue.Object, s registry.Scope) (*Notification, error) {
	content, ok := obj.Get("content")
	if !ok {
		return nil, fmt.Errorf("message: notification without content")
	}
	src, _ := obj.GetString("src")
	dest, _ := obj.GetString("dest")
	return &Notification{
		Src:     src,
		Dest:    dest,
		Content: s.Decode(content),
		TS:      readTime(obj),
	}, nil
}

// Register installs the factories of every payload type in r.
func Register(r *registry.TypeRegistry) error {
	return multierr.Combine(
		registry.Register(r, TypeRequest, newRequest),
		registry.Register(r, TypeResponse, newResponse),
		registry.Register(r, TypeNotification, newNotification),
		registry.Register(r, TypeDevice, newDevice),
	)
}

func readID(obj *jsonvalue.Object) (uuid.UUID, error) {
	s, ok := obj.GetString("id")
	if !ok {
		return uuid.Nil, fmt.Errorf("message: missing id")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("message: bad id %q: %w", s, err)
	}
	return id, nil
}

func readTime(obj *jsonvalue.Object) time.Time {
	ms, ok := obj.GetInt("ts")
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// readValues decodes an array field element by element, so params of mixed
// types survive as []any.
func readValues(obj *jsonvalue.Object, key string, s registry.Scope) ([]any, error) {
	raw, ok := obj.Get(key)
	if !ok || raw.IsNull() {
		return nil, nil
	}
	return codec.DecodeSlice(raw, func(v jsonvalue.Value) (any, error) {
		return s.Decode(v), nil
	})
}
