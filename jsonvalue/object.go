package jsonvalue

// Object is an ordered mapping from field name to Value. Keys are unique:
// setting an existing key replaces its value in place.
//
// An Object is not safe for concurrent mutation. Once wrapped in a Value it
// should be treated as read-only.
type Object struct {
	keys   []string
	fields map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Set stores v under key and returns o so calls can be chained.
func (o *Object) Set(key string, v Value) *Object {
	if o.fields == nil {
		o.fields = make(map[string]Value)
	}
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
	return o
}

// Delete removes key, keeping the order of the remaining fields.
func (o *Object) Delete(key string) {
	if _, ok := o.fields[key]; !ok {
		return
	}
	delete(o.fields, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Null, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// GetString returns the text stored under key, if it is a String.
func (o *Object) GetString(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// GetFloat returns the number stored under key, if it is a Number.
func (o *Object) GetFloat(key string) (float64, bool) {
	v, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

// GetInt returns the number stored under key as an int64.
func (o *Object) GetInt(key string) (int64, bool) {
	v, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

// GetBool returns the boolean stored under key, if it is a Boolean.
func (o *Object) GetBool(key string) (bool, bool) {
	v, ok := o.Get(key)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Len returns the number of fields.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the field names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	cp := make([]string, len(o.keys))
	copy(cp, o.keys)
	return cp
}

// Range calls fn for each field in order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.fields[k]) {
			return
		}
	}
}

// Clone returns a shallow copy of o. Nested values are shared, which is safe
// because Values are immutable.
func (o *Object) Clone() *Object {
	cp := &Object{
		keys:   make([]string, 0, o.Len()),
		fields: make(map[string]Value, o.Len()),
	}
	o.Range(func(k string, v Value) bool {
		cp.Set(k, v)
		return true
	})
	return cp
}

// Equal reports whether o and p hold the same fields with equal values.
// Field order is not significant.
func (o *Object) Equal(p *Object) bool {
	if o.Len() != p.Len() {
		return false
	}
	equal := true
	o.Range(func(k string, v Value) bool {
		w, ok := p.Get(k)
		if !ok || !v.Equal(w) {
			equal = false
		}
		return equal
	})
	return equal
}
