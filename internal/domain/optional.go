package domain

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes a field that was never supplied from one supplied
// as an explicit null and from one supplied with a value. The zero value is
// an absent field.
type Optional[T any] struct {
	value T
	set   bool
	null  bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// IsSet reports whether the field was supplied at all, null included.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// IsNull reports whether the field was supplied as an explicit null.
func (o Optional[T]) IsNull() bool {
	return o.set && o.null
}

// Get returns the value and true when the field carries a non-null value.
func (o Optional[T]) Get() (T, bool) {
	if !o.set || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// UnmarshalJSON marks the field as supplied. encoding/json only calls it
// when the key is present in the document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.value)
}
