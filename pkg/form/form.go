// Package form defines the shared vocabulary of the form orchestrators: the
// closed set of fields, the per-field error map, validation results and
// submission outcomes.
package form

import "sort"

// Field identifies a form input. The set is closed so callers can switch on
// it exhaustively when rendering inline errors.
type Field int

const (
	FieldName Field = iota + 1
	FieldEmail
	FieldPhone
	FieldMessage
	FieldZipCode
	FieldServiceType
	FieldBedrooms
	FieldBathrooms
	FieldFrequency
	FieldHoneypot
)

var fieldKeys = map[Field]string{
	FieldName:        "name",
	FieldEmail:       "email",
	FieldPhone:       "phone",
	FieldMessage:     "message",
	FieldZipCode:     "zipCode",
	FieldServiceType: "serviceType",
	FieldBedrooms:    "bedrooms",
	FieldBathrooms:   "bathrooms",
	FieldFrequency:   "frequency",
	FieldHoneypot:    "_gotcha",
}

// Fields lists every field in declaration order.
func Fields() []Field {
	return []Field{
		FieldName,
		FieldEmail,
		FieldPhone,
		FieldMessage,
		FieldZipCode,
		FieldServiceType,
		FieldBedrooms,
		FieldBathrooms,
		FieldFrequency,
		FieldHoneypot,
	}
}

// Key returns the payload key for the field.
func (f Field) Key() string {
	return fieldKeys[f]
}

// String implements fmt.Stringer.
func (f Field) String() string {
	if key, ok := fieldKeys[f]; ok {
		return key
	}
	return "unknown"
}

// Valid reports whether f belongs to the closed set.
func (f Field) Valid() bool {
	_, ok := fieldKeys[f]
	return ok
}

// ParseField maps a payload key back to its field.
func ParseField(key string) (Field, bool) {
	for field, candidate := range fieldKeys {
		if candidate == key {
			return field, true
		}
	}
	return 0, false
}

// Errors maps fields to user facing messages. A nil Errors is empty and safe
// to read.
type Errors map[Field]string

// Set records msg for field. An empty msg clears the entry.
func (e Errors) Set(field Field, msg string) {
	if msg == "" {
		delete(e, field)
		return
	}
	e[field] = msg
}

// Get returns the message for field, or "".
func (e Errors) Get(field Field) string {
	return e[field]
}

// Has reports whether field carries an error.
func (e Errors) Has(field Field) bool {
	_, ok := e[field]
	return ok
}

// Clear removes the entry for field.
func (e Errors) Clear(field Field) {
	delete(e, field)
}

// Len returns the number of fields in error.
func (e Errors) Len() int {
	return len(e)
}

// Fields returns the fields in error in declaration order.
func (e Errors) Fields() []Field {
	out := make([]Field, 0, len(e))
	for field := range e {
		out = append(out, field)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for field, msg := range e {
		out[field] = msg
	}
	return out
}

// Result is either valid data or a non-empty error map, never both.
type Result[T any] struct {
	data   T
	errors Errors
}

// Valid wraps data that passed validation.
func Valid[T any](data T) Result[T] {
	return Result[T]{data: data}
}

// Invalid wraps a failing error map. An empty map still yields an invalid
// result.
func Invalid[T any](errs Errors) Result[T] {
	if errs == nil {
		errs = Errors{}
	}
	return Result[T]{errors: errs}
}

// OK reports whether the result carries data.
func (r Result[T]) OK() bool {
	return r.errors == nil
}

// Data returns the validated value. ok is false for invalid results.
func (r Result[T]) Data() (data T, ok bool) {
	return r.data, r.errors == nil
}

// Errors returns the error map of an invalid result, or nil.
func (r Result[T]) Errors() Errors {
	return r.errors
}
