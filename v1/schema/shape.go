package schema

// Binding ties a Field to the setter that stores its coerced value in a T.
type Binding[T any] struct {
	Field
	Set func(*T, any)
}

// Bind is shorthand for building a Binding.
func Bind[T any](f Field, set func(*T, any)) Binding[T] {
	return Binding[T]{Field: f, Set: set}
}

// Shape is the explicit projection of a record type: how to construct a zero
// value and how to assign each known field.
type Shape[T any] struct {
	New    func() T
	Fields []Binding[T]
}
