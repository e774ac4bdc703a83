package schema

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// ErrInvalidValue is wrapped by every coercion and validation failure.
var ErrInvalidValue = errors.New("invalid value")

// Kind is the scalar type a Field coerces to.
type Kind int

const (
	// Any keeps the value as is.
	Any Kind = iota
	String
	Int
	Int64
	Float32
	Float64
	Bool
	Duration
	Time
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case Duration:
		return "duration"
	case Time:
		return "time"
	default:
		return "any"
	}
}

// Field describes one named value.
type Field struct {
	// Name is the column name for row mapping or the dotted path for settings,
	// e.g. "database.pool-size".
	Name string

	Kind Kind

	// Default is used when the value is absent, and for required fields also
	// when it fails validation.
	Default any

	Required bool

	// Validate runs after coercion. Nil means every coerced value is accepted.
	Validate func(any) error

	Description string
}

// Coerce converts v to the field's kind and runs the validator.
func (f Field) Coerce(v any) (any, error) {
	out, err := coerce(f.Kind, v)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q expects %s: %v", ErrInvalidValue, f.Name, f.Kind, err)
	}
	if f.Validate != nil {
		if err := f.Validate(out); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidValue, f.Name, err)
		}
	}
	return out, nil
}

func coerce(kind Kind, v any) (any, error) {
	switch kind {
	case String:
		return cast.ToStringE(v)
	case Int:
		return toIntE(v)
	case Int64:
		return toInt64E(v)
	case Float32:
		return toFloat32E(v)
	case Float64:
		return toFloat64E(v)
	case Bool:
		return cast.ToBoolE(v)
	case Duration:
		return cast.ToDurationE(v)
	case Time:
		return cast.ToTimeE(v)
	default:
		return v, nil
	}
}

// Convert coerces v into T for the scalar types cast understands. Other types
// only succeed when v already is a T.
func Convert[T any](v any) (T, error) {
	var zero T
	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case string:
		out, err = cast.ToStringE(v)
	case int:
		out, err = toIntE(v)
	case int32:
		out, err = toInt32E(v)
	case int64:
		out, err = toInt64E(v)
	case uint64:
		out, err = toUint64E(v)
	case float32:
		out, err = toFloat32E(v)
	case float64:
		out, err = toFloat64E(v)
	case bool:
		out, err = cast.ToBoolE(v)
	case time.Duration:
		out, err = cast.ToDurationE(v)
	case time.Time:
		out, err = cast.ToTimeE(v)
	default:
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("%w: cannot convert %T to %T", ErrInvalidValue, v, zero)
		}
		return typed, nil
	}
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return out.(T), nil
}

// IntRange returns a validator accepting integers in [lo, hi].
func IntRange(lo, hi int) func(any) error {
	return func(v any) error {
		n, err := toIntE(v)
		if err != nil {
			return err
		}
		if n < lo || n > hi {
			return fmt.Errorf("%d is outside [%d, %d]", n, lo, hi)
		}
		return nil
	}
}

// OneOf returns a validator accepting only the listed strings.
func OneOf(values ...string) func(any) error {
	return func(v any) error {
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		for _, allowed := range values {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %v", s, values)
	}
}

// NotEmpty rejects empty strings.
func NotEmpty(v any) error {
	s, err := cast.ToStringE(v)
	if err != nil {
		return err
	}
	if s == "" {
		return errors.New("must not be empty")
	}
	return nil
}
