package smalltable

// Option is an explicit optional value, used throughout Delta so that
// "key absent" (unchanged) and "key present with a None value"
// (tombstone — explicitly removed) are type-distinct, per the §9
// design note: source representations that use a nil map value for
// deletes make that distinction ambiguous; Option enforces it.
type Option[T any] struct {
	Valid bool
	Value T
}

// Some wraps a present value.
func Some[T any](v T) Option[T] { return Option[T]{Valid: true, Value: v} }

// None is the tombstone / absent marker.
func None[T any]() Option[T] { return Option[T]{} }
