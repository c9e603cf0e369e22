package smalltable

import "fmt"

// ValueKind discriminates the closed set of property value kinds, in
// the style of rdx's single-byte RDX-type tags (rdx.Integer, rdx.String,
// rdx.Reference, ...): a fixed, closed alphabet rather than an open
// interface{} union, so construction can reject anything else.
type ValueKind byte

const (
	KindInt64     ValueKind = 'I'
	KindString    ValueKind = 'S'
	KindReference ValueKind = 'R'
)

func (k ValueKind) Valid() bool {
	switch k {
	case KindInt64, KindString, KindReference:
		return true
	default:
		return false
	}
}

func (k ValueKind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindString:
		return "string"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("unknown(%c)", byte(k))
	}
}

// Value is a property value: exactly one of an int64, a string, or a
// Reference to another object in the same graph. The zero Value is
// invalid; use the Int64Value/StringValue/RefValue constructors.
type Value struct {
	kind ValueKind
	i    int64
	s    string
	ref  Reference
}

func Int64Value(v int64) Value   { return Value{kind: KindInt64, i: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }
func RefValue(v Reference) Value { return Value{kind: KindReference, ref: v} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) Int64() (int64, bool) {
	if v.kind != KindInt64 {
		return 0, false
	}
	return v.i, true
}

func (v Value) String2() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) Reference() (Reference, bool) {
	if v.kind != KindReference {
		return BadReference, false
	}
	return v.ref, true
}

// Equal compares two values by kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt64:
		return v.i == other.i
	case KindString:
		return v.s == other.s
	case KindReference:
		return v.ref == other.ref
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindString:
		return v.s
	case KindReference:
		return v.ref.String()
	default:
		return "<invalid>"
	}
}
