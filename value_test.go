package smalltable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueKindAccessors(t *testing.T) {
	iv := Int64Value(42)
	n, ok := iv.Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)
	_, ok = iv.String2()
	assert.False(t, ok)

	sv := StringValue("hi")
	s, ok := sv.String2()
	assert.True(t, ok)
	assert.Equal(t, "hi", s)

	rv := RefValue(Reference(9))
	r, ok := rv.Reference()
	assert.True(t, ok)
	assert.Equal(t, Reference(9), r)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Int64Value(1).Equal(Int64Value(1)))
	assert.False(t, Int64Value(1).Equal(Int64Value(2)))
	assert.False(t, Int64Value(1).Equal(StringValue("1")))
}

func TestReferenceSequenceMonotonic(t *testing.T) {
	var seq ReferenceSequence
	a := seq.Allocate()
	b := seq.Allocate()
	assert.True(t, a.Less(b))
}

func TestEntityIdSequenceAllocateBatch(t *testing.T) {
	var seq EntityIdSequence
	first := seq.AllocateBatch(3)
	next := seq.AllocateBatch(1)
	assert.True(t, first.Less(next))
	assert.NotEqual(t, first, next)
}
