package smalltable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBuildsEntity(t *testing.T) {
	e, err := NewBuilder(Reference(7)).
		Add("name", StringValue("hello")).
		Add("count", Int64Value(3)).
		ToEntity()
	require.NoError(t, err)

	assert.Equal(t, Reference(7), e.Self())
	v, ok := e.Property("name")
	require.True(t, ok)
	s, _ := v.String2()
	assert.Equal(t, "hello", s)
}

func TestBuilderRejectsDuplicateProperty(t *testing.T) {
	_, err := NewBuilder(Reference(1)).
		Add("x", Int64Value(1)).
		Add("x", Int64Value(2)).
		ToEntity()
	assert.ErrorIs(t, err, ErrDuplicateProperty)
}

func TestBuilderRejectsEmptyName(t *testing.T) {
	_, err := NewBuilder(Reference(1)).Add("", Int64Value(1)).ToEntity()
	assert.ErrorIs(t, err, ErrEmptyPropertyName)
}

func TestEntityEqual(t *testing.T) {
	a, _ := NewBuilder(Reference(1)).Add("x", Int64Value(1)).ToEntity()
	b, _ := NewBuilder(Reference(1)).Add("x", Int64Value(1)).ToEntity()
	c, _ := NewBuilder(Reference(1)).Add("x", Int64Value(2)).ToEntity()

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
