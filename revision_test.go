package smalltable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkRevision(bindings map[string]Reference, entities map[Reference]EntityId) Revision {
	return NewRevision(bindings, entities)
}

func TestRevisionDiffApplyRoundTrip(t *testing.T) {
	a := mkRevision(
		map[string]Reference{"root": 1},
		map[Reference]EntityId{1: 10},
	)
	b := mkRevision(
		map[string]Reference{"root": 1, "other": 2},
		map[Reference]EntityId{1: 11, 2: 20},
	)

	delta := a.Diff(b)
	got := a.Apply(delta)

	assert.Equal(t, b.Bindings(), got.Bindings())
	assert.Equal(t, b.Entities(), got.Entities())
}

func TestRevisionEmptyDiff(t *testing.T) {
	r := mkRevision(
		map[string]Reference{"root": 1},
		map[Reference]EntityId{1: 10},
	)
	delta := r.Diff(r)
	assert.True(t, delta.IsEmpty())

	applied := r.Apply(delta)
	assert.Equal(t, r.Bindings(), applied.Bindings())
	assert.Equal(t, r.Entities(), applied.Entities())
}

func TestRevisionDiffTombstones(t *testing.T) {
	a := mkRevision(
		map[string]Reference{"root": 1, "doomed": 2},
		map[Reference]EntityId{1: 10},
	)
	b := mkRevision(
		map[string]Reference{"root": 1},
		map[Reference]EntityId{1: 10},
	)

	delta := a.Diff(b)
	got := a.Apply(delta)
	assert.Equal(t, b.Bindings(), got.Bindings())

	_, hasDoomed := got.Binding("doomed")
	assert.False(t, hasDoomed)
}

func TestRevisionBindingAndIDOf(t *testing.T) {
	r := mkRevision(
		map[string]Reference{"greeting": 1},
		map[Reference]EntityId{1: 42},
	)

	ref, ok := r.Binding("greeting")
	require.True(t, ok)
	assert.Equal(t, Reference(1), ref)

	_, ok = r.Binding("missing")
	assert.False(t, ok)

	id, ok := r.IDOf(1)
	require.True(t, ok)
	assert.Equal(t, EntityId(42), id)
}
