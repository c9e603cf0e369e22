package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	st "github.com/ashigeru/smalltable"
	"github.com/ashigeru/smalltable/repo"
)

func TestSessionSaveFreshObject(t *testing.T) {
	r := repo.New(repo.Options{})
	s := Open(r)

	ref := s.AllocateReference()
	s.Bind("greeting", st.Some(ref))
	e, err := st.NewBuilder(ref).Add("value", st.StringValue("hello")).ToEntity()
	require.NoError(t, err)

	next, err := s.Save([]st.Entity{e})
	require.NoError(t, err)

	got, ok := next.Binding("greeting")
	require.True(t, ok)
	assert.Equal(t, ref, got)
}

func TestSessionTwoSequentialSessions(t *testing.T) {
	r := repo.New(repo.Options{})
	s1 := Open(r)
	ref := s1.AllocateReference()
	s1.Bind("greeting", st.Some(ref))
	e1, _ := st.NewBuilder(ref).Add("value", st.StringValue("hello")).ToEntity()
	_, err := s1.Save([]st.Entity{e1})
	require.NoError(t, err)

	s2 := Open(r)
	got, ok := s2.Resolve(ref)
	require.True(t, ok)
	v, _ := got.Property("value")
	s, _ := v.String2()
	assert.Equal(t, "hello", s)

	e2, _ := st.NewBuilder(ref).Add("value", st.StringValue("world")).ToEntity()
	next, err := s2.Save([]st.Entity{e2})
	require.NoError(t, err)

	id2, ok := next.IDOf(ref)
	require.True(t, ok)
	stored, ok := r.Entity(id2)
	require.True(t, ok)
	v2, _ := stored.Property("value")
	s2v, _ := v2.String2()
	assert.Equal(t, "world", s2v)
}

func TestSessionBoundShadowsStartWithTombstone(t *testing.T) {
	r := repo.New(repo.Options{})
	setup := Open(r)
	ref := setup.AllocateReference()
	setup.Bind("root", st.Some(ref))
	e, _ := st.NewBuilder(ref).ToEntity()
	_, err := setup.Save([]st.Entity{e})
	require.NoError(t, err)

	s := Open(r)
	bound := s.Bound("root")
	assert.True(t, bound.Valid)

	s.Bind("root", st.None[st.Reference]())
	bound = s.Bound("root")
	assert.False(t, bound.Valid)
}

func TestSessionSaveConflictOnSameBinding(t *testing.T) {
	r := repo.New(repo.Options{})
	sA := Open(r)
	sB := Open(r)

	refX := sA.AllocateReference()
	refY := sB.AllocateReference()
	sA.Bind("root", st.Some(refX))
	sB.Bind("root", st.Some(refY))

	eX, _ := st.NewBuilder(refX).ToEntity()
	eY, _ := st.NewBuilder(refY).ToEntity()

	_, err := sA.Save([]st.Entity{eX})
	require.NoError(t, err)

	_, err = sB.Save([]st.Entity{eY})
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestSessionSaveTwiceFails(t *testing.T) {
	r := repo.New(repo.Options{})
	s := Open(r)
	ref := s.AllocateReference()
	s.Bind("root", st.Some(ref))
	e, _ := st.NewBuilder(ref).ToEntity()

	_, err := s.Save([]st.Entity{e})
	require.NoError(t, err)

	_, err = s.Save(nil)
	assert.Error(t, err)
}
