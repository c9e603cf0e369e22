package repo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	st "github.com/ashigeru/smalltable"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return New(Options{})
}

func TestCommitFreshRepositorySingleSession(t *testing.T) {
	r := newTestRepo(t)
	start := r.Head()

	e, err := st.NewBuilder(r.AllocateReference()).Add("value", st.StringValue("hello")).ToEntity()
	require.NoError(t, err)

	assigned := r.Prepare([]st.Entity{e})
	id := assigned[e.Self()]

	entityDelta := map[st.Reference]st.Option[st.EntityId]{e.Self(): st.Some(id)}
	bindingDelta := map[string]st.Option[st.Reference]{"greeting": st.Some(e.Self())}
	delta := st.NewDelta(bindingDelta, entityDelta)

	next, err := r.Commit(start, delta)
	require.NoError(t, err)

	ref, ok := next.Binding("greeting")
	require.True(t, ok)
	assert.Equal(t, e.Self(), ref)

	gotID, ok := next.IDOf(ref)
	require.True(t, ok)
	assert.Equal(t, id, gotID)

	stored, ok := r.Entity(gotID)
	require.True(t, ok)
	v, ok := stored.Property("value")
	require.True(t, ok)
	s, _ := v.String2()
	assert.Equal(t, "hello", s)
}

func TestCommitDisjointConcurrentCommitsBothSucceed(t *testing.T) {
	r := newTestRepo(t)
	start := r.Head()

	refA := r.AllocateReference()
	refB := r.AllocateReference()
	eA, _ := st.NewBuilder(refA).ToEntity()
	eB, _ := st.NewBuilder(refB).ToEntity()

	idsA := r.Prepare([]st.Entity{eA})
	idsB := r.Prepare([]st.Entity{eB})

	deltaA := st.NewDelta(
		map[string]st.Option[st.Reference]{"a": st.Some(refA)},
		map[st.Reference]st.Option[st.EntityId]{refA: st.Some(idsA[refA])},
	)
	deltaB := st.NewDelta(
		map[string]st.Option[st.Reference]{"b": st.Some(refB)},
		map[st.Reference]st.Option[st.EntityId]{refB: st.Some(idsB[refB])},
	)

	_, errA := r.Commit(start, deltaA)
	_, errB := r.Commit(start, deltaB)
	require.NoError(t, errA)
	require.NoError(t, errB)

	head := r.Head()
	_, hasA := head.Binding("a")
	_, hasB := head.Binding("b")
	assert.True(t, hasA)
	assert.True(t, hasB)
}

func TestCommitConflictingBindingSecondLoses(t *testing.T) {
	r := newTestRepo(t)
	start := r.Head()

	refX := r.AllocateReference()
	refY := r.AllocateReference()

	deltaX := st.NewDelta(map[string]st.Option[st.Reference]{"root": st.Some(refX)}, nil)
	deltaY := st.NewDelta(map[string]st.Option[st.Reference]{"root": st.Some(refY)}, nil)

	_, err1 := r.Commit(start, deltaX)
	require.NoError(t, err1)

	_, err2 := r.Commit(start, deltaY)
	assert.ErrorIs(t, err2, ErrConflict)

	ref, _ := r.Head().Binding("root")
	assert.Equal(t, refX, ref)
}

func TestCommitRetrySucceedsAfterUnrelatedAdvance(t *testing.T) {
	r := newTestRepo(t)
	start := r.Head()

	unrelated := r.AllocateReference()
	_, err := r.Commit(start, st.NewDelta(map[string]st.Option[st.Reference]{"unrelated": st.Some(unrelated)}, nil))
	require.NoError(t, err)

	mine := r.AllocateReference()
	next, err := r.Commit(start, st.NewDelta(map[string]st.Option[st.Reference]{"mine": st.Some(mine)}, nil))
	require.NoError(t, err)

	_, hasUnrelated := next.Binding("unrelated")
	_, hasMine := next.Binding("mine")
	assert.True(t, hasUnrelated)
	assert.True(t, hasMine)
}

// TestCommitConcurrentRacersOneExhaustsRetries races two goroutines
// binding the same name against the same source revision with
// MaxRetry pinned to 1, so the loser gets no second attempt. Both
// goroutines are released by the same starting gate, so their Commit
// calls can overlap: the loser either loses the CAS and exhausts its
// single attempt, or reads the winner's head and its rebase is
// refused. Both paths return ErrConflict, which is all the test can
// observe.
func TestCommitConcurrentRacersOneExhaustsRetries(t *testing.T) {
	r := New(Options{MaxRetry: 1})
	start := r.Head()

	refA := r.AllocateReference()
	refB := r.AllocateReference()
	deltaA := st.NewDelta(map[string]st.Option[st.Reference]{"root": st.Some(refA)}, nil)
	deltaB := st.NewDelta(map[string]st.Option[st.Reference]{"root": st.Some(refB)}, nil)

	var gate sync.WaitGroup
	gate.Add(1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		gate.Wait()
		_, results[0] = r.Commit(start, deltaA)
	}()
	go func() {
		defer wg.Done()
		gate.Wait()
		_, results[1] = r.Commit(start, deltaB)
	}()
	gate.Done()
	wg.Wait()

	successes, failures := 0, 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, ErrConflict)
		failures++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
}

func TestAllocateReferenceMonotonicUnderConcurrency(t *testing.T) {
	r := newTestRepo(t)
	const n = 200
	seen := make([]st.Reference, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = r.AllocateReference()
		}(i)
	}
	wg.Wait()

	unique := make(map[st.Reference]struct{}, n)
	for _, ref := range seen {
		unique[ref] = struct{}{}
	}
	assert.Len(t, unique, n)
}
