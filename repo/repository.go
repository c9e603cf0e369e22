// Package repo hosts the Repository: the current head revision, the
// entity table, and the two identifier sequences, plus the optimistic
// commit loop that installs new revisions atop head. Revisions that
// head has replaced are not kept.
//
// Grounded on the teacher's chotki.go, which plays the analogous role
// of "the thing every session and every RPC handler holds a pointer
// to" for a CRDT replica; this Repository generalizes that shape to
// an in-memory, single-process revision store rather than a
// replicated pebble-backed one.
package repo

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"

	st "github.com/ashigeru/smalltable"
)

// Repository owns the shared, mutable state of a SmallTable instance:
// the current head, the entity table, and the reference and
// entity-id sequences. It holds no list of earlier revisions: each
// successful Commit replaces head, and the replaced revision is not
// retained or persisted.
type Repository struct {
	opts Options

	head *atomic.Pointer[st.Revision]

	entities *xsync.MapOf[st.EntityId, st.Entity]

	refs  st.ReferenceSequence
	ids   st.EntityIdSequence
	stats stats
}

type stats struct {
	commitAttempts  atomicCounter
	commitSuccesses atomicCounter
	commitConflicts atomicCounter
}

// New builds a Repository with an empty head revision.
func New(opts Options) *Repository {
	opts.SetDefaults()
	opts.Logger = opts.Logger.With("component", "repo")
	head := st.Empty()
	ptr := &atomic.Pointer[st.Revision]{}
	ptr.Store(&head)
	return &Repository{
		opts:     opts,
		head:     ptr,
		entities: xsync.NewMapOf[st.EntityId, st.Entity](),
	}
}

// Head returns the current head revision.
func (r *Repository) Head() st.Revision {
	return *r.head.Load()
}

// AllocateReference hands out a fresh Reference.
func (r *Repository) AllocateReference() st.Reference {
	return r.refs.Allocate()
}

// Entity performs a read-only lookup of an entity body by id.
func (r *Repository) Entity(id st.EntityId) (st.Entity, bool) {
	return r.entities.Load(id)
}

// Prepare allocates one fresh EntityId per entity in order, inserts
// each (id, entity) pair into the entity table, and returns the
// mapping from each entity's self-reference to its freshly assigned
// id. If dirty holds two entities with the same self-reference, the
// map's last-inserted wins, per spec.md §4.3.
//
// Entity-table inserts happen strictly before this call returns and
// therefore strictly before any commit that might make the assigned
// ids reachable from head, satisfying the happens-before ordering
// spec.md §9 calls out ("Thread-safety of the repository").
func (r *Repository) Prepare(dirty []st.Entity) map[st.Reference]st.EntityId {
	if len(dirty) == 0 {
		return map[st.Reference]st.EntityId{}
	}
	first := r.ids.AllocateBatch(len(dirty))
	out := make(map[st.Reference]st.EntityId, len(dirty))
	for i, e := range dirty {
		id := first + st.EntityId(i)
		r.entities.Store(id, e)
		out[e.Self()] = id
	}
	return out
}

// Commit runs the optimistic install loop from spec.md §4.3: rebase
// delta against every revision installed since source, and retry
// against a moving head up to Options.MaxRetry times.
func (r *Repository) Commit(source st.Revision, delta st.Delta) (st.Revision, error) {
	log := r.opts.Logger.With("max_retry", r.opts.MaxRetry)
	for attempt := 0; attempt < r.opts.MaxRetry; attempt++ {
		r.stats.commitAttempts.add(1)
		attemptLog := log.With("attempt", attempt+1)
		h := r.head.Load()
		headDelta := source.Diff(*h)
		rebased, ok := delta.Merge(headDelta)
		if !ok {
			r.stats.commitConflicts.add(1)
			attemptLog.Debug("commit conflict: rebase refused",
				"head_bindings", h.BindingCount(), "head_entities", h.EntityCount())
			return st.Revision{}, ErrConflict
		}
		next := h.Apply(rebased)
		if r.head.CompareAndSwap(h, &next) {
			r.stats.commitSuccesses.add(1)
			attemptLog.Debug("commit installed",
				"bindings", next.BindingCount(), "entities", next.EntityCount())
			return next, nil
		}
		attemptLog.Debug("commit CAS lost, retrying", "head_bindings", h.BindingCount())
	}
	log.Warn("commit exhausted retries", "head_bindings", r.Head().BindingCount())
	r.stats.commitConflicts.add(1)
	return st.Revision{}, ErrConflict
}

// Collector exposes repository-wide gauges and counters to
// Prometheus, grounded on the teacher's pebble_collector.go.
func (r *Repository) Collector() prometheus.Collector {
	return newCollector(r)
}

// EntitiesSnapshot copies the entire entity table, for the wire
// package to serialize. The copy is taken without pausing commits;
// concurrent Prepare calls may or may not be reflected, which is
// harmless since entity bodies are append-only and never mutated.
func (r *Repository) EntitiesSnapshot() map[st.EntityId]st.Entity {
	out := make(map[st.EntityId]st.Entity)
	r.entities.Range(func(id st.EntityId, e st.Entity) bool {
		out[id] = e
		return true
	})
	return out
}

// Sequences returns the current high-water mark of both identifier
// sequences, for the wire package to persist.
func (r *Repository) Sequences() (refs uint64, ids uint64) {
	return uint64(r.refs.Peek()), uint64(r.ids.Peek())
}

// Restore rebuilds a Repository from previously dumped state: the
// head revision, the full entity table, and both sequence
// high-water marks. Both sequences resume strictly above every
// identifier passed in, satisfying spec.md §6's persistence contract.
func Restore(opts Options, head st.Revision, entities map[st.EntityId]st.Entity, refSeq, idSeq uint64) *Repository {
	opts.SetDefaults()
	opts.Logger = opts.Logger.With("component", "repo")
	ptr := &atomic.Pointer[st.Revision]{}
	h := head
	ptr.Store(&h)
	r := &Repository{
		opts:     opts,
		head:     ptr,
		entities: xsync.NewMapOf[st.EntityId, st.Entity](),
	}
	for id, e := range entities {
		r.entities.Store(id, e)
		r.ids.Bump(id)
		r.refs.Bump(e.Self())
		for _, v := range e.Properties() {
			if ref, ok := v.Reference(); ok {
				r.refs.Bump(ref)
			}
		}
	}
	for _, ref := range h.Bindings() {
		r.refs.Bump(ref)
	}
	for ref, id := range h.Entities() {
		r.refs.Bump(ref)
		r.ids.Bump(id)
	}
	r.refs.Bump(st.Reference(refSeq))
	r.ids.Bump(st.EntityId(idSeq))
	return r
}
