// Package session implements the per-client workspace pinned to a
// start revision, staging binding changes and driving the repository
// commit loop on save.
package session

import (
	st "github.com/ashigeru/smalltable"
	"github.com/ashigeru/smalltable/repo"
)

// Session is a client's workspace against one Repository, pinned to
// the revision that was head when the session opened. It is
// single-use: at most one Save call succeeds on it, and every Save
// after a successful one returns repo.ErrConflict. A failed Save
// leaves the session as it was, so Save may be called again.
type Session struct {
	repo  *repo.Repository
	start st.Revision

	modifiedBindings map[string]st.Option[st.Reference]

	saved bool
}

// Open starts a session at the repository's current head.
func Open(r *repo.Repository) *Session {
	return &Session{
		repo:             r,
		start:            r.Head(),
		modifiedBindings: make(map[string]st.Option[st.Reference]),
	}
}

// Start returns the revision this session was opened against.
func (s *Session) Start() st.Revision { return s.start }

// AllocateReference delegates to the repository.
func (s *Session) AllocateReference() st.Reference {
	return s.repo.AllocateReference()
}

// Bind records the intent to set (Some) or remove (None) a named
// root; it does not touch the repository until Save.
func (s *Session) Bind(name string, ref st.Option[st.Reference]) {
	s.modifiedBindings[name] = ref
}

// Bound reports the pending value of name: an entry in
// modifiedBindings wins over the start revision, including a pending
// None which shadows a start-revision binding as "unbound here".
func (s *Session) Bound(name string) st.Option[st.Reference] {
	if pending, ok := s.modifiedBindings[name]; ok {
		return pending
	}
	if ref, ok := s.start.Binding(name); ok {
		return st.Some(ref)
	}
	return st.None[st.Reference]()
}

// Resolve looks up ref in the session's start revision and returns
// the entity body from the repository. Reads are snapshot-consistent
// against start for the whole life of the session, independent of
// concurrent commits by other sessions.
func (s *Session) Resolve(ref st.Reference) (st.Entity, bool) {
	id, ok := s.start.IDOf(ref)
	if !ok {
		return st.Entity{}, false
	}
	return s.repo.Entity(id)
}

// bindingDelta filters modifiedBindings down to entries that actually
// differ from the start revision: spec.md §4.4 step 1's canonical
// binding-delta.
func (s *Session) bindingDelta() map[string]st.Option[st.Reference] {
	out := make(map[string]st.Option[st.Reference], len(s.modifiedBindings))
	for name, pending := range s.modifiedBindings {
		startRef, hasStart := s.start.Binding(name)
		if !pending.Valid {
			if !hasStart {
				continue
			}
			out[name] = pending
			continue
		}
		if hasStart && startRef == pending.Value {
			continue
		}
		out[name] = pending
	}
	return out
}

// Save assembles the binding-delta plus a freshly allocated
// entity-delta for dirty and commits them against the repository,
// rebasing onto whatever head has moved to since Start. Save succeeds
// at most once per session; a failed Save may be retried.
//
// Preverify (spec.md §4.4 step 2) is applied before allocating any
// EntityIds: it is a pure optimization, dropping it would still be
// correct, but it saves entity-table churn on an already-doomed save.
func (s *Session) Save(dirty []st.Entity) (st.Revision, error) {
	if s.saved {
		return st.Revision{}, repo.ErrConflict
	}

	bindingDelta := s.bindingDelta()

	currentHead := s.repo.Head()
	headDelta := s.start.Diff(currentHead)

	bindingKeys := make(map[string]struct{}, len(bindingDelta))
	for k := range bindingDelta {
		bindingKeys[k] = struct{}{}
	}
	entityKeys := make(map[st.Reference]struct{}, len(dirty))
	for _, e := range dirty {
		entityKeys[e.Self()] = struct{}{}
	}
	if headDelta.ConflictsWith(bindingKeys, entityKeys) {
		return st.Revision{}, repo.ErrConflict
	}

	assigned := s.repo.Prepare(dirty)
	entityDelta := make(map[st.Reference]st.Option[st.EntityId], len(assigned))
	for ref, id := range assigned {
		entityDelta[ref] = st.Some(id)
	}

	delta := st.NewDelta(bindingDelta, entityDelta)

	next, err := s.repo.Commit(s.start, delta)
	if err != nil {
		return st.Revision{}, err
	}
	s.saved = true
	return next, nil
}
