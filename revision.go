package smalltable

// Revision is an immutable snapshot of the whole repository's named
// roots and live object graph: which Reference each name is bound to,
// and which EntityId is the current body of each live Reference.
//
// Grounded on original_source's Revision.java, generalized from its
// generic <T> entity-id parameter to this module's concrete EntityId.
type Revision struct {
	bindings map[string]Reference
	entities map[Reference]EntityId
}

// Empty is the zero Revision: no bindings, no live entities. A fresh
// Repository's first revision is Empty.
func Empty() Revision {
	return Revision{bindings: map[string]Reference{}, entities: map[Reference]EntityId{}}
}

// newRevision takes ownership of the given maps without copying;
// callers must pass maps nobody else will mutate afterward.
func newRevision(bindings map[string]Reference, entities map[Reference]EntityId) Revision {
	return Revision{bindings: bindings, entities: entities}
}

// NewRevision builds a Revision from a full (not partial) pair of
// maps, defensively copying both. Used by the wire package to
// reconstruct a head revision read off a persisted stream.
func NewRevision(bindings map[string]Reference, entities map[Reference]EntityId) Revision {
	b := make(map[string]Reference, len(bindings))
	for k, v := range bindings {
		b[k] = v
	}
	e := make(map[Reference]EntityId, len(entities))
	for k, v := range entities {
		e[k] = v
	}
	return newRevision(b, e)
}

// Binding looks up a named root. Absence is reported via ok=false,
// not an error — §7 classifies this as NotFound, not InvalidArgument.
func (r Revision) Binding(name string) (Reference, bool) {
	ref, ok := r.bindings[name]
	return ref, ok
}

// IDOf looks up the current EntityId backing a live Reference.
func (r Revision) IDOf(ref Reference) (EntityId, bool) {
	id, ok := r.entities[ref]
	return id, ok
}

// Bindings returns a defensive copy of the name→Reference table.
func (r Revision) Bindings() map[string]Reference {
	out := make(map[string]Reference, len(r.bindings))
	for k, v := range r.bindings {
		out[k] = v
	}
	return out
}

// Entities returns a defensive copy of the Reference→EntityId table.
func (r Revision) Entities() map[Reference]EntityId {
	out := make(map[Reference]EntityId, len(r.entities))
	for k, v := range r.entities {
		out[k] = v
	}
	return out
}

// BindingCount reports how many named roots r holds, without the
// allocation Bindings() pays for — used by logging call sites that
// only want the shape of a revision, not its contents.
func (r Revision) BindingCount() int { return len(r.bindings) }

// EntityCount reports how many live references r holds.
func (r Revision) EntityCount() int { return len(r.entities) }

// Diff computes the change required to turn r into target: for every
// key target holds with a different (or absent-in-r) value, a Some
// entry; for every key r holds that target has dropped, a None
// tombstone. Mirrors Revision.createDeltaTo/difference in
// original_source, generalized over both halves identically.
func (r Revision) Diff(target Revision) Delta {
	return Delta{
		bindings: diffMap(r.bindings, target.bindings),
		entities: diffMap(r.entities, target.entities),
	}
}

func diffMap[K comparable, V comparable](from, to map[K]V) map[K]Option[V] {
	result := make(map[K]Option[V])
	seen := make(map[K]struct{}, len(to))
	for k, toVal := range to {
		seen[k] = struct{}{}
		fromVal, ok := from[k]
		if !ok || fromVal != toVal {
			result[k] = Some(toVal)
		}
	}
	for k := range from {
		if _, ok := seen[k]; !ok {
			result[k] = None[V]()
		}
	}
	return result
}

// Apply produces the Revision reached by applying delta to r: Some
// entries are set or overwritten, None entries are removed, keys
// absent from the delta are copied through unchanged. An empty delta
// returns r itself (implementations may alias; this one does).
func (r Revision) Apply(delta Delta) Revision {
	if len(delta.bindings) == 0 && len(delta.entities) == 0 {
		return r
	}
	return newRevision(
		applyMap(r.bindings, delta.bindings),
		applyMap(r.entities, delta.entities),
	)
}

func applyMap[K comparable, V any](origin map[K]V, delta map[K]Option[V]) map[K]V {
	if len(delta) == 0 {
		return origin
	}
	result := make(map[K]V, len(origin)+len(delta))
	for k, v := range origin {
		result[k] = v
	}
	for k, opt := range delta {
		if opt.Valid {
			result[k] = opt.Value
		} else {
			delete(result, k)
		}
	}
	return result
}
