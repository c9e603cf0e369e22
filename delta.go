package smalltable

// Delta is the change between two Revisions: partial maps with
// explicit tombstones (Option's None), keyed exactly by the names and
// references whose value differs between the two revisions. Delta is
// built by Revision.Diff or Session.Save and is semantically immutable
// once constructed.
//
// Grounded on original_source's Revision.Delta, with the tombstone
// represented by Option[V] rather than a nilable map value — see
// option.go.
type Delta struct {
	bindings map[string]Option[Reference]
	entities map[Reference]Option[EntityId]
}

// NewDelta wraps already-computed partial maps into a Delta, used by
// Session when assembling the binding-delta and entity-delta halves
// of a save.
func NewDelta(bindings map[string]Option[Reference], entities map[Reference]Option[EntityId]) Delta {
	if bindings == nil {
		bindings = map[string]Option[Reference]{}
	}
	if entities == nil {
		entities = map[Reference]Option[EntityId]{}
	}
	return Delta{bindings: bindings, entities: entities}
}

// BindingKeys returns the set of binding names this delta touches.
func (d Delta) BindingKeys() map[string]struct{} {
	out := make(map[string]struct{}, len(d.bindings))
	for k := range d.bindings {
		out[k] = struct{}{}
	}
	return out
}

// EntityKeys returns the set of references this delta touches.
func (d Delta) EntityKeys() map[Reference]struct{} {
	out := make(map[Reference]struct{}, len(d.entities))
	for k := range d.entities {
		out[k] = struct{}{}
	}
	return out
}

func (d Delta) IsEmpty() bool { return len(d.bindings) == 0 && len(d.entities) == 0 }

// ConflictsWith reports whether either key set intersects the
// corresponding half of this delta. The smaller set of each pair is
// iterated against membership in the larger one, the same
// deterministic-cost shape as original_source's conflictsAny.
func (d Delta) ConflictsWith(bindingKeys map[string]struct{}, entityKeys map[Reference]struct{}) bool {
	return conflictsAny(d.bindings, bindingKeys) || conflictsAny(d.entities, entityKeys)
}

// Merge composes this delta with other. If the two share any binding
// key or any entity key, merge conservatively refuses — returning
// ok=false — even when the overlapping values happen to agree; no
// per-key value reconciliation is attempted. Otherwise the result is
// the key-wise union of both deltas.
//
// Mirrors original_source's Delta.merge exactly, including the
// conservative "overlap is always a conflict" policy spec.md §4.2 and
// §9 call out as part of the contract, not an oversight.
func (d Delta) Merge(other Delta) (Delta, bool) {
	if conflictsAny(d.bindings, other.bindings) || conflictsAny(d.entities, other.entities) {
		return Delta{}, false
	}
	mergedBindings := make(map[string]Option[Reference], len(d.bindings)+len(other.bindings))
	for k, v := range d.bindings {
		mergedBindings[k] = v
	}
	for k, v := range other.bindings {
		mergedBindings[k] = v
	}
	mergedEntities := make(map[Reference]Option[EntityId], len(d.entities)+len(other.entities))
	for k, v := range d.entities {
		mergedEntities[k] = v
	}
	for k, v := range other.entities {
		mergedEntities[k] = v
	}
	return NewDelta(mergedBindings, mergedEntities), true
}

// conflictsAny reports whether the key sets of a and b intersect,
// iterating whichever map is smaller — the deterministic
// time-proportional-to-min shape spec.md §4.2 calls for.
func conflictsAny[K comparable, V1, V2 any](a map[K]V1, b map[K]V2) bool {
	if len(a) > len(b) {
		for k := range b {
			if _, ok := a[k]; ok {
				return true
			}
		}
		return false
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
