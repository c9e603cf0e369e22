package client

import st "github.com/ashigeru/smalltable"

// Object is a client-side, dirty-tracking view of one Entity. It
// holds a back-pointer to its owning Table (by value, per spec.md §9)
// so SetObject can reject an Object belonging to a different table at
// the point of misuse, not at save time.
type Object struct {
	table *Table
	self  st.Reference

	original map[string]st.Value
	modified map[string]st.Value
	dirty    bool
	// fresh marks an object created via Table.NewObject this session,
	// never yet part of any committed entity body.
	fresh bool
}

func newObject(t *Table, self st.Reference, entity st.Entity, fresh bool) *Object {
	return &Object{
		table:    t,
		self:     self,
		original: entity.Properties(),
		modified: make(map[string]st.Value),
		fresh:    fresh,
		dirty:    fresh,
	}
}

// Self returns the object's stable reference.
func (o *Object) Self() st.Reference { return o.self }

// GetProperty returns a property value as stored, staged changes
// first; a Reference-kind value is returned as the Reference itself.
// Use GetObject to resolve a Reference-valued property into its
// Object through the owning table's cache.
func (o *Object) GetProperty(name string) (st.Value, bool) {
	if v, ok := o.modified[name]; ok {
		return v, true
	}
	v, ok := o.original[name]
	return v, ok
}

// GetObject resolves a Reference-valued property through the owning
// table, returning false if the property is absent or not a
// Reference.
func (o *Object) GetObject(name string) (*Object, bool) {
	v, ok := o.GetProperty(name)
	if !ok {
		return nil, false
	}
	ref, ok := v.Reference()
	if !ok {
		return nil, false
	}
	return o.table.Resolve(ref)
}

// SetProperty stages a scalar property change, visible to subsequent
// GetProperty calls on this Object immediately. Setting a property to
// its committed value is not a change: it drops any staged overwrite
// of that property and leaves dirty alone, the way original_source's
// StObject.isModified() prunes no-op writes before deciding whether an
// object needs to be saved.
func (o *Object) SetProperty(name string, v st.Value) {
	if original, ok := o.original[name]; ok && original.Equal(v) {
		delete(o.modified, name)
		return
	}
	o.modified[name] = v
	o.dirty = true
}

// SetObject stages a Reference-valued property pointing at other.
// other must belong to the same Table as o.
func (o *Object) SetObject(name string, other *Object) error {
	if other.table != o.table {
		return ErrForeignObject
	}
	o.SetProperty(name, st.RefValue(other.self))
	return nil
}

// snapshot builds the immutable Entity this Object currently
// represents, folding staged changes over the original properties.
func (o *Object) snapshot() st.Entity {
	b := st.NewBuilder(o.self)
	merged := make(map[string]st.Value, len(o.original)+len(o.modified))
	for k, v := range o.original {
		merged[k] = v
	}
	for k, v := range o.modified {
		merged[k] = v
	}
	for k, v := range merged {
		b.Add(k, v)
	}
	e, err := b.ToEntity()
	if err != nil {
		// merged was assembled from previously-valid Values and
		// names, so construction cannot fail here.
		panic(err)
	}
	return e
}
