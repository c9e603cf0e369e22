package smalltable

// Entity is an immutable record: a self-reference plus a closed map of
// named property values. Entities are created once, via Builder, and
// never mutated afterward — two Entities are equal iff their self
// reference and property maps are equal.
//
// Grounded on original_source's Entity.java/Entity.Builder, adapted to
// Go's value semantics: an Entity built once has no setters.
type Entity struct {
	self       Reference
	properties map[string]Value
}

// Self returns the entity's own reference.
func (e Entity) Self() Reference { return e.self }

// Property looks up a single property by name.
func (e Entity) Property(name string) (Value, bool) {
	v, ok := e.properties[name]
	return v, ok
}

// Properties returns a defensive copy of the property map; callers
// must not assume it aliases the entity's internal storage.
func (e Entity) Properties() map[string]Value {
	out := make(map[string]Value, len(e.properties))
	for k, v := range e.properties {
		out[k] = v
	}
	return out
}

// Equal reports whether two entities have the same self-reference and
// the same property set.
func (e Entity) Equal(other Entity) bool {
	if e.self != other.self {
		return false
	}
	if len(e.properties) != len(other.properties) {
		return false
	}
	for k, v := range e.properties {
		ov, ok := other.properties[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Builder constructs an Entity. It rejects duplicate property names
// and unsupported value kinds at add-time, matching Entity.Builder's
// "throws at the call that introduced the problem" contract in §7.
type Builder struct {
	self       Reference
	properties map[string]Value
	err        error
}

// NewBuilder starts building an Entity for the given self-reference.
func NewBuilder(self Reference) *Builder {
	return &Builder{self: self, properties: make(map[string]Value)}
}

// Add attaches a named property. It is a no-op (beyond recording the
// error for ToEntity to return) once the builder has already failed,
// so callers can chain Add calls without checking each one.
func (b *Builder) Add(name string, value Value) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = ErrEmptyPropertyName
		return b
	}
	if !value.Kind().Valid() {
		b.err = ErrInvalidValueKind
		return b
	}
	if _, exists := b.properties[name]; exists {
		b.err = ErrDuplicateProperty
		return b
	}
	b.properties[name] = value
	return b
}

// ToEntity finishes construction, returning the first error
// encountered by any Add call, if any.
func (b *Builder) ToEntity() (Entity, error) {
	if b.err != nil {
		return Entity{}, b.err
	}
	props := make(map[string]Value, len(b.properties))
	for k, v := range b.properties {
		props[k] = v
	}
	return Entity{self: b.self, properties: props}, nil
}
