// Package smalltable implements the SmallTable revision engine: an
// in-memory object graph with an append-only revision history and
// optimistic concurrency. See the repo subpackage for the repository
// host and the client subpackage for the object façade built on top.
package smalltable

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

// Reference is the stable identity of an object across its lifetime,
// opaque and totally ordered. Never reused within a repository.
type Reference uint64

// EntityId identifies one immutable snapshot of an object's contents.
// Never reused within a repository.
type EntityId uint64

// BadReference and BadEntityId are never handed out as fresh
// identifiers (AllocateBatch returns BadEntityId only when asked for
// none); they are convenient zero-ish sentinels for tests and the wire
// codec.
const (
	BadReference = Reference(0)
	BadEntityId  = EntityId(0)
)

func (r Reference) Less(other Reference) bool { return r < other }

func (r Reference) String() string { return fmt.Sprintf("R%x", uint64(r)) }

// Bytes renders the reference as 8 big-endian bytes, the layout the
// wire package frames with a TLV header.
func (r Reference) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(r))
	return b[:]
}

// ReferenceFromBytes is the inverse of Bytes.
func ReferenceFromBytes(b []byte) Reference {
	return Reference(binary.BigEndian.Uint64(b))
}

func (id EntityId) Less(other EntityId) bool { return id < other }

func (id EntityId) String() string { return fmt.Sprintf("E%x", uint64(id)) }

func (id EntityId) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func EntityIdFromBytes(b []byte) EntityId {
	return EntityId(binary.BigEndian.Uint64(b))
}

// ReferenceSequence and EntityIdSequence are lock-free monotonic
// counters, one per repository, matching the teacher's own
// atomic-sequence idiom (chotki.go's idlock-free allocation,
// original_source's AtomicLong-backed LocalRepository sequences).
type ReferenceSequence struct {
	next atomic.Uint64
}

// Allocate returns a fresh Reference, strictly greater than every
// Reference previously returned by this sequence.
func (s *ReferenceSequence) Allocate() Reference {
	return Reference(s.next.Add(1))
}

// Bump advances the sequence so that every future Allocate call
// returns a value strictly greater than at, used by wire.Restore to
// resume a persisted sequence above every identifier in the stream.
func (s *ReferenceSequence) Bump(at Reference) {
	for {
		cur := s.next.Load()
		if uint64(at) <= cur {
			return
		}
		if s.next.CompareAndSwap(cur, uint64(at)) {
			return
		}
	}
}

func (s *ReferenceSequence) Peek() Reference { return Reference(s.next.Load()) }

// EntityIdSequence allocates a contiguous-by-call, globally unique
// batch of EntityIds in one atomic addition, matching
// Repository.prepare's "allocate n at once" contract. The core only
// guarantees uniqueness, never contiguity across concurrent callers:
// each call gets its own contiguous range, but the ranges of
// concurrent callers follow the order of their atomic additions, not
// the order in which the calls began.
type EntityIdSequence struct {
	next atomic.Uint64
}

// AllocateBatch reserves n strictly ascending, strictly fresh
// EntityIds and returns the first one; the caller derives the rest by
// adding 1..n-1.
func (s *EntityIdSequence) AllocateBatch(n int) EntityId {
	if n <= 0 {
		return BadEntityId
	}
	last := s.next.Add(uint64(n))
	first := last - uint64(n) + 1
	return EntityId(first)
}

func (s *EntityIdSequence) Bump(at EntityId) {
	for {
		cur := s.next.Load()
		if uint64(at) <= cur {
			return
		}
		if s.next.CompareAndSwap(cur, uint64(at)) {
			return
		}
	}
}

func (s *EntityIdSequence) Peek() EntityId { return EntityId(s.next.Load()) }
