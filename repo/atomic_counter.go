package repo

import "sync/atomic"

// atomicCounter is a tiny monotonic counter for the Collector to
// report; the entity table and head already have their own atomic
// primitives, this covers the three commit-loop tallies.
type atomicCounter struct {
	v atomic.Uint64
}

func (c *atomicCounter) add(n uint64) { c.v.Add(n) }
func (c *atomicCounter) load() uint64 { return c.v.Load() }
