package sim

import (
	"sync"
	"sync/atomic"
)

// NoHolder marks a fork that no agent currently possesses.
const NoHolder = -1

// Fork is one exclusive-access slot. The holder field mirrors the mutex:
// holder == id exactly while agent id holds the lock, NoHolder otherwise.
type Fork struct {
	id     int
	mu     sync.Mutex
	holder atomic.Int32
}

func newFork(id int) *Fork {
	f := &Fork{id: id}
	f.holder.Store(NoHolder)
	return f
}

// Holder returns the possessing agent's id, or ok=false when the fork is free.
func (f *Fork) Holder() (int, bool) {
	h := f.holder.Load()
	return int(h), h != NoHolder
}

// TryAcquire attempts a non-blocking acquisition for agent id. On failure it
// has no side effects. On success the returned Claim is the sole proof of
// possession; the fork can only be released through it.
func (f *Fork) TryAcquire(id int) (*Claim, bool) {
	if !f.mu.TryLock() {
		return nil, false
	}
	f.holder.Store(int32(id))
	return &Claim{fork: f}, true
}

// Claim is proof of possession of a fork. Release clears the holder and
// unlocks the fork, then invalidates the claim; further calls are no-ops, so
// a double release cannot corrupt the fork.
type Claim struct {
	fork *Fork
}

func (c *Claim) Release() {
	if c == nil || c.fork == nil {
		return
	}
	f := c.fork
	c.fork = nil
	f.holder.Store(NoHolder)
	f.mu.Unlock()
}
