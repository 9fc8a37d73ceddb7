package cec

import (
	"sync"
	"time"
)

// MessageCache maps (source, opcode) to the most recently observed frame.
// Populated by the host on every inbound frame the local device accepts;
// consulted by a stage's query procedure before it sends a fresh request.
// No size bound is enforced here — the host governs eviction — so the
// default implementation never evicts entries on its own.
type MessageCache interface {
	Put(source LogicalAddress, opcode Opcode, frame Frame)
	Get(source LogicalAddress, opcode Opcode) (Frame, bool)
}

// CacheEntry describes one occupied MessageCache slot, for diagnostic
// dumps. Age is relative to the moment Dump was called.
type CacheEntry struct {
	Source LogicalAddress
	Opcode Opcode
	Age    time.Duration
}

// CacheInspector is implemented by MessageCache backends that can enumerate
// their own contents, for a status endpoint to display. Not every backend
// can support this cheaply (a remote cache would need a full key scan), so
// it is a separate, optional interface rather than part of MessageCache
// itself.
type CacheInspector interface {
	Dump() []CacheEntry
}

// memoryMessageCache is a plain last-write-wins map. It is read at
// query-issue time and written by the host on frame intake, both from the
// same dispatcher goroutine in the intended deployment, but the mutex is
// kept because a MessageCache outlives, and may be shared across, more than
// one local device.
type memoryCacheEntry struct {
	frame    Frame
	storedAt time.Time
}

type memoryMessageCache struct {
	mutex   sync.RWMutex
	entries map[cacheKey]memoryCacheEntry
}

// NewMessageCache returns the default in-memory MessageCache.
func NewMessageCache() MessageCache {
	return &memoryMessageCache{
		entries: map[cacheKey]memoryCacheEntry{},
	}
}

func (c *memoryMessageCache) Put(source LogicalAddress, opcode Opcode, frame Frame) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[cacheKey{source: source, opcode: opcode}] = memoryCacheEntry{frame: frame, storedAt: time.Now()}
}

func (c *memoryMessageCache) Get(source LogicalAddress, opcode Opcode) (Frame, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, found := c.entries[cacheKey{source: source, opcode: opcode}]
	return entry.frame, found
}

// Dump implements CacheInspector.
func (c *memoryMessageCache) Dump() []CacheEntry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := time.Now()
	out := make([]CacheEntry, 0, len(c.entries))
	for key, entry := range c.entries {
		out = append(out, CacheEntry{Source: key.source, Opcode: key.opcode, Age: now.Sub(entry.storedAt)})
	}
	return out
}
