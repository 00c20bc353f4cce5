package eventlog

import "sync"

// batchBuffer is an ordered FIFO of pending entries for one category.
// Entries leave only through takeAll: either delivered by a flush or
// discarded by the sender's terminal drop decision, never silently.
type batchBuffer struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
}

// add appends an entry and reports whether the buffer reached its batch
// size threshold.
func (b *batchBuffer) add(entry Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	return len(b.entries) >= b.limit
}

// takeAll atomically swaps out the current contents. Entries enqueued while
// the taken batch is in flight land in the fresh buffer.
func (b *batchBuffer) takeAll() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.entries
	b.entries = nil
	return entries
}

func (b *batchBuffer) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
