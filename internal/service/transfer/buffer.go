package transfer

import (
	"sync"

	"dts-connector/internal/domain"
)

// MessageBuffer accumulates run log entries between heartbeat flushes.
// Append and Drain are safe for concurrent use: the run body logs while the
// heartbeat timer drains.
type MessageBuffer struct {
	mu      sync.Mutex
	entries []domain.LogEntry
}

// NewMessageBuffer returns an empty buffer.
func NewMessageBuffer() *MessageBuffer {
	return &MessageBuffer{}
}

// Append queues one entry for the next flush.
func (b *MessageBuffer) Append(e domain.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
}

// Drain atomically returns all buffered entries and clears the buffer.
// Each entry is delivered to exactly one Drain call.
func (b *MessageBuffer) Drain() []domain.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.entries
	b.entries = nil
	return entries
}

// Requeue puts drained entries back at the front of the buffer, preserving
// order ahead of anything appended since. Used when a batch submit fails so
// the entries ride the next heartbeat instead of being lost.
func (b *MessageBuffer) Requeue(entries []domain.LogEntry) {
	if len(entries) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(entries, b.entries...)
}

// Len reports the number of buffered entries.
func (b *MessageBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
