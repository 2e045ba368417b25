// Package testutil provides sinks for exercising the generator in tests.
package testutil

import (
	"errors"
	"sort"
	"sync"
)

// ErrInjected is returned by FailingSink once its write budget is spent.
var ErrInjected = errors.New("injected sink failure")

// MemorySink records every word it receives.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex,
// so tests can also detect writes that race with the generator's own lock.
type MemorySink struct {
	mu        sync.Mutex
	order     []string
	indices   []uint64
	commits   int
	aborts    int
	duplicate bool
	seen      map[uint64]bool
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{seen: make(map[uint64]bool)}
}

// Write records word. word is copied.
func (m *MemorySink) Write(index uint64, word []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[index] {
		m.duplicate = true
	}
	m.seen[index] = true
	m.order = append(m.order, string(word))
	m.indices = append(m.indices, index)
	return nil
}

// Commit counts a commit.
func (m *MemorySink) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++
	return nil
}

// Abort counts an abort.
func (m *MemorySink) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborts++
	return nil
}

// Words returns the words in emission order.
func (m *MemorySink) Words() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Sorted returns the words sorted, for order-insensitive comparison.
func (m *MemorySink) Sorted() []string {
	words := m.Words()
	sort.Strings(words)
	return words
}

// Indices returns the combination indices in emission order.
func (m *MemorySink) Indices() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.indices...)
}

// Duplicate reports whether any index was written more than once.
func (m *MemorySink) Duplicate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duplicate
}

// Commits returns how many times Commit was called.
func (m *MemorySink) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Aborts returns how many times Abort was called.
func (m *MemorySink) Aborts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aborts
}

// FailingSink accepts a fixed number of writes and fails every write after
// that with ErrInjected.
type FailingSink struct {
	*MemorySink

	mu       sync.Mutex
	budget   int
	failures int
}

// NewFailingSink creates a sink that succeeds for the first n writes.
func NewFailingSink(n int) *FailingSink {
	return &FailingSink{MemorySink: NewMemorySink(), budget: n}
}

// Write records word while the budget lasts, then fails.
func (f *FailingSink) Write(index uint64, word []byte) error {
	f.mu.Lock()
	if f.budget == 0 {
		f.failures++
		f.mu.Unlock()
		return ErrInjected
	}
	f.budget--
	f.mu.Unlock()
	return f.MemorySink.Write(index, word)
}

// Failures returns how many writes were rejected. The generator should stop
// after the first one.
func (f *FailingSink) Failures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures
}
