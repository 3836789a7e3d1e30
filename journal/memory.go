package journal

import "sync"

// Memory keeps runs in process. It is used by tests and by the HTTP
// server, which only needs the latest run.
type Memory struct {
	mu      sync.Mutex
	runs    []RunRecord
	entries map[string][]Entry
	closed  bool
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]Entry)}
}

func (m *Memory) RecordRun(r RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func (m *Memory) RecordEntry(runID string, seq int, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[runID] = append(m.entries[runID], e)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Runs returns a copy of the recorded runs.
func (m *Memory) Runs() []RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunRecord(nil), m.runs...)
}

// Entries returns a copy of the log recorded for runID.
func (m *Memory) Entries(runID string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries[runID]...)
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
