package report

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	report    Report
	expiresAt time.Time
}

// MemoryStore is the single-process fallback used when no Redis address is
// configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, subject string, rep Report) error {
	if subject == "" {
		return fmt.Errorf("report: missing subject")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[subject] = entry{report: rep, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Take(_ context.Context, subject string) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[subject]
	if !ok {
		return nil, nil
	}
	delete(m.entries, subject)

	if m.now().After(e.expiresAt) {
		return nil, nil
	}
	rep := e.report
	return &rep, nil
}
