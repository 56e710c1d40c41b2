// Package memory provides in-memory Store implementations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/remittance"
	"github.com/warp/remittance-engine/users"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[string]remittance.Record
	users   map[string]users.User
}

var (
	_ remittance.Store = (*Memory)(nil)
	_ users.Store      = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]remittance.Record),
		users:   make(map[string]users.User),
	}
}

// ListRecords returns copies of all records ordered by id.
func (m *Memory) ListRecords(_ context.Context) ([]remittance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]remittance.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetRecord(_ context.Context, id string) (*remittance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	c := cloneRecord(r)
	return &c, nil
}

func (m *Memory) UpsertRecord(_ context.Context, r remittance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = cloneRecord(r)
	return nil
}

func (m *Memory) DeleteRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrRecordNotFound, id)
	}
	delete(m.records, id)
	return nil
}

// =============================================================================
// USERS
// =============================================================================

func (m *Memory) ListUsers(_ context.Context) ([]users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]users.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*users.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Memory) SaveUser(_ context.Context, u users.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.users {
		if id != u.ID && other.Username == u.Username {
			return fmt.Errorf("%w: %s", generic.ErrDuplicateUsername, u.Username)
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	delete(m.users, id)
	return nil
}

// ResetRecords clears records only.
func (m *Memory) ResetRecords(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]remittance.Record)
	return nil
}

func cloneRecord(r remittance.Record) remittance.Record {
	if r.Attachments != nil {
		r.Attachments = append([]remittance.Attachment(nil), r.Attachments...)
	}
	return r
}
