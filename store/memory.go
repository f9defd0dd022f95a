package store

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Memory is an in-process Store keeping all identities in maps guarded by
// a single mutex. Suitable for tests and single-node development; records
// do not survive a restart.
type Memory struct {
	mu        sync.RWMutex
	byID      map[ulid.ULID]*Identity
	byEmail   map[string]ulid.ULID
	bySession map[string]ulid.ULID
	byReset   map[string]ulid.ULID
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:      make(map[ulid.ULID]*Identity),
		byEmail:   make(map[string]ulid.ULID),
		bySession: make(map[string]ulid.ULID),
		byReset:   make(map[string]ulid.ULID),
	}
}

// Add creates a new identity. The uniqueness check and insert run under
// the same critical section, so concurrent Adds for one email cannot both
// succeed.
func (m *Memory) Add(_ context.Context, email, passwordHash string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[email]; exists {
		return nil, ErrDuplicateEmail
	}

	now := time.Now().UTC()
	ident := &Identity{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.byID[ident.ID] = ident
	m.byEmail[email] = ident.ID

	cp := *ident
	return &cp, nil
}

// FindByID looks up an identity by its ID.
func (m *Memory) FindByID(_ context.Context, id ulid.ULID) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyOf(id)
}

// FindByEmail looks up an identity by exact email match.
func (m *Memory) FindByEmail(_ context.Context, email string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return m.copyOf(id)
}

// FindBySessionHash looks up the identity owning an active session.
func (m *Memory) FindBySessionHash(_ context.Context, hash string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if hash == "" {
		return nil, ErrNotFound
	}
	id, ok := m.bySession[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return m.copyOf(id)
}

// FindByResetHash looks up the identity with a pending reset.
func (m *Memory) FindByResetHash(_ context.Context, hash string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if hash == "" {
		return nil, ErrNotFound
	}
	id, ok := m.byReset[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return m.copyOf(id)
}

// Update applies fields under one critical section: all given fields are
// written together or not at all, and the token indexes move with them.
func (m *Memory) Update(_ context.Context, id ulid.ULID, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ident, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}

	if fields.PasswordHash != nil {
		ident.PasswordHash = *fields.PasswordHash
	}
	if fields.SessionHash != nil {
		if ident.SessionHash != "" {
			delete(m.bySession, ident.SessionHash)
		}
		ident.SessionHash = *fields.SessionHash
		if ident.SessionHash != "" {
			m.bySession[ident.SessionHash] = id
		}
	}
	if fields.ResetHash != nil {
		if ident.ResetHash != "" {
			delete(m.byReset, ident.ResetHash)
		}
		ident.ResetHash = *fields.ResetHash
		if ident.ResetHash != "" {
			m.byReset[ident.ResetHash] = id
		}
	}
	ident.UpdatedAt = time.Now().UTC()

	return nil
}

// copyOf returns a copy so callers cannot mutate shared state. Caller
// holds at least the read lock.
func (m *Memory) copyOf(id ulid.ULID) (*Identity, error) {
	ident, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ident
	return &cp, nil
}
