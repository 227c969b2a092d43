package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/mystery-engine/pkg/casefile"
	"github.com/jwebster45206/mystery-engine/pkg/state"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	mu         sync.RWMutex
	caseStates map[uuid.UUID][]byte
	caseFiles  map[string]*casefile.CaseFile
	locks      map[uuid.UUID]string
	pingError  error
	saveError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		caseStates: make(map[uuid.UUID][]byte),
		caseFiles:  make(map[string]*casefile.CaseFile),
		locks:      make(map[uuid.UUID]string),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on SaveCaseState
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// AddCaseFile registers a case file under filename
func (m *MockStorage) AddCaseFile(filename string, cf *casefile.CaseFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cf.FileName = filename
	m.caseFiles[filename] = cf
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close is a no-op
func (m *MockStorage) Close() error {
	return nil
}

// SaveCaseState stores a JSON copy of the state, like Redis would
func (m *MockStorage) SaveCaseState(ctx context.Context, id uuid.UUID, cs *state.CaseState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	cs.UpdatedAt = time.Now()
	data, err := json.Marshal(cs)
	if err != nil {
		return fmt.Errorf("failed to marshal case state: %w", err)
	}
	m.caseStates[id] = data
	return nil
}

// LoadCaseState returns a fresh copy of the stored state, or nil when missing
func (m *MockStorage) LoadCaseState(ctx context.Context, id uuid.UUID) (*state.CaseState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.caseStates[id]
	if !ok {
		return nil, nil
	}
	var cs state.CaseState
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal case state: %w", err)
	}
	return &cs, nil
}

// DeleteCaseState removes a stored state
func (m *MockStorage) DeleteCaseState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.caseStates, id)
	return nil
}

// AcquireLock takes the lock if nobody holds it. The ttl is ignored.
func (m *MockStorage) AcquireLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return false, nil
	}
	m.locks[id] = owner
	return true, nil
}

// ReleaseLock drops the lock if owner holds it
func (m *MockStorage) ReleaseLock(ctx context.Context, id uuid.UUID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] == owner {
		delete(m.locks, id)
	}
	return nil
}

// ExtendLock reports whether owner still holds the lock. The ttl is ignored.
func (m *MockStorage) ExtendLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locks[id] == owner, nil
}

// LockOwner returns who holds the lock for id
func (m *MockStorage) LockOwner(id uuid.UUID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locks[id]
}

// ListCaseFiles maps registered case names to file names
func (m *MockStorage) ListCaseFiles(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.caseFiles))
	for filename, cf := range m.caseFiles {
		out[cf.Name] = filename
	}
	return out, nil
}

// GetCaseFile returns a registered case file
func (m *MockStorage) GetCaseFile(ctx context.Context, filename string) (*casefile.CaseFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cf, ok := m.caseFiles[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCaseFileNotFound, filename)
	}
	return cf, nil
}
