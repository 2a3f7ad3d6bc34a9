// Package mergeops tracks confirmed merges and applies them to the position store
// in the background.
package mergeops

import (
	"context"
	"sync"
	"time"

	"github.com/scottgpt/career-cli/internal/merge"
)

// Status is the lifecycle state of a merge operation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Done reports whether the operation has reached a terminal state.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Operation records one confirmed merge.
type Operation struct {
	ID        string             `json:"id"`
	SourceID  string             `json:"sourceId"`
	TargetID  string             `json:"targetId"`
	Status    Status             `json:"status"`
	Confirmed bool               `json:"confirmed"`
	Result    *merge.MergeResult `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// StatusStore persists merge operations. GetMergeOperation returns (nil, nil)
// for an unknown id; DeleteMergeOperation reports whether a row was removed.
type StatusStore interface {
	GetMergeOperation(ctx context.Context, id string) (*Operation, error)
	SaveMergeOperation(ctx context.Context, op Operation) error
	DeleteMergeOperation(ctx context.Context, id string) (bool, error)
}

// MemoryStatusStore keeps operations in process memory.
type MemoryStatusStore struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// NewMemoryStatusStore creates an empty in-memory status store.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{ops: make(map[string]Operation)}
}

// GetMergeOperation implements StatusStore.
func (m *MemoryStatusStore) GetMergeOperation(_ context.Context, id string) (*Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	op, ok := m.ops[id]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

// SaveMergeOperation implements StatusStore.
func (m *MemoryStatusStore) SaveMergeOperation(_ context.Context, op Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op.ID] = op
	return nil
}

// DeleteMergeOperation implements StatusStore.
func (m *MemoryStatusStore) DeleteMergeOperation(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ops[id]
	delete(m.ops, id)
	return ok, nil
}

// Len returns the number of tracked operations.
func (m *MemoryStatusStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ops)
}
