// Package memorystore provides the in-memory implementation of store.Store
// for local development and tests. A single process-wide mutex covers every
// compare-and-set so its semantics match the durable store.
package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/types"
)

type MemoryStore struct {
	mu          sync.Mutex
	deployments map[string]*types.Deployment
	logs        map[string][]*types.LogEntry
}

func New() *MemoryStore {
	return &MemoryStore{
		deployments: make(map[string]*types.Deployment),
		logs:        make(map[string][]*types.LogEntry),
	}
}

func (m *MemoryStore) CreateDeployment(_ context.Context, deployment *types.Deployment) (*types.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deployments[deployment.ID]; ok {
		return nil, store.ErrAlreadyExists
	}
	cp := *deployment
	m.deployments[deployment.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MemoryStore) GetDeployment(ctx context.Context, id, ownerHash string) (*types.Deployment, error) {
	deployment, err := m.GetDeploymentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if deployment.OwnerHash != ownerHash {
		return nil, store.ErrNotFound
	}
	return deployment, nil
}

func (m *MemoryStore) GetDeploymentByID(_ context.Context, id string) (*types.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deployment, ok := m.deployments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *deployment
	return &cp, nil
}

func (m *MemoryStore) UpdateDeployment(_ context.Context, id string, expected []types.DeploymentStatus, patch store.DeploymentPatch) (*types.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deployment, ok := m.deployments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !store.StatusIn(deployment.Status, expected) {
		return nil, store.ErrConflict
	}
	store.ApplyPatch(deployment, patch, time.Now().UTC())
	cp := *deployment
	return &cp, nil
}

func (m *MemoryStore) AppendLog(_ context.Context, id string, level types.LogLevel, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deployments[id]; !ok {
		return store.ErrNotFound
	}
	m.logs[id] = append(m.logs[id], &types.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
	})
	return nil
}

func (m *MemoryStore) ListLogs(_ context.Context, id string, limit int) ([]*types.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.logs[id]
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]*types.LogEntry, len(entries))
	for i, e := range entries {
		cp := *e
		out[i] = &cp
	}
	return out, nil
}

func (m *MemoryStore) FindReusableDeployment(_ context.Context, ownerHash, modelID, gpuTier string) (*types.Deployment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, deployment := range m.deployments {
		if deployment.OwnerHash != ownerHash || deployment.ModelID != modelID {
			continue
		}
		if gpuTier != "" && deployment.RequestedTier != gpuTier {
			continue
		}
		switch deployment.Status {
		case types.DeploymentStatusFailed, types.DeploymentStatusDeleted,
			types.DeploymentStatusTimeout:
			continue
		}
		cp := *deployment
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}
