package memorystore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/types"
)

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

type MemoryStoreSuite struct {
	suite.Suite
	ctx context.Context
	db  *MemoryStore
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = New()
}

func (s *MemoryStoreSuite) newDeployment(id, owner string, status types.DeploymentStatus) *types.Deployment {
	deployment := &types.Deployment{
		ID:         id,
		OwnerHash:  owner,
		ModelID:    "stabilityai/sdxl-turbo",
		Provider:   "runpod",
		WebhookURL: "https://example.com/hook",
		CacheScope: types.CacheScopeOff,
		Status:     status,
		Created:    time.Now().UTC(),
		Updated:    time.Now().UTC(),
	}
	created, err := s.db.CreateDeployment(s.ctx, deployment)
	s.Require().NoError(err)
	return created
}

func (s *MemoryStoreSuite) TestCreateDuplicate() {
	s.newDeployment("dep_1", "owner-a", types.DeploymentStatusValidating)
	_, err := s.db.CreateDeployment(s.ctx, &types.Deployment{ID: "dep_1"})
	s.Require().ErrorIs(err, store.ErrAlreadyExists)
}

func (s *MemoryStoreSuite) TestGetOwnerScoped() {
	s.newDeployment("dep_1", "owner-a", types.DeploymentStatusValidating)

	found, err := s.db.GetDeployment(s.ctx, "dep_1", "owner-a")
	s.Require().NoError(err)
	s.Equal("dep_1", found.ID)

	// a different owner's key behaves exactly like a missing document
	_, err = s.db.GetDeployment(s.ctx, "dep_1", "owner-b")
	s.Require().ErrorIs(err, store.ErrNotFound)

	_, err = s.db.GetDeployment(s.ctx, "dep_missing", "owner-a")
	s.Require().ErrorIs(err, store.ErrNotFound)
}

func (s *MemoryStoreSuite) TestUpdateCAS() {
	s.newDeployment("dep_1", "owner-a", types.DeploymentStatusValidating)

	selecting := types.DeploymentStatusSelectingGPU
	updated, err := s.db.UpdateDeployment(s.ctx, "dep_1",
		[]types.DeploymentStatus{types.DeploymentStatusValidating},
		store.DeploymentPatch{Status: &selecting})
	s.Require().NoError(err)
	s.Equal(types.DeploymentStatusSelectingGPU, updated.Status)

	// replaying the same transition conflicts
	_, err = s.db.UpdateDeployment(s.ctx, "dep_1",
		[]types.DeploymentStatus{types.DeploymentStatusValidating},
		store.DeploymentPatch{Status: &selecting})
	s.Require().ErrorIs(err, store.ErrConflict)
}

func (s *MemoryStoreSuite) TestUpdateUnconditional() {
	s.newDeployment("dep_1", "owner-a", types.DeploymentStatusReady)

	deleted := types.DeploymentStatusDeleted
	updated, err := s.db.UpdateDeployment(s.ctx, "dep_1", nil,
		store.DeploymentPatch{Status: &deleted})
	s.Require().NoError(err)
	s.Equal(types.DeploymentStatusDeleted, updated.Status)
}

func (s *MemoryStoreSuite) TestReadyAtWriteOnce() {
	s.newDeployment("dep_1", "owner-a", types.DeploymentStatusLoadingModel)

	first := time.Now().UTC()
	ready := types.DeploymentStatusReady
	updated, err := s.db.UpdateDeployment(s.ctx, "dep_1", types.WaitingStatuses,
		store.DeploymentPatch{Status: &ready, ReadyAt: &first})
	s.Require().NoError(err)
	s.Require().NotNil(updated.ReadyAt)
	s.True(updated.ReadyAt.Equal(first))

	later := first.Add(time.Hour)
	updated, err = s.db.UpdateDeployment(s.ctx, "dep_1", nil,
		store.DeploymentPatch{ReadyAt: &later})
	s.Require().NoError(err)
	s.True(updated.ReadyAt.Equal(first), "ready_at must not move once set")
}

func (s *MemoryStoreSuite) TestLogsAppendOrder() {
	s.newDeployment("dep_1", "owner-a", types.DeploymentStatusValidating)

	for i := 0; i < 5; i++ {
		s.Require().NoError(s.db.AppendLog(s.ctx, "dep_1", types.LogLevelInfo, fmt.Sprintf("line %d", i)))
	}

	logs, err := s.db.ListLogs(s.ctx, "dep_1", 100)
	s.Require().NoError(err)
	s.Require().Len(logs, 5)
	for i, entry := range logs {
		s.Equal(fmt.Sprintf("line %d", i), entry.Message)
	}

	// limit keeps the most recent entries, still in append order
	logs, err = s.db.ListLogs(s.ctx, "dep_1", 2)
	s.Require().NoError(err)
	s.Require().Len(logs, 2)
	s.Equal("line 3", logs[0].Message)
	s.Equal("line 4", logs[1].Message)
}

func (s *MemoryStoreSuite) TestAppendLogUnknownDeployment() {
	err := s.db.AppendLog(s.ctx, "dep_missing", types.LogLevelInfo, "hello")
	s.Require().ErrorIs(err, store.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFindReusableDeployment() {
	s.newDeployment("dep_ready", "owner-a", types.DeploymentStatusReady)
	s.newDeployment("dep_failed", "owner-a", types.DeploymentStatusFailed)

	found, err := s.db.FindReusableDeployment(s.ctx, "owner-a", "stabilityai/sdxl-turbo", "")
	s.Require().NoError(err)
	s.Equal("dep_ready", found.ID)

	// terminal failures are never reused
	_, err = s.db.FindReusableDeployment(s.ctx, "owner-b", "stabilityai/sdxl-turbo", "")
	s.Require().ErrorIs(err, store.ErrNotFound)

	_, err = s.db.FindReusableDeployment(s.ctx, "owner-a", "someone/other-model", "")
	s.Require().ErrorIs(err, store.ErrNotFound)
}
