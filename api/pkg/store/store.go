package store

import (
	"context"
	"errors"
	"time"

	"github.com/visgate/visgate/api/pkg/types"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when a compare-and-set update finds the
	// deployment in a status outside the expected set. Duplicate lifecycle
	// triggers observe this and become no-ops.
	ErrConflict = errors.New("status conflict")
)

// DeploymentPatch is a partial update applied under compare-and-set. Nil
// fields are left untouched.
type DeploymentPatch struct {
	Status        *types.DeploymentStatus
	RequestedTier *string
	ResolvedTier  *string
	GPUAllocated  *string
	MinVRAMGB     *int
	EndpointID    *string
	EndpointURL   *string
	Error         *types.DeploymentError
	ReadyAt       *time.Time
	// Attempts replaces the audit list wholesale when non-nil.
	Attempts []types.GPUAttempt
}

//go:generate mockgen -source $GOFILE -destination store_mocks.go -package $GOPACKAGE

type Store interface {
	// CreateDeployment fails with ErrAlreadyExists when the id is taken.
	CreateDeployment(ctx context.Context, deployment *types.Deployment) (*types.Deployment, error)
	// GetDeployment returns the deployment iff the owner hash matches;
	// unknown id and wrong owner are both ErrNotFound.
	GetDeployment(ctx context.Context, id, ownerHash string) (*types.Deployment, error)
	// GetDeploymentByID skips the ownership check. Internal paths only
	// (worker callbacks, the engine itself).
	GetDeploymentByID(ctx context.Context, id string) (*types.Deployment, error)
	// UpdateDeployment applies the patch iff the current status is in
	// expected (an empty expected list means unconditional) and returns
	// the updated document. Status mismatch is ErrConflict.
	UpdateDeployment(ctx context.Context, id string, expected []types.DeploymentStatus, patch DeploymentPatch) (*types.Deployment, error)
	// AppendLog atomically appends one audit entry.
	AppendLog(ctx context.Context, id string, level types.LogLevel, message string) error
	// ListLogs returns up to limit entries in append order (the most
	// recent entries when the log is longer than limit).
	ListLogs(ctx context.Context, id string, limit int) ([]*types.LogEntry, error)
	// FindReusableDeployment returns an existing non-failed deployment
	// with the same (owner, model, tier) fingerprint, or ErrNotFound.
	FindReusableDeployment(ctx context.Context, ownerHash, modelID, gpuTier string) (*types.Deployment, error)
	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}

// ApplyPatch merges a patch into a deployment in place and bumps Updated.
// Shared by both store implementations so their semantics cannot drift.
func ApplyPatch(d *types.Deployment, patch DeploymentPatch, now time.Time) {
	if patch.Status != nil {
		d.Status = *patch.Status
	}
	if patch.RequestedTier != nil {
		d.RequestedTier = *patch.RequestedTier
	}
	if patch.ResolvedTier != nil {
		d.ResolvedTier = *patch.ResolvedTier
	}
	if patch.GPUAllocated != nil {
		d.GPUAllocated = *patch.GPUAllocated
	}
	if patch.MinVRAMGB != nil {
		d.MinVRAMGB = *patch.MinVRAMGB
	}
	if patch.EndpointID != nil {
		d.EndpointID = *patch.EndpointID
	}
	if patch.EndpointURL != nil {
		d.EndpointURL = *patch.EndpointURL
	}
	if patch.Error != nil {
		d.Error = patch.Error
	}
	if patch.ReadyAt != nil && d.ReadyAt == nil {
		// ready_at is write-once
		d.ReadyAt = patch.ReadyAt
	}
	if patch.Attempts != nil {
		d.Attempts = patch.Attempts
	}
	d.Updated = now
}

// StatusIn reports whether status is in the expected set; an empty set
// matches everything.
func StatusIn(status types.DeploymentStatus, expected []types.DeploymentStatus) bool {
	if len(expected) == 0 {
		return true
	}
	for _, e := range expected {
		if status == e {
			return true
		}
	}
	return false
}
