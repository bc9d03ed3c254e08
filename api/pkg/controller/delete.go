package controller

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/visgate/visgate/api/pkg/provider"
	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/types"
)

// deletableStatuses is every status except deleted: the CAS into deleted
// admits exactly one winner, which is what makes DELETE idempotent and the
// provider teardown happen at most once.
var deletableStatuses = []types.DeploymentStatus{
	types.DeploymentStatusValidating,
	types.DeploymentStatusSelectingGPU,
	types.DeploymentStatusCreatingEndpoint,
	types.DeploymentStatusDownloadingModel,
	types.DeploymentStatusLoadingModel,
	types.DeploymentStatusReady,
	types.DeploymentStatusFailed,
	types.DeploymentStatusWebhookFailed,
	types.DeploymentStatusTimeout,
}

// DeleteDeployment tears down a deployment: cancel the in-flight lifecycle
// task, mark the document deleted, and best-effort remove the provider
// endpoint with the key from this request (keys are never stored). Repeat
// calls return the already-deleted document without touching the provider.
func (c *Controller) DeleteDeployment(ctx context.Context, id, ownerHash, providerKey string) (*types.Deployment, error) {
	deployment, err := c.store.GetDeployment(ctx, id, ownerHash)
	if err != nil {
		return nil, err
	}

	c.cancelTask(id)
	c.secrets.clear(id)

	updated, err := c.store.UpdateDeployment(ctx, id, deletableStatuses,
		store.DeploymentPatch{Status: statusPtr(types.DeploymentStatusDeleted)})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			// already deleted by an earlier call
			return deployment, nil
		}
		return nil, err
	}
	c.appendLog(ctx, id, types.LogLevelInfo, "Deployment deleted")

	if updated.EndpointID != "" {
		prov, provErr := provider.Get(updated.Provider)
		if provErr != nil {
			log.Error().Str("deployment_id", id).Err(provErr).Msg("unknown provider on delete")
			return updated, nil
		}
		if delErr := prov.DeleteEndpoint(ctx, providerKey, updated.EndpointID); delErr != nil {
			// document stays deleted; the endpoint is on the caller's account
			// and they can remove it in the provider console
			log.Warn().
				Str("deployment_id", id).
				Str("endpoint_id", updated.EndpointID).
				Err(delErr).
				Msg("provider endpoint teardown failed")
			c.appendLog(ctx, id, types.LogLevelWarn,
				"Endpoint removal at the provider failed; remove it from the provider console if it persists")
		} else {
			c.appendLog(ctx, id, types.LogLevelInfo, "Provider endpoint removed")
		}
	}

	return updated, nil
}
