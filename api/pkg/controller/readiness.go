package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/visgate/visgate/api/pkg/notification"
	"github.com/visgate/visgate/api/pkg/provider"
	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/types"
)

// waitForReady polls the provider's health surface until the endpoint has a
// live worker, the budget expires, or another actor finishes the deployment
// first (worker callback, delete). The poll needs StableWindow consecutive
// healthy reads before it declares ready, so a worker flapping during model
// load does not fire the webhook early.
func (c *Controller) waitForReady(ctx context.Context, id string, prov provider.Provider, providerKey, endpointID string, deadline time.Time) {
	logger := log.With().Str("deployment_id", id).Logger()

	ticker := time.NewTicker(c.cfg.Lifecycle.PollInterval)
	defer ticker.Stop()

	healthy := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		deployment, err := c.store.GetDeploymentByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return
			}
			logger.Warn().Err(err).Msg("readiness poll could not read deployment")
			continue
		}
		if deployment.Status.IsTerminal() {
			// callback or delete beat us to it
			return
		}

		if time.Now().After(deadline) {
			c.timeoutDeployment(ctx, id)
			return
		}

		pollCtx, cancel := context.WithTimeout(ctx, c.cfg.RunPod.PollTimeout)
		status, err := prov.GetEndpointStatus(pollCtx, providerKey, endpointID)
		cancel()
		if err != nil {
			logger.Debug().Err(err).Msg("endpoint health poll failed, will retry")
			healthy = 0
			continue
		}
		if status.WorkersReady < 1 {
			healthy = 0
			continue
		}

		healthy++
		if healthy < c.cfg.Lifecycle.StableWindow {
			continue
		}
		c.MarkReady(ctx, id, "")
		return
	}
}

// MarkReady is the single convergence point for both readiness signals: the
// worker's inbound callback and the outbound poller. The CAS from a waiting
// status guarantees exactly one winner; the loser's call is a no-op. The
// caller's webhook fires only on the winning path.
func (c *Controller) MarkReady(ctx context.Context, id string, endpointURL string) {
	now := time.Now().UTC()
	patch := store.DeploymentPatch{
		Status:  statusPtr(types.DeploymentStatusReady),
		ReadyAt: &now,
	}
	if endpointURL != "" {
		patch.EndpointURL = &endpointURL
	}

	deployment, err := c.store.UpdateDeployment(ctx, id, types.WaitingStatuses, patch)
	if err != nil {
		if !errors.Is(err, store.ErrConflict) && !errors.Is(err, store.ErrNotFound) {
			log.Error().Str("deployment_id", id).Err(err).Msg("marking deployment ready")
		}
		return
	}
	c.appendLog(ctx, id, types.LogLevelInfo, "Endpoint is ready")
	log.Info().
		Str("deployment_id", id).
		Str("endpoint_id", deployment.EndpointID).
		Str("gpu", deployment.GPUAllocated).
		Msg("deployment ready")

	// delivery runs on a controller-owned task: the worker's callback
	// request must not hold open (or cancel) the caller's retry schedule
	c.wg.Go(func() {
		c.deliverReadyWebhook(c.rootCtx, deployment)
	})
	c.secrets.clear(id)
}

// deliverReadyWebhook fires the caller notification. Delivery failure
// demotes the status to webhook_failed but the endpoint stays up: the
// caller paid for a working endpoint and still has one.
func (c *Controller) deliverReadyWebhook(ctx context.Context, deployment *types.Deployment) {
	if deployment.WebhookURL == "" {
		return
	}

	payload := notification.BuildPayload(deployment)
	if err := c.dispatcher.Deliver(ctx, deployment.WebhookURL, payload); err != nil {
		_, casErr := c.store.UpdateDeployment(ctx, deployment.ID,
			[]types.DeploymentStatus{types.DeploymentStatusReady},
			store.DeploymentPatch{
				Status: statusPtr(types.DeploymentStatusWebhookFailed),
				Error: &types.DeploymentError{
					Kind:    types.ErrorKindWebhookDelivery,
					Message: err.Error(),
				},
			})
		if casErr != nil && !errors.Is(casErr, store.ErrConflict) {
			log.Error().Str("deployment_id", deployment.ID).Err(casErr).
				Msg("recording webhook delivery failure")
		}
		c.appendLog(ctx, deployment.ID, types.LogLevelError,
			"Endpoint is ready but webhook delivery failed; poll GET /v1/deployments/{id} for status")
	}
}

// timeoutDeployment moves a still-waiting deployment to timeout. The
// provider endpoint is deliberately left alive: it bills to the caller's
// account and only they may tear it down.
func (c *Controller) timeoutDeployment(ctx context.Context, id string) {
	_, err := c.store.UpdateDeployment(ctx, id, types.WaitingStatuses,
		store.DeploymentPatch{
			Status: statusPtr(types.DeploymentStatusTimeout),
			Error: &types.DeploymentError{
				Kind:    types.ErrorKindTimeout,
				Message: fmt.Sprintf("deployment did not become ready within %s", c.cfg.Lifecycle.PhaseBudget),
			},
		})
	if err != nil {
		if !errors.Is(err, store.ErrConflict) {
			log.Error().Str("deployment_id", id).Err(err).Msg("recording deployment timeout")
		}
		return
	}
	c.appendLog(ctx, id, types.LogLevelError,
		"Timed out waiting for the endpoint; the provider endpoint was left running, DELETE the deployment to remove it")
	c.secrets.clear(id)
}

// HandleReadyCallback processes the worker container's phase reports posted
// to the internal readiness route. Stale or duplicate reports CAS-conflict
// and are swallowed: the worker should never see an error for racing the
// poller.
func (c *Controller) HandleReadyCallback(ctx context.Context, id string, callback *types.ReadyCallback) error {
	if _, err := c.store.GetDeploymentByID(ctx, id); err != nil {
		return err
	}

	status := callback.Status
	if status == "" {
		status = types.DeploymentStatusReady
	}

	switch status {
	case types.DeploymentStatusReady:
		c.MarkReady(ctx, id, callback.EndpointURL)
		return nil
	case types.DeploymentStatusDownloadingModel:
		_, err := c.store.UpdateDeployment(ctx, id,
			[]types.DeploymentStatus{types.DeploymentStatusCreatingEndpoint},
			store.DeploymentPatch{Status: statusPtr(types.DeploymentStatusDownloadingModel)})
		if err == nil {
			c.appendLog(ctx, id, types.LogLevelInfo, "Worker is downloading model weights")
		} else if !errors.Is(err, store.ErrConflict) && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return nil
	case types.DeploymentStatusLoadingModel:
		_, err := c.store.UpdateDeployment(ctx, id,
			[]types.DeploymentStatus{
				types.DeploymentStatusCreatingEndpoint,
				types.DeploymentStatusDownloadingModel,
			},
			store.DeploymentPatch{Status: statusPtr(types.DeploymentStatusLoadingModel)})
		if err == nil {
			c.appendLog(ctx, id, types.LogLevelInfo, "Worker is loading the model onto the GPU")
		} else if !errors.Is(err, store.ErrConflict) && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return nil
	case types.DeploymentStatusFailed:
		message := callback.Message
		if message == "" {
			message = "worker reported a startup failure"
		}
		c.failDeployment(ctx, id, types.NewAPIError(types.ErrorKindProvider, "%s", message))
		return nil
	default:
		return types.NewValidationError("unsupported callback status %q", status)
	}
}
