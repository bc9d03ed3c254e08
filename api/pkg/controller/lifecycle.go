package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/visgate/visgate/api/pkg/gpu"
	"github.com/visgate/visgate/api/pkg/model"
	"github.com/visgate/visgate/api/pkg/provider"
	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/system"
	"github.com/visgate/visgate/api/pkg/types"
)

// CreateDeployment accepts a validated request, persists the initial
// document and dispatches the background lifecycle task. It returns
// immediately; the caller gets a 202.
func (c *Controller) CreateDeployment(ctx context.Context, req *types.DeploymentRequest, ownerHash string, secrets types.LaunchSecrets) (*types.DeploymentAccepted, error) {
	modelID := req.HFModelID
	if modelID == "" {
		resolved, err := model.ResolveAlias(req.ModelName, req.Provider)
		if err != nil {
			return nil, err
		}
		modelID = resolved
	}

	cacheScope := req.CacheScope
	if cacheScope == "" {
		cacheScope = types.CacheScopeOff
	}
	if cacheScope == types.CacheScopeShared && !c.cfg.SharedCache.AllowsModel(modelID) {
		log.Warn().
			Str("model_id", modelID).
			Msg("model not on the shared cache allow-list, downgrading cache_scope to off")
		cacheScope = types.CacheScopeOff
	}

	if c.cfg.Lifecycle.EnableEndpointReuse {
		if existing, err := c.store.FindReusableDeployment(ctx, ownerHash, modelID, req.GPUTier); err == nil {
			c.appendLog(ctx, existing.ID, types.LogLevelInfo, "Reusing existing endpoint for identical fingerprint")
			return &types.DeploymentAccepted{
				DeploymentID:          existing.ID,
				Status:                existing.Status,
				ModelID:               existing.ModelID,
				EstimatedReadySeconds: 0,
				WebhookURL:            existing.WebhookURL,
				Created:               existing.Created,
			}, nil
		}
	}

	now := time.Now().UTC()
	deployment := &types.Deployment{
		ID:             system.GenerateDeploymentID(),
		OwnerHash:      ownerHash,
		ModelID:        modelID,
		ModelNameAlias: req.ModelName,
		ProviderHint:   req.Provider,
		Provider:       "runpod",
		RequestedTier:  req.GPUTier,
		WebhookURL:     req.UserWebhookURL,
		CacheScope:     cacheScope,
		Status:         types.DeploymentStatusValidating,
		Created:        now,
		Updated:        now,
	}

	created, err := c.store.CreateDeployment(ctx, deployment)
	if err != nil {
		return nil, err
	}
	c.secrets.put(created.ID, secrets)
	c.appendLog(ctx, created.ID, types.LogLevelInfo, "Deployment accepted")

	taskCtx, cancel := context.WithCancel(c.rootCtx)
	c.registerTask(created.ID, cancel)
	c.wg.Go(func() {
		defer c.unregisterTask(created.ID)
		c.runDeployment(taskCtx, created.ID)
	})

	return &types.DeploymentAccepted{
		DeploymentID:          created.ID,
		Status:                created.Status,
		ModelID:               created.ModelID,
		EstimatedReadySeconds: c.cfg.Lifecycle.EstimatedReadySeconds,
		WebhookURL:            created.WebhookURL,
		Created:               created.Created,
	}, nil
}

// GetDeployment returns the owner-scoped snapshot with the most recent
// logs.
func (c *Controller) GetDeployment(ctx context.Context, id, ownerHash string) (*types.DeploymentSnapshot, error) {
	deployment, err := c.store.GetDeployment(ctx, id, ownerHash)
	if err != nil {
		return nil, err
	}
	logs, err := c.store.ListLogs(ctx, id, 100)
	if err != nil {
		return nil, err
	}
	return &types.DeploymentSnapshot{Deployment: *deployment, Logs: logs}, nil
}

// runDeployment drives one deployment through the state machine. Every
// transition is a compare-and-set; a mismatch means another actor (delete,
// a duplicate trigger) won and the task unwinds quietly.
func (c *Controller) runDeployment(ctx context.Context, id string) {
	logger := log.With().Str("deployment_id", id).Logger()

	secrets, ok := c.secrets.get(id)
	if !ok {
		c.failDeployment(ctx, id, types.NewAPIError(types.ErrorKindInternal,
			"launch secrets expired before orchestration started"))
		return
	}
	logger.Debug().
		Str("provider_key", system.MaskSecret(secrets.ProviderKey)).
		Bool("hf_token", secrets.HFToken != "").
		Msg("launch secrets loaded")

	deployment, err := c.store.GetDeploymentByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msg("deployment document missing at orchestration start")
		return
	}

	prov, err := provider.Get(deployment.Provider)
	if err != nil {
		c.failDeployment(ctx, id, types.NewAPIError(types.ErrorKindProvider, "%s", err.Error()))
		return
	}

	// 1. validate the model against the hub
	c.appendLog(ctx, id, types.LogLevelInfo, "Validating Hugging Face model")
	hfCtx, cancel := context.WithTimeout(ctx, c.cfg.HuggingFace.ValidateTimeout)
	meta, err := c.validator.Validate(hfCtx, deployment.ModelID, secrets.HFToken)
	cancel()
	if err != nil {
		c.failDeployment(ctx, id, err)
		return
	}
	if meta.Gated && secrets.HFToken == "" {
		c.failDeployment(ctx, id, types.NewModelGatedError(deployment.ModelID))
		return
	}

	minVRAM, err := model.MinVRAMFor(deployment.ModelID, meta.Parameters)
	if err != nil {
		c.failDeployment(ctx, id, err)
		return
	}
	c.appendLog(ctx, id, types.LogLevelInfo,
		fmt.Sprintf("Model validated, minimum GPU memory %d GB", minVRAM))

	// 2. select GPU candidates, cheapest first
	if _, err := c.transition(ctx, id,
		[]types.DeploymentStatus{types.DeploymentStatusValidating},
		store.DeploymentPatch{
			Status:    statusPtr(types.DeploymentStatusSelectingGPU),
			MinVRAMGB: &minVRAM,
		}); err != nil {
		return
	}

	candidates, err := gpu.SelectCandidates(minVRAM, deployment.RequestedTier)
	if err != nil {
		c.failDeployment(ctx, id, err)
		return
	}
	c.appendLog(ctx, id, types.LogLevelInfo,
		fmt.Sprintf("Selected GPU %s (%d candidates)", candidates[0].DisplayName, len(candidates)))

	if _, err := c.transition(ctx, id,
		[]types.DeploymentStatus{types.DeploymentStatusSelectingGPU},
		store.DeploymentPatch{
			Status:       statusPtr(types.DeploymentStatusCreatingEndpoint),
			ResolvedTier: &candidates[0].TierID,
			GPUAllocated: strPtr(candidates[0].DisplayName),
		}); err != nil {
		return
	}

	// 3. create the endpoint, walking the candidate list on capacity errors
	deadline := time.Now().Add(c.cfg.Lifecycle.PhaseBudget)
	endpoint, chosen, attempts, err := c.createWithFallback(ctx, id, prov, secrets, candidates)
	if err != nil {
		if provider.IsCapacity(err) || errors.Is(err, errCandidatesExhausted) {
			summary := attemptSummary(attempts)
			c.failDeployment(ctx, id,
				types.NewInsufficientGPUError(minVRAM).WithDetail("attempted_tiers", summary))
			return
		}
		if ctx.Err() != nil {
			// delete won the race; it owns the terminal transition
			return
		}
		c.failDeployment(ctx, id, types.NewAPIError(types.ErrorKindProvider, "%s", err.Error()))
		return
	}

	if _, err := c.transition(ctx, id,
		[]types.DeploymentStatus{types.DeploymentStatusCreatingEndpoint},
		store.DeploymentPatch{
			Status:       statusPtr(types.DeploymentStatusDownloadingModel),
			ResolvedTier: &chosen.TierID,
			GPUAllocated: strPtr(chosen.DisplayName),
			EndpointID:   &endpoint.ID,
			EndpointURL:  &endpoint.URL,
			Attempts:     attempts,
		}); err != nil {
		return
	}
	c.appendLog(ctx, id, types.LogLevelInfo,
		fmt.Sprintf("Endpoint %s created on %s, worker starting", endpoint.ID, chosen.DisplayName))

	// 4. wait for the worker, via callback or polling, whichever first
	c.waitForReady(ctx, id, prov, secrets.ProviderKey, endpoint.ID, deadline)
}

var errCandidatesExhausted = errors.New("gpu candidates exhausted")

// createWithFallback walks the cost-ordered candidate list. Capacity
// errors record an attempt and move on; any other provider error aborts.
func (c *Controller) createWithFallback(
	ctx context.Context,
	id string,
	prov provider.Provider,
	secrets types.LaunchSecrets,
	candidates []gpu.Spec,
) (*provider.Endpoint, gpu.Spec, []types.GPUAttempt, error) {
	var attempts []types.GPUAttempt

	deployment, err := c.store.GetDeploymentByID(ctx, id)
	if err != nil {
		return nil, gpu.Spec{}, nil, err
	}
	env := c.buildWorkerEnv(deployment, secrets)

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return nil, gpu.Spec{}, attempts, ctx.Err()
		}

		createCtx, cancel := context.WithTimeout(ctx, c.cfg.RunPod.CreateTimeout)
		endpoint, err := prov.CreateEndpoint(createCtx, secrets.ProviderKey, provider.CreateEndpointRequest{
			Name:       provider.EndpointName(id),
			GPUTierID:  candidate.TierID,
			Image:      c.cfg.RunPod.DockerImage,
			TemplateID: c.cfg.RunPod.TemplateID,
			Env:        env,
			Workers: provider.WorkerConfig{
				WorkersMin:         c.cfg.RunPod.WorkersMin,
				WorkersMax:         c.cfg.RunPod.WorkersMax,
				IdleTimeoutSeconds: c.cfg.RunPod.IdleTimeoutSeconds,
				ScalerType:         c.cfg.RunPod.ScalerType,
				ScalerValue:        c.cfg.RunPod.ScalerValue,
			},
		})
		cancel()
		if err == nil {
			return endpoint, candidate, attempts, nil
		}
		if !provider.IsCapacity(err) {
			return nil, gpu.Spec{}, attempts, err
		}

		attempts = append(attempts, types.GPUAttempt{
			TierID: candidate.TierID,
			Reason: err.Error(),
		})
		c.appendLog(ctx, id, types.LogLevelWarn,
			fmt.Sprintf("No capacity on %s, trying next tier", candidate.DisplayName))
		// keep the audit trail durable even if we fail later
		_, _ = c.store.UpdateDeployment(ctx, id,
			[]types.DeploymentStatus{types.DeploymentStatusCreatingEndpoint},
			store.DeploymentPatch{Attempts: attempts})
	}
	return nil, gpu.Spec{}, attempts, errCandidatesExhausted
}

// buildWorkerEnv assembles the container environment: the model, optional
// token, the inbound readiness callback and cache configuration.
func (c *Controller) buildWorkerEnv(deployment *types.Deployment, secrets types.LaunchSecrets) map[string]string {
	env := map[string]string{
		"HF_MODEL_ID": deployment.ModelID,
	}
	if secrets.HFToken != "" {
		env["HF_TOKEN"] = secrets.HFToken
	}
	if base := c.cfg.WebServer.InternalBaseURL; base != "" {
		env["VISGATE_WEBHOOK"] = fmt.Sprintf("%s/internal/deployment-ready/%s",
			strings.TrimSuffix(base, "/"), deployment.ID)
		if c.cfg.WebServer.InternalSecret != "" {
			env["VISGATE_WEBHOOK_SECRET"] = c.cfg.WebServer.InternalSecret
		}
	}

	switch deployment.CacheScope {
	case types.CacheScopeShared:
		shared := c.cfg.SharedCache
		if shared.S3ModelURL != "" {
			env["S3_MODEL_URL"] = shared.S3ModelURL
			env["AWS_ACCESS_KEY_ID"] = shared.AWSAccessKeyID
			env["AWS_SECRET_ACCESS_KEY"] = shared.AWSSecretAccessKey
			env["AWS_ENDPOINT_URL"] = shared.AWSEndpointURL
		}
	case types.CacheScopePrivate:
		if s3 := secrets.S3Cache; s3 != nil {
			env["S3_MODEL_URL"] = s3.ModelURL
			env["AWS_ACCESS_KEY_ID"] = s3.AccessKeyID
			env["AWS_SECRET_ACCESS_KEY"] = s3.SecretAccessKey
			env["AWS_ENDPOINT_URL"] = s3.EndpointURL
		}
	}
	return env
}

// failDeployment moves a deployment to failed from any non-terminal
// status and records the cause. Conflicts mean a terminal state already
// won; those are left alone.
func (c *Controller) failDeployment(ctx context.Context, id string, cause error) {
	apiErr := system.AsAPIError(cause)
	_, err := c.store.UpdateDeployment(ctx, id,
		[]types.DeploymentStatus{
			types.DeploymentStatusValidating,
			types.DeploymentStatusSelectingGPU,
			types.DeploymentStatusCreatingEndpoint,
			types.DeploymentStatusDownloadingModel,
			types.DeploymentStatusLoadingModel,
		},
		store.DeploymentPatch{
			Status: statusPtr(types.DeploymentStatusFailed),
			Error: &types.DeploymentError{
				Kind:    apiErr.Kind,
				Message: apiErr.Message,
			},
		})
	if err != nil {
		if !errors.Is(err, store.ErrConflict) {
			log.Error().Str("deployment_id", id).Err(err).Msg("recording deployment failure")
		}
		return
	}
	c.appendLog(ctx, id, types.LogLevelError, apiErr.Message)
	c.secrets.clear(id)
}

// transition is a CAS status move; an ErrConflict unwinds the caller
// silently because another actor owns the deployment now.
func (c *Controller) transition(ctx context.Context, id string, expected []types.DeploymentStatus, patch store.DeploymentPatch) (*types.Deployment, error) {
	updated, err := c.store.UpdateDeployment(ctx, id, expected, patch)
	if err != nil {
		if !errors.Is(err, store.ErrConflict) && !errors.Is(err, store.ErrNotFound) {
			log.Error().Str("deployment_id", id).Err(err).Msg("state transition failed")
		}
		return nil, err
	}
	if patch.Status != nil {
		c.appendLog(ctx, id, types.LogLevelInfo, fmt.Sprintf("Status: %s", *patch.Status))
	}
	return updated, nil
}

func attemptSummary(attempts []types.GPUAttempt) string {
	tiers := make([]string, len(attempts))
	for i, a := range attempts {
		tiers[i] = a.TierID
	}
	return strings.Join(tiers, ", ")
}

func statusPtr(s types.DeploymentStatus) *types.DeploymentStatus { return &s }
func strPtr(s string) *string                                    { return &s }
