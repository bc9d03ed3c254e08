package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/system"
	"github.com/visgate/visgate/api/pkg/types"
)

// createDeployment godoc
// POST /v1/deployments: accept the request, persist the document and kick
// off the background lifecycle. Responds 202 before any provider work.
func (apiServer *VisgateAPIServer) createDeployment(res http.ResponseWriter, req *http.Request) (*types.DeploymentAccepted, *types.APIError) {
	c := getCaller(req)

	if !apiServer.limiter.allow(c.OwnerHash) {
		res.Header().Set("Retry-After", "60")
		return nil, types.NewRateLimitError(60)
	}

	var body types.DeploymentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return nil, types.NewValidationError("invalid JSON body: %s", err.Error())
	}
	if apiErr := validateDeploymentRequest(&body); apiErr != nil {
		return nil, apiErr
	}

	secrets := types.LaunchSecrets{
		ProviderKey: c.ProviderKey,
		HFToken:     body.HFToken,
	}
	if body.CacheScope == types.CacheScopePrivate {
		secrets.S3Cache = &types.S3CacheConfig{
			AccessKeyID:     body.UserAWSAccessKeyID,
			SecretAccessKey: body.UserAWSSecretKey,
			EndpointURL:     body.UserAWSEndpointURL,
			ModelURL:        body.UserS3URL,
		}
	}

	accepted, err := apiServer.Controller.CreateDeployment(req.Context(), &body, c.OwnerHash, secrets)
	if err != nil {
		return nil, system.AsAPIError(err)
	}

	res.WriteHeader(http.StatusAccepted)
	return accepted, nil
}

func validateDeploymentRequest(body *types.DeploymentRequest) *types.APIError {
	if body.HFModelID == "" && body.ModelName == "" {
		return types.NewValidationError("one of hf_model_id or model_name is required")
	}
	if body.HFModelID != "" && body.ModelName != "" {
		return types.NewValidationError("hf_model_id and model_name are mutually exclusive")
	}
	if body.UserWebhookURL == "" {
		return types.NewValidationError("user_webhook_url is required")
	}
	parsed, err := url.Parse(body.UserWebhookURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return types.NewValidationError("user_webhook_url must be an absolute http(s) URL")
	}

	switch body.CacheScope {
	case "", types.CacheScopeOff, types.CacheScopeShared:
		if body.UserS3URL != "" || body.UserAWSAccessKeyID != "" ||
			body.UserAWSSecretKey != "" || body.UserAWSEndpointURL != "" {
			return types.NewValidationError("user S3 cache fields require cache_scope=private")
		}
	case types.CacheScopePrivate:
		if body.UserS3URL == "" || body.UserAWSAccessKeyID == "" || body.UserAWSSecretKey == "" {
			return types.NewValidationError(
				"cache_scope=private requires user_s3_url, user_aws_access_key_id and user_aws_secret_access_key")
		}
	default:
		return types.NewValidationError("cache_scope must be one of off, shared, private")
	}
	return nil
}

// getDeployment godoc
// GET /v1/deployments/{id}: the owner-scoped document plus recent logs.
func (apiServer *VisgateAPIServer) getDeployment(_ http.ResponseWriter, req *http.Request) (*types.DeploymentSnapshot, *types.APIError) {
	c := getCaller(req)
	id := mux.Vars(req)["id"]

	snapshot, err := apiServer.Controller.GetDeployment(req.Context(), id, c.OwnerHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, types.NewDeploymentNotFoundError(id)
		}
		return nil, system.AsAPIError(err)
	}
	return snapshot, nil
}

// deleteDeployment godoc
// DELETE /v1/deployments/{id}: idempotent teardown using the key from this
// request for the provider call. Responds 204 with no body, repeat calls
// included.
func (apiServer *VisgateAPIServer) deleteDeployment(res http.ResponseWriter, req *http.Request) {
	c := getCaller(req)
	id := mux.Vars(req)["id"]

	_, err := apiServer.Controller.DeleteDeployment(req.Context(), id, c.OwnerHash, c.ProviderKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			system.WriteError(res, types.NewDeploymentNotFoundError(id))
			return
		}
		system.WriteError(res, system.AsAPIError(err))
		return
	}
	res.WriteHeader(http.StatusNoContent)
}

type callbackResponse struct {
	Status string `json:"status"`
}

// deploymentReadyCallback godoc
// POST /internal/deployment-ready/{id}: the worker container's phase
// reports. Duplicate or stale reports are acknowledged, not erred: the
// worker retries on non-2xx and must not loop on a race it already lost.
func (apiServer *VisgateAPIServer) deploymentReadyCallback(_ http.ResponseWriter, req *http.Request) (*callbackResponse, *types.APIError) {
	id := mux.Vars(req)["id"]

	var callback types.ReadyCallback
	if err := json.NewDecoder(req.Body).Decode(&callback); err != nil {
		return nil, types.NewValidationError("invalid JSON body: %s", err.Error())
	}

	if err := apiServer.Controller.HandleReadyCallback(req.Context(), id, &callback); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, types.NewDeploymentNotFoundError(id)
		}
		return nil, system.AsAPIError(err)
	}
	return &callbackResponse{Status: "accepted"}, nil
}

// parseLimit reads an optional ?limit= query parameter with a default.
func parseLimit(req *http.Request, fallback int) int {
	raw := req.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
