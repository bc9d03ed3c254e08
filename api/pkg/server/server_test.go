package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/visgate/visgate/api/pkg/config"
	"github.com/visgate/visgate/api/pkg/controller"
	"github.com/visgate/visgate/api/pkg/huggingface"
	"github.com/visgate/visgate/api/pkg/notification"
	"github.com/visgate/visgate/api/pkg/provider"
	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/store/memorystore"
	"github.com/visgate/visgate/api/pkg/system"
	"github.com/visgate/visgate/api/pkg/types"
)

type testServer struct {
	api      *VisgateAPIServer
	store    *memorystore.MemoryStore
	provider *provider.MockProvider
}

func newTestServer(t *testing.T, opts ...func(*config.ServerConfig)) *testServer {
	t.Helper()

	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "stabilityai/sdxl-turbo",
			"pipeline_tag": "text-to-image",
			"gated": false,
			"safetensors": {"parameters": {"F16": 3468642724}, "total": 3468642724}
		}`))
	}))
	t.Cleanup(hub.Close)

	cfg := &config.ServerConfig{}
	cfg.WebServer.RateLimitPerMinute = 100
	cfg.WebServer.InternalSecret = "internal-secret"
	cfg.HuggingFace.ValidateTimeout = 2 * time.Second
	cfg.RunPod.CreateTimeout = time.Second
	cfg.RunPod.PollTimeout = time.Second
	cfg.Lifecycle.PhaseBudget = 5 * time.Second
	cfg.Lifecycle.PollInterval = 10 * time.Millisecond
	cfg.Lifecycle.StableWindow = 2
	cfg.Lifecycle.SecretTTL = time.Minute
	cfg.Lifecycle.EstimatedReadySeconds = 180
	for _, opt := range opts {
		opt(cfg)
	}

	mockCtrl := gomock.NewController(t)
	mockProvider := provider.NewMockProvider(mockCtrl)
	mockProvider.EXPECT().Name().Return("runpod").AnyTimes()
	provider.Register(mockProvider)

	db := memorystore.New()
	ctrl, err := controller.NewController(controller.Options{
		Config:     cfg,
		Store:      db,
		Validator:  huggingface.NewValidator(hub.URL, cfg.HuggingFace.ValidateTimeout),
		Dispatcher: notification.NewWebhookDispatcher(notification.WebhookDispatcherOptions{}),
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Stop)

	api, err := NewServer(Options{Config: cfg, Controller: ctrl})
	require.NoError(t, err)
	api.registerRoutes()

	return &testServer{api: api, store: db, provider: mockProvider}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.api.router.ServeHTTP(rec, req)
	return rec
}

func postDeployment(t *testing.T, body map[string]any, key string) *http.Request {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/deployments", bytes.NewReader(encoded))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	return req
}

func validBody() map[string]any {
	return map[string]any{
		"hf_model_id":      "stabilityai/sdxl-turbo",
		"user_webhook_url": "https://example.com/hook",
	}
}

func TestCreateDeployment_Accepted(t *testing.T) {
	ts := newTestServer(t)
	ts.provider.EXPECT().
		CreateEndpoint(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&provider.Endpoint{ID: "ep-1", URL: "https://api.runpod.ai/v2/ep-1/run"}, nil).
		AnyTimes()
	ts.provider.EXPECT().
		GetEndpointStatus(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&provider.EndpointStatus{Created: true, WorkersReady: 0}, nil).
		AnyTimes()

	rec := ts.do(postDeployment(t, validBody(), "rp-key"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted types.DeploymentAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.NotEmpty(t, accepted.DeploymentID)
	assert.Equal(t, types.DeploymentStatusValidating, accepted.Status)
	assert.Equal(t, 180, accepted.EstimatedReadySeconds)
}

func TestCreateDeployment_NoKey(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(postDeployment(t, validBody(), ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateDeployment_KeyViaHeader(t *testing.T) {
	ts := newTestServer(t)
	ts.provider.EXPECT().
		CreateEndpoint(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&provider.Endpoint{ID: "ep-1", URL: "https://api.runpod.ai/v2/ep-1/run"}, nil).
		AnyTimes()
	ts.provider.EXPECT().
		GetEndpointStatus(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&provider.EndpointStatus{Created: true, WorkersReady: 0}, nil).
		AnyTimes()

	encoded, _ := json.Marshal(validBody())
	req := httptest.NewRequest(http.MethodPost, "/v1/deployments", bytes.NewReader(encoded))
	req.Header.Set("X-Provider-Api-Key", "rp-key")
	rec := ts.do(req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCreateDeployment_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		name    string
		mutate  func(map[string]any)
		message string
	}{
		{
			name:   "no model",
			mutate: func(b map[string]any) { delete(b, "hf_model_id") },
		},
		{
			name:   "both model fields",
			mutate: func(b map[string]any) { b["model_name"] = "sdxl" },
		},
		{
			name:   "missing webhook",
			mutate: func(b map[string]any) { delete(b, "user_webhook_url") },
		},
		{
			name:   "webhook not a url",
			mutate: func(b map[string]any) { b["user_webhook_url"] = "not-a-url" },
		},
		{
			name:   "private cache without credentials",
			mutate: func(b map[string]any) { b["cache_scope"] = "private" },
		},
		{
			name:   "s3 fields without private scope",
			mutate: func(b map[string]any) { b["user_s3_url"] = "s3://bucket/model" },
		},
		{
			name:   "bad cache scope",
			mutate: func(b map[string]any) { b["cache_scope"] = "everywhere" },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body := validBody()
			tc.mutate(body)
			rec := ts.do(postDeployment(t, body, "rp-key"))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var apiErr types.APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, types.ErrorKindValidation, apiErr.Kind)
		})
	}
}

func TestCreateDeployment_RateLimited(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.ServerConfig) {
		cfg.WebServer.RateLimitPerMinute = 1
	})
	ts.provider.EXPECT().
		CreateEndpoint(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&provider.Endpoint{ID: "ep-1", URL: "https://api.runpod.ai/v2/ep-1/run"}, nil).
		AnyTimes()
	ts.provider.EXPECT().
		GetEndpointStatus(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&provider.EndpointStatus{Created: true, WorkersReady: 0}, nil).
		AnyTimes()

	first := ts.do(postDeployment(t, validBody(), "rp-key"))
	require.Equal(t, http.StatusAccepted, first.Code)

	second := ts.do(postDeployment(t, validBody(), "rp-key"))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	// a different credential has its own bucket
	other := ts.do(postDeployment(t, validBody(), "other-key"))
	assert.Equal(t, http.StatusAccepted, other.Code)
}

func TestGetDeployment_OwnerScoping(t *testing.T) {
	ts := newTestServer(t)

	ownerHash := system.HashOwnerKey("rp-key")
	_, err := ts.store.CreateDeployment(context.Background(), &types.Deployment{
		ID:        "dep_x",
		OwnerHash: ownerHash,
		ModelID:   "stabilityai/sdxl-turbo",
		Status:    types.DeploymentStatusReady,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/deployments/dep_x", nil)
	req.Header.Set("Authorization", "Bearer rp-key")
	rec := ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot types.DeploymentSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, "dep_x", snapshot.ID)

	// someone else's key sees a 404, not a 403
	req = httptest.NewRequest(http.MethodGet, "/v1/deployments/dep_x", nil)
	req.Header.Set("Authorization", "Bearer other-key")
	rec = ts.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDeployment_Unknown(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/deployments/dep_missing", nil)
	req.Header.Set("Authorization", "Bearer rp-key")
	rec := ts.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDeployment_NoContent(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.store.CreateDeployment(context.Background(), &types.Deployment{
		ID:        "dep_del",
		OwnerHash: system.HashOwnerKey("rp-key"),
		ModelID:   "stabilityai/sdxl-turbo",
		Status:    types.DeploymentStatusReady,
	})
	require.NoError(t, err)

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/v1/deployments/dep_del", nil)
		req.Header.Set("Authorization", "Bearer "+key)
		return ts.do(req)
	}

	rec := send("rp-key")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	// repeated DELETE is 204 every time
	rec = send("rp-key")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	// someone else's key still sees a 404
	rec = send("other-key")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamDeployment_EmitsUntilTerminal(t *testing.T) {
	ts := newTestServer(t)
	ts.api.streamInterval = 10 * time.Millisecond

	_, err := ts.store.CreateDeployment(context.Background(), &types.Deployment{
		ID:        "dep_sse",
		OwnerHash: system.HashOwnerKey("rp-key"),
		ModelID:   "stabilityai/sdxl-turbo",
		Status:    types.DeploymentStatusDownloadingModel,
	})
	require.NoError(t, err)
	require.NoError(t, ts.store.AppendLog(context.Background(), "dep_sse",
		types.LogLevelInfo, "Worker is downloading model weights"))

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/v1/deployments/dep_sse/stream", nil)
		req.Header.Set("Authorization", "Bearer rp-key")
		done <- ts.do(req)
	}()

	// let the stream emit the initial status, then finish the deployment
	time.Sleep(50 * time.Millisecond)
	ready := types.DeploymentStatusReady
	_, err = ts.store.UpdateDeployment(context.Background(), "dep_sse", nil,
		store.DeploymentPatch{Status: &ready})
	require.NoError(t, err)

	select {
	case rec := <-done:
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		assert.Contains(t, body, "event: status")
		assert.Contains(t, body, `"status":"downloading_model"`)
		assert.Contains(t, body, `"status":"ready"`)
		assert.Contains(t, body, "event: log")
		assert.Contains(t, body, "Worker is downloading model weights")
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close after the terminal status")
	}
}

func TestStreamDeployment_UnknownDeployment(t *testing.T) {
	ts := newTestServer(t)
	ts.api.streamInterval = 10 * time.Millisecond

	req := httptest.NewRequest(http.MethodGet, "/v1/deployments/dep_missing/stream", nil)
	req.Header.Set("Authorization", "Bearer rp-key")
	rec := ts.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadyCallback_RequiresSecret(t *testing.T) {
	ts := newTestServer(t)

	body := bytes.NewReader([]byte(`{"status": "ready"}`))
	req := httptest.NewRequest(http.MethodPost, "/internal/deployment-ready/dep_x", body)
	rec := ts.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReadyCallback_MarksReady(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.store.CreateDeployment(context.Background(), &types.Deployment{
		ID:          "dep_cb",
		OwnerHash:   system.HashOwnerKey("rp-key"),
		ModelID:     "stabilityai/sdxl-turbo",
		EndpointID:  "ep-1",
		EndpointURL: "https://api.runpod.ai/v2/ep-1/run",
		Status:      types.DeploymentStatusLoadingModel,
	})
	require.NoError(t, err)

	send := func() *httptest.ResponseRecorder {
		body := bytes.NewReader([]byte(`{"status": "ready"}`))
		req := httptest.NewRequest(http.MethodPost, "/internal/deployment-ready/dep_cb", body)
		req.Header.Set("X-Internal-Secret", "internal-secret")
		return ts.do(req)
	}

	require.Equal(t, http.StatusOK, send().Code)

	deployment, err := ts.store.GetDeploymentByID(context.Background(), "dep_cb")
	require.NoError(t, err)
	assert.Equal(t, types.DeploymentStatusReady, deployment.Status)

	// the duplicate is acknowledged so the worker stops retrying
	require.Equal(t, http.StatusOK, send().Code)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/readiness", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
