package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visgate/visgate/api/pkg/types"
)

// fastDispatcher keeps retries but collapses the schedule so tests do not
// sleep for 30 seconds.
func fastDispatcher() *WebhookDispatcher {
	return &WebhookDispatcher{
		client:      &http.Client{Timeout: 2 * time.Second},
		maxAttempts: 3,
		delay: func(uint, error, *retry.Config) time.Duration {
			return time.Millisecond
		},
	}
}

func testPayload() *types.WebhookPayload {
	created := time.Now().UTC().Add(-90 * time.Second)
	ready := time.Now().UTC()
	return BuildPayload(&types.Deployment{
		ID:           "dep_2026_abc123",
		ModelID:      "stabilityai/sdxl-turbo",
		EndpointID:   "ep-123",
		EndpointURL:  "https://api.runpod.ai/v2/ep-123/run",
		GPUAllocated: "NVIDIA A16",
		Status:       types.DeploymentStatusReady,
		Created:      created,
		ReadyAt:      &ready,
	})
}

func TestDeliver_Success(t *testing.T) {
	var received atomic.Int32
	var gotPayload types.WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := fastDispatcher().Deliver(context.Background(), server.URL, testPayload())
	require.NoError(t, err)
	assert.Equal(t, int32(1), received.Load())
	assert.Equal(t, "deployment_ready", gotPayload.Event)
	assert.Equal(t, "dep_2026_abc123", gotPayload.DeploymentID)
	assert.InDelta(t, 90, gotPayload.DurationSeconds, 1)
}

func TestDeliver_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := fastDispatcher().Deliver(context.Background(), server.URL, testPayload())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliver_ClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	err := fastDispatcher().Deliver(context.Background(), server.URL, testPayload())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, types.ErrorKindWebhookDelivery, apiErr.Kind)
}

func TestDeliver_ExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := fastDispatcher().Deliver(context.Background(), server.URL, testPayload())
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBackoffSchedule(t *testing.T) {
	assert.Equal(t, time.Second, backoff(0, nil, nil))
	assert.Equal(t, 5*time.Second, backoff(1, nil, nil))
	assert.Equal(t, 25*time.Second, backoff(2, nil, nil))
}

func TestBuildPayload_UsageExample(t *testing.T) {
	payload := testPayload()
	assert.Equal(t, http.MethodPost, payload.UsageExample.Method)
	assert.Equal(t, "https://api.runpod.ai/v2/ep-123/run", payload.UsageExample.URL)
	assert.Contains(t, payload.UsageExample.Headers, "Authorization")
}
