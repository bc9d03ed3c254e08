// Package notification delivers user-facing deployment_ready webhooks with
// bounded retries. Nothing in here ever serializes a raw provider key or
// HF token; the payload is built from the stored document only.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/visgate/visgate/api/pkg/types"
)

type WebhookDispatcherOptions struct {
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	MaxAttempts    int
	// RetryDelay overrides the 1s/5s/25s schedule. Nil means the default.
	RetryDelay retry.DelayTypeFunc
}

type WebhookDispatcher struct {
	client      *http.Client
	maxAttempts int
	delay       retry.DelayTypeFunc
}

func NewWebhookDispatcher(opts WebhookDispatcherOptions) *WebhookDispatcher {
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.TotalTimeout == 0 {
		opts.TotalTimeout = 30 * time.Second
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	delay := retry.DelayTypeFunc(backoff)
	if opts.RetryDelay != nil {
		delay = opts.RetryDelay
	}
	return &WebhookDispatcher{
		client: &http.Client{
			Timeout: opts.TotalTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: opts.ConnectTimeout,
				}).DialContext,
			},
		},
		maxAttempts: opts.MaxAttempts,
		delay:       delay,
	}
}

// backoff implements the 1s, 5s, 25s schedule.
func backoff(n uint, _ error, _ *retry.Config) time.Duration {
	delay := time.Second
	for i := uint(0); i < n; i++ {
		delay *= 5
	}
	return delay
}

// Deliver posts the payload to the caller's webhook URL. Network errors and
// retryable statuses (5xx, 408, 429) are retried on the backoff schedule;
// other 4xx are terminal immediately. A non-nil error means every attempt
// failed and the deployment should move to webhook_failed.
func (d *WebhookDispatcher) Deliver(ctx context.Context, url string, payload *types.WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	err = retry.Do(
		func() error {
			return d.post(ctx, url, body)
		},
		retry.Context(ctx),
		retry.Attempts(uint(d.maxAttempts)),
		retry.DelayType(d.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().
				Str("deployment_id", payload.DeploymentID).
				Uint("attempt", n+1).
				Err(err).
				Msg("webhook delivery attempt failed, retrying")
		}),
	)
	if err != nil {
		log.Warn().
			Str("deployment_id", payload.DeploymentID).
			Int("attempts", d.maxAttempts).
			Err(err).
			Msg("webhook delivery failed after retries")
		return types.NewAPIError(types.ErrorKindWebhookDelivery,
			"webhook delivery failed after %d attempts: %s", d.maxAttempts, err.Error())
	}

	log.Info().
		Str("deployment_id", payload.DeploymentID).
		Msg("webhook delivered")
	return nil
}

func (d *WebhookDispatcher) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return fmt.Errorf("webhook target returned HTTP %d", resp.StatusCode)
	default:
		return retry.Unrecoverable(fmt.Errorf("webhook target returned HTTP %d", resp.StatusCode))
	}
}

// BuildPayload assembles the deployment_ready body, including a
// ready-to-run usage example against the new endpoint.
func BuildPayload(deployment *types.Deployment) *types.WebhookPayload {
	readyAt := deployment.Updated
	if deployment.ReadyAt != nil {
		readyAt = *deployment.ReadyAt
	}
	return &types.WebhookPayload{
		Event:           "deployment_ready",
		DeploymentID:    deployment.ID,
		Status:          string(types.DeploymentStatusReady),
		EndpointURL:     deployment.EndpointURL,
		EndpointID:      deployment.EndpointID,
		ModelID:         deployment.ModelID,
		GPUAllocated:    deployment.GPUAllocated,
		CreatedAt:       deployment.Created,
		ReadyAt:         readyAt,
		DurationSeconds: readyAt.Sub(deployment.Created).Seconds(),
		UsageExample: types.UsageExample{
			Method: http.MethodPost,
			URL:    deployment.EndpointURL,
			Headers: map[string]string{
				"Authorization": "Bearer <YOUR_PROVIDER_API_KEY>",
				"Content-Type":  "application/json",
			},
			Body: map[string]any{
				"input": map[string]any{
					"prompt":              "An astronaut riding a horse in photorealistic style",
					"num_inference_steps": 28,
					"guidance_scale":      3.5,
				},
			},
		},
	}
}
