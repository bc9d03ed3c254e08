// Package huggingface validates model IDs against the Hugging Face hub and
// extracts the metadata the VRAM estimator needs.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/visgate/visgate/api/pkg/types"
)

// Metadata is the validated shape of one hub model.
type Metadata struct {
	ModelID     string
	PipelineTag string
	Gated       bool
	// safetensors dtype -> parameter count, nil when the hub does not
	// expose it.
	Parameters map[string]int64
	// raw parameter total, 0 when unknown.
	TotalParams int64
}

type modelInfoResponse struct {
	ID          string          `json:"id"`
	PipelineTag string          `json:"pipeline_tag"`
	Gated       json.RawMessage `json:"gated"`
	Safetensors *struct {
		Parameters map[string]int64 `json:"parameters"`
		Total      int64            `json:"total"`
	} `json:"safetensors"`
}

// The hub encodes gated as false | "auto" | "manual".
func (r *modelInfoResponse) gated() bool {
	if len(r.Gated) == 0 {
		return false
	}
	return !bytes.Equal(bytes.TrimSpace(r.Gated), []byte("false"))
}

type Validator struct {
	baseURL string
	client  *retryablehttp.Client
}

func NewValidator(baseURL string, timeout time.Duration) *Validator {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	return &Validator{
		baseURL: baseURL,
		client:  client,
	}
}

// Validate confirms the model exists and is accessible with the optional
// token, returning its metadata. Transient hub failures surface as
// internal errors after the client's own retries; access problems map to
// the model_* error kinds.
func (v *Validator) Validate(ctx context.Context, modelID string, token string) (*Metadata, error) {
	url := fmt.Sprintf("%s/api/models/%s", v.baseURL, modelID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, types.NewAPIError(types.ErrorKindInternal,
			"hugging face hub unreachable: %s", err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, types.NewModelNotFoundError(modelID)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, types.NewModelGatedError(modelID)
	case resp.StatusCode == http.StatusForbidden:
		if token == "" {
			return nil, types.NewModelGatedError(modelID)
		}
		return nil, types.NewAPIError(types.ErrorKindModelAccessDenied,
			"access denied for model %s: the supplied hf_token does not grant access", modelID).
			WithDetail("hf_model_id", modelID)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.NewAPIError(types.ErrorKindInternal,
			"hugging face hub returned %d: %s", resp.StatusCode, string(body))
	}

	var info modelInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, types.NewAPIError(types.ErrorKindInternal,
			"decoding hub response for %s: %s", modelID, err.Error())
	}

	meta := &Metadata{
		ModelID:     modelID,
		PipelineTag: info.PipelineTag,
		Gated:       info.gated(),
	}
	if info.Safetensors != nil {
		meta.Parameters = info.Safetensors.Parameters
		meta.TotalParams = info.Safetensors.Total
	}

	log.Debug().
		Str("hf_model_id", modelID).
		Str("pipeline_tag", meta.PipelineTag).
		Bool("gated", meta.Gated).
		Int64("total_params", meta.TotalParams).
		Msg("validated hugging face model")

	return meta, nil
}
