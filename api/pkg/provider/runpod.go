package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

const runpodRESTBase = "https://api.runpod.ai/v2"

// GraphQL documents for the RunPod serverless endpoint lifecycle.
const (
	mutationSaveEndpoint = `
mutation SaveEndpoint($input: EndpointInput!) {
  saveEndpoint(input: $input) {
    id
    gpuIds
    name
    idleTimeout
    scalerType
    scalerValue
    templateId
    workersMax
    workersMin
  }
}`

	mutationDeleteEndpoint = `
mutation DeleteEndpoint($id: String!) {
  deleteEndpoint(id: $id)
}`

	queryMyselfEndpoints = `
query Endpoints {
  myself {
    endpoints {
      id
      gpuIds
      name
      templateId
      workersMax
      workersMin
    }
  }
}`

	mutationSaveTemplate = `
mutation SaveTemplate($input: SaveTemplateInput!) {
  saveTemplate(input: $input) {
    id
    name
    imageName
    isServerless
    containerDiskInGb
    volumeInGb
  }
}`

	queryMyselfTemplates = `
query Templates {
  myself {
    templates {
      id
      name
      imageName
      isServerless
    }
  }
}`
)

// capacityMarkers are the substrings RunPod uses when a GPU pool has no
// machines left. Matching payload text is how the two-class taxonomy is
// derived; anything else is generic.
var capacityMarkers = []string{
	"no gpu",
	"no instances",
	"instances available",
	"not enough capacity",
	"capacity",
	"unavailable machine",
}

type RunPodOptions struct {
	GraphQLURL  string
	RESTBaseURL string
	Timeout     time.Duration
}

type RunPod struct {
	graphqlURL  string
	restBaseURL string
	client      *retryablehttp.Client
}

func NewRunPod(opts RunPodOptions) *RunPod {
	if opts.GraphQLURL == "" {
		opts.GraphQLURL = "https://api.runpod.io/graphql"
	}
	if opts.RESTBaseURL == "" {
		opts.RESTBaseURL = runpodRESTBase
	}
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 2
	client.RetryWaitMin = time.Second
	client.RetryWaitMax = 4 * time.Second
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}
	return &RunPod{
		graphqlURL:  opts.GraphQLURL,
		restBaseURL: opts.RESTBaseURL,
		client:      client,
	}
}

func (r *RunPod) Name() string { return "runpod" }

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func (r *RunPod) graphql(ctx context.Context, apiKey, query string, variables map[string]any) (json.RawMessage, error) {
	payload := map[string]any{"query": query}
	if variables != nil {
		payload["variables"] = variables
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, r.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runpod api unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var decoded graphqlResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("runpod api HTTP %d: %s", resp.StatusCode, truncate(string(raw), 500))
		}
		return nil, fmt.Errorf("decoding runpod response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, classifyRunPodError(decoded.Errors[0].Message)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("runpod api HTTP %d: %s", resp.StatusCode, truncate(string(raw), 500))
	}
	return decoded.Data, nil
}

// classifyRunPodError maps a GraphQL error payload into the capacity /
// generic taxonomy.
func classifyRunPodError(message string) error {
	lower := strings.ToLower(message)
	for _, marker := range capacityMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", ErrCapacity, message)
		}
	}
	return fmt.Errorf("runpod api error: %s", message)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// RunURL is where inference jobs for a serverless endpoint are submitted.
func (r *RunPod) RunURL(endpointID string) string {
	return fmt.Sprintf("%s/%s/run", r.restBaseURL, endpointID)
}

func (r *RunPod) CreateEndpoint(ctx context.Context, apiKey string, req CreateEndpointRequest) (*Endpoint, error) {
	env := map[string]string{}
	for k, v := range req.Env {
		if v != "" {
			env[k] = v
		}
	}
	input := map[string]any{
		"name":            req.Name,
		"templateId":      req.TemplateID,
		"gpuIds":          req.GPUTierID,
		"idleTimeout":     req.Workers.IdleTimeoutSeconds,
		"locations":       "US",
		"scalerType":      req.Workers.ScalerType,
		"scalerValue":     req.Workers.ScalerValue,
		"workersMin":      req.Workers.WorkersMin,
		"workersMax":      req.Workers.WorkersMax,
		"networkVolumeId": "",
	}
	if len(env) > 0 {
		input["env"] = env
	}

	data, err := r.graphql(ctx, apiKey, mutationSaveEndpoint, map[string]any{"input": input})
	if err != nil {
		return nil, err
	}

	var result struct {
		SaveEndpoint *struct {
			ID string `json:"id"`
		} `json:"saveEndpoint"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding saveEndpoint: %w", err)
	}
	if result.SaveEndpoint == nil || result.SaveEndpoint.ID == "" {
		return nil, fmt.Errorf("runpod saveEndpoint returned no endpoint")
	}

	log.Info().
		Str("endpoint_id", result.SaveEndpoint.ID).
		Str("gpu_tier", req.GPUTierID).
		Str("name", req.Name).
		Msg("runpod endpoint created")

	return &Endpoint{
		ID:  result.SaveEndpoint.ID,
		URL: r.RunURL(result.SaveEndpoint.ID),
	}, nil
}

func (r *RunPod) DeleteEndpoint(ctx context.Context, apiKey, endpointID string) error {
	_, err := r.graphql(ctx, apiKey, mutationDeleteEndpoint, map[string]any{"id": endpointID})
	return err
}

func (r *RunPod) ListEndpoints(ctx context.Context, apiKey string) ([]*EndpointSummary, error) {
	data, err := r.graphql(ctx, apiKey, queryMyselfEndpoints, nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Myself *struct {
			Endpoints []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"endpoints"`
		} `json:"myself"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding endpoints: %w", err)
	}
	var out []*EndpointSummary
	if result.Myself != nil {
		for _, ep := range result.Myself.Endpoints {
			out = append(out, &EndpointSummary{
				ID:   ep.ID,
				Name: ep.Name,
				URL:  r.RunURL(ep.ID),
			})
		}
	}
	return out, nil
}

// GetEndpointStatus reads the serverless health surface, which is the only
// place worker readiness is exposed. Idle workers have the model loaded
// and count as ready.
func (r *RunPod) GetEndpointStatus(ctx context.Context, apiKey, endpointID string) (*EndpointStatus, error) {
	url := fmt.Sprintf("%s/%s/health", r.restBaseURL, endpointID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("runpod health unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &EndpointStatus{Created: false}, nil
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("runpod health HTTP %d: %s", resp.StatusCode, string(body))
	}

	var health struct {
		Workers struct {
			Idle         int `json:"idle"`
			Initializing int `json:"initializing"`
			Ready        int `json:"ready"`
			Running      int `json:"running"`
			Unhealthy    int `json:"unhealthy"`
		} `json:"workers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decoding health: %w", err)
	}

	status := &EndpointStatus{
		Created:      true,
		WorkersReady: health.Workers.Ready + health.Workers.Idle + health.Workers.Running,
	}
	if health.Workers.Unhealthy > 0 {
		status.LastError = fmt.Sprintf("%d unhealthy workers", health.Workers.Unhealthy)
	}
	return status, nil
}

// Template is a RunPod serverless template wrapping the worker image.
type Template struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ImageName    string `json:"imageName"`
	IsServerless bool   `json:"isServerless"`
}

// CreateTemplate registers the inference worker image as a serverless
// template; its id becomes RUNPOD_TEMPLATE_ID.
func (r *RunPod) CreateTemplate(ctx context.Context, apiKey, name, imageName string, containerDiskGB int) (*Template, error) {
	input := map[string]any{
		"name":              name,
		"imageName":         imageName,
		"isServerless":      true,
		"containerDiskInGb": containerDiskGB,
		"volumeInGb":        0,
		"dockerArgs":        "",
		"env":               []any{},
	}
	data, err := r.graphql(ctx, apiKey, mutationSaveTemplate, map[string]any{"input": input})
	if err != nil {
		return nil, err
	}
	var result struct {
		SaveTemplate *Template `json:"saveTemplate"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding saveTemplate: %w", err)
	}
	if result.SaveTemplate == nil {
		return nil, fmt.Errorf("runpod saveTemplate returned no template")
	}
	return result.SaveTemplate, nil
}

func (r *RunPod) ListTemplates(ctx context.Context, apiKey string) ([]*Template, error) {
	data, err := r.graphql(ctx, apiKey, queryMyselfTemplates, nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Myself *struct {
			Templates []*Template `json:"templates"`
		} `json:"myself"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding templates: %w", err)
	}
	if result.Myself == nil {
		return nil, nil
	}
	return result.Myself.Templates, nil
}
