package types

import (
	"time"
)

type DeploymentStatus string

const (
	DeploymentStatusValidating       DeploymentStatus = "validating"
	DeploymentStatusSelectingGPU     DeploymentStatus = "selecting_gpu"
	DeploymentStatusCreatingEndpoint DeploymentStatus = "creating_endpoint"
	DeploymentStatusDownloadingModel DeploymentStatus = "downloading_model"
	DeploymentStatusLoadingModel     DeploymentStatus = "loading_model"
	DeploymentStatusReady            DeploymentStatus = "ready"
	DeploymentStatusFailed           DeploymentStatus = "failed"
	DeploymentStatusWebhookFailed    DeploymentStatus = "webhook_failed"
	DeploymentStatusDeleted          DeploymentStatus = "deleted"
	DeploymentStatusTimeout          DeploymentStatus = "timeout"
)

// WaitingStatuses are the statuses during which the endpoint is being
// provisioned and the readiness monitor is allowed to move the deployment
// forward. Both the inbound callback and the poller CAS against this set.
var WaitingStatuses = []DeploymentStatus{
	DeploymentStatusCreatingEndpoint,
	DeploymentStatusDownloadingModel,
	DeploymentStatusLoadingModel,
}

// IsTerminal reports whether no further lifecycle work happens for the status.
// webhook_failed is terminal: the endpoint is ready, only the notification
// was lost.
func (s DeploymentStatus) IsTerminal() bool {
	switch s {
	case DeploymentStatusReady,
		DeploymentStatusFailed,
		DeploymentStatusWebhookFailed,
		DeploymentStatusDeleted,
		DeploymentStatusTimeout:
		return true
	}
	return false
}

func (s DeploymentStatus) IsWaiting() bool {
	for _, w := range WaitingStatuses {
		if s == w {
			return true
		}
	}
	return false
}

type CacheScope string

const (
	CacheScopeOff     CacheScope = "off"
	CacheScopeShared  CacheScope = "shared"
	CacheScopePrivate CacheScope = "private"
)

type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// GPUAttempt records one endpoint-creation attempt for the capacity
// fallback audit trail.
type GPUAttempt struct {
	TierID string `json:"tier_id" firestore:"tier_id"`
	Reason string `json:"reason" firestore:"reason"`
}

// DeploymentError is the terminal error attached to a deployment that did
// not reach ready.
type DeploymentError struct {
	Kind    ErrorKind `json:"kind" firestore:"kind"`
	Message string    `json:"message" firestore:"message"`
}

// S3CacheConfig carries caller-owned object storage credentials for
// cache_scope=private. It is passed to the worker as environment variables
// and is never written to the store.
type S3CacheConfig struct {
	AccessKeyID     string `json:"aws_access_key_id"`
	SecretAccessKey string `json:"aws_secret_access_key"`
	EndpointURL     string `json:"aws_endpoint_url"`
	ModelURL        string `json:"user_s3_url"`
}

// Deployment is the central entity: one caller request to run a model on a
// rented GPU and the lifecycle that fulfills it. The document never contains
// raw provider keys or HF tokens, only the owner hash.
type Deployment struct {
	ID             string `json:"deployment_id" firestore:"id"`
	OwnerHash      string `json:"owner_hash" firestore:"owner_hash"`
	ModelID        string `json:"model_id" firestore:"model_id"`
	ModelNameAlias string `json:"model_name_alias,omitempty" firestore:"model_name_alias,omitempty"`
	ProviderHint   string `json:"provider_hint,omitempty" firestore:"provider_hint,omitempty"`

	Provider      string `json:"provider" firestore:"provider"`
	RequestedTier string `json:"requested_tier,omitempty" firestore:"requested_tier,omitempty"`
	ResolvedTier  string `json:"resolved_tier,omitempty" firestore:"resolved_tier,omitempty"`
	GPUAllocated  string `json:"gpu_allocated,omitempty" firestore:"gpu_allocated,omitempty"`
	MinVRAMGB     int    `json:"min_vram_gb,omitempty" firestore:"min_vram_gb,omitempty"`

	EndpointID  string `json:"endpoint_id,omitempty" firestore:"endpoint_id,omitempty"`
	EndpointURL string `json:"endpoint_url,omitempty" firestore:"endpoint_url,omitempty"`

	WebhookURL string     `json:"webhook_url" firestore:"webhook_url"`
	CacheScope CacheScope `json:"cache_scope" firestore:"cache_scope"`

	Status DeploymentStatus `json:"status" firestore:"status"`
	Error  *DeploymentError `json:"error,omitempty" firestore:"error,omitempty"`

	Attempts []GPUAttempt `json:"attempts,omitempty" firestore:"attempts,omitempty"`

	Created time.Time  `json:"created_at" firestore:"created_at"`
	Updated time.Time  `json:"updated_at" firestore:"updated_at"`
	ReadyAt *time.Time `json:"ready_at,omitempty" firestore:"ready_at,omitempty"`
}

// LogEntry is one append-only audit line parented by a deployment.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	Level     LogLevel  `json:"level" firestore:"level"`
	Message   string    `json:"message" firestore:"message"`
}

// LaunchSecrets are the request-scoped credentials needed while a
// deployment's lifecycle runs. They live in the controller's in-memory
// cache only.
type LaunchSecrets struct {
	ProviderKey string
	HFToken     string
	S3Cache     *S3CacheConfig
}

// DeploymentRequest is the POST /v1/deployments body. Exactly one of
// HFModelID / ModelName must be set.
type DeploymentRequest struct {
	HFModelID      string `json:"hf_model_id,omitempty"`
	ModelName      string `json:"model_name,omitempty"`
	Provider       string `json:"provider,omitempty"`
	UserWebhookURL string `json:"user_webhook_url"`
	GPUTier        string `json:"gpu_tier,omitempty"`
	HFToken        string `json:"hf_token,omitempty"`

	CacheScope         CacheScope `json:"cache_scope,omitempty"`
	UserS3URL          string     `json:"user_s3_url,omitempty"`
	UserAWSAccessKeyID string     `json:"user_aws_access_key_id,omitempty"`
	UserAWSSecretKey   string     `json:"user_aws_secret_access_key,omitempty"`
	UserAWSEndpointURL string     `json:"user_aws_endpoint_url,omitempty"`
}

// DeploymentAccepted is the 202 response for POST /v1/deployments.
type DeploymentAccepted struct {
	DeploymentID          string           `json:"deployment_id"`
	Status                DeploymentStatus `json:"status"`
	ModelID               string           `json:"model_id"`
	EstimatedReadySeconds int              `json:"estimated_ready_seconds"`
	WebhookURL            string           `json:"webhook_url"`
	Created               time.Time        `json:"created_at"`
}

// DeploymentSnapshot is the GET /v1/deployments/{id} response: the document
// plus the most recent log entries.
type DeploymentSnapshot struct {
	Deployment
	Logs []*LogEntry `json:"logs"`
}

// ReadyCallback is the body the worker container posts to
// /internal/deployment-ready/{id}. Status defaults to "ready".
type ReadyCallback struct {
	Status      DeploymentStatus `json:"status,omitempty"`
	Message     string           `json:"message,omitempty"`
	EndpointURL string           `json:"endpoint_url,omitempty"`
}

// UsageExample is a ready-to-run request template included in the webhook
// payload so the caller can hit the endpoint immediately.
type UsageExample struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    map[string]any    `json:"body"`
}

// WebhookPayload is the deployment_ready notification body.
type WebhookPayload struct {
	Event           string       `json:"event"`
	DeploymentID    string       `json:"deployment_id"`
	Status          string       `json:"status"`
	EndpointURL     string       `json:"endpoint_url"`
	EndpointID      string       `json:"endpoint_id"`
	ModelID         string       `json:"model_id"`
	GPUAllocated    string       `json:"gpu_allocated"`
	CreatedAt       time.Time    `json:"created_at"`
	ReadyAt         time.Time    `json:"ready_at"`
	DurationSeconds float64      `json:"duration_seconds"`
	UsageExample    UsageExample `json:"usage_example"`
}
