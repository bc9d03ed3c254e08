package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type ServerConfig struct {
	WebServer   WebServer
	Store       Store
	RunPod      RunPod
	HuggingFace HuggingFace
	Webhook     Webhook
	Lifecycle   Lifecycle
	SharedCache SharedCache

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	err := envconfig.Process("", &cfg)
	if err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

type WebServer struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"SERVER_PORT" default:"8080"`

	// Base URL of this service as reachable by worker containers and Cloud
	// Tasks, e.g. https://visgate-xyz.run.app
	InternalBaseURL string `envconfig:"INTERNAL_WEBHOOK_BASE_URL"`
	// Shared secret the worker must echo in X-Internal-Secret. Empty
	// disables the check.
	InternalSecret string `envconfig:"INTERNAL_WEBHOOK_SECRET"`

	// Ingress throttle per owner hash for POST /v1/deployments.
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

type Store struct {
	// Empty project ID means the in-memory store.
	GCPProjectID string `envconfig:"GCP_PROJECT_ID"`
	// Force the in-memory store even when a project ID is set.
	UseMemory bool `envconfig:"USE_MEMORY_REPO" default:"false"`

	CollectionPrefix      string `envconfig:"FIRESTORE_COLLECTION_PREFIX"`
	CollectionDeployments string `envconfig:"FIRESTORE_COLLECTION_DEPLOYMENTS" default:"deployments"`
	CollectionLogs        string `envconfig:"FIRESTORE_COLLECTION_LOGS" default:"logs"`
}

type RunPod struct {
	GraphQLURL string `envconfig:"RUNPOD_GRAPHQL_URL" default:"https://api.runpod.io/graphql"`
	// Template referencing the inference worker image in the RunPod console.
	TemplateID string `envconfig:"RUNPOD_TEMPLATE_ID"`
	// Worker image tag, used when creating templates via the CLI.
	DockerImage string `envconfig:"DOCKER_IMAGE" default:"visgate/inference:latest"`

	WorkersMin         int    `envconfig:"RUNPOD_WORKERS_MIN" default:"0"`
	WorkersMax         int    `envconfig:"RUNPOD_WORKERS_MAX" default:"3"`
	IdleTimeoutSeconds int    `envconfig:"RUNPOD_IDLE_TIMEOUT_SECONDS" default:"120"`
	ScalerType         string `envconfig:"RUNPOD_SCALER_TYPE" default:"QUEUE_DELAY"`
	ScalerValue        int    `envconfig:"RUNPOD_SCALER_VALUE" default:"1"`

	CreateTimeout time.Duration `envconfig:"RUNPOD_CREATE_TIMEOUT" default:"30s"`
	PollTimeout   time.Duration `envconfig:"RUNPOD_POLL_TIMEOUT" default:"15s"`
}

type HuggingFace struct {
	BaseURL         string        `envconfig:"HF_API_BASE_URL" default:"https://huggingface.co"`
	ValidateTimeout time.Duration `envconfig:"HF_VALIDATE_TIMEOUT" default:"10s"`
}

type Webhook struct {
	ConnectTimeout time.Duration `envconfig:"WEBHOOK_CONNECT_TIMEOUT" default:"10s"`
	TotalTimeout   time.Duration `envconfig:"WEBHOOK_TOTAL_TIMEOUT" default:"30s"`
	MaxAttempts    int           `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"3"`
}

type Lifecycle struct {
	// Total budget across creating_endpoint / downloading_model /
	// loading_model before the deployment is marked timeout. The provider
	// endpoint is left alive for the owner to delete (their billing
	// account).
	PhaseBudget time.Duration `envconfig:"LIFECYCLE_PHASE_BUDGET" default:"20m"`

	PollInterval time.Duration `envconfig:"READINESS_POLL_INTERVAL" default:"5s"`
	// Consecutive polls with workers_ready >= 1 required before the poller
	// declares the endpoint ready.
	StableWindow int `envconfig:"READINESS_STABLE_WINDOW" default:"2"`

	EstimatedReadySeconds int  `envconfig:"ESTIMATED_READY_SECONDS" default:"180"`
	EnableEndpointReuse   bool `envconfig:"ENABLE_ENDPOINT_REUSE" default:"false"`

	// How long launch secrets are retained in memory for background steps.
	SecretTTL time.Duration `envconfig:"LAUNCH_SECRET_TTL" default:"1h"`
}

type SharedCache struct {
	// Platform-managed read-only model cache passed to workers when
	// cache_scope=shared.
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	AWSEndpointURL     string `envconfig:"AWS_ENDPOINT_URL"`
	S3ModelURL         string `envconfig:"S3_MODEL_URL"`

	// Comma-separated model IDs allowed to use the shared cache.
	AllowedModels string `envconfig:"SHARED_CACHE_ALLOWED_MODELS"`
	// When set, shared-cache requests for unlisted models are downgraded to
	// cache_scope=off instead of served from the shared bucket.
	RejectUnlisted bool `envconfig:"SHARED_CACHE_REJECT_UNLISTED" default:"false"`
}

// AllowsModel reports whether the shared cache may serve the given model.
func (c SharedCache) AllowsModel(modelID string) bool {
	if !c.RejectUnlisted {
		return true
	}
	for _, m := range strings.Split(c.AllowedModels, ",") {
		if strings.TrimSpace(m) == modelID {
			return true
		}
	}
	return false
}
