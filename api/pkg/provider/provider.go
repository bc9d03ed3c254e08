// Package provider abstracts the serverless GPU platforms that host
// inference endpoints. The lifecycle engine only sees this interface; the
// RunPod adapter is the default implementation.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrCapacity marks endpoint-creation failures caused by the provider
// having no machines of the requested GPU tier. Only these errors drive
// the cost-ordered fallback; they never cross the HTTP boundary.
var ErrCapacity = errors.New("provider capacity exhausted")

// IsCapacity reports whether err is a capacity-class provider failure.
func IsCapacity(err error) bool {
	return errors.Is(err, ErrCapacity)
}

// WorkerConfig is the scaling shape injected into every endpoint.
type WorkerConfig struct {
	WorkersMin         int
	WorkersMax         int
	IdleTimeoutSeconds int
	ScalerType         string
	ScalerValue        int
}

// CreateEndpointRequest describes one endpoint to provision.
type CreateEndpointRequest struct {
	Name       string
	GPUTierID  string
	Image      string
	TemplateID string
	Env        map[string]string
	Workers    WorkerConfig
}

type Endpoint struct {
	ID  string
	URL string
}

type EndpointSummary struct {
	ID   string
	Name string
	URL  string
}

// EndpointStatus is the polled view of a provisioned endpoint.
type EndpointStatus struct {
	Created      bool
	WorkersReady int
	LastError    string
}

//go:generate mockgen -source $GOFILE -destination provider_mocks.go -package $GOPACKAGE

type Provider interface {
	Name() string
	CreateEndpoint(ctx context.Context, apiKey string, req CreateEndpointRequest) (*Endpoint, error)
	DeleteEndpoint(ctx context.Context, apiKey, endpointID string) error
	ListEndpoints(ctx context.Context, apiKey string) ([]*EndpointSummary, error)
	GetEndpointStatus(ctx context.Context, apiKey, endpointID string) (*EndpointStatus, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Provider{}
)

// Register makes a provider available by name. Called at bootstrap; the
// orchestrator does not care who runs the pod.
func Register(p Provider) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(p.Name())] = p
}

// Get returns a registered provider, defaulting to runpod for an empty
// name.
func Get(name string) (Provider, error) {
	if name == "" {
		name = "runpod"
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("provider %q is not registered", name)
	}
	return p, nil
}
