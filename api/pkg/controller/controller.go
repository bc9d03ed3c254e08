// Package controller is the deployment lifecycle engine: it drives each
// deployment from acceptance through GPU selection and endpoint creation to
// ready (or a terminal failure), one background task per deployment.
package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/visgate/visgate/api/pkg/config"
	"github.com/visgate/visgate/api/pkg/huggingface"
	"github.com/visgate/visgate/api/pkg/notification"
	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/types"
)

type Options struct {
	Config     *config.ServerConfig
	Store      store.Store
	Validator  *huggingface.Validator
	Dispatcher *notification.WebhookDispatcher
}

type Controller struct {
	cfg        *config.ServerConfig
	store      store.Store
	validator  *huggingface.Validator
	dispatcher *notification.WebhookDispatcher
	secrets    *secretCache

	// one cancel func per running lifecycle task, keyed by deployment id
	tasksMu sync.Mutex
	tasks   map[string]context.CancelFunc

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         conc.WaitGroup
}

func NewController(opts Options) (*Controller, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("controller requires a config")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("controller requires a store")
	}
	if opts.Validator == nil {
		return nil, fmt.Errorf("controller requires a validator")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("controller requires a webhook dispatcher")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:        opts.Config,
		store:      opts.Store,
		validator:  opts.Validator,
		dispatcher: opts.Dispatcher,
		secrets:    newSecretCache(opts.Config.Lifecycle.SecretTTL),
		tasks:      map[string]context.CancelFunc{},
		rootCtx:    ctx,
		rootCancel: cancel,
	}, nil
}

// Stop cancels every running lifecycle task and waits for them to unwind.
func (c *Controller) Stop() {
	c.rootCancel()
	c.wg.Wait()
}

// Store exposes the backing store for read paths (server readiness probe,
// SSE status stream).
func (c *Controller) Store() store.Store {
	return c.store
}

func (c *Controller) registerTask(id string, cancel context.CancelFunc) {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()
	c.tasks[id] = cancel
}

func (c *Controller) unregisterTask(id string) {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()
	delete(c.tasks, id)
}

// cancelTask signals the lifecycle task for a deployment, if one is
// running in this process. Returns false otherwise.
func (c *Controller) cancelTask(id string) bool {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()
	cancel, ok := c.tasks[id]
	if ok {
		cancel()
	}
	return ok
}

// appendLog writes one audit entry, dropping the error: a failed log append
// must never change the lifecycle outcome.
func (c *Controller) appendLog(ctx context.Context, id string, level types.LogLevel, message string) {
	_ = c.store.AppendLog(ctx, id, level, message)
}
