// Package server is the HTTP edge of the gateway: the public /v1 deployment
// routes, the internal worker readiness callback, and the health probes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/visgate/visgate/api/pkg/config"
	"github.com/visgate/visgate/api/pkg/controller"
	"github.com/visgate/visgate/api/pkg/system"
	"github.com/visgate/visgate/api/pkg/types"
)

const APIPrefix = "/v1"

type Options struct {
	Config     *config.ServerConfig
	Controller *controller.Controller
}

type VisgateAPIServer struct {
	Cfg        *config.ServerConfig
	Controller *controller.Controller

	authMiddleware *authMiddleware
	limiter        *ownerRateLimiter
	router         *mux.Router

	// store poll cadence for the SSE status stream
	streamInterval time.Duration
}

func NewServer(opts Options) (*VisgateAPIServer, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("server requires a config")
	}
	if opts.Controller == nil {
		return nil, fmt.Errorf("server requires a controller")
	}
	return &VisgateAPIServer{
		Cfg:            opts.Config,
		Controller:     opts.Controller,
		authMiddleware: newAuthMiddleware(),
		limiter:        newOwnerRateLimiter(opts.Config.WebServer.RateLimitPerMinute),
		streamInterval: time.Second,
	}, nil
}

func (apiServer *VisgateAPIServer) ListenAndServe(ctx context.Context) error {
	apiServer.registerRoutes()

	srv := &http.Server{
		Addr: fmt.Sprintf("%s:%d", apiServer.Cfg.WebServer.Host, apiServer.Cfg.WebServer.Port),
		// WriteTimeout stays 0 so the SSE status stream can run until the
		// deployment reaches a terminal state.
		WriteTimeout:      0,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
		Handler:           apiServer.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (apiServer *VisgateAPIServer) registerRoutes() {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(errorLoggingMiddleware)

	// probes, no auth
	router.HandleFunc("/health", apiServer.health).Methods(http.MethodGet)
	router.HandleFunc("/readiness", apiServer.readiness).Methods(http.MethodGet)

	// worker callback, guarded by the shared internal secret instead of a
	// caller credential
	internalRouter := router.PathPrefix("/internal").Subrouter()
	internalRouter.Use(apiServer.requireInternalSecret)
	internalRouter.HandleFunc("/deployment-ready/{id}",
		system.Wrapper(apiServer.deploymentReadyCallback)).Methods(http.MethodPost)

	// caller routes need a provider API key
	authRouter := router.PathPrefix(APIPrefix).Subrouter()
	authRouter.Use(apiServer.authMiddleware.extractMiddleware)

	authRouter.HandleFunc("/deployments",
		system.Wrapper(apiServer.createDeployment)).Methods(http.MethodPost)
	authRouter.HandleFunc("/deployments/{id}",
		system.Wrapper(apiServer.getDeployment)).Methods(http.MethodGet)
	authRouter.HandleFunc("/deployments/{id}",
		apiServer.deleteDeployment).Methods(http.MethodDelete)
	authRouter.HandleFunc("/deployments/{id}/stream",
		apiServer.streamDeployment).Methods(http.MethodGet)

	apiServer.router = router
}

func (apiServer *VisgateAPIServer) health(res http.ResponseWriter, _ *http.Request) {
	res.Header().Set("Content-Type", "application/json")
	_, _ = res.Write([]byte(`{"status":"ok"}`))
}

// readiness also checks the store so a broken Firestore connection takes
// the instance out of rotation.
func (apiServer *VisgateAPIServer) readiness(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
	defer cancel()
	if err := apiServer.Controller.Store().Ping(ctx); err != nil {
		system.WriteError(res, types.NewAPIError(types.ErrorKindInternal, "store unavailable: %s", err.Error()))
		return
	}
	res.Header().Set("Content-Type", "application/json")
	_, _ = res.Write([]byte(`{"status":"ready"}`))
}
