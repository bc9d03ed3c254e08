package visgate

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/visgate/visgate/api/pkg/config"
	"github.com/visgate/visgate/api/pkg/controller"
	"github.com/visgate/visgate/api/pkg/huggingface"
	"github.com/visgate/visgate/api/pkg/notification"
	"github.com/visgate/visgate/api/pkg/provider"
	"github.com/visgate/visgate/api/pkg/server"
	"github.com/visgate/visgate/api/pkg/store"
	"github.com/visgate/visgate/api/pkg/store/memorystore"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the visgate api server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	return serveCmd
}

func serve(ctx context.Context) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load server config: %w", err)
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deploymentStore, err := newStore(ctx, &cfg)
	if err != nil {
		return err
	}

	provider.Register(provider.NewRunPod(provider.RunPodOptions{
		GraphQLURL: cfg.RunPod.GraphQLURL,
	}))

	validator := huggingface.NewValidator(cfg.HuggingFace.BaseURL, cfg.HuggingFace.ValidateTimeout)
	dispatcher := notification.NewWebhookDispatcher(notification.WebhookDispatcherOptions{
		ConnectTimeout: cfg.Webhook.ConnectTimeout,
		TotalTimeout:   cfg.Webhook.TotalTimeout,
		MaxAttempts:    cfg.Webhook.MaxAttempts,
	})

	ctrl, err := controller.NewController(controller.Options{
		Config:     &cfg,
		Store:      deploymentStore,
		Validator:  validator,
		Dispatcher: dispatcher,
	})
	if err != nil {
		return err
	}
	defer ctrl.Stop()

	apiServer, err := server.NewServer(server.Options{
		Config:     &cfg,
		Controller: ctrl,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("host", cfg.WebServer.Host).
		Int("port", cfg.WebServer.Port).
		Msg("visgate api server starting")

	return apiServer.ListenAndServe(ctx)
}

func newStore(ctx context.Context, cfg *config.ServerConfig) (store.Store, error) {
	if cfg.Store.UseMemory || cfg.Store.GCPProjectID == "" {
		log.Warn().Msg("using the in-memory store, deployments will not survive a restart")
		return memorystore.New(), nil
	}
	return store.NewFirestoreStore(ctx, store.FirestoreOptions{
		ProjectID:             cfg.Store.GCPProjectID,
		CollectionPrefix:      cfg.Store.CollectionPrefix,
		CollectionDeployments: cfg.Store.CollectionDeployments,
		CollectionLogs:        cfg.Store.CollectionLogs,
	})
}
