package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/taskbot/internal/assistant"
	"github.com/teemow/taskbot/internal/auth"
	"github.com/teemow/taskbot/internal/config"
	"github.com/teemow/taskbot/internal/instrumentation"
	"github.com/teemow/taskbot/internal/openai"
	"github.com/teemow/taskbot/internal/server"
	"github.com/teemow/taskbot/internal/taskstore"
	"github.com/teemow/taskbot/internal/telegram"
)

func newServeCmd() *cobra.Command {
	var (
		listenAddr     string
		metricsEnabled bool
		metricsAddr    string
		debugMode      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Telegram webhook server",
		Long: `Start the webhook server that receives Telegram updates and answers
authorized users.

Configuration comes from the environment (a .env file in the working
directory is honored):

  TELEGRAM_BOT_TOKEN       Bot API token (required)
  TELEGRAM_WEBHOOK_SECRET  Shared secret for webhook deliveries (optional)
  AUTHORIZED_USERS         Comma-separated numeric Telegram user IDs (required)
  OPENAI_API_KEY           OpenAI API key (required)
  OPENAI_MODEL             Chat model, default gpt-4o
  TASKSTORE_BASE_URL       Task-storage API base URL (required)
  TASKSTORE_JWT_SECRET     HS256 secret for storage bearer tokens (optional)

The webhook endpoint is POST /webhook; health probes are /healthz and
/readyz. Prometheus metrics are served on a dedicated port.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(listenAddr, metricsEnabled, metricsAddr, debugMode)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "Webhook server address. Can also use LISTEN_ADDR env var. Default :8080")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Metrics server address. Can also use METRICS_ADDR env var. Default :9090")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	return cmd
}

func runServe(listenAddr string, metricsEnabled bool, metricsAddr string, debugMode bool) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("instrumentation shutdown failed", "error", err)
		}
	}()

	allowlist := auth.NewAllowlist(cfg.AuthorizedUsers)
	logger.Info("authorization gate loaded", "authorized_users", allowlist.Size())

	store := taskstore.NewClient(cfg.TaskStoreBaseURL, cfg.TaskStoreJWTSecret, cfg.TaskStoreJWTSubject, cfg.StoreTimeout)
	completer := openai.NewClient(cfg.OpenAIAPIKey, cfg.Model, cfg.ModelTimeout)
	bot := telegram.NewClient(telegram.BotAPIBase(cfg.TelegramToken), cfg.TelegramTimeout)

	orchestrator, err := assistant.New(assistant.Config{
		Store:        store,
		Completer:    completer,
		SystemPrompt: cfg.SystemPrompt,
		Metrics:      provider.Metrics(),
		Tracer:       provider.Tracer("assistant"),
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	webhookServer, err := server.NewWebhookServer(server.WebhookConfig{
		Addr:          cfg.ListenAddr,
		WebhookSecret: cfg.WebhookSecret,
		TurnTimeout:   cfg.TurnTimeout,
		Allowlist:     allowlist,
		Runner:        orchestrator,
		Replier:       bot,
		Metrics:       provider.Metrics(),
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create webhook server: %w", err)
	}

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.MetricsAddr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := webhookServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("webhook server stopped with error: %w", err)
		}
		return nil
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer drainCancel()

	if err := webhookServer.Shutdown(drainCtx); err != nil {
		logger.Error("webhook server shutdown failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(drainCtx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}
	return nil
}
