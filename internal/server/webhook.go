package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/teemow/taskbot/internal/auth"
	"github.com/teemow/taskbot/internal/instrumentation"
	"github.com/teemow/taskbot/internal/logging"
	"github.com/teemow/taskbot/internal/telegram"
)

const (
	// WelcomeReply answers the /start command.
	WelcomeReply = "Welcome to the Task Manager Bot! Send me your task queries."

	// FailureReply is sent when a turn fails outright, so the user is never
	// left without an answer.
	FailureReply = "Sorry, something went wrong while processing your message. Please try again."

	// secretTokenHeader is set by Telegram when the webhook was registered
	// with a secret_token.
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

	// maxUpdateBytes bounds the webhook request body.
	maxUpdateBytes = 1 << 20

	// DefaultListenAddr is the default bind address for the webhook server.
	DefaultListenAddr = ":8080"

	// DefaultTurnTimeout bounds one turn end to end, covering both model
	// calls and every storage round-trip.
	DefaultTurnTimeout = 2 * time.Minute
)

// TurnRunner produces one reply for one authorized user message.
type TurnRunner interface {
	RunTurn(ctx context.Context, userID int64, text string) (string, error)
}

// Replier delivers the reply back to the chat.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// WebhookConfig holds the collaborators and knobs for the webhook server.
type WebhookConfig struct {
	// Addr is the bind address, e.g. ":8080".
	Addr string

	// WebhookSecret, when non-empty, must match the secret token header on
	// every delivery.
	WebhookSecret string

	// TurnTimeout bounds the processing of one delivery.
	TurnTimeout time.Duration

	Allowlist *auth.Allowlist
	Runner    TurnRunner
	Replier   Replier
	Metrics   *instrumentation.Metrics
	Logger    *slog.Logger
}

// WebhookServer receives Telegram webhook deliveries and turns each text
// message into exactly one reply. Each delivery is processed on its own
// request goroutine; turns share no mutable state.
type WebhookServer struct {
	config     WebhookConfig
	health     *HealthChecker
	httpServer *http.Server
	logger     *slog.Logger
}

// NewWebhookServer creates the webhook server.
func NewWebhookServer(config WebhookConfig) (*WebhookServer, error) {
	if config.Allowlist == nil {
		return nil, fmt.Errorf("allowlist is required")
	}
	if config.Runner == nil {
		return nil, fmt.Errorf("turn runner is required")
	}
	if config.Replier == nil {
		return nil, fmt.Errorf("replier is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultListenAddr
	}
	if config.TurnTimeout <= 0 {
		config.TurnTimeout = DefaultTurnTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &WebhookServer{
		config: config,
		health: NewHealthChecker(),
		logger: config.Logger,
	}, nil
}

// Handler returns the HTTP handler serving the webhook and health routes.
func (s *WebhookServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/webhook", s.handleUpdate)
	s.health.RegisterRoutes(r)
	return r
}

// Start runs the server until it fails or is shut down.
func (s *WebhookServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// The handler replies to Telegram only after the turn completes, so
		// the write timeout must cover the turn deadline.
		WriteTimeout: s.config.TurnTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.health.SetReady(true)
	s.logger.Info("starting webhook server", slog.String("addr", s.config.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting deliveries and drains in-flight turns.
func (s *WebhookServer) Shutdown(ctx context.Context) error {
	s.health.SetShuttingDown()
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down webhook server")
	return s.httpServer.Shutdown(ctx)
}

// Health exposes the probe state, mainly for the serve command and tests.
func (s *WebhookServer) Health() *HealthChecker {
	return s.health
}

func (s *WebhookServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithOperation(s.logger, "handle_update")

	if s.config.WebhookSecret != "" {
		header := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(header), []byte(s.config.WebhookSecret)) != 1 {
			logger.Warn("webhook secret mismatch", logging.Status(logging.StatusDropped))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err != nil {
		logger.Warn("failed to read webhook body", logging.Err(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	update, err := telegram.ParseUpdate(body)
	if err != nil {
		logger.Warn("failed to parse update", logging.Err(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// Telegram retries deliveries that do not get a 2xx. Everything past
	// parsing acknowledges the delivery regardless of outcome; a failed turn
	// answered with an error status would only replay the same failure.
	s.processUpdate(r.Context(), logger, update)
	s.writeAck(w)
}

func (s *WebhookServer) processUpdate(ctx context.Context, logger *slog.Logger, update telegram.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		logger.Debug("ignoring delivery without text message",
			logging.UpdateID(update.UpdateID),
			logging.Status(logging.StatusDropped))
		s.config.Metrics.RecordTurn(ctx, instrumentation.OutcomeIgnored, 0)
		return
	}

	userID := msg.SenderID()
	if userID == 0 {
		logger.Warn("delivery without sender",
			logging.UpdateID(update.UpdateID),
			logging.Status(logging.StatusDropped))
		s.config.Metrics.RecordTurn(ctx, instrumentation.OutcomeIgnored, 0)
		return
	}

	logger = logger.With(logging.UpdateID(update.UpdateID), logging.UserHash(userID))

	if !s.config.Allowlist.IsAuthorized(userID) {
		// Unauthorized senders get no reply at all.
		logger.Warn("unauthorized sender", logging.Status(logging.StatusDropped))
		s.config.Metrics.RecordTurn(ctx, instrumentation.OutcomeUnauthorized, 0)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.TurnTimeout)
	defer cancel()

	if msg.IsCommand() {
		if msg.Command() == "start" {
			s.reply(ctx, logger, msg.Chat.ID, WelcomeReply)
		} else {
			logger.Debug("ignoring unknown command", logging.Status(logging.StatusDropped))
			s.config.Metrics.RecordTurn(ctx, instrumentation.OutcomeIgnored, 0)
		}
		return
	}

	reply, err := s.config.Runner.RunTurn(ctx, userID, msg.Text)
	if err != nil {
		// The turn failed, but the user still gets an answer.
		logger.Error("turn failed", logging.Status(logging.StatusError), logging.Err(err))
		reply = FailureReply
	}
	s.reply(ctx, logger, msg.Chat.ID, reply)
}

func (s *WebhookServer) reply(ctx context.Context, logger *slog.Logger, chatID int64, text string) {
	if err := s.config.Replier.SendMessage(ctx, chatID, text); err != nil {
		logger.Error("failed to send reply", logging.Status(logging.StatusError), logging.Err(err))
		return
	}
	logger.Info("reply sent", logging.Status(logging.StatusSuccess))
}

func (s *WebhookServer) writeAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
