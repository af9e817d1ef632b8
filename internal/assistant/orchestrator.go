package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/teemow/taskbot/internal/instrumentation"
	"github.com/teemow/taskbot/internal/logging"
	"github.com/teemow/taskbot/internal/openai"
)

// FallbackReply is sent when the model produces neither text nor tool calls.
const FallbackReply = "I'm not sure how to respond to that."

// storeErrorContext stands in for the task-list snapshot when the storage
// fetch fails, so the model knows the list state is unknown instead of
// treating the turn as if the user had no tasks.
const storeErrorContext = `{"error": "Failed to get task list."}`

// contextMessageFormat frames the current task list for the model.
const contextMessageFormat = "Here is the current task list for the user:\n\n%s---\n\n"

// Config carries the orchestrator's collaborators.
type Config struct {
	Store        TaskStore
	Completer    openai.Completer
	SystemPrompt string
	Metrics      *instrumentation.Metrics
	Tracer       trace.Tracer
	Logger       *slog.Logger
}

// Orchestrator runs one conversation turn per inbound message: snapshot the
// task list, ask the model, execute at most one round of tool calls, and
// produce exactly one reply. Turns are stateless; everything the model sees
// is rebuilt from storage on each message.
type Orchestrator struct {
	store        TaskStore
	completer    openai.Completer
	dispatcher   *Dispatcher
	systemPrompt string
	metrics      *instrumentation.Metrics
	tracer       trace.Tracer
	logger       *slog.Logger
}

// New creates an orchestrator. It fails if any declared tool lacks a
// dispatch handler so the mismatch aborts startup.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("task store is required")
	}
	if cfg.Completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if err := validateDispatchTable(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("assistant")
	}
	return &Orchestrator{
		store:        cfg.Store,
		completer:    cfg.Completer,
		dispatcher:   NewDispatcher(cfg.Store, cfg.Metrics, logger),
		systemPrompt: cfg.SystemPrompt,
		metrics:      cfg.Metrics,
		tracer:       tracer,
		logger:       logger,
	}, nil
}

// RunTurn processes one user message and returns the reply text. An error is
// returned only when the model itself is unavailable; storage failures and
// odd model output degrade into reply text instead.
func (o *Orchestrator) RunTurn(ctx context.Context, userID int64, text string) (string, error) {
	turnID := uuid.NewString()
	logger := logging.WithTurn(logging.WithOperation(o.logger, "run_turn"), turnID, userID)
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "assistant.turn")
	defer span.End()

	snapshot := o.fetchContext(ctx, userID, logger)
	messages := []openai.Message{
		{Role: openai.RoleUser, Content: fmt.Sprintf(contextMessageFormat, snapshot)},
		{Role: openai.RoleUser, Content: text},
	}

	first, err := o.complete(ctx, "first", messages)
	if err != nil {
		o.metrics.RecordTurn(ctx, instrumentation.OutcomeModelError, time.Since(start))
		logger.Error("completion failed", logging.Status(logging.StatusError), logging.Err(err))
		return "", err
	}

	if first.Content != "" {
		o.metrics.RecordTurn(ctx, instrumentation.OutcomeDirectReply, time.Since(start))
		logger.Info("turn complete",
			logging.Status(logging.StatusSuccess),
			slog.String("outcome", instrumentation.OutcomeDirectReply),
			slog.Duration(logging.KeyDuration, time.Since(start)))
		return first.Content, nil
	}

	if len(first.ToolCalls) == 0 {
		o.metrics.RecordTurn(ctx, instrumentation.OutcomeFallback, time.Since(start))
		logger.Info("turn complete",
			logging.Status(logging.StatusDegraded),
			slog.String("outcome", instrumentation.OutcomeFallback),
			slog.Duration(logging.KeyDuration, time.Since(start)))
		return FallbackReply, nil
	}

	// Tool round: echo the assistant's tool-call message, then one result
	// message per call, preserving request order.
	messages = append(messages, first.AssistantMessage())
	for _, call := range first.ToolCalls {
		result := o.dispatcher.Dispatch(ctx, userID, call)
		messages = append(messages, openai.Message{
			Role:       openai.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
		})
	}

	final, err := o.complete(ctx, "final", messages)
	if err != nil {
		o.metrics.RecordTurn(ctx, instrumentation.OutcomeModelError, time.Since(start))
		logger.Error("final completion failed", logging.Status(logging.StatusError), logging.Err(err))
		return "", err
	}

	reply := final.Content
	if reply == "" {
		reply = FallbackReply
	}
	o.metrics.RecordTurn(ctx, instrumentation.OutcomeToolRoundTrip, time.Since(start))
	logger.Info("turn complete",
		logging.Status(logging.StatusSuccess),
		slog.String("outcome", instrumentation.OutcomeToolRoundTrip),
		slog.Int("tool_calls", len(first.ToolCalls)),
		slog.Duration(logging.KeyDuration, time.Since(start)))
	return reply, nil
}

// fetchContext snapshots the user's task list for the conversation context.
// A failed fetch degrades to an error placeholder rather than failing the turn.
func (o *Orchestrator) fetchContext(ctx context.Context, userID int64, logger *slog.Logger) string {
	start := time.Now()
	result := o.store.FetchTaskList(ctx, userID)
	o.metrics.RecordStoreOperation(ctx, "fetch", time.Since(start), result.Failed)
	if result.Failed {
		logger.Warn("task list fetch failed",
			logging.Status(logging.StatusDegraded),
			slog.String("detail", result.Detail))
		return storeErrorContext
	}
	return result.TaskList
}

func (o *Orchestrator) complete(ctx context.Context, phase string, messages []openai.Message) (openai.Completion, error) {
	ctx, span := o.tracer.Start(ctx, "assistant.completion."+phase)
	defer span.End()

	start := time.Now()
	completion, err := o.completer.Complete(ctx, openai.Request{
		System:   o.systemPrompt,
		Messages: messages,
		Tools:    Declarations(),
	})
	o.metrics.RecordCompletion(ctx, phase, time.Since(start), err)
	return completion, err
}
