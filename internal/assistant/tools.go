package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/taskbot/internal/instrumentation"
	"github.com/teemow/taskbot/internal/logging"
	"github.com/teemow/taskbot/internal/openai"
	"github.com/teemow/taskbot/internal/taskstore"
)

// ToolName identifies a declared tool. The set is closed: adding a tool
// means adding a constant, its declaration and its dispatch arm together.
type ToolName string

// ToolSaveTaskList replaces the user's persisted task list.
const ToolSaveTaskList ToolName = "save_task_list"

// unknownToolResult is fed back into the conversation when the model
// requests a tool that is not in the dispatch table, giving it a chance to
// recover within the same turn.
const unknownToolResult = `{"error": "Function not found."}`

// saveTaskListArgs are the model-supplied arguments for save_task_list.
// The user ID is never part of the schema; the orchestrator injects it.
type saveTaskListArgs struct {
	TaskList string `json:"task_list"`
}

// Declarations returns the static tool schemas advertised to the model on
// every completion call.
func Declarations() []openai.ToolDeclaration {
	return []openai.ToolDeclaration{
		{
			Name:        string(ToolSaveTaskList),
			Description: "Save the task list with all tasks of the user to DB when there are any changes.",
			Parameters: map[string]any{
				"type":     "object",
				"required": []string{"task_list"},
				"properties": map[string]any{
					"task_list": map[string]any{
						"type":        "string",
						"description": "Formatted task list.",
					},
				},
				"additionalProperties": false,
			},
		},
	}
}

// knownTool reports whether a tool name has a dispatch arm.
func knownTool(name string) bool {
	switch ToolName(name) {
	case ToolSaveTaskList:
		return true
	}
	return false
}

// validateDispatchTable confirms every advertised declaration has a
// handler. A mismatch is a configuration fault that must abort startup,
// not surface to a user mid-conversation.
func validateDispatchTable() error {
	for _, decl := range Declarations() {
		if !knownTool(decl.Name) {
			return fmt.Errorf("declared tool %q has no dispatch handler", decl.Name)
		}
	}
	return nil
}

// TaskStore is the storage collaborator the dispatcher writes through.
type TaskStore interface {
	FetchTaskList(ctx context.Context, userID int64) taskstore.FetchResult
	SaveTaskList(ctx context.Context, userID int64, taskList string) taskstore.SaveResult
}

// Dispatcher executes model-requested tool calls. Every dispatch returns a
// serialized tool-result string for the follow-up model message; nothing a
// model can request is allowed to fail the turn.
type Dispatcher struct {
	store   TaskStore
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher backed by the given task store.
func NewDispatcher(store TaskStore, metrics *instrumentation.Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Dispatch runs one tool call for the authenticated user and returns the
// tool result to append to the conversation. The user ID comes from the
// inbound transport, never from the model.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, call openai.ToolCall) string {
	logger := logging.WithOperation(d.logger, "dispatch_tool")
	start := time.Now()

	switch ToolName(call.Name) {
	case ToolSaveTaskList:
		var args saveTaskListArgs
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			// Malformed arguments get the unknown-tool treatment: an error
			// result the model can react to, not a process fault.
			logger.Warn("malformed tool arguments",
				logging.Tool(call.Name),
				logging.Err(err))
			d.metrics.RecordToolInvocation(ctx, call.Name, time.Since(start), false)
			return fmt.Sprintf(`{"error": "Invalid arguments for %s."}`, call.Name)
		}

		result := d.store.SaveTaskList(ctx, userID, args.TaskList)
		d.metrics.RecordStoreOperation(ctx, "save", time.Since(start), !result.Saved)
		d.metrics.RecordToolInvocation(ctx, call.Name, time.Since(start), result.Saved)
		logger.Info("tool dispatched",
			logging.Tool(call.Name),
			logging.Status(saveStatus(result)),
			slog.Duration(logging.KeyDuration, time.Since(start)))
		return result.Narrative()

	default:
		logger.Warn("unknown tool requested", logging.Tool(call.Name))
		d.metrics.RecordToolInvocation(ctx, call.Name, time.Since(start), false)
		return unknownToolResult
	}
}

func saveStatus(result taskstore.SaveResult) string {
	if result.Saved {
		return logging.StatusSuccess
	}
	return logging.StatusError
}
