package openai

// Role values for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the in-memory conversation transcript for a single
// turn. The orchestrator builds these; the client converts them to the SDK's
// wire format.
type Message struct {
	// Role is one of user, assistant or tool.
	Role string

	// Content is the message text. For tool messages this is the serialized
	// tool result.
	Content string

	// ToolCalls carries the tool invocations an assistant message requested.
	ToolCalls []ToolCall

	// ToolCallID links a tool message to the originating call.
	ToolCallID string
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON-encoded arguments as emitted by the model
}

// ToolDeclaration is the static schema of a tool advertised to the model.
type ToolDeclaration struct {
	Name        string
	Description string
	// Parameters is the JSON-schema object describing the arguments.
	Parameters map[string]any
}

// Request is one chat-completion invocation.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDeclaration
}

// Completion is the model's response: either direct content, or one or more
// tool calls, or (for a malformed model response) neither.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// AssistantMessage converts the completion back into a transcript message so
// a tool round-trip can replay the model's tool-call request before the
// final completion.
func (c Completion) AssistantMessage() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   c.Content,
		ToolCalls: c.ToolCalls,
	}
}
