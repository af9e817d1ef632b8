// Package openai wraps the OpenAI chat completions API for single-turn
// tool-calling conversations.
//
// The orchestrator speaks in terms of this package's transcript types
// (Message, ToolCall, ToolDeclaration); only the Client knows the SDK's
// wire format. A completion response is classified by its shape: direct
// content means the model answered the user, tool calls mean it wants a
// tool round-trip first, and an empty response is left for the caller's
// fallback handling rather than treated as an error.
package openai
