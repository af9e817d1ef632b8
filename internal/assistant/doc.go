// Package assistant implements the conversational core of the bot.
//
// An Orchestrator turns one inbound user message into exactly one reply. A
// turn fetches the user's task list as context, runs a chat completion with
// the declared tools, optionally executes a single round of tool calls
// through the Dispatcher, and runs a final completion over the tool results.
// There is no second tool round: a model that keeps requesting tools after
// its results are in gets the fallback reply.
//
// The task-store user ID is always the authenticated sender from the
// transport layer; it is injected into tool execution and never taken from
// model output.
package assistant
