// Package cmd contains the cobra commands for the taskbot CLI.
//
// The serve command is the main entry point: it loads configuration from
// the environment, wires the task-store client, OpenAI client and Telegram
// client into the conversation orchestrator, and runs the webhook server
// alongside a dedicated Prometheus metrics server until interrupted.
package cmd
