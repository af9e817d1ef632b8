// Package server hosts the HTTP surfaces of the bot: the Telegram webhook
// endpoint with its authorization gate, Kubernetes health probes, and a
// dedicated Prometheus metrics server.
//
// The webhook handler acknowledges every parseable delivery with 200 so
// Telegram does not replay failures, and converts each text message into
// exactly one outbound reply: the turn result, the welcome text for /start,
// or a generic failure reply when the turn errors. Unauthorized senders and
// non-message updates are acknowledged without any reply.
package server
