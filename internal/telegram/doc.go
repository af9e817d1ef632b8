// Package telegram provides the transport adapter types for the Bot API.
//
// Inbound: ParseUpdate decodes one webhook delivery and Message.SenderID
// normalizes the two historically-seen payload shapes (the current "from"
// field and the legacy "sender" field) into a single user identifier.
//
// Outbound: Client.SendMessage delivers exactly one Markdown-rendered reply
// per processed message, falling back to plain text when Telegram rejects
// the Markdown entities.
package telegram
