package telegram

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Update is one webhook delivery from the Bot API.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an inbound chat message. Two payload shapes exist in the wild:
// current deliveries carry the sender in the "from" field, while some older
// relay deployments used a top-level "sender" field. Both normalize to the
// same user via SenderID.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Sender    *User  `json:"sender,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
}

// User identifies a Telegram account.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies the conversation a message belongs to. For the private
// chats this bot serves, the chat ID equals the sender's user ID.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// SenderID returns the sending user's ID, normalizing both payload shapes.
// Returns 0 when neither field is present.
func (m *Message) SenderID() int64 {
	if m == nil {
		return 0
	}
	if m.From != nil {
		return m.From.ID
	}
	if m.Sender != nil {
		return m.Sender.ID
	}
	return 0
}

// IsCommand reports whether the message text is a bot command such as /start.
func (m *Message) IsCommand() bool {
	return m != nil && strings.HasPrefix(strings.TrimSpace(m.Text), "/")
}

// Command returns the command name without the leading slash or a bot
// mention suffix ("/start@taskbot" yields "start"). Empty for non-commands.
func (m *Message) Command() string {
	if !m.IsCommand() {
		return ""
	}
	cmd := strings.TrimSpace(m.Text)
	if i := strings.IndexAny(cmd, " \t\n"); i >= 0 {
		cmd = cmd[:i]
	}
	cmd = strings.TrimPrefix(cmd, "/")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd
}

// ParseUpdate decodes one webhook delivery body. A body that is not valid
// JSON is an error; a valid update without a text message is not (callers
// treat it as an ignorable delivery).
func ParseUpdate(body []byte) (Update, error) {
	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		return Update{}, fmt.Errorf("failed to parse update: %w", err)
	}
	return update, nil
}
