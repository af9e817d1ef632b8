package telegram

import (
	"testing"
)

func TestParseUpdateFromField(t *testing.T) {
	body := []byte(`{
		"update_id": 1001,
		"message": {
			"message_id": 7,
			"from": {"id": 12345, "is_bot": false, "first_name": "Ada"},
			"chat": {"id": 12345, "type": "private"},
			"date": 1735000000,
			"text": "Add buy milk to my tasks"
		}
	}`)

	update, err := ParseUpdate(body)
	if err != nil {
		t.Fatalf("ParseUpdate unexpected error: %v", err)
	}
	if update.UpdateID != 1001 {
		t.Errorf("UpdateID = %d, want 1001", update.UpdateID)
	}
	if update.Message == nil {
		t.Fatal("Message is nil")
	}
	if got := update.Message.SenderID(); got != 12345 {
		t.Errorf("SenderID() = %d, want 12345", got)
	}
	if update.Message.Text != "Add buy milk to my tasks" {
		t.Errorf("Text = %q", update.Message.Text)
	}
}

func TestParseUpdateLegacySenderField(t *testing.T) {
	// Older relay deployments put the sender in a "sender" field instead
	// of "from"; both shapes must normalize to the same user.
	body := []byte(`{
		"update_id": 1002,
		"message": {
			"message_id": 8,
			"sender": {"id": 67890},
			"chat": {"id": 67890},
			"date": 1735000001,
			"text": "What are my tasks?"
		}
	}`)

	update, err := ParseUpdate(body)
	if err != nil {
		t.Fatalf("ParseUpdate unexpected error: %v", err)
	}
	if got := update.Message.SenderID(); got != 67890 {
		t.Errorf("SenderID() = %d, want 67890", got)
	}
}

func TestParseUpdatePrefersFromOverSender(t *testing.T) {
	body := []byte(`{
		"update_id": 1003,
		"message": {
			"from": {"id": 111},
			"sender": {"id": 222},
			"chat": {"id": 111},
			"text": "hi"
		}
	}`)

	update, err := ParseUpdate(body)
	if err != nil {
		t.Fatalf("ParseUpdate unexpected error: %v", err)
	}
	if got := update.Message.SenderID(); got != 111 {
		t.Errorf("SenderID() = %d, want 111 (from field wins)", got)
	}
}

func TestParseUpdateNonMessage(t *testing.T) {
	update, err := ParseUpdate([]byte(`{"update_id": 1004, "edited_message": {"text": "x"}}`))
	if err != nil {
		t.Fatalf("ParseUpdate unexpected error: %v", err)
	}
	if update.Message != nil {
		t.Error("expected nil Message for non-message update")
	}
}

func TestParseUpdateInvalidJSON(t *testing.T) {
	if _, err := ParseUpdate([]byte(`{not json`)); err == nil {
		t.Error("ParseUpdate expected error for invalid JSON")
	}
}

func TestSenderIDNil(t *testing.T) {
	var m *Message
	if got := m.SenderID(); got != 0 {
		t.Errorf("SenderID() on nil message = %d, want 0", got)
	}
	if got := (&Message{}).SenderID(); got != 0 {
		t.Errorf("SenderID() without sender = %d, want 0", got)
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		isCommand bool
		command   string
	}{
		{name: "start command", text: "/start", isCommand: true, command: "start"},
		{name: "command with mention", text: "/start@taskbot", isCommand: true, command: "start"},
		{name: "command with args", text: "/start now please", isCommand: true, command: "start"},
		{name: "leading whitespace", text: "  /start", isCommand: true, command: "start"},
		{name: "plain text", text: "add buy milk", isCommand: false, command: ""},
		{name: "empty", text: "", isCommand: false, command: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Message{Text: tt.text}
			if got := m.IsCommand(); got != tt.isCommand {
				t.Errorf("IsCommand() = %v, want %v", got, tt.isCommand)
			}
			if got := m.Command(); got != tt.command {
				t.Errorf("Command() = %q, want %q", got, tt.command)
			}
		})
	}
}
