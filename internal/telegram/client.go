package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxMessageChars stays under the Bot API's 4096-character sendMessage
// limit with headroom for Markdown entities.
const maxMessageChars = 3900

// BotAPIBase returns the Bot API base URL for a bot token.
func BotAPIBase(token string) string {
	return "https://api.telegram.org/bot" + token
}

// Client is a minimal Telegram Bot API client for outbound replies.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Telegram client for the given bot API base URL
// (e.g. "https://api.telegram.org/bot<token>").
func NewClient(apiBase string, timeout time.Duration) *Client {
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiResponse is the generic Bot API response wrapper.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SendMessage sends a Markdown-formatted reply to the given chat. If the
// Bot API rejects the Markdown entities it retries once in plain text so
// the user still gets an answer.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	err := c.send(ctx, sendMessageRequest{
		ChatID:    chatID,
		Text:      truncate(text, maxMessageChars),
		ParseMode: "Markdown",
	})
	if err != nil && strings.Contains(err.Error(), "can't parse entities") {
		return c.send(ctx, sendMessageRequest{
			ChatID: chatID,
			Text:   truncate(text, maxMessageChars),
		})
	}
	return err
}

func (c *Client) send(ctx context.Context, msg sendMessageRequest) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/sendMessage", strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to create sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read sendMessage response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse sendMessage response: status=%d", resp.StatusCode)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram sendMessage rejected: code=%d description=%s", parsed.ErrorCode, parsed.Description)
	}
	return nil
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
