package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/taskbot/internal/auth"
)

type fakeRunner struct {
	mu    sync.Mutex
	turns []turnCall
	reply string
	err   error
}

type turnCall struct {
	userID int64
	text   string
}

func (r *fakeRunner) RunTurn(_ context.Context, userID int64, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, turnCall{userID: userID, text: text})
	if r.err != nil {
		return "", r.err
	}
	return r.reply, nil
}

type fakeReplier struct {
	mu    sync.Mutex
	sends []sentReply
	err   error
}

type sentReply struct {
	chatID int64
	text   string
}

func (r *fakeReplier) SendMessage(_ context.Context, chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, sentReply{chatID: chatID, text: text})
	return r.err
}

type fixture struct {
	server  *WebhookServer
	runner  *fakeRunner
	replier *fakeReplier
}

func newFixture(t *testing.T, mutate func(*WebhookConfig)) *fixture {
	t.Helper()
	runner := &fakeRunner{reply: "Here are your tasks."}
	replier := &fakeReplier{}
	cfg := WebhookConfig{
		Allowlist: auth.NewAllowlist([]int64{42}),
		Runner:    runner,
		Replier:   replier,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := NewWebhookServer(cfg)
	require.NoError(t, err)
	return &fixture{server: srv, runner: runner, replier: replier}
}

func (f *fixture) post(body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func updateBody(userID int64, text string) string {
	return fmt.Sprintf(`{
		"update_id": 1001,
		"message": {
			"message_id": 5,
			"from": {"id": %d, "first_name": "Sam"},
			"chat": {"id": %d, "type": "private"},
			"date": 1700000000,
			"text": %q
		}
	}`, userID, userID, text)
}

func TestWebhookAuthorizedMessage(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post(updateBody(42, "What are my tasks?"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	require.Len(t, f.runner.turns, 1)
	assert.Equal(t, int64(42), f.runner.turns[0].userID)
	assert.Equal(t, "What are my tasks?", f.runner.turns[0].text)

	require.Len(t, f.replier.sends, 1)
	assert.Equal(t, int64(42), f.replier.sends[0].chatID)
	assert.Equal(t, "Here are your tasks.", f.replier.sends[0].text)
}

func TestWebhookUnauthorizedSilentDrop(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post(updateBody(666, "let me in"), nil)
	// Telegram still gets an ack, the sender gets nothing.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.runner.turns)
	assert.Empty(t, f.replier.sends)
}

func TestWebhookLegacySenderShape(t *testing.T) {
	f := newFixture(t, nil)

	body := `{
		"update_id": 1002,
		"message": {
			"message_id": 6,
			"sender": {"id": 42},
			"chat": {"id": 42},
			"date": 1700000000,
			"text": "hello"
		}
	}`
	rec := f.post(body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.runner.turns, 1)
	assert.Equal(t, int64(42), f.runner.turns[0].userID)
}

func TestWebhookStartCommand(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post(updateBody(42, "/start"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.runner.turns)
	require.Len(t, f.replier.sends, 1)
	assert.Equal(t, WelcomeReply, f.replier.sends[0].text)
}

func TestWebhookUnknownCommandIgnored(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post(updateBody(42, "/help"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.runner.turns)
	assert.Empty(t, f.replier.sends)
}

func TestWebhookStartFromUnauthorizedUser(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post(updateBody(666, "/start"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.replier.sends)
}

func TestWebhookNonMessageUpdate(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post(`{"update_id": 1003}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.runner.turns)
	assert.Empty(t, f.replier.sends)
}

func TestWebhookMalformedBody(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post(`{"update_id": `, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.replier.sends)
}

func TestWebhookSecretToken(t *testing.T) {
	f := newFixture(t, func(cfg *WebhookConfig) {
		cfg.WebhookSecret = "hunter2"
	})

	rec := f.post(updateBody(42, "hi"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.runner.turns)

	rec = f.post(updateBody(42, "hi"), map[string]string{
		"X-Telegram-Bot-Api-Secret-Token": "wrong",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.post(updateBody(42, "hi"), map[string]string{
		"X-Telegram-Bot-Api-Secret-Token": "hunter2",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.runner.turns, 1)
}

func TestWebhookTurnFailureStillReplies(t *testing.T) {
	f := newFixture(t, nil)
	f.runner.err = fmt.Errorf("chat completion failed: context deadline exceeded")

	rec := f.post(updateBody(42, "add buy milk"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.replier.sends, 1)
	assert.Equal(t, FailureReply, f.replier.sends[0].text)
}

func TestNewWebhookServerValidation(t *testing.T) {
	_, err := NewWebhookServer(WebhookConfig{})
	assert.Error(t, err)

	_, err = NewWebhookServer(WebhookConfig{
		Allowlist: auth.NewAllowlist(nil),
		Runner:    &fakeRunner{},
	})
	assert.Error(t, err)
}
