package taskstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// tokenTTL bounds the validity of minted bearer tokens. Tokens are
	// minted per request, so the TTL only needs to cover clock skew plus
	// one round trip.
	tokenTTL = 30 * time.Minute

	// maxErrorBody caps how much of a failure response body is kept for
	// logs and tool-result narratives.
	maxErrorBody = 400
)

// Client is an HTTP client for the task-storage API. Both operations return
// result values instead of errors: storage failures must never crash a
// user-facing conversation, and the orchestrator decides how to narrate a
// failure back to the user, not this client.
type Client struct {
	baseURL    string
	jwtSecret  []byte
	jwtSubject string
	httpClient *http.Client
}

// NewClient creates a task-storage client for the given base URL.
// When jwtSecret is non-empty, every request carries an HS256 bearer token
// with the given subject, matching the storage service's token contract.
func NewClient(baseURL, jwtSecret, jwtSubject string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		jwtSecret:  []byte(jwtSecret),
		jwtSubject: jwtSubject,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchTaskList reads the current task list for a user.
// On transport failure or a non-2xx status the result is marked Failed and
// the turn proceeds with degraded context; this method never returns an
// error to its caller.
func (c *Client) FetchTaskList(ctx context.Context, userID int64) FetchResult {
	endpoint := c.baseURL + "/task_list?" + url.Values{
		"user_id": {strconv.FormatInt(userID, 10)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return FetchResult{Failed: true, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	if err := c.authorize(req); err != nil {
		return FetchResult{Failed: true, Detail: fmt.Sprintf("failed to sign request: %v", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FetchResult{Failed: true, Detail: fmt.Sprintf("task store request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{Failed: true, Status: resp.StatusCode, Detail: fmt.Sprintf("failed reading response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return FetchResult{
			Failed: true,
			Status: resp.StatusCode,
			Detail: truncate(string(body), maxErrorBody),
		}
	}

	return FetchResult{TaskList: decodeTaskList(body)}
}

// SaveTaskList writes the literal task-list string for a user, trimmed of
// surrounding whitespace. Status 200 and 201 both count as success. Like
// FetchTaskList, failures come back as a result value, never an error.
func (c *Client) SaveTaskList(ctx context.Context, userID int64, taskList string) SaveResult {
	trimmed := strings.TrimSpace(taskList)

	payload, err := json.Marshal(saveRequest{
		UserID:   strconv.FormatInt(userID, 10),
		TaskList: trimmed,
	})
	if err != nil {
		return SaveResult{TaskList: trimmed, Detail: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/task_list", bytes.NewReader(payload))
	if err != nil {
		return SaveResult{TaskList: trimmed, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return SaveResult{TaskList: trimmed, Detail: fmt.Sprintf("failed to sign request: %v", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SaveResult{TaskList: trimmed, Detail: fmt.Sprintf("task store request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SaveResult{TaskList: trimmed, Status: resp.StatusCode, Detail: fmt.Sprintf("failed reading response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return SaveResult{
			TaskList: trimmed,
			Status:   resp.StatusCode,
			Detail:   truncate(string(body), maxErrorBody),
		}
	}

	var parsed saveResponse
	_ = json.Unmarshal(body, &parsed)

	return SaveResult{
		Saved:    true,
		TaskList: trimmed,
		Message:  parsed.Message,
	}
}

// authorize attaches a freshly minted HS256 bearer token when a secret is
// configured. Without a secret, requests go out unsigned.
func (c *Client) authorize(req *http.Request) error {
	if len(c.jwtSecret) == 0 {
		return nil
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": c.jwtSubject,
		"exp": jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	})
	signed, err := token.SignedString(c.jwtSecret)
	if err != nil {
		return fmt.Errorf("failed to sign bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+signed)
	return nil
}

// decodeTaskList extracts the task-list string from a successful GET body.
// The storage API has historically answered with either an object
// ({"task_list": "..."}) or a bare JSON string; both decode to the stored
// list, and anything empty or unparseable maps to the sentinel.
func decodeTaskList(body []byte) string {
	var obj fetchResponse
	if err := json.Unmarshal(body, &obj); err == nil && obj.TaskList != "" {
		return obj.TaskList
	}
	var bare string
	if err := json.Unmarshal(body, &bare); err == nil && bare != "" {
		return bare
	}
	return Sentinel
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
