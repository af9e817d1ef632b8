package taskstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "", "", 5*time.Second), srv
}

func TestFetchTaskList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/task_list", r.URL.Path)
		assert.Equal(t, "12345", r.URL.Query().Get("user_id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"task_list": "1. Buy milk\n2. Walk the dog"})
	})

	result := client.FetchTaskList(context.Background(), 12345)
	require.False(t, result.Failed)
	assert.Equal(t, "1. Buy milk\n2. Walk the dog", result.TaskList)
}

func TestFetchTaskListBareString(t *testing.T) {
	// Older deployments of the storage API answered GET with a bare JSON
	// string instead of an object.
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`"1. Buy milk"`))
	})

	result := client.FetchTaskList(context.Background(), 12345)
	require.False(t, result.Failed)
	assert.Equal(t, "1. Buy milk", result.TaskList)
}

func TestFetchTaskListNoRecord(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	result := client.FetchTaskList(context.Background(), 12345)
	require.False(t, result.Failed)
	assert.Equal(t, Sentinel, result.TaskList)
}

func TestFetchTaskListServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	result := client.FetchTaskList(context.Background(), 12345)
	assert.True(t, result.Failed)
	assert.Equal(t, http.StatusInternalServerError, result.Status)
	assert.Contains(t, result.Detail, "boom")
}

func TestFetchTaskListTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	client := NewClient(srv.URL, "", "", time.Second)

	result := client.FetchTaskList(context.Background(), 12345)
	assert.True(t, result.Failed)
	assert.Zero(t, result.Status)
	assert.NotEmpty(t, result.Detail)
}

func TestSaveTaskList(t *testing.T) {
	var received saveRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/task_list", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Task saved successfully"})
	})

	result := client.SaveTaskList(context.Background(), 12345, "  1. Buy milk\n2. Walk the dog  ")
	require.True(t, result.Saved)
	assert.Equal(t, "Task saved successfully", result.Message)

	// The write carries the stringified user ID and the trimmed payload.
	assert.Equal(t, "12345", received.UserID)
	assert.Equal(t, "1. Buy milk\n2. Walk the dog", received.TaskList)
}

func TestSaveTaskListFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
	})

	result := client.SaveTaskList(context.Background(), 12345, "tasks")
	assert.False(t, result.Saved)
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Contains(t, result.Detail, "Missing required fields")
}

func TestSaveResultNarrative(t *testing.T) {
	ok := SaveResult{Saved: true, TaskList: "1. Buy milk", Message: "Task saved successfully"}
	assert.Contains(t, ok.Narrative(), "Task saved successfully")
	assert.Contains(t, ok.Narrative(), "1. Buy milk")

	failed := SaveResult{Status: http.StatusBadGateway, Detail: "upstream down"}
	assert.Contains(t, failed.Narrative(), "502")
	assert.Contains(t, failed.Narrative(), "upstream down")

	transport := SaveResult{Detail: "connection refused"}
	assert.Contains(t, transport.Narrative(), "connection refused")
	assert.NotContains(t, transport.Narrative(), "Status Code")
}

func TestRoundTrip(t *testing.T) {
	// The storage collaborator contract: saving and then fetching the same
	// user's list returns the identical trimmed string.
	store := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req saveRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			store[req.UserID] = req.TaskList
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Task saved successfully"})
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]string{"task_list": store[r.URL.Query().Get("user_id")]})
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "", 5*time.Second)

	saved := client.SaveTaskList(context.Background(), 777, "  1. Ship release  ")
	require.True(t, saved.Saved)

	fetched := client.FetchTaskList(context.Background(), 777)
	require.False(t, fetched.Failed)
	assert.Equal(t, "1. Ship release", fetched.TaskList)
}

func TestBearerTokenSigning(t *testing.T) {
	const secret = "storage-shared-secret"

	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"task_list": "x"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, secret, "taskbot", 5*time.Second)
	result := client.FetchTaskList(context.Background(), 1)
	require.False(t, result.Failed)

	require.True(t, strings.HasPrefix(authHeader, "Bearer "), "missing bearer token")
	raw := strings.TrimPrefix(authHeader, "Bearer ")

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.Equal(t, "taskbot", claims["sub"])
}

func TestNoTokenWithoutSecret(t *testing.T) {
	var authHeader string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"task_list": "x"})
	})

	client.FetchTaskList(context.Background(), 1)
	assert.Empty(t, authHeader)
}
