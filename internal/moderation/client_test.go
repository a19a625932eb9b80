package moderation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkup-app/backend/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "/dev/null")
	m.Run()
}

func TestCheckTextFlagged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/moderate/text", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"verdict":"flagged","score":0.97,"reason":"spam"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result := client.CheckText(context.Background(), "buy cheap watches")

	assert.Equal(t, VerdictFlagged, result.Verdict)
	assert.Equal(t, "spam", result.Reason)
}

func TestCheckTextAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"verdict":"accepted","score":0.02}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result := client.CheckText(context.Background(), "hello world")

	assert.Equal(t, VerdictAccepted, result.Verdict)
}

func TestCheckTextFailsOpenOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result := client.CheckText(context.Background(), "anything")

	assert.Equal(t, VerdictAccepted, result.Verdict)
}

func TestCheckTextFailsOpenOnUnreachableService(t *testing.T) {
	// Closed server: connection refused
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL)
	result := client.CheckText(context.Background(), "anything")

	assert.Equal(t, VerdictAccepted, result.Verdict)
}

func TestCheckTextFailsOpenOnTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.httpClient.Timeout = 50 * time.Millisecond

	result := client.CheckText(context.Background(), "anything")
	assert.Equal(t, VerdictAccepted, result.Verdict)
}

func TestCheckTextFailsOpenOnMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result := client.CheckText(context.Background(), "anything")

	assert.Equal(t, VerdictAccepted, result.Verdict)
}

func TestDisabledClientAcceptsEverything(t *testing.T) {
	client := NewClient("")

	assert.False(t, client.Enabled())
	result := client.CheckText(context.Background(), "anything at all")
	assert.Equal(t, VerdictAccepted, result.Verdict)
	assert.NoError(t, client.Health(context.Background()))
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	assert.NoError(t, client.Health(context.Background()))

	server.Close()
	assert.Error(t, client.Health(context.Background()))
}
