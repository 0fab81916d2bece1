package query_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/necyberteam/qabot/pkg/query"
)

func TestClient_Ask(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"response": "Jetstream2 is a cloud system."})
	}))
	defer server.Close()

	client := query.NewClient(server.URL, "secret", "session-9")
	answer := client.Ask(context.Background(), "What is Jetstream2?")

	assert.False(t, answer.Failed)
	assert.Equal(t, "Jetstream2 is a cloud system.", answer.Text)
	assert.NotEmpty(t, answer.QueryID)

	assert.Equal(t, "secret", gotHeaders.Get("X-API-KEY"))
	assert.Equal(t, "session-9", gotHeaders.Get("X-Session-ID"))
	assert.Equal(t, answer.QueryID, gotHeaders.Get("X-Query-ID"))
	assert.Equal(t, "What is Jetstream2?", gotBody["query"])
}

func TestClient_Ask_MintsFreshQueryIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	}))
	defer server.Close()

	client := query.NewClient(server.URL, "", "s")
	first := client.Ask(context.Background(), "one")
	second := client.Ask(context.Background(), "two")

	assert.NotEqual(t, first.QueryID, second.QueryID)
}

func TestClient_Ask_BackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := query.NewClient(server.URL, "", "s")
	answer := client.Ask(context.Background(), "hello?")

	assert.True(t, answer.Failed)
	assert.Equal(t, query.Apology, answer.Text)
	assert.NotEmpty(t, answer.QueryID)
}

func TestClient_Ask_Unreachable(t *testing.T) {
	client := query.NewClient("http://127.0.0.1:1", "", "s")
	answer := client.Ask(context.Background(), "anyone there?")

	assert.True(t, answer.Failed)
	assert.Equal(t, query.Apology, answer.Text)
}

func TestClient_Rate(t *testing.T) {
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rating", r.URL.Path)
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := query.NewClient(server.URL, "secret", "session-9", query.WithOrigin(query.OriginMetrics))

	require.NoError(t, client.Rate(context.Background(), "qid-1", true))
	assert.Equal(t, "qid-1", gotHeaders.Get("X-Query-ID"))
	assert.Equal(t, "metrics", gotHeaders.Get("X-Origin"))
	assert.Equal(t, "1", gotHeaders.Get("X-Feedback"))

	require.NoError(t, client.Rate(context.Background(), "qid-2", false))
	assert.Equal(t, "0", gotHeaders.Get("X-Feedback"))
}

func TestClient_Rate_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client := query.NewClient(server.URL, "", "s")
	err := client.Rate(context.Background(), "qid", true)
	assert.Error(t, err)
}
