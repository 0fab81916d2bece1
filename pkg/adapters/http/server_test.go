package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/necyberteam/qabot/pkg/adapters/http"
	"github.com/necyberteam/qabot/pkg/adapters/memory"
	"github.com/necyberteam/qabot/pkg/session"
	"github.com/necyberteam/qabot/pkg/submit"
)

type sessionResponse struct {
	SessionID string `json:"session_id"`
	View      struct {
		Node          string   `json:"node"`
		Message       string   `json:"message"`
		Options       []string `json:"options"`
		InputDisabled bool     `json:"input_disabled"`
		Rejection     string   `json:"rejection"`
		Posted        []string `json:"posted"`
	} `json:"view"`
}

func newTestAPI(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()

	tickets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"ticketKey":"HELP-7","ticketUrl":"https://desk.example.org/HELP-7"}}`)
	}))
	t.Cleanup(tickets.Close)

	sessions := session.NewManager(memory.NewStore())
	handler, err := httpadapter.NewHandler(httpadapter.Config{
		Sessions: sessions,
		Tickets:  submit.NewClient(tickets.URL),
	})
	require.NoError(t, err)

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)
	return api, sessions
}

func postJSON(t *testing.T, url string, body any) (*http.Response, sessionResponse) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded sessionResponse
	if resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestServer_Healthz(t *testing.T) {
	api, _ := newTestAPI(t)

	resp, err := http.Get(api.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_CreateSession(t *testing.T) {
	api, sessions := newTestAPI(t)

	resp, created := postJSON(t, api.URL+"/sessions", map[string]any{
		"identity": map[string]any{
			"email": "kai@example.org",
			"name":  "Kai Rivera",
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created.SessionID)
	assert.Equal(t, "start", created.View.Node)
	assert.Len(t, created.View.Options, 4)
	assert.True(t, created.View.InputDisabled)

	// The session is persisted, not just cached in the handler.
	state, err := sessions.Load(t.Context(), created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "start", state.CurrentNode)
	assert.Equal(t, false, state.Context["authenticated"])
}

func TestServer_PostMessage_NavigatesMenu(t *testing.T) {
	api, _ := newTestAPI(t)

	_, created := postJSON(t, api.URL+"/sessions", map[string]any{
		"identity": map[string]any{
			"email":    "kai@example.org",
			"name":     "Kai Rivera",
			"username": "krivera",
		},
	})

	url := api.URL + "/sessions/" + created.SessionID + "/messages"
	resp, view := postJSON(t, url, map[string]any{"text": "Open a help ticket"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "help_summary", view.View.Node)
	assert.Empty(t, view.View.Rejection)
}

func TestServer_PostMessage_OptionRejection(t *testing.T) {
	api, _ := newTestAPI(t)

	_, created := postJSON(t, api.URL+"/sessions", map[string]any{})

	url := api.URL + "/sessions/" + created.SessionID + "/messages"
	resp, view := postJSON(t, url, map[string]any{"text": "free text at a menu"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "start", view.View.Node)
	assert.NotEmpty(t, view.View.Rejection)
}

// A handler restart must not lose the conversation: state lives in the
// store and the bot is rebuilt from it, including form fields already
// collected.
func TestServer_BotRebuiltFromPersistedState(t *testing.T) {
	tickets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"ticketKey":"HELP-7"}}`)
	}))
	defer tickets.Close()

	sessions := session.NewManager(memory.NewStore())
	cfg := httpadapter.Config{Sessions: sessions, Tickets: submit.NewClient(tickets.URL)}

	handler, err := httpadapter.NewHandler(cfg)
	require.NoError(t, err)
	api := httptest.NewServer(handler)

	_, created := postJSON(t, api.URL+"/sessions", map[string]any{
		"identity": map[string]any{
			"email":    "kai@example.org",
			"name":     "Kai Rivera",
			"username": "krivera",
		},
	})
	url := api.URL + "/sessions/" + created.SessionID + "/messages"
	_, view := postJSON(t, url, map[string]any{"text": "Open a help ticket"})
	require.Equal(t, "help_summary", view.View.Node)
	_, view = postJSON(t, url, map[string]any{"text": "Cannot launch jobs"})
	require.Equal(t, "help_description", view.View.Node)
	api.Close()

	// Fresh handler over the same store, as after a restart or on a
	// second replica.
	handler2, err := httpadapter.NewHandler(cfg)
	require.NoError(t, err)
	api2 := httptest.NewServer(handler2)
	defer api2.Close()

	url2 := api2.URL + "/sessions/" + created.SessionID + "/messages"
	resp, view := postJSON(t, url2, map[string]any{"text": "Fails with a timeout"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "help_attachment_offer", view.View.Node)
}

func TestServer_UnknownSession(t *testing.T) {
	api, _ := newTestAPI(t)

	resp, err := http.Get(api.URL + "/sessions/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, _ := postJSON(t, api.URL+"/sessions/nope/messages", map[string]any{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestServer_DeleteSession(t *testing.T) {
	api, _ := newTestAPI(t)

	_, created := postJSON(t, api.URL+"/sessions", map[string]any{})

	req, err := http.NewRequest(http.MethodDelete, api.URL+"/sessions/"+created.SessionID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	getResp, err := http.Get(api.URL + "/sessions/" + created.SessionID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}
