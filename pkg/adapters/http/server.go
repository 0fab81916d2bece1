// Package http exposes the bot as a JSON API. The server owns session
// persistence: every turn is loaded, executed under the session lock and
// saved back, so any replica can serve any session.
package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/necyberteam/qabot"
	"github.com/necyberteam/qabot/internal/logging"
	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/query"
	"github.com/necyberteam/qabot/pkg/session"
	"github.com/necyberteam/qabot/pkg/submit"
)

// Context keys used to persist per-session settings across replicas.
const (
	ctxIdentity      = "identity"
	ctxAuthenticated = "authenticated"
	ctxTicketForm    = "ticketForm"
	ctxFeedbackForm  = "feedbackForm"
)

// Config wires the server's backends.
type Config struct {
	Sessions *session.Manager
	Tickets  *submit.Client

	// QueryBase and QueryKey configure the AI backend. Empty QueryBase
	// disables the Q&A flow for every session.
	QueryBase string
	QueryKey  string

	// Dev routes general help tickets to the developer service desk.
	Dev bool

	Hooks  domain.LifecycleHooks
	Logger *slog.Logger
}

// Server handles the JSON API over one session manager.
type Server struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	bots map[string]*qabot.Bot
}

// NewHandler creates the HTTP handler for the bot API.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("http: session manager is required")
	}
	if cfg.Tickets == nil {
		return nil, fmt.Errorf("http: ticket client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		bots:   make(map[string]*qabot.Bot),
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Get("/info", s.info)
	r.Post("/sessions", s.createSession)
	r.Get("/sessions/{sessionID}", s.renderSession)
	r.Post("/sessions/{sessionID}/messages", s.postMessage)
	r.Delete("/sessions/{sessionID}", s.deleteSession)

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Request/response shapes --

type createSessionRequest struct {
	Identity      map[string]any `json:"identity,omitempty"`
	Authenticated bool           `json:"authenticated"`
}

type fileUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"` // base64
}

type messageRequest struct {
	Text  string       `json:"text"`
	Files []fileUpload `json:"files,omitempty"`
}

type viewResponse struct {
	Node          string   `json:"node"`
	Message       string   `json:"message"`
	Options       []string `json:"options,omitempty"`
	InputDisabled bool     `json:"input_disabled"`
	Rejection     string   `json:"rejection,omitempty"`
	RetryDelayMS  int64    `json:"retry_delay_ms,omitempty"`
	Posted        []string `json:"posted,omitempty"`
}

type sessionResponse struct {
	SessionID string       `json:"session_id"`
	View      viewResponse `json:"view"`
}

func mapView(v *qabot.View, posted []string) viewResponse {
	return viewResponse{
		Node:          v.Node,
		Message:       v.Message,
		Options:       v.Options,
		InputDisabled: v.InputDisabled,
		Rejection:     v.Rejection,
		RetryDelayMS:  v.RetryDelay.Milliseconds(),
		Posted:        posted,
	}
}

// -- Handlers --

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "qabot-http",
		"version": qabot.Version,
	})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("create session: invalid body", "err", err)
		return
	}

	var identity domain.Identity
	if body.Identity != nil {
		if err := mapstructure.Decode(body.Identity, &identity); err != nil {
			http.Error(w, "Invalid identity", http.StatusBadRequest)
			s.logger.Warn("create session: invalid identity", "err", err)
			return
		}
	}

	sessionID := uuid.NewString()
	bot, err := s.buildBot(sessionID, identity, body.Authenticated)
	if err != nil {
		http.Error(w, fmt.Sprintf("Session error: %v", err), http.StatusInternalServerError)
		s.logger.Error("create session: build failed", "err", err)
		return
	}

	state := bot.Start()
	state.Context[ctxIdentity] = body.Identity
	state.Context[ctxAuthenticated] = body.Authenticated

	view, err := bot.Render(r.Context(), state, nil)
	if err != nil {
		http.Error(w, fmt.Sprintf("Render error: %v", err), http.StatusInternalServerError)
		s.logger.Error("create session: render failed", "err", err)
		return
	}

	s.snapshotForms(bot, state)
	if err := s.cfg.Sessions.Save(r.Context(), sessionID, state); err != nil {
		http.Error(w, fmt.Sprintf("Save error: %v", err), http.StatusInternalServerError)
		s.logger.Error("create session: save failed", "err", err)
		return
	}

	s.cacheBot(sessionID, bot)
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sessionID, View: mapView(view, nil)})
}

func (s *Server) renderSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := s.cfg.Sessions.Load(r.Context(), sessionID)
	if err != nil {
		s.sessionError(w, sessionID, err)
		return
	}

	bot, err := s.bot(sessionID, state)
	if err != nil {
		http.Error(w, fmt.Sprintf("Session error: %v", err), http.StatusInternalServerError)
		return
	}

	view, err := bot.Render(r.Context(), state, nil)
	if err != nil {
		http.Error(w, fmt.Sprintf("Render error: %v", err), http.StatusInternalServerError)
		s.logger.Error("render failed", "session_id", sessionID, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sessionID, View: mapView(view, nil)})
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("message: invalid body", "session_id", sessionID, "err", err)
		return
	}

	input := domain.Input{Text: body.Text}
	for _, f := range body.Files {
		data, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid file content for %q", f.Name), http.StatusBadRequest)
			return
		}
		input.Files = append(input.Files, domain.FileFromBytes(f.Name, f.ContentType, data))
	}

	var (
		view   *qabot.View
		posted []string
	)
	err := s.cfg.Sessions.WithLock(r.Context(), sessionID, func(ctx context.Context) error {
		state, err := s.cfg.Sessions.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		bot, err := s.bot(sessionID, state)
		if err != nil {
			return err
		}

		newState, v, err := bot.Navigate(ctx, state, input, func(msg string) {
			posted = append(posted, msg)
		})
		if err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		view = v

		s.snapshotForms(bot, newState)
		return s.cfg.Sessions.Save(ctx, sessionID, newState)
	})
	if err != nil {
		s.sessionError(w, sessionID, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{SessionID: sessionID, View: mapView(view, posted)})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.cfg.Sessions.Delete(r.Context(), sessionID); err != nil {
		s.sessionError(w, sessionID, err)
		return
	}
	s.mu.Lock()
	delete(s.bots, sessionID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionError(w http.ResponseWriter, sessionID string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	http.Error(w, fmt.Sprintf("Session error: %v", err), http.StatusInternalServerError)
	s.logger.Error("session store failure", "session_id", sessionID, "err", err)
}

// -- Bot lifecycle --

// bot returns the cached bot for the session, rebuilding it from the
// persisted state after a restart or on another replica.
func (s *Server) bot(sessionID string, state *domain.State) (*qabot.Bot, error) {
	s.mu.Lock()
	cached, ok := s.bots[sessionID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	var identity domain.Identity
	if raw, ok := state.Context[ctxIdentity]; ok && raw != nil {
		if err := mapstructure.Decode(raw, &identity); err != nil {
			return nil, fmt.Errorf("restore identity: %w", err)
		}
	}
	authenticated, _ := state.Context[ctxAuthenticated].(bool)

	bot, err := s.buildBot(sessionID, identity, authenticated)
	if err != nil {
		return nil, err
	}
	s.restoreForms(bot, state)
	s.cacheBot(sessionID, bot)
	return bot, nil
}

func (s *Server) buildBot(sessionID string, identity domain.Identity, authenticated bool) (*qabot.Bot, error) {
	opts := []qabot.Option{
		qabot.WithIdentity(identity),
		qabot.WithLogger(s.logger.With("session_id", sessionID)),
		qabot.WithLifecycleHooks(s.cfg.Hooks),
	}
	if authenticated && s.cfg.QueryBase != "" {
		opts = append(opts, qabot.WithQueryClient(query.NewClient(s.cfg.QueryBase, s.cfg.QueryKey, sessionID)))
	}
	if s.cfg.Dev {
		opts = append(opts, qabot.WithDevDesk())
	}
	return qabot.New(sessionID, s.cfg.Tickets, opts...)
}

func (s *Server) cacheBot(sessionID string, bot *qabot.Bot) {
	s.mu.Lock()
	s.bots[sessionID] = bot
	s.mu.Unlock()
}

// snapshotForms copies the serializable form fields into the state so a
// rebuilt bot resumes mid-flow. Attachments hold open handles and are not
// persisted; users on a fresh replica re-upload them.
func (s *Server) snapshotForms(bot *qabot.Bot, state *domain.State) {
	state.Context[ctxTicketForm] = scalarFields(bot.Forms().TicketForm())
	state.Context[ctxFeedbackForm] = scalarFields(bot.Forms().FeedbackForm())
}

func (s *Server) restoreForms(bot *qabot.Bot, state *domain.State) {
	if saved, ok := state.Context[ctxTicketForm].(map[string]any); ok {
		bot.Forms().UpdateTicketForm(saved)
	}
	if saved, ok := state.Context[ctxFeedbackForm].(map[string]any); ok {
		bot.Forms().UpdateFeedbackForm(saved)
	}
}

func scalarFields(form domain.FormRecord) map[string]any {
	out := make(map[string]any, len(form))
	for k, v := range form {
		switch v.(type) {
		case []domain.File, domain.File:
			continue
		default:
			out[k] = v
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "err", err)
	}
}
