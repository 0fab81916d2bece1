package qabot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/necyberteam/qabot/internal/logging"
	"github.com/necyberteam/qabot/internal/runtime"
	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/flows"
	"github.com/necyberteam/qabot/pkg/formctx"
	"github.com/necyberteam/qabot/pkg/query"
	"github.com/necyberteam/qabot/pkg/submit"
)

// Version is the library version reported by adapters and the CLI.
const Version = "1.0.0"

// View is the rendered output of one node: content, options and input
// policy for the host to display.
type View = runtime.View

// Bot is the high-level entry point for one conversation. It composes the
// dialog flows over a shared form context and wraps the internal runtime
// with a simplified API for hosts.
type Bot struct {
	runtime   *runtime.Engine
	forms     *formctx.Context
	binding   formctx.Binding
	query     *query.Client
	tickets   *submit.Client
	identity  domain.Identity
	hooks     []domain.LifecycleHooks
	logger    *slog.Logger
	dev       bool
	entryNode string
	sessionID string
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithLogger sets a custom structured logger for the bot.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithIdentity supplies the logged-in user's known details. Gap-fill nodes
// skip every field the identity already provides.
func WithIdentity(id domain.Identity) Option {
	return func(b *Bot) {
		b.identity = id
	}
}

// WithQueryClient enables the Q&A flow against the given AI backend.
// Without it the bot treats the user as anonymous and offers a login stub.
func WithQueryClient(c *query.Client) Option {
	return func(b *Bot) {
		b.query = c
	}
}

// WithLifecycleHooks registers observability hooks. May be given more than
// once; every set receives every event.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = append(b.hooks, hooks)
	}
}

// WithForms injects a custom form context, bypassing the default one.
func WithForms(forms *formctx.Context) Option {
	return func(b *Bot) {
		b.forms = forms
	}
}

// WithBinding injects a custom form binding for hosts that own their form
// records elsewhere (for example a UI state tree).
func WithBinding(binding formctx.Binding) Option {
	return func(b *Bot) {
		b.binding = binding
	}
}

// WithDevDesk routes general help tickets to the developer service desk.
func WithDevDesk() Option {
	return func(b *Bot) {
		b.dev = true
	}
}

// WithEntryNode configures the initial node (default: "start").
func WithEntryNode(name string) Option {
	return func(b *Bot) {
		b.entryNode = name
	}
}

// New composes the full dialog graph for one session. The ticket client is
// required; the Q&A flow is included only when WithQueryClient is given.
func New(sessionID string, tickets *submit.Client, opts ...Option) (*Bot, error) {
	b := &Bot{
		tickets:   tickets,
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.tickets == nil {
		return nil, fmt.Errorf("qabot: ticket client is required")
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.forms == nil {
		b.forms = formctx.New(formctx.WithLogger(b.logger))
	}
	if b.binding == nil {
		b.binding = formctx.NewMapBinding()
	}
	b.forms.SetBinding(b.binding)

	hooks := domain.MergeHooks(b.hooks...)

	registry, err := flows.Compose(flows.Deps{
		Forms:    b.forms,
		Identity: b.identity,
		Query:    b.query,
		Tickets:  b.tickets,
		Hooks:    hooks,
		Logger:   b.logger,
		Dev:      b.dev,
	}, b.Authenticated())
	if err != nil {
		return nil, fmt.Errorf("qabot: %w", err)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(b.logger),
		runtime.WithLifecycleHooks(hooks),
	}
	if b.entryNode != "" {
		runtimeOpts = append(runtimeOpts, runtime.WithEntryNode(b.entryNode))
	}
	b.runtime = runtime.NewEngine(registry, runtimeOpts...)

	return b, nil
}

// Authenticated reports whether the Q&A flow is available.
func (b *Bot) Authenticated() bool {
	return b.query != nil
}

// SessionID returns the conversation's session identifier.
func (b *Bot) SessionID() string {
	return b.sessionID
}

// Forms returns the shared form context.
func (b *Bot) Forms() *formctx.Context {
	return b.forms
}

// Start creates a fresh state positioned at the entry node.
func (b *Bot) Start() *domain.State {
	return b.runtime.Start(b.sessionID)
}

// Render evaluates the current node's view without transitioning. The post
// callback receives any messages the node emits out of band; it may be nil.
func (b *Bot) Render(ctx context.Context, state *domain.State, post func(string)) (*View, error) {
	return b.runtime.Render(ctx, state, post)
}

// Navigate processes one user submission and returns the new state and the
// view of the destination node. The input state is never mutated.
func (b *Bot) Navigate(ctx context.Context, state *domain.State, input domain.Input, post func(string)) (*domain.State, *View, error) {
	return b.runtime.Navigate(ctx, state, input, post)
}

// Nodes returns the sorted names of every node in the composed flow.
func (b *Bot) Nodes() []string {
	return b.runtime.Nodes()
}
