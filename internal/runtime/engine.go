// Package runtime walks the composed node graph: message production,
// option presentation, input validation, side-effecting commit and branch
// resolution. One user-triggered transition is fully processed before the
// next input is accepted; callers serialize per session.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/necyberteam/qabot/internal/logging"
	"github.com/necyberteam/qabot/pkg/domain"
)

// Engine is the dialog execution engine over one composed flow.
type Engine struct {
	nodes  map[string]*domain.Node
	entry  string
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEntryNode overrides the initial node (default "start").
func WithEntryNode(name string) EngineOption {
	return func(e *Engine) {
		if name != "" {
			e.entry = name
		}
	}
}

// NewEngine creates an engine over the given node mapping.
func NewEngine(nodes map[string]*domain.Node, opts ...EngineOption) *Engine {
	e := &Engine{
		nodes:  nodes,
		entry:  "start",
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// View is what the host renders for one node: content, options and input
// policy. Rejection carries the validation prompt when the same node is
// being re-shown.
type View struct {
	Node          string
	Message       string
	Options       []string
	InputDisabled bool
	Markup        domain.RoleSet
	Rejection     string
	RetryDelay    time.Duration
}

// Start creates a fresh state positioned at the entry node.
func (e *Engine) Start(sessionID string) *domain.State {
	return domain.NewState(sessionID, e.entry)
}

// Nodes returns the sorted names of every node in the composed flow.
func (e *Engine) Nodes() []string {
	names := make([]string, 0, len(e.nodes))
	for name := range e.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) lookup(name string) (*domain.Node, error) {
	node, ok := e.nodes[name]
	if !ok {
		return nil, &domain.UnknownNodeError{Node: name}
	}
	return node, nil
}

// Render evaluates the current node's presentation without advancing.
func (e *Engine) Render(ctx context.Context, state *domain.State, post func(string)) (*View, error) {
	node, err := e.lookup(state.CurrentNode)
	if err != nil {
		return nil, err
	}
	chat := &domain.ChatState{
		PreviousNode: state.PreviousNode,
		SessionID:    state.SessionID,
		Post:         post,
	}
	return e.renderNode(ctx, node, chat)
}

func (e *Engine) renderNode(ctx context.Context, node *domain.Node, chat *domain.ChatState) (*View, error) {
	view := &View{Node: node.Name, Markup: node.Markup}

	if node.Message != nil {
		msg, err := node.Message(ctx, chat)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", node.Name, err)
		}
		view.Message = msg
	}
	if node.Options != nil {
		opts, err := node.Options(ctx, chat)
		if err != nil {
			return nil, fmt.Errorf("render %s options: %w", node.Name, err)
		}
		view.Options = opts
	}
	if node.InputDisabled != nil {
		view.InputDisabled = node.InputDisabled(chat)
	}
	return view, nil
}

// Navigate processes one user submission: validate, commit, branch, then
// render the destination. The returned state is a new value; the input
// state is never mutated. When validation rejects or the branch retries,
// the same node is re-rendered and the state comes back unchanged.
func (e *Engine) Navigate(ctx context.Context, state *domain.State, input domain.Input, post func(string)) (*domain.State, *View, error) {
	node, err := e.lookup(state.CurrentNode)
	if err != nil {
		return nil, nil, err
	}

	chat := &domain.ChatState{
		Input:        input,
		PreviousNode: state.PreviousNode,
		SessionID:    state.SessionID,
		Post:         post,
	}

	// Option-only nodes reject free text outright.
	if node.InputDisabled != nil && node.InputDisabled(chat) {
		ok, err := e.inputMatchesOption(ctx, node, chat)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return e.reprompt(ctx, state, node, chat, domain.Reject("Please choose one of the options."))
		}
	}

	if node.ValidateInput != nil {
		verdict := node.ValidateInput(ctx, input)
		if !verdict.Accepted {
			if hook := e.hooks.OnValidateReject; hook != nil {
				hook(ctx, &domain.NodeEvent{Timestamp: time.Now(), SessionID: state.SessionID, NodeName: node.Name})
			}
			return e.reprompt(ctx, state, node, chat, verdict)
		}
	}

	if node.OnCommit != nil {
		if err := node.OnCommit(ctx, chat); err != nil {
			return nil, nil, fmt.Errorf("commit %s: %w", node.Name, err)
		}
	}

	step := domain.Retry()
	if node.Next != nil {
		step, err = node.Next(ctx, chat)
		if err != nil {
			return nil, nil, fmt.Errorf("branch %s: %w", node.Name, err)
		}
	}

	if step.IsRetry() {
		view, err := e.renderNode(ctx, node, chat)
		if err != nil {
			return nil, nil, err
		}
		return state, view, nil
	}

	next, err := e.lookup(step.Target())
	if err != nil {
		// A dangling branch target is fatal: the graph itself is broken.
		e.logger.Error("branch resolved to unknown node", "from", node.Name, "to", step.Target())
		return nil, nil, err
	}

	newState := cloneState(state)
	newState.PreviousNode = state.CurrentNode
	newState.CurrentNode = next.Name
	newState.History = append(newState.History, next.Name)

	if hook := e.hooks.OnNodeEnter; hook != nil {
		hook(ctx, &domain.NodeEvent{Timestamp: time.Now(), SessionID: state.SessionID, NodeName: next.Name})
	}

	nextChat := &domain.ChatState{
		Input:        chat.Input,
		PreviousNode: newState.PreviousNode,
		SessionID:    state.SessionID,
		Post:         post,
	}
	view, err := e.renderNode(ctx, next, nextChat)
	if err != nil {
		return nil, nil, err
	}
	return newState, view, nil
}

func (e *Engine) reprompt(ctx context.Context, state *domain.State, node *domain.Node, chat *domain.ChatState, verdict domain.Verdict) (*domain.State, *View, error) {
	view, err := e.renderNode(ctx, node, chat)
	if err != nil {
		return nil, nil, err
	}
	view.Rejection = verdict.Message
	view.RetryDelay = verdict.RetryDelay
	return state, view, nil
}

func (e *Engine) inputMatchesOption(ctx context.Context, node *domain.Node, chat *domain.ChatState) (bool, error) {
	if node.Options == nil {
		return false, nil
	}
	opts, err := node.Options(ctx, chat)
	if err != nil {
		return false, fmt.Errorf("options %s: %w", node.Name, err)
	}
	for _, opt := range opts {
		if chat.Input.Text == opt {
			return true, nil
		}
	}
	return false, nil
}

func cloneState(src *domain.State) *domain.State {
	next := *src
	next.History = append([]string(nil), src.History...)
	next.Context = make(map[string]any, len(src.Context))
	for k, v := range src.Context {
		next.Context[k] = v
	}
	return &next
}
