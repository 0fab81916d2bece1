// Package flows defines the declarative conversation nodes of the support
// assistant: the main menu, the Q&A loop, the ticket flows and the
// security-incident flow. Each registry is a pure factory over its
// dependencies; state only ever moves through the shared form context.
package flows

import (
	"context"
	"log/slog"
	"strings"

	"github.com/necyberteam/qabot/internal/logging"
	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/formctx"
	"github.com/necyberteam/qabot/pkg/query"
	"github.com/necyberteam/qabot/pkg/submit"
)

// Registry maps node name to node definition. Names must be globally
// unique across all registries merged into one flow.
type Registry map[string]*domain.Node

// Deps carries everything a registry factory needs. Factories never mutate
// their inputs except through the form context's updaters.
type Deps struct {
	// Forms is the shared form context. Required.
	Forms *formctx.Context

	// Identity holds the host-supplied user defaults for gap-fill.
	Identity domain.Identity

	// Query is the AI backend client. Required when the Q&A flow is built.
	Query *query.Client

	// Tickets is the ticketing proxy client. Required.
	Tickets *submit.Client

	// Hooks receives observability events. Any hook may be nil.
	Hooks domain.LifecycleHooks

	// Logger is the diagnostic logger, nop when nil.
	Logger *slog.Logger

	// Dev routes general help tickets to the dev service desk.
	Dev bool
}

// Well-known node names referenced across registries.
const (
	NodeStart = "start"
	NodeAsk   = "ask"
	NodeLoop  = "loop"
	NodeError = "error"
)

// Option labels shared across flows. Branch decisions are literal matches
// against these strings.
const (
	OptionBackToMenu = "Back to Main Menu"
	OptionTryAgain   = "Try Again"
	OptionSubmit     = "Submit"
	OptionYes        = "Yes"
	OptionNo         = "No"
)

func logger(deps Deps) *slog.Logger {
	if deps.Logger != nil {
		return deps.Logger
	}
	return logging.NewNop()
}

func trimmed(state *domain.ChatState) string {
	return strings.TrimSpace(state.Input.Text)
}

// requireText rejects empty input with the given prompt.
func requireText(prompt string) domain.ValidateFunc {
	return func(_ context.Context, input domain.Input) domain.Verdict {
		if strings.TrimSpace(input.Text) == "" {
			return domain.Reject(prompt)
		}
		return domain.Accept()
	}
}
