package flows

import (
	"context"

	"github.com/necyberteam/qabot/pkg/domain"
)

// Main menu option labels.
const (
	OptionAskQuestion = "Ask a question about ACCESS"
	OptionLoginHelp   = "Help with login"
	OptionOpenTicket  = "Open a help ticket"
	OptionSecurity    = "Report a security incident"
)

// MenuNodes builds the single entry node. Choosing a flow resets the
// relevant form record on entry, not on exit, so returning to the menu and
// picking the same flow again always starts clean.
func MenuNodes(deps Deps) Registry {
	return Registry{
		NodeStart: {
			Name:          NodeStart,
			Message:       domain.StaticMessage("Hi! I'm the ACCESS support assistant. What can I help you with today?"),
			Options:       domain.StaticOptions(OptionAskQuestion, OptionLoginHelp, OptionOpenTicket, OptionSecurity),
			InputDisabled: domain.OptionsOnly,
			Next: func(_ context.Context, state *domain.ChatState) (domain.Step, error) {
				switch trimmed(state) {
				case OptionAskQuestion:
					deps.Forms.ResetFeedbackForm()
					return domain.Advance(NodeAsk), nil
				case OptionLoginHelp:
					deps.Forms.ResetTicketForm()
					return domain.Advance(nodeTicketLoginType), nil
				case OptionOpenTicket:
					deps.Forms.ResetTicketForm()
					return domain.Advance("help_summary"), nil
				case OptionSecurity:
					deps.Forms.ResetTicketForm()
					return domain.Advance("security_summary"), nil
				}
				return domain.Retry(), nil
			},
		},
	}
}

// ErrorNode is the fallback recovery node injected by the composer.
func ErrorNode() *domain.Node {
	return &domain.Node{
		Name:          NodeError,
		Message:       domain.StaticMessage("Something went wrong on my end. Let's start over."),
		Options:       domain.StaticOptions(OptionBackToMenu),
		InputDisabled: domain.OptionsOnly,
		Next:          domain.AdvanceTo(NodeStart),
	}
}
