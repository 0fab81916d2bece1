package flows

import (
	"context"
	"time"

	"github.com/necyberteam/qabot/pkg/domain"
)

// Feedback option labels. The decision "is this input a question or
// feedback" is a literal match against these two strings.
const (
	FeedbackHelpful    = "This was helpful"
	FeedbackNotHelpful = "This didn't help"
)

// Feedback form fields tracked across Q&A turns.
const (
	fieldLastQueryID   = "lastQueryId"
	fieldFeedbackGiven = "feedbackGiven"
	fieldAIError       = "aiError"
)

// QANodes builds the two-node question loop: `ask` greets, `loop` answers
// one question per turn, minting a fresh query id per question.
func QANodes(deps Deps) Registry {
	return Registry{
		NodeAsk: {
			Name:    NodeAsk,
			Message: domain.StaticMessage("What would you like to know about ACCESS? Ask me anything."),
			Next:    domain.AdvanceTo(NodeLoop),
		},
		NodeLoop: LoopNode(deps),
	}
}

// LoopNode builds the AI-query handler. It is exported separately so the
// composer can inject it as a catch-all for stray `loop` references from
// older state.
func LoopNode(deps Deps) *domain.Node {
	return &domain.Node{
		Name:   NodeLoop,
		Markup: domain.MarkupFor(domain.RoleBot),
		Message: func(ctx context.Context, state *domain.ChatState) (string, error) {
			input := trimmed(state)
			switch input {
			case FeedbackHelpful, FeedbackNotHelpful:
				return handleFeedback(ctx, deps, state, input == FeedbackHelpful), nil
			case "":
				// A bare re-render (e.g. page reload) must not re-query.
				return "What else would you like to know?", nil
			}

			answer := deps.Query.Ask(ctx, input)
			if hook := deps.Hooks.OnQuery; hook != nil {
				hook(ctx, &domain.QueryEvent{
					Timestamp: time.Now(),
					SessionID: state.SessionID,
					QueryID:   answer.QueryID,
				})
			}
			deps.Forms.UpdateFeedbackForm(map[string]any{
				fieldLastQueryID:   answer.QueryID,
				fieldAIError:       answer.Failed,
				fieldFeedbackGiven: false,
			})
			return answer.Text, nil
		},
		Options: func(_ context.Context, _ *domain.ChatState) ([]string, error) {
			feedback := deps.Forms.FeedbackForm()
			given, _ := feedback[fieldFeedbackGiven].(bool)
			failed, _ := feedback[fieldAIError].(bool)
			if given || failed {
				return []string{OptionBackToMenu}, nil
			}
			return []string{FeedbackHelpful, FeedbackNotHelpful, OptionBackToMenu}, nil
		},
		Next: func(_ context.Context, state *domain.ChatState) (domain.Step, error) {
			if trimmed(state) == OptionBackToMenu {
				return domain.Advance(NodeStart), nil
			}
			// A failed query falls back to the menu instead of looping.
			if failed, _ := deps.Forms.FeedbackForm()[fieldAIError].(bool); failed {
				return domain.Advance(NodeStart), nil
			}
			return domain.Advance(NodeLoop), nil
		},
	}
}

// handleFeedback dispatches a rating correlated to the previous answer's
// query id and thanks the user without making a new AI call.
func handleFeedback(ctx context.Context, deps Deps, state *domain.ChatState, positive bool) string {
	queryID := deps.Forms.FeedbackForm().String(fieldLastQueryID)
	if queryID != "" {
		if err := deps.Query.Rate(ctx, queryID, positive); err != nil {
			logger(deps).Warn("rating dispatch failed", "query_id", queryID, "err", err)
		} else if hook := deps.Hooks.OnRating; hook != nil {
			hook(ctx, &domain.QueryEvent{
				Timestamp: time.Now(),
				SessionID: state.SessionID,
				QueryID:   queryID,
				Positive:  &positive,
			})
		}
	}
	deps.Forms.UpdateFeedbackForm(map[string]any{fieldFeedbackGiven: true})
	return "Thanks for the feedback! Feel free to ask another question."
}

// LoginStubNodes substitutes the Q&A registry for anonymous users: a single
// node explaining login is required. Re-evaluating auth is the host's job;
// both options simply re-enter the menu.
func LoginStubNodes(deps Deps) Registry {
	return Registry{
		NodeAsk: {
			Name:          NodeAsk,
			Message:       domain.StaticMessage("You need to be logged into ACCESS to ask questions. Please log in and come back."),
			Options:       domain.StaticOptions(OptionBackToMenu, "I'm logged in now"),
			InputDisabled: domain.OptionsOnly,
			Next:          domain.AdvanceTo(NodeStart),
		},
	}
}
