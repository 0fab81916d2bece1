package flows

import (
	"context"
	"strings"

	"github.com/necyberteam/qabot/pkg/domain"
)

// Optional makes a text node skippable: submitting empty input is accepted,
// the recorded value is the literal "Not provided", and the dialog advances
// exactly as if the user had typed it. There is no separate skip option and
// no second prompt.
func Optional(node *domain.Node) *domain.Node {
	inner := node.OnCommit
	node.ValidateInput = func(_ context.Context, _ domain.Input) domain.Verdict {
		return domain.Accept()
	}
	node.OnCommit = func(ctx context.Context, state *domain.ChatState) error {
		if strings.TrimSpace(state.Input.Text) == "" {
			state.Input.Text = domain.NotProvided
		}
		if inner != nil {
			return inner(ctx, state)
		}
		return nil
	}
	return node
}
