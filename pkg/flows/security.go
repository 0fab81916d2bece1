package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/submit"
)

// Security incident priority levels.
var securityPriorities = []string{"Critical", "High", "Medium", "Low"}

const (
	optionIdentityCorrect = "Yes, that's correct"
	optionIdentityUpdate  = "Let me update it"
)

// fieldIdentityUpdate marks that the user chose to re-enter their contact
// details, which disables gap-fill skipping for this traversal.
const fieldIdentityUpdate = "identityUpdate"

// SecurityNodes builds the security-incident flow: same shape as the
// ticket flows but with a fixed category, a priority selection, and a
// confirmation sub-step that offers to reuse already-known identity before
// falling through to the gap-fill prompts.
func SecurityNodes(deps Deps) Registry {
	flow := ticketFlow{
		deps:     deps,
		prefix:   "security",
		category: submit.CategorySupport,
		endpoint: submit.EndpointSecurity,
		intro:    "I'm sorry to hear that. Briefly, what happened?",
	}

	reg := flow.nodes()

	// Priority capture slots in between description and attachments.
	reg[flow.node("description")].Next = domain.AdvanceTo(flow.node("priority"))
	reg[flow.node("priority")] = &domain.Node{
		Name:          flow.node("priority"),
		Message:       domain.StaticMessage("How severe is the incident?"),
		Options:       domain.StaticOptions(securityPriorities...),
		InputDisabled: domain.OptionsOnly,
		ValidateInput: func(_ context.Context, input domain.Input) domain.Verdict {
			for _, p := range securityPriorities {
				if strings.TrimSpace(input.Text) == p {
					return domain.Accept()
				}
			}
			return domain.Reject("Please pick one of the severity levels.")
		},
		OnCommit: flow.commitField(domain.FieldPriority),
		Next:     domain.AdvanceTo(flow.node("attachment_offer")),
	}

	// The attachment junction detours through the identity confirmation
	// whenever the merged record is already complete; otherwise it falls
	// straight into gap-fill.
	securityGap := func() string {
		if deps.Forms.MergeWithIdentity(deps.Identity).String(domain.FieldEmail) != "" {
			return flow.node("identity")
		}
		return flow.gapFill()
	}
	reg[flow.node("attachment_offer")].Next = func(_ context.Context, state *domain.ChatState) (domain.Step, error) {
		if trimmed(state) == OptionYes {
			return domain.Advance(flow.node("upload")), nil
		}
		return domain.Advance(securityGap()), nil
	}
	reg[flow.node("upload")].Next = func(_ context.Context, _ *domain.ChatState) (domain.Step, error) {
		return domain.Advance(securityGap()), nil
	}

	reg[flow.node("identity")] = &domain.Node{
		Name:   flow.node("identity"),
		Markup: domain.MarkupFor(domain.RoleBot),
		Message: func(_ context.Context, _ *domain.ChatState) (string, error) {
			merged := deps.Forms.MergeWithIdentity(deps.Identity)
			return fmt.Sprintf(
				"Here's the contact information I have for you:\n\n**Email:** %s\n\n**Name:** %s\n\n**ACCESS ID:** %s\n\nIs that correct?",
				fieldOr(merged, domain.FieldEmail),
				fieldOr(merged, domain.FieldName),
				fieldOr(merged, domain.FieldAccessID),
			), nil
		},
		Options:       domain.StaticOptions(optionIdentityCorrect, optionIdentityUpdate),
		InputDisabled: domain.OptionsOnly,
		Next: func(_ context.Context, state *domain.ChatState) (domain.Step, error) {
			switch trimmed(state) {
			case optionIdentityCorrect:
				merged := deps.Forms.MergeWithIdentity(deps.Identity)
				deps.Forms.UpdateTicketForm(map[string]any{
					domain.FieldEmail:    merged.String(domain.FieldEmail),
					domain.FieldName:     merged.String(domain.FieldName),
					domain.FieldAccessID: merged.String(domain.FieldAccessID),
				})
				return domain.Advance(flow.gapFill()), nil
			case optionIdentityUpdate:
				// Updating re-prompts every identity field in order, even
				// the ones already known.
				deps.Forms.UpdateTicketForm(map[string]any{fieldIdentityUpdate: true})
				return domain.Advance(flow.node("email")), nil
			}
			return domain.Retry(), nil
		},
	}

	// In update mode the identity prompts run sequentially; otherwise they
	// gap-fill as in every other ticket flow.
	updating := func() bool {
		v, _ := deps.Forms.TicketForm()[fieldIdentityUpdate].(bool)
		return v
	}
	sequentialOr := func(seqTarget string, fallback domain.NextFunc) domain.NextFunc {
		return func(ctx context.Context, state *domain.ChatState) (domain.Step, error) {
			if updating() {
				return domain.Advance(seqTarget), nil
			}
			return fallback(ctx, state)
		}
	}
	reg[flow.node("email")].Next = sequentialOr(flow.node("name"), reg[flow.node("email")].Next)
	reg[flow.node("name")].Next = sequentialOr(flow.node("accessid"), reg[flow.node("name")].Next)
	reg[flow.node("accessid")].Next = sequentialOr(flow.node("confirm"), reg[flow.node("accessid")].Next)

	return reg
}
