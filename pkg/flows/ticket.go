package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/necyberteam/qabot/internal/validate"
	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/submit"
)

const nodeTicketLoginType = "ticket_login_type"

// ticketFlow parameterizes one ticket-style sub-flow. All variants share
// the same node shape: summary capture, description, attachment offer,
// conditional upload, identity gap-fill, confirmation, submit, result.
type ticketFlow struct {
	deps     Deps
	prefix   string
	category submit.Category
	endpoint string
	intro    string
}

func (f ticketFlow) node(step string) string {
	return f.prefix + "_" + step
}

// gapFill resolves the first node for the first still-missing identity
// field of the merged identity+form record, in fixed priority order:
// email, then name, then access id. Fields already known are skipped, so
// different users take different path lengths through the same node set.
func (f ticketFlow) gapFill() string {
	merged := f.deps.Forms.MergeWithIdentity(f.deps.Identity)
	switch {
	case merged.String(domain.FieldEmail) == "":
		return f.node("email")
	case merged.String(domain.FieldName) == "":
		return f.node("name")
	case merged.String(domain.FieldAccessID) == "":
		return f.node("accessid")
	}
	return f.node("confirm")
}

func (f ticketFlow) commitField(field string) domain.CommitFunc {
	return func(_ context.Context, state *domain.ChatState) error {
		f.deps.Forms.UpdateTicketForm(map[string]any{field: trimmed(state)})
		return nil
	}
}

func (f ticketFlow) nodes() Registry {
	reg := Registry{}
	add := func(n *domain.Node) { reg[n.Name] = n }

	add(&domain.Node{
		Name:          f.node("summary"),
		Message:       domain.StaticMessage(f.intro),
		ValidateInput: requireText("Please enter a short summary so I can route your ticket."),
		OnCommit:      f.commitField(domain.FieldSummary),
		Next:          domain.AdvanceTo(f.node("description")),
	})

	add(&domain.Node{
		Name:          f.node("description"),
		Message:       domain.StaticMessage("Please describe the issue in as much detail as you can. Include any error messages you saw."),
		ValidateInput: requireText("Please describe the issue so our team knows where to start."),
		OnCommit:      f.commitField(domain.FieldDescription),
		Next:          domain.AdvanceTo(f.node("attachment_offer")),
	})

	add(&domain.Node{
		Name:          f.node("attachment_offer"),
		Message:       domain.StaticMessage("Would you like to attach any files or screenshots?"),
		Options:       domain.StaticOptions(OptionYes, OptionNo),
		InputDisabled: domain.OptionsOnly,
		Next: func(_ context.Context, state *domain.ChatState) (domain.Step, error) {
			if trimmed(state) == OptionYes {
				return domain.Advance(f.node("upload")), nil
			}
			return domain.Advance(f.gapFill()), nil
		},
	})

	add(&domain.Node{
		Name:    f.node("upload"),
		Message: domain.StaticMessage("Please upload your files: pdf, png, jpg, jpeg, gif, doc, docx, txt, csv or zip, up to 25 MB each and 50 MB total."),
		ValidateInput: func(_ context.Context, input domain.Input) domain.Verdict {
			if len(input.Files) == 0 {
				return domain.Reject("Please choose at least one file to upload.")
			}
			return validate.Attachments(input.Files)
		},
		OnCommit: func(_ context.Context, state *domain.ChatState) error {
			f.deps.Forms.UpdateTicketForm(map[string]any{domain.FieldAttachments: state.Input.Files})
			return nil
		},
		Next: func(_ context.Context, _ *domain.ChatState) (domain.Step, error) {
			return domain.Advance(f.gapFill()), nil
		},
	})

	f.addIdentityNodes(add, func(_ *domain.ChatState) string { return f.gapFill() })

	add(&domain.Node{
		Name:          f.node("confirm"),
		Markup:        domain.MarkupFor(domain.RoleBot),
		Message:       f.confirmMessage,
		Options:       domain.StaticOptions(OptionSubmit, OptionBackToMenu),
		InputDisabled: domain.OptionsOnly,
		Next: func(ctx context.Context, state *domain.ChatState) (domain.Step, error) {
			switch trimmed(state) {
			case OptionSubmit:
				submitTicket(ctx, f.deps, f.category, f.endpoint, state.SessionID)
				return domain.Advance(f.node("result")), nil
			case OptionBackToMenu:
				return domain.Advance(NodeStart), nil
			}
			return domain.Retry(), nil
		},
	})

	add(&domain.Node{
		Name:    f.node("result"),
		Markup:  domain.MarkupFor(domain.RoleBot),
		Message: f.resultMessage,
		Options: func(_ context.Context, _ *domain.ChatState) ([]string, error) {
			if result, ok := f.deps.Forms.Submission(); ok {
				if !result.Success {
					return []string{OptionTryAgain, OptionBackToMenu}, nil
				}
				return []string{OptionBackToMenu}, nil
			}
			if f.deps.Forms.TicketForm().String(domain.FieldSubmissionError) != "" {
				return []string{OptionTryAgain, OptionBackToMenu}, nil
			}
			return []string{OptionBackToMenu}, nil
		},
		InputDisabled: domain.OptionsOnly,
		Next: func(_ context.Context, state *domain.ChatState) (domain.Step, error) {
			if trimmed(state) == OptionTryAgain {
				return domain.Advance(f.node("confirm")), nil
			}
			return domain.Advance(NodeStart), nil
		},
	})

	return reg
}

// addIdentityNodes registers the gap-fill prompts. Each node's branch
// re-evaluates `next` after its commit, so a freshly collected field is
// immediately visible to the following gap check.
func (f ticketFlow) addIdentityNodes(add func(*domain.Node), next func(*domain.ChatState) string) {
	advance := func(_ context.Context, state *domain.ChatState) (domain.Step, error) {
		return domain.Advance(next(state)), nil
	}

	add(&domain.Node{
		Name:    f.node("email"),
		Message: domain.StaticMessage("What email address should we use to contact you?"),
		ValidateInput: func(_ context.Context, input domain.Input) domain.Verdict {
			return validate.Email(input.Text)
		},
		OnCommit: f.commitField(domain.FieldEmail),
		Next:     advance,
	})

	add(&domain.Node{
		Name:          f.node("name"),
		Message:       domain.StaticMessage("What name should we put on the ticket?"),
		ValidateInput: requireText("Please enter your name."),
		OnCommit:      f.commitField(domain.FieldName),
		Next:          advance,
	})

	// The access id is always optional: empty input records "Not provided"
	// and advances exactly as if the user had typed it.
	add(Optional(&domain.Node{
		Name:     f.node("accessid"),
		Message:  domain.StaticMessage("What is your ACCESS ID? Press enter to skip if you don't have one."),
		OnCommit: f.commitField(domain.FieldAccessID),
		Next:     advance,
	}))
}

func (f ticketFlow) confirmMessage(_ context.Context, _ *domain.ChatState) (string, error) {
	merged := f.deps.Forms.MergeWithIdentity(f.deps.Identity)
	var b strings.Builder
	b.WriteString("Here's what I'll submit:\n\n")
	fmt.Fprintf(&b, "**Summary:** %s\n\n", fieldOr(merged, domain.FieldSummary))
	fmt.Fprintf(&b, "**Description:** %s\n\n", fieldOr(merged, domain.FieldDescription))
	if priority := merged.String(domain.FieldPriority); priority != "" {
		fmt.Fprintf(&b, "**Priority:** %s\n\n", priority)
	}
	fmt.Fprintf(&b, "**Email:** %s\n\n", fieldOr(merged, domain.FieldEmail))
	fmt.Fprintf(&b, "**Name:** %s\n\n", fieldOr(merged, domain.FieldName))
	fmt.Fprintf(&b, "**ACCESS ID:** %s\n\n", fieldOr(merged, domain.FieldAccessID))
	if files := f.deps.Forms.TicketForm().Files(domain.FieldAttachments); len(files) > 0 {
		fmt.Fprintf(&b, "**Attachments:** %d file(s)\n\n", len(files))
	}
	b.WriteString("Ready to send it?")
	return b.String(), nil
}

// resultMessage renders the submission outcome. The out-of-band result
// slot is authoritative; the outcome fields merged into the ticket form
// keep the node renderable after a flow rebuild, when the slot is gone.
func (f ticketFlow) resultMessage(_ context.Context, _ *domain.ChatState) (string, error) {
	if result, ok := f.deps.Forms.Submission(); ok {
		if !result.Success {
			return fmt.Sprintf("Sorry, the ticket could not be submitted: %s", result.Err), nil
		}
		return successMessage(result.TicketKey, result.TicketURL), nil
	}

	form := f.deps.Forms.TicketForm()
	if errText := form.String(domain.FieldSubmissionError); errText != "" {
		return fmt.Sprintf("Sorry, the ticket could not be submitted: %s", errText), nil
	}
	return successMessage(form.String(domain.FieldTicketKey), form.String(domain.FieldTicketURL)), nil
}

func successMessage(key, url string) string {
	if url != "" {
		return fmt.Sprintf("Your ticket **%s** has been created. You can follow it at %s", key, url)
	}
	return fmt.Sprintf("Your ticket **%s** has been created.", key)
}

func fieldOr(record domain.FormRecord, field string) string {
	if v := record.String(field); v != "" {
		return v
	}
	return domain.NotProvided
}

// TicketNodes builds the login-variant chooser and the three ticket
// flows: ACCESS login, affiliated-resource login and general help.
func TicketNodes(deps Deps) Registry {
	reg := Registry{
		nodeTicketLoginType: {
			Name:          nodeTicketLoginType,
			Message:       domain.StaticMessage("Are you having trouble logging into ACCESS itself, or into an ACCESS-affiliated resource?"),
			Options:       domain.StaticOptions("My ACCESS account", "An ACCESS-affiliated resource"),
			InputDisabled: domain.OptionsOnly,
			Next: func(_ context.Context, state *domain.ChatState) (domain.Step, error) {
				switch trimmed(state) {
				case "My ACCESS account":
					return domain.Advance("access_login_summary"), nil
				case "An ACCESS-affiliated resource":
					return domain.Advance("provider_login_summary"), nil
				}
				return domain.Retry(), nil
			},
		},
	}

	helpCategory, helpEndpoint := submit.CategorySupport, submit.EndpointSupport
	if deps.Dev {
		helpCategory, helpEndpoint = submit.CategoryDev, submit.EndpointDev
	}

	variants := []ticketFlow{
		{
			deps:     deps,
			prefix:   "access_login",
			category: submit.CategoryLoginAccess,
			endpoint: submit.EndpointSupport,
			intro:    "Sorry you're having trouble logging into ACCESS. Briefly, what happens when you try?",
		},
		{
			deps:     deps,
			prefix:   "provider_login",
			category: submit.CategoryLoginProvider,
			endpoint: submit.EndpointSupport,
			intro:    "Sorry you're having trouble reaching that resource. Which resource is it, and what happens when you try to log in?",
		},
		{
			deps:     deps,
			prefix:   "help",
			category: helpCategory,
			endpoint: helpEndpoint,
			intro:    "Briefly, what do you need help with?",
		},
	}

	for _, flow := range variants {
		for name, node := range flow.nodes() {
			reg[name] = node
		}
	}
	return reg
}
