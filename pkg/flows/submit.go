package flows

import (
	"context"
	"time"

	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/submit"
)

// submitTicket runs the submission pipeline for the current ticket form
// and publishes the outcome twice: the normalized result goes into the
// form context's out-of-band slot, and the ticketKey/ticketUrl/
// submissionError fields are merged into the ticket form so a later node's
// message function can render the outcome without access to the raw
// result.
func submitTicket(ctx context.Context, deps Deps, category submit.Category, endpoint, sessionID string) {
	seq := deps.Forms.BeginSubmission()

	form := deps.Forms.MergeWithIdentity(deps.Identity)
	delete(form, fieldIdentityUpdate)
	files := deps.Forms.TicketForm().Files(domain.FieldAttachments)

	var result domain.SubmissionResult
	payload, err := submit.Prepare(ctx, form, category, files)
	if err != nil {
		result = domain.SubmissionResult{Err: err.Error()}
	} else {
		r := deps.Tickets.Submit(ctx, payload, endpoint)
		result = domain.SubmissionResult{
			Success:   r.Success,
			TicketKey: r.TicketKey,
			TicketURL: r.TicketURL,
			Err:       r.Err,
		}
		if !result.Success && result.Err == "" {
			result.Err = "the ticket service did not accept the request"
		}
	}

	deps.Forms.SetSubmission(seq, result)
	if result.Success {
		deps.Forms.UpdateTicketForm(map[string]any{
			domain.FieldTicketKey:       result.TicketKey,
			domain.FieldTicketURL:       result.TicketURL,
			domain.FieldSubmissionError: "",
		})
	} else {
		deps.Forms.UpdateTicketForm(map[string]any{
			domain.FieldSubmissionError: result.Err,
		})
	}

	if hook := deps.Hooks.OnSubmit; hook != nil {
		hook(ctx, &domain.SubmitEvent{
			Timestamp: time.Now(),
			SessionID: sessionID,
			Category:  string(category),
			Success:   result.Success,
		})
	}
}
