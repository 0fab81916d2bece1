package domain

// Canonical form field names shared by flows, the submission pipeline and
// the host adapters.
const (
	FieldSummary     = "summary"
	FieldDescription = "description"
	FieldAttachments = "attachments"
	FieldEmail       = "email"
	FieldName        = "name"
	FieldAccessID    = "accessId"
	FieldPriority    = "priority"

	// Submission outcome fields merged back into the ticket form so result
	// nodes can render them.
	FieldTicketKey       = "ticketKey"
	FieldTicketURL       = "ticketUrl"
	FieldSubmissionError = "submissionError"
)

// NotProvided is the sentinel recorded when a skippable field is submitted
// empty.
const NotProvided = "Not provided"
