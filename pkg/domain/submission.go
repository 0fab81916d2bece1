package domain

// SubmissionResult is the normalized outcome of one ticket-proxy POST,
// produced once per submit action and consumed by the immediately
// following result node. It is read through the shared form context's
// out-of-band slot, never through a closure captured at flow build time.
type SubmissionResult struct {
	Success   bool
	TicketKey string
	TicketURL string
	Err       string
}
