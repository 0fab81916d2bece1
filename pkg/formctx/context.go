// Package formctx provides the shared form context: the indirection layer
// that lets every node — regardless of which flow build produced it — read
// the current ticket or feedback record and apply merge updates. The flow
// graph can be rebuilt (new closures) while the user is mid-traversal, so
// nodes must always read through this context instead of caching a record.
package formctx

import (
	"log/slog"
	"sync"

	"github.com/necyberteam/qabot/internal/logging"
	"github.com/necyberteam/qabot/pkg/domain"
)

// Which selects one of the two live records.
type Which int

const (
	Ticket Which = iota
	Feedback
)

// Binding exposes the live form records of whichever component currently
// owns them. Hosts that rebuild their state on every update re-register a
// binding so reads always observe the latest records.
type Binding interface {
	TicketForm() domain.FormRecord
	FeedbackForm() domain.FormRecord
	UpdateTicketForm(partial map[string]any)
	UpdateFeedbackForm(partial map[string]any)
	ResetTicketForm()
	ResetFeedbackForm()
}

// Context is the shared form context for one conversation. It also carries
// the out-of-band SubmissionResult slot written by the submitting node and
// read by the result node.
type Context struct {
	mu      sync.Mutex
	binding Binding
	logger  *slog.Logger

	submission    *domain.SubmissionResult
	submissionSeq uint64
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// New creates an empty Context. Reads before SetBinding warn and return an
// empty record; they never fail.
func New(opts ...Option) *Context {
	c := &Context{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBinding registers the active binding. It must be called whenever the
// owning session (re)builds its flow graph, before any node executes.
func (c *Context) SetBinding(b Binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.binding = b
}

func (c *Context) current() Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.binding == nil {
		c.logger.Warn("form context read before a binding was registered")
		return nil
	}
	return c.binding
}

// TicketForm returns the live ticket record, empty when no binding is
// registered.
func (c *Context) TicketForm() domain.FormRecord {
	if b := c.current(); b != nil {
		return b.TicketForm()
	}
	return domain.FormRecord{}
}

// FeedbackForm returns the live feedback record, empty when no binding is
// registered.
func (c *Context) FeedbackForm() domain.FormRecord {
	if b := c.current(); b != nil {
		return b.FeedbackForm()
	}
	return domain.FormRecord{}
}

// UpdateTicketForm shallow-merges partial into the live ticket record.
func (c *Context) UpdateTicketForm(partial map[string]any) {
	if b := c.current(); b != nil {
		b.UpdateTicketForm(partial)
	}
}

// UpdateFeedbackForm shallow-merges partial into the live feedback record.
func (c *Context) UpdateFeedbackForm(partial map[string]any) {
	if b := c.current(); b != nil {
		b.UpdateFeedbackForm(partial)
	}
}

// ResetTicketForm clears the ticket record through the binding, so owners
// that hand out snapshots still apply the reset to their live copy.
func (c *Context) ResetTicketForm() {
	if b := c.current(); b != nil {
		b.ResetTicketForm()
	}
}

// ResetFeedbackForm clears the feedback record through the binding.
func (c *Context) ResetFeedbackForm() {
	if b := c.current(); b != nil {
		b.ResetFeedbackForm()
	}
}

// FieldWithFallback returns the named field of the selected record, or
// fallback when the field is absent or empty.
func (c *Context) FieldWithFallback(field string, which Which, fallback string) string {
	var record domain.FormRecord
	switch which {
	case Feedback:
		record = c.FeedbackForm()
	default:
		record = c.TicketForm()
	}
	if v := record.String(field); v != "" {
		return v
	}
	return fallback
}

// MergeWithIdentity returns the live ticket form overlaid with the known
// identity. Identity pre-populates; a value the user already typed wins.
func (c *Context) MergeWithIdentity(identity domain.Identity) domain.FormRecord {
	merged := c.TicketForm().Clone()
	if merged.String(domain.FieldEmail) == "" && identity.Email != "" {
		merged[domain.FieldEmail] = identity.Email
	}
	if merged.String(domain.FieldName) == "" && identity.Name != "" {
		merged[domain.FieldName] = identity.Name
	}
	if merged.String(domain.FieldAccessID) == "" && identity.Username != "" {
		merged[domain.FieldAccessID] = identity.Username
	}
	return merged
}

// BeginSubmission opens a new submission attempt and returns its sequence
// token. Results carrying a stale token are dropped, so a submission the
// user navigated away from can never clobber a newer one.
func (c *Context) BeginSubmission() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submissionSeq++
	c.submission = nil
	return c.submissionSeq
}

// SetSubmission records the result of the submission attempt identified by
// seq. Stale results are ignored.
func (c *Context) SetSubmission(seq uint64, result domain.SubmissionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.submissionSeq {
		c.logger.Debug("dropping stale submission result", "seq", seq, "current", c.submissionSeq)
		return
	}
	c.submission = &result
}

// Submission returns the latest submission result, if any.
func (c *Context) Submission() (domain.SubmissionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submission == nil {
		return domain.SubmissionResult{}, false
	}
	return *c.submission, true
}
