package formctx

import (
	"sync"

	"github.com/necyberteam/qabot/pkg/domain"
)

// MapBinding is the default Binding: two plain records guarded by a mutex.
// Hosts with their own state management implement Binding directly.
type MapBinding struct {
	mu       sync.Mutex
	ticket   domain.FormRecord
	feedback domain.FormRecord
}

// NewMapBinding creates a binding with empty records.
func NewMapBinding() *MapBinding {
	return &MapBinding{
		ticket:   domain.FormRecord{},
		feedback: domain.FormRecord{},
	}
}

// TicketForm returns the live ticket record.
func (b *MapBinding) TicketForm() domain.FormRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ticket
}

// FeedbackForm returns the live feedback record.
func (b *MapBinding) FeedbackForm() domain.FormRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.feedback
}

// UpdateTicketForm merges partial into the ticket record.
func (b *MapBinding) UpdateTicketForm(partial map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticket.Merge(partial)
}

// UpdateFeedbackForm merges partial into the feedback record.
func (b *MapBinding) UpdateFeedbackForm(partial map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.feedback.Merge(partial)
}

// ResetTicketForm clears the ticket record in place, keeping references
// held by earlier readers valid.
func (b *MapBinding) ResetTicketForm() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticket.Reset()
}

// ResetFeedbackForm clears the feedback record in place.
func (b *MapBinding) ResetFeedbackForm() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.feedback.Reset()
}
