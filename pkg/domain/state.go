package domain

// ChatState is the ephemeral view a node's functions receive during one
// transition. It is engine-owned, built fresh per transition and never
// persisted.
type ChatState struct {
	// Input is the raw user submission that triggered this transition.
	Input Input

	// PreviousNode is the name of the node the dialog came from.
	PreviousNode string

	// SessionID is the process-durable conversation identifier.
	SessionID string

	// Post pushes an additional asynchronous message into the transcript,
	// independent of the node's rendered content. May be nil when the host
	// does not support it.
	Post func(message string)
}

// Notify posts a fire-and-forget transcript message if the host wired a
// sink; otherwise it is silently dropped.
func (s *ChatState) Notify(message string) {
	if s != nil && s.Post != nil {
		s.Post(message)
	}
}

// State is the durable snapshot of one conversation: where the dialog is
// and how it got there. Hosts persist it between turns through a
// ports.StateStore.
type State struct {
	// SessionID identifies the conversation.
	SessionID string `json:"session_id"`

	// CurrentNode is the name of the active node.
	CurrentNode string `json:"current_node"`

	// PreviousNode is the node active before the last transition.
	PreviousNode string `json:"previous_node,omitempty"`

	// History tracks the path taken, useful for debugging.
	History []string `json:"history,omitempty"`

	// Context holds host-managed extras (e.g. form snapshots for resume).
	Context map[string]any `json:"context,omitempty"`
}

// NewState creates a clean state positioned at the entry node.
func NewState(sessionID, entryNode string) *State {
	return &State{
		SessionID:   sessionID,
		CurrentNode: entryNode,
		History:     []string{entryNode},
		Context:     make(map[string]any),
	}
}
