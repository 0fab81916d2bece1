package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the
// store.
var ErrSessionNotFound = errors.New("session not found")

// UnknownNodeError reports a branch resolving to a node name that does not
// exist in the composed flow. This is an engine-fatal condition: it means
// the flow graph itself is broken, not that the user did anything wrong.
type UnknownNodeError struct {
	Node string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q", e.Node)
}
