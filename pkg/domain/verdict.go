package domain

import "time"

// Verdict is the result of input validation. A rejected verdict re-prompts
// the same node with Message; RetryDelay hints the host UI how long to
// highlight the prompt.
type Verdict struct {
	Accepted   bool
	Message    string
	RetryDelay time.Duration
}

// Accept returns an accepting verdict.
func Accept() Verdict {
	return Verdict{Accepted: true}
}

// Reject returns a rejecting verdict with a user-facing prompt.
func Reject(message string) Verdict {
	return Verdict{Message: message}
}

// RejectAfter returns a rejecting verdict with a UI retry hint.
func RejectAfter(message string, delay time.Duration) Verdict {
	return Verdict{Message: message, RetryDelay: delay}
}
