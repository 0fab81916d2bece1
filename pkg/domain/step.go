package domain

// Step is the tagged result of a branch resolution: either advance to a
// named node or stay on the current one and re-render. The explicit retry
// case replaces the source convention of an absent return value meaning
// "remain here".
type Step struct {
	target string
	retry  bool
}

// Advance moves the dialog to the named node.
func Advance(target string) Step {
	return Step{target: target}
}

// Retry keeps the dialog on the current node. Used as an async soft
// rejection, e.g. when a branch function spots invalid input itself.
func Retry() Step {
	return Step{retry: true}
}

// IsRetry reports whether the step keeps the dialog on the current node.
func (s Step) IsRetry() bool { return s.retry }

// Target returns the destination node name. Empty for retries.
func (s Step) Target() string { return s.target }
