package domain

import (
	"context"
)

// Role identifies who authored a transcript message.
type Role string

const (
	RoleBot  Role = "bot"
	RoleUser Role = "user"
)

// RoleSet marks which roles should have their content rendered as rich
// markup (markdown) instead of literal text.
type RoleSet map[Role]bool

// MarkupFor builds a RoleSet from the given roles.
func MarkupFor(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}

// MessageFunc produces the content shown when a node is entered. It may
// perform I/O (e.g. an AI query) and may push additional fire-and-forget
// messages through ChatState.Notify.
type MessageFunc func(ctx context.Context, state *ChatState) (string, error)

// OptionsFunc produces the ordered list of selectable options for a node.
type OptionsFunc func(ctx context.Context, state *ChatState) ([]string, error)

// ValidateFunc checks raw user input before it is committed.
type ValidateFunc func(ctx context.Context, input Input) Verdict

// CommitFunc applies the accepted input's side effects. Its only sanctioned
// effect is mutating the shared form context.
type CommitFunc func(ctx context.Context, state *ChatState) error

// DisabledFunc reports whether free-text input is rejected for a node,
// leaving only the options selectable.
type DisabledFunc func(state *ChatState) bool

// NextFunc resolves the branch taken after input is accepted and committed.
// It may perform I/O (e.g. a ticket submission) before deciding.
type NextFunc func(ctx context.Context, state *ChatState) (Step, error)

// Node is one named step of the dialog script. Nodes are declarative and
// immutable once a flow is composed; all per-transition data arrives via
// ChatState.
type Node struct {
	// Name is the unique key of this node within the composed flow.
	Name string

	// Message produces the node's content. Nil means no content.
	Message MessageFunc

	// Options produces the selectable options. Nil means free text only.
	Options OptionsFunc

	// ValidateInput rejects input before commit. Nil accepts everything.
	ValidateInput ValidateFunc

	// OnCommit runs once input is accepted, before branching.
	OnCommit CommitFunc

	// InputDisabled restricts the node to option selection.
	InputDisabled DisabledFunc

	// Next resolves the following node. Nil means remain on this node.
	Next NextFunc

	// Markup marks roles whose content is rendered as markdown.
	Markup RoleSet
}

// StaticMessage lifts a literal string into a MessageFunc.
func StaticMessage(text string) MessageFunc {
	return func(context.Context, *ChatState) (string, error) {
		return text, nil
	}
}

// StaticOptions lifts a literal option list into an OptionsFunc.
func StaticOptions(options ...string) OptionsFunc {
	return func(context.Context, *ChatState) ([]string, error) {
		return options, nil
	}
}

// AdvanceTo lifts an unconditional branch target into a NextFunc.
func AdvanceTo(name string) NextFunc {
	return func(context.Context, *ChatState) (Step, error) {
		return Advance(name), nil
	}
}

// OptionsOnly is a DisabledFunc that always rejects free text.
func OptionsOnly(*ChatState) bool { return true }
