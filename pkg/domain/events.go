package domain

import (
	"context"
	"time"
)

// NodeEvent reports entry into a node or a validation rejection.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	NodeName  string    `json:"node_name"`
}

// SubmitEvent reports the outcome of a ticket submission.
type SubmitEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Category  string    `json:"category"`
	Success   bool      `json:"success"`
}

// QueryEvent reports an AI query or a feedback rating. Positive is nil for
// queries and set for ratings.
type QueryEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	QueryID   string    `json:"query_id"`
	Positive  *bool     `json:"positive,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability. Any hook may
// be nil.
type LifecycleHooks struct {
	OnNodeEnter      func(context.Context, *NodeEvent)
	OnValidateReject func(context.Context, *NodeEvent)
	OnSubmit         func(context.Context, *SubmitEvent)
	OnQuery          func(context.Context, *QueryEvent)
	OnRating         func(context.Context, *QueryEvent)
}

// MergeHooks fans each event out to every hook set that defines it.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range sets {
		h := h
		merged = LifecycleHooks{
			OnNodeEnter:      chainNode(merged.OnNodeEnter, h.OnNodeEnter),
			OnValidateReject: chainNode(merged.OnValidateReject, h.OnValidateReject),
			OnSubmit:         chainSubmit(merged.OnSubmit, h.OnSubmit),
			OnQuery:          chainQuery(merged.OnQuery, h.OnQuery),
			OnRating:         chainQuery(merged.OnRating, h.OnRating),
		}
	}
	return merged
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) { a(ctx, e); b(ctx, e) }
}

func chainSubmit(a, b func(context.Context, *SubmitEvent)) func(context.Context, *SubmitEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *SubmitEvent) { a(ctx, e); b(ctx, e) }
}

func chainQuery(a, b func(context.Context, *QueryEvent)) func(context.Context, *QueryEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *QueryEvent) { a(ctx, e); b(ctx, e) }
}
