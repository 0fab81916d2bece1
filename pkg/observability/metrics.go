// Package observability wires the engine's lifecycle hooks to Prometheus.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/necyberteam/qabot/pkg/domain"
)

// Metrics holds the collectors for one bot deployment.
type Metrics struct {
	NodeVisits        *prometheus.CounterVec
	ValidationRejects *prometheus.CounterVec
	Submissions       *prometheus.CounterVec
	Queries           prometheus.Counter
	Ratings           *prometheus.CounterVec
}

// NewMetrics registers the collectors with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NodeVisits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qabot_node_visits_total",
			Help: "Total number of dialog node visits",
		}, []string{"node"}),
		ValidationRejects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qabot_validation_rejects_total",
			Help: "Total number of rejected user inputs",
		}, []string{"node"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qabot_submissions_total",
			Help: "Total number of ticket submissions by outcome",
		}, []string{"category", "outcome"}),
		Queries: factory.NewCounter(prometheus.CounterOpts{
			Name: "qabot_ai_queries_total",
			Help: "Total number of AI queries",
		}),
		Ratings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qabot_ratings_total",
			Help: "Total number of answer ratings by feedback",
		}, []string{"feedback"}),
	}
}

// Hooks adapts the collectors to the engine's lifecycle hooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeName).Inc()
		},
		OnValidateReject: func(_ context.Context, e *domain.NodeEvent) {
			m.ValidationRejects.WithLabelValues(e.NodeName).Inc()
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			outcome := "failure"
			if e.Success {
				outcome = "success"
			}
			m.Submissions.WithLabelValues(e.Category, outcome).Inc()
		},
		OnQuery: func(_ context.Context, _ *domain.QueryEvent) {
			m.Queries.Inc()
		},
		OnRating: func(_ context.Context, e *domain.QueryEvent) {
			feedback := "negative"
			if e.Positive != nil && *e.Positive {
				feedback = "positive"
			}
			m.Ratings.WithLabelValues(feedback).Inc()
		},
	}
}
