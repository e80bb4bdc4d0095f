package models

import "time"

// MetricsSnapshot summarises process counters for the operations dashboard.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ReputationComputations   uint64    `json:"reputation_computations"`
	OverrideUpserts          uint64    `json:"override_upserts"`
	SessionTransitions       uint64    `json:"session_transitions"`
	TicketPolicyWarnings     uint64    `json:"ticket_policy_warnings"`
	RateLimited              uint64    `json:"rate_limited"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
