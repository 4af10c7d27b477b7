// Package audit captures key lifecycle actions as events. Events are
// transport-agnostic so stores and sinks can fan out (memory, Kafka).
package audit

import (
	"context"
	"time"
)

// Action names one auditable lifecycle action.
type Action string

const (
	ActionReportCreated       Action = "report_created"
	ActionReportEndorsed      Action = "report_endorsed"
	ActionResolutionConfirmed Action = "resolution_confirmed"
	ActionStatusOverridden    Action = "status_overridden"
	ActionAnonymousPurged     Action = "anonymous_reports_purged"
	ActionReporterPurged      Action = "reporter_reports_purged"
	ActionCreditsAdjusted     Action = "credits_adjusted"
	ActionCurrencyAdjusted    Action = "currency_adjusted"
)

// Event is emitted from domain logic to capture one action.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// Actor is who performed the action (email, or "anonymous").
	Actor string `json:"actor"`
	// ReportID is set for report-scoped actions.
	ReportID string `json:"report_id,omitempty"`
	// Status is the resulting status for status-changing actions.
	Status string `json:"status,omitempty"`
	// Reason carries the admin comment or purge target.
	Reason string `json:"reason,omitempty"`
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string `json:"request_id,omitempty"`
}

// Store receives emitted events. Implementations must be safe for concurrent
// use.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}
