package history

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("history: record not found")

// Record is one finished roast call. Rows are append-only and deliberately
// carry no form input; the only identifiers kept are the visitor and the
// provider call id.
type Record struct {
	ID              string    `json:"id"`
	VisitorID       string    `json:"visitor_id"`
	CallID          string    `json:"call_id"`
	AgentID         string    `json:"agent_id"`
	AmountMinor     int64     `json:"amount_minor"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	DurationSeconds int       `json:"duration_seconds"`
	EndedByAgent    bool      `json:"ended_by_agent"`
	RecordingURL    string    `json:"recording_url,omitempty"`
	City            string    `json:"city,omitempty"`
	State           string    `json:"state,omitempty"`
	AnsweredBy      string    `json:"answered_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
