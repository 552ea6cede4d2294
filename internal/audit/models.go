// Package audit records the change feed for school mutations. Every
// successful Add/Update/Delete appends one event; on PostgreSQL the append
// shares the mutation's transaction (outbox pattern) and a relay publishes
// the outbox to Kafka, which downstream consumers treat as the change log.
package audit

import "time"

// Action identifies what happened to a school.
type Action string

const (
	ActionSchoolCreated Action = "school.created"
	ActionSchoolUpdated Action = "school.updated"
	ActionSchoolDeleted Action = "school.deleted"
)

// Event is one change-feed entry.
type Event struct {
	Action     Action    `json:"action"`
	SchoolID   int64     `json:"school_id"`
	RowVersion int64     `json:"row_version,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
