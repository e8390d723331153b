// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into the lead activity log.
package queue

import (
	"fmt"
	"time"
)

// LeadQueueName is the durable queue lead events are published to.
const LeadQueueName = "lead.events"

// Lead event types.
const (
	LeadCreated = "lead.created"
	LeadUpdated = "lead.updated"
	LeadDeleted = "lead.deleted"
)

// LeadEvent is published after a lead was created, updated or deleted.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type LeadEvent struct {
	Type       string    `json:"type"`
	LeadID     string    `json:"lead_id"`
	OwnerID    string    `json:"owner_id"`
	Email      string    `json:"email,omitempty"`
	Status     string    `json:"status,omitempty"`
	Score      int       `json:"score"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Line renders the event as one line of the activity log.
func (ev LeadEvent) Line() string {
	return fmt.Sprintf("[%s] %s | lead_id=%s | owner_id=%s | email=%q | status=%s | score=%d\n",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.LeadID, ev.OwnerID, ev.Email, ev.Status, ev.Score)
}
