package events

import (
	"time"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketCommented     EventType = "ticket_commented"
)

// Event represents a domain event emitted after the primary write commits.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title            string                `json:"title"`
	Priority         domain.TicketPriority `json:"priority"`
	CreatedByUserID  string                `json:"created_by_user_id"`
	AssignedToUserID *string               `json:"assigned_to_user_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	Title           string              `json:"title"`
	OldStatus       domain.TicketStatus `json:"old_status"`
	NewStatus       domain.TicketStatus `json:"new_status"`
	CreatedByUserID string              `json:"created_by_user_id"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Title            string `json:"title"`
	AssignedToUserID string `json:"assigned_to_user_id"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	Title           string `json:"title"`
	CreatedByUserID string `json:"created_by_user_id"`
}
