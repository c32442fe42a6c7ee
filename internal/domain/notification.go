package domain

import "time"

// NotificationType tags what a notification is about.
type NotificationType string

const (
	NotificationTicketCreated   NotificationType = "TicketCreated"
	NotificationTicketAssigned  NotificationType = "TicketAssigned"
	NotificationTicketUpdated   NotificationType = "TicketUpdated"
	NotificationTicketCommented NotificationType = "TicketCommented"
)

// Notification is an informational message for a single recipient. The
// ticket reference is nullable so notifications survive ticket deletion.
type Notification struct {
	ID        string
	UserID    string
	TicketID  *string
	Type      NotificationType
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
