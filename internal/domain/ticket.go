package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// TicketType enumerates issue categories.
type TicketType string

const (
	TicketTypeSoftware TicketType = "Software"
	TicketTypeHardware TicketType = "Hardware"
)

// normalizeEnum folds case, spaces, underscores and hyphens so that
// "In Progress", "in_progress" and "INPROGRESS" all compare equal. This is
// the single point where loose external spellings are accepted.
func normalizeEnum(raw string) string {
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "")
	return replacer.Replace(strings.ToLower(strings.TrimSpace(raw)))
}

// ParseTicketStatus normalizes external input into a TicketStatus.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch normalizeEnum(raw) {
	case "open":
		return TicketStatusOpen, nil
	case "inprogress":
		return TicketStatusInProgress, nil
	case "closed":
		return TicketStatusClosed, nil
	default:
		return "", fmt.Errorf("unknown ticket status %q", raw)
	}
}

// ParseTicketPriority normalizes external input into a TicketPriority.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	switch normalizeEnum(raw) {
	case "low":
		return TicketPriorityLow, nil
	case "medium":
		return TicketPriorityMedium, nil
	case "high":
		return TicketPriorityHigh, nil
	default:
		return "", fmt.Errorf("unknown ticket priority %q", raw)
	}
}

// ParseTicketType normalizes external input into a TicketType.
func ParseTicketType(raw string) (TicketType, error) {
	switch normalizeEnum(raw) {
	case "software":
		return TicketTypeSoftware, nil
	case "hardware":
		return TicketTypeHardware, nil
	default:
		return "", fmt.Errorf("unknown ticket type %q", raw)
	}
}

// Rank orders priorities from Low to High for sorting.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityLow:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityHigh:
		return 3
	default:
		return 0
	}
}

// Ticket is the aggregate for reported issues.
type Ticket struct {
	ID               string
	Title            string
	Description      string
	Priority         TicketPriority
	Type             TicketType
	Status           TicketStatus
	CreatedByUserID  string
	AssignedToUserID *string
	Comment          string
	ResolutionNotes  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
	ResolutionTime   *time.Duration
	Version          int64
}

// ChangeStatus applies a status transition and derives the resolution
// fields. Closing a ticket stamps resolvedAt and resolutionTime together;
// moving away from Closed clears both. Negative durations from clock skew
// are clamped to zero.
func (t *Ticket) ChangeStatus(next TicketStatus, now time.Time) {
	switch {
	case next == TicketStatusClosed && t.Status != TicketStatusClosed:
		resolved := now
		elapsed := resolved.Sub(t.CreatedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		t.ResolvedAt = &resolved
		t.ResolutionTime = &elapsed
	case next != TicketStatusClosed && t.Status == TicketStatusClosed:
		t.ResolvedAt = nil
		t.ResolutionTime = nil
	}
	t.Status = next
}

// IsAssigned reports whether the ticket has an assignee.
func (t *Ticket) IsAssigned() bool {
	return t.AssignedToUserID != nil && *t.AssignedToUserID != ""
}

// ResolutionHours returns the resolution duration in hours for reporting.
// Tickets without a stored resolutionTime fall back to resolvedAt (or
// updatedAt when resolvedAt is absent) minus createdAt, clamped to zero.
func (t *Ticket) ResolutionHours() float64 {
	if t.ResolutionTime != nil {
		return t.ResolutionTime.Hours()
	}
	end := t.UpdatedAt
	if t.ResolvedAt != nil {
		end = *t.ResolvedAt
	}
	elapsed := end.Sub(t.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed.Hours()
}
