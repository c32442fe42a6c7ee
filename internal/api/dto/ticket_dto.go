package dto

import (
	"time"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority" validate:"required"`
	Type        string `json:"type" validate:"required"`
}

// UpdateTicketRequest payload. Blank strings leave the stored value alone;
// comment, resolution_notes and assigned_to_user_id distinguish omitted
// (null) from explicit empty.
type UpdateTicketRequest struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Priority         string  `json:"priority"`
	Type             string  `json:"type"`
	Status           string  `json:"status"`
	Comment          *string `json:"comment"`
	ResolutionNotes  *string `json:"resolution_notes"`
	AssignedToUserID *string `json:"assigned_to_user_id"`
	Version          int64   `json:"version" validate:"required,min=1"`
}

// CommentTicketRequest payload.
type CommentTicketRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// SearchTicketsQuery captures the list/search query string.
type SearchTicketsQuery struct {
	Title            string `query:"title"`
	Description      string `query:"description"`
	Priority         string `query:"priority"`
	Type             string `query:"type"`
	Status           string `query:"status"`
	CreatedByUserID  string `query:"created_by_user_id"`
	AssignedToUserID string `query:"assigned_to_user_id"`
	CreatedFrom      string `query:"created_from"`
	CreatedTo        string `query:"created_to"`
	UpdatedFrom      string `query:"updated_from"`
	UpdatedTo        string `query:"updated_to"`
	SortBy           string `query:"sort_by"`
	SortOrder        string `query:"sort_order"`
	PageNumber       int    `query:"page_number"`
	PageSize         int    `query:"page_size"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID                 string                `json:"id"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	Priority           domain.TicketPriority `json:"priority"`
	Type               domain.TicketType     `json:"type"`
	Status             domain.TicketStatus   `json:"status"`
	CreatedByUserID    string                `json:"created_by_user_id"`
	AssignedToUserID   *string               `json:"assigned_to_user_id"`
	Comment            string                `json:"comment"`
	ResolutionNotes    string                `json:"resolution_notes"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	ResolvedAt         *time.Time            `json:"resolved_at"`
	ResolutionTimeSecs *int64                `json:"resolution_time_seconds"`
	Version            int64                 `json:"version"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	var resSecs *int64
	if t.ResolutionTime != nil {
		secs := int64(t.ResolutionTime.Seconds())
		resSecs = &secs
	}
	return TicketResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		Priority:           t.Priority,
		Type:               t.Type,
		Status:             t.Status,
		CreatedByUserID:    t.CreatedByUserID,
		AssignedToUserID:   t.AssignedToUserID,
		Comment:            t.Comment,
		ResolutionNotes:    t.ResolutionNotes,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		ResolvedAt:         t.ResolvedAt,
		ResolutionTimeSecs: resSecs,
		Version:            t.Version,
	}
}

// TicketPageResponse is one page of search results.
type TicketPageResponse struct {
	Items      []TicketResponse `json:"items"`
	TotalCount int              `json:"total_count"`
	TotalPages int              `json:"total_pages"`
	PageNumber int              `json:"page_number"`
	PageSize   int              `json:"page_size"`
}

// NewTicketPageResponse maps a service page.
func NewTicketPageResponse(page *service.TicketPage) TicketPageResponse {
	items := make([]TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewTicketResponse(&page.Items[i]))
	}
	return TicketPageResponse{
		Items:      items,
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}
}
