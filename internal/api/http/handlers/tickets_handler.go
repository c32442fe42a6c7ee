package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/internal/service"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create handles POST /api/ticket.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.tickets.Create(c.UserContext(), p.UserID, p.Role, service.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Type:        req.Type,
	})
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusCreated, dto.NewTicketResponse(ticket))
}

// List handles GET /api/ticket with search, sort and pagination.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var query dto.SearchTicketsQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query parameters", nil)
	}

	filter, err := buildTicketFilter(query)
	if err != nil {
		return err
	}

	page, err := h.tickets.Search(c.UserContext(), p.UserID, p.Role, filter)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewTicketPageResponse(page))
}

// Get handles GET /api/ticket/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	ticket, err := h.tickets.Get(c.UserContext(), p.UserID, p.Role, c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewTicketResponse(ticket))
}

// Update handles PUT /api/ticket/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	id := c.Params("id")
	if req.ID != "" && req.ID != id {
		return apperrors.NewValidationError("id in body does not match path", map[string]any{
			"path_id": id,
			"body_id": req.ID,
		})
	}

	ticket, err := h.tickets.Update(c.UserContext(), p.UserID, p.Role, id, service.UpdateTicketInput{
		Title:            req.Title,
		Description:      req.Description,
		Priority:         req.Priority,
		Type:             req.Type,
		Status:           req.Status,
		Comment:          req.Comment,
		ResolutionNotes:  req.ResolutionNotes,
		AssignedToUserID: req.AssignedToUserID,
		Version:          req.Version,
	})
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewTicketResponse(ticket))
}

// Comment handles PUT /api/ticket/:id/comment.
func (h *TicketsHandler) Comment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CommentTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.tickets.Comment(c.UserContext(), p.UserID, p.Role, c.Params("id"), req.Comment)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewTicketResponse(ticket))
}

// Delete handles DELETE /api/ticket/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.tickets.Delete(c.UserContext(), p.UserID, p.Role, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func buildTicketFilter(query dto.SearchTicketsQuery) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		SortBy:     repository.ParseSortKey(query.SortBy),
		SortDesc:   !strings.EqualFold(query.SortOrder, "asc"),
		PageNumber: query.PageNumber,
		PageSize:   query.PageSize,
	}

	if query.Title != "" {
		filter.Title = &query.Title
	}
	if query.Description != "" {
		filter.Description = &query.Description
	}
	if query.Priority != "" {
		priority, err := domain.ParseTicketPriority(query.Priority)
		if err != nil {
			return filter, apperrors.NewValidationError(err.Error(), nil)
		}
		filter.Priority = &priority
	}
	if query.Type != "" {
		ticketType, err := domain.ParseTicketType(query.Type)
		if err != nil {
			return filter, apperrors.NewValidationError(err.Error(), nil)
		}
		filter.Type = &ticketType
	}
	if query.Status != "" {
		status, err := domain.ParseTicketStatus(query.Status)
		if err != nil {
			return filter, apperrors.NewValidationError(err.Error(), nil)
		}
		filter.Status = &status
	}
	if query.CreatedByUserID != "" {
		filter.CreatedByUserID = &query.CreatedByUserID
	}
	if query.AssignedToUserID != "" {
		filter.AssignedToUserID = &query.AssignedToUserID
	}

	var err error
	if filter.CreatedFrom, err = parseTimeParam(query.CreatedFrom, "created_from"); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = parseTimeParam(query.CreatedTo, "created_to"); err != nil {
		return filter, err
	}
	if filter.UpdatedFrom, err = parseTimeParam(query.UpdatedFrom, "updated_from"); err != nil {
		return filter, err
	}
	if filter.UpdatedTo, err = parseTimeParam(query.UpdatedTo, "updated_to"); err != nil {
		return filter, err
	}
	return filter, nil
}
