package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/policy"
	"github.com/spec-kit/issue-tracker/internal/repository"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util"
)

// CreateTicketInput carries the fields a caller may set at creation time.
type CreateTicketInput struct {
	Title       string
	Description string
	Priority    string
	Type        string
}

// UpdateTicketInput carries a partial update. Blank strings preserve the
// stored value for title, description, priority, type and status. Comment
// and resolution notes are pointers: nil preserves, empty string clears.
// AssignedToUserID is Admin-only: nil preserves, empty string unassigns.
type UpdateTicketInput struct {
	Title            string
	Description      string
	Priority         string
	Type             string
	Status           string
	Comment          *string
	ResolutionNotes  *string
	AssignedToUserID *string
	Version          int64
}

// TicketPage is one page of search results plus pre-pagination totals.
type TicketPage struct {
	Items      []domain.Ticket
	TotalCount int
	TotalPages int
	PageNumber int
	PageSize   int
}

// TicketService implements the ticket lifecycle rules: creation, role-scoped
// visibility, partial updates, first-responder auto-assignment and the
// derived resolution fields.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(
	tickets repository.TicketRepository,
	users repository.UserRepository,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		tickets:    tickets,
		users:      users,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Create files a new ticket for the caller. Representatives do not file
// tickets; they work the queue.
func (s *TicketService) Create(ctx context.Context, callerID string, role domain.Role, in CreateTicketInput) (*domain.Ticket, error) {
	if role == domain.RoleRep {
		return nil, apperrors.NewForbidden("representatives may not create tickets")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	priority, err := domain.ParseTicketPriority(in.Priority)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	ticketType, err := domain.ParseTicketType(in.Type)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	ticket := &domain.Ticket{
		Title:           title,
		Description:     strings.TrimSpace(in.Description),
		Priority:        priority,
		Type:            ticketType,
		Status:          domain.TicketStatusOpen,
		CreatedByUserID: callerID,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketCreated, ticket.ID, callerID, events.TicketCreatedPayload{
		Title:            ticket.Title,
		Priority:         ticket.Priority,
		CreatedByUserID:  ticket.CreatedByUserID,
		AssignedToUserID: ticket.AssignedToUserID,
	})
	return ticket, nil
}

// Get fetches a single ticket subject to the caller's visibility.
func (s *TicketService) Get(ctx context.Context, callerID string, role domain.Role, id string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTicket(callerID, role, ticket) {
		return nil, apperrors.NewForbidden("ticket is not visible to the caller")
	}
	return ticket, nil
}

// Search returns one page of tickets matching the filter, pre-narrowed to
// the caller's visible set. Totals are computed before pagination.
func (s *TicketService) Search(ctx context.Context, callerID string, role domain.Role, filter repository.TicketFilter) (*TicketPage, error) {
	filter.Scope = policy.ScopeForList(callerID, role)

	if filter.PageNumber < 1 {
		filter.PageNumber = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	items, total, err := s.tickets.Search(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + filter.PageSize - 1) / filter.PageSize
	}
	return &TicketPage{
		Items:      items,
		TotalCount: total,
		TotalPages: totalPages,
		PageNumber: filter.PageNumber,
		PageSize:   filter.PageSize,
	}, nil
}

// Update applies a partial update under optimistic concurrency. The caller
// must supply the version observed at read time; a mismatch is a conflict.
func (s *TicketService) Update(ctx context.Context, callerID string, role domain.Role, id string, in UpdateTicketInput) (*domain.Ticket, error) {
	if in.Version < 1 {
		return nil, apperrors.NewValidationError("version is required", nil)
	}

	ticket, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutateTicket(callerID, role, ticket) {
		return nil, apperrors.NewForbidden("ticket is not visible to the caller")
	}

	oldStatus := ticket.Status
	oldAssignee := ticket.AssignedToUserID

	if title := strings.TrimSpace(in.Title); title != "" {
		ticket.Title = title
	}
	if description := strings.TrimSpace(in.Description); description != "" {
		ticket.Description = description
	}
	if in.Priority != "" {
		priority, err := domain.ParseTicketPriority(in.Priority)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		ticket.Priority = priority
	}
	if in.Type != "" {
		ticketType, err := domain.ParseTicketType(in.Type)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		ticket.Type = ticketType
	}

	if in.Status != "" {
		status, err := domain.ParseTicketStatus(in.Status)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		if status != oldStatus && role == domain.RoleUser {
			return nil, apperrors.NewForbidden("users may not change ticket status")
		}
		ticket.ChangeStatus(status, s.now())
	}

	if in.Comment != nil {
		if role == domain.RoleUser {
			return nil, apperrors.NewForbidden("only representatives and admins may set the comment")
		}
		ticket.Comment = strings.TrimSpace(*in.Comment)
	}
	if in.ResolutionNotes != nil {
		if role == domain.RoleUser {
			return nil, apperrors.NewForbidden("only representatives and admins may set resolution notes")
		}
		ticket.ResolutionNotes = strings.TrimSpace(*in.ResolutionNotes)
	}

	if in.AssignedToUserID != nil {
		if role != domain.RoleAdmin {
			return nil, apperrors.NewForbidden("only admins may reassign tickets")
		}
		if *in.AssignedToUserID == "" {
			ticket.AssignedToUserID = nil
		} else {
			if err := s.checkAssignee(ctx, *in.AssignedToUserID); err != nil {
				return nil, err
			}
			assignee := *in.AssignedToUserID
			ticket.AssignedToUserID = &assignee
		}
	}

	s.autoAssign(ticket, callerID, role)

	if err := s.save(ctx, ticket, in.Version); err != nil {
		return nil, err
	}

	if ticket.Status != oldStatus {
		s.publish(ctx, events.EventTicketStatusChanged, ticket.ID, callerID, events.TicketStatusChangedPayload{
			Title:           ticket.Title,
			OldStatus:       oldStatus,
			NewStatus:       ticket.Status,
			CreatedByUserID: ticket.CreatedByUserID,
		})
	}
	s.publishAssignmentChange(ctx, ticket, callerID, oldAssignee)
	return ticket, nil
}

// Comment replaces the representative comment on a ticket. It uses the
// version read here, so a concurrent writer surfaces as a retryable conflict.
func (s *TicketService) Comment(ctx context.Context, callerID string, role domain.Role, id, comment string) (*domain.Ticket, error) {
	if role == domain.RoleUser {
		return nil, apperrors.NewForbidden("only representatives and admins may comment")
	}

	ticket, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMutateTicket(callerID, role, ticket) {
		return nil, apperrors.NewForbidden("ticket is not visible to the caller")
	}

	oldAssignee := ticket.AssignedToUserID
	ticket.Comment = strings.TrimSpace(comment)
	s.autoAssign(ticket, callerID, role)

	if err := s.save(ctx, ticket, ticket.Version); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketCommented, ticket.ID, callerID, events.TicketCommentedPayload{
		Title:           ticket.Title,
		CreatedByUserID: ticket.CreatedByUserID,
	})
	s.publishAssignmentChange(ctx, ticket, callerID, oldAssignee)
	return ticket, nil
}

// Delete removes a ticket. Admins may delete any ticket, users their own.
func (s *TicketService) Delete(ctx context.Context, callerID string, role domain.Role, id string) error {
	ticket, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}

	allowed := role == domain.RoleAdmin ||
		(role == domain.RoleUser && ticket.CreatedByUserID == callerID)
	if !allowed {
		return apperrors.NewForbidden("caller may not delete this ticket")
	}

	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketService) fetch(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) save(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	err := s.tickets.Update(ctx, ticket, expectedVersion)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperrors.NewVersionConflict("ticket", expectedVersion)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return apperrors.MapError(err)
}

// autoAssign applies the first-responder rule: a representative touching an
// unassigned ticket becomes its assignee. Ownership is sticky; only an Admin
// reassignment changes it afterwards.
func (s *TicketService) autoAssign(ticket *domain.Ticket, callerID string, role domain.Role) {
	if role != domain.RoleRep || ticket.IsAssigned() {
		return
	}
	assignee := callerID
	ticket.AssignedToUserID = &assignee
}

func (s *TicketService) checkAssignee(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("assignee does not exist", nil)
		}
		return apperrors.MapError(err)
	}
	if user.Role != domain.RoleRep {
		return apperrors.NewValidationError("assignee must be a representative", nil)
	}
	return nil
}

func (s *TicketService) publishAssignmentChange(ctx context.Context, ticket *domain.Ticket, actorID string, oldAssignee *string) {
	if !ticket.IsAssigned() {
		return
	}
	if oldAssignee != nil && *oldAssignee == *ticket.AssignedToUserID {
		return
	}
	s.publish(ctx, events.EventTicketAssigned, ticket.ID, actorID, events.TicketAssignedPayload{
		Title:            ticket.Title,
		AssignedToUserID: *ticket.AssignedToUserID,
	})
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticketID, actorID string, payload any) {
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: s.now(),
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("event publish failed",
			zap.String("type", string(eventType)),
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}
