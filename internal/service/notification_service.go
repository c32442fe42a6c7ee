package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/mail"
	"github.com/spec-kit/issue-tracker/internal/repository"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util"
)

// NotificationService turns ticket events into per-user notification rows
// and best-effort email. Handler failures are logged, never propagated; the
// ticket operation that triggered them has already committed.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	dispatcher    events.Dispatcher
	mailer        mail.Mailer
	logger        *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	dispatcher events.Dispatcher,
	mailer mail.Mailer,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		dispatcher:    dispatcher,
		mailer:        mailer,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to the ticket event stream.
func (s *NotificationService) RegisterHandlers() {
	s.dispatcher.Subscribe(events.EventTicketCreated, s.onTicketCreated)
	s.dispatcher.Subscribe(events.EventTicketAssigned, s.onTicketAssigned)
	s.dispatcher.Subscribe(events.EventTicketStatusChanged, s.onTicketStatusChanged)
	s.dispatcher.Subscribe(events.EventTicketCommented, s.onTicketCommented)
}

// List returns the caller's notifications, unread first, then newest.
func (s *NotificationService) List(ctx context.Context, callerID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, callerID, unreadOnly, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notifications, nil
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, callerID, id string) error {
	if err := s.notifications.MarkRead(ctx, id, callerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller as read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, callerID string) (int, error) {
	count, err := s.notifications.MarkAllRead(ctx, callerID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// CountUnread returns the caller's unread notification count.
func (s *NotificationService) CountUnread(ctx context.Context, callerID string) (int, error) {
	count, err := s.notifications.CountUnread(ctx, callerID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// onTicketCreated tells every admin a new ticket entered the queue.
func (s *NotificationService) onTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}

	admins, err := s.users.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("New %s ticket: %s", payload.Priority, payload.Title)
	for _, admin := range admins {
		s.store(ctx, admin.ID, event.TicketID, domain.NotificationTicketCreated, message)
	}
	return nil
}

// onTicketAssigned tells the assignee, with email.
func (s *NotificationService) onTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}

	message := fmt.Sprintf("Ticket assigned to you: %s", payload.Title)
	s.store(ctx, payload.AssignedToUserID, event.TicketID, domain.NotificationTicketAssigned, message)

	assignee, err := s.users.GetByID(ctx, payload.AssignedToUserID)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(assignee.Email, "Ticket assigned", message); err != nil {
		s.logger.Warn("assignment email failed",
			zap.String("user_id", assignee.ID), zap.Error(err))
	}
	return nil
}

// onTicketStatusChanged tells the creator; closure also goes out by email.
func (s *NotificationService) onTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}

	message := fmt.Sprintf("Ticket %q moved from %s to %s",
		payload.Title, payload.OldStatus, payload.NewStatus)
	s.store(ctx, payload.CreatedByUserID, event.TicketID, domain.NotificationTicketUpdated, message)

	if payload.NewStatus != domain.TicketStatusClosed {
		return nil
	}
	creator, err := s.users.GetByID(ctx, payload.CreatedByUserID)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(creator.Email, "Ticket resolved", message); err != nil {
		s.logger.Warn("resolution email failed",
			zap.String("user_id", creator.ID), zap.Error(err))
	}
	return nil
}

// onTicketCommented tells the creator.
func (s *NotificationService) onTicketCommented(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}

	message := fmt.Sprintf("New comment on ticket %q", payload.Title)
	s.store(ctx, payload.CreatedByUserID, event.TicketID, domain.NotificationTicketCommented, message)
	return nil
}

func (s *NotificationService) store(ctx context.Context, userID, ticketID string, notifType domain.NotificationType, message string) {
	notification := &domain.Notification{
		UserID:   userID,
		TicketID: &ticketID,
		Type:     notifType,
		Message:  message,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Warn("notification write failed",
			zap.String("user_id", userID),
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}
