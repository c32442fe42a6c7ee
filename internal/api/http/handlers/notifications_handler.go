package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/service"
)

// NotificationsHandler exposes the caller's notification feed.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List handles GET /api/notification?unread=true&limit=N.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	notifications, err := h.notifications.List(
		c.UserContext(), p.UserID, c.QueryBool("unread"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewNotificationResponses(notifications))
}

// UnreadCount handles GET /api/notification/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	count, err := h.notifications.CountUnread(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, fiber.Map{"unread": count})
}

// MarkRead handles PUT /api/notification/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.UserContext(), p.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead handles PUT /api/notification/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	count, err := h.notifications.MarkAllRead(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, fiber.Map{"marked_read": count})
}
