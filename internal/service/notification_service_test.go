package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
)

type notificationFixture struct {
	service       *NotificationService
	notifications *fakeNotificationRepo
	users         *fakeUserRepo
	dispatcher    *recordingDispatcher
	mailer        *fakeMailer
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	notifications := newFakeNotificationRepo()
	users := newFakeUserRepo()
	dispatcher := newRecordingDispatcher()
	mailer := &fakeMailer{}

	users.seed("user-1", "Uma", "uma@example.com", domain.RoleUser)
	users.seed("rep-1", "Rita", "rita@example.com", domain.RoleRep)
	users.seed("rep-2", "Remy", "remy@example.com", domain.RoleRep)
	users.seed("admin-1", "Ada", "ada@example.com", domain.RoleAdmin)
	users.seed("admin-2", "Abe", "abe@example.com", domain.RoleAdmin)

	service := NewNotificationService(notifications, users, dispatcher, mailer, zap.NewNop())
	service.RegisterHandlers()

	return &notificationFixture{
		service:       service,
		notifications: notifications,
		users:         users,
		dispatcher:    dispatcher,
		mailer:        mailer,
	}
}

func TestTicketCreatedNotifiesAllAdmins(t *testing.T) {
	f := newNotificationFixture(t)

	err := f.dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: "t-1",
		Payload: events.TicketCreatedPayload{
			Title:           "printer on fire",
			Priority:        domain.TicketPriorityHigh,
			CreatedByUserID: "user-1",
		},
	})
	require.NoError(t, err)

	forAdmin1, err := f.service.List(context.Background(), "admin-1", false, 0)
	require.NoError(t, err)
	forAdmin2, err := f.service.List(context.Background(), "admin-2", false, 0)
	require.NoError(t, err)
	require.Len(t, forAdmin1, 1)
	require.Len(t, forAdmin2, 1)
	assert.Equal(t, domain.NotificationTicketCreated, forAdmin1[0].Type)
	assert.Contains(t, forAdmin1[0].Message, "printer on fire")

	// Reps are not on the new-ticket distribution list.
	forRep, err := f.service.List(context.Background(), "rep-1", false, 0)
	require.NoError(t, err)
	assert.Empty(t, forRep)
}

func TestTicketAssignedNotifiesAndEmailsAssignee(t *testing.T) {
	f := newNotificationFixture(t)

	err := f.dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: "t-1",
		Payload: events.TicketAssignedPayload{
			Title:            "printer on fire",
			AssignedToUserID: "rep-1",
		},
	})
	require.NoError(t, err)

	list, err := f.service.List(context.Background(), "rep-1", true, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationTicketAssigned, list[0].Type)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "rita@example.com|Ticket assigned", f.mailer.sent[0])
}

func TestTicketClosedEmailsCreator(t *testing.T) {
	f := newNotificationFixture(t)

	err := f.dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: "t-1",
		Payload: events.TicketStatusChangedPayload{
			Title:           "printer on fire",
			OldStatus:       domain.TicketStatusInProgress,
			NewStatus:       domain.TicketStatusClosed,
			CreatedByUserID: "user-1",
		},
	})
	require.NoError(t, err)

	list, err := f.service.List(context.Background(), "user-1", false, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.NotificationTicketUpdated, list[0].Type)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "uma@example.com|Ticket resolved", f.mailer.sent[0])
}

func TestNonClosingStatusChangeSkipsEmail(t *testing.T) {
	f := newNotificationFixture(t)

	err := f.dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: "t-1",
		Payload: events.TicketStatusChangedPayload{
			Title:           "printer on fire",
			OldStatus:       domain.TicketStatusOpen,
			NewStatus:       domain.TicketStatusInProgress,
			CreatedByUserID: "user-1",
		},
	})
	require.NoError(t, err)

	list, err := f.service.List(context.Background(), "user-1", false, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Empty(t, f.mailer.sent)
}

func TestListPutsUnreadFirst(t *testing.T) {
	f := newNotificationFixture(t)

	for i := 0; i < 3; i++ {
		err := f.dispatcher.Publish(context.Background(), events.Event{
			Type:     events.EventTicketCommented,
			TicketID: "t-1",
			Payload: events.TicketCommentedPayload{
				Title:           "printer on fire",
				CreatedByUserID: "user-1",
			},
		})
		require.NoError(t, err)
	}

	list, err := f.service.List(context.Background(), "user-1", false, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.NoError(t, f.service.MarkRead(context.Background(), "user-1", list[0].ID))

	list, err = f.service.List(context.Background(), "user-1", false, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.False(t, list[0].IsRead)
	assert.False(t, list[1].IsRead)
	assert.True(t, list[2].IsRead)
}

func TestMarkReadFlow(t *testing.T) {
	f := newNotificationFixture(t)

	for i := 0; i < 3; i++ {
		err := f.dispatcher.Publish(context.Background(), events.Event{
			Type:     events.EventTicketCommented,
			TicketID: "t-1",
			Payload: events.TicketCommentedPayload{
				Title:           "printer on fire",
				CreatedByUserID: "user-1",
			},
		})
		require.NoError(t, err)
	}

	unread, err := f.service.CountUnread(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	list, err := f.service.List(context.Background(), "user-1", true, 0)
	require.NoError(t, err)
	require.NoError(t, f.service.MarkRead(context.Background(), "user-1", list[0].ID))

	unread, err = f.service.CountUnread(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	marked, err := f.service.MarkAllRead(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	// A user cannot mark someone else's notification.
	err = f.service.MarkRead(context.Background(), "rep-1", list[1].ID)
	assert.Error(t, err)
}
