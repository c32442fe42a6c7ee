package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicketStatus(t *testing.T) {
	cases := []struct {
		raw     string
		want    TicketStatus
		wantErr bool
	}{
		{raw: "Open", want: TicketStatusOpen},
		{raw: "open", want: TicketStatusOpen},
		{raw: "In Progress", want: TicketStatusInProgress},
		{raw: "in_progress", want: TicketStatusInProgress},
		{raw: "INPROGRESS", want: TicketStatusInProgress},
		{raw: "in-progress", want: TicketStatusInProgress},
		{raw: "  closed  ", want: TicketStatusClosed},
		{raw: "resolved", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseTicketStatus(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTicketPriorityAndType(t *testing.T) {
	priority, err := ParseTicketPriority(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, TicketPriorityHigh, priority)

	_, err = ParseTicketPriority("urgent")
	assert.Error(t, err)

	ticketType, err := ParseTicketType("soft_ware")
	require.NoError(t, err)
	assert.Equal(t, TicketTypeSoftware, ticketType)

	_, err = ParseTicketType("network")
	assert.Error(t, err)
}

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 1, TicketPriorityLow.Rank())
	assert.Equal(t, 2, TicketPriorityMedium.Rank())
	assert.Equal(t, 3, TicketPriorityHigh.Rank())
	assert.Equal(t, 0, TicketPriority("bogus").Rank())
}

func TestChangeStatusCloseSetsResolutionFields(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := created.Add(5 * time.Hour)

	ticket := &Ticket{Status: TicketStatusOpen, CreatedAt: created}
	ticket.ChangeStatus(TicketStatusClosed, now)

	require.NotNil(t, ticket.ResolvedAt)
	require.NotNil(t, ticket.ResolutionTime)
	assert.Equal(t, now, *ticket.ResolvedAt)
	assert.Equal(t, 5*time.Hour, *ticket.ResolutionTime)
	assert.Equal(t, TicketStatusClosed, ticket.Status)
}

func TestChangeStatusReopenClearsResolutionFields(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &Ticket{Status: TicketStatusOpen, CreatedAt: created}
	ticket.ChangeStatus(TicketStatusClosed, created.Add(time.Hour))

	ticket.ChangeStatus(TicketStatusInProgress, created.Add(2*time.Hour))

	assert.Nil(t, ticket.ResolvedAt)
	assert.Nil(t, ticket.ResolutionTime)
	assert.Equal(t, TicketStatusInProgress, ticket.Status)
}

func TestChangeStatusClosedToClosedKeepsOriginalStamp(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	first := created.Add(time.Hour)
	ticket := &Ticket{Status: TicketStatusOpen, CreatedAt: created}
	ticket.ChangeStatus(TicketStatusClosed, first)

	ticket.ChangeStatus(TicketStatusClosed, created.Add(10*time.Hour))

	require.NotNil(t, ticket.ResolvedAt)
	assert.Equal(t, first, *ticket.ResolvedAt)
	assert.Equal(t, time.Hour, *ticket.ResolutionTime)
}

func TestChangeStatusClampsClockSkew(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &Ticket{Status: TicketStatusOpen, CreatedAt: created}

	ticket.ChangeStatus(TicketStatusClosed, created.Add(-time.Minute))

	require.NotNil(t, ticket.ResolutionTime)
	assert.Equal(t, time.Duration(0), *ticket.ResolutionTime)
}

func TestResolutionHoursFallbacks(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	stored := 90 * time.Minute
	resolved := created.Add(2 * time.Hour)

	withStored := &Ticket{CreatedAt: created, ResolutionTime: &stored}
	assert.InDelta(t, 1.5, withStored.ResolutionHours(), 1e-9)

	withResolvedAt := &Ticket{CreatedAt: created, ResolvedAt: &resolved}
	assert.InDelta(t, 2.0, withResolvedAt.ResolutionHours(), 1e-9)

	withUpdatedOnly := &Ticket{CreatedAt: created, UpdatedAt: created.Add(3 * time.Hour)}
	assert.InDelta(t, 3.0, withUpdatedOnly.ResolutionHours(), 1e-9)

	skewed := &Ticket{CreatedAt: created, UpdatedAt: created.Add(-time.Hour)}
	assert.Zero(t, skewed.ResolutionHours())
}

func TestIsAssigned(t *testing.T) {
	empty := ""
	rep := "rep-1"

	assert.False(t, (&Ticket{}).IsAssigned())
	assert.False(t, (&Ticket{AssignedToUserID: &empty}).IsAssigned())
	assert.True(t, (&Ticket{AssignedToUserID: &rep}).IsAssigned())
}
