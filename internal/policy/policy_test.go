package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

func ticketWith(creator string, assignee *string) *domain.Ticket {
	return &domain.Ticket{CreatedByUserID: creator, AssignedToUserID: assignee}
}

func TestCanViewTicket(t *testing.T) {
	rep1 := "rep-1"

	cases := []struct {
		name     string
		callerID string
		role     domain.Role
		ticket   *domain.Ticket
		want     bool
	}{
		{"admin sees any", "admin-1", domain.RoleAdmin, ticketWith("u1", &rep1), true},
		{"user sees own", "u1", domain.RoleUser, ticketWith("u1", nil), true},
		{"user blocked from others", "u2", domain.RoleUser, ticketWith("u1", nil), false},
		{"rep sees unassigned", "rep-2", domain.RoleRep, ticketWith("u1", nil), true},
		{"rep sees own assignment", "rep-1", domain.RoleRep, ticketWith("u1", &rep1), true},
		{"rep blocked from other's assignment", "rep-2", domain.RoleRep, ticketWith("u1", &rep1), false},
		{"nil ticket", "admin-1", domain.RoleAdmin, nil, false},
		{"unknown role", "x", domain.Role("Ghost"), ticketWith("x", nil), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanViewTicket(tc.callerID, tc.role, tc.ticket))
			assert.Equal(t, tc.want, CanMutateTicket(tc.callerID, tc.role, tc.ticket))
		})
	}
}

func TestScopeForList(t *testing.T) {
	userScope := ScopeForList("u1", domain.RoleUser)
	require.NotNil(t, userScope.CreatedByUserID)
	assert.Equal(t, "u1", *userScope.CreatedByUserID)
	assert.Nil(t, userScope.VisibleToRepID)

	repScope := ScopeForList("rep-1", domain.RoleRep)
	require.NotNil(t, repScope.VisibleToRepID)
	assert.Equal(t, "rep-1", *repScope.VisibleToRepID)
	assert.Nil(t, repScope.CreatedByUserID)

	adminScope := ScopeForList("admin-1", domain.RoleAdmin)
	assert.Nil(t, adminScope.CreatedByUserID)
	assert.Nil(t, adminScope.VisibleToRepID)
}
