// Package policy holds the role-based visibility rules for tickets. All
// functions are pure: the caller identity arrives as explicit parameters,
// never from ambient request state.
package policy

import "github.com/spec-kit/issue-tracker/internal/domain"

// CanViewTicket reports whether the caller may read the ticket.
// Admins see everything; users see their own tickets; representatives see
// tickets assigned to them and unassigned tickets.
func CanViewTicket(callerID string, role domain.Role, t *domain.Ticket) bool {
	if t == nil {
		return false
	}
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleUser:
		return t.CreatedByUserID == callerID
	case domain.RoleRep:
		return !t.IsAssigned() || *t.AssignedToUserID == callerID
	default:
		return false
	}
}

// CanMutateTicket reports whether the caller may modify the ticket. The
// mutation rule matches the view rule: a ticket you can see is a ticket you
// can touch, within the field restrictions enforced by the service layer.
func CanMutateTicket(callerID string, role domain.Role, t *domain.Ticket) bool {
	return CanViewTicket(callerID, role, t)
}

// TicketScope narrows a ticket query to the caller's visible set. Empty
// scope means unrestricted (Admin).
type TicketScope struct {
	// CreatedByUserID restricts to tickets created by this user.
	CreatedByUserID *string
	// VisibleToRepID restricts to tickets assigned to this representative
	// or currently unassigned.
	VisibleToRepID *string
}

// ScopeForList computes the query narrowing for a list or search operation.
func ScopeForList(callerID string, role domain.Role) TicketScope {
	switch role {
	case domain.RoleUser:
		return TicketScope{CreatedByUserID: &callerID}
	case domain.RoleRep:
		return TicketScope{VisibleToRepID: &callerID}
	default:
		return TicketScope{}
	}
}
