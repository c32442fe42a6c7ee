package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/repository"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util"
)

// RegisterInput carries a self-service registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// CreateUserInput carries an admin account creation.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateUserInput carries a partial account update. Blank fields preserve
// the stored value; Role changes are Admin-only.
type UpdateUserInput struct {
	Name  string
	Email string
	Role  string
}

// UserService manages accounts: registration, admin CRUD and password
// changes. Deleting a user referenced by any ticket is refused.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, bcryptCost int, logger *zap.Logger) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost, logger: logger}
}

// Register creates a regular user account; the role is never caller-chosen.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.create(ctx, CreateUserInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     string(domain.RoleUser),
	})
}

// Create adds an account with an explicit role. Admin only.
func (s *UserService) Create(ctx context.Context, role domain.Role, in CreateUserInput) (*domain.User, error) {
	if role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may create accounts")
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	userRole, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         userRole,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Get fetches one account. Admins see any account, others only their own.
func (s *UserService) Get(ctx context.Context, callerID string, role domain.Role, id string) (*domain.User, error) {
	if role != domain.RoleAdmin && callerID != id {
		return nil, apperrors.NewForbidden("caller may only view their own account")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// List returns every account. Admin only.
func (s *UserService) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may list accounts")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListRepresentatives returns the representative accounts, used to populate
// assignment choices. Admins and representatives only.
func (s *UserService) ListRepresentatives(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if role == domain.RoleUser {
		return nil, apperrors.NewForbidden("users may not list representatives")
	}
	reps, err := s.users.ListByRole(ctx, domain.RoleRep)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reps, nil
}

// Update modifies an account. Admins may update anyone including the role;
// non-admins may rename themselves and change their own email.
func (s *UserService) Update(ctx context.Context, callerID string, role domain.Role, id string, in UpdateUserInput) (*domain.User, error) {
	if role != domain.RoleAdmin && callerID != id {
		return nil, apperrors.NewForbidden("caller may only update their own account")
	}
	if in.Role != "" && role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may change roles")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" && email != user.Email {
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		user.Email = email
	}
	if in.Role != "" {
		newRole, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		user.Role = newRole
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ChangePassword sets a new password. Account owners must present their
// current password; admins may reset anyone without it.
func (s *UserService) ChangePassword(ctx context.Context, callerID string, role domain.Role, id, current, next string) error {
	if role != domain.RoleAdmin && callerID != id {
		return apperrors.NewForbidden("caller may only change their own password")
	}
	if err := checkPassword(next); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}

	if role != domain.RoleAdmin {
		if err := auth.ComparePassword(user.PasswordHash, current); err != nil {
			return apperrors.NewUnauthorized("current password is incorrect")
		}
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Delete removes an account. Accounts still referenced by tickets, as
// creator or assignee, are refused until the tickets are reassigned.
func (s *UserService) Delete(ctx context.Context, role domain.Role, id string) error {
	if role != domain.RoleAdmin {
		return apperrors.NewForbidden("only admins may delete accounts")
	}

	created, assigned, err := s.users.TicketReferenceCount(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if created > 0 || assigned > 0 {
		return apperrors.NewValidationError("user is referenced by tickets", map[string]any{
			"created_tickets":  created,
			"assigned_tickets": assigned,
		})
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	return nil
}
