package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/api/dto"
	"github.com/spec-kit/issue-tracker/internal/service"
)

// UsersHandler exposes account management endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Register handles POST /api/user — anonymous self-registration. The role
// is always User; elevated accounts go through CreateAccount.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusCreated, dto.NewUserResponse(user))
}

// CreateAccount handles POST /api/admin/user — account creation with an
// explicit role.
func (h *UsersHandler) CreateAccount(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.UserContext(), p.Role, service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusCreated, dto.NewUserResponse(user))
}

// List handles GET /api/user.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	users, err := h.users.List(c.UserContext(), p.Role)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewUserResponses(users))
}

// ListRepresentatives handles GET /api/user/representatives.
func (h *UsersHandler) ListRepresentatives(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	reps, err := h.users.ListRepresentatives(c.UserContext(), p.Role)
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewUserResponses(reps))
}

// Get handles GET /api/user/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.UserContext(), p.UserID, p.Role, c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewUserResponse(user))
}

// Update handles PUT /api/user/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.Update(c.UserContext(), p.UserID, p.Role, c.Params("id"), service.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		return err
	}
	return dataResponse(c, http.StatusOK, dto.NewUserResponse(user))
}

// ChangePassword handles PUT /api/user/:id/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	err = h.users.ChangePassword(c.UserContext(), p.UserID, p.Role, c.Params("id"),
		req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /api/user/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.UserContext(), p.Role, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
