package handlers

import (
	"fmt"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetCurrentUser answers 304 when the client's ETag matches the profile.
func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	c.Set("Cache-Control", "private, max-age=0, must-revalidate")
	if notModified(c, fmt.Sprintf("W/\"u-%d-%d\"", user.ID, user.UpdatedAt.UTC().UnixNano())) {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return httpx.OK(c, "", user.ToResponse())
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.UpdateProfileInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Perfil atualizado", user.ToResponse())
}

func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.ChangePasswordInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	if err := h.userService.ChangePassword(userID, input); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Senha alterada", nil)
}

func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.userService.Deactivate(userID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Conta desativada", nil)
}

func (h *UserHandler) CheckUsername(c *fiber.Ctx) error {
	available, err := h.userService.IsUsernameAvailable(c.Params("username"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", fiber.Map{"disponivel": available})
}
