package handlers

import (
	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	result, err := h.authService.Register(input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Created(c, "Usuário cadastrado com sucesso", result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input service.LoginInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	result, err := h.authService.Login(input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Login realizado com sucesso", result)
}
