package handlers

import (
	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type InviteHandler struct {
	inviteService *service.InviteService
}

func NewInviteHandler(inviteService *service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

func (h *InviteHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.CreateInviteInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	invite, err := h.inviteService.Create(userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Created(c, "Convite enviado com sucesso", invite)
}

// ListByGroup serves both /convites/grupo/:grupoId and the /convites/:grupoId alias.
func (h *InviteHandler) ListByGroup(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, err := httpx.ParamUint(c, "grupoId")
	if err != nil {
		return httpx.FromError(c, err)
	}

	invites, err := h.inviteService.ListByGroup(groupID, userID, c.Query("status"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", invites)
}

func (h *InviteHandler) ListMine(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	invites, err := h.inviteService.ListMine(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", invites)
}

// Validate is public: it lets the invite page render before login.
func (h *InviteHandler) Validate(c *fiber.Ctx) error {
	preview, err := h.inviteService.Validate(c.Params("codigo"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Convite válido", preview)
}

func (h *InviteHandler) Accept(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	membership, err := h.inviteService.Accept(c.Params("codigo"), userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Convite aceito com sucesso", membership)
}

func (h *InviteHandler) Decline(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.inviteService.Decline(c.Params("codigo"), userID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Convite recusado", nil)
}

func (h *InviteHandler) Cancel(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.inviteService.Cancel(c.Params("codigo"), userID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Convite cancelado", nil)
}
