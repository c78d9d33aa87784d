package handlers

import (
	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type AdminHandler struct {
	inviteService *service.InviteService
}

func NewAdminHandler(inviteService *service.InviteService) *AdminHandler {
	return &AdminHandler{inviteService: inviteService}
}

// ExpireInvites runs the stale-invite sweep on demand.
func (h *AdminHandler) ExpireInvites(c *fiber.Ctx) error {
	n, err := h.inviteService.ExpireStale()
	if err != nil {
		return httpx.FromError(c, err)
	}
	log.WithFields(log.Fields{"expired": n, "user_id": c.Locals("userID")}).Info("invite sweep triggered")
	return httpx.OK(c, "Convites expirados atualizados", fiber.Map{"expirados": n})
}
