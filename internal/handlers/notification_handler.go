package handlers

import (
	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List takes lidas=false for unread only, plus limite and offset.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	items, err := h.notificationService.List(userID, service.ListNotificationsInput{
		UnreadOnly: c.Query("lidas") == "false",
		Limit:      c.QueryInt("limite", 20),
		Offset:     c.QueryInt("offset", 0),
	})
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", items)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	n, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", fiber.Map{"total": n})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	id, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.notificationService.MarkRead(id, userID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Notificação marcada como lida", nil)
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	n, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Notificações marcadas como lidas", fiber.Map{"atualizadas": n})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	id, err := httpx.ParamUint(c, "id")
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.notificationService.Delete(id, userID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Notificação excluída", nil)
}

func (h *NotificationHandler) GetSettings(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	settings, err := h.notificationService.GetSettings(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", settings)
}

func (h *NotificationHandler) UpdateSettings(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.UpdateSettingsInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	settings, err := h.notificationService.UpdateSettings(userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Configurações atualizadas", settings)
}
