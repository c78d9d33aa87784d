package handlers

import (
	"github.com/GabrielInacior/FatecTeams-sub000/internal/httpx"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func eventAndUser(c *fiber.Ctx) (uint, uint, error) {
	userID, err := currentUser(c)
	if err != nil {
		return 0, 0, err
	}
	eventID, err := httpx.ParamUint(c, "id")
	if err != nil {
		return 0, 0, err
	}
	return eventID, userID, nil
}

func (h *EventHandler) Create(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.CreateEventInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	event, err := h.eventService.Create(groupID, userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Created(c, "Evento criado com sucesso", event)
}

// ListByGroup accepts optional inicio/fim bounds in RFC 3339.
func (h *EventHandler) ListByGroup(c *fiber.Ctx) error {
	groupID, userID, err := groupAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	from, err := queryTime(c, "inicio")
	if err != nil {
		return httpx.FromError(c, err)
	}
	to, err := queryTime(c, "fim")
	if err != nil {
		return httpx.FromError(c, err)
	}
	events, err := h.eventService.ListByGroup(groupID, userID, from, to)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", events)
}

func (h *EventHandler) Get(c *fiber.Ctx) error {
	eventID, userID, err := eventAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	event, err := h.eventService.Get(eventID, userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "", event)
}

func (h *EventHandler) Update(c *fiber.Ctx) error {
	eventID, userID, err := eventAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.UpdateEventInput
	if err := parseBody(c, &input); err != nil {
		return err
	}
	event, err := h.eventService.Update(eventID, userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Evento atualizado", event)
}

func (h *EventHandler) Delete(c *fiber.Ctx) error {
	eventID, userID, err := eventAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.eventService.Delete(eventID, userID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Evento excluído", nil)
}

type participantsRequest struct {
	UserIDs []uint `json:"participantes"`
}

func (h *EventHandler) AddParticipants(c *fiber.Ctx) error {
	eventID, userID, err := eventAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var req participantsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	event, err := h.eventService.AddParticipants(eventID, userID, req.UserIDs)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Participantes adicionados", event)
}

type respondRequest struct {
	Status string `json:"status"`
}

func (h *EventHandler) Respond(c *fiber.Ctx) error {
	eventID, userID, err := eventAndUser(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var req respondRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.eventService.Respond(eventID, userID, req.Status); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.OK(c, "Resposta registrada", nil)
}
