package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventService struct {
	eventRepo repository.EventRepositoryInterface
	groups    *GroupService
	notifier  Notifier
	now       func() time.Time
}

func NewEventService(eventRepo repository.EventRepositoryInterface, groups *GroupService, notifier Notifier) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		groups:    groups,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type CreateEventInput struct {
	Title          string                 `json:"titulo" validate:"required,min=3,max=200"`
	Description    string                 `json:"descricao"`
	Location       string                 `json:"local" validate:"max=255"`
	VirtualLink    string                 `json:"link_virtual" validate:"omitempty,url,max=500"`
	StartsAt       time.Time              `json:"data_inicio" validate:"required"`
	EndsAt         time.Time              `json:"data_fim" validate:"required"`
	Type           string                 `json:"tipo_evento" validate:"required,oneof=meeting study exam presentation class deadline other"`
	Recurrence     map[string]interface{} `json:"recorrencia"`
	ParticipantIDs []uint                 `json:"participantes"`
}

type UpdateEventInput struct {
	Title       *string                `json:"titulo" validate:"omitempty,min=3,max=200"`
	Description *string                `json:"descricao"`
	Location    *string                `json:"local" validate:"omitempty,max=255"`
	VirtualLink *string                `json:"link_virtual" validate:"omitempty,url,max=500"`
	StartsAt    *time.Time             `json:"data_inicio"`
	EndsAt      *time.Time             `json:"data_fim"`
	Type        *string                `json:"tipo_evento" validate:"omitempty,oneof=meeting study exam presentation class deadline other"`
	Status      *string                `json:"status" validate:"omitempty,oneof=scheduled in_progress done cancelled"`
	Recurrence  map[string]interface{} `json:"recorrencia"`
}

func checkRange(start, end time.Time) []string {
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return []string{"data_fim deve ser posterior a data_inicio"}
	}
	return nil
}

func encodeRecurrence(rule map[string]interface{}) (datatypes.JSON, error) {
	if rule == nil {
		return nil, nil
	}
	b, err := json.Marshal(rule)
	if err != nil {
		return nil, Validation("recorrencia inválida")
	}
	return datatypes.JSON(b), nil
}

// checkParticipants rejects ids that are not members of the group.
func (s *EventService) checkParticipants(groupID uint, ids []uint) ([]uint, error) {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	var bad []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		ok, err := s.groups.IsMember(groupID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			bad = append(bad, fmt.Sprintf("participante %d não é membro do grupo", id))
			continue
		}
		out = append(out, id)
	}
	if len(bad) > 0 {
		return nil, Validation(bad...)
	}
	return out, nil
}

func (s *EventService) Create(groupID, userID uint, input CreateEventInput) (*models.Event, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Location = strings.TrimSpace(input.Location)
	input.VirtualLink = strings.TrimSpace(input.VirtualLink)
	errs := validation.Struct(input)
	errs = append(errs, checkRange(input.StartsAt, input.EndsAt)...)
	if len(errs) > 0 {
		return nil, Validation(errs...)
	}
	recurrence, err := encodeRecurrence(input.Recurrence)
	if err != nil {
		return nil, err
	}

	group, _, err := s.groups.requireMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	participantIDs, err := s.checkParticipants(groupID, input.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		GroupID:     groupID,
		CreatorID:   userID,
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Location:    input.Location,
		VirtualLink: input.VirtualLink,
		StartsAt:    input.StartsAt.UTC(),
		EndsAt:      input.EndsAt.UTC(),
		Type:        models.EventType(input.Type),
		Status:      models.EventScheduled,
		Recurrence:  recurrence,
	}
	for _, id := range participantIDs {
		event.Participants = append(event.Participants, models.EventParticipant{
			UserID: id,
			Status: models.ParticipantPending,
		})
	}
	if err := s.eventRepo.Create(event); err != nil {
		return nil, err
	}

	s.notifyParticipants(event, group, participantIDs)
	return event, nil
}

func (s *EventService) notifyParticipants(event *models.Event, group *models.Group, ids []uint) {
	for _, id := range ids {
		if id == event.CreatorID {
			continue
		}
		notifyQuietly(s.notifier, NotifyInput{
			UserID:     id,
			Title:      "Novo evento",
			Message:    fmt.Sprintf("%s em %s (%s)", event.Title, event.StartsAt.Format("02/01/2006 15:04"), group.Name),
			Type:       models.NotificationEvent,
			OriginType: "evento",
			OriginID:   &event.ID,
			Metadata:   map[string]interface{}{"grupo_id": group.ID},
		})
	}
}

func (s *EventService) loadEvent(eventID, userID uint) (*models.Event, *models.Membership, error) {
	event, err := s.eventRepo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, NotFound("Evento não encontrado")
		}
		return nil, nil, err
	}
	_, m, err := s.groups.requireMember(event.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	return event, m, nil
}

func (s *EventService) Get(eventID, userID uint) (*models.Event, error) {
	event, _, err := s.loadEvent(eventID, userID)
	return event, err
}

// ListByGroup returns events overlapping [from, to]; either bound may be nil.
func (s *EventService) ListByGroup(groupID, userID uint, from, to *time.Time) ([]models.Event, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, Validation("fim do intervalo anterior ao início")
	}
	if _, _, err := s.groups.requireMember(groupID, userID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByGroup(groupID, from, to)
}

// Update is allowed for the event creator and for members who can configure the group.
func (s *EventService) Update(eventID, userID uint, input UpdateEventInput) (*models.Event, error) {
	event, m, err := s.loadEvent(eventID, userID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != userID && !m.Capabilities.CanConfigure {
		return nil, Forbidden("Sem permissão para alterar este evento")
	}
	if input.Title != nil {
		t := strings.TrimSpace(*input.Title)
		input.Title = &t
	}
	errs := validation.Struct(input)

	start, end := event.StartsAt, event.EndsAt
	if input.StartsAt != nil {
		start = input.StartsAt.UTC()
	}
	if input.EndsAt != nil {
		end = input.EndsAt.UTC()
	}
	errs = append(errs, checkRange(start, end)...)
	if len(errs) > 0 {
		return nil, Validation(errs...)
	}

	if input.Title != nil {
		event.Title = *input.Title
	}
	if input.Description != nil {
		event.Description = strings.TrimSpace(*input.Description)
	}
	if input.Location != nil {
		event.Location = strings.TrimSpace(*input.Location)
	}
	if input.VirtualLink != nil {
		event.VirtualLink = strings.TrimSpace(*input.VirtualLink)
	}
	if input.Type != nil {
		event.Type = models.EventType(*input.Type)
	}
	if input.Status != nil {
		event.Status = models.EventStatus(*input.Status)
	}
	if input.Recurrence != nil {
		recurrence, err := encodeRecurrence(input.Recurrence)
		if err != nil {
			return nil, err
		}
		event.Recurrence = recurrence
	}
	event.StartsAt, event.EndsAt = start, end

	if err := s.eventRepo.Update(event); err != nil {
		return nil, err
	}
	return event, nil
}

// Delete is allowed for the event creator and for group admins.
func (s *EventService) Delete(eventID, userID uint) error {
	event, m, err := s.loadEvent(eventID, userID)
	if err != nil {
		return err
	}
	if event.CreatorID != userID && m.Level != models.LevelAdmin {
		return Forbidden("Sem permissão para excluir este evento")
	}
	if err := s.eventRepo.Delete(eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Evento não encontrado")
		}
		return err
	}
	return nil
}

// AddParticipants is allowed for the event creator and for members who can invite.
func (s *EventService) AddParticipants(eventID, userID uint, ids []uint) (*models.Event, error) {
	if len(ids) == 0 {
		return nil, Validation("participantes é obrigatório")
	}
	event, m, err := s.loadEvent(eventID, userID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != userID && !m.Capabilities.CanInvite {
		return nil, Forbidden("Sem permissão para adicionar participantes")
	}
	valid, err := s.checkParticipants(event.GroupID, ids)
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.AddParticipants(eventID, valid); err != nil {
		return nil, err
	}
	return s.eventRepo.FindByID(eventID)
}

// Respond sets the caller's own participation status.
func (s *EventService) Respond(eventID, userID uint, status string) error {
	st := models.ParticipantStatus(strings.TrimSpace(status))
	if st != models.ParticipantConfirmed && st != models.ParticipantDeclined && st != models.ParticipantPending {
		return Validation("status deve ser um de: pending, confirmed, declined")
	}
	event, _, err := s.loadEvent(eventID, userID)
	if err != nil {
		return err
	}
	if event.Status == models.EventCancelled || event.Status == models.EventDone {
		return Conflict("Evento encerrado")
	}
	if err := s.eventRepo.SetParticipantStatus(eventID, userID, st, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Você não é participante deste evento")
		}
		return err
	}
	return nil
}
