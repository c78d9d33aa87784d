package service

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/cache"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/metrics"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/validation"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier is what other services use to raise a notification.
type Notifier interface {
	Notify(input NotifyInput) (*models.Notification, error)
}

// Publisher pushes a stored notification to the recipient's live connections.
type Publisher interface {
	Publish(userID uint, event string, payload interface{})
}

const EventNotificationCreated = "notificacao"

type NotificationService struct {
	repo      repository.NotificationRepositoryInterface
	userRepo  repository.UserRepositoryInterface
	cache     *cache.NotificationCache
	publisher Publisher
	loc       *time.Location
	now       func() time.Time
}

func NewNotificationService(
	repo repository.NotificationRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	notifCache *cache.NotificationCache,
	publisher Publisher,
	loc *time.Location,
) *NotificationService {
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationService{
		repo:      repo,
		userRepo:  userRepo,
		cache:     notifCache,
		publisher: publisher,
		loc:       loc,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type NotifyInput struct {
	UserID     uint                    `json:"usuario_id" validate:"required"`
	Title      string                  `json:"titulo" validate:"required,max=200"`
	Message    string                  `json:"mensagem" validate:"required"`
	Type       models.NotificationType `json:"tipo" validate:"required,oneof=message invite task event system deadline mention"`
	OriginType string                  `json:"origem_tipo" validate:"max=30"`
	OriginID   *uint                   `json:"origem_id"`
	Important  bool                    `json:"importante"`
	Metadata   map[string]interface{}  `json:"metadados"`
}

type ListNotificationsInput struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

type UpdateSettingsInput struct {
	EmailEnabled    *bool           `json:"email_habilitado"`
	PushEnabled     *bool           `json:"push_habilitado"`
	Types           map[string]bool `json:"tipos"`
	QuietStartHour  *int            `json:"silencio_inicio" validate:"omitempty,gte=0,lte=23"`
	QuietEndHour    *int            `json:"silencio_fim" validate:"omitempty,gte=0,lte=23"`
	ClearQuietHours bool            `json:"remover_silencio"`
	DigestFrequency *string         `json:"frequencia_resumo" validate:"omitempty,oneof=none daily weekly"`
}

// Notify stores a notification unless the recipient's settings suppress it.
// A suppressed notification returns (nil, nil).
func (s *NotificationService) Notify(input NotifyInput) (*models.Notification, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Message = strings.TrimSpace(input.Message)
	if errs := validation.Struct(input); len(errs) > 0 {
		return nil, Validation(errs...)
	}

	user, err := s.userRepo.FindByID(input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Destinatário não encontrado")
		}
		return nil, err
	}
	if !user.Active {
		metrics.NotificationsSuppressed.WithLabelValues("inactive").Inc()
		return nil, nil
	}

	settings, err := s.settingsFor(input.UserID)
	if err != nil {
		return nil, err
	}
	if !settings.TypeEnabled(input.Type) {
		metrics.NotificationsSuppressed.WithLabelValues("type_disabled").Inc()
		return nil, nil
	}
	if !input.Important && settings.InQuietHours(s.now().In(s.loc).Hour()) {
		metrics.NotificationsSuppressed.WithLabelValues("quiet_hours").Inc()
		return nil, nil
	}

	n := &models.Notification{
		UserID:     input.UserID,
		Title:      input.Title,
		Message:    input.Message,
		Type:       input.Type,
		OriginType: input.OriginType,
		OriginID:   input.OriginID,
		Important:  input.Important,
	}
	if input.Metadata != nil {
		b, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, Validation("metadados inválidos")
		}
		n.Metadata = datatypes.JSON(b)
	}
	if err := s.repo.Create(n); err != nil {
		return nil, err
	}

	s.cache.InvalidateUnread(n.UserID)
	metrics.NotificationsDelivered.WithLabelValues(string(n.Type)).Inc()
	if s.publisher != nil && settings.PushEnabled {
		s.publisher.Publish(n.UserID, EventNotificationCreated, n)
	}
	return n, nil
}

// notifyQuietly is used for side-effect notifications: failures are logged
// and never fail the calling operation.
func notifyQuietly(n Notifier, input NotifyInput) {
	if n == nil {
		return
	}
	if _, err := n.Notify(input); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id": input.UserID,
			"type":    input.Type,
		}).Warn("notification not delivered")
	}
}

func (s *NotificationService) settingsFor(userID uint) (*models.NotificationSettings, error) {
	if cached, ok := s.cache.GetSettings(userID); ok {
		return cached, nil
	}
	settings, err := s.repo.GetSettings(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		def := models.DefaultNotificationSettings(userID)
		settings = &def
	}
	if err := s.cache.SetSettings(settings); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("cache: settings not stored")
	}
	return settings, nil
}

func (s *NotificationService) List(userID uint, input ListNotificationsInput) ([]models.Notification, error) {
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}
	if input.Offset < 0 {
		input.Offset = 0
	}
	return s.repo.ListForUser(userID, input.UnreadOnly, input.Limit, input.Offset)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	if n, ok := s.cache.GetUnread(userID); ok {
		return n, nil
	}
	n, err := s.repo.CountUnread(userID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetUnread(userID, n); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("cache: unread count not stored")
	}
	return n, nil
}

func (s *NotificationService) MarkRead(id, userID uint) error {
	if err := s.repo.MarkRead(id, userID, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Notificação não encontrada")
		}
		return err
	}
	s.cache.InvalidateUnread(userID)
	return nil
}

func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	n, err := s.repo.MarkAllRead(userID, s.now())
	if err != nil {
		return 0, err
	}
	s.cache.InvalidateUnread(userID)
	return n, nil
}

func (s *NotificationService) Delete(id, userID uint) error {
	if err := s.repo.Delete(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Notificação não encontrada")
		}
		return err
	}
	s.cache.InvalidateUnread(userID)
	return nil
}

func (s *NotificationService) GetSettings(userID uint) (*models.NotificationSettings, error) {
	return s.settingsFor(userID)
}

func (s *NotificationService) UpdateSettings(userID uint, input UpdateSettingsInput) (*models.NotificationSettings, error) {
	errs := validation.Struct(input)
	for k := range input.Types {
		if !models.NotificationType(k).Valid() {
			errs = append(errs, "tipos contém tipo desconhecido: "+k)
		}
	}
	if (input.QuietStartHour == nil) != (input.QuietEndHour == nil) {
		errs = append(errs, "silencio_inicio e silencio_fim devem ser informados juntos")
	}
	if len(errs) > 0 {
		return nil, Validation(errs...)
	}

	current, err := s.settingsFor(userID)
	if err != nil {
		return nil, err
	}
	updated := *current
	updated.UserID = userID
	if input.EmailEnabled != nil {
		updated.EmailEnabled = *input.EmailEnabled
	}
	if input.PushEnabled != nil {
		updated.PushEnabled = *input.PushEnabled
	}
	if len(input.Types) > 0 {
		toggles := datatypes.JSONMap{}
		for k, v := range current.TypeToggles {
			toggles[k] = v
		}
		for k, v := range input.Types {
			toggles[k] = v
		}
		updated.TypeToggles = toggles
	}
	if input.ClearQuietHours {
		updated.QuietStartHour, updated.QuietEndHour = nil, nil
	} else if input.QuietStartHour != nil {
		start, end := *input.QuietStartHour, *input.QuietEndHour
		updated.QuietStartHour, updated.QuietEndHour = &start, &end
	}
	if input.DigestFrequency != nil {
		updated.DigestFrequency = models.DigestFrequency(*input.DigestFrequency)
	}
	updated.UpdatedAt = s.now()

	if err := s.repo.SaveSettings(&updated); err != nil {
		return nil, err
	}
	if err := s.cache.SetSettings(&updated); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("cache: settings not stored")
	}
	return &updated, nil
}
