package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationMessage  NotificationType = "message"
	NotificationInvite   NotificationType = "invite"
	NotificationTask     NotificationType = "task"
	NotificationEvent    NotificationType = "event"
	NotificationSystem   NotificationType = "system"
	NotificationDeadline NotificationType = "deadline"
	NotificationMention  NotificationType = "mention"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationMessage, NotificationInvite, NotificationTask, NotificationEvent,
		NotificationSystem, NotificationDeadline, NotificationMention:
		return true
	}
	return false
}

type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"criado_em"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID     uint             `gorm:"not null;index" json:"usuario_id"`
	Title      string           `gorm:"size:200;not null" json:"titulo"`
	Message    string           `gorm:"type:text;not null" json:"mensagem"`
	Type       NotificationType `gorm:"type:varchar(20);not null" json:"tipo"`
	OriginType string           `gorm:"size:30" json:"origem_tipo,omitempty"`
	OriginID   *uint            `json:"origem_id,omitempty"`
	Read       bool             `gorm:"column:is_read;not null;default:false;index" json:"lida"`
	Important  bool             `gorm:"not null;default:false" json:"importante"`
	Metadata   datatypes.JSON   `json:"metadados,omitempty"`
	ReadAt     *time.Time       `json:"data_leitura,omitempty"`
}

func (Notification) TableName() string {
	return "notificacoes"
}

type DigestFrequency string

const (
	DigestNone   DigestFrequency = "none"
	DigestDaily  DigestFrequency = "daily"
	DigestWeekly DigestFrequency = "weekly"
)

// NotificationSettings is the per-user gate consulted before a notification is stored.
type NotificationSettings struct {
	UserID          uint              `gorm:"primaryKey" json:"usuario_id"`
	EmailEnabled    bool              `gorm:"not null" json:"email_habilitado"`
	PushEnabled     bool              `gorm:"not null" json:"push_habilitado"`
	TypeToggles     datatypes.JSONMap `json:"tipos"`
	QuietStartHour  *int              `json:"silencio_inicio,omitempty"`
	QuietEndHour    *int              `json:"silencio_fim,omitempty"`
	DigestFrequency DigestFrequency   `gorm:"type:varchar(10);not null;default:'none'" json:"frequencia_resumo"`
	UpdatedAt       time.Time         `json:"atualizado_em"`
}

func (NotificationSettings) TableName() string {
	return "configuracoes_notificacao"
}

func DefaultNotificationSettings(userID uint) NotificationSettings {
	return NotificationSettings{
		UserID:          userID,
		EmailEnabled:    true,
		PushEnabled:     true,
		TypeToggles:     datatypes.JSONMap{},
		DigestFrequency: DigestNone,
	}
}

// TypeEnabled treats a type missing from the toggle map as enabled.
func (s *NotificationSettings) TypeEnabled(t NotificationType) bool {
	if s.TypeToggles == nil {
		return true
	}
	v, ok := s.TypeToggles[string(t)]
	if !ok {
		return true
	}
	enabled, ok := v.(bool)
	return !ok || enabled
}

// InQuietHours compares only the hour component.
//
// start > end is an overnight window: hour >= start || hour <= end.
// start < end is a same-day window: start <= hour <= end.
// start == end, or either bound unset, disables the window.
func (s *NotificationSettings) InQuietHours(hour int) bool {
	if s.QuietStartHour == nil || s.QuietEndHour == nil {
		return false
	}
	start, end := *s.QuietStartHour, *s.QuietEndHour
	switch {
	case start == end:
		return false
	case start > end:
		return hour >= start || hour <= end
	default:
		return hour >= start && hour <= end
	}
}
