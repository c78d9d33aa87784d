package models

import (
	"time"

	"gorm.io/datatypes"
)

type EventType string

const (
	EventMeeting      EventType = "meeting"
	EventStudy        EventType = "study"
	EventExam         EventType = "exam"
	EventPresentation EventType = "presentation"
	EventClass        EventType = "class"
	EventDeadline     EventType = "deadline"
	EventOther        EventType = "other"
)

type EventStatus string

const (
	EventScheduled  EventStatus = "scheduled"
	EventInProgress EventStatus = "in_progress"
	EventDone       EventStatus = "done"
	EventCancelled  EventStatus = "cancelled"
)

type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "pending"
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantDeclined  ParticipantStatus = "declined"
)

type Event struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`

	GroupID     uint           `gorm:"not null;index" json:"grupo_id"`
	CreatorID   uint           `gorm:"not null" json:"criado_por"`
	Title       string         `gorm:"size:200;not null" json:"titulo"`
	Description string         `gorm:"type:text" json:"descricao,omitempty"`
	Location    string         `gorm:"size:255" json:"local,omitempty"`
	VirtualLink string         `gorm:"size:500" json:"link_virtual,omitempty"`
	StartsAt    time.Time      `gorm:"not null;index" json:"data_inicio"`
	EndsAt      time.Time      `gorm:"not null" json:"data_fim"`
	Type        EventType      `gorm:"type:varchar(20);not null" json:"tipo_evento"`
	Status      EventStatus    `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	Recurrence  datatypes.JSON `json:"recorrencia,omitempty"`

	Participants []EventParticipant `gorm:"foreignKey:EventID" json:"participantes,omitempty"`
}

func (Event) TableName() string {
	return "eventos_calendario"
}

type EventParticipant struct {
	EventID     uint              `gorm:"primaryKey" json:"evento_id"`
	UserID      uint              `gorm:"primaryKey" json:"usuario_id"`
	Status      ParticipantStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RespondedAt *time.Time        `json:"data_resposta,omitempty"`
}

func (EventParticipant) TableName() string {
	return "participantes_evento"
}
