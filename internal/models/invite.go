package models

import (
	"time"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
	InviteExpired  InviteStatus = "expired"
)

func (s InviteStatus) Valid() bool {
	switch s {
	case InvitePending, InviteAccepted, InviteDeclined, InviteExpired:
		return true
	}
	return false
}

// Invite is an email-addressed offer to join a group, redeemed by Code.
// Every status other than pending is final.
type Invite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`

	GroupID     uint         `gorm:"not null;index" json:"grupo_id"`
	InviterID   uint         `gorm:"not null;index" json:"convidado_por"`
	Email       string       `gorm:"size:255;not null;index" json:"email_convidado"`
	InviteeID   *uint        `gorm:"index" json:"convidado_id,omitempty"`
	Code        string       `gorm:"size:16;not null;uniqueIndex" json:"codigo"`
	Status      InviteStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Message     string       `gorm:"size:500" json:"mensagem,omitempty"`
	ExpiresAt   time.Time    `gorm:"not null;index" json:"data_expiracao"`
	RespondedAt *time.Time   `json:"data_resposta,omitempty"`

	Group   Group `gorm:"foreignKey:GroupID" json:"-"`
	Inviter User  `gorm:"foreignKey:InviterID" json:"-"`
}

func (Invite) TableName() string {
	return "convites_grupo"
}

// Redeemable is true only for a pending invite that has not passed its expiration.
func (i *Invite) Redeemable(now time.Time) bool {
	return i.Status == InvitePending && !now.After(i.ExpiresAt)
}

type InvitePreview struct {
	Code             string       `json:"codigo"`
	Email            string       `json:"email_convidado"`
	Status           InviteStatus `json:"status"`
	ExpiresAt        time.Time    `json:"data_expiracao"`
	GroupID          uint         `json:"grupo_id"`
	GroupName        string       `json:"grupo_nome"`
	GroupDescription string       `json:"grupo_descricao"`
	InviterName      string       `json:"convidado_por_nome"`
	Message          string       `json:"mensagem,omitempty"`
}

func (i *Invite) ToPreview() InvitePreview {
	inviter := i.Inviter.FullName
	if inviter == "" {
		inviter = i.Inviter.Username
	}
	return InvitePreview{
		Code:             i.Code,
		Email:            i.Email,
		Status:           i.Status,
		ExpiresAt:        i.ExpiresAt,
		GroupID:          i.GroupID,
		GroupName:        i.Group.Name,
		GroupDescription: i.Group.Description,
		InviterName:      inviter,
		Message:          i.Message,
	}
}
