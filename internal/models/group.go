package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GroupPrivacy string

const (
	PrivacyPublic  GroupPrivacy = "public"
	PrivacyPrivate GroupPrivacy = "private"
)

// PermissionLevel is the level a member holds inside a group.
type PermissionLevel string

const (
	LevelAdmin     PermissionLevel = "admin"
	LevelModerator PermissionLevel = "moderator"
	LevelMember    PermissionLevel = "member"
	LevelVisitor   PermissionLevel = "visitor"
)

func (l PermissionLevel) Valid() bool {
	switch l {
	case LevelAdmin, LevelModerator, LevelMember, LevelVisitor:
		return true
	}
	return false
}

// Capabilities are never stored. They are recomputed from the level on
// every lookup, so a level change can not leave a stale grant behind.
type Capabilities struct {
	CanInvite    bool `json:"pode_convidar"`
	CanRemove    bool `json:"pode_remover"`
	CanConfigure bool `json:"pode_configurar"`
}

func CapabilitiesFor(level PermissionLevel) Capabilities {
	switch level {
	case LevelAdmin:
		return Capabilities{CanInvite: true, CanRemove: true, CanConfigure: true}
	case LevelModerator:
		return Capabilities{CanInvite: true, CanRemove: true}
	default:
		return Capabilities{}
	}
}

type Group struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"criado_em"`
	UpdatedAt time.Time      `json:"atualizado_em"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string         `gorm:"size:100;not null" json:"nome"`
	Description string         `gorm:"size:500" json:"descricao"`
	Category    string         `gorm:"size:50" json:"categoria"`
	Privacy     GroupPrivacy   `gorm:"type:varchar(10);not null;default:'private'" json:"privacidade"`
	Settings    datatypes.JSON `json:"configuracoes,omitempty"`
	CreatorID   uint           `gorm:"not null;index" json:"criado_por"`

	Creator User          `gorm:"foreignKey:CreatorID" json:"-"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"-"`
}

func (Group) TableName() string {
	return "grupos"
}

func (g *Group) IsPublic() bool {
	return g.Privacy == PrivacyPublic
}

// GroupMember is the membership join; (group, user) is the primary key.
type GroupMember struct {
	GroupID  uint            `gorm:"primaryKey" json:"grupo_id"`
	UserID   uint            `gorm:"primaryKey" json:"usuario_id"`
	Level    PermissionLevel `gorm:"type:varchar(20);not null;default:'member'" json:"nivel_permissao"`
	JoinedAt time.Time       `gorm:"autoCreateTime" json:"data_entrada"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (GroupMember) TableName() string {
	return "membros_grupo"
}

func (m *GroupMember) Capabilities() Capabilities {
	return CapabilitiesFor(m.Level)
}

type MemberResponse struct {
	UserID       uint            `json:"usuario_id"`
	Username     string          `json:"username"`
	FullName     string          `json:"nome"`
	Email        string          `json:"email"`
	Level        PermissionLevel `json:"nivel_permissao"`
	Capabilities Capabilities    `json:"permissoes"`
	JoinedAt     time.Time       `json:"data_entrada"`
}

func (m *GroupMember) ToResponse() MemberResponse {
	return MemberResponse{
		UserID:       m.UserID,
		Username:     m.User.Username,
		FullName:     m.User.FullName,
		Email:        m.User.Email,
		Level:        m.Level,
		Capabilities: m.Capabilities(),
		JoinedAt:     m.JoinedAt,
	}
}

// Membership is the resolved view of a user inside a group, creator rule applied.
type Membership struct {
	GroupID      uint            `json:"grupo_id"`
	UserID       uint            `json:"usuario_id"`
	Level        PermissionLevel `json:"nivel_permissao"`
	IsCreator    bool            `json:"criador"`
	Capabilities Capabilities    `json:"permissoes"`
}
