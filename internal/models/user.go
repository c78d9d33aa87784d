package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PlatformRoleUser  = "user"
	PlatformRoleAdmin = "admin"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"criado_em"`
	UpdatedAt time.Time      `json:"atualizado_em"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username     string     `gorm:"size:32;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FullName     string     `gorm:"size:120" json:"nome"`
	Role         string     `gorm:"size:20;not null;default:user" json:"papel"`
	Active       bool       `gorm:"not null" json:"ativo"`
	LastLoginAt  *time.Time `json:"ultimo_login,omitempty"`
}

func (User) TableName() string {
	return "usuarios"
}

type UserResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"nome"`
	Role        string     `json:"papel"`
	Active      bool       `json:"ativo"`
	LastLoginAt *time.Time `json:"ultimo_login,omitempty"`
	CreatedAt   time.Time  `json:"criado_em"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
