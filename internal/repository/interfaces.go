package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"gorm.io/gorm"
)

var (
	ErrAlreadyMember       = errors.New("user is already a member of this group")
	ErrPendingInviteExists = errors.New("a pending invite already exists for this email")
	ErrInviteNotRedeemable = errors.New("invite is not pending or has expired")
	ErrInviteAnswered      = errors.New("invite is no longer pending")
)

// isDuplicate reports a unique or primary key violation. Drivers without an
// error translator for every constraint kind are matched on the message.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	Update(user *models.User) error
	SetActive(userID uint, active bool) error
	TouchLastLogin(userID uint, at time.Time) error
}

// GroupRepositoryInterface defines the contract for group and membership operations
type GroupRepositoryInterface interface {
	CreateWithOwner(group *models.Group) error
	FindByID(id uint) (*models.Group, error)
	Update(group *models.Group) error
	SoftDelete(id uint) error
	SearchPublic(query string, limit int) ([]models.Group, error)
	GetUserGroups(userID uint) ([]models.Group, error)

	AddMember(groupID, userID uint, level models.PermissionLevel) error
	RemoveMember(groupID, userID uint) error
	UpdateMemberLevel(groupID, userID uint, level models.PermissionLevel) error
	GetMember(groupID, userID uint) (*models.GroupMember, error)
	GetMembers(groupID uint) ([]models.GroupMember, error)
	IsMember(groupID, userID uint) (bool, error)
	IsEmailMember(groupID uint, email string) (bool, error)
}

// InviteRepositoryInterface defines the contract for email invite operations
type InviteRepositoryInterface interface {
	CreatePending(invite *models.Invite, now time.Time) error
	FindByCode(code string) (*models.Invite, error)
	ListByGroup(groupID uint, status models.InviteStatus) ([]models.Invite, error)
	ListRedeemableForEmail(email string, now time.Time) ([]models.Invite, error)
	Accept(invite *models.Invite, userID uint, now time.Time) error
	Decline(inviteID uint, now time.Time) error
	DeletePending(inviteID uint) error
	ExpireStale(now time.Time) (int64, error)
	LinkInvitee(email string, userID uint) error
}

// EventRepositoryInterface defines the contract for calendar event operations
type EventRepositoryInterface interface {
	Create(event *models.Event) error
	FindByID(id uint) (*models.Event, error)
	ListByGroup(groupID uint, from, to *time.Time) ([]models.Event, error)
	Update(event *models.Event) error
	Delete(id uint) error
	AddParticipants(eventID uint, userIDs []uint) error
	SetParticipantStatus(eventID, userID uint, status models.ParticipantStatus, at time.Time) error
}

// NotificationRepositoryInterface defines the contract for notification operations
type NotificationRepositoryInterface interface {
	Create(n *models.Notification) error
	ListForUser(userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	CountUnread(userID uint) (int64, error)
	MarkRead(id, userID uint, at time.Time) error
	MarkAllRead(userID uint, at time.Time) (int64, error)
	Delete(id, userID uint) error
	GetSettings(userID uint) (*models.NotificationSettings, error)
	SaveSettings(settings *models.NotificationSettings) error
}

// FileRepositoryInterface defines the contract for group file metadata
type FileRepositoryInterface interface {
	Create(file *models.File) error
	FindByID(id uint) (*models.File, error)
	ListByGroup(groupID uint, folder string) ([]models.File, error)
	ListVersions(rootID uint) ([]models.File, error)
	MaxVersion(rootID uint) (int, error)
	Update(file *models.File) error
	SoftDelete(id uint) error
	IncrementDownloads(id uint) error
}
