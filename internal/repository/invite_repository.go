package repository

import (
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"gorm.io/gorm"
)

type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// CreatePending inserts a pending invite unless one is already pending for
// the same (group, email). Pending rows for the pair that passed their
// expiration are flipped to expired first so they do not hold the
// idx_convites_pendentes slot. A gorm.ErrDuplicatedKey from the insert means
// either a code collision or a concurrent create for the same pair.
func (r *InviteRepository) CreatePending(invite *models.Invite, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invite{}).
			Where("group_id = ? AND email = ? AND status = ? AND expires_at < ?",
				invite.GroupID, invite.Email, models.InvitePending, now).
			Update("status", models.InviteExpired).Error; err != nil {
			return err
		}

		var pending int64
		if err := tx.Model(&models.Invite{}).
			Where("group_id = ? AND email = ? AND status = ?", invite.GroupID, invite.Email, models.InvitePending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrPendingInviteExists
		}

		if err := tx.Omit("Group", "Inviter").Create(invite).Error; err != nil {
			if isDuplicate(err) {
				return gorm.ErrDuplicatedKey
			}
			return err
		}
		return nil
	})
}

func (r *InviteRepository) FindByCode(code string) (*models.Invite, error) {
	var invite models.Invite
	err := r.db.Where("code = ?", code).
		Preload("Group").
		Preload("Inviter").
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *InviteRepository) ListByGroup(groupID uint, status models.InviteStatus) ([]models.Invite, error) {
	var invites []models.Invite
	q := r.db.Where("group_id = ?", groupID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Find(&invites).Error
	return invites, err
}

func (r *InviteRepository) ListRedeemableForEmail(email string, now time.Time) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.Where("email = ? AND status = ? AND expires_at >= ?", email, models.InvitePending, now).
		Preload("Group").
		Preload("Inviter").
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

// Accept inserts the membership and flips the invite in one transaction.
// The status update is guarded on pending+unexpired so a concurrent accept
// or an expiry in between rolls the membership back.
func (r *InviteRepository) Accept(invite *models.Invite, userID uint, now time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ?", invite.GroupID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyMember
		}
		member := models.GroupMember{
			GroupID: invite.GroupID,
			UserID:  userID,
			Level:   models.LevelMember,
		}
		if err := tx.Omit("User").Create(&member).Error; err != nil {
			if isDuplicate(err) {
				return ErrAlreadyMember
			}
			return err
		}

		res := tx.Model(&models.Invite{}).
			Where("id = ? AND status = ? AND expires_at >= ?", invite.ID, models.InvitePending, now).
			Updates(map[string]interface{}{
				"status":       models.InviteAccepted,
				"responded_at": now,
				"invitee_id":   userID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInviteNotRedeemable
		}
		return nil
	})
	if err != nil {
		return err
	}

	invite.Status = models.InviteAccepted
	invite.RespondedAt = &now
	invite.InviteeID = &userID
	return nil
}

func (r *InviteRepository) Decline(inviteID uint, now time.Time) error {
	res := r.db.Model(&models.Invite{}).
		Where("id = ? AND status = ? AND expires_at >= ?", inviteID, models.InvitePending, now).
		Updates(map[string]interface{}{
			"status":       models.InviteDeclined,
			"responded_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInviteNotRedeemable
	}
	return nil
}

// DeletePending removes the row outright, only while it is still pending.
func (r *InviteRepository) DeletePending(inviteID uint) error {
	res := r.db.Where("id = ? AND status = ?", inviteID, models.InvitePending).Delete(&models.Invite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInviteAnswered
	}
	return nil
}

// ExpireStale flips every pending invite past its expiration to expired.
func (r *InviteRepository) ExpireStale(now time.Time) (int64, error) {
	res := r.db.Model(&models.Invite{}).
		Where("status = ? AND expires_at < ?", models.InvitePending, now).
		Update("status", models.InviteExpired)
	return res.RowsAffected, res.Error
}

func (r *InviteRepository) LinkInvitee(email string, userID uint) error {
	return r.db.Model(&models.Invite{}).
		Where("email = ? AND status = ? AND invitee_id IS NULL", email, models.InvitePending).
		Update("invitee_id", userID).Error
}
