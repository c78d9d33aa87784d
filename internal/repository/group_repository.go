package repository

import (
	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateWithOwner inserts the group and the creator's admin membership in
// one transaction.
func (r *GroupRepository) CreateWithOwner(group *models.Group) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Creator", "Members").Create(group).Error; err != nil {
			return err
		}
		owner := models.GroupMember{
			GroupID: group.ID,
			UserID:  group.CreatorID,
			Level:   models.LevelAdmin,
		}
		return tx.Omit("User").Create(&owner).Error
	})
}

func (r *GroupRepository) FindByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.Preload("Creator").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) Update(group *models.Group) error {
	return r.db.Model(group).
		Select("name", "description", "category", "privacy", "settings").
		Updates(group).Error
}

func (r *GroupRepository) SoftDelete(id uint) error {
	return r.db.Delete(&models.Group{}, id).Error
}

func (r *GroupRepository) SearchPublic(query string, limit int) ([]models.Group, error) {
	var groups []models.Group
	q := "%" + query + "%"
	err := r.db.Where("privacy = ? AND (LOWER(name) LIKE LOWER(?) OR LOWER(category) LIKE LOWER(?))", models.PrivacyPublic, q, q).
		Order("name ASC").
		Limit(limit).
		Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) GetUserGroups(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Joins("JOIN membros_grupo ON membros_grupo.group_id = grupos.id").
		Where("membros_grupo.user_id = ?", userID).
		Order("grupos.name ASC").
		Find(&groups).Error
	return groups, err
}

// AddMember returns ErrAlreadyMember when the (group, user) key exists.
func (r *GroupRepository) AddMember(groupID, userID uint, level models.PermissionLevel) error {
	member := models.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Level:   level,
	}
	err := r.db.Omit("User").Create(&member).Error
	if isDuplicate(err) {
		return ErrAlreadyMember
	}
	return err
}

func (r *GroupRepository) RemoveMember(groupID, userID uint) error {
	res := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GroupRepository) UpdateMemberLevel(groupID, userID uint, level models.PermissionLevel) error {
	res := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("level", level)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GroupRepository) GetMember(groupID, userID uint) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GroupRepository) GetMembers(groupID uint) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.Where("group_id = ?", groupID).
		Preload("User").
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *GroupRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GroupRepository) IsEmailMember(groupID uint, email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.GroupMember{}).
		Joins("JOIN usuarios ON usuarios.id = membros_grupo.user_id").
		Where("membros_grupo.group_id = ? AND LOWER(usuarios.email) = LOWER(?)", groupID, email).
		Count(&count).Error
	return count > 0, err
}
