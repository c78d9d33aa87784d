package repository

import (
	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"gorm.io/gorm"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(file *models.File) error {
	return r.db.Create(file).Error
}

func (r *FileRepository) FindByID(id uint) (*models.File, error) {
	var file models.File
	if err := r.db.First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepository) ListByGroup(groupID uint, folder string) ([]models.File, error) {
	var files []models.File
	q := r.db.Where("group_id = ?", groupID)
	if folder != "" {
		q = q.Where("folder = ?", folder)
	}
	err := q.Order("created_at DESC, id DESC").Find(&files).Error
	return files, err
}

// ListVersions returns the whole chain rooted at rootID, newest first.
func (r *FileRepository) ListVersions(rootID uint) ([]models.File, error) {
	var files []models.File
	err := r.db.Where("id = ? OR parent_id = ?", rootID, rootID).
		Order("version DESC").
		Find(&files).Error
	return files, err
}

func (r *FileRepository) MaxVersion(rootID uint) (int, error) {
	var max int
	err := r.db.Model(&models.File{}).
		Unscoped().
		Where("id = ? OR parent_id = ?", rootID, rootID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	return max, err
}

func (r *FileRepository) Update(file *models.File) error {
	return r.db.Model(file).
		Select("name", "folder", "tags", "public").
		Updates(file).Error
}

func (r *FileRepository) SoftDelete(id uint) error {
	res := r.db.Delete(&models.File{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *FileRepository) IncrementDownloads(id uint) error {
	return r.db.Model(&models.File{}).Where("id = ?", id).
		UpdateColumn("downloads", gorm.Expr("downloads + 1")).Error
}
