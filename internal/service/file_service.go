package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/metrics"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/storage"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/validation"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ObjectStore is the part of storage.S3Storage the file service needs.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (storage.ObjectStat, error)
	GetObject(ctx context.Context, key string) (io.ReadCloser, storage.ObjectStat, error)
	DeleteObject(ctx context.Context, key string) error
	PublicURL(key string) string
}

type FileService struct {
	fileRepo repository.FileRepositoryInterface
	groups   *GroupService
	store    ObjectStore
	maxBytes int64
}

// NewFileService accepts a nil store; every operation then reports unavailable.
func NewFileService(fileRepo repository.FileRepositoryInterface, groups *GroupService, store ObjectStore, maxBytes int64) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		groups:   groups,
		store:    store,
		maxBytes: maxBytes,
	}
}

type UploadInput struct {
	Name         string   `json:"nome" validate:"max=255"`
	OriginalName string   `json:"nome_original" validate:"required,max=255"`
	MimeType     string   `json:"tipo_mime" validate:"max=127"`
	Size         int64    `json:"tamanho" validate:"gt=0"`
	Folder       string   `json:"pasta" validate:"max=255"`
	Tags         []string `json:"tags" validate:"max=20,dive,max=50"`
	Public       bool     `json:"publico"`
	ParentID     *uint    `json:"arquivo_pai_id"`
}

type UpdateFileInput struct {
	Name   *string  `json:"nome" validate:"omitempty,min=1,max=255"`
	Folder *string  `json:"pasta" validate:"omitempty,max=255"`
	Tags   []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Public *bool    `json:"publico"`
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Upload stores body in object storage and records it. With ParentID set
// the upload becomes the next version of that file's chain.
func (s *FileService) Upload(ctx context.Context, groupID, userID uint, input UploadInput, body io.Reader) (*models.File, error) {
	if s.store == nil {
		return nil, errStorageNotEnabled
	}
	input.OriginalName = strings.TrimSpace(input.OriginalName)
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		input.Name = input.OriginalName
	}
	input.Tags = cleanTags(input.Tags)
	errs := validation.Struct(input)
	if s.maxBytes > 0 && input.Size > s.maxBytes {
		errs = append(errs, "arquivo excede o tamanho máximo permitido")
	}
	folder, err := storage.CleanFolder(input.Folder)
	if err != nil {
		errs = append(errs, "pasta inválida")
	}
	if len(errs) > 0 {
		return nil, Validation(errs...)
	}

	if _, _, err := s.groups.requireMember(groupID, userID); err != nil {
		return nil, err
	}

	version := 1
	var parentID *uint
	if input.ParentID != nil {
		parent, err := s.fileRepo.FindByID(*input.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NotFound("Arquivo original não encontrado")
			}
			return nil, err
		}
		if parent.GroupID != groupID {
			return nil, NotFound("Arquivo original não encontrado")
		}
		root := parent.RootID()
		latest, err := s.fileRepo.MaxVersion(root)
		if err != nil {
			return nil, err
		}
		version = latest + 1
		parentID = &root
		if input.Folder == "" {
			folder = parent.Folder
		}
	}

	key, err := storage.GroupObjectKey(groupID, input.OriginalName)
	if err != nil {
		return nil, Validation("nome_original inválido")
	}
	mime := input.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	stat, err := s.store.PutObject(ctx, key, body, input.Size, mime)
	if err != nil {
		return nil, err
	}
	metrics.FilesUploadedBytes.Add(float64(stat.Size))

	file := &models.File{
		GroupID:      groupID,
		UploaderID:   userID,
		Name:         input.Name,
		OriginalName: input.OriginalName,
		MimeType:     mime,
		Size:         input.Size,
		StorageKey:   key,
		URL:          s.store.PublicURL(key),
		Folder:       folder,
		Tags:         datatypes.NewJSONType(input.Tags),
		Public:       input.Public,
		Version:      version,
		ParentID:     parentID,
	}
	if err := s.fileRepo.Create(file); err != nil {
		if derr := s.store.DeleteObject(ctx, key); derr != nil {
			log.WithError(derr).WithField("key", key).Warn("orphaned object after failed insert")
		}
		return nil, err
	}
	return file, nil
}

// loadFile returns the file when the caller may see it: group members, or
// anyone for a public file.
func (s *FileService) loadFile(fileID, userID uint) (*models.File, *models.Membership, error) {
	file, err := s.fileRepo.FindByID(fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, NotFound("Arquivo não encontrado")
		}
		return nil, nil, err
	}
	_, m, err := s.groups.membershipOf(file.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil && !file.Public {
		return nil, nil, errNotGroupMember
	}
	return file, m, nil
}

func (s *FileService) Get(fileID, userID uint) (*models.File, error) {
	file, _, err := s.loadFile(fileID, userID)
	return file, err
}

func (s *FileService) ListByGroup(groupID, userID uint, folder string) ([]models.File, error) {
	clean, err := storage.CleanFolder(folder)
	if err != nil {
		return nil, Validation("pasta inválida")
	}
	if _, _, err := s.groups.requireMember(groupID, userID); err != nil {
		return nil, err
	}
	return s.fileRepo.ListByGroup(groupID, clean)
}

func (s *FileService) ListVersions(fileID, userID uint) ([]models.File, error) {
	file, _, err := s.loadFile(fileID, userID)
	if err != nil {
		return nil, err
	}
	return s.fileRepo.ListVersions(file.RootID())
}

// Open fetches the object. The caller closes the reader and calls
// RecordDownload once the body is actually sent.
func (s *FileService) Open(ctx context.Context, fileID, userID uint) (*models.File, io.ReadCloser, storage.ObjectStat, error) {
	if s.store == nil {
		return nil, nil, storage.ObjectStat{}, errStorageNotEnabled
	}
	file, _, err := s.loadFile(fileID, userID)
	if err != nil {
		return nil, nil, storage.ObjectStat{}, err
	}
	rc, stat, err := s.store.GetObject(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, storage.ObjectStat{}, err
	}
	return file, rc, stat, nil
}

// RecordDownload bumps the download counter. Failures are logged only.
func (s *FileService) RecordDownload(file *models.File) {
	if err := s.fileRepo.IncrementDownloads(file.ID); err != nil {
		log.WithError(err).WithField("file_id", file.ID).Warn("download counter not updated")
		return
	}
	file.Downloads++
}

// Update is allowed for the uploader and for members who can configure the group.
func (s *FileService) Update(fileID, userID uint, input UpdateFileInput) (*models.File, error) {
	file, m, err := s.loadFile(fileID, userID)
	if err != nil {
		return nil, err
	}
	if file.UploaderID != userID && (m == nil || !m.Capabilities.CanConfigure) {
		return nil, Forbidden("Sem permissão para alterar este arquivo")
	}
	if input.Name != nil {
		n := strings.TrimSpace(*input.Name)
		input.Name = &n
	}
	errs := validation.Struct(input)
	var folder string
	if input.Folder != nil {
		folder, err = storage.CleanFolder(*input.Folder)
		if err != nil {
			errs = append(errs, "pasta inválida")
		}
	}
	if len(errs) > 0 {
		return nil, Validation(errs...)
	}

	if input.Name != nil {
		file.Name = *input.Name
	}
	if input.Folder != nil {
		file.Folder = folder
	}
	if input.Tags != nil {
		file.Tags = datatypes.NewJSONType(cleanTags(input.Tags))
	}
	if input.Public != nil {
		file.Public = *input.Public
	}
	if err := s.fileRepo.Update(file); err != nil {
		return nil, err
	}
	return file, nil
}

// Delete soft-deletes the record. The object stays in storage so the
// version chain can still be restored.
func (s *FileService) Delete(fileID, userID uint) error {
	file, m, err := s.loadFile(fileID, userID)
	if err != nil {
		return err
	}
	if file.UploaderID != userID && (m == nil || !m.Capabilities.CanRemove) {
		return Forbidden("Sem permissão para excluir este arquivo")
	}
	if err := s.fileRepo.SoftDelete(file.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Arquivo não encontrado")
		}
		return err
	}
	return nil
}
