package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// File is group-owned metadata for an object in storage. Versions form a
// flat chain: every version points at the root through ParentID.
type File struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"criado_em"`
	UpdatedAt time.Time      `json:"atualizado_em"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	GroupID      uint                         `gorm:"not null;index" json:"grupo_id"`
	UploaderID   uint                         `gorm:"not null" json:"enviado_por"`
	Name         string                       `gorm:"size:255;not null" json:"nome"`
	OriginalName string                       `gorm:"size:255;not null" json:"nome_original"`
	MimeType     string                       `gorm:"size:127" json:"tipo_mime"`
	Size         int64                        `gorm:"not null" json:"tamanho"`
	StorageKey   string                       `gorm:"size:512;not null" json:"-"`
	URL          string                       `gorm:"size:1024" json:"url"`
	Folder       string                       `gorm:"size:255;index" json:"pasta,omitempty"`
	Tags         datatypes.JSONType[[]string] `json:"tags"`
	Public       bool                         `gorm:"not null" json:"publico"`
	Downloads    int64                        `gorm:"not null;default:0" json:"downloads"`
	Version      int                          `gorm:"not null;default:1" json:"versao"`
	ParentID     *uint                        `gorm:"index" json:"arquivo_pai_id,omitempty"`
}

func (File) TableName() string {
	return "arquivos"
}

// RootID is the id of the first version in this file's chain.
func (f *File) RootID() uint {
	if f.ParentID != nil {
		return *f.ParentID
	}
	return f.ID
}
