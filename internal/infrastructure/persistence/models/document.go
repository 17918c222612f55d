package models

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentModel is the GORM model for the documents table. Key is the full
// persisted key; Name is kept alongside it for readability in SQL.
type DocumentModel struct {
	Key       string         `gorm:"column:doc_key;type:varchar(512);primaryKey"`
	Name      string         `gorm:"column:name;type:varchar(480);not null"`
	Data      datatypes.JSON `gorm:"column:data;not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}
