package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rxforms/backend/internal/domain/document"
	"github.com/rxforms/backend/internal/infrastructure/persistence/models"
)

var _ document.Repository = (*GormDocumentRepository)(nil)

// GormDocumentRepository implements document.Repository on a SQL table
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// List returns every stored document ordered by key
func (r *GormDocumentRepository) List(ctx context.Context) ([]document.Record, error) {
	var rows []models.DocumentModel
	if err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "doc_key"}}).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]document.Record, 0, len(rows))
	for _, row := range rows {
		name, ok := document.NameFromKey(row.Key)
		if !ok {
			continue
		}
		records = append(records, document.Record{Name: name, Data: []byte(row.Data)})
	}
	return records, nil
}

// Get returns the stored bytes for name
func (r *GormDocumentRepository) Get(ctx context.Context, name string) ([]byte, error) {
	var row models.DocumentModel
	err := r.db.WithContext(ctx).
		Where(&models.DocumentModel{Key: document.Key(name)}).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, document.ErrRecordNotFound
		}
		return nil, err
	}
	return []byte(row.Data), nil
}

// Put creates or overwrites the record for name in a single statement
func (r *GormDocumentRepository) Put(ctx context.Context, name string, data []byte) error {
	now := time.Now()
	row := models.DocumentModel{
		Key:       document.Key(name),
		Name:      name,
		Data:      datatypes.JSON(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doc_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "data", "updated_at"}),
		}).
		Create(&row).Error
}

// Delete removes the record for name. Deleting an absent record succeeds.
func (r *GormDocumentRepository) Delete(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Where(&models.DocumentModel{Key: document.Key(name)}).
		Delete(&models.DocumentModel{}).Error
}
