package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartprint/backend/internal/domain/printjob"
	"github.com/smartprint/backend/internal/infrastructure/persistence/models"
)

// GormPrintJobRepository implements printjob.Repository using GORM
type GormPrintJobRepository struct {
	db *gorm.DB
}

// NewGormPrintJobRepository creates a new GormPrintJobRepository
func NewGormPrintJobRepository(db *gorm.DB) *GormPrintJobRepository {
	return &GormPrintJobRepository{db: db}
}

// Create persists a new print job record
func (r *GormPrintJobRepository) Create(ctx context.Context, job *printjob.PrintJob) error {
	model := models.PrintJobModelFromDomain(job)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create print job: %w", err)
	}
	return nil
}

// Save updates a print job record
func (r *GormPrintJobRepository) Save(ctx context.Context, job *printjob.PrintJob) error {
	model := models.PrintJobModelFromDomain(job)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save print job: %w", err)
	}
	return nil
}

// FindByID finds a print job by ID, nil if not found
func (r *GormPrintJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*printjob.PrintJob, error) {
	var model models.PrintJobModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find print job: %w", err)
	}
	return model.ToDomain(), nil
}

// FindByAccount lists jobs for an account, newest first
func (r *GormPrintJobRepository) FindByAccount(ctx context.Context, accountUID string, limit int) ([]printjob.PrintJob, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.PrintJobModel
	err := r.db.WithContext(ctx).
		Where("account_uid = ?", accountUID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}

	out := make([]printjob.PrintJob, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}
