package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartprint/backend/internal/domain/account"
	"github.com/smartprint/backend/internal/infrastructure/persistence/models"
)

// GormBalanceTransactionRepository implements
// account.BalanceTransactionRepository using GORM
type GormBalanceTransactionRepository struct {
	db *gorm.DB
}

// NewGormBalanceTransactionRepository creates a new GormBalanceTransactionRepository
func NewGormBalanceTransactionRepository(db *gorm.DB) *GormBalanceTransactionRepository {
	return &GormBalanceTransactionRepository{db: db}
}

// Create persists a balance transaction record
func (r *GormBalanceTransactionRepository) Create(ctx context.Context, tx *account.BalanceTransaction) error {
	model := models.BalanceTransactionModelFromDomain(tx)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create balance transaction: %w", err)
	}
	return nil
}

// FindByAccount lists transactions for an account, newest first
func (r *GormBalanceTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]account.BalanceTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.BalanceTransactionModel
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list balance transactions: %w", err)
	}

	out := make([]account.BalanceTransaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// FindBySourceID finds a transaction by its source reference, nil if
// not found
func (r *GormBalanceTransactionRepository) FindBySourceID(ctx context.Context, sourceID string) (*account.BalanceTransaction, error) {
	var model models.BalanceTransactionModel
	err := r.db.WithContext(ctx).Where("source_id = ?", sourceID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find balance transaction: %w", err)
	}
	return model.ToDomain(), nil
}
