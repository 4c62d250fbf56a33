package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smartprint/backend/internal/domain/account"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/infrastructure/persistence/models"
)

// GormAccountRepository implements account.Repository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByUID finds an account by its auth UID, nil if not found
func (r *GormAccountRepository) FindByUID(ctx context.Context, uid string) (*account.Account, error) {
	var model models.AccountModel
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return model.ToDomain(), nil
}

// Create persists a new account
func (r *GormAccountRepository) Create(ctx context.Context, acct *account.Account) error {
	model := models.AccountModelFromDomain(acct)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// Save updates an account without a version check
func (r *GormAccountRepository) Save(ctx context.Context, acct *account.Account) error {
	model := models.AccountModelFromDomain(acct)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// SaveWithLock updates an account with an optimistic version check.
// The domain operation has already incremented the version, so the row
// must still carry the previous one; zero rows affected means another
// writer committed first.
func (r *GormAccountRepository) SaveWithLock(ctx context.Context, acct *account.Account) error {
	model := models.AccountModelFromDomain(acct)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", acct.ID, acct.Version-1).
		Updates(map[string]any{
			"balance":    model.Balance,
			"email":      model.Email,
			"name":       model.Name,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to save account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
