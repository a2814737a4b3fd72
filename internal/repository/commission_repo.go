package repository

import (
	"context"

	"hwops-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommissionRuleRepository interface {
	Create(ctx context.Context, rule *model.CommissionRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CommissionRule, error)
	// FindBySupplierAndScope looks up the rule for an exact (supplier, scope)
	// pair. gorm.ErrRecordNotFound when absent.
	FindBySupplierAndScope(ctx context.Context, supplierID uuid.UUID, scope model.CategoryScope) (*model.CommissionRule, error)
	List(ctx context.Context, page, limit int) ([]model.CommissionRule, int64, error)
}

type commissionRuleRepository struct {
	db *gorm.DB
}

func NewCommissionRuleRepository(db *gorm.DB) CommissionRuleRepository {
	return &commissionRuleRepository{db: db}
}

func (r *commissionRuleRepository) Create(ctx context.Context, rule *model.CommissionRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *commissionRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.CommissionRule{}).Error
}

func (r *commissionRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CommissionRule, error) {
	var rule model.CommissionRule
	if err := GetDB(ctx, r.db).Preload("Supplier").First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *commissionRuleRepository) FindBySupplierAndScope(ctx context.Context, supplierID uuid.UUID, scope model.CategoryScope) (*model.CommissionRule, error) {
	var rule model.CommissionRule
	if err := GetDB(ctx, r.db).
		Where("supplier_id = ? AND scope = ?", supplierID, scope.String()).
		First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *commissionRuleRepository) List(ctx context.Context, page, limit int) ([]model.CommissionRule, int64, error) {
	var rules []model.CommissionRule
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.CommissionRule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Supplier").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}
