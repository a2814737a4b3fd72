package repository

import (
	"context"

	"hwops-backend/internal/model"
	"hwops-backend/pkg/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoadingSheetRepository interface {
	Create(ctx context.Context, sheet *model.LoadingSheet) error
	CreateEntry(ctx context.Context, entry *model.LoadingSheetEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LoadingSheet, error)
	List(ctx context.Context, status string, page, limit int) ([]model.LoadingSheet, int64, error)
	// UpdateVersioned mirrors OrderRepository.UpdateVersioned for sheets.
	UpdateVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) error
	DeleteEntry(ctx context.Context, sheetID, orderID uuid.UUID) error
	SetEntryFinalAmount(ctx context.Context, sheetID, orderID uuid.UUID, amount money.Amount) error
	// OpenSheetForOrder returns the non-completed sheet the order is bound to,
	// or gorm.ErrRecordNotFound if no open binding exists.
	OpenSheetForOrder(ctx context.Context, orderID uuid.UUID) (*model.LoadingSheet, error)
	Count(ctx context.Context) (int64, error)
}

type loadingSheetRepository struct {
	db *gorm.DB
}

func NewLoadingSheetRepository(db *gorm.DB) LoadingSheetRepository {
	return &loadingSheetRepository{db: db}
}

func (r *loadingSheetRepository) Create(ctx context.Context, sheet *model.LoadingSheet) error {
	return GetDB(ctx, r.db).Create(sheet).Error
}

func (r *loadingSheetRepository) CreateEntry(ctx context.Context, entry *model.LoadingSheetEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *loadingSheetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LoadingSheet, error) {
	var sheet model.LoadingSheet
	if err := GetDB(ctx, r.db).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Entries.Order").
		Preload("Location").
		First(&sheet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *loadingSheetRepository) List(ctx context.Context, status string, page, limit int) ([]model.LoadingSheet, int64, error) {
	var sheets []model.LoadingSheet
	var total int64

	db := GetDB(ctx, r.db).Model(&model.LoadingSheet{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Entries").
		Preload("Location").
		Order("scheduled_date DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&sheets).Error; err != nil {
		return nil, 0, err
	}

	return sheets, total, nil
}

func (r *loadingSheetRepository) UpdateVersioned(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]interface{}) error {
	db := GetDB(ctx, r.db)

	merged := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		merged[k] = v
	}
	merged["version"] = expectedVersion + 1

	res := db.Model(&model.LoadingSheet{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(merged)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&model.LoadingSheet{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrStaleObject
	}
	return nil
}

func (r *loadingSheetRepository) DeleteEntry(ctx context.Context, sheetID, orderID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("sheet_id = ? AND order_id = ?", sheetID, orderID).
		Delete(&model.LoadingSheetEntry{}).Error
}

func (r *loadingSheetRepository) SetEntryFinalAmount(ctx context.Context, sheetID, orderID uuid.UUID, amount money.Amount) error {
	return GetDB(ctx, r.db).Model(&model.LoadingSheetEntry{}).
		Where("sheet_id = ? AND order_id = ?", sheetID, orderID).
		Update("final_amount", int64(amount)).Error
}

func (r *loadingSheetRepository) OpenSheetForOrder(ctx context.Context, orderID uuid.UUID) (*model.LoadingSheet, error) {
	var sheet model.LoadingSheet
	if err := GetDB(ctx, r.db).
		Joins("JOIN loading_sheet_entries ON loading_sheet_entries.sheet_id = loading_sheets.id").
		Where("loading_sheet_entries.order_id = ? AND loading_sheets.status <> ?", orderID, model.LoadStatusCompleted).
		First(&sheet).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *loadingSheetRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.LoadingSheet{}).Count(&count).Error
	return count, err
}
