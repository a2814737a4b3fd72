package service

import (
	"context"
	"time"

	"hwops-backend/internal/model"
	"hwops-backend/pkg/money"

	"gorm.io/gorm"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates order counts per status and dispatch reconciliation
// totals for the given time bracket.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	// Orders grouped by status within the range.
	var statusRows []struct {
		Status     string
		OrderCount int
		TotalValue int64
	}
	if err := s.db.WithContext(ctx).Table("orders").
		Select("status, COUNT(*) as order_count, COALESCE(SUM(total_amount), 0) as total_value").
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Group("status").
		Order("status").
		Scan(&statusRows).Error; err != nil {
		return response, err
	}

	response.OrdersByStatus = make([]model.StatusCount, 0, len(statusRows))
	for _, row := range statusRows {
		response.OrdersByStatus = append(response.OrdersByStatus, model.StatusCount{
			Status:     row.Status,
			OrderCount: row.OrderCount,
			TotalValue: money.Amount(row.TotalValue).String(),
		})
	}

	// Dispatch reconciliation across completed loading sheets: sent value is
	// the dispatch-time snapshot, final value falls back to it when no
	// adjustment was recorded.
	var dispatchRow struct {
		CompletedSheets int
		SentValue       int64
		FinalValue      int64
	}
	if err := s.db.WithContext(ctx).Table("loading_sheet_entries").
		Select("COUNT(DISTINCT loading_sheets.id) as completed_sheets, "+
			"COALESCE(SUM(loading_sheet_entries.original_amount), 0) as sent_value, "+
			"COALESCE(SUM(COALESCE(loading_sheet_entries.final_amount, loading_sheet_entries.original_amount)), 0) as final_value").
		Joins("JOIN loading_sheets ON loading_sheets.id = loading_sheet_entries.sheet_id").
		Where("loading_sheets.status = ? AND loading_sheets.scheduled_date >= ? AND loading_sheets.scheduled_date <= ?",
			model.LoadStatusCompleted, startDate, endDate).
		Scan(&dispatchRow).Error; err != nil {
		return response, err
	}

	response.Dispatch = model.DispatchStats{
		CompletedSheets: dispatchRow.CompletedSheets,
		SentValue:       money.Amount(dispatchRow.SentValue).String(),
		FinalValue:      money.Amount(dispatchRow.FinalValue).String(),
		Difference:      money.Amount(dispatchRow.FinalValue - dispatchRow.SentValue).String(),
	}

	return response, nil
}
