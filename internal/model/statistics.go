package model

import (
	"time"
)

// StatusCount is the number of orders and their combined value in one status.
type StatusCount struct {
	Status     string `json:"status"`
	OrderCount int    `json:"order_count"`
	TotalValue string `json:"total_value"` // display units
}

// DispatchStats aggregates reconciliation across completed loading sheets.
type DispatchStats struct {
	CompletedSheets int    `json:"completed_sheets"`
	SentValue       string `json:"sent_value"`
	FinalValue      string `json:"final_value"`
	Difference      string `json:"difference"`
}

// StatisticsResponse is the dashboard aggregate for a date range.
type StatisticsResponse struct {
	OrdersByStatus     []StatusCount `json:"orders_by_status"`
	Dispatch           DispatchStats `json:"dispatch"`
	TimeRangeStartDate time.Time     `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time     `json:"time_range_end_date"`
}
