package service

import (
	"hwops-backend/internal/model"
	"hwops-backend/pkg/money"
)

// ReconciliationLine is the sent-vs-final comparison for one bound order.
type ReconciliationLine struct {
	OrderID        string `json:"order_id"`
	OrderNo        string `json:"order_no,omitempty"`
	OriginalAmount string `json:"original_amount"`
	FinalAmount    string `json:"final_amount"`
	Difference     string `json:"difference"`
	Finalized      bool   `json:"finalized"`
}

// ReconciliationSummary aggregates a sheet's sent and final values.
// Positive difference means more was collected than dispatched (upsell at
// delivery); negative means shortage or return.
type ReconciliationSummary struct {
	TotalOrders int                  `json:"total_orders"`
	SentValue   string               `json:"sent_value"`
	FinalValue  string               `json:"final_value"`
	Difference  string               `json:"difference"`
	Lines       []ReconciliationLine `json:"lines"`
}

// Reconcile derives per-order and aggregate differences from a sheet's
// entries. Pure function: entries with no final amount fall back to their
// original amount. All arithmetic stays in integer minor units.
func Reconcile(entries []model.LoadingSheetEntry) ReconciliationSummary {
	var sent, final money.Amount
	lines := make([]ReconciliationLine, 0, len(entries))

	for _, e := range entries {
		entryFinal := e.OriginalAmount
		finalized := false
		if e.FinalAmount != nil {
			entryFinal = *e.FinalAmount
			finalized = true
		}

		sent += e.OriginalAmount
		final += entryFinal

		line := ReconciliationLine{
			OrderID:        e.OrderID.String(),
			OriginalAmount: e.OriginalAmount.String(),
			FinalAmount:    entryFinal.String(),
			Difference:     (entryFinal - e.OriginalAmount).String(),
			Finalized:      finalized,
		}
		if e.Order != nil {
			line.OrderNo = e.Order.OrderNo
		}
		lines = append(lines, line)
	}

	return ReconciliationSummary{
		TotalOrders: len(entries),
		SentValue:   sent.String(),
		FinalValue:  final.String(),
		Difference:  (final - sent).String(),
		Lines:       lines,
	}
}
