package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hwops-backend/internal/apperr"
	"hwops-backend/internal/model"
	"hwops-backend/internal/repository"
	ws "hwops-backend/internal/websocket"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateLoadRequest struct {
	OrderIDs      []string `json:"order_ids" binding:"required,min=1"`
	VehicleNo     string   `json:"vehicle_no" binding:"required"`
	DriverName    string   `json:"driver_name" binding:"required"`
	HelperName    string   `json:"helper_name"`
	LocationID    string   `json:"location_id" binding:"required"`
	ScheduledDate string   `json:"scheduled_date" binding:"required"` // YYYY-MM-DD
}

type UpdateLoadRequest struct {
	VehicleNo     string `json:"vehicle_no"`
	DriverName    string `json:"driver_name"`
	HelperName    string `json:"helper_name"`
	ScheduledDate string `json:"scheduled_date"`
	Status        string `json:"status" binding:"omitempty,oneof=IN_TRANSIT COMPLETED"`
	// AdminCorrection unlocks an already-completed sheet for an audited edit.
	AdminCorrection bool `json:"admin_correction"`
}

type LoadingSheetResponse struct {
	ID             string                `json:"id"`
	SheetNo        string                `json:"sheet_no"`
	ScheduledDate  string                `json:"scheduled_date"`
	VehicleNo      string                `json:"vehicle_no"`
	DriverName     string                `json:"driver_name"`
	HelperName     string                `json:"helper_name,omitempty"`
	LocationID     string                `json:"location_id"`
	LocationName   string                `json:"location_name,omitempty"`
	Status         string                `json:"status"`
	Version        int                   `json:"version"`
	Reconciliation ReconciliationSummary `json:"reconciliation"`
	CreatedAt      string                `json:"created_at"`
}

// --- Interface ---

type DispatchService interface {
	// CreateLoad atomically claims the given orders into a new loading sheet,
	// snapshotting each order's value. All-or-nothing: one ineligible order
	// aborts the whole creation.
	CreateLoad(ctx context.Context, actorID string, req CreateLoadRequest) (LoadingSheetResponse, error)
	GetLoad(ctx context.Context, id string) (LoadingSheetResponse, error)
	ListLoads(ctx context.Context, status string, page, limit int) ([]LoadingSheetResponse, int64, error)
	UpdateLoad(ctx context.Context, actorID, actorRole, id string, req UpdateLoadRequest) (LoadingSheetResponse, error)
	RemoveOrderFromLoad(ctx context.Context, actorID, sheetID, orderID string) (LoadingSheetResponse, error)
}

type dispatchService struct {
	sheetRepo   repository.LoadingSheetRepository
	orderRepo   repository.OrderRepository
	catalogRepo repository.CatalogRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewDispatchService(
	sheetRepo repository.LoadingSheetRepository,
	orderRepo repository.OrderRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) DispatchService {
	return &dispatchService{
		sheetRepo:   sheetRepo,
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Implementation ---

func (s *dispatchService) CreateLoad(ctx context.Context, actorID string, req CreateLoadRequest) (LoadingSheetResponse, error) {
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return LoadingSheetResponse{}, apperr.Validation("invalid location_id")
	}
	scheduled, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		return LoadingSheetResponse{}, apperr.Validation("invalid scheduled_date (expected YYYY-MM-DD)")
	}

	orderIDs := make([]uuid.UUID, 0, len(req.OrderIDs))
	seen := make(map[uuid.UUID]bool, len(req.OrderIDs))
	for _, raw := range req.OrderIDs {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return LoadingSheetResponse{}, apperr.Validation("invalid order id %q", raw)
		}
		if seen[id] {
			return LoadingSheetResponse{}, apperr.Validation("duplicate order id %q", raw)
		}
		seen[id] = true
		orderIDs = append(orderIDs, id)
	}

	var sheetID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, locErr := s.catalogRepo.FindLocation(txCtx, locationID); locErr != nil {
			if repository.IsNotFound(locErr) {
				return apperr.NotFound("location")
			}
			return fmt.Errorf("failed to find location: %w", locErr)
		}

		seq, seqErr := s.sheetRepo.Count(txCtx)
		if seqErr != nil {
			return fmt.Errorf("failed to count sheets: %w", seqErr)
		}

		sheet := model.LoadingSheet{
			SheetNo:       fmt.Sprintf("LS-%s-%04d", scheduled.Format("20060102"), seq+1),
			ScheduledDate: scheduled,
			VehicleNo:     req.VehicleNo,
			DriverName:    req.DriverName,
			HelperName:    req.HelperName,
			LocationID:    locationID,
			Status:        model.LoadStatusInTransit,
		}
		if createErr := s.sheetRepo.Create(txCtx, &sheet); createErr != nil {
			return fmt.Errorf("failed to create loading sheet: %w", createErr)
		}
		sheetID = sheet.ID

		for pos, orderID := range orderIDs {
			order, findErr := s.orderRepo.FindByID(txCtx, orderID)
			if findErr != nil {
				if repository.IsNotFound(findErr) {
					return apperr.NotFound("order " + orderID.String())
				}
				return fmt.Errorf("failed to find order: %w", findErr)
			}

			if order.Status != model.OrderStatusChecking && order.Status != model.OrderStatusLoading {
				return apperr.InvalidTransition(order.Status, model.OrderStatusLoading)
			}

			if _, openErr := s.sheetRepo.OpenSheetForOrder(txCtx, order.ID); openErr == nil {
				return apperr.OrderAlreadyDispatched(order.OrderNo)
			} else if !repository.IsNotFound(openErr) {
				return fmt.Errorf("failed to check open sheets: %w", openErr)
			}

			// Entering a load always advances the order to at least LOADING.
			if order.Status == model.OrderStatusChecking {
				updates := map[string]interface{}{"status": model.OrderStatusLoading}
				if order.InvoiceNo == nil {
					invoiced, invErr := s.orderRepo.CountInvoiced(txCtx)
					if invErr != nil {
						return fmt.Errorf("failed to count invoiced orders: %w", invErr)
					}
					updates["invoice_no"] = fmt.Sprintf("INV-%s-%05d", time.Now().Format("200601"), invoiced+1)
				}
				if upErr := s.orderRepo.UpdateVersioned(txCtx, order.ID, order.Version, updates); upErr != nil {
					return translateVersionError(upErr, "order "+order.OrderNo)
				}
			}

			entry := model.LoadingSheetEntry{
				SheetID:        sheet.ID,
				OrderID:        order.ID,
				OriginalAmount: order.TotalAmount,
				Position:       pos,
			}
			if entryErr := s.sheetRepo.CreateEntry(txCtx, &entry); entryErr != nil {
				return fmt.Errorf("failed to bind order to sheet: %w", entryErr)
			}
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionCreateLoad,
			EntityID:   sheet.ID.String(),
			EntityName: sheet.SheetNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return LoadingSheetResponse{}, err
	}

	s.broadcastSheet("load_created", sheetID)
	return s.GetLoad(ctx, sheetID.String())
}

func (s *dispatchService) GetLoad(ctx context.Context, id string) (LoadingSheetResponse, error) {
	sheetID, err := uuid.Parse(id)
	if err != nil {
		return LoadingSheetResponse{}, apperr.Validation("invalid loading sheet id")
	}
	sheet, err := s.sheetRepo.FindByID(ctx, sheetID)
	if err != nil {
		if repository.IsNotFound(err) {
			return LoadingSheetResponse{}, apperr.NotFound("loading sheet")
		}
		return LoadingSheetResponse{}, fmt.Errorf("failed to find loading sheet: %w", err)
	}
	return toSheetResponse(sheet), nil
}

func (s *dispatchService) ListLoads(ctx context.Context, status string, page, limit int) ([]LoadingSheetResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	sheets, total, err := s.sheetRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list loading sheets: %w", err)
	}

	res := make([]LoadingSheetResponse, 0, len(sheets))
	for i := range sheets {
		res = append(res, toSheetResponse(&sheets[i]))
	}
	return res, total, nil
}

func (s *dispatchService) UpdateLoad(ctx context.Context, actorID, actorRole, id string, req UpdateLoadRequest) (LoadingSheetResponse, error) {
	sheetID, err := uuid.Parse(id)
	if err != nil {
		return LoadingSheetResponse{}, apperr.Validation("invalid loading sheet id")
	}

	completing := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sheet, findErr := s.sheetRepo.FindByID(txCtx, sheetID)
		if findErr != nil {
			if repository.IsNotFound(findErr) {
				return apperr.NotFound("loading sheet")
			}
			return fmt.Errorf("failed to find loading sheet: %w", findErr)
		}

		if sheet.Status == model.LoadStatusCompleted {
			// Completed sheets are immutable except through the audited
			// administrative-correction path.
			if !req.AdminCorrection || actorRole != model.RoleAdmin {
				return apperr.Validation("completed loading sheet can only be changed by an administrative correction")
			}
		}

		updates := map[string]interface{}{}
		if req.VehicleNo != "" {
			updates["vehicle_no"] = req.VehicleNo
		}
		if req.DriverName != "" {
			updates["driver_name"] = req.DriverName
		}
		if req.HelperName != "" {
			updates["helper_name"] = req.HelperName
		}
		if req.ScheduledDate != "" {
			scheduled, parseErr := time.Parse("2006-01-02", req.ScheduledDate)
			if parseErr != nil {
				return apperr.Validation("invalid scheduled_date (expected YYYY-MM-DD)")
			}
			updates["scheduled_date"] = scheduled
		}
		if req.Status != "" && req.Status != sheet.Status {
			if req.Status == model.LoadStatusCompleted {
				for _, entry := range sheet.Entries {
					if entry.Order == nil || !model.IsTerminalOrderStatus(entry.Order.Status) {
						return apperr.IncompleteOrders(sheet.SheetNo)
					}
				}
				completing = true
			}
			updates["status"] = req.Status
		}
		if len(updates) == 0 {
			return apperr.Validation("no fields to update")
		}

		if upErr := s.sheetRepo.UpdateVersioned(txCtx, sheet.ID, sheet.Version, updates); upErr != nil {
			return translateVersionError(upErr, "loading sheet")
		}

		action := model.ActionUpdateLoad
		if sheet.Status == model.LoadStatusCompleted {
			action = model.ActionAdminSheetEdit
		}
		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     action,
			EntityID:   sheet.ID.String(),
			EntityName: sheet.SheetNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return LoadingSheetResponse{}, err
	}

	if completing {
		s.broadcastSheet("load_completed", sheetID)
	}
	return s.GetLoad(ctx, id)
}

func (s *dispatchService) RemoveOrderFromLoad(ctx context.Context, actorID, sheetID, orderID string) (LoadingSheetResponse, error) {
	sid, err := uuid.Parse(sheetID)
	if err != nil {
		return LoadingSheetResponse{}, apperr.Validation("invalid loading sheet id")
	}
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return LoadingSheetResponse{}, apperr.Validation("invalid order id")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sheet, findErr := s.sheetRepo.FindByID(txCtx, sid)
		if findErr != nil {
			if repository.IsNotFound(findErr) {
				return apperr.NotFound("loading sheet")
			}
			return fmt.Errorf("failed to find loading sheet: %w", findErr)
		}

		if sheet.Status == model.LoadStatusCompleted {
			return apperr.Validation("orders cannot be removed from a completed loading sheet")
		}

		bound := false
		for _, entry := range sheet.Entries {
			if entry.OrderID == oid {
				bound = true
				break
			}
		}
		if !bound {
			return apperr.NotFound("order on loading sheet")
		}

		order, orderErr := s.orderRepo.FindByID(txCtx, oid)
		if orderErr != nil {
			if repository.IsNotFound(orderErr) {
				return apperr.NotFound("order")
			}
			return fmt.Errorf("failed to find order: %w", orderErr)
		}

		// A delivered or cancelled order never rewinds; its ledger effects are
		// only undone through compensating movements via the state machine.
		if model.IsTerminalOrderStatus(order.Status) {
			return apperr.Validation("order %s is %s and cannot be removed from the sheet", order.OrderNo, order.Status)
		}

		if delErr := s.sheetRepo.DeleteEntry(txCtx, sid, oid); delErr != nil {
			return fmt.Errorf("failed to remove order from sheet: %w", delErr)
		}

		// Removal reverts the order to CHECKING so it can be re-dispatched.
		updates := map[string]interface{}{"status": model.OrderStatusChecking}
		if upErr := s.orderRepo.UpdateVersioned(txCtx, order.ID, order.Version, updates); upErr != nil {
			return translateVersionError(upErr, "order "+order.OrderNo)
		}

		details, _ := json.Marshal(map[string]string{"order_id": orderID, "order_no": order.OrderNo})
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionRemoveFromLoad,
			EntityID:   sheet.ID.String(),
			EntityName: sheet.SheetNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return LoadingSheetResponse{}, err
	}

	return s.GetLoad(ctx, sheetID)
}

func (s *dispatchService) broadcastSheet(event string, sheetID uuid.UUID) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{"event": event, "sheet_id": sheetID.String()})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}

func toSheetResponse(sheet *model.LoadingSheet) LoadingSheetResponse {
	resp := LoadingSheetResponse{
		ID:             sheet.ID.String(),
		SheetNo:        sheet.SheetNo,
		ScheduledDate:  sheet.ScheduledDate.Format("2006-01-02"),
		VehicleNo:      sheet.VehicleNo,
		DriverName:     sheet.DriverName,
		HelperName:     sheet.HelperName,
		LocationID:     sheet.LocationID.String(),
		Status:         sheet.Status,
		Version:        sheet.Version,
		Reconciliation: Reconcile(sheet.Entries),
		CreatedAt:      sheet.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if sheet.Location != nil {
		resp.LocationName = sheet.Location.Name
	}
	return resp
}
