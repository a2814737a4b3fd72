package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hwops-backend/internal/apperr"
	"hwops-backend/internal/model"
	"hwops-backend/internal/repository"
	ws "hwops-backend/internal/websocket"
	"hwops-backend/pkg/money"

	"github.com/google/uuid"
)

// --- DTOs ---

type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice string `json:"unit_price" binding:"required"` // display units, e.g. "125.00"
}

type CreateOrderRequest struct {
	OrderNo    string             `json:"order_no"` // generated when empty
	CustomerID string             `json:"customer_id"`
	ShopID     string             `json:"shop_id"`
	SalesRepID string             `json:"sales_rep_id"`
	Items      []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type EditItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SetPaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required,oneof=PAID UNPAID PARTIAL"`
}

type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	OrderNo       string              `json:"order_no"`
	InvoiceNo     *string             `json:"invoice_no"`
	CustomerID    string              `json:"customer_id,omitempty"`
	CustomerName  string              `json:"customer_name,omitempty"`
	ShopName      string              `json:"shop_name,omitempty"`
	SalesRepName  string              `json:"sales_rep_name,omitempty"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	ItemCount     int                 `json:"item_count"`
	TotalAmount   string              `json:"total_amount"`
	AllowedNext   []string            `json:"allowed_next"` // legal targets for the UI to render
	Version       int                 `json:"version"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     string              `json:"created_at"`
}

// OrderEvent is broadcast to connected dashboards after a committed change.
type OrderEvent struct {
	Event   string `json:"event"`
	OrderID string `json:"order_id"`
	OrderNo string `json:"order_no"`
	Status  string `json:"status"`
}

// --- Interface ---

type OrderService interface {
	CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (OrderResponse, error)
	GetOrder(ctx context.Context, id string) (OrderResponse, error)
	ListOrders(ctx context.Context, status string, page, limit int) ([]OrderResponse, int64, error)
	// Transition moves the order to target, enforcing the adjacent-forward rule
	// and applying ledger side effects atomically with the status change.
	Transition(ctx context.Context, actorID, id, target string) (OrderResponse, error)
	EditItems(ctx context.Context, actorID, id string, req EditItemsRequest) (OrderResponse, error)
	SetPaymentStatus(ctx context.Context, actorID, id string, req SetPaymentStatusRequest) (OrderResponse, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	sheetRepo    repository.LoadingSheetRepository
	productRepo  repository.ProductRepository
	stockRepo    repository.StockMovementRepository
	auditRepo    repository.AuditRepository
	inventorySvc InventoryService
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	sheetRepo repository.LoadingSheetRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	inventorySvc InventoryService,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		sheetRepo:    sheetRepo,
		productRepo:  productRepo,
		stockRepo:    stockRepo,
		auditRepo:    auditRepo,
		inventorySvc: inventorySvc,
		txManager:    txManager,
		hub:          hub,
	}
}

// --- Implementation ---

func (s *orderService) CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (OrderResponse, error) {
	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return OrderResponse{}, err
	}

	order := model.Order{
		OrderNo:       req.OrderNo,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
		Items:         items,
	}
	if parsed, err := uuid.Parse(req.CustomerID); err == nil {
		order.CustomerID = &parsed
	}
	if parsed, err := uuid.Parse(req.ShopID); err == nil {
		order.ShopID = &parsed
	}
	if parsed, err := uuid.Parse(req.SalesRepID); err == nil {
		order.SalesRepID = &parsed
	}
	order.RecalculateTotals()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if order.OrderNo == "" {
			seq, countErr := s.orderRepo.CountCreatedOn(txCtx, time.Now())
			if countErr != nil {
				return fmt.Errorf("failed to count orders: %w", countErr)
			}
			order.OrderNo = fmt.Sprintf("ORD-%s-%04d", time.Now().Format("20060102"), seq+1)
		}
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionCreateOrder,
			EntityID:   order.ID.String(),
			EntityName: order.OrderNo,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.broadcast("order_created", &order)
	return toOrderResponse(&order), nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id")
	}
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return OrderResponse{}, apperr.NotFound("order")
		}
		return OrderResponse{}, fmt.Errorf("failed to find order: %w", err)
	}
	return toOrderResponse(order), nil
}

func (s *orderService) ListOrders(ctx context.Context, status string, page, limit int) ([]OrderResponse, int64, error) {
	if status != "" && !model.ValidOrderStatus(status) {
		return nil, 0, apperr.Validation("unknown status %q", status)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	orders, total, err := s.orderRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}
	return res, total, nil
}

func (s *orderService) Transition(ctx context.Context, actorID, id, target string) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id")
	}
	if !model.ValidOrderStatus(target) {
		return OrderResponse{}, apperr.Validation("unknown status %q", target)
	}

	var updated *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByID(txCtx, orderID)
		if findErr != nil {
			if repository.IsNotFound(findErr) {
				return apperr.NotFound("order")
			}
			return fmt.Errorf("failed to find order: %w", findErr)
		}

		if err := validateTransition(order.Status, target); err != nil {
			return err
		}

		updates := map[string]interface{}{"status": target}

		switch {
		case target == model.OrderStatusLoading:
			if order.InvoiceNo == nil {
				invoiceNo, invErr := s.nextInvoiceNo(txCtx)
				if invErr != nil {
					return invErr
				}
				updates["invoice_no"] = invoiceNo
				order.InvoiceNo = &invoiceNo
			}

		case target == model.OrderStatusInTransit:
			if _, sheetErr := s.sheetRepo.OpenSheetForOrder(txCtx, order.ID); sheetErr != nil {
				if repository.IsNotFound(sheetErr) {
					return apperr.NotDispatched(order.OrderNo)
				}
				return fmt.Errorf("failed to look up loading sheet: %w", sheetErr)
			}

		case target == model.OrderStatusDelivered:
			if err := s.deliver(txCtx, order); err != nil {
				return err
			}

		case target == model.OrderStatusCancelled:
			if err := s.cancel(txCtx, order); err != nil {
				return err
			}
		}

		if upErr := s.orderRepo.UpdateVersioned(txCtx, order.ID, order.Version, updates); upErr != nil {
			return translateVersionError(upErr, "order")
		}

		details, _ := json.Marshal(map[string]string{"from": order.Status, "to": target})
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionOrderTransition,
			EntityID:   order.ID.String(),
			EntityName: order.OrderNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		order.Status = target
		order.Version++
		updated = order
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.broadcast("order_transition", updated)
	return toOrderResponse(updated), nil
}

func (s *orderService) EditItems(ctx context.Context, actorID, id string, req EditItemsRequest) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id")
	}

	var updated *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByID(txCtx, orderID)
		if findErr != nil {
			if repository.IsNotFound(findErr) {
				return apperr.NotFound("order")
			}
			return fmt.Errorf("failed to find order: %w", findErr)
		}

		if !model.OrderItemsEditable(order.Status) {
			return apperr.Validation("line items are locked once the order has left %s", model.OrderStatusChecking)
		}

		items, buildErr := s.buildItems(txCtx, req.Items)
		if buildErr != nil {
			return buildErr
		}

		if repErr := s.orderRepo.ReplaceItems(txCtx, order.ID, items); repErr != nil {
			return repErr
		}

		order.Items = items
		order.RecalculateTotals()

		updates := map[string]interface{}{
			"total_amount": int64(order.TotalAmount),
			"item_count":   order.ItemCount,
		}
		if upErr := s.orderRepo.UpdateVersioned(txCtx, order.ID, order.Version, updates); upErr != nil {
			return translateVersionError(upErr, "order")
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionEditOrderItems,
			EntityID:   order.ID.String(),
			EntityName: order.OrderNo,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		order.Version++
		updated = order
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return toOrderResponse(updated), nil
}

func (s *orderService) SetPaymentStatus(ctx context.Context, actorID, id string, req SetPaymentStatusRequest) (OrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return OrderResponse{}, apperr.Validation("invalid order id")
	}

	var updated *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.orderRepo.FindByID(txCtx, orderID)
		if findErr != nil {
			if repository.IsNotFound(findErr) {
				return apperr.NotFound("order")
			}
			return fmt.Errorf("failed to find order: %w", findErr)
		}

		updates := map[string]interface{}{"payment_status": req.PaymentStatus}
		if upErr := s.orderRepo.UpdateVersioned(txCtx, order.ID, order.Version, updates); upErr != nil {
			return translateVersionError(upErr, "order")
		}

		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionSetPaymentStatus,
			EntityID:   order.ID.String(),
			EntityName: order.OrderNo,
			Details:    fmt.Sprintf(`{"payment_status":%q}`, req.PaymentStatus),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		order.PaymentStatus = req.PaymentStatus
		order.Version++
		updated = order
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	return toOrderResponse(updated), nil
}

// --- transition helpers ---

// validateTransition enforces the adjacent-forward rule and the cancellation
// policy of the state machine.
func validateTransition(current, target string) error {
	if model.IsTerminalOrderStatus(current) {
		return apperr.InvalidTransition(current, target)
	}
	if target == model.OrderStatusCancelled {
		if !model.CanCancelFrom(current) {
			return apperr.InvalidTransition(current, target)
		}
		return nil
	}
	next, ok := model.NextOrderStatus(current)
	if !ok || next != target {
		return apperr.InvalidTransition(current, target)
	}
	return nil
}

// deliver emits one SALE movement per line item at the dispatching sheet's
// location and finalizes the order's amount on its sheet entry.
func (s *orderService) deliver(txCtx context.Context, order *model.Order) error {
	sheet, err := s.sheetRepo.OpenSheetForOrder(txCtx, order.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.NotDispatched(order.OrderNo)
		}
		return fmt.Errorf("failed to look up loading sheet: %w", err)
	}

	for _, item := range order.Items {
		in := MovementInput{
			ProductID:      item.ProductID,
			LocationID:     sheet.LocationID,
			Type:           model.MovementSale,
			Quantity:       item.Quantity,
			CounterpartyID: order.CustomerID,
			ReferenceID:    &order.ID,
			Note:           "delivery of " + order.OrderNo,
		}
		if _, err := s.inventorySvc.AppendMovement(txCtx, in); err != nil {
			return err
		}
	}

	if err := s.sheetRepo.SetEntryFinalAmount(txCtx, sheet.ID, order.ID, order.TotalAmount); err != nil {
		return fmt.Errorf("failed to finalize sheet entry: %w", err)
	}
	return nil
}

// cancel undoes the order's dispatch-side effects. Any SALE movements already
// recorded are reversed with compensating RETURN movements (history is never
// edited), and the order's amount on its open sheet entry is zeroed so the
// sheet reconciles the cancelled order as a shortage. An order not bound to a
// sheet has nothing to undo.
func (s *orderService) cancel(txCtx context.Context, order *model.Order) error {
	sheet, err := s.sheetRepo.OpenSheetForOrder(txCtx, order.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to look up loading sheet: %w", err)
	}

	sales, err := s.stockRepo.SalesByReference(txCtx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to read sale movements: %w", err)
	}
	for _, sale := range sales {
		in := MovementInput{
			ProductID:      sale.ProductID,
			LocationID:     sale.LocationID,
			Type:           model.MovementReturn,
			Quantity:       -sale.Quantity, // sale quantities are negative
			CounterpartyID: order.CustomerID,
			ReferenceID:    &order.ID,
			Note:           "return of " + order.OrderNo,
		}
		if _, err := s.inventorySvc.AppendMovement(txCtx, in); err != nil {
			return err
		}
	}

	if err := s.sheetRepo.SetEntryFinalAmount(txCtx, sheet.ID, order.ID, 0); err != nil {
		return fmt.Errorf("failed to zero sheet entry: %w", err)
	}
	return nil
}

func (s *orderService) buildItems(ctx context.Context, reqs []OrderItemRequest) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		pid, err := uuid.Parse(r.ProductID)
		if err != nil {
			return nil, apperr.Validation("invalid product_id %q", r.ProductID)
		}
		if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
			if repository.IsNotFound(err) {
				return nil, apperr.NotFound("product " + r.ProductID)
			}
			return nil, fmt.Errorf("failed to find product %s: %w", r.ProductID, err)
		}
		price, err := money.FromString(r.UnitPrice)
		if err != nil {
			return nil, apperr.Validation("invalid unit_price %q", r.UnitPrice)
		}
		items = append(items, model.OrderItem{
			ProductID: pid,
			Quantity:  r.Quantity,
			UnitPrice: price,
		})
	}
	return items, nil
}

func (s *orderService) nextInvoiceNo(ctx context.Context) (string, error) {
	seq, err := s.orderRepo.CountInvoiced(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count invoiced orders: %w", err)
	}
	return fmt.Sprintf("INV-%s-%05d", time.Now().Format("200601"), seq+1), nil
}

func (s *orderService) broadcast(event string, order *model.Order) {
	if s.hub == nil || order == nil {
		return
	}
	payload, err := json.Marshal(OrderEvent{
		Event:   event,
		OrderID: order.ID.String(),
		OrderNo: order.OrderNo,
		Status:  order.Status,
	})
	if err != nil {
		return
	}
	// Never block a transition on notification delivery.
	select {
	case s.hub.Broadcast <- payload:
	default:
	}
}

func translateVersionError(err error, entity string) error {
	if errors.Is(err, repository.ErrStaleObject) {
		return apperr.ConcurrentModification(entity)
	}
	if repository.IsNotFound(err) {
		return apperr.NotFound(entity)
	}
	return fmt.Errorf("failed to update %s: %w", entity, err)
}

func toOrderResponse(o *model.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID.String(),
		OrderNo:       o.OrderNo,
		InvoiceNo:     o.InvoiceNo,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		ItemCount:     o.ItemCount,
		TotalAmount:   o.TotalAmount.String(),
		AllowedNext:   allowedTargets(o.Status),
		Version:       o.Version,
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if o.CustomerID != nil {
		resp.CustomerID = o.CustomerID.String()
	}
	if o.Customer != nil {
		resp.CustomerName = o.Customer.Name
	}
	if o.Shop != nil {
		resp.ShopName = o.Shop.Name
	}
	if o.SalesRep != nil {
		resp.SalesRepName = o.SalesRep.Username
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.String(),
			LineTotal: money.Line(it.UnitPrice, it.Quantity).String(),
		})
	}
	return resp
}

// allowedTargets returns the legal transition targets for a status; the UI
// renders exactly these as actions instead of hard-coding button visibility.
func allowedTargets(status string) []string {
	var targets []string
	if next, ok := model.NextOrderStatus(status); ok {
		targets = append(targets, next)
	}
	if !model.IsTerminalOrderStatus(status) && model.CanCancelFrom(status) {
		targets = append(targets, model.OrderStatusCancelled)
	}
	return targets
}
