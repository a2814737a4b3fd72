package service

import (
	"context"
	"encoding/json"
	"fmt"

	"hwops-backend/internal/apperr"
	"hwops-backend/internal/logging"
	"hwops-backend/internal/model"
	"hwops-backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type RecordMovementRequest struct {
	ProductID      string `json:"product_id" binding:"required"`
	LocationID     string `json:"location_id" binding:"required"`
	Type           string `json:"type" binding:"required,oneof=SALE PURCHASE RETURN DAMAGE ADJUSTMENT"`
	Quantity       int    `json:"quantity" binding:"required"`
	CounterpartyID string `json:"counterparty_id"`
	ReferenceID    string `json:"reference_id"`
	Note           string `json:"note"`
}

type MovementResponse struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name,omitempty"`
	Type         string `json:"type"`
	Quantity     int    `json:"quantity"`
	BalanceAfter int    `json:"balance_after"`
	ReferenceID  string `json:"reference_id,omitempty"`
	Note         string `json:"note,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type ProductStocksResponse struct {
	ProductID  string                       `json:"product_id"`
	SKU        string                       `json:"sku"`
	Name       string                       `json:"name"`
	Locations  []repository.LocationBalance `json:"locations"`
	TotalStock int                          `json:"total_stock"`
}

// MovementInput is the internal, tx-aware form of a ledger append. Callers
// already inside a transaction (order delivery, returns) pass their txCtx so
// the append joins the same transaction.
type MovementInput struct {
	ProductID      uuid.UUID
	LocationID     uuid.UUID
	Type           string
	Quantity       int // positive magnitude, except ADJUSTMENT which is signed
	CounterpartyID *uuid.UUID
	ReferenceID    *uuid.UUID
	Note           string
}

// --- Interface ---

type InventoryService interface {
	// AppendMovement writes one ledger record, chaining balanceAfter off the
	// pair's previous movement under a row lock. It participates in the
	// caller's transaction when ctx carries one.
	AppendMovement(ctx context.Context, in MovementInput) (*model.StockMovement, error)
	// RecordMovement is the handler-facing wrapper: own transaction plus audit.
	RecordMovement(ctx context.Context, actorID string, req RecordMovementRequest) (MovementResponse, error)
	CurrentBalance(ctx context.Context, productID, locationID uuid.UUID) (int, error)
	ProductStocks(ctx context.Context, productID uuid.UUID) (ProductStocksResponse, error)
	History(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID, page, limit int) ([]MovementResponse, int64, error)
}

type inventoryService struct {
	stockRepo   repository.StockMovementRepository
	productRepo repository.ProductRepository
	catalogRepo repository.CatalogRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewInventoryService(
	stockRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) InventoryService {
	return &inventoryService{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		catalogRepo: catalogRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func (s *inventoryService) AppendMovement(ctx context.Context, in MovementInput) (*model.StockMovement, error) {
	signed, err := model.SignedMovementQuantity(in.Type, in.Quantity)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	last, err := s.stockRepo.LastForUpdate(ctx, in.ProductID, in.LocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read last movement: %w", err)
	}

	balance := 0
	if last != nil {
		balance = last.BalanceAfter
	}
	newBalance := balance + signed

	if newBalance < 0 {
		if in.Type != model.MovementAdjustment {
			product, findErr := s.productRepo.FindByID(ctx, in.ProductID)
			sku := in.ProductID.String()
			if findErr == nil {
				sku = product.SKU
			}
			return nil, apperr.NegativeStock(sku, balance, signed)
		}
		// Correcting adjustments may push a balance negative; that is an
		// explicit policy escape hatch and must leave a trace.
		logging.WithModule("inventory").WithFields(map[string]interface{}{
			"product_id":  in.ProductID.String(),
			"location_id": in.LocationID.String(),
			"balance":     newBalance,
		}).Warn("adjustment drove stock balance below zero")
	}

	movement := &model.StockMovement{
		ProductID:      in.ProductID,
		LocationID:     in.LocationID,
		Type:           in.Type,
		Quantity:       signed,
		BalanceAfter:   newBalance,
		CounterpartyID: in.CounterpartyID,
		ReferenceID:    in.ReferenceID,
		Note:           in.Note,
	}
	if err := s.stockRepo.Append(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to append stock movement: %w", err)
	}

	return movement, nil
}

func (s *inventoryService) RecordMovement(ctx context.Context, actorID string, req RecordMovementRequest) (MovementResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return MovementResponse{}, apperr.Validation("invalid product_id")
	}
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return MovementResponse{}, apperr.Validation("invalid location_id")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if repository.IsNotFound(err) {
			return MovementResponse{}, apperr.NotFound("product")
		}
		return MovementResponse{}, fmt.Errorf("failed to find product: %w", err)
	}
	if _, err := s.catalogRepo.FindLocation(ctx, locationID); err != nil {
		if repository.IsNotFound(err) {
			return MovementResponse{}, apperr.NotFound("location")
		}
		return MovementResponse{}, fmt.Errorf("failed to find location: %w", err)
	}

	in := MovementInput{
		ProductID:  productID,
		LocationID: locationID,
		Type:       req.Type,
		Quantity:   req.Quantity,
		Note:       req.Note,
	}
	if parsed, err := uuid.Parse(req.CounterpartyID); err == nil {
		in.CounterpartyID = &parsed
	}
	if parsed, err := uuid.Parse(req.ReferenceID); err == nil {
		in.ReferenceID = &parsed
	}

	var movement *model.StockMovement
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var appendErr error
		movement, appendErr = s.AppendMovement(txCtx, in)
		if appendErr != nil {
			return appendErr
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionRecordMovement,
			EntityID:   movement.ID.String(),
			EntityName: req.Type,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return MovementResponse{}, err
	}

	return toMovementResponse(*movement), nil
}

func (s *inventoryService) CurrentBalance(ctx context.Context, productID, locationID uuid.UUID) (int, error) {
	balances, err := s.stockRepo.BalancesByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to read balances: %w", err)
	}
	for _, b := range balances {
		if b.LocationID == locationID {
			return b.Balance, nil
		}
	}
	return 0, nil
}

func (s *inventoryService) ProductStocks(ctx context.Context, productID uuid.UUID) (ProductStocksResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ProductStocksResponse{}, apperr.NotFound("product")
		}
		return ProductStocksResponse{}, fmt.Errorf("failed to find product: %w", err)
	}

	balances, err := s.stockRepo.BalancesByProduct(ctx, productID)
	if err != nil {
		return ProductStocksResponse{}, fmt.Errorf("failed to read balances: %w", err)
	}

	total := 0
	for _, b := range balances {
		total += b.Balance
	}

	return ProductStocksResponse{
		ProductID:  product.ID.String(),
		SKU:        product.SKU,
		Name:       product.Name,
		Locations:  balances,
		TotalStock: total,
	}, nil
}

func (s *inventoryService) History(ctx context.Context, productID uuid.UUID, locationID *uuid.UUID, page, limit int) ([]MovementResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	movements, total, err := s.stockRepo.History(ctx, productID, locationID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read movement history: %w", err)
	}

	res := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		res = append(res, toMovementResponse(m))
	}
	return res, total, nil
}

func toMovementResponse(m model.StockMovement) MovementResponse {
	resp := MovementResponse{
		ID:           m.ID.String(),
		ProductID:    m.ProductID.String(),
		LocationID:   m.LocationID.String(),
		Type:         m.Type,
		Quantity:     m.Quantity,
		BalanceAfter: m.BalanceAfter,
		Note:         m.Note,
		CreatedAt:    m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if m.Location != nil {
		resp.LocationName = m.Location.Name
	}
	if m.ReferenceID != nil {
		resp.ReferenceID = m.ReferenceID.String()
	}
	return resp
}

// parseActor converts the acting user id from the JWT into a nullable uuid
// for audit rows. Unparseable ids degrade to a system entry.
func parseActor(actorID string) *uuid.UUID {
	if parsed, err := uuid.Parse(actorID); err == nil {
		return &parsed
	}
	return nil
}
