package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hwops-backend/internal/apperr"
	"hwops-backend/internal/model"
	"hwops-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCommissionRuleRequest struct {
	SupplierID string `json:"supplier_id" binding:"required"`
	Category   string `json:"category" binding:"required"` // category name or "ALL"
	Rate       string `json:"rate" binding:"required"`     // percentage, e.g. "5" or "7.5"
}

type CommissionRuleResponse struct {
	ID           string `json:"id"`
	SupplierID   string `json:"supplier_id"`
	SupplierName string `json:"supplier_name,omitempty"`
	Category     string `json:"category"` // "ALL" for the general rule
	Rate         string `json:"rate"`
	CreatedAt    string `json:"created_at"`
}

// ResolveResponse carries the applicable rate for a (supplier, category)
// lookup. Source tells which rule matched: "category", "all", or "none".
// A missing rule is not an error, it resolves to rate 0.
type ResolveResponse struct {
	SupplierID string `json:"supplier_id"`
	Category   string `json:"category"`
	Rate       string `json:"rate"`
	Source     string `json:"source"`
	RuleID     string `json:"rule_id,omitempty"`
}

const (
	ResolveSourceCategory = "category"
	ResolveSourceAll      = "all"
	ResolveSourceNone     = "none"
)

// --- Interface ---

type CommissionService interface {
	// Resolve applies strict two-level specificity: the exact category rule
	// wins over the supplier's "ALL" rule; with neither, rate is zero.
	Resolve(ctx context.Context, supplierID uuid.UUID, category string) (ResolveResponse, error)
	AddRule(ctx context.Context, actorID string, req CreateCommissionRuleRequest) (CommissionRuleResponse, error)
	ListRules(ctx context.Context, page, limit int) ([]CommissionRuleResponse, int64, error)
	DeleteRule(ctx context.Context, actorID, id string) error
}

type commissionService struct {
	ruleRepo    repository.CommissionRuleRepository
	catalogRepo repository.CatalogRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewCommissionService(
	ruleRepo repository.CommissionRuleRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CommissionService {
	return &commissionService{
		ruleRepo:    ruleRepo,
		catalogRepo: catalogRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *commissionService) Resolve(ctx context.Context, supplierID uuid.UUID, category string) (ResolveResponse, error) {
	resp := ResolveResponse{
		SupplierID: supplierID.String(),
		Category:   category,
		Rate:       decimal.Zero.StringFixed(2),
		Source:     ResolveSourceNone,
	}

	// Exact category first. No hierarchy traversal: sub-categories do not
	// inherit unless a rule exists for them by name.
	if category != "" && category != model.CategoryScopeAll {
		rule, err := s.ruleRepo.FindBySupplierAndScope(ctx, supplierID, model.SpecificCategory(category))
		if err == nil {
			resp.Rate = rule.Rate.StringFixed(2)
			resp.Source = ResolveSourceCategory
			resp.RuleID = rule.ID.String()
			return resp, nil
		}
		if !repository.IsNotFound(err) {
			return ResolveResponse{}, fmt.Errorf("failed to look up commission rule: %w", err)
		}
	}

	rule, err := s.ruleRepo.FindBySupplierAndScope(ctx, supplierID, model.AllCategories())
	if err == nil {
		resp.Rate = rule.Rate.StringFixed(2)
		resp.Source = ResolveSourceAll
		resp.RuleID = rule.ID.String()
		return resp, nil
	}
	if !repository.IsNotFound(err) {
		return ResolveResponse{}, fmt.Errorf("failed to look up commission rule: %w", err)
	}

	return resp, nil
}

func (s *commissionService) AddRule(ctx context.Context, actorID string, req CreateCommissionRuleRequest) (CommissionRuleResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return CommissionRuleResponse{}, apperr.Validation("invalid supplier_id")
	}

	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return CommissionRuleResponse{}, apperr.Validation("invalid rate %q", req.Rate)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return CommissionRuleResponse{}, apperr.Validation("rate must be between 0 and 100")
	}

	scope := model.SpecificCategory(req.Category)

	var rule model.CommissionRule
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, supErr := s.catalogRepo.FindSupplier(txCtx, supplierID)
		if supErr != nil {
			if repository.IsNotFound(supErr) {
				return apperr.NotFound("supplier")
			}
			return fmt.Errorf("failed to find supplier: %w", supErr)
		}

		if !scope.IsAll() {
			if _, catErr := s.catalogRepo.FindCategoryByName(txCtx, scope.Category()); catErr != nil {
				if repository.IsNotFound(catErr) {
					return apperr.NotFound("category " + scope.Category())
				}
				return fmt.Errorf("failed to find category: %w", catErr)
			}
		}

		// Uniqueness is enforced at write time: a conflict is a reported
		// error, never a silent overwrite.
		if _, dupErr := s.ruleRepo.FindBySupplierAndScope(txCtx, supplierID, scope); dupErr == nil {
			return apperr.DuplicateRule(supplier.Name, scope.String())
		} else if !repository.IsNotFound(dupErr) {
			return fmt.Errorf("failed to check existing rules: %w", dupErr)
		}

		rule = model.CommissionRule{
			SupplierID: supplierID,
			Scope:      scope,
			Rate:       rate,
		}
		if createErr := s.ruleRepo.Create(txCtx, &rule); createErr != nil {
			// The unique index backs the check above against races.
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return apperr.DuplicateRule(supplier.Name, scope.String())
			}
			return fmt.Errorf("failed to create commission rule: %w", createErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionCreateCommission,
			EntityID:   rule.ID.String(),
			EntityName: supplier.Name + " / " + scope.String(),
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return CommissionRuleResponse{}, err
	}

	return toRuleResponse(rule), nil
}

func (s *commissionService) ListRules(ctx context.Context, page, limit int) ([]CommissionRuleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	rules, total, err := s.ruleRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list commission rules: %w", err)
	}

	res := make([]CommissionRuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toRuleResponse(r))
	}
	return res, total, nil
}

func (s *commissionService) DeleteRule(ctx context.Context, actorID, id string) error {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid commission rule id")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rule, findErr := s.ruleRepo.FindByID(txCtx, ruleID)
		if findErr != nil {
			if repository.IsNotFound(findErr) {
				return apperr.NotFound("commission rule")
			}
			return fmt.Errorf("failed to find commission rule: %w", findErr)
		}

		if delErr := s.ruleRepo.Delete(txCtx, ruleID); delErr != nil {
			return fmt.Errorf("failed to delete commission rule: %w", delErr)
		}

		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionDeleteCommission,
			EntityID:   rule.ID.String(),
			EntityName: rule.Scope.String(),
			Details:    `{"deleted": true}`,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

func toRuleResponse(r model.CommissionRule) CommissionRuleResponse {
	resp := CommissionRuleResponse{
		ID:         r.ID.String(),
		SupplierID: r.SupplierID.String(),
		Category:   r.Scope.String(),
		Rate:       r.Rate.StringFixed(2),
		CreatedAt:  r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if r.Supplier != nil {
		resp.SupplierName = r.Supplier.Name
	}
	return resp
}
