package service

import (
	"context"
	"encoding/json"
	"fmt"

	"hwops-backend/internal/apperr"
	"hwops-backend/internal/model"
	"hwops-backend/internal/repository"
	"hwops-backend/pkg/money"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateProductRequest struct {
	SKU        string `json:"sku" binding:"required"`
	Name       string `json:"name" binding:"required"`
	CategoryID string `json:"category_id"`
	BrandID    string `json:"brand_id"`
	SupplierID string `json:"supplier_id"`
	UnitPrice  string `json:"unit_price" binding:"required"` // display units, e.g. "199.99"
}

type UpdateProductRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
	BrandID    string `json:"brand_id"`
	SupplierID string `json:"supplier_id"`
	UnitPrice  string `json:"unit_price"`
}

type ProductResponse struct {
	ID           string `json:"id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	CategoryName string `json:"category_name,omitempty"`
	BrandName    string `json:"brand_name,omitempty"`
	SupplierName string `json:"supplier_name,omitempty"`
	UnitPrice    string `json:"unit_price"`
	CreatedAt    string `json:"created_at"`
}

// --- Interface ---

type ProductService interface {
	CreateProduct(ctx context.Context, actorID string, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, actorID, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, actorID, id string) error
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *productService) CreateProduct(ctx context.Context, actorID string, req CreateProductRequest) (ProductResponse, error) {
	price, err := money.FromString(req.UnitPrice)
	if err != nil {
		return ProductResponse{}, apperr.Validation("invalid unit_price %q", req.UnitPrice)
	}

	product := model.Product{
		SKU:       req.SKU,
		Name:      req.Name,
		UnitPrice: price,
	}
	if err := applyProductRefs(&product, req.CategoryID, req.BrandID, req.SupplierID); err != nil {
		return ProductResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, dupErr := s.productRepo.FindBySKU(txCtx, req.SKU); dupErr == nil {
			return apperr.Validation("sku %q already exists", req.SKU)
		} else if !repository.IsNotFound(dupErr) {
			return fmt.Errorf("failed to check sku: %w", dupErr)
		}

		if createErr := s.productRepo.Create(txCtx, &product); createErr != nil {
			return fmt.Errorf("failed to create product: %w", createErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionCreateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(&product), nil
}

func (s *productService) UpdateProduct(ctx context.Context, actorID, id string, req UpdateProductRequest) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, apperr.Validation("invalid product id")
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		product, findErr = s.productRepo.FindByID(txCtx, productID)
		if findErr != nil {
			if repository.IsNotFound(findErr) {
				return apperr.NotFound("product")
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}

		if req.Name != "" {
			product.Name = req.Name
		}
		if req.UnitPrice != "" {
			price, priceErr := money.FromString(req.UnitPrice)
			if priceErr != nil {
				return apperr.Validation("invalid unit_price %q", req.UnitPrice)
			}
			product.UnitPrice = price
		}
		if refErr := applyProductRefs(product, req.CategoryID, req.BrandID, req.SupplierID); refErr != nil {
			return refErr
		}

		if updateErr := s.productRepo.Update(txCtx, product); updateErr != nil {
			return fmt.Errorf("failed to update product: %w", updateErr)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionUpdateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(product), nil
}

func (s *productService) DeleteProduct(ctx context.Context, actorID, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid product id")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.productRepo.FindByID(txCtx, productID)
		if findErr != nil {
			if repository.IsNotFound(findErr) {
				return apperr.NotFound("product")
			}
			return fmt.Errorf("failed to find product: %w", findErr)
		}

		if delErr := s.productRepo.Delete(txCtx, productID); delErr != nil {
			return fmt.Errorf("failed to delete product: %w", delErr)
		}

		audit := &model.AuditLog{
			UserID:     parseActor(actorID),
			Action:     model.ActionDeleteProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    `{"deleted": true}`,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

func (s *productService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, apperr.Validation("invalid product id")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ProductResponse{}, apperr.NotFound("product")
		}
		return ProductResponse{}, fmt.Errorf("failed to find product: %w", err)
	}
	return toProductResponse(product), nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}

// applyProductRefs parses the optional reference ids onto the product. Empty
// strings leave the existing references untouched.
func applyProductRefs(p *model.Product, categoryID, brandID, supplierID string) error {
	if categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return apperr.Validation("invalid category_id")
		}
		p.CategoryID = &id
	}
	if brandID != "" {
		id, err := uuid.Parse(brandID)
		if err != nil {
			return apperr.Validation("invalid brand_id")
		}
		p.BrandID = &id
	}
	if supplierID != "" {
		id, err := uuid.Parse(supplierID)
		if err != nil {
			return apperr.Validation("invalid supplier_id")
		}
		p.SupplierID = &id
	}
	return nil
}

func toProductResponse(p *model.Product) ProductResponse {
	resp := ProductResponse{
		ID:        p.ID.String(),
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice.String(),
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.Category != nil {
		resp.CategoryName = p.Category.Name
	}
	if p.Brand != nil {
		resp.BrandName = p.Brand.Name
	}
	if p.Supplier != nil {
		resp.SupplierName = p.Supplier.Name
	}
	return resp
}
