package handler

import (
	"net/http"

	"hwops-backend/internal/apperr"
	"hwops-backend/internal/middleware"
	"hwops-backend/internal/model"
	"hwops-backend/internal/service"
	"hwops-backend/pkg/pagination"
	"hwops-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	productService   service.ProductService
	inventoryService service.InventoryService
}

func NewInventoryHandler(productService service.ProductService, inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		productService:   productService,
		inventoryService: inventoryService,
	}
}

// RegisterRoutes binds the product catalog and stock ledger endpoints
func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleOffice, model.RoleDispatcher, model.RoleSales)
	writer := middleware.RequireRole(model.RoleAdmin, model.RoleOffice)

	products := router.Group("/products")
	{
		products.GET("", anyRole, h.ListProducts)
		products.GET("/:id", anyRole, h.GetProduct)
		products.GET("/:id/stocks", anyRole, h.GetProductStocks)
		products.GET("/:id/movements", anyRole, h.GetMovementHistory)
		products.POST("", writer, h.CreateProduct)
		products.PUT("/:id", writer, h.UpdateProduct)
		products.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteProduct)
	}

	router.POST("/movements", writer, h.RecordMovement)
}

// ListProducts handles GET /products
// @Summary      List products
// @Description  Retrieves a paginated product catalog, searchable by name or SKU
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search in name and SKU"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /products [get]
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)

	products, total, err := h.productService.ListProducts(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetProduct handles GET /products/:id
// @Summary      Get product by ID
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// GetProductStocks handles GET /products/:id/stocks
// @Summary      Get per-location stock balances
// @Description  Derives current balances from the movement ledger, one row per location
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductStocksResponse}
// @Failure      404  {object}  response.Response
// @Router       /products/{id}/stocks [get]
func (h *InventoryHandler) GetProductStocks(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondErr(c, apperr.Validation("invalid product id"))
		return
	}

	stocks, err := h.inventoryService.ProductStocks(c.Request.Context(), productID)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stocks))
}

// GetMovementHistory handles GET /products/:id/movements
// @Summary      Get movement history for a product
// @Description  Lists ledger records newest-first, optionally narrowed to one location
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      string  true   "Product ID"
// @Param        location_id  query     string  false  "Filter by location"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Router       /products/{id}/movements [get]
func (h *InventoryHandler) GetMovementHistory(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondErr(c, apperr.Validation("invalid product id"))
		return
	}

	var locationID *uuid.UUID
	if raw := c.Query("location_id"); raw != "" {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			respondErr(c, apperr.Validation("invalid location_id"))
			return
		}
		locationID = &id
	}

	params := pagination.Parse(c)
	movements, total, err := h.inventoryService.History(c.Request.Context(), productID, locationID, params.Page, params.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// CreateProduct handles POST /products
// @Summary      Create a product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct handles PUT /products/:id
// @Summary      Update a product
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      404      {object}  response.Response
// @Router       /products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct handles DELETE /products/:id
// @Summary      Delete a product
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [delete]
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.DeleteProduct(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}

// RecordMovement handles POST /movements
// @Summary      Record a stock movement
// @Description  Appends one record to the movement ledger, chaining the running balance. Movements that would drive a balance negative are rejected, except explicit adjustments.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.RecordMovementRequest  true  "Movement Payload"
// @Success      201      {object}  response.Response{data=service.MovementResponse}
// @Failure      422      {object}  response.Response
// @Router       /movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var req service.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.inventoryService.RecordMovement(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}
