package handler

import (
	"net/http"

	"hwops-backend/internal/middleware"
	"hwops-backend/internal/model"
	"hwops-backend/internal/service"
	"hwops-backend/pkg/pagination"
	"hwops-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DispatchHandler struct {
	dispatchService service.DispatchService
}

func NewDispatchHandler(dispatchService service.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatchService: dispatchService}
}

// RegisterRoutes binds the loading sheet endpoints to the gin RouterGroup
func (h *DispatchHandler) RegisterRoutes(router *gin.RouterGroup) {
	loads := router.Group("/loads")
	{
		loads.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleOffice, model.RoleDispatcher), h.ListLoads)
		loads.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleOffice, model.RoleDispatcher), h.GetLoad)
		loads.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleDispatcher), h.CreateLoad)
		loads.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleDispatcher), h.UpdateLoad)
		loads.DELETE("/:id/orders/:orderId", middleware.RequireRole(model.RoleAdmin, model.RoleDispatcher), h.RemoveOrder)
	}
}

// CreateLoad handles POST /loads
// @Summary      Create a loading sheet
// @Description  Atomically claims the given orders into a new loading sheet, snapshotting each order's value. One ineligible order aborts the whole creation.
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateLoadRequest  true  "Create Load Payload"
// @Success      201      {object}  response.Response{data=service.LoadingSheetResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /loads [post]
func (h *DispatchHandler) CreateLoad(c *gin.Context) {
	var req service.CreateLoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sheet, err := h.dispatchService.CreateLoad(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sheet))
}

// ListLoads handles GET /loads with optional status filter
// @Summary      List loading sheets
// @Description  Retrieves a paginated list of loading sheets
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by sheet status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /loads [get]
func (h *DispatchHandler) ListLoads(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	sheets, total, err := h.dispatchService.ListLoads(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"loads": sheets,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetLoad handles GET /loads/:id
// @Summary      Get loading sheet by ID
// @Description  Fetch a single loading sheet with entries and reconciliation summary
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Loading Sheet ID"
// @Success      200  {object}  response.Response{data=service.LoadingSheetResponse}
// @Failure      404  {object}  response.Response
// @Router       /loads/{id} [get]
func (h *DispatchHandler) GetLoad(c *gin.Context) {
	sheet, err := h.dispatchService.GetLoad(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sheet))
}

// UpdateLoad handles PUT /loads/:id
// @Summary      Update a loading sheet
// @Description  Updates vehicle/crew details or completes the sheet. Completion requires every bound order to be delivered or cancelled. Completed sheets only accept changes flagged as admin corrections.
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Loading Sheet ID"
// @Param        payload  body      service.UpdateLoadRequest  true  "Update Load Payload"
// @Success      200      {object}  response.Response{data=service.LoadingSheetResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /loads/{id} [put]
func (h *DispatchHandler) UpdateLoad(c *gin.Context) {
	var req service.UpdateLoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sheet, err := h.dispatchService.UpdateLoad(c.Request.Context(), actorID(c), actorRole(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sheet))
}

// RemoveOrder handles DELETE /loads/:id/orders/:orderId
// @Summary      Remove an order from a loading sheet
// @Description  Unbinds an order from an open sheet and reverts it to CHECKING
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Loading Sheet ID"
// @Param        orderId  path      string  true  "Order ID"
// @Success      200      {object}  response.Response{data=service.LoadingSheetResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /loads/{id}/orders/{orderId} [delete]
func (h *DispatchHandler) RemoveOrder(c *gin.Context) {
	sheet, err := h.dispatchService.RemoveOrderFromLoad(c.Request.Context(), actorID(c), c.Param("id"), c.Param("orderId"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sheet))
}
