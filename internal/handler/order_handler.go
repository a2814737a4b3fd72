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

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes binds the order endpoints to the gin RouterGroup
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleOffice, model.RoleDispatcher, model.RoleSales), h.ListOrders)
		orders.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleOffice, model.RoleDispatcher, model.RoleSales), h.GetOrder)
		orders.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleOffice, model.RoleSales), h.CreateOrder)
		orders.POST("/:id/transition", middleware.RequireRole(model.RoleAdmin, model.RoleOffice, model.RoleDispatcher), h.Transition)
		orders.PUT("/:id/items", middleware.RequireRole(model.RoleAdmin, model.RoleOffice), h.EditItems)
		orders.PUT("/:id/payment", middleware.RequireRole(model.RoleAdmin, model.RoleOffice), h.SetPaymentStatus)
	}
}

// CreateOrder handles POST /orders
// @Summary      Create a new order
// @Description  Creates an order in PENDING status with its line items
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders handles GET /orders with optional status filter
// @Summary      List orders
// @Description  Retrieves a paginated list of orders, optionally filtered by status
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by order status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	status := c.Query("status")

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), status, params.Page, params.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// GetOrder handles GET /orders/:id
// @Summary      Get order by ID
// @Description  Fetch a single order with items and allowed next statuses
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Transition handles POST /orders/:id/transition
// @Summary      Transition order status
// @Description  Moves an order one step forward in the fulfillment chain, or cancels it. Side effects (invoice assignment, stock movements) happen atomically with the change.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Order ID"
// @Param        payload  body      service.TransitionRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /orders/{id}/transition [post]
func (h *OrderHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Transition(c.Request.Context(), actorID(c), c.Param("id"), req.Status)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// EditItems handles PUT /orders/:id/items
// @Summary      Replace order line items
// @Description  Replaces the order's line items and re-derives totals. Rejected once the order has left CHECKING.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Order ID"
// @Param        payload  body      service.EditItemsRequest  true  "New line items"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /orders/{id}/items [put]
func (h *OrderHandler) EditItems(c *gin.Context) {
	var req service.EditItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.EditItems(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// SetPaymentStatus handles PUT /orders/:id/payment
// @Summary      Set order payment status
// @Description  Updates the payment status independently of fulfillment status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Order ID"
// @Param        payload  body      service.SetPaymentStatusRequest  true  "New payment status"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /orders/{id}/payment [put]
func (h *OrderHandler) SetPaymentStatus(c *gin.Context) {
	var req service.SetPaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.SetPaymentStatus(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
