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

type CommissionHandler struct {
	commissionService service.CommissionService
}

func NewCommissionHandler(commissionService service.CommissionService) *CommissionHandler {
	return &CommissionHandler{commissionService: commissionService}
}

// RegisterRoutes binds the commission settings endpoints
func (h *CommissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin)
	reader := middleware.RequireRole(model.RoleAdmin, model.RoleOffice, model.RoleSales)

	commissions := router.Group("/settings/commissions")
	{
		commissions.GET("", reader, h.ListRules)
		commissions.GET("/resolve", reader, h.Resolve)
		commissions.POST("", admin, h.AddRule)
		commissions.DELETE("/:id", admin, h.DeleteRule)
	}
}

// ListRules handles GET /settings/commissions
// @Summary      List commission rules
// @Tags         commissions
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /settings/commissions [get]
func (h *CommissionHandler) ListRules(c *gin.Context) {
	params := pagination.Parse(c)

	rules, total, err := h.commissionService.ListRules(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"rules": rules,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// Resolve handles GET /settings/commissions/resolve
// @Summary      Resolve the applicable commission rate
// @Description  Finds the rate for a (supplier, category) pair: the exact category rule wins over the supplier's ALL rule; with neither, the rate is zero.
// @Tags         commissions
// @Produce      json
// @Security     BearerAuth
// @Param        supplier_id  query     string  true   "Supplier ID"
// @Param        category     query     string  false  "Category name (omit for the ALL rule)"
// @Success      200          {object}  response.Response{data=service.ResolveResponse}
// @Failure      400          {object}  response.Response
// @Router       /settings/commissions/resolve [get]
func (h *CommissionHandler) Resolve(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Query("supplier_id"))
	if err != nil {
		respondErr(c, apperr.Validation("invalid supplier_id"))
		return
	}

	resolved, err := h.commissionService.Resolve(c.Request.Context(), supplierID, c.Query("category"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, resolved))
}

// AddRule handles POST /settings/commissions
// @Summary      Create a commission rule
// @Description  Creates a rule for an exact (supplier, category) pair. A conflicting rule is rejected, never overwritten.
// @Tags         commissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCommissionRuleRequest  true  "Create Rule Payload"
// @Success      201      {object}  response.Response{data=service.CommissionRuleResponse}
// @Failure      409      {object}  response.Response
// @Router       /settings/commissions [post]
func (h *CommissionHandler) AddRule(c *gin.Context) {
	var req service.CreateCommissionRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.commissionService.AddRule(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// DeleteRule handles DELETE /settings/commissions/:id
// @Summary      Delete a commission rule
// @Tags         commissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /settings/commissions/{id} [delete]
func (h *CommissionHandler) DeleteRule(c *gin.Context) {
	if err := h.commissionService.DeleteRule(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Commission rule deleted successfully"))
}
