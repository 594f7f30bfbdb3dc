package handler

import (
	"net/http"

	"retailpos/internal/apierror"
	"retailpos/internal/dto"
	"retailpos/internal/middleware"
	"retailpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Register godoc
// @Summary      Register a new sale
// @Description  Creates a sale atomically: decrements stock, records stock movements, and dispatches async receipt generation.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegisterSaleRequest true "Sale detail"
// @Success      201  {object} dto.SaleResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) Register(c *gin.Context) {
	var req dto.RegisterSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	sellerID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.RegisterSale(c.Request.Context(), sellerID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Get a sale by ID
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      200 {object} dto.SaleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List sales
// @Description  Returns a paginated list of sales filtered by date, status, and branch.
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        date      query string false "Date YYYY-MM-DD (default: today)"
// @Param        status    query string false "pending | completed | cancelled | all"
// @Param        branch_id query string false "Branch UUID"
// @Param        page      query int    false "Page (default 1)"
// @Param        limit     query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.SaleListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list sales"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
