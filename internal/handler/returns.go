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

type ReturnsHandler struct{ svc service.ReturnService }

func NewReturnsHandler(svc service.ReturnService) *ReturnsHandler {
	return &ReturnsHandler{svc: svc}
}

// Record godoc
// @Summary      Record a return against a sale
// @Description  Validates every requested line against the quantities sold minus quantities already returned, then atomically creates the return, restores stock, and cancels the sale once fully returned. All-or-nothing: one bad line rejects the whole request. Not idempotent — resubmitting creates a second return.
// @Tags         returns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "Sale UUID"
// @Param        body body dto.RecordReturnRequest true "Returned lines and optional reason"
// @Success      201  {object} dto.ReturnResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/sales/{id}/returns [post]
func (h *ReturnsHandler) Record(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.RecordReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var actorID *uuid.UUID
	if claims := middleware.GetClaims(c); claims != nil {
		if uid, err := uuid.Parse(claims.UserID); err == nil {
			actorID = &uid
		}
	}

	resp, err := h.svc.RecordReturn(c.Request.Context(), saleID, actorID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListBySale godoc
// @Summary      List returns recorded against a sale
// @Tags         returns
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      200 {array} dto.ReturnResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id}/returns [get]
func (h *ReturnsHandler) ListBySale(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.ListBySale(c.Request.Context(), saleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
