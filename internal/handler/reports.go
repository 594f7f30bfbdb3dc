package handler

import (
	"net/http"

	"retailpos/internal/apierror"
	"retailpos/internal/dto"
	"retailpos/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// DailySales godoc
// @Summary      Daily sales summary
// @Description  Aggregates completed sales per day and branch over a date range (default: today).
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from      query string false "Start date YYYY-MM-DD"
// @Param        to        query string false "End date YYYY-MM-DD"
// @Param        branch_id query string false "Branch UUID"
// @Success      200 {object} dto.DailySalesReportResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/reports/daily-sales [get]
func (h *ReportsHandler) DailySales(c *gin.Context) {
	filter, ok := bindReportFilter(c)
	if !ok {
		return
	}
	resp, err := h.svc.DailySales(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to build report"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportSales godoc
// @Summary      Export sales as CSV
// @Tags         reports
// @Produce      text/csv
// @Security     BearerAuth
// @Param        from      query string false "Start date YYYY-MM-DD"
// @Param        to        query string false "End date YYYY-MM-DD"
// @Param        branch_id query string false "Branch UUID"
// @Success      200 {string} string "CSV body"
// @Failure      400 {object} apierror.APIError
// @Router       /v1/reports/sales.csv [get]
func (h *ReportsHandler) ExportSales(c *gin.Context) {
	filter, ok := bindReportFilter(c)
	if !ok {
		return
	}
	csvBody, err := h.svc.ExportSalesCSV(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to export sales"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="sales.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(csvBody))
}

func bindReportFilter(c *gin.Context) (dto.ReportFilter, bool) {
	var filter dto.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return filter, false
	}
	if err := validate.Struct(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid date range"))
		return filter, false
	}
	return filter, true
}
