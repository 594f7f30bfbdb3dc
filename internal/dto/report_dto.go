package dto

import "github.com/shopspring/decimal"

// ── Filters ───────────────────────────────────────────────────────────────────

// ReportFilter bounds aggregation queries to a date range and optional branch.
type ReportFilter struct {
	From     string `form:"from"      validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"to"        validate:"omitempty,datetime=2006-01-02"`
	BranchID string `form:"branch_id" validate:"omitempty,uuid"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// DailySalesRow is one row of the daily sales summary report.
type DailySalesRow struct {
	Date       string          `json:"date"`
	BranchID   string          `json:"branch_id"`
	Branch     string          `json:"branch"`
	SaleCount  int64           `json:"sale_count"`
	UnitsSold  int64           `json:"units_sold"`
	NetTotal   decimal.Decimal `json:"net_total"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type DailySalesReportResponse struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rows []DailySalesRow `json:"rows"`
}
