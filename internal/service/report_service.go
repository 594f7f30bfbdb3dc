package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"retailpos/internal/dto"
	"retailpos/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportService runs read-only aggregations over sales. Nothing here
// mutates state, so everything executes outside a transaction.
type ReportService interface {
	DailySales(ctx context.Context, filter dto.ReportFilter) (*dto.DailySalesReportResponse, error)
	// ExportSalesCSV renders the sales in the filter range as CSV text.
	ExportSalesCSV(ctx context.Context, filter dto.ReportFilter) (string, error)
}

type reportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) ReportService {
	return &reportService{db: db}
}

// normalizeRange defaults an empty range to today and swaps an inverted
// one, since BETWEEN with from > to would silently match nothing.
func normalizeRange(filter dto.ReportFilter) (string, string) {
	today := time.Now().Format("2006-01-02")
	from := filter.From
	to := filter.To
	if from == "" {
		from = today
	}
	if to == "" {
		to = today
	}
	if from > to {
		from, to = to, from
	}
	return from, to
}

func (s *reportService) DailySales(ctx context.Context, filter dto.ReportFilter) (*dto.DailySalesReportResponse, error) {
	from, to := normalizeRange(filter)

	type row struct {
		Date       time.Time
		BranchID   string
		Branch     string
		SaleCount  int64
		UnitsSold  int64
		NetTotal   decimal.Decimal
		TaxTotal   decimal.Decimal
		GrandTotal decimal.Decimal
	}

	q := s.db.WithContext(ctx).
		Table("sales").
		Select(`DATE(sales.created_at) AS date,
			sales.branch_id AS branch_id,
			branches.name AS branch,
			COUNT(sales.id) AS sale_count,
			COALESCE(SUM(items.units), 0) AS units_sold,
			COALESCE(SUM(sales.net), 0) AS net_total,
			COALESCE(SUM(sales.tax), 0) AS tax_total,
			COALESCE(SUM(sales.total), 0) AS grand_total`).
		Joins("JOIN branches ON branches.id = sales.branch_id").
		Joins(`LEFT JOIN (SELECT sale_id, SUM(quantity) AS units
			FROM sale_items GROUP BY sale_id) items ON items.sale_id = sales.id`).
		Where("sales.status = ?", model.SaleStatusCompleted).
		Where("DATE(sales.created_at) BETWEEN ? AND ?", from, to).
		Group("DATE(sales.created_at), sales.branch_id, branches.name").
		Order("date ASC, branch ASC")

	if filter.BranchID != "" {
		q = q.Where("sales.branch_id = ?", filter.BranchID)
	}

	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	resp := &dto.DailySalesReportResponse{From: from, To: to, Rows: make([]dto.DailySalesRow, 0, len(rows))}
	for _, r := range rows {
		resp.Rows = append(resp.Rows, dto.DailySalesRow{
			Date:       r.Date.Format("2006-01-02"),
			BranchID:   r.BranchID,
			Branch:     r.Branch,
			SaleCount:  r.SaleCount,
			UnitsSold:  r.UnitsSold,
			NetTotal:   r.NetTotal,
			TaxTotal:   r.TaxTotal,
			GrandTotal: r.GrandTotal,
		})
	}
	return resp, nil
}

func (s *reportService) ExportSalesCSV(ctx context.Context, filter dto.ReportFilter) (string, error) {
	from, to := normalizeRange(filter)

	var sales []model.Sale
	q := s.db.WithContext(ctx).
		Preload("Branch").
		Where("DATE(created_at) BETWEEN ? AND ?", from, to).
		Order("created_at ASC")
	if filter.BranchID != "" {
		q = q.Where("branch_id = ?", filter.BranchID)
	}
	if err := q.Find(&sales).Error; err != nil {
		return "", err
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"code", "date", "branch", "status", "net", "tax", "total", "amount_paid", "change"})
	for _, sale := range sales {
		branch := ""
		if sale.Branch != nil {
			branch = sale.Branch.Name
		}
		_ = w.Write([]string{
			sale.Code,
			sale.CreatedAt.Format("2006-01-02 15:04:05"),
			branch,
			sale.Status,
			sale.Net.StringFixed(2),
			sale.Tax.StringFixed(2),
			sale.Total.StringFixed(2),
			sale.AmountPaid.StringFixed(2),
			sale.Change.StringFixed(2),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("csv export: %w", err)
	}
	return sb.String(), nil
}
