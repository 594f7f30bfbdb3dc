package infra

// pdf.go — PDF receipt generation using go-pdf/fpdf.
// Generates A7-size thermal receipt-style documents with:
//   - Business name header
//   - Sale code and timestamp
//   - Item table (product name, quantity, subtotal)
//   - Bold total
//
// Output files are saved to storagePath/receipt_{code}.pdf and
// storagePath/return_{code}_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"retailpos/internal/model"

	"github.com/go-pdf/fpdf"
)

// newReceiptPage creates an A7-sized page with the common header.
// A7 ≈ 74mm × 105mm — close to thermal receipt paper (custom size, "A7"
// is not in fpdf's named list).
func newReceiptPage(subtitle string) (*fpdf.Fpdf, float64) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8 // total margins = 8mm

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "RetailPOS", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, subtitle, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	return pdf, contentW
}

func itemTableHeader(pdf *fpdf.Fpdf, contentW float64) (col1, col2, col3 float64) {
	col1 = contentW * 0.52 // product name
	col2 = contentW * 0.16 // qty
	col3 = contentW * 0.32 // subtotal

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")
	return col1, col2, col3
}

func truncateName(name string) string {
	if len(name) > 22 {
		return name[:21] + "…"
	}
	return name
}

// GenerateReceiptPDF generates a PDF receipt for a sale.
// storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GenerateReceiptPDF(sale *model.Sale, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("receipt_%s.pdf", sale.Code))

	pdf, contentW := newReceiptPage("Sales Receipt")
	pageW, _ := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, sale.Code, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1, col2, col3 := itemTableHeader(pdf, contentW)

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		pdf.CellFormat(col1, 5, truncateName(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 5, "Net:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "$"+sale.Net.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2, 5, "Tax:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 5, "$"+sale.Tax.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+sale.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 4, "Paid:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, "$"+sale.AmountPaid.StringFixed(2), "", 1, "R", false, 0, "")
	if !sale.Change.IsZero() {
		pdf.CellFormat(col1+col2, 4, "Change:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "$"+sale.Change.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you for your purchase!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}

// GenerateReturnReceiptPDF generates a PDF receipt for a return against a
// sale. Quantities are listed per returned line; amounts stay on the
// original receipt.
func GenerateReturnReceiptPDF(sale *model.Sale, ret *model.SaleReturn, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("return_%s_%s.pdf", sale.Code, ret.ID.String()[:8])
	filePath := filepath.Join(storagePath, fileName)

	pdf, contentW := newReceiptPage("Return Receipt")
	pageW, _ := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, "Sale "+sale.Code, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, ret.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if ret.Reason != nil && *ret.Reason != "" {
		pdf.CellFormat(contentW, 4, "Reason: "+*ret.Reason, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1, col2, col3 := itemTableHeader(pdf, contentW)

	// Unit prices come from the original sale lines.
	unitPrice := make(map[string]string, len(sale.Items))
	for _, item := range sale.Items {
		unitPrice[item.ProductID.String()] = item.UnitPrice.StringFixed(2)
	}

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range ret.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		pdf.CellFormat(col1, 5, truncateName(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+unitPrice[item.ProductID.String()], "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Items returned to stock.", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
