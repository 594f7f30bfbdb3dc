package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt.
// Renders the PDF receipt for a sale (or for a return against a sale)
// and, when the client left an email, enqueues an email job with the
// PDF attached.

import (
	"context"
	"encoding/json"
	"fmt"

	"retailpos/internal/infra"
	"retailpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
// ReturnID is set when the receipt covers a return instead of a sale.
type ReceiptJobPayload struct {
	SaleID      string `json:"sale_id"`
	ReturnID    string `json:"return_id,omitempty"`
	ClientEmail string `json:"client_email,omitempty"`
}

// ReceiptWorker renders PDF receipts after the owning transaction has
// committed. It never mutates sale or stock state.
type ReceiptWorker struct {
	saleRepo       repository.SaleRepository
	returnRepo     repository.SaleReturnRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
}

func NewReceiptWorker(
	saleRepo repository.SaleRepository,
	returnRepo repository.SaleReturnRepository,
	dispatcher *Dispatcher,
	pdfStoragePath string,
) *ReceiptWorker {
	return &ReceiptWorker{
		saleRepo:       saleRepo,
		returnRepo:     returnRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single receipt job:
//  1. Parse ReceiptJobPayload from the job envelope
//  2. Fetch the sale (with items) from the DB
//  3. If ReturnID is set, fetch the return and render a return receipt,
//     otherwise render the sale receipt
//  4. Enqueue an email job when the client left an address
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return nil // malformed payloads are not retryable
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return nil
	}

	sale, err := w.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("receipt_worker: load sale %s: %w", payload.SaleID, err)
	}

	var pdfPath string
	if payload.ReturnID != "" {
		returnID, err := uuid.Parse(payload.ReturnID)
		if err != nil {
			log.Error().Str("return_id", payload.ReturnID).Msg("receipt_worker: invalid return_id")
			return nil
		}
		ret, err := w.returnRepo.FindByID(ctx, returnID)
		if err != nil {
			return fmt.Errorf("receipt_worker: load return %s: %w", payload.ReturnID, err)
		}
		pdfPath, err = infra.GenerateReturnReceiptPDF(sale, ret, w.pdfStoragePath)
		if err != nil {
			return fmt.Errorf("receipt_worker: render return receipt: %w", err)
		}
	} else {
		pdfPath, err = infra.GenerateReceiptPDF(sale, w.pdfStoragePath)
		if err != nil {
			return fmt.Errorf("receipt_worker: render receipt: %w", err)
		}
	}
	log.Info().Str("pdf", pdfPath).Str("sale_code", sale.Code).Msg("receipt_worker: PDF generated")

	if payload.ClientEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Your receipt — %s", sale.Code)
	body := fmt.Sprintf("Attached is your purchase receipt.\nTotal: $%s", sale.Total.StringFixed(2))
	if payload.ReturnID != "" {
		subject = fmt.Sprintf("Your return receipt — %s", sale.Code)
		body = "Attached is the receipt for your returned items."
	}
	emailJob := EmailJobPayload{
		ToEmail: payload.ClientEmail,
		Subject: subject,
		Body:    body,
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("email", payload.ClientEmail).Msg("receipt_worker: failed to enqueue email")
	} else {
		log.Info().Str("email", payload.ClientEmail).Msg("receipt_worker: email job enqueued")
	}
	return nil
}
