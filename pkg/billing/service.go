package billing

import (
	"context"
	"errors"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
)

var ErrInvalidPayment = errors.New("payment amount must be positive")

// Store is the invoice slice of the clinic repository. Invoices are only ever
// created by the transition engine's completion cascade; this service reads
// and settles them.
type Store interface {
	GetInvoice(ctx context.Context, id uuid.UUID) (models.Invoice, error)
	ListInvoicesByPatient(ctx context.Context, patientID uuid.UUID) ([]models.Invoice, error)
	UpdateInvoicePayment(ctx context.Context, id uuid.UUID, paidAmount float64, status string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]models.Invoice, error) {
	return s.store.ListInvoicesByPatient(ctx, patientID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

// RecordPayment adds amount to the invoice's paid total and flips the status
// to paid once the total is covered. Overpayment is accepted and recorded.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount float64) (models.Invoice, error) {
	if amount <= 0 {
		return models.Invoice{}, ErrInvalidPayment
	}
	invoice, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return models.Invoice{}, err
	}

	invoice.PaidAmount += amount
	if invoice.PaidAmount >= invoice.TotalAmount {
		invoice.Status = models.InvoicePaid
	}
	if err := s.store.UpdateInvoicePayment(ctx, id, invoice.PaidAmount, invoice.Status); err != nil {
		return models.Invoice{}, err
	}
	return invoice, nil
}
