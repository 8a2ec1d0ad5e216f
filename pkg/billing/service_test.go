package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/ehabalabdo/med-loop-sub000/pkg/clinic"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
)

type fakeStore struct {
	invoices map[uuid.UUID]models.Invoice
}

func newFakeStore() *fakeStore {
	return &fakeStore{invoices: make(map[uuid.UUID]models.Invoice)}
}

func (f *fakeStore) GetInvoice(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	invoice, ok := f.invoices[id]
	if !ok {
		return models.Invoice{}, clinic.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (f *fakeStore) ListInvoicesByPatient(ctx context.Context, patientID uuid.UUID) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, invoice := range f.invoices {
		if invoice.PatientID == patientID {
			out = append(out, invoice)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateInvoicePayment(ctx context.Context, id uuid.UUID, paidAmount float64, status string) error {
	invoice, ok := f.invoices[id]
	if !ok {
		return clinic.ErrInvoiceNotFound
	}
	invoice.PaidAmount = paidAmount
	invoice.Status = status
	f.invoices[id] = invoice
	return nil
}

func seedInvoice(store *fakeStore, total float64) models.Invoice {
	invoice := models.Invoice{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		TotalAmount: total,
		Status:      models.InvoiceUnpaid,
	}
	store.invoices[invoice.ID] = invoice
	return invoice
}

func TestRecordPaymentPartial(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)
	invoice := seedInvoice(store, 100)

	updated, err := service.RecordPayment(context.Background(), invoice.ID, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PaidAmount != 40 || updated.Status != models.InvoiceUnpaid {
		t.Fatalf("unexpected invoice after partial payment: %+v", updated)
	}
}

func TestRecordPaymentSettles(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)
	invoice := seedInvoice(store, 100)

	if _, err := service.RecordPayment(context.Background(), invoice.ID, 40); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	updated, err := service.RecordPayment(context.Background(), invoice.ID, 60)
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if updated.PaidAmount != 100 || updated.Status != models.InvoicePaid {
		t.Fatalf("expected a settled invoice, got %+v", updated)
	}
}

func TestRecordPaymentAcceptsOverpayment(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)
	invoice := seedInvoice(store, 50)

	updated, err := service.RecordPayment(context.Background(), invoice.ID, 80)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.PaidAmount != 80 || updated.Status != models.InvoicePaid {
		t.Fatalf("overpayment must be recorded as-is, got %+v", updated)
	}
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)
	invoice := seedInvoice(store, 50)

	for _, amount := range []float64{0, -5} {
		if _, err := service.RecordPayment(context.Background(), invoice.ID, amount); !errors.Is(err, ErrInvalidPayment) {
			t.Fatalf("amount %v: expected ErrInvalidPayment, got %v", amount, err)
		}
	}
}

func TestRecordPaymentUnknownInvoice(t *testing.T) {
	store := newFakeStore()
	service := NewService(store)

	_, err := service.RecordPayment(context.Background(), uuid.New(), 10)
	if !errors.Is(err, clinic.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}
