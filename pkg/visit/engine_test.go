package visit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/clinic"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
)

func init() {
	logger.Init()
}

type fakeStore struct {
	patients  map[uuid.UUID]models.Patient
	invoices  []models.Invoice
	saveCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{patients: make(map[uuid.UUID]models.Patient)}
}

func (f *fakeStore) GetPatient(ctx context.Context, id uuid.UUID) (models.Patient, error) {
	patient, ok := f.patients[id]
	if !ok {
		return models.Patient{}, clinic.ErrPatientNotFound
	}
	return patient, nil
}

func (f *fakeStore) CreatePatient(ctx context.Context, patient models.Patient) (models.Patient, error) {
	f.patients[patient.ID] = patient
	return patient, nil
}

func (f *fakeStore) SavePatient(ctx context.Context, patient models.Patient, expectedVersion int) (models.Patient, error) {
	existing, ok := f.patients[patient.ID]
	if !ok {
		return models.Patient{}, clinic.ErrPatientNotFound
	}
	if existing.CurrentVisit.Version != expectedVersion {
		return models.Patient{}, clinic.ErrVersionConflict
	}
	f.saveCalls++
	f.patients[patient.ID] = patient
	return patient, nil
}

func (f *fakeStore) CreateInvoice(ctx context.Context, invoice models.Invoice) (models.Invoice, error) {
	f.invoices = append(f.invoices, invoice)
	return invoice, nil
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) PublishVisitEvent(ctx context.Context, eventType string, patientID uuid.UUID, v models.Visit, data map[string]interface{}) error {
	f.events = append(f.events, eventType)
	return nil
}

func seedPatient(store *fakeStore, status, priority string) models.Patient {
	patient := models.Patient{
		ID:   uuid.New(),
		Name: "Test Patient",
		CurrentVisit: models.Visit{
			VisitID:        uuid.New().String(),
			ClinicID:       "c1",
			Date:           time.Now().UTC(),
			Status:         status,
			Priority:       priority,
			ReasonForVisit: "Checkup",
			Version:        1,
		},
	}
	store.patients[patient.ID] = patient
	return patient
}

func TestTransitionClaimsWaitingVisit(t *testing.T) {
	store := newFakeStore()
	events := &fakePublisher{}
	engine := NewEngine(store, events, 50)
	patient := seedPatient(store, models.VisitStatusWaiting, models.PriorityUrgent)

	updated, err := engine.Transition(context.Background(), patient.ID, models.VisitStatusInProgress, models.VisitUpdate{}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.CurrentVisit.Status != models.VisitStatusInProgress {
		t.Fatalf("expected in-progress, got %s", updated.CurrentVisit.Status)
	}
	if updated.CurrentVisit.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.CurrentVisit.Version)
	}
	if len(events.events) != 1 || events.events[0] != models.EventVisitInProgress {
		t.Fatalf("expected one in-progress event, got %v", events.events)
	}
}

func TestTransitionRejectsUnknownEdge(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)
	patient := seedPatient(store, models.VisitStatusInProgress, models.PriorityNormal)

	_, err := engine.Transition(context.Background(), patient.ID, models.VisitStatusWaiting, models.VisitUpdate{}, 1)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatalf("rejected transition must not save, got %d saves", store.saveCalls)
	}
}

func TestTransitionOutOfCompletedRejected(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)
	patient := seedPatient(store, models.VisitStatusCompleted, models.PriorityNormal)

	_, err := engine.Transition(context.Background(), patient.ID, models.VisitStatusInProgress, models.VisitUpdate{}, 1)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)
	patient := seedPatient(store, models.VisitStatusWaiting, models.PriorityNormal)

	updated, err := engine.Transition(context.Background(), patient.ID, models.VisitStatusWaiting, models.VisitUpdate{}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.CurrentVisit.Version != 1 {
		t.Fatalf("no-op must not bump the version, got %d", updated.CurrentVisit.Version)
	}
	if store.saveCalls != 0 {
		t.Fatalf("no-op must not save, got %d saves", store.saveCalls)
	}
}

func TestTransitionSameStatusMergesDocumentation(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)
	patient := seedPatient(store, models.VisitStatusInProgress, models.PriorityNormal)

	updated, err := engine.Transition(context.Background(), patient.ID, models.VisitStatusInProgress,
		models.VisitUpdate{Diagnosis: "acute sinusitis", Notes: "follow up in two weeks"}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.CurrentVisit.Diagnosis != "acute sinusitis" {
		t.Fatalf("expected merged diagnosis, got %q", updated.CurrentVisit.Diagnosis)
	}
	if updated.CurrentVisit.Version != 2 {
		t.Fatalf("documentation save must bump the version, got %d", updated.CurrentVisit.Version)
	}
}

func TestCompletionCreatesDefaultInvoice(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)
	patient := seedPatient(store, models.VisitStatusInProgress, models.PriorityNormal)
	visitID := patient.CurrentVisit.VisitID

	updated, err := engine.Transition(context.Background(), patient.ID, models.VisitStatusCompleted, models.VisitUpdate{}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.CurrentVisit.Empty() {
		t.Fatalf("completion must clear the current slot, got %+v", updated.CurrentVisit)
	}
	if len(updated.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(updated.History))
	}
	archived := updated.History[0]
	if archived.VisitID != visitID || archived.Status != models.VisitStatusCompleted {
		t.Fatalf("unexpected archived visit: %+v", archived)
	}

	if len(store.invoices) != 1 {
		t.Fatalf("expected exactly one invoice, got %d", len(store.invoices))
	}
	invoice := store.invoices[0]
	if len(invoice.Items) != 1 || invoice.Items[0].Name != DefaultConsultationItem {
		t.Fatalf("expected default consultation item, got %+v", invoice.Items)
	}
	if invoice.TotalAmount != 50 || invoice.PaidAmount != 0 || invoice.Status != models.InvoiceUnpaid {
		t.Fatalf("unexpected invoice: %+v", invoice)
	}
	if invoice.VisitID != visitID {
		t.Fatalf("invoice must reference the completed visit")
	}
}

func TestCompletionSumsSelectedItems(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)
	patient := seedPatient(store, models.VisitStatusWaiting, models.PriorityNormal)

	items := []models.InvoiceItem{
		{Name: "X-Ray", Price: 120},
		{Name: "Crown Fitting", Price: 380},
	}
	_, err := engine.Transition(context.Background(), patient.ID, models.VisitStatusCompleted,
		models.VisitUpdate{InvoiceItems: items}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.invoices) != 1 {
		t.Fatalf("expected one invoice, got %d", len(store.invoices))
	}
	if store.invoices[0].TotalAmount != 500 {
		t.Fatalf("expected total 500, got %v", store.invoices[0].TotalAmount)
	}
	if len(store.invoices[0].Items) != 2 {
		t.Fatalf("selected items must not be replaced by the default")
	}
}

func TestTransitionVersionConflict(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)
	patient := seedPatient(store, models.VisitStatusWaiting, models.PriorityNormal)

	_, err := engine.Transition(context.Background(), patient.ID, models.VisitStatusInProgress, models.VisitUpdate{}, 7)
	if !errors.Is(err, clinic.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestTransitionUnknownPatient(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)

	_, err := engine.Transition(context.Background(), uuid.New(), models.VisitStatusInProgress, models.VisitUpdate{}, 0)
	if !errors.Is(err, clinic.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestHistoryOnlyHoldsCompletedVisits(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)
	patient := seedPatient(store, models.VisitStatusWaiting, models.PriorityNormal)

	updated, err := engine.Transition(context.Background(), patient.ID, models.VisitStatusCompleted, models.VisitUpdate{}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, archived := range updated.History {
		if archived.Status != models.VisitStatusCompleted {
			t.Fatalf("history entry with status %s", archived.Status)
		}
	}
}

func TestIntakeOpensWaitingVisit(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)

	patient, err := engine.Intake(context.Background(), models.IntakeRequest{
		Name:     "Walk In",
		ClinicID: "c1",
		Priority: models.PriorityUrgent,
		Reason:   "Toothache",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := patient.CurrentVisit
	if v.Empty() || v.Status != models.VisitStatusWaiting || v.Priority != models.PriorityUrgent {
		t.Fatalf("unexpected intake visit: %+v", v)
	}
}

func TestIntakeRejectsSecondActiveVisit(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil, 50)
	patient := seedPatient(store, models.VisitStatusWaiting, models.PriorityNormal)

	_, err := engine.Intake(context.Background(), models.IntakeRequest{
		PatientID: &patient.ID,
		ClinicID:  "c1",
	})
	if !errors.Is(err, ErrVisitActive) {
		t.Fatalf("expected ErrVisitActive, got %v", err)
	}
}
