package checkin

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
	appointments map[uuid.UUID]models.Appointment
	patients     map[uuid.UUID]models.Patient
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		appointments: make(map[uuid.UUID]models.Appointment),
		patients:     make(map[uuid.UUID]models.Patient),
	}
}

func (f *fakeStore) GetAppointment(ctx context.Context, id uuid.UUID) (models.Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok {
		return models.Appointment{}, clinic.ErrAppointmentNotFound
	}
	return appt, nil
}

func (f *fakeStore) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error {
	appt, ok := f.appointments[id]
	if !ok {
		return clinic.ErrAppointmentNotFound
	}
	appt.Status = status
	f.appointments[id] = appt
	return nil
}

func (f *fakeStore) GetPatient(ctx context.Context, id uuid.UUID) (models.Patient, error) {
	patient, ok := f.patients[id]
	if !ok {
		return models.Patient{}, clinic.ErrPatientNotFound
	}
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
	f.patients[patient.ID] = patient
	return patient, nil
}

func seed(store *fakeStore, current models.Visit, reason string) (models.Appointment, models.Patient) {
	patient := models.Patient{ID: uuid.New(), Name: "Booked Patient", CurrentVisit: current}
	appt := models.Appointment{
		ID:        uuid.New(),
		PatientID: patient.ID,
		ClinicID:  "c1",
		DoctorID:  "d1",
		Date:      time.Now().UTC().Add(time.Hour),
		Reason:    reason,
		Status:    models.AppointmentScheduled,
	}
	store.patients[patient.ID] = patient
	store.appointments[appt.ID] = appt
	return appt, patient
}

func TestCheckInOpensWaitingVisit(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(store, nil)
	appt, _ := seed(store, models.Visit{Version: 2}, "Cleaning")

	gotAppt, gotPatient, err := bridge.CheckIn(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAppt.Status != models.AppointmentCheckedIn {
		t.Fatalf("expected checked-in appointment, got %s", gotAppt.Status)
	}
	v := gotPatient.CurrentVisit
	if v.Status != models.VisitStatusWaiting || v.Priority != models.PriorityNormal {
		t.Fatalf("unexpected opened visit: %+v", v)
	}
	if v.ReasonForVisit != "Cleaning" {
		t.Fatalf("expected the appointment reason, got %q", v.ReasonForVisit)
	}
	if v.Version != 3 {
		t.Fatalf("expected version 3, got %d", v.Version)
	}
}

func TestCheckInDropsEmptyPlaceholderSilently(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(store, nil)
	appt, _ := seed(store, models.Visit{Version: 4}, "")

	_, gotPatient, err := bridge.CheckIn(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotPatient.History) != 0 {
		t.Fatalf("placeholder slot must not be archived, got %d history entries", len(gotPatient.History))
	}
	if gotPatient.CurrentVisit.ReasonForVisit != ReasonFallback {
		t.Fatalf("expected reason fallback, got %q", gotPatient.CurrentVisit.ReasonForVisit)
	}
}

func TestCheckInForceArchivesLeftoverVisit(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(store, nil)
	leftover := models.Visit{
		VisitID:  uuid.New().String(),
		ClinicID: "c1",
		Status:   models.VisitStatusInProgress,
		Priority: models.PriorityNormal,
		Version:  5,
	}
	appt, _ := seed(store, leftover, "Follow-up")

	_, gotPatient, err := bridge.CheckIn(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotPatient.History) != 1 {
		t.Fatalf("expected the leftover visit archived, got %d entries", len(gotPatient.History))
	}
	archived := gotPatient.History[0]
	if archived.VisitID != leftover.VisitID || archived.Status != models.VisitStatusCompleted {
		t.Fatalf("leftover must be archived as completed, got %+v", archived)
	}
	if gotPatient.CurrentVisit.VisitID == leftover.VisitID {
		t.Fatal("check-in must open a fresh visit")
	}
	if gotPatient.CurrentVisit.Version != 6 {
		t.Fatalf("expected version 6, got %d", gotPatient.CurrentVisit.Version)
	}
}

func TestCheckInRejectsRepeat(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(store, nil)
	appt, _ := seed(store, models.Visit{}, "Cleaning")

	if _, _, err := bridge.CheckIn(context.Background(), appt.ID); err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}
	_, _, err := bridge.CheckIn(context.Background(), appt.ID)
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}
}

func TestCheckInRejectsClosedAppointments(t *testing.T) {
	for _, status := range []string{models.AppointmentCancelled, models.AppointmentNoShow, models.AppointmentCompleted} {
		store := newFakeStore()
		bridge := NewBridge(store, nil)
		appt, patient := seed(store, models.Visit{}, "Cleaning")
		appt.Status = status
		store.appointments[appt.ID] = appt

		_, _, err := bridge.CheckIn(context.Background(), appt.ID)
		if !errors.Is(err, ErrAppointmentClosed) {
			t.Fatalf("status %s: expected ErrAppointmentClosed, got %v", status, err)
		}
		if got := store.patients[patient.ID]; !got.CurrentVisit.Empty() {
			t.Fatalf("status %s: closed appointment must not open a visit, got %+v", status, got.CurrentVisit)
		}
	}
}

func TestCheckInUnknownAppointment(t *testing.T) {
	store := newFakeStore()
	bridge := NewBridge(store, nil)

	_, _, err := bridge.CheckIn(context.Background(), uuid.New())
	if !errors.Is(err, clinic.ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}
