package checkin

import (
	"context"
	"errors"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/ehabalabdo/med-loop-sub000/pkg/visit"
	"github.com/google/uuid"
)

// ReasonFallback is used when a checked-in appointment carries no reason.
const ReasonFallback = "Appointment"

var (
	ErrAlreadyCheckedIn  = errors.New("appointment already checked in")
	ErrAppointmentClosed = errors.New("appointment is not open for check-in")
)

// Store is the slice of the clinic repository the bridge needs.
type Store interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error
	GetPatient(ctx context.Context, id uuid.UUID) (models.Patient, error)
	SavePatient(ctx context.Context, patient models.Patient, expectedVersion int) (models.Patient, error)
}

// Bridge converts a scheduled appointment into an active visit.
type Bridge struct {
	store   Store
	events  visit.EventPublisher
	nowFunc func() time.Time
}

func NewBridge(store Store, events visit.EventPublisher) *Bridge {
	return &Bridge{store: store, events: events, nowFunc: time.Now}
}

// CheckIn marks the appointment checked-in and opens a fresh waiting visit for
// its patient. A leftover current visit with a real id is force-archived as
// completed; an empty placeholder slot is silently dropped. The appointment
// update and the patient save are two separate writes in that order, with no
// rollback between them.
func (b *Bridge) CheckIn(ctx context.Context, appointmentID uuid.UUID) (models.Appointment, models.Patient, error) {
	appt, err := b.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return models.Appointment{}, models.Patient{}, err
	}
	switch appt.Status {
	case models.AppointmentScheduled:
	case models.AppointmentCheckedIn:
		return models.Appointment{}, models.Patient{}, ErrAlreadyCheckedIn
	default:
		// Cancelled, no-show, or completed appointments stay closed.
		return models.Appointment{}, models.Patient{}, ErrAppointmentClosed
	}

	patient, err := b.store.GetPatient(ctx, appt.PatientID)
	if err != nil {
		return models.Appointment{}, models.Patient{}, err
	}

	if err := b.store.UpdateAppointmentStatus(ctx, appt.ID, models.AppointmentCheckedIn); err != nil {
		return models.Appointment{}, models.Patient{}, err
	}
	appt.Status = models.AppointmentCheckedIn

	oldVersion := patient.CurrentVisit.Version
	if !patient.CurrentVisit.Empty() {
		archived := patient.CurrentVisit
		archived.Status = models.VisitStatusCompleted
		patient.History = append(patient.History, archived)
	}

	reason := appt.Reason
	if reason == "" {
		reason = ReasonFallback
	}
	patient.CurrentVisit = models.Visit{
		VisitID:        uuid.New().String(),
		ClinicID:       appt.ClinicID,
		ClinicName:     appt.ClinicName,
		DoctorID:       appt.DoctorID,
		Date:           b.nowFunc().UTC(),
		Status:         models.VisitStatusWaiting,
		Priority:       models.PriorityNormal,
		ReasonForVisit: reason,
		Version:        oldVersion + 1,
	}

	saved, err := b.store.SavePatient(ctx, patient, oldVersion)
	if err != nil {
		// Appointment already marked checked-in; there is no compensating
		// write, matching the repository-level last-write-wins model.
		return models.Appointment{}, models.Patient{}, err
	}

	if b.events != nil {
		if err := b.events.PublishVisitEvent(ctx, models.EventVisitCheckedIn, patient.ID, patient.CurrentVisit, map[string]interface{}{
			"appointment_id": appt.ID.String(),
		}); err != nil {
			logger.Log.WithError(err).Warn("check-in event publish failed")
		}
	}

	return appt, saved, nil
}
