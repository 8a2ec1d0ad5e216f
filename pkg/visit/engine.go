package visit

import (
	"context"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
)

// DefaultConsultationItem is the line item synthesized when a visit is
// completed without any billing selection.
const DefaultConsultationItem = "Medical Consultation"

// Store is the narrow slice of the clinic repository the engine needs.
type Store interface {
	GetPatient(ctx context.Context, id uuid.UUID) (models.Patient, error)
	CreatePatient(ctx context.Context, patient models.Patient) (models.Patient, error)
	SavePatient(ctx context.Context, patient models.Patient, expectedVersion int) (models.Patient, error)
	CreateInvoice(ctx context.Context, invoice models.Invoice) (models.Invoice, error)
}

// EventPublisher pushes visit events onto the bus. Publishing is best effort:
// a bus outage never fails a transition.
type EventPublisher interface {
	PublishVisitEvent(ctx context.Context, eventType string, patientID uuid.UUID, visit models.Visit, data map[string]interface{}) error
}

// transitions is the allowed (from -> to) table. A target equal to the current
// status is always allowed and means a documentation re-save, not a move.
var transitions = map[string]map[string]bool{
	models.VisitStatusWaiting: {
		models.VisitStatusInProgress: true,
		models.VisitStatusCompleted:  true, // rare direct completion, skips in-progress
	},
	models.VisitStatusInProgress: {
		models.VisitStatusCompleted: true,
	},
}

type Engine struct {
	store             Store
	events            EventPublisher
	consultationPrice float64
	nowFunc           func() time.Time
}

func NewEngine(store Store, events EventPublisher, consultationPrice float64) *Engine {
	return &Engine{
		store:             store,
		events:            events,
		consultationPrice: consultationPrice,
		nowFunc:           time.Now,
	}
}

// Transition moves the patient's current visit to target, merging the update
// into the visit record first. expectedVersion is the visit version the caller
// last read; a mismatch fails with clinic.ErrVersionConflict via the store.
//
// Completing a visit archives it into history, clears the current slot, and
// creates the invoice. The patient save and the invoice create are two
// separate writes with no rollback: a crash between them leaves a completed
// visit without an invoice.
func (e *Engine) Transition(ctx context.Context, patientID uuid.UUID, target string, update models.VisitUpdate, expectedVersion int) (models.Patient, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return models.Patient{}, err
	}

	current := patient.CurrentVisit
	if current.Empty() {
		return models.Patient{}, ErrNoActiveVisit
	}

	sameStatus := target == current.Status
	if !sameStatus && !transitions[current.Status][target] {
		return models.Patient{}, ErrInvalidTransition
	}

	// Re-saving the same state with nothing to merge is a pure no-op.
	if sameStatus && updateIsEmpty(update) {
		return patient, nil
	}

	merged := mergeUpdate(current, update)
	merged.Status = target
	merged.Version = current.Version + 1

	completing := target == models.VisitStatusCompleted && !sameStatus
	if completing {
		if len(merged.InvoiceItems) == 0 {
			merged.InvoiceItems = []models.InvoiceItem{{Name: DefaultConsultationItem, Price: e.consultationPrice}}
		}
		patient.History = append(patient.History, merged)
		// The slot is reused: the empty placeholder carries the version
		// forward so the per-patient counter stays monotonic.
		patient.CurrentVisit = models.Visit{Version: merged.Version}
	} else {
		patient.CurrentVisit = merged
	}

	saved, err := e.store.SavePatient(ctx, patient, expectedVersion)
	if err != nil {
		return models.Patient{}, err
	}

	if completing {
		invoice := models.Invoice{
			ID:        uuid.New(),
			VisitID:   merged.VisitID,
			PatientID: patient.ID,
			Items:     merged.InvoiceItems,
			Status:    models.InvoiceUnpaid,
		}
		for _, item := range invoice.Items {
			invoice.TotalAmount += item.Price
		}
		if _, err := e.store.CreateInvoice(ctx, invoice); err != nil {
			// Patient write already committed; surface the failure loudly.
			logger.Log.WithError(err).WithField("visit_id", merged.VisitID).Error("invoice creation failed after visit completion")
			return models.Patient{}, err
		}
	}

	e.publish(ctx, merged, patient.ID, sameStatus)
	return saved, nil
}

// Intake opens a waiting visit for a walk-in. A new patient record is created
// unless the request names an existing one, in which case its free slot is
// reused.
func (e *Engine) Intake(ctx context.Context, req models.IntakeRequest) (models.Patient, error) {
	now := e.nowFunc().UTC()
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	newVisit := models.Visit{
		VisitID:        uuid.New().String(),
		ClinicID:       req.ClinicID,
		ClinicName:     req.ClinicName,
		DoctorID:       req.DoctorID,
		Date:           now,
		Status:         models.VisitStatusWaiting,
		Priority:       priority,
		ReasonForVisit: req.Reason,
	}

	if req.PatientID != nil {
		patient, err := e.store.GetPatient(ctx, *req.PatientID)
		if err != nil {
			return models.Patient{}, err
		}
		if !patient.CurrentVisit.Empty() {
			return models.Patient{}, ErrVisitActive
		}
		oldVersion := patient.CurrentVisit.Version
		newVisit.Version = oldVersion + 1
		patient.CurrentVisit = newVisit
		saved, err := e.store.SavePatient(ctx, patient, oldVersion)
		if err != nil {
			return models.Patient{}, err
		}
		e.publish(ctx, newVisit, patient.ID, false)
		return saved, nil
	}

	patient := models.Patient{
		ID:           uuid.New(),
		Name:         req.Name,
		Phone:        req.Phone,
		CurrentVisit: newVisit,
		History:      []models.Visit{},
	}
	created, err := e.store.CreatePatient(ctx, patient)
	if err != nil {
		return models.Patient{}, err
	}
	e.publish(ctx, newVisit, patient.ID, false)
	return created, nil
}

func (e *Engine) publish(ctx context.Context, v models.Visit, patientID uuid.UUID, sameStatus bool) {
	if e.events == nil || sameStatus {
		return
	}
	eventType := models.EventVisitWaiting
	switch v.Status {
	case models.VisitStatusInProgress:
		eventType = models.EventVisitInProgress
	case models.VisitStatusCompleted:
		eventType = models.EventVisitCompleted
	}
	if err := e.events.PublishVisitEvent(ctx, eventType, patientID, v, nil); err != nil {
		logger.Log.WithError(err).WithField("visit_id", v.VisitID).Warn("visit event publish failed")
	}
}

func mergeUpdate(v models.Visit, update models.VisitUpdate) models.Visit {
	if update.DoctorID != "" {
		v.DoctorID = update.DoctorID
	}
	if update.Diagnosis != "" {
		v.Diagnosis = update.Diagnosis
	}
	if update.Notes != "" {
		v.Notes = update.Notes
	}
	if update.InvoiceItems != nil {
		v.InvoiceItems = update.InvoiceItems
	}
	return v
}

func updateIsEmpty(update models.VisitUpdate) bool {
	return update.DoctorID == "" && update.Diagnosis == "" && update.Notes == "" && update.InvoiceItems == nil
}
