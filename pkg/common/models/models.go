package models

import (
	"time"

	"github.com/google/uuid"
)

// Visit lifecycle states
const (
	VisitStatusWaiting    = "waiting"
	VisitStatusInProgress = "in-progress"
	VisitStatusCompleted  = "completed"
)

// Queue priorities
const (
	PriorityNormal = "normal"
	PriorityUrgent = "urgent"
)

// Appointment states
const (
	AppointmentScheduled = "scheduled"
	AppointmentCheckedIn = "checked-in"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
	AppointmentNoShow    = "no-show"
)

// Invoice states
const (
	InvoiceUnpaid = "unpaid"
	InvoicePaid   = "paid"
)

// Staff roles
const (
	RoleAdmin        = "admin"
	RoleReceptionist = "receptionist"
	RoleDoctor       = "doctor"
	RolePatient      = "patient"
	RoleDisplay      = "display"
)

// Visit is one clinical encounter, embedded in the owning patient record.
// Version increments on every saved mutation and backs optimistic locking.
type Visit struct {
	VisitID        string        `json:"visit_id"`
	ClinicID       string        `json:"clinic_id"`
	ClinicName     string        `json:"clinic_name,omitempty"`
	DoctorID       string        `json:"doctor_id,omitempty"`
	Date           time.Time     `json:"date"`
	Status         string        `json:"status"`
	Priority       string        `json:"priority"`
	ReasonForVisit string        `json:"reason_for_visit"`
	Diagnosis      string        `json:"diagnosis,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	InvoiceItems   []InvoiceItem `json:"invoice_items,omitempty"`
	Version        int           `json:"version"`
}

// Empty reports whether the visit slot is an unused placeholder.
func (v Visit) Empty() bool {
	return v.VisitID == ""
}

type Patient struct {
	ID           uuid.UUID              `json:"id"`
	Name         string                 `json:"name"`
	Phone        string                 `json:"phone,omitempty"`
	DateOfBirth  *time.Time             `json:"date_of_birth,omitempty"`
	Profile      map[string]interface{} `json:"profile,omitempty"` // allergies, chronic conditions, etc.
	CurrentVisit Visit                  `json:"current_visit"`
	History      []Visit                `json:"history"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type Appointment struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	ClinicID   string    `json:"clinic_id"`
	ClinicName string    `json:"clinic_name,omitempty"`
	DoctorID   string    `json:"doctor_id,omitempty"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type InvoiceItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Invoice struct {
	ID          uuid.UUID     `json:"id"`
	VisitID     string        `json:"visit_id"`
	PatientID   uuid.UUID     `json:"patient_id"`
	Items       []InvoiceItem `json:"items"`
	TotalAmount float64       `json:"total_amount"`
	PaidAmount  float64       `json:"paid_amount"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Notification struct {
	ID         uuid.UUID  `json:"id"`
	Message    string     `json:"message"`
	TargetRole string     `json:"target_role,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	Dismissed  bool       `json:"dismissed"`
	CreatedAt  time.Time  `json:"created_at"`
}

// QueueEntry is one row of a projected queue: the visit plus enough patient
// identity for display surfaces.
type QueueEntry struct {
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Visit       Visit     `json:"visit"`
}

// Announcement is a one-shot "now serving" signal emitted on the
// waiting -> in-progress edge.
type Announcement struct {
	PatientID   uuid.UUID `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	ClinicID    string    `json:"clinic_id"`
	ClinicName  string    `json:"clinic_name"`
	CalledAt    time.Time `json:"called_at"`
}

// Visit event bus models
const (
	EventVisitCheckedIn  = "visit.checked-in"
	EventVisitWaiting    = "visit.waiting"
	EventVisitInProgress = "visit.in-progress"
	EventVisitCompleted  = "visit.completed"
	EventPatientCalled   = "announcement.called"
)

type VisitEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	PatientID uuid.UUID              `json:"patient_id"`
	VisitID   string                 `json:"visit_id"`
	ClinicID  string                 `json:"clinic_id"`
	Status    string                 `json:"status,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Staff identity resolved at the gateway.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	ClinicIDs []string  `json:"clinic_ids,omitempty"`
}

// Request payloads

type IntakeRequest struct {
	PatientID  *uuid.UUID `json:"patient_id,omitempty"` // reuse an existing record when set
	Name       string     `json:"name"`
	Phone      string     `json:"phone,omitempty"`
	ClinicID   string     `json:"clinic_id"`
	ClinicName string     `json:"clinic_name,omitempty"`
	DoctorID   string     `json:"doctor_id,omitempty"`
	Priority   string     `json:"priority,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// VisitUpdate carries the clinical documentation merged into the visit on a
// transition (or a same-status documentation save).
type VisitUpdate struct {
	DoctorID     string        `json:"doctor_id,omitempty"`
	Diagnosis    string        `json:"diagnosis,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	InvoiceItems []InvoiceItem `json:"invoice_items,omitempty"`
}

type TransitionRequest struct {
	TargetStatus    string      `json:"target_status"`
	ExpectedVersion int         `json:"expected_version"`
	Update          VisitUpdate `json:"update"`
}

type CreateAppointmentRequest struct {
	PatientID  uuid.UUID `json:"patient_id"`
	ClinicID   string    `json:"clinic_id"`
	ClinicName string    `json:"clinic_name,omitempty"`
	DoctorID   string    `json:"doctor_id,omitempty"`
	Date       time.Time `json:"date"`
	Reason     string    `json:"reason,omitempty"`
}

type PaymentRequest struct {
	Amount float64 `json:"amount"`
}

type CreateNotificationRequest struct {
	Message    string     `json:"message"`
	TargetRole string     `json:"target_role,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}
