package clinic

import (
	"encoding/json"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PatientModel persists the patient record with the current visit embedded as
// JSON. The version column mirrors the embedded visit's version and backs the
// conditional save in the repository.
type PatientModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null"`
	Phone        string
	DateOfBirth  *time.Time
	Profile      datatypes.JSONMap
	CurrentVisit datatypes.JSON
	History      datatypes.JSON
	Version      int `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PatientModel) TableName() string { return "patients" }

type AppointmentModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PatientID  uuid.UUID `gorm:"type:uuid;index;not null"`
	ClinicID   string    `gorm:"index"`
	ClinicName string
	DoctorID   string
	Date       time.Time `gorm:"index"`
	Status     string    `gorm:"index;not null"`
	Reason     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AppointmentModel) TableName() string { return "appointments" }

type InvoiceModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	VisitID     string    `gorm:"index"`
	PatientID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Items       datatypes.JSON
	TotalAmount float64
	PaidAmount  float64
	Status      string `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (InvoiceModel) TableName() string { return "invoices" }

type NotificationModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Message    string    `gorm:"not null"`
	TargetRole string    `gorm:"index"`
	DueDate    *time.Time
	Dismissed  bool `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (NotificationModel) TableName() string { return "notifications" }

func patientToDomain(m *PatientModel) (models.Patient, error) {
	p := models.Patient{
		ID:          m.ID,
		Name:        m.Name,
		Phone:       m.Phone,
		DateOfBirth: m.DateOfBirth,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Profile != nil {
		p.Profile = map[string]interface{}(m.Profile)
	}
	if len(m.CurrentVisit) > 0 {
		if err := json.Unmarshal(m.CurrentVisit, &p.CurrentVisit); err != nil {
			return models.Patient{}, err
		}
	}
	if len(m.History) > 0 {
		if err := json.Unmarshal(m.History, &p.History); err != nil {
			return models.Patient{}, err
		}
	}
	return p, nil
}

func patientToModel(p models.Patient) (*PatientModel, error) {
	current, err := json.Marshal(p.CurrentVisit)
	if err != nil {
		return nil, err
	}
	history, err := json.Marshal(p.History)
	if err != nil {
		return nil, err
	}
	m := &PatientModel{
		ID:           p.ID,
		Name:         p.Name,
		Phone:        p.Phone,
		DateOfBirth:  p.DateOfBirth,
		CurrentVisit: datatypes.JSON(current),
		History:      datatypes.JSON(history),
		Version:      p.CurrentVisit.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.Profile != nil {
		m.Profile = datatypes.JSONMap(p.Profile)
	}
	return m, nil
}

func appointmentToDomain(m *AppointmentModel) models.Appointment {
	return models.Appointment{
		ID:         m.ID,
		PatientID:  m.PatientID,
		ClinicID:   m.ClinicID,
		ClinicName: m.ClinicName,
		DoctorID:   m.DoctorID,
		Date:       m.Date,
		Status:     m.Status,
		Reason:     m.Reason,
		CreatedAt:  m.CreatedAt,
	}
}

func invoiceToDomain(m *InvoiceModel) (models.Invoice, error) {
	inv := models.Invoice{
		ID:          m.ID,
		VisitID:     m.VisitID,
		PatientID:   m.PatientID,
		TotalAmount: m.TotalAmount,
		PaidAmount:  m.PaidAmount,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if len(m.Items) > 0 {
		if err := json.Unmarshal(m.Items, &inv.Items); err != nil {
			return models.Invoice{}, err
		}
	}
	return inv, nil
}

func notificationToDomain(m *NotificationModel) models.Notification {
	return models.Notification{
		ID:         m.ID,
		Message:    m.Message,
		TargetRole: m.TargetRole,
		DueDate:    m.DueDate,
		Dismissed:  m.Dismissed,
		CreatedAt:  m.CreatedAt,
	}
}
