package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&PatientModel{},
		&AppointmentModel{},
		&InvoiceModel{},
		&NotificationModel{},
	)
}

// Patients

func (r *Repository) CreatePatient(ctx context.Context, patient models.Patient) (models.Patient, error) {
	patient.CreatedAt = time.Now().UTC()
	patient.UpdatedAt = patient.CreatedAt
	model, err := patientToModel(patient)
	if err != nil {
		return models.Patient{}, err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return models.Patient{}, err
	}
	return patient, nil
}

func (r *Repository) GetPatient(ctx context.Context, id uuid.UUID) (models.Patient, error) {
	var model PatientModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.Patient{}, ErrPatientNotFound
	}
	if result.Error != nil {
		return models.Patient{}, result.Error
	}
	return patientToDomain(&model)
}

func (r *Repository) ListPatients(ctx context.Context) ([]models.Patient, error) {
	var rows []PatientModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	patients := make([]models.Patient, 0, len(rows))
	for i := range rows {
		patient, err := patientToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, nil
}

// SavePatient persists the full patient record. The update is conditional on
// the stored version still matching expectedVersion; a concurrent writer that
// got there first makes the save fail with ErrVersionConflict.
func (r *Repository) SavePatient(ctx context.Context, patient models.Patient, expectedVersion int) (models.Patient, error) {
	patient.UpdatedAt = time.Now().UTC()
	model, err := patientToModel(patient)
	if err != nil {
		return models.Patient{}, err
	}

	result := r.db.WithContext(ctx).
		Model(&PatientModel{}).
		Where("id = ? AND version = ?", patient.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":          model.Name,
			"phone":         model.Phone,
			"date_of_birth": model.DateOfBirth,
			"profile":       model.Profile,
			"current_visit": model.CurrentVisit,
			"history":       model.History,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return models.Patient{}, result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		r.db.WithContext(ctx).Model(&PatientModel{}).Where("id = ?", patient.ID).Count(&exists)
		if exists == 0 {
			return models.Patient{}, ErrPatientNotFound
		}
		return models.Patient{}, ErrVersionConflict
	}
	return patient, nil
}

// Appointments

func (r *Repository) CreateAppointment(ctx context.Context, appt models.Appointment) (models.Appointment, error) {
	now := time.Now().UTC()
	model := &AppointmentModel{
		ID:         appt.ID,
		PatientID:  appt.PatientID,
		ClinicID:   appt.ClinicID,
		ClinicName: appt.ClinicName,
		DoctorID:   appt.DoctorID,
		Date:       appt.Date,
		Status:     appt.Status,
		Reason:     appt.Reason,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return models.Appointment{}, err
	}
	appt.CreatedAt = now
	return appt, nil
}

func (r *Repository) GetAppointment(ctx context.Context, id uuid.UUID) (models.Appointment, error) {
	var model AppointmentModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.Appointment{}, ErrAppointmentNotFound
	}
	if result.Error != nil {
		return models.Appointment{}, result.Error
	}
	return appointmentToDomain(&model), nil
}

func (r *Repository) ListAppointments(ctx context.Context, status string, limit int) ([]models.Appointment, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Order("date asc").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var rows []AppointmentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	appts := make([]models.Appointment, 0, len(rows))
	for i := range rows {
		appts = append(appts, appointmentToDomain(&rows[i]))
	}
	return appts, nil
}

func (r *Repository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&AppointmentModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// Invoices

func (r *Repository) CreateInvoice(ctx context.Context, invoice models.Invoice) (models.Invoice, error) {
	items, err := json.Marshal(invoice.Items)
	if err != nil {
		return models.Invoice{}, err
	}
	now := time.Now().UTC()
	model := &InvoiceModel{
		ID:          invoice.ID,
		VisitID:     invoice.VisitID,
		PatientID:   invoice.PatientID,
		Items:       datatypes.JSON(items),
		TotalAmount: invoice.TotalAmount,
		PaidAmount:  invoice.PaidAmount,
		Status:      invoice.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return models.Invoice{}, err
	}
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	return invoice, nil
}

func (r *Repository) GetInvoice(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	var model InvoiceModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.Invoice{}, ErrInvoiceNotFound
	}
	if result.Error != nil {
		return models.Invoice{}, result.Error
	}
	return invoiceToDomain(&model)
}

func (r *Repository) ListInvoicesByPatient(ctx context.Context, patientID uuid.UUID) ([]models.Invoice, error) {
	var rows []InvoiceModel
	if err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]models.Invoice, 0, len(rows))
	for i := range rows {
		invoice, err := invoiceToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, nil
}

func (r *Repository) UpdateInvoicePayment(ctx context.Context, id uuid.UUID, paidAmount float64, status string) error {
	result := r.db.WithContext(ctx).
		Model(&InvoiceModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"paid_amount": paidAmount,
			"status":      status,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// Notifications

func (r *Repository) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	now := time.Now().UTC()
	model := &NotificationModel{
		ID:         n.ID,
		Message:    n.Message,
		TargetRole: n.TargetRole,
		DueDate:    n.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return models.Notification{}, err
	}
	n.CreatedAt = now
	return n, nil
}

func (r *Repository) ListDueNotifications(ctx context.Context, role string, now time.Time) ([]models.Notification, error) {
	query := r.db.WithContext(ctx).
		Where("dismissed = ?", false).
		Where("due_date IS NULL OR due_date <= ?", now).
		Order("created_at desc")
	if role != "" {
		query = query.Where("target_role = ? OR target_role = ''", role)
	}
	var rows []NotificationModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	notifications := make([]models.Notification, 0, len(rows))
	for i := range rows {
		notifications = append(notifications, notificationToDomain(&rows[i]))
	}
	return notifications, nil
}

func (r *Repository) DismissNotification(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"dismissed":  true,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
