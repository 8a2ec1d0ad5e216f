package clinic

import "errors"

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrVersionConflict is returned when a conditional save loses the race
	// against a concurrent writer.
	ErrVersionConflict = errors.New("visit version conflict")
)
