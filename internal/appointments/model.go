package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// DefaultDurationMinutes is applied when a booking omits the duration.
const DefaultDurationMinutes = 30

// validTransitions encodes the appointment state machine:
// scheduled -> confirmed -> completed, and scheduled|confirmed -> cancelled.
// completed and cancelled are terminal.
var validTransitions = map[string][]string{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known appointment status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is a scheduled encounter. Date and Time are kept as the wire
// strings (YYYY-MM-DD, HH:MM) because the slot identity is exact text
// equality on that pair.
type Appointment struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	ServiceID    *uuid.UUID `json:"service_id,omitempty"`
	PatientName  string     `json:"patient_name,omitempty"`
	PatientPhone string     `json:"patient_phone,omitempty"`
	Date         string     `json:"date"`
	Time         string     `json:"time"`
	Duration     int        `json:"duration"`
	Status       string     `json:"status"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// WebhookProjection is the flat mapping sent to the external agent on booking.
func (a *Appointment) WebhookProjection() map[string]any {
	serviceID := ""
	if a.ServiceID != nil {
		serviceID = a.ServiceID.String()
	}
	notes := ""
	if a.Notes != nil {
		notes = *a.Notes
	}
	return map[string]any{
		"appointment_id": a.ID.String(),
		"patient_id":     a.PatientID.String(),
		"patient_name":   a.PatientName,
		"patient_phone":  a.PatientPhone,
		"date":           a.Date,
		"time":           a.Time,
		"duration":       a.Duration,
		"status":         a.Status,
		"notes":          notes,
		"service_id":     serviceID,
		"created_at":     a.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":     a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// BookRequest is the request body for booking an appointment.
type BookRequest struct {
	Phone     string     `json:"phone"`
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	Notes     *string    `json:"notes,omitempty"`
	Duration  int        `json:"duration,omitempty"`
	ServiceID *uuid.UUID `json:"service_id,omitempty"`
}
