package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hakeemhq/clinic-agent-platform/internal/observability/metrics"
	"github.com/hakeemhq/clinic-agent-platform/internal/patients"
	"github.com/hakeemhq/clinic-agent-platform/internal/validate"
	"github.com/hakeemhq/clinic-agent-platform/internal/webhook"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

var tracer = otel.Tracer("clinic.internal.appointments")

// ErrPatientNotFound is returned when the booking phone matches no patient.
var ErrPatientNotFound = errors.New("patient not found for phone")

// PatientResolver looks up the patient owning a phone number.
type PatientResolver interface {
	GetByPhone(ctx context.Context, phone string) (*patients.Patient, error)
}

// Store is the persistence surface the booking engine needs.
type Store interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ExistsActiveAt(ctx context.Context, date, timeOfDay string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// EventDispatcher posts domain events to the configured agent webhook.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType string, data map[string]any) webhook.Result
}

// Service is the booking engine. It resolves the patient, guards the slot,
// persists the appointment and notifies the agent webhook.
type Service struct {
	store      Store
	patients   PatientResolver
	dispatcher EventDispatcher
	metrics    *metrics.WebhookMetrics
	logger     *logging.Logger
}

// NewService wires the booking engine.
func NewService(store Store, resolver PatientResolver, dispatcher EventDispatcher, m *metrics.WebhookMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:      store,
		patients:   resolver,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger.Named("appointments"),
	}
}

// Book creates an appointment for the patient identified by req.Phone.
// The returned webhook.Result reflects the new_appointment dispatch and is
// zero-valued Skipped only when dispatch actually ran.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, webhook.Result, error) {
	ctx, span := tracer.Start(ctx, "appointments.book",
		trace.WithAttributes(
			attribute.String("appointment.date", req.Date),
			attribute.String("appointment.time", req.Time),
		))
	defer span.End()

	if err := s.validateBooking(&req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, webhook.Result{}, err
	}

	patient, err := s.patients.GetByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			return nil, webhook.Result{}, ErrPatientNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "patient lookup failed")
		return nil, webhook.Result{}, fmt.Errorf("appointments: patient lookup failed: %w", err)
	}
	span.SetAttributes(attribute.String("patient.id", patient.ID.String()))

	// Fast-path check so the common case fails before the insert. The unique
	// index still decides under concurrency.
	taken, err := s.store.ExistsActiveAt(ctx, req.Date, req.Time)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "slot check failed")
		return nil, webhook.Result{}, err
	}
	if taken {
		s.metrics.ObserveBookingConflict()
		return nil, webhook.Result{}, ErrSlotTaken
	}

	duration := req.Duration
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}

	appt := &Appointment{
		ID:           uuid.New(),
		PatientID:    patient.ID,
		ServiceID:    req.ServiceID,
		PatientName:  patient.Name,
		PatientPhone: patient.Phone,
		Date:         req.Date,
		Time:         req.Time,
		Duration:     duration,
		Status:       StatusScheduled,
		Notes:        req.Notes,
	}
	if err := s.store.Create(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveBookingConflict()
			return nil, webhook.Result{}, ErrSlotTaken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, webhook.Result{}, err
	}

	result := s.dispatcher.Dispatch(ctx, webhook.EventNewAppointment, appt.WebhookProjection())
	if result.Error != "" {
		s.logger.Warn("appointment webhook dispatch failed",
			"appointment_id", appt.ID,
			"error", result.Error,
		)
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"patient_id", patient.ID,
		"date", appt.Date,
		"time", appt.Time,
		"webhook_sent", result.Sent(),
	)
	return appt, result, nil
}

// ChangeStatus moves an appointment through the state machine. No webhook
// fires on status changes.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.change_status",
		trace.WithAttributes(
			attribute.String("appointment.id", id.String()),
			attribute.String("appointment.status", status),
		))
	defer span.End()

	if !IsValidStatus(status) {
		return nil, ErrInvalidTransition
	}

	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(appt.Status, status) {
		return nil, ErrInvalidTransition
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status update failed")
		return nil, err
	}
	appt.Status = status

	s.logger.Info("appointment status changed",
		"appointment_id", id,
		"status", status,
	)
	return appt, nil
}

func (s *Service) validateBooking(req *BookRequest) error {
	phone, err := validate.Phone(req.Phone)
	if err != nil {
		return err
	}
	date, err := validate.Date(req.Date)
	if err != nil {
		return err
	}
	timeOfDay, err := validate.Time(req.Time)
	if err != nil {
		return err
	}
	req.Phone, req.Date, req.Time = phone, date, timeOfDay
	return nil
}
