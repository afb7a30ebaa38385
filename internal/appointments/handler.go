package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hakeemhq/clinic-agent-platform/internal/api/respond"
	"github.com/hakeemhq/clinic-agent-platform/internal/validate"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

// DayLister reads a day's schedule for the clinic calendar.
type DayLister interface {
	ListByDate(ctx context.Context, date string) ([]*Appointment, error)
}

// Handler handles HTTP requests for appointments.
type Handler struct {
	svc    *Service
	days   DayLister
	logger *logging.Logger
}

// NewHandler creates a new appointments handler. days may be nil when the
// calendar listing is not exposed.
func NewHandler(svc *Service, days DayLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, days: days, logger: logger}
}

type bookResponse struct {
	Success     bool         `json:"success"`
	Appointment *Appointment `json:"appointment"`
	MessageAr   string       `json:"message_ar"`
	WebhookSent bool         `json:"webhook_sent"`
}

type statusResponse struct {
	Success     bool         `json:"success"`
	Appointment *Appointment `json:"appointment"`
	MessageAr   string       `json:"message_ar"`
}

// Book handles POST /api/appointments.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body", "نص الطلب غير صالح")
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		respond.Error(w, http.StatusBadRequest, "Missing required fields", "رقم الهاتف والتاريخ والوقت حقول مطلوبة")
		return
	}

	appt, result, err := h.svc.Book(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrInvalidPhone),
			errors.Is(err, validate.ErrInvalidDate),
			errors.Is(err, validate.ErrInvalidTime):
			respond.ValidationError(w, err)
		case errors.Is(err, ErrPatientNotFound):
			respond.Error(w, http.StatusNotFound, "Patient not found",
				fmt.Sprintf("لم يتم العثور على مريض برقم الهاتف %s. يرجى تسجيل المريض أولاً.", req.Phone))
		case errors.Is(err, ErrSlotTaken):
			respond.Error(w, http.StatusConflict, "Time slot not available",
				fmt.Sprintf("الموعد في %s الساعة %s محجوز مسبقاً. يرجى اختيار وقت آخر.", req.Date, req.Time))
		default:
			h.logger.Error("failed to book appointment", "error", err)
			respond.InternalError(w, "حدث خطأ أثناء حجز الموعد")
		}
		return
	}

	respond.JSON(w, http.StatusCreated, bookResponse{
		Success:     true,
		Appointment: appt,
		MessageAr: fmt.Sprintf("تم حجز الموعد بنجاح للمريض %s في %s الساعة %s",
			appt.PatientName, appt.Date, appt.Time),
		WebhookSent: result.Sent(),
	})
}

// ChangeStatus handles PATCH /api/appointments/{id}/status.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid appointment id", "معرّف الموعد غير صالح")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body", "نص الطلب غير صالح")
		return
	}
	if !IsValidStatus(req.Status) {
		respond.Error(w, http.StatusBadRequest, "Invalid status",
			"الحالة يجب أن تكون scheduled أو confirmed أو completed أو cancelled")
		return
	}

	appt, err := h.svc.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(w, http.StatusNotFound, "Appointment not found", "الموعد غير موجود في النظام")
		case errors.Is(err, ErrInvalidTransition):
			respond.Error(w, http.StatusConflict, "Invalid status transition",
				"لا يمكن تغيير حالة الموعد إلى الحالة المطلوبة")
		default:
			h.logger.Error("failed to change appointment status", "id", id, "error", err)
			respond.InternalError(w, "حدث خطأ أثناء تحديث حالة الموعد")
		}
		return
	}

	respond.JSON(w, http.StatusOK, statusResponse{
		Success:     true,
		Appointment: appt,
		MessageAr:   statusMessageAr(appt),
	})
}

type dayListResponse struct {
	Success      bool           `json:"success"`
	Date         string         `json:"date"`
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
	MessageAr    string         `json:"message_ar"`
}

// ListByDate handles GET /api/appointments?date=. Cancelled appointments are
// included so the calendar shows the full day history.
func (h *Handler) ListByDate(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("date") == "" {
		respond.Error(w, http.StatusBadRequest, "Date is required", "التاريخ مطلوب")
		return
	}
	date, err := validate.Date(r.URL.Query().Get("date"))
	if err != nil {
		respond.ValidationError(w, err)
		return
	}

	list, err := h.days.ListByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to list appointments", "date", date, "error", err)
		respond.InternalError(w, "حدث خطأ أثناء جلب المواعيد")
		return
	}
	respond.JSON(w, http.StatusOK, dayListResponse{
		Success:      true,
		Date:         date,
		Appointments: list,
		Count:        len(list),
		MessageAr:    fmt.Sprintf("يوجد %d موعد في %s", len(list), date),
	})
}

func statusMessageAr(a *Appointment) string {
	switch a.Status {
	case StatusConfirmed:
		return fmt.Sprintf("تم تأكيد موعد المريض %s", a.PatientName)
	case StatusCompleted:
		return fmt.Sprintf("تم إكمال موعد المريض %s", a.PatientName)
	case StatusCancelled:
		return fmt.Sprintf("تم إلغاء موعد المريض %s", a.PatientName)
	}
	return "تم تحديث حالة الموعد"
}
