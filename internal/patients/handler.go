package patients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hakeemhq/clinic-agent-platform/internal/api/respond"
	"github.com/hakeemhq/clinic-agent-platform/internal/webhook"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

// EventDispatcher notifies the external agent after a committed write.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType string, data map[string]any) webhook.Result
}

// Storage is the subset of Repository the handler needs.
type Storage interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPhone(ctx context.Context, phone string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, gender string) ([]*Patient, error)
}

// Handler handles HTTP requests for the patient directory.
type Handler struct {
	repo       Storage
	dispatcher EventDispatcher
	logger     *logging.Logger
}

// NewHandler creates a new patients handler.
func NewHandler(repo Storage, dispatcher EventDispatcher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, dispatcher: dispatcher, logger: logger}
}

type patientResponse struct {
	Success     bool     `json:"success"`
	Patient     *Patient `json:"patient"`
	Age         *int     `json:"age,omitempty"`
	MessageAr   string   `json:"message_ar"`
	WebhookSent bool     `json:"webhook_sent"`
}

type patientListResponse struct {
	Success   bool       `json:"success"`
	Patients  []*Patient `json:"patients"`
	Count     int        `json:"count"`
	MessageAr string     `json:"message_ar"`
}

// Create handles POST /api/patients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body", "نص الطلب غير صالح")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, "Name is required", "الاسم مطلوب")
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		respond.Error(w, http.StatusBadRequest, "Phone is required", "رقم الهاتف مطلوب")
		return
	}

	patient, err := req.Normalize()
	if err != nil {
		respond.ValidationError(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), patient); err != nil {
		if errors.Is(err, ErrPhoneExists) {
			respond.Error(w, http.StatusConflict, "Phone already exists", "رقم الهاتف مسجل مسبقاً لمريض آخر")
			return
		}
		h.logger.Error("failed to create patient", "error", err)
		respond.InternalError(w, "حدث خطأ أثناء تسجيل المريض")
		return
	}

	result := h.dispatcher.Dispatch(r.Context(), webhook.EventNewPatient, patient.WebhookProjection())
	h.logger.Info("patient created",
		"id", patient.ID,
		"name", patient.Name,
		"webhook_sent", result.Sent(),
	)

	respond.JSON(w, http.StatusCreated, patientResponse{
		Success:     true,
		Patient:     patient,
		MessageAr:   fmt.Sprintf("تم تسجيل المريض %s بنجاح", patient.Name),
		WebhookSent: result.Sent(),
	})
}

// Update handles PATCH /api/patients?id=...|phone=... with a partial body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.resolveSelector(w, r)
	if !ok {
		return
	}

	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body", "نص الطلب غير صالح")
		return
	}
	if req.Empty() {
		respond.Error(w, http.StatusBadRequest, "No data to update", "لا توجد بيانات للتحديث")
		return
	}

	if err := req.Apply(patient); err != nil {
		respond.ValidationError(w, err)
		return
	}

	if err := h.repo.Update(r.Context(), patient); err != nil {
		switch {
		case errors.Is(err, ErrPhoneExists):
			respond.Error(w, http.StatusConflict, "Phone already exists", "رقم الهاتف مسجل مسبقاً لمريض آخر")
		case errors.Is(err, ErrNotFound):
			respond.Error(w, http.StatusNotFound, "Patient not found", "المريض غير موجود في النظام")
		default:
			h.logger.Error("failed to update patient", "id", patient.ID, "error", err)
			respond.InternalError(w, "حدث خطأ أثناء تحديث بيانات المريض")
		}
		return
	}

	result := h.dispatcher.Dispatch(r.Context(), webhook.EventUpdatePatient, patient.WebhookProjection())
	h.logger.Info("patient updated", "id", patient.ID, "webhook_sent", result.Sent())

	respond.JSON(w, http.StatusOK, patientResponse{
		Success:     true,
		Patient:     patient,
		MessageAr:   fmt.Sprintf("تم تحديث بيانات المريض %s بنجاح", patient.Name),
		WebhookSent: result.Sent(),
	})
}

// Get handles GET /api/patients. With an id or phone query parameter it
// returns one record; otherwise it lists, optionally filtered by gender.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	phone := r.URL.Query().Get("phone")

	if id != "" || phone != "" {
		patient, ok := h.lookup(w, r, id, phone)
		if !ok {
			return
		}
		resp := patientResponse{
			Success:   true,
			Patient:   patient,
			MessageAr: fmt.Sprintf("تم العثور على المريض %s", patient.Name),
		}
		if age := patient.Age(time.Now()); age >= 0 {
			resp.Age = &age
		}
		respond.JSON(w, http.StatusOK, resp)
		return
	}

	gender := r.URL.Query().Get("gender")
	if gender != "" && gender != "male" && gender != "female" {
		respond.Error(w, http.StatusBadRequest, "Invalid gender", "الجنس يجب أن يكون male أو female")
		return
	}

	list, err := h.repo.List(r.Context(), gender)
	if err != nil {
		h.logger.Error("failed to list patients", "error", err)
		respond.InternalError(w, "حدث خطأ أثناء جلب المرضى")
		return
	}
	respond.JSON(w, http.StatusOK, patientListResponse{
		Success:   true,
		Patients:  list,
		Count:     len(list),
		MessageAr: fmt.Sprintf("تم العثور على %d مريض", len(list)),
	})
}

// resolveSelector loads the patient addressed by the id or phone query
// parameter, writing the error envelope when the selector is bad or missing.
func (h *Handler) resolveSelector(w http.ResponseWriter, r *http.Request) (*Patient, bool) {
	id := r.URL.Query().Get("id")
	phone := r.URL.Query().Get("phone")
	if id == "" && phone == "" {
		respond.Error(w, http.StatusBadRequest, "Patient identifier required", "يجب تحديد المريض بالـ ID أو رقم الهاتف")
		return nil, false
	}
	patient, ok := h.lookup(w, r, id, phone)
	return patient, ok
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, id, phone string) (*Patient, bool) {
	var (
		patient *Patient
		err     error
	)
	if id != "" {
		var parsed uuid.UUID
		parsed, err = uuid.Parse(id)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid patient id", "معرّف المريض غير صالح")
			return nil, false
		}
		patient, err = h.repo.GetByID(r.Context(), parsed)
	} else {
		patient, err = h.repo.GetByPhone(r.Context(), phone)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "Patient not found", "المريض غير موجود في النظام")
			return nil, false
		}
		h.logger.Error("failed to load patient", "error", err)
		respond.InternalError(w, "حدث خطأ أثناء جلب بيانات المريض")
		return nil, false
	}
	return patient, true
}
