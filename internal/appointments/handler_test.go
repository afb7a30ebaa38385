package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hakeemhq/clinic-agent-platform/internal/webhook"
)

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/appointments", h.Book)
	r.Get("/api/appointments", h.ListByDate)
	r.Patch("/api/appointments/{id}/status", h.ChangeStatus)
	return r
}

func TestHandlerBookSuccess(t *testing.T) {
	store := newMemStore()
	dispatcher := &stubDispatcher{result: webhook.Result{Success: true, StatusCode: 200}}
	svc := NewService(store, &staticResolver{patient: testPatient()}, dispatcher, nil, nil)
	router := newTestRouter(NewHandler(svc, store, nil))

	body := `{"phone":"0501234567","date":"2025-03-15","time":"10:30"}`
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success     bool         `json:"success"`
		Appointment *Appointment `json:"appointment"`
		MessageAr   string       `json:"message_ar"`
		WebhookSent bool         `json:"webhook_sent"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.WebhookSent)
	assert.Equal(t, "scheduled", resp.Appointment.Status)
	assert.Contains(t, resp.MessageAr, "تم حجز الموعد بنجاح")
	assert.Contains(t, resp.MessageAr, "أحمد محمد")
}

func TestHandlerBookMissingFields(t *testing.T) {
	svc := NewService(newMemStore(), &staticResolver{}, &stubDispatcher{}, nil, nil)
	router := newTestRouter(NewHandler(svc, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(`{"phone":"0501234567"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerBookUnknownPatient(t *testing.T) {
	svc := NewService(newMemStore(), &staticResolver{}, &stubDispatcher{}, nil, nil)
	router := newTestRouter(NewHandler(svc, nil, nil))

	body := `{"phone":"0509999999","date":"2025-03-15","time":"10:30"}`
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp struct {
		MessageAr string `json:"message_ar"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "لم يتم العثور على مريض برقم الهاتف 0509999999. يرجى تسجيل المريض أولاً.", resp.MessageAr)
}

func TestHandlerBookSlotConflict(t *testing.T) {
	store := newMemStore()
	dispatcher := &stubDispatcher{result: webhook.Result{Success: true}}
	svc := NewService(store, &staticResolver{patient: testPatient()}, dispatcher, nil, nil)
	router := newTestRouter(NewHandler(svc, store, nil))

	body := `{"phone":"0501234567","date":"2025-03-15","time":"10:30"}`
	for i, wantCode := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, wantCode, rec.Code, "request %d", i)
	}

	var resp struct {
		MessageAr string `json:"message_ar"`
	}
	// re-run the conflicting request to inspect its body
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "الموعد في 2025-03-15 الساعة 10:30 محجوز مسبقاً. يرجى اختيار وقت آخر.", resp.MessageAr)
}

func TestHandlerBookWebhookFailureReported(t *testing.T) {
	store := newMemStore()
	dispatcher := &stubDispatcher{result: webhook.Result{Success: false, Error: "timeout"}}
	svc := NewService(store, &staticResolver{patient: testPatient()}, dispatcher, nil, nil)
	router := newTestRouter(NewHandler(svc, store, nil))

	body := `{"phone":"0501234567","date":"2025-03-15","time":"10:30"}`
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	// the field must be present and false, not merely absent
	assert.Contains(t, rec.Body.String(), `"webhook_sent":false`)
	var resp struct {
		Success     bool `json:"success"`
		WebhookSent bool `json:"webhook_sent"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.WebhookSent)
}

func TestHandlerListByDate(t *testing.T) {
	store := newMemStore()
	dispatcher := &stubDispatcher{result: webhook.Result{Success: true}}
	svc := NewService(store, &staticResolver{patient: testPatient()}, dispatcher, nil, nil)
	router := newTestRouter(NewHandler(svc, store, nil))

	_, _, err := svc.Book(context.Background(), BookRequest{Phone: "0501234567", Date: "2025-03-15", Time: "10:30"})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/appointments?date=2025-03-15", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count     int    `json:"count"`
		MessageAr string `json:"message_ar"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "يوجد 1 موعد في 2025-03-15", resp.MessageAr)

	req = httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerChangeStatus(t *testing.T) {
	store := newMemStore()
	dispatcher := &stubDispatcher{result: webhook.Result{Success: true}}
	svc := NewService(store, &staticResolver{patient: testPatient()}, dispatcher, nil, nil)
	router := newTestRouter(NewHandler(svc, store, nil))

	appt, _, err := svc.Book(context.Background(), BookRequest{Phone: "0501234567", Date: "2025-03-15", Time: "10:30"})
	assert.NoError(t, err)

	url := fmt.Sprintf("/api/appointments/%s/status", appt.ID)
	req := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"status":"confirmed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Appointment *Appointment `json:"appointment"`
		MessageAr   string       `json:"message_ar"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Appointment.Status)
	assert.Contains(t, resp.MessageAr, "تم تأكيد")
}

func TestHandlerChangeStatusInvalidTransition(t *testing.T) {
	store := newMemStore()
	dispatcher := &stubDispatcher{result: webhook.Result{Success: true}}
	svc := NewService(store, &staticResolver{patient: testPatient()}, dispatcher, nil, nil)
	router := newTestRouter(NewHandler(svc, store, nil))

	appt, _, err := svc.Book(context.Background(), BookRequest{Phone: "0501234567", Date: "2025-03-15", Time: "10:30"})
	assert.NoError(t, err)

	url := fmt.Sprintf("/api/appointments/%s/status", appt.ID)
	req := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"status":"completed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerChangeStatusBadInput(t *testing.T) {
	svc := NewService(newMemStore(), &staticResolver{}, &stubDispatcher{}, nil, nil)
	router := newTestRouter(NewHandler(svc, nil, nil))

	req := httptest.NewRequest(http.MethodPatch, "/api/appointments/not-a-uuid/status", strings.NewReader(`{"status":"confirmed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	url := fmt.Sprintf("/api/appointments/%s/status", uuid.New())
	req = httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"status":"archived"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"status":"confirmed"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
