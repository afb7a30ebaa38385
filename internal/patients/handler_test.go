package patients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hakeemhq/clinic-agent-platform/internal/webhook"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

type memStorage struct {
	byID    map[uuid.UUID]*Patient
	byPhone map[string]*Patient
}

func newMemStorage() *memStorage {
	return &memStorage{byID: map[uuid.UUID]*Patient{}, byPhone: map[string]*Patient{}}
}

func (m *memStorage) Create(ctx context.Context, p *Patient) error {
	if _, exists := m.byPhone[p.Phone]; exists {
		return ErrPhoneExists
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	clone := *p
	m.byID[p.ID] = &clone
	m.byPhone[p.Phone] = &clone
	return nil
}

func (m *memStorage) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memStorage) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	p, ok := m.byPhone[phone]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memStorage) Update(ctx context.Context, p *Patient) error {
	existing, ok := m.byID[p.ID]
	if !ok {
		return ErrNotFound
	}
	if other, exists := m.byPhone[p.Phone]; exists && other.ID != p.ID {
		return ErrPhoneExists
	}
	delete(m.byPhone, existing.Phone)
	p.UpdatedAt = time.Now().UTC()
	clone := *p
	m.byID[p.ID] = &clone
	m.byPhone[p.Phone] = &clone
	return nil
}

func (m *memStorage) List(ctx context.Context, gender string) ([]*Patient, error) {
	var list []*Patient
	for _, p := range m.byID {
		if gender != "" && (p.Gender == nil || *p.Gender != gender) {
			continue
		}
		clone := *p
		list = append(list, &clone)
	}
	return list, nil
}

type stubDispatcher struct {
	result webhook.Result
	events []string
	last   map[string]any
}

func (s *stubDispatcher) Dispatch(ctx context.Context, eventType string, data map[string]any) webhook.Result {
	s.events = append(s.events, eventType)
	s.last = data
	return s.result
}

func sentDispatcher() *stubDispatcher {
	return &stubDispatcher{result: webhook.Result{Success: true, StatusCode: 200}}
}

func postPatient(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	var decoded map[string]any
	if err := json.NewDecoder(w.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return w, decoded
}

func TestCreatePatientSuccess(t *testing.T) {
	store := newMemStorage()
	dispatcher := sentDispatcher()
	h := NewHandler(store, dispatcher, logging.Default())

	w, body := postPatient(t, h, `{"name":"Ahmed Ali","phone":"0501234567","gender":"male"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["webhook_sent"])
	assert.Contains(t, body["message_ar"], "Ahmed Ali")
	assert.Equal(t, []string{webhook.EventNewPatient}, dispatcher.events)
	assert.Equal(t, "ذكر", dispatcher.last["gender"])

	// Round-trip: the stored record matches the inputs.
	stored, err := store.GetByPhone(context.Background(), "0501234567")
	assert.NoError(t, err)
	assert.Equal(t, "Ahmed Ali", stored.Name)
}

func TestCreatePatientDuplicatePhone(t *testing.T) {
	store := newMemStorage()
	h := NewHandler(store, sentDispatcher(), logging.Default())

	w, _ := postPatient(t, h, `{"name":"Ahmed Ali","phone":"0501234567"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, body := postPatient(t, h, `{"name":"Sara Ahmed","phone":"0501234567"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Phone already exists", body["error"])

	// No second record was created.
	list, _ := store.List(context.Background(), "")
	assert.Len(t, list, 1)
}

func TestCreatePatientMissingFields(t *testing.T) {
	h := NewHandler(newMemStorage(), sentDispatcher(), logging.Default())

	w, body := postPatient(t, h, `{"phone":"0501234567"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name is required", body["error"])

	w, body = postPatient(t, h, `{"name":"Ahmed Ali"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Phone is required", body["error"])
}

func TestCreatePatientInvalidPhone(t *testing.T) {
	h := NewHandler(newMemStorage(), sentDispatcher(), logging.Default())

	w, body := postPatient(t, h, `{"name":"Ahmed Ali","phone":"123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid phone format", body["error"])
}

func TestCreatePatientWebhookFailureIsolated(t *testing.T) {
	dispatcher := &stubDispatcher{result: webhook.Result{Error: "webhook returned 500", StatusCode: 500}}
	h := NewHandler(newMemStorage(), dispatcher, logging.Default())

	w, body := postPatient(t, h, `{"name":"Ahmed Ali","phone":"0501234567"}`)

	assert.Equal(t, http.StatusCreated, w.Code, "webhook failure must not fail the operation")
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["webhook_sent"])
}

func TestCreatePatientSkippedDispatchNotSent(t *testing.T) {
	dispatcher := &stubDispatcher{result: webhook.Result{Success: true, Skipped: true, SkipReason: webhook.SkipAgentDisabled}}
	h := NewHandler(newMemStorage(), dispatcher, logging.Default())

	_, body := postPatient(t, h, `{"name":"Ahmed Ali","phone":"0501234567"}`)
	assert.Equal(t, false, body["webhook_sent"])
}

func TestUpdatePatientPartial(t *testing.T) {
	store := newMemStorage()
	dispatcher := sentDispatcher()
	h := NewHandler(store, dispatcher, logging.Default())

	_, created := postPatient(t, h, `{"name":"Ahmed Ali","phone":"0501234567","address":"Riyadh"}`)
	id := created["patient"].(map[string]any)["id"].(string)

	req := httptest.NewRequest(http.MethodPatch, "/api/patients?id="+id, bytes.NewBufferString(`{"name":"Ahmed M. Ali"}`))
	w := httptest.NewRecorder()
	h.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := store.GetByPhone(context.Background(), "0501234567")
	assert.NoError(t, err)
	assert.Equal(t, "Ahmed M. Ali", stored.Name)
	assert.Equal(t, "Riyadh", *stored.Address, "unsupplied fields stay put")
	assert.Equal(t, []string{webhook.EventNewPatient, webhook.EventUpdatePatient}, dispatcher.events)
}

func TestUpdatePatientByPhoneSelector(t *testing.T) {
	store := newMemStorage()
	h := NewHandler(store, sentDispatcher(), logging.Default())
	_, _ = postPatient(t, h, `{"name":"Ahmed Ali","phone":"0501234567"}`)

	req := httptest.NewRequest(http.MethodPatch, "/api/patients?phone=0501234567", bytesReader(`{"address":"Jeddah"}`))
	w := httptest.NewRecorder()
	h.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	stored, _ := store.GetByPhone(context.Background(), "0501234567")
	assert.Equal(t, "Jeddah", *stored.Address)
}

func TestUpdatePatientNoSelector(t *testing.T) {
	h := NewHandler(newMemStorage(), sentDispatcher(), logging.Default())

	req := httptest.NewRequest(http.MethodPatch, "/api/patients", bytesReader(`{"name":"X Y"}`))
	w := httptest.NewRecorder()
	h.Update(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePatientNotFound(t *testing.T) {
	h := NewHandler(newMemStorage(), sentDispatcher(), logging.Default())

	req := httptest.NewRequest(http.MethodPatch, "/api/patients?phone=0509999999", bytesReader(`{"name":"X Y"}`))
	w := httptest.NewRecorder()
	h.Update(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePatientNoFields(t *testing.T) {
	store := newMemStorage()
	h := NewHandler(store, sentDispatcher(), logging.Default())
	_, _ = postPatient(t, h, `{"name":"Ahmed Ali","phone":"0501234567"}`)

	req := httptest.NewRequest(http.MethodPatch, "/api/patients?phone=0501234567", bytesReader(`{}`))
	w := httptest.NewRecorder()
	h.Update(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPatientByPhoneWithAge(t *testing.T) {
	store := newMemStorage()
	h := NewHandler(store, sentDispatcher(), logging.Default())
	_, _ = postPatient(t, h, `{"name":"Ahmed Ali","phone":"0501234567","date_of_birth":"1985-03-15"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/patients?phone=0501234567", nil)
	w := httptest.NewRecorder()
	h.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	_ = json.NewDecoder(w.Body).Decode(&body)
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, body["age"])
}

func TestListPatientsGenderFilter(t *testing.T) {
	store := newMemStorage()
	h := NewHandler(store, sentDispatcher(), logging.Default())
	_, _ = postPatient(t, h, `{"name":"Ahmed Ali","phone":"0501234567","gender":"male"}`)
	_, _ = postPatient(t, h, `{"name":"Sara Ahmed","phone":"0559876543","gender":"female"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/patients?gender=female", nil)
	w := httptest.NewRecorder()
	h.Get(w, req)

	var body patientListResponse
	_ = json.NewDecoder(w.Body).Decode(&body)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "Sara Ahmed", body.Patients[0].Name)
}

func bytesReader(s string) *bytes.Buffer {
	return bytes.NewBufferString(s)
}
