package availability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func doCheck(t *testing.T, h *Handler, url string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	var body map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestCheckRequiresDate(t *testing.T) {
	h := NewHandler(NewEngine(&memSlots{times: map[string][]string{}}), nil)

	rec, body := doCheck(t, h, "/api/availability")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "التاريخ مطلوب", body["message_ar"])
}

func TestCheckRejectsBadDate(t *testing.T) {
	h := NewHandler(NewEngine(&memSlots{times: map[string][]string{}}), nil)

	rec, _ := doCheck(t, h, "/api/availability?date=15-03-2025")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doCheck(t, h, "/api/availability?date=2025-02-30")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckRejectsBadTime(t *testing.T) {
	h := NewHandler(NewEngine(&memSlots{times: map[string][]string{}}), nil)

	rec, _ := doCheck(t, h, "/api/availability?date=2025-03-15&time=25:00")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckExactSlot(t *testing.T) {
	h := NewHandler(NewEngine(&memSlots{times: map[string][]string{
		"2025-03-15": {"10:30"},
	}}), nil)

	rec, body := doCheck(t, h, "/api/availability?date=2025-03-15&time=10:30")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["available"])
	assert.Equal(t, "الموعد غير متاح في 2025-03-15 الساعة 10:30، يرجى اختيار وقت آخر", body["message_ar"])

	rec, body = doCheck(t, h, "/api/availability?date=2025-03-15&time=11:00")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["available"])
	assert.Equal(t, "الموعد متاح في 2025-03-15 الساعة 11:00", body["message_ar"])
}

func TestCheckWholeDay(t *testing.T) {
	h := NewHandler(NewEngine(&memSlots{times: map[string][]string{
		"2025-03-15": {"09:00"},
	}}), nil)

	rec, body := doCheck(t, h, "/api/availability?date=2025-03-15")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total_booked"])
	assert.Equal(t, float64(23), body["total_available"])
	assert.Equal(t, "يوجد 23 موعد متاح في 2025-03-15", body["message_ar"])
}

func TestCheckFullyBookedDay(t *testing.T) {
	h := NewHandler(NewEngine(&memSlots{times: map[string][]string{
		"2025-03-15": WorkingHours(),
	}}), nil)

	rec, body := doCheck(t, h, "/api/availability?date=2025-03-15")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["total_available"])
	assert.Equal(t, "لا توجد مواعيد متاحة في 2025-03-15", body["message_ar"])
}
