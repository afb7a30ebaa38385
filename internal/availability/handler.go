package availability

import (
	"fmt"
	"net/http"

	"github.com/hakeemhq/clinic-agent-platform/internal/api/respond"
	"github.com/hakeemhq/clinic-agent-platform/internal/validate"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

// Handler handles GET /api/availability.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

// NewHandler creates a new availability handler.
func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

type slotResponse struct {
	Success   bool   `json:"success"`
	Available bool   `json:"available"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	MessageAr string `json:"message_ar"`
}

type dayResponse struct {
	Success        bool     `json:"success"`
	Date           string   `json:"date"`
	BookedTimes    []string `json:"booked_times"`
	AvailableTimes []string `json:"available_times"`
	TotalBooked    int      `json:"total_booked"`
	TotalAvailable int      `json:"total_available"`
	MessageAr      string   `json:"message_ar"`
}

// Check handles GET /api/availability?date=&time=. With a time it answers for
// the exact slot; date alone returns the whole day.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("date") == "" {
		respond.Error(w, http.StatusBadRequest, "Date is required", "التاريخ مطلوب")
		return
	}
	date, err := validate.Date(r.URL.Query().Get("date"))
	if err != nil {
		respond.ValidationError(w, err)
		return
	}

	if raw := r.URL.Query().Get("time"); raw != "" {
		timeOfDay, err := validate.Time(raw)
		if err != nil {
			respond.ValidationError(w, err)
			return
		}
		free, err := h.engine.SlotFree(r.Context(), date, timeOfDay)
		if err != nil {
			h.logger.Error("slot check failed", "date", date, "time", timeOfDay, "error", err)
			respond.InternalError(w, "حدث خطأ في التحقق من توفر الموعد")
			return
		}
		msg := fmt.Sprintf("الموعد متاح في %s الساعة %s", date, timeOfDay)
		if !free {
			msg = fmt.Sprintf("الموعد غير متاح في %s الساعة %s، يرجى اختيار وقت آخر", date, timeOfDay)
		}
		respond.JSON(w, http.StatusOK, slotResponse{
			Success:   true,
			Available: free,
			Date:      date,
			Time:      timeOfDay,
			MessageAr: msg,
		})
		return
	}

	day, err := h.engine.Day(r.Context(), date)
	if err != nil {
		h.logger.Error("day availability failed", "date", date, "error", err)
		respond.InternalError(w, "حدث خطأ في التحقق من توفر الموعد")
		return
	}

	msg := fmt.Sprintf("يوجد %d موعد متاح في %s", len(day.AvailableTimes), date)
	if len(day.AvailableTimes) == 0 {
		msg = fmt.Sprintf("لا توجد مواعيد متاحة في %s", date)
	}
	respond.JSON(w, http.StatusOK, dayResponse{
		Success:        true,
		Date:           day.Date,
		BookedTimes:    day.BookedTimes,
		AvailableTimes: day.AvailableTimes,
		TotalBooked:    len(day.BookedTimes),
		TotalAvailable: len(day.AvailableTimes),
		MessageAr:      msg,
	})
}
