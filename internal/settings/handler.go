package settings

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/hakeemhq/clinic-agent-platform/internal/api/respond"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

// Handler exposes the settings panel endpoints.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates the settings HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

type settingsResponse struct {
	Success   bool              `json:"success"`
	Settings  map[string]string `json:"settings"`
	MessageAr string            `json:"message_ar"`
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	values, err := h.store.All(r.Context())
	if err != nil {
		h.logger.Error("failed to list settings", "error", err)
		respond.InternalError(w, "حدث خطأ أثناء جلب الإعدادات")
		return
	}
	respond.JSON(w, http.StatusOK, settingsResponse{
		Success:   true,
		Settings:  values,
		MessageAr: "تم جلب الإعدادات بنجاح",
	})
}

// UpdateSettings handles PUT /api/settings with a partial key-value map.
// Only supplied keys change.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body", "نص الطلب غير صالح")
		return
	}
	if len(updates) == 0 {
		respond.Error(w, http.StatusBadRequest, "No settings to update", "لا توجد إعدادات للتحديث")
		return
	}

	if raw, ok := updates[KeyWebhookURL]; ok {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			u, err := url.Parse(trimmed)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				respond.Error(w, http.StatusBadRequest, "Invalid webhook URL", "رابط الـ webhook غير صالح")
				return
			}
		}
		updates[KeyWebhookURL] = trimmed
	}
	if raw, ok := updates[KeyAgentEnabled]; ok {
		value := strings.TrimSpace(raw)
		if value != "true" && value != "false" {
			respond.Error(w, http.StatusBadRequest, "Invalid agent_enabled value", "قيمة تفعيل الوكيل يجب أن تكون true أو false")
			return
		}
		updates[KeyAgentEnabled] = value
	}

	for key, value := range updates {
		if err := h.store.Set(r.Context(), key, value); err != nil {
			h.logger.Error("failed to save setting", "key", key, "error", err)
			respond.InternalError(w, "حدث خطأ أثناء حفظ الإعدادات")
			return
		}
	}

	h.logger.Info("settings updated", "keys", len(updates))
	values, err := h.store.All(r.Context())
	if err != nil {
		h.logger.Error("failed to reload settings", "error", err)
		respond.InternalError(w, "حدث خطأ أثناء جلب الإعدادات")
		return
	}
	respond.JSON(w, http.StatusOK, settingsResponse{
		Success:   true,
		Settings:  values,
		MessageAr: "تم حفظ الإعدادات بنجاح",
	})
}
