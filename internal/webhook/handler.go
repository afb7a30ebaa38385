package webhook

import (
	"fmt"
	"net/http"

	"github.com/hakeemhq/clinic-agent-platform/internal/api/respond"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

// Handler exposes the operator-triggered webhook test endpoint.
type Handler struct {
	dispatcher *Dispatcher
	logger     *logging.Logger
}

// NewHandler creates the webhook HTTP handler.
func NewHandler(dispatcher *Dispatcher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{dispatcher: dispatcher, logger: logger}
}

type testResponse struct {
	Success      bool   `json:"success"`
	MessageAr    string `json:"message_ar"`
	Error        string `json:"error,omitempty"`
	StatusCode   int    `json:"status_code,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`
}

// TestWebhook handles POST /api/settings/test-webhook.
func (h *Handler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	result := h.dispatcher.Test(r.Context())

	switch result.SkipReason {
	case SkipAgentDisabled:
		respond.Error(w, http.StatusBadRequest, "Agent is disabled", "الوكيل معطل. قم بتفعيله من الإعدادات.")
		return
	case SkipNoWebhookURL:
		respond.Error(w, http.StatusBadRequest, "No webhook URL configured", "لم يتم تكوين رابط الـ webhook.")
		return
	}

	if result.Error != "" {
		h.logger.Error("webhook test errored", "error", result.Error)
		respond.InternalError(w, "حدث خطأ أثناء اختبار الـ webhook")
		return
	}

	if !result.Success {
		// The endpoint answered but with a failure status. The test itself
		// completed, so this is a 200 carrying the diagnostic details.
		respond.JSON(w, http.StatusOK, testResponse{
			Success:      false,
			Error:        fmt.Sprintf("Webhook returned %d", result.StatusCode),
			MessageAr:    fmt.Sprintf("فشل الاتصال: الـ webhook أرجع حالة %d", result.StatusCode),
			StatusCode:   result.StatusCode,
			ResponseBody: result.ResponseBody,
		})
		return
	}

	respond.JSON(w, http.StatusOK, testResponse{
		Success:      true,
		MessageAr:    "تم الاتصال بنجاح! الـ webhook يعمل بشكل صحيح.",
		StatusCode:   result.StatusCode,
		ResponseBody: result.ResponseBody,
	})
}
