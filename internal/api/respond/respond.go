// Package respond writes the bilingual JSON envelopes served to both the
// clinic UI and the external automation agent. Every payload carries machine
// fields plus a display-ready Arabic message.
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the failure envelope.
type ErrorBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	MessageAr string `json:"message_ar"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the failure envelope with the given status.
func Error(w http.ResponseWriter, status int, errCode, messageAr string) {
	JSON(w, status, ErrorBody{Success: false, Error: errCode, MessageAr: messageAr})
}

// InternalError writes the generic 500 envelope. The detailed error stays in
// the logs; callers only see a generic Arabic message.
func InternalError(w http.ResponseWriter, messageAr string) {
	Error(w, http.StatusInternalServerError, "Unexpected error", messageAr)
}
