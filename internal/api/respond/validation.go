package respond

import (
	"errors"
	"net/http"

	"github.com/hakeemhq/clinic-agent-platform/internal/validate"
)

// ValidationError writes the 400 envelope for a validate sentinel error,
// keeping the Arabic wording identical across every entry point.
func ValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validate.ErrInvalidName):
		Error(w, http.StatusBadRequest, "Invalid name length", "الاسم يجب أن يكون بين 2 و 100 حرف")
	case errors.Is(err, validate.ErrInvalidPhone):
		Error(w, http.StatusBadRequest, "Invalid phone format", "رقم الهاتف غير صحيح، يجب أن يبدأ بـ 0 ويتكون من 10 أرقام")
	case errors.Is(err, validate.ErrInvalidDate):
		Error(w, http.StatusBadRequest, "Invalid date format", "صيغة التاريخ غير صحيحة، يجب أن تكون YYYY-MM-DD")
	case errors.Is(err, validate.ErrInvalidTime):
		Error(w, http.StatusBadRequest, "Invalid time format", "صيغة الوقت غير صحيحة، يجب أن تكون HH:MM (24 ساعة)")
	case errors.Is(err, validate.ErrInvalidGender):
		Error(w, http.StatusBadRequest, "Invalid gender", "الجنس يجب أن يكون male أو female")
	default:
		Error(w, http.StatusBadRequest, err.Error(), "البيانات المدخلة غير صالحة")
	}
}
