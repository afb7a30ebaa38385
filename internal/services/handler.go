package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/hakeemhq/clinic-agent-platform/internal/api/respond"
	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

// Catalog is the read surface the handler needs.
type Catalog interface {
	ListActive(ctx context.Context) ([]*Service, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
}

// Handler serves the service catalog.
type Handler struct {
	repo   Catalog
	logger *logging.Logger
}

// NewHandler creates a new services handler.
func NewHandler(repo Catalog, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

type listResponse struct {
	Success   bool       `json:"success"`
	Services  []*Service `json:"services"`
	Count     int        `json:"count"`
	MessageAr string     `json:"message_ar"`
}

type itemResponse struct {
	Success   bool     `json:"success"`
	Service   *Service `json:"service"`
	MessageAr string   `json:"message_ar"`
}

// Get handles GET /api/services. With an id query parameter it returns one
// entry; otherwise it lists active services.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid service id", "معرّف الخدمة غير صالح")
			return
		}
		svc, err := h.repo.GetByID(r.Context(), parsed)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				respond.Error(w, http.StatusNotFound, "Service not found", "الخدمة غير موجودة")
				return
			}
			h.logger.Error("failed to load service", "id", id, "error", err)
			respond.InternalError(w, "حدث خطأ أثناء جلب الخدمة")
			return
		}
		respond.JSON(w, http.StatusOK, itemResponse{
			Success:   true,
			Service:   svc,
			MessageAr: fmt.Sprintf("تم العثور على الخدمة %s", svc.Name),
		})
		return
	}

	list, err := h.repo.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		respond.InternalError(w, "حدث خطأ أثناء جلب الخدمات")
		return
	}
	respond.JSON(w, http.StatusOK, listResponse{
		Success:   true,
		Services:  list,
		Count:     len(list),
		MessageAr: fmt.Sprintf("يوجد %d خدمة متاحة", len(list)),
	})
}
