package adminlog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worklink/worklink-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

// NewHandler creates admin log handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns a filtered page of the audit trail
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := Filter{}

	if raw := r.URL.Query().Get("admin_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "invalid admin_id")
			return
		}
		filter.AdminID = &id
	}
	if action := r.URL.Query().Get("action"); action != "" {
		filter.Action = &action
	}

	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	items, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		response.InternalError(w)
		return
	}
	if items == nil {
		items = []*Action{}
	}

	response.WithMeta(w, items, response.Meta{Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

// AdminRoutes returns the audit trail routes
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}
