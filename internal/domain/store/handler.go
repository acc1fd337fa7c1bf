package store

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worklink/worklink-api/internal/domain/wallet"
	"github.com/worklink/worklink-api/internal/middleware"
	"github.com/worklink/worklink-api/internal/pkg/response"
	"github.com/worklink/worklink-api/internal/pkg/validator"
)

// AuditLogger records admin operations on item definitions
type AuditLogger interface {
	Log(ctx context.Context, adminID uuid.UUID, action string, targetID uuid.UUID, targetType string, details map[string]interface{})
}

type Handler struct {
	svc   *Service
	audit AuditLogger
}

type itemRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Description  string `json:"description" validate:"max=500"`
	Price        int64  `json:"price" validate:"required,gt=0"`
	Type         string `json:"type" validate:"required,item_type"`
	DurationDays *int   `json:"duration_days" validate:"omitempty,gt=0"`
	IsActive     bool   `json:"is_active"`
}

// NewHandler creates store handler
func NewHandler(svc *Service, audit AuditLogger) *Handler {
	return &Handler{svc: svc, audit: audit}
}

// ListItems returns active store items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	if items == nil {
		items = []*Item{}
	}
	response.OK(w, items)
}

// Purchase buys a store item with coins
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid item id")
		return
	}

	entitlement, err := h.svc.Purchase(r.Context(), userID, itemID)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			response.NotFound(w, "store item not found")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			response.Conflict(w, "insufficient wallet balance")
		case errors.Is(err, wallet.ErrWalletNotActive):
			response.Conflict(w, "wallet is frozen")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, entitlement)
}

// ListEntitlements returns the caller's grants
func (h *Handler) ListEntitlements(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	filter := EntitlementFilter{
		ItemType: ItemType(r.URL.Query().Get("type")),
		Status:   EntitlementStatus(r.URL.Query().Get("status")),
	}

	items, err := h.svc.ListEntitlements(r.Context(), userID, filter)
	if err != nil {
		response.InternalError(w)
		return
	}
	if items == nil {
		items = []*Entitlement{}
	}
	response.OK(w, items)
}

// CheckEntitlement reports whether the caller holds an active grant for
// an item type
func (h *Handler) CheckEntitlement(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	itemType := r.URL.Query().Get("type")
	if itemType == "" {
		response.BadRequest(w, "type query parameter is required")
		return
	}

	active, err := h.svc.HasActiveEntitlement(r.Context(), userID, ItemType(itemType))
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"type": itemType, "active": active})
}

// CreateItem creates a store item (admin)
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	item, err := h.svc.CreateItem(r.Context(), &Item{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Type:         ItemType(req.Type),
		DurationDays: req.DurationDays,
		IsActive:     req.IsActive,
	})
	if err != nil {
		response.InternalError(w)
		return
	}

	h.logAdmin(r, "store_item_create", item)
	response.Created(w, item)
}

// UpdateItem updates a store item (admin)
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid item id")
		return
	}

	var req itemRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), &Item{
		ID:           id,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Type:         ItemType(req.Type),
		DurationDays: req.DurationDays,
		IsActive:     req.IsActive,
	})
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			response.NotFound(w, "store item not found")
			return
		}
		response.InternalError(w)
		return
	}

	h.logAdmin(r, "store_item_update", item)
	response.OK(w, item)
}

func (h *Handler) logAdmin(r *http.Request, action string, item *Item) {
	if h.audit == nil {
		return
	}
	h.audit.Log(r.Context(), middleware.GetUserID(r.Context()), action, item.ID, "store_item", map[string]interface{}{
		"name":      item.Name,
		"price":     item.Price,
		"type":      item.Type,
		"is_active": item.IsActive,
	})
}

// Routes returns user-facing store routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/items", h.ListItems)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/items/{id}/purchase", h.Purchase)
		r.Get("/entitlements", h.ListEntitlements)
		r.Get("/entitlements/check", h.CheckEntitlement)
	})
	return r
}

// AdminRoutes returns admin item management routes
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/items", h.CreateItem)
	r.Put("/items/{id}", h.UpdateItem)
	return r
}
