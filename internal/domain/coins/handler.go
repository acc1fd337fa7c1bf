package coins

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worklink/worklink-api/internal/middleware"
	"github.com/worklink/worklink-api/internal/pkg/response"
	"github.com/worklink/worklink-api/internal/pkg/validator"
)

// AuditLogger records admin operations on package definitions
type AuditLogger interface {
	Log(ctx context.Context, adminID uuid.UUID, action string, targetID uuid.UUID, targetType string, details map[string]interface{})
}

type Handler struct {
	svc   *Service
	audit AuditLogger
}

type createOrderRequest struct {
	PackageID     string `json:"package_id" validate:"required,uuid"`
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
}

type packageRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	BaseCoins  int64  `json:"base_coins" validate:"required,gt=0"`
	BonusCoins int64  `json:"bonus_coins" validate:"gte=0"`
	Price      int64  `json:"price" validate:"required,gt=0"`
	IsActive   bool   `json:"is_active"`
}

// NewHandler creates coins handler
func NewHandler(svc *Service, audit AuditLogger) *Handler {
	return &Handler{svc: svc, audit: audit}
}

// ListPackages returns active coin packages
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListPackages(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	if items == nil {
		items = []*Package{}
	}
	response.OK(w, items)
}

// CreateOrder opens a pending order for the caller
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createOrderRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		response.BadRequest(w, "invalid package id")
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), userID, packageID, PaymentMethod(req.PaymentMethod))
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			response.NotFound(w, "coin package not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, order)
}

// GetOrder returns one of the caller's orders
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid order id")
		return
	}

	order, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			response.NotFound(w, "order not found")
			return
		}
		response.InternalError(w)
		return
	}

	// Orders are private to their owner
	if order.UserID != userID {
		response.NotFound(w, "order not found")
		return
	}

	response.OK(w, order)
}

// ListOrders returns the caller's orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	items, total, err := h.svc.ListOrders(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	if items == nil {
		items = []*Order{}
	}

	response.WithMeta(w, items, response.Meta{Total: total, Limit: limit, Offset: offset})
}

// CreatePackage creates a coin package (admin)
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req packageRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	pkg, err := h.svc.CreatePackage(r.Context(), &Package{
		Name:       req.Name,
		BaseCoins:  req.BaseCoins,
		BonusCoins: req.BonusCoins,
		Price:      req.Price,
		IsActive:   req.IsActive,
	})
	if err != nil {
		response.InternalError(w)
		return
	}

	h.logAdmin(r, "package_create", pkg)
	response.Created(w, pkg)
}

// UpdatePackage updates a coin package (admin)
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid package id")
		return
	}

	var req packageRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	pkg, err := h.svc.UpdatePackage(r.Context(), &Package{
		ID:         id,
		Name:       req.Name,
		BaseCoins:  req.BaseCoins,
		BonusCoins: req.BonusCoins,
		Price:      req.Price,
		IsActive:   req.IsActive,
	})
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			response.NotFound(w, "coin package not found")
			return
		}
		response.InternalError(w)
		return
	}

	h.logAdmin(r, "package_update", pkg)
	response.OK(w, pkg)
}

func (h *Handler) logAdmin(r *http.Request, action string, pkg *Package) {
	if h.audit == nil {
		return
	}
	h.audit.Log(r.Context(), middleware.GetUserID(r.Context()), action, pkg.ID, "coin_package", map[string]interface{}{
		"name":        pkg.Name,
		"total_coins": pkg.TotalCoins,
		"price":       pkg.Price,
		"is_active":   pkg.IsActive,
	})
}

// Routes returns user-facing coin routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/packages", h.ListPackages)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{id}", h.GetOrder)
	})
	return r
}

// AdminRoutes returns admin package management routes
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/packages", h.CreatePackage)
	r.Put("/packages/{id}", h.UpdatePackage)
	return r
}
