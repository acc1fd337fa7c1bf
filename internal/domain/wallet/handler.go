package wallet

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worklink/worklink-api/internal/middleware"
	"github.com/worklink/worklink-api/internal/pkg/response"
)

// AuditLogger records admin operations. Implemented by the adminlog
// service; failures are swallowed by the implementation so an audit write
// never fails the admin operation itself.
type AuditLogger interface {
	Log(ctx context.Context, adminID uuid.UUID, action string, targetID uuid.UUID, targetType string, details map[string]interface{})
}

type Handler struct {
	svc   *Service
	audit AuditLogger
}

// NewHandler creates wallet handler
func NewHandler(svc *Service, audit AuditLogger) *Handler {
	return &Handler{svc: svc, audit: audit}
}

// Get returns the caller's wallet, creating it on first access
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	wlt, err := h.svc.GetWallet(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, wlt)
}

// ListTransactions returns a page of the caller's ledger
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
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

	items, total, err := h.svc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	if items == nil {
		items = []*Transaction{}
	}

	response.WithMeta(w, items, response.Meta{Total: total, Limit: limit, Offset: offset})
}

// Freeze blocks balance mutations on a user's wallet (admin)
func (h *Handler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, true)
}

// Unfreeze re-enables balance mutations on a user's wallet (admin)
func (h *Handler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, false)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, freeze bool) {
	targetID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	var (
		wlt    *Wallet
		action string
	)
	if freeze {
		wlt, err = h.svc.Freeze(r.Context(), targetID)
		action = "wallet_freeze"
	} else {
		wlt, err = h.svc.Unfreeze(r.Context(), targetID)
		action = "wallet_unfreeze"
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	if h.audit != nil {
		h.audit.Log(r.Context(), middleware.GetUserID(r.Context()), action, targetID, "wallet", map[string]interface{}{
			"status": wlt.Status,
		})
	}

	response.OK(w, wlt)
}

// Routes returns user-facing wallet routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.Get)
	r.Get("/transactions", h.ListTransactions)
	return r
}

// AdminRoutes returns admin wallet routes (freeze/unfreeze)
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{userID}/freeze", h.Freeze)
	r.Post("/{userID}/unfreeze", h.Unfreeze)
	return r
}
