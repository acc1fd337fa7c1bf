package platformfee

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worklink/worklink-api/internal/pkg/response"
	"github.com/worklink/worklink-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

type deductFeeRequest struct {
	ContractID string `json:"contract_id" validate:"required,uuid"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
}

// NewHandler creates platform fee handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// DeductFee records the platform's cut of a contract settlement
func (h *Handler) DeductFee(w http.ResponseWriter, r *http.Request) {
	var req deductFeeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		response.BadRequest(w, "invalid contract id")
		return
	}

	fee, err := h.svc.DeductFee(r.Context(), contractID, req.Amount)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			response.BadRequest(w, "amount must be greater than zero")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, fee)
}

// ListByContract returns the fee records for one contract
func (h *Handler) ListByContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuid.Parse(chi.URLParam(r, "contractID"))
	if err != nil {
		response.BadRequest(w, "invalid contract id")
		return
	}

	fees, err := h.svc.FeesByContract(r.Context(), contractID)
	if err != nil {
		response.InternalError(w)
		return
	}
	if fees == nil {
		fees = []*Fee{}
	}
	response.OK(w, fees)
}

// Stats aggregates the fee log over an optional from/to date range
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		response.BadRequest(w, "invalid from date, expected YYYY-MM-DD")
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		response.BadRequest(w, "invalid to date, expected YYYY-MM-DD")
		return
	}

	stats, err := h.svc.FeeStats(r.Context(), from, to)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, stats)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AdminRoutes returns admin fee routes
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.DeductFee)
	r.Get("/stats", h.Stats)
	r.Get("/contracts/{contractID}", h.ListByContract)
	return r
}
