package coins

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/worklink/worklink-api/internal/domain/wallet"
	"github.com/worklink/worklink-api/internal/pkg/response"
)

// WebhookHandler receives payment-provider callbacks. Each provider's
// payload is reduced to (order id, provider reference, success) before
// the order service is invoked. Signature verification belongs to the
// gateway fronting this service.
type WebhookHandler struct {
	svc *Service
}

// cardCallback is the card gateway's notification shape
type cardCallback struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"` // approved | declined
}

// mobileMoneyCallback is the mobile-money operator's notification shape
type mobileMoneyCallback struct {
	Reference   string `json:"reference"` // our order id
	OperatorTxn string `json:"operator_txn"`
	ResultCode  int    `json:"result_code"` // 0 = success
}

// NewWebhookHandler creates payment webhook handler
func NewWebhookHandler(svc *Service) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// HandleCallback dispatches on the provider path segment
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var (
		orderID    uuid.UUID
		paymentRef string
		success    bool
		err        error
	)

	switch provider {
	case "card":
		var payload cardCallback
		if err := response.DecodeJSON(r.Body, &payload); err != nil {
			response.BadRequest(w, "invalid JSON body")
			return
		}
		orderID, err = uuid.Parse(payload.OrderID)
		if err != nil {
			response.BadRequest(w, "invalid order_id")
			return
		}
		paymentRef = payload.TransactionID
		success = payload.Status == "approved"

	case "mobile_money":
		var payload mobileMoneyCallback
		if err := response.DecodeJSON(r.Body, &payload); err != nil {
			response.BadRequest(w, "invalid JSON body")
			return
		}
		orderID, err = uuid.Parse(payload.Reference)
		if err != nil {
			response.BadRequest(w, "invalid reference")
			return
		}
		paymentRef = payload.OperatorTxn
		success = payload.ResultCode == 0

	default:
		response.NotFound(w, "unknown payment provider")
		return
	}

	order, err := h.svc.ProcessPaymentCallback(r.Context(), orderID, paymentRef, success)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(w, "order not found")
		case errors.Is(err, ErrAlreadyProcessed):
			// The provider retried a delivered notification; the first
			// outcome stands.
			response.Conflict(w, "order already processed")
		case errors.Is(err, wallet.ErrCapacityExceeded):
			response.Conflict(w, "wallet capacity exceeded")
		case errors.Is(err, wallet.ErrWalletNotActive):
			response.Conflict(w, "wallet is frozen")
		default:
			log.Error().Err(err).
				Str("provider", provider).
				Str("order_id", orderID.String()).
				Msg("payment callback failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, order)
}

// Routes returns the unauthenticated webhook routes
func (h *WebhookHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/payments/{provider}", h.HandleCallback)
	return r
}
