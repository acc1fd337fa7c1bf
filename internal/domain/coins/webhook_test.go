package coins_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/worklink/worklink-api/internal/domain/coins"
)

type webhookAPIResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Status        string `json:"status"`
		CoinsCredited int64  `json:"coins_credited"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestWebhookCardCallback(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	walletSvc, svc := newTestServices(db)
	router := newWebhookRouter(svc)
	ctx := context.Background()
	userID := uuid.New()

	pkg := createTestPackage(t, svc, 100, 20, 500)
	order, err := svc.CreateOrder(ctx, userID, pkg.ID, coins.PaymentMethodCard)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	resp := performWebhookRequest(t, router, "/payments/card", map[string]interface{}{
		"order_id":       order.ID.String(),
		"transaction_id": "txn-card-1",
		"status":         "approved",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeWebhookResponse(t, resp)
	if !body.Success || body.Data.Status != "completed" || body.Data.CoinsCredited != 120 {
		t.Fatalf("expected completed order with 120 coins, got %+v", body.Data)
	}

	w, err := walletSvc.GetWallet(ctx, userID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if w.Balance != 120 {
		t.Fatalf("expected wallet balance 120, got %d", w.Balance)
	}
}

func TestWebhookCardDeclined(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	walletSvc, svc := newTestServices(db)
	router := newWebhookRouter(svc)
	ctx := context.Background()
	userID := uuid.New()

	pkg := createTestPackage(t, svc, 100, 0, 300)
	order, err := svc.CreateOrder(ctx, userID, pkg.ID, coins.PaymentMethodCard)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// Anything but "approved" is a failure
	resp := performWebhookRequest(t, router, "/payments/card", map[string]interface{}{
		"order_id":       order.ID.String(),
		"transaction_id": "txn-card-2",
		"status":         "declined",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decodeWebhookResponse(t, resp)
	if body.Data.Status != "failed" || body.Data.CoinsCredited != 0 {
		t.Fatalf("expected failed order with no coins, got %+v", body.Data)
	}

	w, err := walletSvc.GetWallet(ctx, userID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if w.Balance != 0 {
		t.Fatalf("declined payment must not credit, got balance %d", w.Balance)
	}
}

func TestWebhookMobileMoneyCallback(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	_, svc := newTestServices(db)
	router := newWebhookRouter(svc)
	ctx := context.Background()
	userID := uuid.New()

	pkg := createTestPackage(t, svc, 50, 10, 250)

	// result_code 0 is the operator's success signal
	order, err := svc.CreateOrder(ctx, userID, pkg.ID, coins.PaymentMethodMobileMoney)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	resp := performWebhookRequest(t, router, "/payments/mobile_money", map[string]interface{}{
		"reference":    order.ID.String(),
		"operator_txn": "mm-txn-1",
		"result_code":  0,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeWebhookResponse(t, resp)
	if body.Data.Status != "completed" || body.Data.CoinsCredited != 60 {
		t.Fatalf("expected completed order with 60 coins, got %+v", body.Data)
	}

	// A nonzero result code fails the order
	order, err = svc.CreateOrder(ctx, userID, pkg.ID, coins.PaymentMethodMobileMoney)
	if err != nil {
		t.Fatalf("create second order failed: %v", err)
	}
	resp = performWebhookRequest(t, router, "/payments/mobile_money", map[string]interface{}{
		"reference":    order.ID.String(),
		"operator_txn": "mm-txn-2",
		"result_code":  17,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body = decodeWebhookResponse(t, resp)
	if body.Data.Status != "failed" || body.Data.CoinsCredited != 0 {
		t.Fatalf("expected failed order, got %+v", body.Data)
	}
}

func TestWebhookReplayConflict(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	walletSvc, svc := newTestServices(db)
	router := newWebhookRouter(svc)
	ctx := context.Background()
	userID := uuid.New()

	pkg := createTestPackage(t, svc, 100, 0, 400)
	order, err := svc.CreateOrder(ctx, userID, pkg.ID, coins.PaymentMethodCard)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	payload := map[string]interface{}{
		"order_id":       order.ID.String(),
		"transaction_id": "txn-replay",
		"status":         "approved",
	}
	resp := performWebhookRequest(t, router, "/payments/card", payload)
	if resp.Code != http.StatusOK {
		t.Fatalf("first delivery expected 200, got %d", resp.Code)
	}

	resp = performWebhookRequest(t, router, "/payments/card", payload)
	if resp.Code != http.StatusConflict {
		t.Fatalf("replayed delivery expected 409, got %d", resp.Code)
	}
	body := decodeWebhookResponse(t, resp)
	if body.Success || body.Error == nil || body.Error.Code != "CONFLICT" {
		t.Fatalf("expected CONFLICT error envelope, got %s", resp.Body.String())
	}

	w, err := walletSvc.GetWallet(ctx, userID)
	if err != nil {
		t.Fatalf("get wallet failed: %v", err)
	}
	if w.Balance != 100 {
		t.Fatalf("replay must not credit twice, got balance %d", w.Balance)
	}
}

func TestWebhookUnknownProvider(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	_, svc := newTestServices(db)
	router := newWebhookRouter(svc)

	resp := performWebhookRequest(t, router, "/payments/paypal", map[string]interface{}{
		"order_id": uuid.NewString(),
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown provider, got %d", resp.Code)
	}
}

func TestWebhookUnknownOrder(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	_, svc := newTestServices(db)
	router := newWebhookRouter(svc)

	resp := performWebhookRequest(t, router, "/payments/card", map[string]interface{}{
		"order_id":       uuid.NewString(),
		"transaction_id": "txn-ghost",
		"status":         "approved",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d", resp.Code)
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	_, svc := newTestServices(db)
	router := newWebhookRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/payments/card", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	resp := performWebhookRequest(t, router, "/payments/card", map[string]interface{}{
		"order_id":       "not-a-uuid",
		"transaction_id": "txn-x",
		"status":         "approved",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad order id, got %d", resp.Code)
	}
}

func newWebhookRouter(svc *coins.Service) http.Handler {
	r := chi.NewRouter()
	r.Mount("/", coins.NewWebhookHandler(svc).Routes())
	return r
}

func performWebhookRequest(t *testing.T, handler http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		t.Fatalf("encode payload failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeWebhookResponse(t *testing.T, rec *httptest.ResponseRecorder) webhookAPIResponse {
	t.Helper()
	var out webhookAPIResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response failed: %v; body=%s", err, rec.Body.String())
	}
	return out
}
