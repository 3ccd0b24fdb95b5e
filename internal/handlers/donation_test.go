package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/services"
)

type stubDonationStore struct {
	mu        sync.Mutex
	donations map[string]*models.Donation
}

func newStubDonationStore() *stubDonationStore {
	return &stubDonationStore{donations: make(map[string]*models.Donation)}
}

func (s *stubDonationStore) Create(_ context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *d
	s.donations[d.CheckoutRequestID] = &copied
	return nil
}

func (s *stubDonationStore) FindByCheckoutRequestID(_ context.Context, id string) (*models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (s *stubDonationStore) CompleteIfPending(_ context.Context, id string, amount int, receipt string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok || d.Status != models.DonationPending {
		return false, nil
	}
	d.Status = models.DonationCompleted
	d.Amount = amount
	d.MpesaReceipt = &receipt
	return true, nil
}

func (s *stubDonationStore) FailIfPending(_ context.Context, id, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok || d.Status != models.DonationPending {
		return false, nil
	}
	d.Status = models.DonationFailed
	d.MpesaReceipt = &reason
	return true, nil
}

func (s *stubDonationStore) ListCompletedByUser(_ context.Context, _ uuid.UUID) ([]models.Donation, error) {
	return nil, nil
}

func (s *stubDonationStore) status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.donations[id]; ok {
		return d.Status
	}
	return ""
}

type stubGateway struct {
	result *services.STKPushResult
	err    error
}

func (g *stubGateway) STKPush(_ context.Context, _ int, _, _, _ string) (*services.STKPushResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type noopAwarder struct{}

func (noopAwarder) EvaluateDonationBadges(_ context.Context, _ uuid.UUID) error { return nil }

func newDonationTestApp(store *stubDonationStore, gateway *stubGateway) *fiber.App {
	svc := services.NewDonationService(store, gateway, noopAwarder{}, nil)
	h := NewDonationHandler(svc)

	app := fiber.New()
	app.Post("/api/v1/donations/stk-push", h.InitiateSTKPush)
	app.Post("/api/v1/donations/callback", h.Callback)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestInitiateSTKPushRejectsInvalidInput(t *testing.T) {
	store := newStubDonationStore()
	app := newDonationTestApp(store, &stubGateway{result: &services.STKPushResult{CheckoutRequestID: "X"}})

	tests := []struct {
		name string
		body string
	}{
		{name: "zero amount", body: `{"amount":0,"phone":"0712345678"}`},
		{name: "missing phone", body: `{"amount":100}`},
		{name: "bad phone", body: `{"amount":100,"phone":"12345"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/api/v1/donations/stk-push", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}

	if len(store.donations) != 0 {
		t.Errorf("%d donations persisted for invalid input", len(store.donations))
	}
}

func TestInitiateSTKPushGatewayFailureIsGeneric500(t *testing.T) {
	store := newStubDonationStore()
	app := newDonationTestApp(store, &stubGateway{err: &services.GatewayRequestError{Status: 401, Body: "Invalid Access Token"}})

	resp := postJSON(t, app, "/api/v1/donations/stk-push", `{"amount":100,"phone":"0712345678"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	body := new(strings.Builder)
	if _, err := io.Copy(body, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if strings.Contains(body.String(), "Invalid Access Token") {
		t.Error("gateway detail leaked to the donor")
	}
}

func TestInitiateSTKPushSuccess(t *testing.T) {
	store := newStubDonationStore()
	app := newDonationTestApp(store, &stubGateway{result: &services.STKPushResult{
		CheckoutRequestID: "ws_CO_1",
		CustomerMessage:   "Success. Request accepted for processing",
	}})

	resp := postJSON(t, app, "/api/v1/donations/stk-push", `{"amount":2500,"phone":"0712345678"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var payload struct {
		Message string                  `json:"message"`
		Data    services.STKPushResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Data.CheckoutRequestID != "ws_CO_1" {
		t.Errorf("CheckoutRequestID = %q, want ws_CO_1", payload.Data.CheckoutRequestID)
	}
	if store.status("ws_CO_1") != models.DonationPending {
		t.Errorf("persisted status = %q, want PENDING", store.status("ws_CO_1"))
	}
}

func decodeAck(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var ack map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	return ack
}

func TestCallbackAlwaysAcknowledges(t *testing.T) {
	store := newStubDonationStore()
	app := newDonationTestApp(store, &stubGateway{})

	bodies := []struct {
		name string
		body string
	}{
		{name: "well-formed unknown id", body: `{"Body":{"stkCallback":{"CheckoutRequestID":"NOPE","ResultCode":0,"ResultDesc":"ok"}}}`},
		{name: "empty object", body: `{}`},
		{name: "garbage", body: `this is not json`},
	}

	for _, tt := range bodies {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/api/v1/donations/callback", tt.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			ack := decodeAck(t, resp)
			if code, ok := ack["ResultCode"].(float64); !ok || code != 0 {
				t.Errorf("ResultCode = %v, want 0", ack["ResultCode"])
			}
		})
	}
}

func TestCallbackSettlesDonation(t *testing.T) {
	store := newStubDonationStore()
	app := newDonationTestApp(store, &stubGateway{})

	store.Create(context.Background(), &models.Donation{
		Amount:            2500,
		Phone:             "254712345678",
		Status:            models.DonationPending,
		CheckoutRequestID: "ws_CO_1",
	})

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_1","ResultCode":0,"ResultDesc":"ok","CallbackMetadata":{"Item":[{"Name":"Amount","Value":2500},{"Name":"MpesaReceiptNumber","Value":"QXY987"}]}}}}`
	resp := postJSON(t, app, "/api/v1/donations/callback", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if store.status("ws_CO_1") != models.DonationCompleted {
		t.Fatalf("status = %q, want COMPLETED", store.status("ws_CO_1"))
	}
}
