package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type darajaStub struct {
	tokenCalls int
	pushCalls  int
	authStatus int
	pushStatus int
	lastPush   stkPushRequest
	lastAuth   string
}

func newDarajaStub() (*darajaStub, *httptest.Server) {
	stub := &darajaStub{authStatus: http.StatusOK, pushStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		stub.tokenCalls++
		stub.lastAuth = r.Header.Get("Authorization")
		if stub.authStatus != http.StatusOK {
			w.WriteHeader(stub.authStatus)
			w.Write([]byte(`{"errorMessage":"Bad Request - Invalid Credentials"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token-abc","expires_in":"3599"}`))
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		stub.pushCalls++
		if stub.pushStatus != http.StatusOK {
			w.WriteHeader(stub.pushStatus)
			w.Write([]byte(`{"errorMessage":"Invalid Access Token"}`))
			return
		}
		json.NewDecoder(r.Body).Decode(&stub.lastPush)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":"ws_CO_191220191020363925","ResponseCode":"0","ResponseDescription":"Success. Request accepted for processing","CustomerMessage":"Success. Request accepted for processing"}`))
	})
	return stub, httptest.NewServer(mux)
}

func stubClient(srv *httptest.Server) *MpesaClient {
	return NewMpesaClient(MpesaConfig{
		AuthURL:        srv.URL + "/oauth/v1/generate",
		STKPushURL:     srv.URL + "/mpesa/stkpush/v1/processrequest",
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		Shortcode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://example.org/api/v1/donations/callback",
	})
}

func TestAccessTokenExchange(t *testing.T) {
	stub, srv := newDarajaStub()
	defer srv.Close()
	client := stubClient(srv)

	token, err := client.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if token != "token-abc" {
		t.Errorf("token = %q, want token-abc", token)
	}

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))
	if stub.lastAuth != wantAuth {
		t.Errorf("Authorization = %q, want %q", stub.lastAuth, wantAuth)
	}
}

func TestAccessTokenCachedUntilExpiry(t *testing.T) {
	stub, srv := newDarajaStub()
	defer srv.Close()
	client := stubClient(srv)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		if _, err := client.AccessToken(context.Background()); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if stub.tokenCalls != 1 {
		t.Fatalf("token exchanged %d times, want cached after first", stub.tokenCalls)
	}

	// Within the refresh leeway of the 3599s lifetime the cache must miss.
	current = current.Add(3590 * time.Second)
	if _, err := client.AccessToken(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if stub.tokenCalls != 2 {
		t.Fatalf("token exchanged %d times, want refresh near expiry", stub.tokenCalls)
	}
}

func TestAccessTokenAuthFailure(t *testing.T) {
	stub, srv := newDarajaStub()
	defer srv.Close()
	stub.authStatus = http.StatusBadRequest
	client := stubClient(srv)

	_, err := client.AccessToken(context.Background())
	var authErr *GatewayAuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want GatewayAuthError", err)
	}
	if authErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", authErr.Status)
	}
}

func TestSTKPushSignsAndSubmits(t *testing.T) {
	stub, srv := newDarajaStub()
	defer srv.Close()
	client := stubClient(srv)

	fixed := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)
	client.now = func() time.Time { return fixed }

	result, err := client.STKPush(context.Background(), 1500, "254712345678", "FOTY_Donation", "Donation to Friends of the Youth")
	if err != nil {
		t.Fatalf("STKPush: %v", err)
	}
	if result.CheckoutRequestID != "ws_CO_191220191020363925" {
		t.Errorf("CheckoutRequestID = %q", result.CheckoutRequestID)
	}

	push := stub.lastPush
	if push.Timestamp != "20250601123045" {
		t.Errorf("Timestamp = %q, want 20250601123045", push.Timestamp)
	}
	wantPassword := base64.StdEncoding.EncodeToString([]byte("174379" + "passkey" + "20250601123045"))
	if push.Password != wantPassword {
		t.Errorf("Password = %q, want base64(shortcode+passkey+timestamp)", push.Password)
	}
	if push.TransactionType != "CustomerPayBillOnline" {
		t.Errorf("TransactionType = %q", push.TransactionType)
	}
	if push.Amount != 1500 {
		t.Errorf("Amount = %d, want 1500", push.Amount)
	}
	if push.PartyA != "254712345678" || push.PhoneNumber != "254712345678" {
		t.Errorf("PartyA/PhoneNumber = %q/%q, want donor phone", push.PartyA, push.PhoneNumber)
	}
	if push.PartyB != "174379" || push.BusinessShortCode != "174379" {
		t.Errorf("PartyB/BusinessShortCode = %q/%q, want shortcode", push.PartyB, push.BusinessShortCode)
	}
	if push.CallBackURL != "https://example.org/api/v1/donations/callback" {
		t.Errorf("CallBackURL = %q", push.CallBackURL)
	}
}

func TestSTKPushRejection(t *testing.T) {
	stub, srv := newDarajaStub()
	defer srv.Close()
	stub.pushStatus = http.StatusUnauthorized
	client := stubClient(srv)

	_, err := client.STKPush(context.Background(), 100, "254712345678", "ref", "desc")
	var reqErr *GatewayRequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want GatewayRequestError", err)
	}
	if reqErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", reqErr.Status)
	}
}

func TestSTKPushAuthFailureShortCircuits(t *testing.T) {
	stub, srv := newDarajaStub()
	defer srv.Close()
	stub.authStatus = http.StatusBadRequest
	client := stubClient(srv)

	_, err := client.STKPush(context.Background(), 100, "254712345678", "ref", "desc")
	var authErr *GatewayAuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want GatewayAuthError", err)
	}
	if stub.pushCalls != 0 {
		t.Errorf("push endpoint reached %d times without a token", stub.pushCalls)
	}
}
