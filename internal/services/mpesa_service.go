package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const tokenRefreshLeeway = 30 * time.Second

// GatewayAuthError indicates the Daraja token exchange failed. Credentials are
// static configuration, so callers must not retry; the operator has to fix the
// deployment.
type GatewayAuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *GatewayAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mpesa auth failed: %v", e.Err)
	}
	return fmt.Sprintf("mpesa auth failed: status %d, body: %s", e.Status, e.Body)
}

func (e *GatewayAuthError) Unwrap() error { return e.Err }

// GatewayRequestError indicates the STK push submission was rejected. Callers
// must not resubmit: a duplicate push risks double-charging the donor.
type GatewayRequestError struct {
	Status int
	Body   string
	Err    error
}

func (e *GatewayRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mpesa stk push failed: %v", e.Err)
	}
	return fmt.Sprintf("mpesa stk push failed: status %d, body: %s", e.Status, e.Body)
}

func (e *GatewayRequestError) Unwrap() error { return e.Err }

// MpesaConfig carries the Daraja endpoints and credentials.
type MpesaConfig struct {
	AuthURL        string
	STKPushURL     string
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	CallbackURL    string
}

// MpesaClient wraps the two Daraja endpoints this service uses: the OAuth
// token exchange and the STK push submission. The bearer token is cached and
// refreshed shortly before expiry.
type MpesaClient struct {
	cfg        MpesaConfig
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	now func() time.Time
}

// NewMpesaClient constructs a client with a bounded request timeout.
func NewMpesaClient(cfg MpesaConfig) *MpesaClient {
	return &MpesaClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
}

type mpesaTokenResponse struct {
	AccessToken string `json:"access_token"`
	// Daraja returns expires_in as a string of seconds.
	ExpiresIn string `json:"expires_in"`
}

// AccessToken returns a cached bearer token, exchanging client credentials for
// a fresh one when the cache is empty or about to expire.
func (c *MpesaClient) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry.Add(-tokenRefreshLeeway)) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AuthURL, nil)
	if err != nil {
		return "", &GatewayAuthError{Err: err}
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ConsumerKey + ":" + c.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &GatewayAuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GatewayAuthError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &GatewayAuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var tokenResp mpesaTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", &GatewayAuthError{Err: fmt.Errorf("unmarshal token response: %w", err)}
	}
	if tokenResp.AccessToken == "" {
		return "", &GatewayAuthError{Status: resp.StatusCode, Body: "response missing access_token"}
	}

	lifetime := time.Hour
	if secs, err := strconv.Atoi(tokenResp.ExpiresIn); err == nil && secs > 0 {
		lifetime = time.Duration(secs) * time.Second
	}

	c.token = tokenResp.AccessToken
	c.tokenExpiry = c.now().Add(lifetime)
	return c.token, nil
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResult carries the provider fields returned at initiation. The
// CheckoutRequestID is the correlation key for the asynchronous callback.
type STKPushResult struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKPush submits a push payment request to the donor's phone. The request is
// signed with base64(shortcode + passkey + timestamp) per the Daraja scheme.
func (c *MpesaClient) STKPush(ctx context.Context, amount int, phone, accountRef, description string) (*STKPushResult, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.cfg.Shortcode + c.cfg.Passkey + timestamp))

	payload := stkPushRequest{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       phone,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &GatewayRequestError{Err: fmt.Errorf("marshal stk push payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.STKPushURL, bytes.NewReader(body))
	if err != nil {
		return nil, &GatewayRequestError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayRequestError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayRequestError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayRequestError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result STKPushResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &GatewayRequestError{Err: fmt.Errorf("unmarshal stk push response: %w", err)}
	}
	if result.CheckoutRequestID == "" {
		return nil, &GatewayRequestError{Status: resp.StatusCode, Body: "response missing CheckoutRequestID"}
	}

	return &result, nil
}
