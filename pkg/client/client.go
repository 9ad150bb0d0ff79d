// Package client is a Go client for the storefront API. It mirrors the
// service's JSON contract one method per endpoint and distinguishes
// transport failures from business errors reported by the backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BusinessError is an error the backend reported in a response body. Its
// message is meant for the caller verbatim.
type BusinessError struct {
	StatusCode int
	Message    string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// Client talks to one storefront service instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarketData mirrors GET /data.
type MarketData struct {
	Prices  map[string]string `json:"prices"`
	History map[string][]struct {
		Date  string `json:"date"`
		Price string `json:"price"`
	} `json:"history"`
}

func (c *Client) GetData(ctx context.Context) (*MarketData, error) {
	var out MarketData
	if err := c.get(ctx, "/data", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSKUSuggestions(ctx context.Context, term string) ([]string, error) {
	var out []string
	path := "/api/sku-suggestions?term=" + url.QueryEscape(term)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SKUData mirrors GET /api/sku-data.
type SKUData struct {
	RequiresVerification bool            `json:"requiresVerification"`
	Submission           json.RawMessage `json:"submission,omitempty"`
}

func (c *Client) GetSKUData(ctx context.Context, sku, email string) (*SKUData, error) {
	var out SKUData
	path := "/api/sku-data?sku=" + url.QueryEscape(sku) + "&email=" + url.QueryEscape(email)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendOTP(ctx context.Context, email, sku string) error {
	return c.post(ctx, "/api/send-otp", map[string]string{"email": email, "sku": sku}, nil)
}

// VerifyOTPResult mirrors POST /api/verify-otp.
type VerifyOTPResult struct {
	Verified   bool            `json:"verified"`
	Error      string          `json:"error,omitempty"`
	Submission json.RawMessage `json:"submission,omitempty"`
}

func (c *Client) VerifyOTP(ctx context.Context, email, sku, otp string) (*VerifyOTPResult, error) {
	var out VerifyOTPResult
	if err := c.post(ctx, "/api/verify-otp", map[string]string{"email": email, "sku": sku, "otp": otp}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckoutForm mirrors POST /orders/checkout.
type CheckoutForm struct {
	SubmissionID int64  `json:"submissionId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	Country      string `json:"country"`
}

// CheckoutResult mirrors the checkout response.
type CheckoutResult struct {
	Success     bool   `json:"success"`
	AlreadyPaid bool   `json:"already_paid,omitempty"`
	OrderNumber string `json:"orderNumber"`
	RedirectURL string `json:"redirectUrl"`
}

func (c *Client) CreateOrder(ctx context.Context, form *CheckoutForm) (*CheckoutResult, error) {
	var out CheckoutResult
	if err := c.post(ctx, "/orders/checkout", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PaymentPage mirrors GET /orders/payment/:orderNumber.
type PaymentPage struct {
	Success         bool            `json:"success"`
	AlreadyPaid     bool            `json:"already_paid,omitempty"`
	Order           json.RawMessage `json:"order,omitempty"`
	OrderNumber     string          `json:"orderNumber,omitempty"`
	StripePublicKey string          `json:"stripePublicKey,omitempty"`
}

func (c *Client) GetPaymentPage(ctx context.Context, orderNumber string) (*PaymentPage, error) {
	var out PaymentPage
	if err := c.get(ctx, "/orders/payment/"+url.PathEscape(orderNumber), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessPaymentRequest mirrors POST /orders/process-payment. Set
// PaymentMethodID on the first pass and PaymentIntentID after a step-up
// challenge completed client-side.
type ProcessPaymentRequest struct {
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	OrderID         string `json:"order_id,omitempty"`
	OrderNumber     string `json:"order_number"`
}

// ProcessPaymentResult mirrors the process-payment response. A decline
// arrives as HTTP 200 with ErrorMessage set.
type ProcessPaymentResult struct {
	Success        bool   `json:"success"`
	AlreadyPaid    bool   `json:"already_paid,omitempty"`
	RequiresAction bool   `json:"requires_action,omitempty"`
	ClientSecret   string `json:"payment_intent_client_secret,omitempty"`
	ErrorMessage   string `json:"-"`
}

func (c *Client) ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) (*ProcessPaymentResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/orders/process-payment", req)
	if err != nil {
		return nil, err
	}

	// Declines come back 200 with an error envelope.
	var envelope struct {
		Success        bool   `json:"success"`
		AlreadyPaid    bool   `json:"already_paid"`
		RequiresAction bool   `json:"requires_action"`
		ClientSecret   string `json:"payment_intent_client_secret"`
		Error          *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := &ProcessPaymentResult{
		Success:        envelope.Success,
		AlreadyPaid:    envelope.AlreadyPaid,
		RequiresAction: envelope.RequiresAction,
		ClientSecret:   envelope.ClientSecret,
	}
	if envelope.Error != nil {
		result.ErrorMessage = envelope.Error.Message
	}
	return result, nil
}

// SubscriptionPayment mirrors POST /create-subscription.
type SubscriptionPayment struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
}

func (c *Client) CreateSubscription(ctx context.Context, email, sku, plan string) (*SubscriptionPayment, error) {
	var out SubscriptionPayment
	payload := map[string]string{"email": email, "sku": sku, "plan": plan}
	if err := c.post(ctx, "/create-subscription", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RetrieveSubscriptionPayment(ctx context.Context, subscriptionID string) (string, error) {
	var out struct {
		ClientSecret string `json:"clientSecret"`
	}
	payload := map[string]string{"subscriptionId": subscriptionID}
	if err := c.post(ctx, "/retrieve-subscription-payment", payload, &out); err != nil {
		return "", err
	}
	return out.ClientSecret, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return c.post(ctx, "/subscriptions/"+url.PathEscape(subscriptionID)+"/cancel", nil, nil)
}

func (c *Client) GetMySubscriptions(ctx context.Context, email string) (json.RawMessage, error) {
	var out struct {
		Subscriptions json.RawMessage `json:"subscriptions"`
	}
	if err := c.get(ctx, "/my-subscriptions?email="+url.QueryEscape(email), &out); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}

func (c *Client) GetClaims(ctx context.Context, email string) (json.RawMessage, error) {
	var out struct {
		Claims json.RawMessage `json:"claims"`
	}
	if err := c.get(ctx, "/claims?email="+url.QueryEscape(email), &out); err != nil {
		return nil, err
	}
	return out.Claims, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, &BusinessError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(body, resp.StatusCode),
		}
	}
	return body, nil
}

func extractErrorMessage(body []byte, statusCode int) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		var asString string
		if json.Unmarshal(envelope.Error, &asString) == nil && asString != "" {
			return asString
		}
		var asObject struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &asObject) == nil && asObject.Message != "" {
			return asObject.Message
		}
	}
	return fmt.Sprintf("request failed with status %d", statusCode)
}
