package paymentflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spectra-metals/spectra-server/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type processPaymentRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	OrderNumber     string `json:"order_number"`
}

// paymentBackend is an httptest stand-in for the storefront service,
// recording every process-payment round it sees.
type paymentBackend struct {
	mu       sync.Mutex
	rounds   []processPaymentRequest
	handlers map[string]http.HandlerFunc
}

func newPaymentBackend() *paymentBackend {
	return &paymentBackend{handlers: map[string]http.HandlerFunc{}}
}

func (b *paymentBackend) on(pattern string, handler http.HandlerFunc) {
	b.handlers[pattern] = handler
}

func (b *paymentBackend) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range b.handlers {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func (b *paymentBackend) recordRound(r *http.Request) processPaymentRequest {
	var round processPaymentRequest
	_ = json.NewDecoder(r.Body).Decode(&round)
	b.mu.Lock()
	b.rounds = append(b.rounds, round)
	b.mu.Unlock()
	return round
}

func (b *paymentBackend) roundCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rounds)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSubscriptionInitiatorCreatesIntent(t *testing.T) {
	backend := newPaymentBackend()
	backend.on("/create-subscription", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "owner@example.com", payload["email"])
		assert.Equal(t, "GOLD-001", payload["sku"])
		assert.Equal(t, "monthly", payload["plan"])
		writeJSON(w, http.StatusOK, map[string]string{
			"subscriptionId": "sub_1",
			"clientSecret":   "secret_1",
		})
	})
	server := backend.serve(t)

	initiator := &SubscriptionInitiator{
		Client: client.New(server.URL),
		Email:  "owner@example.com",
		SKU:    "GOLD-001",
		Plan:   "monthly",
	}

	intent, err := initiator.CreateIntent(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "secret_1", intent.ClientSecret)
	assert.Equal(t, "sub_1", intent.CorrelationID)
}

func TestResumeSubscriptionInitiator(t *testing.T) {
	backend := newPaymentBackend()
	backend.on("/retrieve-subscription-payment", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "sub_1", payload["subscriptionId"])
		writeJSON(w, http.StatusOK, map[string]string{"clientSecret": "secret_2"})
	})
	server := backend.serve(t)

	initiator := &ResumeSubscriptionInitiator{
		Client:         client.New(server.URL),
		SubscriptionID: "sub_1",
	}

	intent, err := initiator.CreateIntent(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "secret_2", intent.ClientSecret)
	assert.Equal(t, "sub_1", intent.CorrelationID)
}

func TestOrderPaymentInitiatorAlreadyPaid(t *testing.T) {
	backend := newPaymentBackend()
	backend.on("/orders/payment/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"already_paid": true,
			"orderNumber":  "ORD-1",
		})
	})
	server := backend.serve(t)

	initiator := &OrderPaymentInitiator{Client: client.New(server.URL), OrderNumber: "ORD-1"}

	_, err := initiator.CreateIntent(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	// Through the flow the signal arrives undisguised, so the caller can
	// route to the already-paid view instead of suggesting a retry.
	flow := NewFlow(context.Background(), initiator, &fakeConfirmer{}, nil, zap.NewNop())
	err = flow.Initiate(&fakeElement{})
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	var netErr *NetworkError
	assert.False(t, errors.As(err, &netErr))
}

func TestInitiateSurfacesBackendMessageVerbatim(t *testing.T) {
	backend := newPaymentBackend()
	backend.on("/create-subscription", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Submission not found"})
	})
	server := backend.serve(t)

	initiator := &SubscriptionInitiator{
		Client: client.New(server.URL),
		Email:  "owner@example.com",
		SKU:    "GOLD-MISSING",
		Plan:   "monthly",
	}
	flow := NewFlow(context.Background(), initiator, &fakeConfirmer{}, nil, zap.NewNop())

	err := flow.Initiate(&fakeElement{})

	require.Error(t, err)
	var businessErr *client.BusinessError
	require.ErrorAs(t, err, &businessErr)
	assert.Equal(t, "Submission not found", err.Error())
	assert.Equal(t, StateIdle, flow.State())
}

func TestSubmitSurfacesBackendMessageVerbatim(t *testing.T) {
	backend := newPaymentBackend()
	backend.on("/orders/payment/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":         true,
			"stripePublicKey": "pk_test_1",
		})
	})
	backend.on("/orders/process-payment", func(w http.ResponseWriter, r *http.Request) {
		backend.recordRound(r)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found"})
	})
	server := backend.serve(t)

	apiClient := client.New(server.URL)
	confirmer := &OrderConfirmer{
		Client:      apiClient,
		OrderNumber: "ORD-GONE",
		Tokenize:    func(ctx context.Context) (string, error) { return "pm_card", nil },
		Challenge:   func(ctx context.Context, intentID string) error { return nil },
	}
	initiator := &OrderPaymentInitiator{Client: apiClient, OrderNumber: "ORD-GONE"}
	flow := NewFlow(context.Background(), initiator, confirmer, nil, zap.NewNop())
	element := &fakeElement{}
	require.NoError(t, flow.Initiate(element))
	element.fireReady()

	err := flow.Submit("https://example.com/return")

	require.Error(t, err)
	var businessErr *client.BusinessError
	require.ErrorAs(t, err, &businessErr)
	assert.Equal(t, "Order not found", err.Error())
	assert.Equal(t, StateWidgetReady, flow.State())
}

func TestOrderConfirmerStepUpConfirmsSameIntent(t *testing.T) {
	backend := newPaymentBackend()
	backend.on("/orders/payment/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":         true,
			"stripePublicKey": "pk_test_1",
		})
	})
	backend.on("/orders/process-payment", func(w http.ResponseWriter, r *http.Request) {
		round := backend.recordRound(r)
		switch {
		case round.PaymentMethodID != "":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"requires_action":              true,
				"payment_intent_client_secret": "pi_1_secret_xyz",
			})
		case round.PaymentIntentID == "pi_1":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unexpected round"})
		}
	})
	server := backend.serve(t)

	apiClient := client.New(server.URL)
	var challenged []string
	confirmer := &OrderConfirmer{
		Client:      apiClient,
		OrderNumber: "ORD-1",
		Tokenize:    func(ctx context.Context) (string, error) { return "pm_card", nil },
		Challenge: func(ctx context.Context, intentID string) error {
			challenged = append(challenged, intentID)
			return nil
		},
	}
	initiator := &OrderPaymentInitiator{Client: apiClient, OrderNumber: "ORD-1"}

	var outcomes []Outcome
	flow := NewFlow(context.Background(), initiator, confirmer,
		func(o Outcome) { outcomes = append(outcomes, o) }, zap.NewNop())
	element := &fakeElement{}
	require.NoError(t, flow.Initiate(element))
	element.fireReady()

	err := flow.Submit("https://example.com/return")

	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, flow.State())
	assert.Equal(t, []string{"pi_1"}, challenged)

	// Two rounds hit the backend: tokenized first pass, then the same
	// intent re-confirmed after the challenge.
	require.Equal(t, 2, backend.roundCount())
	assert.Equal(t, "pm_card", backend.rounds[0].PaymentMethodID)
	assert.Empty(t, backend.rounds[0].PaymentIntentID)
	assert.Equal(t, "pi_1", backend.rounds[1].PaymentIntentID)
	assert.Empty(t, backend.rounds[1].PaymentMethodID)
	assert.Equal(t, "ORD-1", backend.rounds[1].OrderNumber)

	// The correlation id handed to the outcome is the one the initiator
	// produced, unchanged by the step-up round trip.
	require.Len(t, outcomes, 1)
	assert.Equal(t, "ORD-1", outcomes[0].CorrelationID)
}

func TestOrderConfirmerDeclineVerbatim(t *testing.T) {
	backend := newPaymentBackend()
	backend.on("/orders/payment/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":         true,
			"stripePublicKey": "pk_test_1",
		})
	})
	backend.on("/orders/process-payment", func(w http.ResponseWriter, r *http.Request) {
		backend.recordRound(r)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"error": map[string]string{"message": "Your card has insufficient funds."},
		})
	})
	server := backend.serve(t)

	apiClient := client.New(server.URL)
	confirmer := &OrderConfirmer{
		Client:      apiClient,
		OrderNumber: "ORD-1",
		Tokenize:    func(ctx context.Context) (string, error) { return "pm_card", nil },
		Challenge:   func(ctx context.Context, intentID string) error { return nil },
	}
	initiator := &OrderPaymentInitiator{Client: apiClient, OrderNumber: "ORD-1"}
	flow := NewFlow(context.Background(), initiator, confirmer, nil, zap.NewNop())
	element := &fakeElement{}
	require.NoError(t, flow.Initiate(element))
	element.fireReady()

	err := flow.Submit("https://example.com/return")

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "Your card has insufficient funds.", declined.Message)
	assert.Equal(t, StateDeclined, flow.State())
}

func TestIntentIDFromSecret(t *testing.T) {
	assert.Equal(t, "pi_123", intentIDFromSecret("pi_123_secret_abc"))
	assert.Equal(t, "pi_123", intentIDFromSecret("pi_123"))
}
