package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/billcycle/billcycle/internal/config"
	"github.com/billcycle/billcycle/internal/domain/payment"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/httpclient"
	"github.com/billcycle/billcycle/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) payment.Gateway {
	t.Helper()

	cfg := config.GetDefaultConfig()
	cfg.Gateway.BaseURL = baseURL
	cfg.Gateway.APIKey = "sk_test"

	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	return NewClient(httpclient.NewDefaultClient(5*time.Second), &cfg.Gateway, log)
}

func chargeRequest() *payment.ChargeRequest {
	return &payment.ChargeRequest{
		CustomerRef:     "cust_1",
		PaymentMethodID: "pm_1",
		Amount:          decimal.NewFromInt(100),
		Currency:        "usd",
		IdempotencyKey:  "cycle_charge-abc123",
		Description:     "Recurring subscription charge",
	}
}

func TestChargeSuccess(t *testing.T) {
	var gotAuth, gotIdemKey string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/charges", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotIdemKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"succeeded":       true,
			"transaction_ref": "txn_42",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.Charge(context.Background(), chargeRequest())
	require.NoError(t, err)

	assert.True(t, result.Succeeded)
	require.NotNil(t, result.TransactionRef)
	assert.Equal(t, "txn_42", *result.TransactionRef)

	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "cycle_charge-abc123", gotIdemKey)
	assert.Equal(t, "100", gotBody["amount"])
	assert.Equal(t, "usd", gotBody["currency"])
}

func TestChargeDeclineViaBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"succeeded":     false,
			"error_message": "insufficient funds",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.Charge(context.Background(), chargeRequest())
	require.NoError(t, err)

	assert.False(t, result.Succeeded)
	require.NotNil(t, result.ErrorMessage)
	assert.Equal(t, "insufficient funds", *result.ErrorMessage)
}

func TestChargeDeclineVia402(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"succeeded":     false,
			"error_message": "card expired",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.Charge(context.Background(), chargeRequest())
	require.NoError(t, err, "a 402 is a decline, not a transport failure")

	assert.False(t, result.Succeeded)
	require.NotNil(t, result.ErrorMessage)
	assert.Equal(t, "card expired", *result.ErrorMessage)
}

func TestChargeGatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	client := newTestClient(t, srv.URL)
	result, err := client.Charge(context.Background(), chargeRequest())

	assert.Nil(t, result)
	assert.True(t, ierr.IsGateway(err))
}

func TestChargeMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Charge(context.Background(), chargeRequest())
	assert.True(t, ierr.IsGateway(err))
}
