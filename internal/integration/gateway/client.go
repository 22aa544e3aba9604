package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/billcycle/billcycle/internal/config"
	"github.com/billcycle/billcycle/internal/domain/payment"
	ierr "github.com/billcycle/billcycle/internal/errors"
	"github.com/billcycle/billcycle/internal/httpclient"
	"github.com/billcycle/billcycle/internal/logger"
	"github.com/samber/lo"
)

// Client is an HTTP adapter for a synchronous charge gateway. It implements
// payment.Gateway over a JSON charge endpoint.
type Client struct {
	client httpclient.Client
	cfg    *config.GatewayConfig
	logger *logger.Logger
}

// NewClient creates a new gateway client
func NewClient(client httpclient.Client, cfg *config.GatewayConfig, logger *logger.Logger) payment.Gateway {
	return &Client{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

type chargeRequestBody struct {
	CustomerRef     string `json:"customer_ref"`
	PaymentMethodID string `json:"payment_method_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
}

type chargeResponseBody struct {
	Succeeded      bool   `json:"succeeded"`
	TransactionRef string `json:"transaction_ref"`
	ErrorMessage   string `json:"error_message"`
}

// Charge executes one charge attempt. A decline comes back as a failed
// ChargeResult; transport failures and timeouts come back as errors and the
// caller decides how to account for them.
func (c *Client) Charge(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	body, err := json.Marshal(chargeRequestBody{
		CustomerRef:     req.CustomerRef,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount.String(),
		Currency:        req.Currency,
		Description:     req.Description,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to marshal charge request").
			Mark(ierr.ErrSystem)
	}

	resp, err := c.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    c.cfg.BaseURL + "/v1/charges",
		Headers: map[string]string{
			"Authorization":   "Bearer " + c.cfg.APIKey,
			"Idempotency-Key": req.IdempotencyKey,
		},
		Body: body,
	})
	if err != nil {
		// A 402 is a decline, not a transport failure
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode == http.StatusPaymentRequired {
			return declinedResult(httpErr.Response), nil
		}
		return nil, ierr.WithError(err).
			WithHint("Payment gateway is unreachable").
			WithReportableDetails(map[string]any{
				"customer_ref": req.CustomerRef,
			}).
			Mark(ierr.ErrGateway)
	}

	var out chargeResponseBody
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment gateway returned an unexpected response").
			Mark(ierr.ErrGateway)
	}

	result := &payment.ChargeResult{Succeeded: out.Succeeded}
	if out.TransactionRef != "" {
		result.TransactionRef = lo.ToPtr(out.TransactionRef)
	}
	if out.ErrorMessage != "" {
		result.ErrorMessage = lo.ToPtr(out.ErrorMessage)
	}
	return result, nil
}

func declinedResult(body []byte) *payment.ChargeResult {
	var out chargeResponseBody
	reason := "payment declined"
	if err := json.Unmarshal(body, &out); err == nil && out.ErrorMessage != "" {
		reason = out.ErrorMessage
	}
	return &payment.ChargeResult{
		Succeeded:    false,
		ErrorMessage: lo.ToPtr(reason),
	}
}
