package apiclient

import (
	"context"
	"net/http"
)

// PaymentConfig asks the backend to create a pending order for the given
// products and to issue the payment widget configuration for it.
func (c *Client) PaymentConfig(ctx context.Context, in PaymentConfigRequest) (PaymentConfigResponse, error) {
	r, err := c.Request(ctx, "/payment/payphone/config", RequestOptions{Method: http.MethodPost, Body: in})
	if err != nil {
		return PaymentConfigResponse{}, err
	}
	return decodeOne[PaymentConfigResponse](r)
}

// ConfirmPayment finalizes the order identified by the payment provider's
// transaction id and the merchant's client transaction id.
func (c *Client) ConfirmPayment(ctx context.Context, id int64, clientTransactionID string) (PaymentConfirmation, error) {
	r, err := c.Request(ctx, "/payment/payphone/confirm", RequestOptions{
		Method: http.MethodPost,
		Body: struct {
			ID                  int64  `json:"id"`
			ClientTransactionID string `json:"clientTransactionId"`
		}{id, clientTransactionID},
	})
	if err != nil {
		return PaymentConfirmation{}, err
	}
	return decodeOne[PaymentConfirmation](r)
}
