package domain

import "time"

// PaymentIntent is the gateway-side order a requester pays against.
// The reservation keeps only GatewayOrderID as its paymentIntentRef.
type PaymentIntent struct {
	GatewayOrderID string    `json:"gateway_order_id"`
	Amount         int64     `json:"amount"` // minor units
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
}

// PaymentConfirmation is the payload a client callback or gateway
// webhook delivers after the payer acts.
type PaymentConfirmation struct {
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
	Signature      string `json:"signature"`
}
