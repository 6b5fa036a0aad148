// Package order holds the order model and the fulfillment controller
// that drives it through the status state machine.
package order

import (
	"time"

	"stockops/internal/status"
)

// PaymentStatus is the payment-side state, tracked separately from
// fulfillment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// StatusEvent is one entry of an order's append-only status history.
type StatusEvent struct {
	Status status.Status `json:"status"`
	At     int64         `json:"at"`
}

// Order is a checkout record. Events is append-only and the current
// status is always the status of the last event. Buyer and delivery
// references are opaque to this core.
type Order struct {
	ID         string        `json:"id"`
	Events     []StatusEvent `json:"events"`
	TotalCents int64         `json:"totalCents"`
	Payment    PaymentStatus `json:"payment"`
	BuyerID    string        `json:"buyerId"`
	DeliveryID string        `json:"deliveryId,omitempty"`
}

// New creates an order in pending with a single opening event.
func New(id string, totalCents int64, buyerID string) *Order {
	return &Order{
		ID:         id,
		Events:     []StatusEvent{{Status: status.Pending, At: NowUnix()}},
		TotalCents: totalCents,
		Payment:    PaymentPending,
		BuyerID:    buyerID,
	}
}

// CurrentStatus returns the status of the most recent event. An order
// with no recorded history reads as pending.
func (o *Order) CurrentStatus() status.Status {
	if len(o.Events) == 0 {
		return status.Pending
	}
	return o.Events[len(o.Events)-1].Status
}

// Progress returns the completion percentage of the current status.
func (o *Order) Progress() int { return status.Progress(o.CurrentStatus()) }

// NowUnix returns the current time in epoch seconds. Split for
// testability.
var NowUnix = func() int64 { return time.Now().UTC().Unix() }
