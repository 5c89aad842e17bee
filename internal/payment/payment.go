// Package payment creates hosted checkout sessions with the payment
// processor.
package payment

import "context"

// CheckoutInput describes the single line item of a tour purchase.
type CheckoutInput struct {
	TourID        string
	TourName      string
	Summary       string
	ImageURL      string
	Price         float64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// UnitAmount is the price in cents.
func (in *CheckoutInput) UnitAmount() int64 {
	return int64(in.Price*100 + 0.5)
}

// CheckoutSession is the processor's hosted payment page.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Provider creates checkout sessions.
type Provider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
}
