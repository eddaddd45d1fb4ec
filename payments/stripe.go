package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeClient backs card payments with manually captured PaymentIntents, so the
// order/capture split matches PayPal's.
type StripeClient struct {
	api *client.API
}

// NewStripeClient builds a client for key. backends may be nil; tests pass one
// pointed at a local server.
func NewStripeClient(key string, backends *stripe.Backends) *StripeClient {
	return &StripeClient{api: client.New(key, backends)}
}

func (s *StripeClient) CreateOrder(ctx context.Context, r OrderRequest) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(r.Amount.Shift(2).Round(0).IntPart()),
		Currency:      stripe.String(strings.ToLower(r.Currency)),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Description:   stripe.String(r.Description),
	}
	params.Context = ctx
	params.AddMetadata("payment_id", r.ReferenceID)
	params.AddMetadata("booking_id", r.CustomID)
	params.SetIdempotencyKey("order-" + r.ReferenceID)

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, stripeError("stripe create order", err)
	}
	return &Order{ID: pi.ID, Status: string(pi.Status), ClientSecret: pi.ClientSecret}, nil
}

func (s *StripeClient) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Capture(orderID, params)
	if err != nil {
		var serr *stripe.Error
		if !errors.As(err, &serr) || serr.Code != stripe.ErrorCodePaymentIntentUnexpectedState {
			return nil, stripeError("stripe capture order", err)
		}
		// already captured by an earlier attempt
		getParams := &stripe.PaymentIntentParams{}
		getParams.Context = ctx
		getParams.AddExpand("latest_charge")
		existing, gerr := s.api.PaymentIntents.Get(orderID, getParams)
		if gerr != nil {
			return nil, stripeError("stripe get order", gerr)
		}
		if existing.Status != stripe.PaymentIntentStatusSucceeded {
			return nil, stripeError("stripe capture order", err)
		}
		pi = existing
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
	case stripe.PaymentIntentStatusCanceled:
		return nil, &Error{Op: "stripe capture order", Issue: string(pi.Status), Message: "payment intent was canceled", Terminal: true}
	default:
		return nil, &Error{Op: "stripe capture order", Issue: string(pi.Status), Message: "payment intent is not captured"}
	}

	captureID := pi.ID
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		captureID = pi.LatestCharge.ID
	}
	return &Capture{OrderID: orderID, CaptureID: captureID, Status: string(pi.Status)}, nil
}

// stripeError converts a stripe-go error. Card errors are terminal for the intent.
func stripeError(op string, err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return &Error{Op: op, Err: err}
	}
	return &Error{
		Op:         op,
		StatusCode: serr.HTTPStatusCode,
		Issue:      string(serr.Code),
		Message:    serr.Msg,
		Terminal:   serr.Type == stripe.ErrorTypeCard,
		Err:        err,
	}
}
