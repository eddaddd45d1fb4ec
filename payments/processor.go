// Package payments holds the external payment processor clients.
package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type OrderRequest struct {
	// ReferenceID is the local payment id, CustomID the booking id.
	ReferenceID string
	CustomID    string
	Description string
	Amount      decimal.Decimal
	Currency    string
}

type Order struct {
	ID           string
	Status       string
	ClientSecret string
}

type Capture struct {
	OrderID   string
	CaptureID string
	Status    string
}

// Processor creates orders and captures them against an external payment provider.
type Processor interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*Capture, error)
}

// Error is a failed processor call. Terminal means the order can never be captured
// and the local payment should be closed.
type Error struct {
	Op         string
	StatusCode int
	Issue      string
	Message    string
	Terminal   bool
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Issue != "" {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Op, msg, e.Issue, e.StatusCode)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}
