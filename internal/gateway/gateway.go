// Package gateway talks to the external payment provider. The rest of the
// system only cares about two events: a payment was initialized and a payment
// was verified.
package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrGatewayFailure is returned when the provider rejects a call or answers
// with a non-success status.
var ErrGatewayFailure = errors.New("payment gateway failure")

// InitializeRequest asks the provider to start a transaction.
type InitializeRequest struct {
	// Email is the payer contact the provider bills.
	Email     string
	Amount    decimal.Decimal
	Reference string
}

// Authorization is the provider's handle for a started transaction.
type Authorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Result is the provider's verdict on a transaction.
type Result int

const (
	// ResultPending means checkout has not finished. The transaction may
	// still succeed, so callers should ask again later.
	ResultPending Result = iota
	ResultSucceeded
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSucceeded:
		return "succeeded"
	case ResultFailed:
		return "failed"
	default:
		return "pending"
	}
}

// ResultOf classifies a provider transaction status. Only "failed" and
// "reversed" are final failures; "ongoing", "pending", "queued", "abandoned"
// and unknown statuses are still open.
func ResultOf(status string) Result {
	switch status {
	case "success":
		return ResultSucceeded
	case "failed", "reversed":
		return ResultFailed
	default:
		return ResultPending
	}
}

// Verification is the provider's answer for one transaction.
type Verification struct {
	Reference string
	Result    Result

	// Status is the provider's raw status string (e.g. "success", "abandoned").
	Status string
	Amount decimal.Decimal
}

// Gateway is implemented by payment providers.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}
