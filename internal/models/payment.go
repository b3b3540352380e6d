package models

import "github.com/shopspring/decimal"

// PaymentStatus is the state of a payment attempt.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentComplete PaymentStatus = "complete"
	PaymentFailed   PaymentStatus = "failed"
)

// Terminal reports whether the payment can no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentComplete || s == PaymentFailed
}

// Payment records one contribution from Payer to the round's collector.
// Payer and Recipient are never equal.
type Payment struct {
	// Reference is the unique correlation token shared with the payment gateway.
	Reference string

	Payer     string
	Recipient string
	Amount    decimal.Decimal

	// Round is the group's CurrentRound when the payment was initialized.
	Round int

	Status PaymentStatus

	// AuthorizationURL is where the payer completes the payment with the gateway.
	AuthorizationURL string

	// AccessCode is the gateway's handle for the pending transaction.
	AccessCode string

	// CreatedAt is the Unix timestamp when the payment was initialized.
	CreatedAt int64

	// SettledAt is the Unix timestamp when the payment became complete or failed.
	// Zero while pending.
	SettledAt int64
}
