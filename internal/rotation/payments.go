package rotation

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/susu/internal/models"
)

// PreparePayment checks that payerID may pay amount into the current round and
// returns the collector who would receive it. It does not modify g.
func (e *Engine) PreparePayment(g *models.Group, payerID string, amount decimal.Decimal) (string, error) {
	if g.Status != models.GroupActive {
		return "", ErrGroupNotActive
	}
	if !IsMember(g, payerID) {
		return "", ErrNotAMember
	}
	if g.NextCollector == "" {
		return "", ErrNoCollector
	}
	if payerID == g.NextCollector {
		return "", ErrSelfPayment
	}
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	if e.StrictAmount && !amount.Equal(g.ContributionAmount) {
		return "", ErrAmountMismatch
	}
	return g.NextCollector, nil
}

// RecordPayment appends a pending payment once the gateway has accepted it.
// The checks from PreparePayment run again because g may have moved on while
// the gateway call was in flight.
func (e *Engine) RecordPayment(g *models.Group, payerID string, amount decimal.Decimal, reference string, auth Authorization) (*models.Payment, error) {
	recipient, err := e.PreparePayment(g, payerID, amount)
	if err != nil {
		return nil, err
	}
	if _, idx := FindPayment(g, reference); idx >= 0 {
		return nil, ErrDuplicateReference
	}

	g.Payments = append(g.Payments, models.Payment{
		Reference:        reference,
		Payer:            payerID,
		Recipient:        recipient,
		Amount:           amount,
		Round:            g.CurrentRound,
		Status:           models.PaymentPending,
		AuthorizationURL: auth.URL,
		AccessCode:       auth.AccessCode,
		CreatedAt:        e.now().Unix(),
	})
	return &g.Payments[len(g.Payments)-1], nil
}

// Authorization is the gateway handle stored alongside a pending payment.
type Authorization struct {
	URL        string
	AccessCode string
}

// FindPayment returns the payment with the given reference and its index, or
// (nil, -1).
func FindPayment(g *models.Group, reference string) (*models.Payment, int) {
	for i := range g.Payments {
		if g.Payments[i].Reference == reference {
			return &g.Payments[i], i
		}
	}
	return nil, -1
}

// PaymentsForRound returns the payments recorded in round, in creation order.
func PaymentsForRound(g *models.Group, round int) []models.Payment {
	var out []models.Payment
	for _, p := range g.Payments {
		if p.Round == round {
			out = append(out, p)
		}
	}
	return out
}
