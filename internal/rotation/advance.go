package rotation

import (
	"log/slog"

	"github.com/mmynk/susu/internal/models"
)

// Outcome describes what a verification did to the group.
type Outcome struct {
	// Applied is false when the payment was already settled and nothing changed.
	Applied bool

	// Advanced is true when NextCollector moved.
	Advanced bool

	// RoundCompleted is true when the pass through CollectionOrder wrapped.
	RoundCompleted bool

	// CycleCompleted is true when this verification completed the group.
	CycleCompleted bool

	NextCollector string
	Round         int
}

// Advance applies a gateway-confirmed payment: the payment becomes complete and
// the collector pointer moves to the member after the payer in the collection
// order. Wrapping to the start of the order begins a new round; once the round
// count exceeds the member count the group is completed.
//
// A payment that is already complete or failed is left alone, so repeated
// verifications of the same reference are no-ops. Once the group is completed
// or cancelled, a pending payment is still marked complete but the collector
// and round stay where they are.
func (e *Engine) Advance(g *models.Group, reference string) (Outcome, error) {
	p, _ := FindPayment(g, reference)
	if p == nil {
		return Outcome{}, ErrPaymentNotFound
	}
	if p.Status.Terminal() {
		return Outcome{NextCollector: g.NextCollector, Round: g.CurrentRound}, nil
	}

	p.Status = models.PaymentComplete
	p.SettledAt = e.now().Unix()
	out := Outcome{Applied: true, NextCollector: g.NextCollector, Round: g.CurrentRound}

	// a late payment into a finished group is recorded but moves nothing
	if g.Status.Terminal() {
		return out, nil
	}

	idx := orderIndex(g, p.Payer)
	if idx < 0 {
		slog.Warn("Payer missing from collection order, collector not advanced",
			"group_id", g.ID,
			"payer", p.Payer,
			"reference", reference,
		)
		return out, nil
	}

	next := (idx + 1) % len(g.CollectionOrder)
	g.NextCollector = g.CollectionOrder[next]
	out.Advanced = true
	out.NextCollector = g.NextCollector

	if next == 0 {
		g.CurrentRound++
		out.RoundCompleted = true
		if g.CurrentRound > len(g.Members) {
			g.Status = models.GroupCompleted
			out.CycleCompleted = true
		}
	}
	out.Round = g.CurrentRound
	return out, nil
}

// FailPayment marks a pending payment as failed. Settled payments are left
// unchanged.
func (e *Engine) FailPayment(g *models.Group, reference string) error {
	p, _ := FindPayment(g, reference)
	if p == nil {
		return ErrPaymentNotFound
	}
	if p.Status.Terminal() {
		return nil
	}
	p.Status = models.PaymentFailed
	p.SettledAt = e.now().Unix()
	return nil
}
