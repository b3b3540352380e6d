// Package calculator aggregates payment records into per-member totals.
package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/susu/internal/models"
)

// MemberBalance represents the contribution totals for one group member.
type MemberBalance struct {
	MemberID      string
	TotalPaid     decimal.Decimal // Sum of completed payments made
	TotalReceived decimal.Decimal // Sum of completed payments collected
	Net           decimal.Decimal // Received - Paid; positive = has collected more than contributed
	PaymentsMade  int
}

// ContributionBalances computes balances from completed payments. Every member
// in members gets an entry, in the order given, even with no payments.
// Pending and failed payments are ignored.
//
// Algorithm:
// - For each complete payment: payer.TotalPaid += amount, recipient.TotalReceived += amount
// - Net = TotalReceived - TotalPaid
// - Payers or recipients outside members (e.g. departed) are appended sorted by ID
func ContributionBalances(members []string, payments []models.Payment) []MemberBalance {
	balances := make(map[string]*MemberBalance, len(members))
	order := make([]string, 0, len(members))

	ensure := func(id string) *MemberBalance {
		if b, ok := balances[id]; ok {
			return b
		}
		b := &MemberBalance{MemberID: id}
		balances[id] = b
		return b
	}
	for _, m := range members {
		ensure(m)
		order = append(order, m)
	}

	var extra []string
	for _, p := range payments {
		if p.Status != models.PaymentComplete {
			continue
		}
		for _, id := range []string{p.Payer, p.Recipient} {
			if _, ok := balances[id]; !ok {
				extra = append(extra, id)
			}
		}
		payer := ensure(p.Payer)
		payer.TotalPaid = payer.TotalPaid.Add(p.Amount)
		payer.PaymentsMade++

		recipient := ensure(p.Recipient)
		recipient.TotalReceived = recipient.TotalReceived.Add(p.Amount)
	}
	sort.Strings(extra)
	order = append(order, extra...)

	result := make([]MemberBalance, 0, len(order))
	for _, id := range order {
		b := balances[id]
		b.Net = b.TotalReceived.Sub(b.TotalPaid)
		result = append(result, *b)
	}
	return result
}

// PoolForRound sums the completed payments collected in round.
func PoolForRound(payments []models.Payment, round int) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Round == round && p.Status == models.PaymentComplete {
			total = total.Add(p.Amount)
		}
	}
	return total
}
