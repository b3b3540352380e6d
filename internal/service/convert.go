package service

import (
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mmynk/susu/internal/calculator"
	"github.com/mmynk/susu/internal/models"
	"github.com/mmynk/susu/internal/rotation"
	api "github.com/mmynk/susu/pkg/api"
)

// unixTimestamp converts a stored Unix time, treating zero as unset.
func unixTimestamp(sec int64) *timestamppb.Timestamp {
	if sec == 0 {
		return nil
	}
	return timestamppb.New(time.Unix(sec, 0))
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		Id:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   unixTimestamp(u.CreatedAt),
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		Id:                 g.ID,
		Name:               g.Name,
		CreatedBy:          g.CreatedBy,
		Members:            append([]string(nil), g.Members...),
		CollectionOrder:    append([]string(nil), g.CollectionOrder...),
		NextCollector:      g.NextCollector,
		CurrentRound:       g.CurrentRound,
		Status:             string(g.Status),
		ContributionAmount: g.ContributionAmount.String(),
		MemberLimit:        g.MemberLimit,
		CycleFrequency:     string(g.CycleFrequency),
		StartDate:          unixTimestamp(g.StartDate),
		NextDueDate:        nextDueDate(g),
		CreatedAt:          unixTimestamp(g.CreatedAt),
	}
}

// nextDueDate is the due date of the current round, or nil once the group
// stopped collecting.
func nextDueDate(g *models.Group) *timestamppb.Timestamp {
	if g.Status != models.GroupActive || g.StartDate == 0 {
		return nil
	}
	return timestamppb.New(rotation.DueDate(g, g.CurrentRound))
}

func toAPIPayment(groupID string, p *models.Payment) *api.Payment {
	return &api.Payment{
		Reference:        p.Reference,
		GroupId:          groupID,
		Payer:            p.Payer,
		Recipient:        p.Recipient,
		Amount:           p.Amount.String(),
		Round:            p.Round,
		Status:           string(p.Status),
		AuthorizationUrl: p.AuthorizationURL,
		CreatedAt:        unixTimestamp(p.CreatedAt),
		SettledAt:        unixTimestamp(p.SettledAt),
	}
}

func toAPIBalances(balances []calculator.MemberBalance) []*api.MemberBalance {
	out := make([]*api.MemberBalance, len(balances))
	for i, b := range balances {
		out[i] = &api.MemberBalance{
			MemberId:      b.MemberID,
			TotalPaid:     b.TotalPaid.String(),
			TotalReceived: b.TotalReceived.String(),
			Net:           b.Net.String(),
			PaymentsMade:  b.PaymentsMade,
		}
	}
	return out
}
