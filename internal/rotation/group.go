package rotation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/susu/internal/models"
)

// GroupParams is the immutable configuration a creator supplies.
type GroupParams struct {
	ID                 string
	Name               string
	CreatedBy          string
	ContributionAmount decimal.Decimal
	MemberLimit        int
	CycleFrequency     models.Frequency
	StartDate          int64
}

// NewGroup validates p and returns an active group in round 1 whose only member
// is the creator.
func (e *Engine) NewGroup(p GroupParams) (*models.Group, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if p.CreatedBy == "" {
		return nil, fmt.Errorf("%w: creator is required", ErrInvalid)
	}
	if !p.ContributionAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if p.MemberLimit < 2 {
		return nil, fmt.Errorf("%w: member limit must be at least 2", ErrInvalid)
	}
	if !p.CycleFrequency.Valid() {
		return nil, fmt.Errorf("%w: unknown cycle frequency %q", ErrInvalid, p.CycleFrequency)
	}
	if p.StartDate <= 0 {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalid)
	}

	return &models.Group{
		ID:                 p.ID,
		Name:               p.Name,
		CreatedBy:          p.CreatedBy,
		Members:            []string{p.CreatedBy},
		CollectionOrder:    []string{p.CreatedBy},
		CurrentRound:       1,
		Status:             models.GroupActive,
		ContributionAmount: p.ContributionAmount,
		MemberLimit:        p.MemberLimit,
		CycleFrequency:     p.CycleFrequency,
		StartDate:          p.StartDate,
		PendingRequests:    make(map[string]int64),
		CreatedAt:          e.now().Unix(),
	}, nil
}
