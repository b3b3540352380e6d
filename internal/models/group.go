package models

import "github.com/shopspring/decimal"

// GroupStatus is the lifecycle state of a group.
type GroupStatus string

const (
	GroupActive    GroupStatus = "active"
	GroupPending   GroupStatus = "pending"
	GroupCompleted GroupStatus = "completed"
	GroupCancelled GroupStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s GroupStatus) Terminal() bool {
	return s == GroupCompleted || s == GroupCancelled
}

// Valid reports whether s is a known status.
func (s GroupStatus) Valid() bool {
	switch s {
	case GroupActive, GroupPending, GroupCompleted, GroupCancelled:
		return true
	}
	return false
}

// Frequency is how often members contribute.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Valid reports whether f is a supported cycle frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Group represents a rotating savings group.
//
// Members and CollectionOrder always hold the same set of user IDs; CollectionOrder
// is the rotation schedule and is only ever appended to.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Market Women", "Office Susu").
	Name string

	// CreatedBy is the user ID of the creator. Only the creator can approve or
	// reject join requests.
	CreatedBy string

	// Members is the list of member user IDs in join order.
	Members []string

	// CollectionOrder is the rotation schedule: creator first, then approved
	// joiners in approval order.
	CollectionOrder []string

	// NextCollector is the member entitled to the current pool. Empty until the
	// group has a second member.
	NextCollector string

	// CurrentRound starts at 1 and increments after each full pass through
	// CollectionOrder.
	CurrentRound int

	Status GroupStatus

	// ContributionAmount is what each member pays per cycle.
	ContributionAmount decimal.Decimal

	// MemberLimit caps len(Members).
	MemberLimit int

	CycleFrequency Frequency

	// StartDate is the Unix timestamp of the first contribution due date.
	StartDate int64

	// PendingRequests maps requester user ID to the Unix timestamp of the request.
	PendingRequests map[string]int64

	// Payments is the append-only list of payment records for this group.
	Payments []Payment

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// Version is bumped on every save and used for optimistic concurrency.
	Version int64
}

// Clone returns a deep copy of g so callers can mutate it without touching
// shared state.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = append([]string(nil), g.Members...)
	c.CollectionOrder = append([]string(nil), g.CollectionOrder...)
	c.Payments = append([]Payment(nil), g.Payments...)
	c.PendingRequests = make(map[string]int64, len(g.PendingRequests))
	for k, v := range g.PendingRequests {
		c.PendingRequests[k] = v
	}
	return &c
}
