package rotation

import (
	"sort"
	"time"

	"github.com/mmynk/susu/internal/models"
)

// JoinRequest is a pending request as seen by the group creator.
type JoinRequest struct {
	UserID      string
	RequestedAt int64
}

// Request records a pending join request from userID.
// Checks run in order: already a member, duplicate request, group full.
func (e *Engine) Request(g *models.Group, userID string) error {
	if g.Status.Terminal() {
		return ErrGroupNotActive
	}
	if IsMember(g, userID) {
		return ErrAlreadyMember
	}
	if g.PendingRequests == nil {
		g.PendingRequests = make(map[string]int64)
	}
	if ts, ok := g.PendingRequests[userID]; ok {
		if !e.expired(ts) {
			return ErrDuplicateRequest
		}
		// stale entry, replaced below
		delete(g.PendingRequests, userID)
	}
	if len(g.Members) >= g.MemberLimit {
		return ErrCapacityExceeded
	}
	g.PendingRequests[userID] = e.now().Unix()
	return nil
}

// Approve admits requesterID into the group. Only the creator may approve.
// An expired or unsatisfiable request is removed before the error is returned,
// including requests left over from before the group completed or was cancelled.
func (e *Engine) Approve(g *models.Group, requesterID, actingUserID string) error {
	if err := e.takeRequest(g, requesterID, actingUserID); err != nil {
		return err
	}
	if g.Status.Terminal() {
		return ErrGroupNotActive
	}
	if len(g.Members) >= g.MemberLimit {
		return ErrCapacityExceeded
	}
	if err := AddMember(g, requesterID); err != nil {
		return err
	}
	if g.NextCollector == "" && len(g.Members) >= 2 {
		g.NextCollector = e.SelectFirstCollector(g)
	}
	return nil
}

// Reject discards requesterID's pending request. Only the creator may reject.
func (e *Engine) Reject(g *models.Group, requesterID, actingUserID string) error {
	return e.takeRequest(g, requesterID, actingUserID)
}

// takeRequest authorizes the acting user and removes the matching request,
// reporting ErrRequestExpired if it was stale.
func (e *Engine) takeRequest(g *models.Group, requesterID, actingUserID string) error {
	if actingUserID != g.CreatedBy {
		return ErrNotCreator
	}
	ts, ok := g.PendingRequests[requesterID]
	if !ok {
		return ErrRequestNotFound
	}
	delete(g.PendingRequests, requesterID)
	if e.expired(ts) {
		return ErrRequestExpired
	}
	return nil
}

// PurgeExpired drops stale requests and returns the removed user IDs.
func (e *Engine) PurgeExpired(g *models.Group) []string {
	var removed []string
	for userID, ts := range g.PendingRequests {
		if e.expired(ts) {
			delete(g.PendingRequests, userID)
			removed = append(removed, userID)
		}
	}
	sort.Strings(removed)
	return removed
}

// PendingRequests returns the valid requests, oldest first.
func (e *Engine) PendingRequests(g *models.Group) []JoinRequest {
	reqs := make([]JoinRequest, 0, len(g.PendingRequests))
	for userID, ts := range g.PendingRequests {
		if e.expired(ts) {
			continue
		}
		reqs = append(reqs, JoinRequest{UserID: userID, RequestedAt: ts})
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].RequestedAt != reqs[j].RequestedAt {
			return reqs[i].RequestedAt < reqs[j].RequestedAt
		}
		return reqs[i].UserID < reqs[j].UserID
	})
	return reqs
}

func (e *Engine) expired(requestedAt int64) bool {
	return e.now().Sub(time.Unix(requestedAt, 0)) > e.requestTTL()
}
