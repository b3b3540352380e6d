package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/susu/internal/auth"
	"github.com/mmynk/susu/internal/calculator"
	"github.com/mmynk/susu/internal/metrics"
	"github.com/mmynk/susu/internal/middleware"
	"github.com/mmynk/susu/internal/models"
	"github.com/mmynk/susu/internal/rotation"
	"github.com/mmynk/susu/internal/storage"
	api "github.com/mmynk/susu/pkg/api"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	store   storage.Store
	engine  *rotation.Engine
	locks   *GroupLocks
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewGroupService creates a GroupService. locks must be shared with the
// PaymentService so both serialize on the same group.
func NewGroupService(store storage.Store, engine *rotation.Engine, locks *GroupLocks, m *metrics.Metrics, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{store: store, engine: engine, locks: locks, metrics: m, logger: logger}
}

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	id := middleware.GetUserID(ctx)
	if id == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return id, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", rotation.ErrInvalid, s)
	}
	return d, nil
}

// updateGroup loads groupID under its lock, applies fn and saves the group
// when fn reports a change. fn's error is returned after any save, so a
// rejected operation can still persist cleanup such as dropping a stale
// request.
func updateGroup(ctx context.Context, store storage.Store, locks *GroupLocks, groupID string, fn func(g *models.Group) (changed bool, err error)) (*models.Group, error) {
	unlock := locks.Lock(groupID)
	defer unlock()

	g, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	changed, fnErr := fn(g)
	if changed {
		if err := store.SaveGroup(ctx, g); err != nil {
			return nil, fmt.Errorf("failed to save group: %w", err)
		}
	}
	if fnErr != nil {
		return nil, fnErr
	}
	return g, nil
}

// loadForMember fetches a group the caller belongs to.
func loadForMember(ctx context.Context, store storage.Store, groupID, userID string) (*models.Group, error) {
	g, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !rotation.IsMember(g, userID) {
		return nil, rotation.ErrNotAMember
	}
	return g, nil
}

// CreateGroup creates a group with the caller as its creator and only member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"member_limit", req.Msg.MemberLimit,
		"user_id", caller,
	)

	amount, err := parseAmount(req.Msg.ContributionAmount)
	if err != nil {
		return nil, toConnectError(err)
	}
	var start int64
	if req.Msg.StartDate != nil {
		start = req.Msg.StartDate.AsTime().Unix()
	}

	group, err := s.engine.NewGroup(rotation.GroupParams{
		Name:               req.Msg.Name,
		CreatedBy:          caller,
		ContributionAmount: amount,
		MemberLimit:        req.Msg.MemberLimit,
		CycleFrequency:     models.Frequency(req.Msg.CycleFrequency),
		StartDate:          start,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup returns a group to one of its members.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadForMember(ctx, s.store, req.Msg.GroupId, caller)
	if err != nil {
		return nil, toConnectError(err)
	}
	// expired requests are dropped from the view; ListJoinRequests persists the purge
	s.engine.PurgeExpired(group)

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups returns every group the caller is a member of.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, caller)
	if err != nil {
		s.logger.Error("ListGroups failed", "user_id", caller, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// RequestToJoin files a pending join request for the caller.
func (s *GroupService) RequestToJoin(ctx context.Context, req *connect.Request[api.RequestToJoinRequest]) (*connect.Response[api.RequestToJoinResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RequestToJoin request received", "group_id", req.Msg.GroupId, "user_id", caller)

	_, err = updateGroup(ctx, s.store, s.locks, req.Msg.GroupId, func(g *models.Group) (bool, error) {
		err := s.engine.Request(g, caller)
		return err == nil, err
	})
	if err != nil {
		if errors.Is(err, rotation.ErrCapacityExceeded) {
			s.metrics.JoinRequest("capacity_exceeded")
		}
		return nil, toConnectError(err)
	}

	s.metrics.JoinRequest("requested")
	return connect.NewResponse(&api.RequestToJoinResponse{}), nil
}

// ListJoinRequests shows the creator the requests still awaiting a decision.
// Expired requests are removed as a side effect.
func (s *GroupService) ListJoinRequests(ctx context.Context, req *connect.Request[api.ListJoinRequestsRequest]) (*connect.Response[api.ListJoinRequestsResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var pending []rotation.JoinRequest
	_, err = updateGroup(ctx, s.store, s.locks, req.Msg.GroupId, func(g *models.Group) (bool, error) {
		if g.CreatedBy != caller {
			return false, rotation.ErrNotCreator
		}
		purged := s.engine.PurgeExpired(g)
		for range purged {
			s.metrics.JoinRequest("expired")
		}
		pending = s.engine.PendingRequests(g)
		return len(purged) > 0, nil
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*api.JoinRequest, len(pending))
	for i, r := range pending {
		out[i] = &api.JoinRequest{UserId: r.UserID, RequestedAt: unixTimestamp(r.RequestedAt)}
	}
	return connect.NewResponse(&api.ListJoinRequestsResponse{Requests: out}), nil
}

// ApproveJoinRequest admits a requester. Only the creator may approve.
func (s *GroupService) ApproveJoinRequest(ctx context.Context, req *connect.Request[api.ApproveJoinRequestRequest]) (*connect.Response[api.ApproveJoinRequestResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ApproveJoinRequest request received",
		"group_id", req.Msg.GroupId,
		"requester", req.Msg.UserId,
		"user_id", caller,
	)

	group, err := updateGroup(ctx, s.store, s.locks, req.Msg.GroupId, func(g *models.Group) (bool, error) {
		before := len(g.PendingRequests)
		err := s.engine.Approve(g, req.Msg.UserId, caller)
		return err == nil || len(g.PendingRequests) != before, err
	})
	if err != nil {
		s.recordDecisionFailure(err)
		return nil, toConnectError(err)
	}

	s.metrics.JoinRequest("approved")
	s.logger.Info("Member admitted",
		"group_id", group.ID,
		"member", req.Msg.UserId,
		"members", len(group.Members),
		"next_collector", group.NextCollector,
	)
	return connect.NewResponse(&api.ApproveJoinRequestResponse{Group: toAPIGroup(group)}), nil
}

// RejectJoinRequest discards a pending request. Only the creator may reject.
func (s *GroupService) RejectJoinRequest(ctx context.Context, req *connect.Request[api.RejectJoinRequestRequest]) (*connect.Response[api.RejectJoinRequestResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	_, err = updateGroup(ctx, s.store, s.locks, req.Msg.GroupId, func(g *models.Group) (bool, error) {
		before := len(g.PendingRequests)
		err := s.engine.Reject(g, req.Msg.UserId, caller)
		return err == nil || len(g.PendingRequests) != before, err
	})
	if err != nil {
		s.recordDecisionFailure(err)
		return nil, toConnectError(err)
	}

	s.metrics.JoinRequest("rejected")
	return connect.NewResponse(&api.RejectJoinRequestResponse{}), nil
}

func (s *GroupService) recordDecisionFailure(err error) {
	switch {
	case errors.Is(err, rotation.ErrRequestExpired):
		s.metrics.JoinRequest("expired")
	case errors.Is(err, rotation.ErrCapacityExceeded):
		s.metrics.JoinRequest("capacity_exceeded")
	}
}

// GetGroupSummary returns each member's contribution totals, the pool
// collected so far in the current round and when the round is due.
func (s *GroupService) GetGroupSummary(ctx context.Context, req *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GetGroupSummaryResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadForMember(ctx, s.store, req.Msg.GroupId, caller)
	if err != nil {
		return nil, toConnectError(err)
	}

	start := time.Now()
	balances := calculator.ContributionBalances(group.Members, group.Payments)
	s.logger.Debug("Summary computed",
		"group_id", group.ID,
		"payments", len(group.Payments),
		"duration_us", time.Since(start).Microseconds(),
	)

	return connect.NewResponse(&api.GetGroupSummaryResponse{
		Balances:    toAPIBalances(balances),
		CurrentPool: calculator.PoolForRound(group.Payments, group.CurrentRound).String(),
		NextDueDate: nextDueDate(group),
	}), nil
}
