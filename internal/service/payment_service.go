package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/susu/internal/gateway"
	"github.com/mmynk/susu/internal/metrics"
	"github.com/mmynk/susu/internal/middleware"
	"github.com/mmynk/susu/internal/models"
	"github.com/mmynk/susu/internal/rotation"
	"github.com/mmynk/susu/internal/storage"
	api "github.com/mmynk/susu/pkg/api"
)

// PaymentService implements the Connect PaymentService. Gateway calls are
// made without holding the group lock; the group is reloaded and validated
// again before anything is written.
type PaymentService struct {
	store   storage.Store
	engine  *rotation.Engine
	gateway gateway.Gateway
	locks   *GroupLocks
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPaymentService creates a PaymentService sharing locks with the GroupService.
func NewPaymentService(store storage.Store, engine *rotation.Engine, gw gateway.Gateway, locks *GroupLocks, m *metrics.Metrics, logger *slog.Logger) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{store: store, engine: engine, gateway: gw, locks: locks, metrics: m, logger: logger}
}

// InitializePayment starts a contribution from the caller to the current
// collector. Nothing is recorded unless the gateway accepts the transaction.
func (s *PaymentService) InitializePayment(ctx context.Context, req *connect.Request[api.InitializePaymentRequest]) (*connect.Response[api.InitializePaymentResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupId
	s.logger.Info("InitializePayment request received",
		"group_id", groupID,
		"user_id", caller,
		"amount", req.Msg.Amount,
	)

	amount, err := parseAmount(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}

	recipient, err := s.prepare(ctx, groupID, caller, amount)
	if err != nil {
		return nil, toConnectError(err)
	}

	reference := rotation.NewReference()
	start := time.Now()
	authz, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Email:     middleware.GetEmail(ctx),
		Amount:    amount,
		Reference: reference,
	})
	s.metrics.ObserveGateway("initialize", start, err)
	if err != nil {
		s.logger.Error("Gateway initialize failed",
			"group_id", groupID,
			"reference", reference,
			"error", err,
		)
		return nil, toConnectError(fmt.Errorf("%w: %w", rotation.ErrExternalFailure, err))
	}

	var payment models.Payment
	_, err = updateGroup(ctx, s.store, s.locks, groupID, func(g *models.Group) (bool, error) {
		p, err := s.engine.RecordPayment(g, caller, amount, reference, rotation.Authorization{
			URL:        authz.AuthorizationURL,
			AccessCode: authz.AccessCode,
		})
		if err != nil {
			return false, err
		}
		payment = *p
		return true, nil
	})
	if err != nil {
		// the gateway transaction is abandoned; it can never be verified against a group
		s.logger.Warn("Payment not recorded after gateway accepted it",
			"group_id", groupID,
			"reference", reference,
			"error", err,
		)
		return nil, toConnectError(err)
	}

	s.metrics.PaymentInitialized()
	s.logger.Info("Payment initialized",
		"group_id", groupID,
		"reference", reference,
		"payer", caller,
		"recipient", recipient,
		"round", payment.Round,
	)
	return connect.NewResponse(&api.InitializePaymentResponse{
		Payment:    toAPIPayment(groupID, &payment),
		AccessCode: payment.AccessCode,
	}), nil
}

// prepare validates the payment under the group lock and returns the
// recipient. The lock is released before returning.
func (s *PaymentService) prepare(ctx context.Context, groupID, payerID string, amount decimal.Decimal) (string, error) {
	unlock := s.locks.Lock(groupID)
	defer unlock()

	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	return s.engine.PreparePayment(g, payerID, amount)
}

// VerifyPayment asks the gateway about a reference and settles the payment.
// Verifying an already settled payment, or one the gateway still reports as
// open, returns its current state unchanged.
func (s *PaymentService) VerifyPayment(ctx context.Context, req *connect.Request[api.VerifyPaymentRequest]) (*connect.Response[api.VerifyPaymentResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	reference := req.Msg.Reference
	s.logger.Info("VerifyPayment request received", "reference", reference, "user_id", caller)

	group, err := s.store.GetGroupByPaymentReference(ctx, reference)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !rotation.IsMember(group, caller) {
		return nil, toConnectError(rotation.ErrNotAMember)
	}
	existing, _ := rotation.FindPayment(group, reference)
	if existing == nil {
		return nil, toConnectError(rotation.ErrPaymentNotFound)
	}
	if existing.Status.Terminal() {
		s.metrics.PaymentVerified("noop")
		return connect.NewResponse(&api.VerifyPaymentResponse{
			Payment: toAPIPayment(group.ID, existing),
			Group:   toAPIGroup(group),
		}), nil
	}

	start := time.Now()
	verification, err := s.gateway.Verify(ctx, reference)
	s.metrics.ObserveGateway("verify", start, err)
	if err != nil {
		s.logger.Error("Gateway verify failed", "reference", reference, "error", err)
		return nil, toConnectError(fmt.Errorf("%w: %w", rotation.ErrExternalFailure, err))
	}
	if verification.Result == gateway.ResultPending {
		s.metrics.PaymentVerified("pending")
		s.logger.Info("Payment still open at gateway",
			"group_id", group.ID,
			"reference", reference,
			"gateway_status", verification.Status,
		)
		return connect.NewResponse(&api.VerifyPaymentResponse{
			Payment: toAPIPayment(group.ID, existing),
			Group:   toAPIGroup(group),
		}), nil
	}

	var (
		outcome rotation.Outcome
		failed  bool
	)
	group, err = updateGroup(ctx, s.store, s.locks, group.ID, func(g *models.Group) (bool, error) {
		if verification.Result == gateway.ResultFailed {
			p, _ := rotation.FindPayment(g, reference)
			if p == nil {
				return false, rotation.ErrPaymentNotFound
			}
			failed = !p.Status.Terminal()
			return failed, s.engine.FailPayment(g, reference)
		}
		var err error
		outcome, err = s.engine.Advance(g, reference)
		return outcome.Applied, err
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	p, _ := rotation.FindPayment(group, reference)
	switch {
	case failed:
		s.metrics.PaymentVerified("failed")
		s.logger.Warn("Payment failed at gateway",
			"group_id", group.ID,
			"reference", reference,
			"gateway_status", verification.Status,
		)
	case outcome.Applied:
		s.metrics.PaymentVerified("complete")
		s.metrics.Rotation(outcome.RoundCompleted, outcome.CycleCompleted)
		s.logger.Info("Payment verified",
			"group_id", group.ID,
			"reference", reference,
			"next_collector", outcome.NextCollector,
			"round", outcome.Round,
			"cycle_completed", outcome.CycleCompleted,
		)
	default:
		// settled by a concurrent verification while the gateway call ran
		s.metrics.PaymentVerified("noop")
	}

	return connect.NewResponse(&api.VerifyPaymentResponse{
		Payment:        toAPIPayment(group.ID, p),
		Group:          toAPIGroup(group),
		Applied:        outcome.Applied || failed,
		RoundCompleted: outcome.RoundCompleted,
		CycleCompleted: outcome.CycleCompleted,
	}), nil
}

// ListPayments returns a group's payments in creation order, optionally for a
// single round.
func (s *PaymentService) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadForMember(ctx, s.store, req.Msg.GroupId, caller)
	if err != nil {
		return nil, toConnectError(err)
	}

	payments := group.Payments
	if req.Msg.Round > 0 {
		payments = rotation.PaymentsForRound(group, req.Msg.Round)
	}

	out := make([]*api.Payment, len(payments))
	for i := range payments {
		out[i] = toAPIPayment(group.ID, &payments[i])
	}
	return connect.NewResponse(&api.ListPaymentsResponse{Payments: out}), nil
}
